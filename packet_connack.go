package mqttv4

import (
	"bytes"
	"errors"
	"io"
)

// ConnackReturnCode is the connection result carried in a CONNACK packet.
type ConnackReturnCode byte

// CONNACK return codes. Values above 0x05 are reserved and malformed.
const (
	ConnackAccepted                    ConnackReturnCode = 0x00
	ConnackUnacceptableProtocolVersion ConnackReturnCode = 0x01
	ConnackIdentifierRejected          ConnackReturnCode = 0x02
	ConnackServerUnavailable           ConnackReturnCode = 0x03
	ConnackBadUsernameOrPassword       ConnackReturnCode = 0x04
	ConnackNotAuthorized               ConnackReturnCode = 0x05
)

// Valid returns true if the return code is defined by the specification.
func (c ConnackReturnCode) Valid() bool {
	return c <= ConnackNotAuthorized
}

// String returns the string representation of the return code.
func (c ConnackReturnCode) String() string {
	switch c {
	case ConnackAccepted:
		return "connection accepted"
	case ConnackUnacceptableProtocolVersion:
		return "unacceptable protocol version"
	case ConnackIdentifierRejected:
		return "identifier rejected"
	case ConnackServerUnavailable:
		return "server unavailable"
	case ConnackBadUsernameOrPassword:
		return "bad username or password"
	case ConnackNotAuthorized:
		return "not authorized"
	default:
		return "unknown return code"
	}
}

// CONNACK packet errors.
var (
	ErrInvalidConnackFlags = errors.New("invalid CONNACK flags")
	ErrInvalidReturnCode   = errors.New("invalid return code for packet type")
)

// ConnackPacket represents an MQTT CONNACK packet.
type ConnackPacket struct {
	// SessionPresent indicates if a session exists from a previous connection.
	SessionPresent bool

	// ReturnCode is the connection result.
	ReturnCode ConnackReturnCode
}

// Type returns the packet type.
func (p *ConnackPacket) Type() PacketType {
	return PacketCONNACK
}

// Encode writes the packet to the writer.
func (p *ConnackPacket) Encode(w io.Writer) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	var buf bytes.Buffer

	// Connect Acknowledge Flags
	var flags byte
	if p.SessionPresent {
		flags = 0x01
	}
	if err := buf.WriteByte(flags); err != nil {
		return 0, err
	}

	// Return Code
	if err := buf.WriteByte(byte(p.ReturnCode)); err != nil {
		return 1, err
	}

	// Write fixed header
	header := FixedHeader{
		PacketType:      PacketCONNACK,
		Flags:           0x00,
		RemainingLength: uint32(buf.Len()),
	}

	total, err := header.Encode(w)
	if err != nil {
		return total, err
	}

	// Write variable header
	n, err := w.Write(buf.Bytes())
	return total + n, err
}

// Decode reads the packet from the reader.
func (p *ConnackPacket) Decode(r io.Reader, header FixedHeader) (int, error) {
	if header.PacketType != PacketCONNACK {
		return 0, ErrInvalidPacketType
	}
	if header.RemainingLength != 2 {
		return 0, ErrProtocolViolation
	}

	var totalRead int

	// Connect Acknowledge Flags
	var flagsBuf [1]byte
	n, err := io.ReadFull(r, flagsBuf[:])
	totalRead += n
	if err != nil {
		return totalRead, err
	}

	// Reserved bits must be 0
	if flagsBuf[0]&0xFE != 0 {
		return totalRead, ErrInvalidConnackFlags
	}

	p.SessionPresent = flagsBuf[0]&0x01 != 0

	// Return Code
	var codeBuf [1]byte
	n, err = io.ReadFull(r, codeBuf[:])
	totalRead += n
	if err != nil {
		return totalRead, err
	}
	p.ReturnCode = ConnackReturnCode(codeBuf[0])

	if !p.ReturnCode.Valid() {
		return totalRead, ErrInvalidReturnCode
	}

	return totalRead, nil
}

// Validate validates the packet contents.
func (p *ConnackPacket) Validate() error {
	if !p.ReturnCode.Valid() {
		return ErrInvalidReturnCode
	}

	// If the connection was refused, session present must be false
	if p.ReturnCode != ConnackAccepted && p.SessionPresent {
		return ErrInvalidConnackFlags
	}

	return nil
}
