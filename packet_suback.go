package mqttv4

import (
	"bytes"
	"io"
)

// SubackReturnCode is a per-filter result code carried in a SUBACK payload.
type SubackReturnCode byte

// SUBACK return codes.
const (
	SubackGrantedQoS0 SubackReturnCode = 0x00
	SubackGrantedQoS1 SubackReturnCode = 0x01
	SubackGrantedQoS2 SubackReturnCode = 0x02
	SubackFailure     SubackReturnCode = 0x80
)

// Valid returns true if the return code is defined by the protocol.
func (c SubackReturnCode) Valid() bool {
	return c <= SubackGrantedQoS2 || c == SubackFailure
}

// String returns a human-readable description of the return code.
func (c SubackReturnCode) String() string {
	switch c {
	case SubackGrantedQoS0:
		return "granted QoS 0"
	case SubackGrantedQoS1:
		return "granted QoS 1"
	case SubackGrantedQoS2:
		return "granted QoS 2"
	case SubackFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// SubackPacket represents an MQTT SUBACK packet. Return codes are
// positional: the code at index i answers the subscription at index i
// of the SUBSCRIBE packet with the same identifier.
type SubackPacket struct {
	PacketID    uint16
	ReturnCodes []SubackReturnCode
}

// Type returns the packet type.
func (p *SubackPacket) Type() PacketType { return PacketSUBACK }

// GetPacketID returns the packet identifier.
func (p *SubackPacket) GetPacketID() uint16 { return p.PacketID }

// SetPacketID sets the packet identifier.
func (p *SubackPacket) SetPacketID(id uint16) { p.PacketID = id }

// Encode writes the packet to the writer.
func (p *SubackPacket) Encode(w io.Writer) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	var buf bytes.Buffer

	// Packet Identifier
	_, err := buf.Write([]byte{byte(p.PacketID >> 8), byte(p.PacketID)})
	if err != nil {
		return 0, err
	}

	// Payload: return codes
	for _, rc := range p.ReturnCodes {
		if err := buf.WriteByte(byte(rc)); err != nil {
			return 0, err
		}
	}

	// Write fixed header
	header := FixedHeader{
		PacketType:      PacketSUBACK,
		Flags:           0x00,
		RemainingLength: uint32(buf.Len()),
	}

	total, err := header.Encode(w)
	if err != nil {
		return total, err
	}

	n, err := w.Write(buf.Bytes())
	return total + n, err
}

// Decode reads the packet from the reader.
func (p *SubackPacket) Decode(r io.Reader, header FixedHeader) (int, error) {
	if header.PacketType != PacketSUBACK {
		return 0, ErrInvalidPacketType
	}

	var totalRead int

	// Packet Identifier
	var idBuf [2]byte
	n, err := io.ReadFull(r, idBuf[:])
	totalRead += n
	if err != nil {
		return totalRead, err
	}
	p.PacketID = uint16(idBuf[0])<<8 | uint16(idBuf[1])

	if p.PacketID == 0 {
		return totalRead, ErrInvalidPacketID
	}

	// Payload: return codes
	p.ReturnCodes = nil
	for totalRead < int(header.RemainingLength) {
		var rcBuf [1]byte
		n, err = io.ReadFull(r, rcBuf[:])
		totalRead += n
		if err != nil {
			return totalRead, err
		}

		rc := SubackReturnCode(rcBuf[0])
		if !rc.Valid() {
			return totalRead, ErrInvalidReturnCode
		}

		p.ReturnCodes = append(p.ReturnCodes, rc)
	}

	// Payload must contain at least one return code
	if len(p.ReturnCodes) == 0 {
		return totalRead, ErrProtocolViolation
	}

	return totalRead, nil
}

// Validate validates the packet contents.
func (p *SubackPacket) Validate() error {
	if p.PacketID == 0 {
		return ErrInvalidPacketID
	}

	if len(p.ReturnCodes) == 0 {
		return ErrProtocolViolation
	}

	for _, rc := range p.ReturnCodes {
		if !rc.Valid() {
			return ErrInvalidReturnCode
		}
	}

	return nil
}
