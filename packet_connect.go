package mqttv4

import (
	"bytes"
	"errors"
	"io"
)

// Protocol names by level.
const (
	protocolNameV3 = "MQIsdp"
	protocolNameV4 = "MQTT"
)

// ProtocolVersion is the protocol level carried in the CONNECT variable
// header.
type ProtocolVersion byte

// Known protocol levels.
const (
	// Version31 is MQTT v3.1, protocol name "MQIsdp".
	Version31 ProtocolVersion = 3

	// Version311 is MQTT v3.1.1, protocol name "MQTT".
	Version311 ProtocolVersion = 4

	// Version5 is MQTT v5.0. The level is representable so callers can
	// name it, but this package does not speak v5: decoding a level-5
	// CONNECT fails with ErrUnsupportedProtocolVersion.
	Version5 ProtocolVersion = 5
)

// Name returns the protocol name string encoded for the version.
func (v ProtocolVersion) Name() string {
	if v == Version31 {
		return protocolNameV3
	}
	return protocolNameV4
}

// Valid returns true if the version is supported by this package.
func (v ProtocolVersion) Valid() bool {
	return v == Version31 || v == Version311
}

// Connect flag bit positions.
const (
	connectFlagCleanSession = 0x02
	connectFlagWillFlag     = 0x04
	connectFlagWillRetain   = 0x20
	connectFlagPasswordFlag = 0x40
	connectFlagUsernameFlag = 0x80
)

// CONNECT packet errors.
var (
	ErrInvalidProtocolName        = errors.New("invalid protocol name")
	ErrInvalidProtocolVersion     = errors.New("protocol name and level mismatch")
	ErrUnsupportedProtocolVersion = errors.New("unsupported protocol version")
	ErrInvalidConnectFlags        = errors.New("invalid connect flags")
	ErrClientIDTooLong            = errors.New("client ID too long")
	ErrClientIDRequired           = errors.New("client ID required with clean session false")
	ErrPasswordWithoutUsername    = errors.New("password set without username")
	ErrInvalidWillMessage         = errors.New("invalid will message configuration")
)

// ConnectPacket represents an MQTT CONNECT packet.
type ConnectPacket struct {
	// Version is the protocol level to encode. The zero value encodes as
	// Version311.
	Version ProtocolVersion

	// ClientID is the client identifier. May be empty only when
	// CleanSession is true (the server assigns one).
	ClientID string

	// CleanSession indicates whether the server should discard any
	// existing session state for this client.
	CleanSession bool

	// KeepAlive is the keep alive interval in seconds.
	KeepAlive uint16

	// Username for authentication.
	Username string

	// Password for authentication.
	Password []byte

	// Will message configuration.
	WillFlag    bool
	WillRetain  bool
	WillQoS     byte
	WillTopic   string
	WillPayload []byte
}

// Type returns the packet type.
func (p *ConnectPacket) Type() PacketType {
	return PacketCONNECT
}

// version returns the protocol level to encode, defaulting to v3.1.1.
func (p *ConnectPacket) version() ProtocolVersion {
	if p.Version == 0 {
		return Version311
	}
	return p.Version
}

// connectFlags returns the connect flags byte.
func (p *ConnectPacket) connectFlags() byte {
	var flags byte

	if p.CleanSession {
		flags |= connectFlagCleanSession
	}

	if p.WillFlag {
		flags |= connectFlagWillFlag
		flags |= (p.WillQoS & 0x03) << 3
		if p.WillRetain {
			flags |= connectFlagWillRetain
		}
	}

	if len(p.Password) > 0 {
		flags |= connectFlagPasswordFlag
	}

	if p.Username != "" {
		flags |= connectFlagUsernameFlag
	}

	return flags
}

// setConnectFlags parses the connect flags byte.
func (p *ConnectPacket) setConnectFlags(flags byte) error {
	// Reserved bit must be 0
	if flags&0x01 != 0 {
		return ErrInvalidConnectFlags
	}

	p.CleanSession = flags&connectFlagCleanSession != 0
	p.WillFlag = flags&connectFlagWillFlag != 0
	p.WillQoS = (flags >> 3) & 0x03
	p.WillRetain = flags&connectFlagWillRetain != 0

	// Will QoS must be 0 if Will Flag is 0
	if !p.WillFlag && p.WillQoS != 0 {
		return ErrInvalidConnectFlags
	}

	// Will Retain must be 0 if Will Flag is 0
	if !p.WillFlag && p.WillRetain {
		return ErrInvalidConnectFlags
	}

	// Will QoS must not be 3
	if p.WillQoS > 2 {
		return ErrInvalidConnectFlags
	}

	// Password without username is illegal
	if flags&connectFlagPasswordFlag != 0 && flags&connectFlagUsernameFlag == 0 {
		return ErrPasswordWithoutUsername
	}

	return nil
}

// Encode writes the packet to the writer.
func (p *ConnectPacket) Encode(w io.Writer) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}

	// Build variable header and payload
	var buf bytes.Buffer

	// Protocol Name
	n, err := encodeString(&buf, p.version().Name())
	if err != nil {
		return 0, err
	}

	// Protocol Level
	if err := buf.WriteByte(byte(p.version())); err != nil {
		return n, err
	}
	n++

	// Connect Flags
	if err := buf.WriteByte(p.connectFlags()); err != nil {
		return n, err
	}
	n++

	// Keep Alive
	n2, err := buf.Write([]byte{byte(p.KeepAlive >> 8), byte(p.KeepAlive)})
	n += n2
	if err != nil {
		return n, err
	}

	// Payload

	// Client ID
	n3, err := encodeString(&buf, p.ClientID)
	n += n3
	if err != nil {
		return n, err
	}

	// Will Topic, Payload
	if p.WillFlag {
		n4, err := encodeString(&buf, p.WillTopic)
		n += n4
		if err != nil {
			return n, err
		}

		n5, err := encodeBinary(&buf, p.WillPayload)
		n += n5
		if err != nil {
			return n, err
		}
	}

	// Username
	if p.Username != "" {
		n6, err := encodeString(&buf, p.Username)
		n += n6
		if err != nil {
			return n, err
		}
	}

	// Password
	if len(p.Password) > 0 {
		n7, err := encodeBinary(&buf, p.Password)
		n += n7
		if err != nil {
			return n, err
		}
	}

	// Write fixed header
	header := FixedHeader{
		PacketType:      PacketCONNECT,
		Flags:           0x00,
		RemainingLength: uint32(buf.Len()),
	}

	total, err := header.Encode(w)
	if err != nil {
		return total, err
	}

	// Write variable header and payload
	n8, err := w.Write(buf.Bytes())
	return total + n8, err
}

// Decode reads the packet from the reader.
func (p *ConnectPacket) Decode(r io.Reader, header FixedHeader) (int, error) {
	if header.PacketType != PacketCONNECT {
		return 0, ErrInvalidPacketType
	}

	var totalRead int

	// Protocol Name
	protoName, n, err := decodeString(r)
	totalRead += n
	if err != nil {
		return totalRead, err
	}
	if protoName != protocolNameV4 && protoName != protocolNameV3 {
		return totalRead, ErrInvalidProtocolName
	}

	// Protocol Level
	var levelBuf [1]byte
	n, err = io.ReadFull(r, levelBuf[:])
	totalRead += n
	if err != nil {
		return totalRead, err
	}

	switch {
	case protoName == protocolNameV4 && levelBuf[0] == byte(Version311):
		p.Version = Version311
	case protoName == protocolNameV3 && levelBuf[0] == byte(Version31):
		p.Version = Version31
	case protoName == protocolNameV4 && levelBuf[0] == byte(Version5):
		return totalRead, ErrUnsupportedProtocolVersion
	default:
		return totalRead, ErrInvalidProtocolVersion
	}

	// Connect Flags
	var flagsBuf [1]byte
	n, err = io.ReadFull(r, flagsBuf[:])
	totalRead += n
	if err != nil {
		return totalRead, err
	}
	if err := p.setConnectFlags(flagsBuf[0]); err != nil {
		return totalRead, err
	}

	usernameFlag := flagsBuf[0]&connectFlagUsernameFlag != 0
	passwordFlag := flagsBuf[0]&connectFlagPasswordFlag != 0

	// Keep Alive
	var keepAliveBuf [2]byte
	n, err = io.ReadFull(r, keepAliveBuf[:])
	totalRead += n
	if err != nil {
		return totalRead, err
	}
	p.KeepAlive = uint16(keepAliveBuf[0])<<8 | uint16(keepAliveBuf[1])

	// Payload

	// Client ID
	p.ClientID, n, err = decodeString(r)
	totalRead += n
	if err != nil {
		return totalRead, err
	}

	// Will Topic, Payload
	if p.WillFlag {
		p.WillTopic, n, err = decodeString(r)
		totalRead += n
		if err != nil {
			return totalRead, err
		}

		p.WillPayload, n, err = decodeBinary(r)
		totalRead += n
		if err != nil {
			return totalRead, err
		}
	}

	// Username
	if usernameFlag {
		p.Username, n, err = decodeString(r)
		totalRead += n
		if err != nil {
			return totalRead, err
		}
	}

	// Password
	if passwordFlag {
		p.Password, n, err = decodeBinary(r)
		totalRead += n
		if err != nil {
			return totalRead, err
		}
	}

	return totalRead, nil
}

// Validate validates the packet contents.
func (p *ConnectPacket) Validate() error {
	if !p.version().Valid() {
		return ErrUnsupportedProtocolVersion
	}

	// Client ID length check (max 23 characters recommended, but up to 65535 allowed)
	if len(p.ClientID) > maxUint16 {
		return ErrClientIDTooLong
	}

	// Client ID must be present if CleanSession is false
	if !p.CleanSession && p.ClientID == "" {
		return ErrClientIDRequired
	}

	// Will QoS must be valid
	if p.WillQoS > 2 {
		return ErrInvalidQoS
	}

	// Will fields require the Will Flag and vice versa
	if !p.WillFlag && (p.WillRetain || p.WillQoS != 0 || p.WillTopic != "" || len(p.WillPayload) > 0) {
		return ErrInvalidWillMessage
	}
	if p.WillFlag {
		if p.WillTopic == "" {
			return ErrInvalidWillMessage
		}
		if err := ValidateTopicName(p.WillTopic); err != nil {
			return err
		}
	}

	// Password without username is illegal
	if len(p.Password) > 0 && p.Username == "" {
		return ErrPasswordWithoutUsername
	}

	return nil
}
