package mqttv4

import (
	"io"
)

// ackPacket is a helper for encoding/decoding simple acknowledgment packets
// (PUBACK, PUBREC, PUBREL, PUBCOMP, UNSUBACK). In MQTT v3.1.1 these carry
// only a two byte packet identifier.
type ackPacket struct {
	PacketID uint16
}

// encodeAck encodes an acknowledgment packet with the given packet type and flags.
func encodeAck(w io.Writer, packetType PacketType, flags byte, ack *ackPacket) (int, error) {
	// Write fixed header. Remaining length is always 2.
	header := FixedHeader{
		PacketType:      packetType,
		Flags:           flags,
		RemainingLength: 2,
	}

	total, err := header.Encode(w)
	if err != nil {
		return total, err
	}

	// Packet Identifier
	n, err := w.Write([]byte{byte(ack.PacketID >> 8), byte(ack.PacketID)})
	return total + n, err
}

// decodeAck decodes an acknowledgment packet body.
func decodeAck(r io.Reader, header FixedHeader, ack *ackPacket) (int, error) {
	if header.RemainingLength != 2 {
		return 0, ErrProtocolViolation
	}

	var idBuf [2]byte
	n, err := io.ReadFull(r, idBuf[:])
	if err != nil {
		return n, err
	}
	ack.PacketID = uint16(idBuf[0])<<8 | uint16(idBuf[1])

	if ack.PacketID == 0 {
		return n, ErrInvalidPacketID
	}

	return n, nil
}
