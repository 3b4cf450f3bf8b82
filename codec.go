package mqttv4

import (
	"errors"
	"io"
)

// ErrPacketTooLarge is returned by ReadPacket and WritePacket when a packet
// exceeds the caller's size limit.
var ErrPacketTooLarge = errors.New("mqttv4: packet exceeds maximum size")

// Decode decodes a single packet from the front of buf.
//
// On success it returns the packet and the number of bytes consumed, so the
// caller can slice off the packet and decode the next one from the same
// buffer. If buf holds only a prefix of a packet, the error matches
// ErrIncomplete and unwraps to *IncompleteError carrying a lower bound on
// the missing byte count; collect more bytes and call Decode again with the
// extended buffer. If buf violates the protocol framing rules, the error
// matches ErrMalformed; a violation visible in the bytes already present,
// such as a reserved type nibble or bad header flags, reports malformed
// even while the rest of the packet is pending. Consumed is 0 unless a
// whole packet was decoded.
func Decode(buf []byte) (Packet, int, error) {
	// Shortest possible packet is two bytes (type byte plus one byte of
	// remaining length).
	if len(buf) == 0 {
		return nil, 0, needMore(2)
	}

	header := FixedHeader{
		PacketType: PacketType(buf[0] >> 4),
		Flags:      buf[0] & 0x0F,
	}

	// A type or flag violation is visible in the first byte alone. Report
	// it before asking for more input, so the caller closes the connection
	// rather than buffering a packet that can never parse.
	if err := header.ValidateFlags(); err != nil {
		return nil, 0, malformedErr(err)
	}

	// Remaining length as variable byte integer
	var shift uint
	headerLen := 1
	for {
		if headerLen > 4 {
			return nil, 0, malformedErr(ErrVarintMalformed)
		}
		if headerLen >= len(buf) {
			return nil, 0, needMore(1)
		}

		encodedByte := buf[headerLen]
		headerLen++

		header.RemainingLength |= uint32(encodedByte&varintValueMask) << shift
		shift += 7

		if encodedByte&varintContinueBit == 0 {
			// A multi-byte encoding ending in zero encodes a value that
			// would have fit in fewer bytes
			if encodedByte == 0 && headerLen > 2 {
				return nil, 0, malformedErr(ErrVarintOverlong)
			}
			break
		}
	}

	total := headerLen + int(header.RemainingLength)
	if len(buf) < total {
		return nil, 0, needMore(total - len(buf))
	}

	packet, err := NewPacket(header.PacketType)
	if err != nil {
		return nil, 0, malformedErr(err)
	}

	// Decode the body from a slice bounded to the declared remaining
	// length, so a structure that overruns it reads EOF instead of the
	// next packet's bytes.
	reader := getBytesReader(buf[headerLen:total])
	consumed, err := packet.Decode(reader, header)
	putBytesReader(reader)
	if err != nil {
		// Running out of body bytes means the structure overran the
		// declared length
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = ErrProtocolViolation
		}
		return nil, 0, malformedErr(err)
	}

	// The body must be consumed exactly; leftover bytes mean the declared
	// length and the structure disagree
	if consumed != int(header.RemainingLength) {
		return nil, 0, malformedErr(ErrProtocolViolation)
	}

	return packet, total, nil
}

// Encode encodes the packet into a freshly allocated byte slice.
//
// The packet is validated first; an illegal field combination fails with an
// error matching ErrValidation before anything is encoded. A field that
// cannot be represented on the wire fails with an error matching ErrEncode.
func Encode(p Packet) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, validationErr(err)
	}

	buf := getBytesBuffer()
	defer putBytesBuffer(buf)

	if _, err := p.Encode(buf); err != nil {
		return nil, encodeErr(err)
	}

	out := make([]byte, len(buf.Bytes()))
	copy(out, buf.Bytes())
	return out, nil
}

// ReadPacket reads a complete MQTT packet from the reader.
// If maxSize is greater than 0, packets larger than maxSize will return ErrPacketTooLarge.
func ReadPacket(r io.Reader, maxSize uint32) (Packet, int, error) {
	var header FixedHeader
	n, err := header.Decode(r)
	if err != nil {
		// EOF with bytes already consumed is a truncated packet, not a
		// clean end of stream
		if errors.Is(err, io.EOF) && n > 0 {
			err = io.ErrUnexpectedEOF
		}
		// Transport errors pass through; framing errors are classified
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, n, err
		}
		return nil, n, malformedErr(err)
	}

	// Check max size
	if maxSize > 0 && header.RemainingLength > maxSize {
		return nil, n, ErrPacketTooLarge
	}

	if err := header.ValidateFlags(); err != nil {
		return nil, n, malformedErr(err)
	}

	// Read remaining bytes
	remaining := make([]byte, header.RemainingLength)
	if header.RemainingLength > 0 {
		rn, err := io.ReadFull(r, remaining)
		n += rn
		if err != nil {
			// The header arrived, so the stream ended mid-packet
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, n, err
		}
	}

	packet, err := NewPacket(header.PacketType)
	if err != nil {
		return nil, n, malformedErr(err)
	}

	// Decode packet
	reader := getBytesReader(remaining)
	consumed, err := packet.Decode(reader, header)
	putBytesReader(reader)
	if err != nil {
		// The body was already read in full, so EOF here is a framing
		// violation, not a transport condition
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = ErrProtocolViolation
		}
		return nil, n, malformedErr(err)
	}

	if consumed != int(header.RemainingLength) {
		return nil, n, malformedErr(ErrProtocolViolation)
	}

	return packet, n, nil
}

// WritePacket writes a complete MQTT packet to the writer.
// If maxSize is greater than 0, packets larger than maxSize will return ErrPacketTooLarge.
// The packet is encoded in full before any byte reaches the writer, so a
// failed encode writes nothing.
func WritePacket(w io.Writer, packet Packet, maxSize uint32) (int, error) {
	if err := packet.Validate(); err != nil {
		return 0, validationErr(err)
	}

	buf := getBytesBuffer()
	defer putBytesBuffer(buf)

	n, err := packet.Encode(buf)
	if err != nil {
		return 0, encodeErr(err)
	}
	if maxSize > 0 && uint32(n) > maxSize {
		return 0, ErrPacketTooLarge
	}

	return w.Write(buf.Bytes())
}

// bytesReader wraps a byte slice for io.Reader interface.
type bytesReader struct {
	data []byte
	pos  int
}

func (r *bytesReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

// bytesBuffer is a simple buffer for encoding.
type bytesBuffer struct {
	data []byte
}

func (b *bytesBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *bytesBuffer) Bytes() []byte {
	return b.data
}
