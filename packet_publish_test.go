package mqttv4

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishPacketType(t *testing.T) {
	p := &PublishPacket{}
	assert.Equal(t, PacketPUBLISH, p.Type())
}

func TestPublishPacketID(t *testing.T) {
	p := &PublishPacket{}
	p.SetPacketID(777)
	assert.Equal(t, uint16(777), p.GetPacketID())
}

func TestPublishPacketEncodeDecode(t *testing.T) {
	tests := []struct {
		name   string
		packet PublishPacket
	}{
		{
			name: "QoS 0 minimal",
			packet: PublishPacket{
				Topic:   "a/b",
				Payload: []byte("hello"),
			},
		},
		{
			name: "QoS 0 empty payload",
			packet: PublishPacket{
				Topic: "a/b",
			},
		},
		{
			name: "QoS 0 retained",
			packet: PublishPacket{
				Topic:   "status",
				Payload: []byte("online"),
				Retain:  true,
			},
		},
		{
			name: "QoS 1",
			packet: PublishPacket{
				Topic:    "sensors/temp",
				Payload:  []byte("21.5"),
				QoS:      1,
				PacketID: 10,
			},
		},
		{
			name: "QoS 1 duplicate",
			packet: PublishPacket{
				Topic:    "sensors/temp",
				Payload:  []byte("21.5"),
				QoS:      1,
				DUP:      true,
				PacketID: 10,
			},
		},
		{
			name: "QoS 2 retained",
			packet: PublishPacket{
				Topic:    "config/device",
				Payload:  []byte{0xDE, 0xAD},
				QoS:      2,
				Retain:   true,
				PacketID: 65535,
			},
		},
		{
			name: "binary payload",
			packet: PublishPacket{
				Topic:   "data",
				Payload: bytes.Repeat([]byte{0x00, 0xFF}, 512),
			},
		},
		{
			name: "UTF-8 topic",
			packet: PublishPacket{
				Topic:   "sensörler/sıcaklık",
				Payload: []byte("ok"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			n, err := tt.packet.Encode(&buf)
			require.NoError(t, err)
			assert.Equal(t, n, buf.Len())

			var header FixedHeader
			_, err = header.Decode(&buf)
			require.NoError(t, err)
			assert.Equal(t, PacketPUBLISH, header.PacketType)

			var decoded PublishPacket
			n2, err := decoded.Decode(&buf, header)
			require.NoError(t, err)
			assert.Equal(t, int(header.RemainingLength), n2)

			assert.Equal(t, tt.packet.Topic, decoded.Topic)
			assert.Equal(t, tt.packet.QoS, decoded.QoS)
			assert.Equal(t, tt.packet.Retain, decoded.Retain)
			assert.Equal(t, tt.packet.DUP, decoded.DUP)
			assert.Equal(t, tt.packet.PacketID, decoded.PacketID)
			if len(tt.packet.Payload) == 0 {
				assert.Empty(t, decoded.Payload)
			} else {
				assert.Equal(t, tt.packet.Payload, decoded.Payload)
			}
		})
	}
}

func TestPublishPacketFlags(t *testing.T) {
	p := PublishPacket{QoS: 1, Retain: true, DUP: true}
	assert.Equal(t, byte(0x0B), p.flags())

	var q PublishPacket
	q.setFlags(0x0B)
	assert.True(t, q.DUP)
	assert.Equal(t, byte(1), q.QoS)
	assert.True(t, q.Retain)

	q.setFlags(0x00)
	assert.False(t, q.DUP)
	assert.Equal(t, byte(0), q.QoS)
	assert.False(t, q.Retain)
}

func TestPublishPacketValidate(t *testing.T) {
	t.Run("valid QoS 0", func(t *testing.T) {
		p := PublishPacket{Topic: "a"}
		assert.NoError(t, p.Validate())
	})

	t.Run("valid QoS 2", func(t *testing.T) {
		p := PublishPacket{Topic: "a", QoS: 2, PacketID: 1}
		assert.NoError(t, p.Validate())
	})

	t.Run("QoS 3", func(t *testing.T) {
		p := PublishPacket{Topic: "a", QoS: 3, PacketID: 1}
		assert.ErrorIs(t, p.Validate(), ErrInvalidQoS)
	})

	t.Run("DUP on QoS 0", func(t *testing.T) {
		p := PublishPacket{Topic: "a", DUP: true}
		assert.ErrorIs(t, p.Validate(), ErrInvalidPacketFlags)
	})

	t.Run("missing packet ID at QoS 1", func(t *testing.T) {
		p := PublishPacket{Topic: "a", QoS: 1}
		assert.ErrorIs(t, p.Validate(), ErrPacketIDRequired)
	})

	t.Run("packet ID at QoS 0", func(t *testing.T) {
		p := PublishPacket{Topic: "a", PacketID: 5}
		assert.ErrorIs(t, p.Validate(), ErrPacketIDNotAllowed)
	})

	t.Run("empty topic", func(t *testing.T) {
		p := PublishPacket{}
		assert.ErrorIs(t, p.Validate(), ErrTopicNameEmpty)
	})

	t.Run("wildcard in topic", func(t *testing.T) {
		p := PublishPacket{Topic: "a/+/b"}
		assert.ErrorIs(t, p.Validate(), ErrInvalidTopicName)

		p = PublishPacket{Topic: "a/#"}
		assert.ErrorIs(t, p.Validate(), ErrInvalidTopicName)
	})
}

func TestPublishPacketDecodeErrors(t *testing.T) {
	t.Run("wrong packet type", func(t *testing.T) {
		header := FixedHeader{PacketType: PacketCONNECT, RemainingLength: 5}
		var p PublishPacket
		_, err := p.Decode(bytes.NewReader(nil), header)
		assert.ErrorIs(t, err, ErrInvalidPacketType)
	})

	t.Run("QoS 3 in header flags", func(t *testing.T) {
		header := FixedHeader{PacketType: PacketPUBLISH, Flags: 0x06, RemainingLength: 5}
		var p PublishPacket
		_, err := p.Decode(bytes.NewReader([]byte{0x00, 0x01, 'a', 0x00, 0x01}), header)
		assert.ErrorIs(t, err, ErrInvalidQoS)
	})

	t.Run("zero packet ID at QoS 1", func(t *testing.T) {
		// topic "a", packet id 0
		body := []byte{0x00, 0x01, 'a', 0x00, 0x00}
		header := FixedHeader{PacketType: PacketPUBLISH, Flags: 0x02, RemainingLength: uint32(len(body))}
		var p PublishPacket
		_, err := p.Decode(bytes.NewReader(body), header)
		assert.ErrorIs(t, err, ErrInvalidPacketID)
	})

	t.Run("payload shorter than remaining length", func(t *testing.T) {
		// topic "a", declared 10 byte body but only 3 bytes present
		body := []byte{0x00, 0x01, 'a'}
		header := FixedHeader{PacketType: PacketPUBLISH, Flags: 0x00, RemainingLength: 10}
		var p PublishPacket
		_, err := p.Decode(bytes.NewReader(body), header)
		assert.Error(t, err)
	})

	t.Run("truncated topic", func(t *testing.T) {
		body := []byte{0x00, 0x05, 'a'}
		header := FixedHeader{PacketType: PacketPUBLISH, Flags: 0x00, RemainingLength: uint32(len(body))}
		var p PublishPacket
		_, err := p.Decode(bytes.NewReader(body), header)
		assert.Error(t, err)
	})
}

func BenchmarkPublishPacketEncode(b *testing.B) {
	packet := PublishPacket{
		Topic:    "sensors/temperature",
		Payload:  bytes.Repeat([]byte("x"), 128),
		QoS:      1,
		PacketID: 42,
	}
	var buf bytes.Buffer
	buf.Grow(256)

	b.ResetTimer()
	b.ReportAllocs()

	for b.Loop() {
		buf.Reset()
		_, _ = packet.Encode(&buf)
	}
}

func BenchmarkPublishPacketDecode(b *testing.B) {
	packet := PublishPacket{
		Topic:    "sensors/temperature",
		Payload:  bytes.Repeat([]byte("x"), 128),
		QoS:      1,
		PacketID: 42,
	}
	var buf bytes.Buffer
	_, _ = packet.Encode(&buf)
	data := buf.Bytes()

	b.ResetTimer()
	b.ReportAllocs()

	for b.Loop() {
		r := bytes.NewReader(data)
		var header FixedHeader
		_, _ = header.Decode(r)
		var p PublishPacket
		_, _ = p.Decode(r, header)
	}
}

func FuzzPublishPacketDecode(f *testing.F) {
	packet := PublishPacket{Topic: "a/b", Payload: []byte("hello"), QoS: 1, PacketID: 7}
	var buf bytes.Buffer
	_, _ = packet.Encode(&buf)
	f.Add(buf.Bytes())

	f.Add([]byte{0x30, 0x05, 0x00, 0x01, 'a', 'h', 'i'}) // QoS 0
	f.Add([]byte{0x32, 0x05, 0x00, 0x01, 'a', 0x00, 0x01})
	f.Add([]byte{0x30, 0x00})

	for range 10 {
		size := rand.IntN(64) + 1
		data := make([]byte, size)
		for i := range data {
			data[i] = byte(rand.IntN(256))
		}
		f.Add(data)
	}

	f.Fuzz(func(_ *testing.T, data []byte) {
		r := bytes.NewReader(data)
		var header FixedHeader
		n, err := header.Decode(r)
		if err != nil || header.PacketType != PacketPUBLISH {
			return
		}

		remaining := data[n:]
		if len(remaining) < int(header.RemainingLength) {
			return
		}

		var p PublishPacket
		_, _ = p.Decode(bytes.NewReader(remaining), header)
	})
}
