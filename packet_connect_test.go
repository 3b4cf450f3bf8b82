package mqttv4

import (
	"bytes"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectPacketType(t *testing.T) {
	p := &ConnectPacket{}
	assert.Equal(t, PacketCONNECT, p.Type())
}

func TestProtocolVersion(t *testing.T) {
	assert.Equal(t, "MQIsdp", Version31.Name())
	assert.Equal(t, "MQTT", Version311.Name())

	assert.True(t, Version31.Valid())
	assert.True(t, Version311.Valid())
	assert.False(t, Version5.Valid())
	assert.False(t, ProtocolVersion(0).Valid())
}

func TestConnectPacketEncodeDecode(t *testing.T) {
	tests := []struct {
		name   string
		packet ConnectPacket
	}{
		{
			name: "minimal clean session",
			packet: ConnectPacket{
				ClientID:     "client-1",
				CleanSession: true,
			},
		},
		{
			name: "v3.1 protocol",
			packet: ConnectPacket{
				Version:      Version31,
				ClientID:     "legacy-client",
				CleanSession: true,
				KeepAlive:    60,
			},
		},
		{
			name: "empty client ID with clean session",
			packet: ConnectPacket{
				ClientID:     "",
				CleanSession: true,
				KeepAlive:    30,
			},
		},
		{
			name: "with keep alive",
			packet: ConnectPacket{
				ClientID:  "client-2",
				KeepAlive: 65535,
			},
		},
		{
			name: "with username and password",
			packet: ConnectPacket{
				ClientID:     "client-3",
				CleanSession: true,
				Username:     "admin",
				Password:     []byte("secret"),
			},
		},
		{
			name: "username only",
			packet: ConnectPacket{
				ClientID:     "client-4",
				CleanSession: true,
				Username:     "reader",
			},
		},
		{
			name: "with will message",
			packet: ConnectPacket{
				ClientID:    "client-5",
				WillFlag:    true,
				WillTopic:   "clients/client-5/status",
				WillPayload: []byte("offline"),
				WillQoS:     1,
			},
		},
		{
			name: "with retained will",
			packet: ConnectPacket{
				ClientID:    "client-6",
				WillFlag:    true,
				WillTopic:   "status",
				WillPayload: []byte{0x01, 0x02},
				WillQoS:     2,
				WillRetain:  true,
			},
		},
		{
			name: "will with empty payload",
			packet: ConnectPacket{
				ClientID:  "client-7",
				WillFlag:  true,
				WillTopic: "status",
			},
		},
		{
			name: "everything",
			packet: ConnectPacket{
				Version:      Version311,
				ClientID:     "client-8",
				CleanSession: true,
				KeepAlive:    10,
				Username:     "rump",
				Password:     []byte("mq"),
				WillFlag:     true,
				WillTopic:    "/a",
				WillPayload:  []byte("offline"),
				WillQoS:      1,
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
			assert.Equal(t, PacketCONNECT, header.PacketType)
			assert.Equal(t, byte(0x00), header.Flags)

			var decoded ConnectPacket
			n3, err := decoded.Decode(&buf, header)
			require.NoError(t, err)
			assert.Equal(t, int(header.RemainingLength), n3)

			assert.Equal(t, tt.packet.version(), decoded.Version)
			assert.Equal(t, tt.packet.ClientID, decoded.ClientID)
			assert.Equal(t, tt.packet.CleanSession, decoded.CleanSession)
			assert.Equal(t, tt.packet.KeepAlive, decoded.KeepAlive)
			assert.Equal(t, tt.packet.Username, decoded.Username)
			assert.Equal(t, tt.packet.Password, decoded.Password)
			assert.Equal(t, tt.packet.WillFlag, decoded.WillFlag)
			assert.Equal(t, tt.packet.WillRetain, decoded.WillRetain)
			assert.Equal(t, tt.packet.WillQoS, decoded.WillQoS)
			assert.Equal(t, tt.packet.WillTopic, decoded.WillTopic)
			assert.Equal(t, tt.packet.WillPayload, decoded.WillPayload)
		})
	}
}

func TestConnectPacketValidate(t *testing.T) {
	t.Run("valid packet", func(t *testing.T) {
		p := ConnectPacket{ClientID: "c", CleanSession: true}
		assert.NoError(t, p.Validate())
	})

	t.Run("version 5 not supported", func(t *testing.T) {
		p := ConnectPacket{Version: Version5, ClientID: "c"}
		assert.ErrorIs(t, p.Validate(), ErrUnsupportedProtocolVersion)
	})

	t.Run("client ID too long", func(t *testing.T) {
		p := ConnectPacket{ClientID: strings.Repeat("x", 65536), CleanSession: true}
		assert.ErrorIs(t, p.Validate(), ErrClientIDTooLong)
	})

	t.Run("empty client ID requires clean session", func(t *testing.T) {
		p := ConnectPacket{ClientID: "", CleanSession: false}
		assert.ErrorIs(t, p.Validate(), ErrClientIDRequired)
	})

	t.Run("will QoS 3", func(t *testing.T) {
		p := ConnectPacket{
			ClientID:  "c",
			WillFlag:  true,
			WillTopic: "t",
			WillQoS:   3,
		}
		assert.ErrorIs(t, p.Validate(), ErrInvalidQoS)
	})

	t.Run("will payload without will flag", func(t *testing.T) {
		p := ConnectPacket{ClientID: "c", WillPayload: []byte("x")}
		assert.ErrorIs(t, p.Validate(), ErrInvalidWillMessage)
	})

	t.Run("will retain without will flag", func(t *testing.T) {
		p := ConnectPacket{ClientID: "c", WillRetain: true}
		assert.ErrorIs(t, p.Validate(), ErrInvalidWillMessage)
	})

	t.Run("will flag without topic", func(t *testing.T) {
		p := ConnectPacket{ClientID: "c", WillFlag: true}
		assert.ErrorIs(t, p.Validate(), ErrInvalidWillMessage)
	})

	t.Run("will topic with wildcard", func(t *testing.T) {
		p := ConnectPacket{
			ClientID:  "c",
			WillFlag:  true,
			WillTopic: "status/#",
		}
		assert.ErrorIs(t, p.Validate(), ErrInvalidTopicName)
	})

	t.Run("password without username", func(t *testing.T) {
		p := ConnectPacket{ClientID: "c", Password: []byte("secret")}
		assert.ErrorIs(t, p.Validate(), ErrPasswordWithoutUsername)
	})
}

func TestConnectPacketEncodeValidates(t *testing.T) {
	p := ConnectPacket{ClientID: "c", Password: []byte("secret")}
	var buf bytes.Buffer
	_, err := p.Encode(&buf)
	assert.ErrorIs(t, err, ErrPasswordWithoutUsername)
	assert.Zero(t, buf.Len())
}

// connectBody builds a raw CONNECT variable header and payload for decode
// error tests.
func connectBody(name string, level byte, flags byte, rest ...byte) []byte {
	var buf bytes.Buffer
	_, _ = encodeString(&buf, name)
	buf.WriteByte(level)
	buf.WriteByte(flags)
	buf.Write([]byte{0x00, 0x3C}) // keep alive 60
	buf.Write(rest)
	return buf.Bytes()
}

func TestConnectPacketDecodeErrors(t *testing.T) {
	clientID := []byte{0x00, 0x01, 'c'}

	tests := []struct {
		name    string
		body    []byte
		wantErr error
	}{
		{
			name:    "unknown protocol name",
			body:    connectBody("MQXX", 4, 0x02, clientID...),
			wantErr: ErrInvalidProtocolName,
		},
		{
			name:    "name and level mismatch MQTT 3",
			body:    connectBody("MQTT", 3, 0x02, clientID...),
			wantErr: ErrInvalidProtocolVersion,
		},
		{
			name:    "name and level mismatch MQIsdp 4",
			body:    connectBody("MQIsdp", 4, 0x02, clientID...),
			wantErr: ErrInvalidProtocolVersion,
		},
		{
			name:    "protocol level 5",
			body:    connectBody("MQTT", 5, 0x02, clientID...),
			wantErr: ErrUnsupportedProtocolVersion,
		},
		{
			name:    "reserved flag bit set",
			body:    connectBody("MQTT", 4, 0x03, clientID...),
			wantErr: ErrInvalidConnectFlags,
		},
		{
			name:    "will QoS without will flag",
			body:    connectBody("MQTT", 4, 0x0A, clientID...),
			wantErr: ErrInvalidConnectFlags,
		},
		{
			name:    "will retain without will flag",
			body:    connectBody("MQTT", 4, 0x22, clientID...),
			wantErr: ErrInvalidConnectFlags,
		},
		{
			name:    "will QoS 3",
			body:    connectBody("MQTT", 4, 0x1E, clientID...),
			wantErr: ErrInvalidConnectFlags,
		},
		{
			name:    "password flag without username flag",
			body:    connectBody("MQTT", 4, 0x42, clientID...),
			wantErr: ErrPasswordWithoutUsername,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := FixedHeader{
				PacketType:      PacketCONNECT,
				Flags:           0x00,
				RemainingLength: uint32(len(tt.body)),
			}

			var p ConnectPacket
			_, err := p.Decode(bytes.NewReader(tt.body), header)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConnectPacketDecodeTruncated(t *testing.T) {
	// Full valid packet body, then every proper prefix of it must fail
	full := connectBody("MQTT", 4, 0x02, 0x00, 0x01, 'c')

	for i := range len(full) {
		header := FixedHeader{
			PacketType:      PacketCONNECT,
			Flags:           0x00,
			RemainingLength: uint32(len(full)),
		}

		var p ConnectPacket
		_, err := p.Decode(bytes.NewReader(full[:i]), header)
		assert.Error(t, err, "prefix of %d bytes should fail", i)
	}
}

func TestConnectPacketDecodeWrongType(t *testing.T) {
	header := FixedHeader{PacketType: PacketPUBLISH, Flags: 0x00, RemainingLength: 10}
	var p ConnectPacket
	_, err := p.Decode(bytes.NewReader(nil), header)
	assert.ErrorIs(t, err, ErrInvalidPacketType)
}

func BenchmarkConnectPacketEncode(b *testing.B) {
	packet := ConnectPacket{
		ClientID:     "bench-client",
		CleanSession: true,
		KeepAlive:    60,
		Username:     "user",
		Password:     []byte("pass"),
	}
	var buf bytes.Buffer
	buf.Grow(64)

	b.ResetTimer()
	b.ReportAllocs()

	for b.Loop() {
		buf.Reset()
		_, _ = packet.Encode(&buf)
	}
}

func BenchmarkConnectPacketDecode(b *testing.B) {
	packet := ConnectPacket{
		ClientID:     "bench-client",
		CleanSession: true,
		KeepAlive:    60,
		Username:     "user",
		Password:     []byte("pass"),
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
		var p ConnectPacket
		_, _ = p.Decode(r, header)
	}
}

func FuzzConnectPacketDecode(f *testing.F) {
	packet := ConnectPacket{
		ClientID:     "fuzz",
		CleanSession: true,
		Username:     "u",
		Password:     []byte("p"),
		WillFlag:     true,
		WillTopic:    "w",
		WillPayload:  []byte("x"),
	}
	var buf bytes.Buffer
	_, _ = packet.Encode(&buf)
	f.Add(buf.Bytes())

	f.Add([]byte{0x10, 0x0D, 0x00, 0x04, 'M', 'Q', 'T', 'T', 0x04, 0x02, 0x00, 0x3C, 0x00, 0x01, 'c'})
	f.Add([]byte{0x10, 0x00})

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
		if err != nil || header.PacketType != PacketCONNECT {
			return
		}

		remaining := data[n:]
		if len(remaining) < int(header.RemainingLength) {
			return
		}

		var p ConnectPacket
		_, _ = p.Decode(bytes.NewReader(remaining), header)
	})
}
