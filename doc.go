// Package mqttv4 implements the binary encoding of MQTT v3.1.1 control
// packets.
//
// This package implements the framing layer of the MQTT Version 3.1.1
// OASIS Standard:
// https://docs.oasis-open.org/mqtt/mqtt/v3.1.1/mqtt-v3.1.1.html
//
// It converts between packet structs and wire bytes and nothing more: no
// sockets, no session state, no topic routing. The legacy v3.1 protocol
// level (name "MQIsdp", level 3) is supported alongside v3.1.1.
//
// # Packet Types
//
// The package provides structs for all 14 MQTT v3.1.1 control packets:
//
//   - ConnectPacket, ConnackPacket: Connection establishment
//   - PublishPacket, PubackPacket, PubrecPacket, PubrelPacket, PubcompPacket: Message delivery
//   - SubscribePacket, SubackPacket: Topic subscription
//   - UnsubscribePacket, UnsubackPacket: Topic unsubscription
//   - PingreqPacket, PingrespPacket: Keep-alive
//   - DisconnectPacket: Connection termination
//
// # Decoding
//
// Use Decode to decode packets from a byte buffer. It returns the packet
// and the number of bytes consumed, so several packets arriving back to
// back in one buffer decode in sequence:
//
//	for len(buf) > 0 {
//	    pkt, n, err := mqttv4.Decode(buf)
//	    if errors.Is(err, mqttv4.ErrIncomplete) {
//	        break // read more bytes and try again
//	    }
//	    if err != nil {
//	        return err // malformed, drop the connection
//	    }
//	    buf = buf[n:]
//	    handle(pkt)
//	}
//
// A truncated buffer is not an error in the usual sense: the returned
// error matches ErrIncomplete and unwraps to *IncompleteError, whose Need
// field says how many more bytes to collect before retrying. Anything
// that violates the framing rules matches ErrMalformed instead, and that
// verdict never changes with more input.
//
// For io.Reader based transports, ReadPacket and WritePacket work on
// streams directly:
//
//	pkt, n, err := mqttv4.ReadPacket(conn, maxPacketSize)
//	n, err := mqttv4.WritePacket(conn, pkt, maxPacketSize)
//
// # Encoding
//
// Use Encode to turn a packet into wire bytes. Packets are validated
// before encoding; an illegal field combination fails with an error
// matching ErrValidation:
//
//	data, err := mqttv4.Encode(pkt)
//
// # Builders
//
// Builders assemble packets field by field and validate on Build:
//
//	pkt, err := mqttv4.NewConnect().
//	    ClientID("sensor-1").
//	    CleanSession(true).
//	    KeepAlive(30).
//	    WillTopic("sensors/sensor-1/status").
//	    WillMessage([]byte("offline")).
//	    WillQoS(1).
//	    Build()
//
// # Topic Validation
//
// Topic names and filters are validated against the wildcard placement
// rules:
//
//	err := mqttv4.ValidateTopicName("sensors/temperature")
//	err = mqttv4.ValidateTopicFilter("sensors/+/status")
package mqttv4
