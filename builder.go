package mqttv4

import "bytes"

// Builders assemble packets field by field and validate them on Build, so
// an illegal combination is caught before the packet ever reaches a writer.
// Errors returned by Build match ErrValidation. Byte slice fields are
// copied on Build; the caller may reuse its buffers afterwards.

// ConnectBuilder assembles a ConnectPacket.
//
// The will flag is derived: setting a will topic arms the will message,
// and WillMessage, WillQoS or WillRetain without a topic fail the build
// with ErrInvalidWillMessage.
type ConnectBuilder struct {
	packet ConnectPacket

	willMessageSet bool
	willQoSSet     bool
	willRetainSet  bool
}

// NewConnect returns a builder for a CONNECT packet.
func NewConnect() *ConnectBuilder {
	return &ConnectBuilder{}
}

// ProtocolVersion selects the protocol level. The default is Version311.
func (b *ConnectBuilder) ProtocolVersion(v ProtocolVersion) *ConnectBuilder {
	b.packet.Version = v
	return b
}

// ClientID sets the client identifier.
func (b *ConnectBuilder) ClientID(id string) *ConnectBuilder {
	b.packet.ClientID = id
	return b
}

// CleanSession sets the clean session flag.
func (b *ConnectBuilder) CleanSession(clean bool) *ConnectBuilder {
	b.packet.CleanSession = clean
	return b
}

// KeepAlive sets the keep alive interval in seconds.
func (b *ConnectBuilder) KeepAlive(seconds uint16) *ConnectBuilder {
	b.packet.KeepAlive = seconds
	return b
}

// Username sets the username.
func (b *ConnectBuilder) Username(username string) *ConnectBuilder {
	b.packet.Username = username
	return b
}

// Password sets the password.
func (b *ConnectBuilder) Password(password []byte) *ConnectBuilder {
	b.packet.Password = password
	return b
}

// WillTopic sets the will topic and arms the will message.
func (b *ConnectBuilder) WillTopic(topic string) *ConnectBuilder {
	b.packet.WillTopic = topic
	return b
}

// WillMessage sets the will payload.
func (b *ConnectBuilder) WillMessage(payload []byte) *ConnectBuilder {
	b.packet.WillPayload = payload
	b.willMessageSet = true
	return b
}

// WillQoS sets the QoS level for the will message.
func (b *ConnectBuilder) WillQoS(qos byte) *ConnectBuilder {
	b.packet.WillQoS = qos
	b.willQoSSet = true
	return b
}

// WillRetain sets the retain flag for the will message.
func (b *ConnectBuilder) WillRetain(retain bool) *ConnectBuilder {
	b.packet.WillRetain = retain
	b.willRetainSet = true
	return b
}

// Build validates the configuration and returns the packet.
func (b *ConnectBuilder) Build() (*ConnectPacket, error) {
	willSet := b.willMessageSet || b.willQoSSet || b.willRetainSet
	if b.packet.WillTopic == "" && willSet {
		return nil, validationErr(ErrInvalidWillMessage)
	}

	p := b.packet
	p.WillFlag = p.WillTopic != ""
	p.Password = bytes.Clone(p.Password)
	p.WillPayload = bytes.Clone(p.WillPayload)
	if !p.WillFlag {
		p.WillPayload = nil
		p.WillQoS = 0
		p.WillRetain = false
	}

	if err := p.Validate(); err != nil {
		return nil, validationErr(err)
	}
	return &p, nil
}

// ConnackBuilder assembles a ConnackPacket.
type ConnackBuilder struct {
	packet ConnackPacket
}

// NewConnack returns a builder for a CONNACK packet.
func NewConnack() *ConnackBuilder {
	return &ConnackBuilder{}
}

// SessionPresent sets the session present flag.
func (b *ConnackBuilder) SessionPresent(present bool) *ConnackBuilder {
	b.packet.SessionPresent = present
	return b
}

// ReturnCode sets the connect return code.
func (b *ConnackBuilder) ReturnCode(code ConnackReturnCode) *ConnackBuilder {
	b.packet.ReturnCode = code
	return b
}

// Build validates the configuration and returns the packet.
func (b *ConnackBuilder) Build() (*ConnackPacket, error) {
	p := b.packet
	if err := p.Validate(); err != nil {
		return nil, validationErr(err)
	}
	return &p, nil
}

// PublishBuilder assembles a PublishPacket.
type PublishBuilder struct {
	packet PublishPacket
}

// NewPublish returns a builder for a PUBLISH packet.
func NewPublish() *PublishBuilder {
	return &PublishBuilder{}
}

// Topic sets the topic name.
func (b *PublishBuilder) Topic(topic string) *PublishBuilder {
	b.packet.Topic = topic
	return b
}

// Payload sets the application message.
func (b *PublishBuilder) Payload(payload []byte) *PublishBuilder {
	b.packet.Payload = payload
	return b
}

// QoS sets the QoS level.
func (b *PublishBuilder) QoS(qos byte) *PublishBuilder {
	b.packet.QoS = qos
	return b
}

// Retain sets the retain flag.
func (b *PublishBuilder) Retain(retain bool) *PublishBuilder {
	b.packet.Retain = retain
	return b
}

// Dup sets the duplicate delivery flag.
func (b *PublishBuilder) Dup(dup bool) *PublishBuilder {
	b.packet.DUP = dup
	return b
}

// PacketID sets the packet identifier. Required for QoS 1 and 2.
func (b *PublishBuilder) PacketID(id uint16) *PublishBuilder {
	b.packet.PacketID = id
	return b
}

// Build validates the configuration and returns the packet.
func (b *PublishBuilder) Build() (*PublishPacket, error) {
	p := b.packet
	p.Payload = bytes.Clone(p.Payload)
	if err := p.Validate(); err != nil {
		return nil, validationErr(err)
	}
	return &p, nil
}

// SubscribeBuilder assembles a SubscribePacket.
type SubscribeBuilder struct {
	packet SubscribePacket
}

// NewSubscribe returns a builder for a SUBSCRIBE packet.
func NewSubscribe() *SubscribeBuilder {
	return &SubscribeBuilder{}
}

// PacketID sets the packet identifier.
func (b *SubscribeBuilder) PacketID(id uint16) *SubscribeBuilder {
	b.packet.PacketID = id
	return b
}

// AddTopic appends a topic filter with its requested QoS.
func (b *SubscribeBuilder) AddTopic(filter string, qos byte) *SubscribeBuilder {
	b.packet.Subscriptions = append(b.packet.Subscriptions, Subscription{
		TopicFilter: filter,
		QoS:         qos,
	})
	return b
}

// Build validates the configuration and returns the packet.
func (b *SubscribeBuilder) Build() (*SubscribePacket, error) {
	p := b.packet
	p.Subscriptions = append([]Subscription(nil), p.Subscriptions...)
	if err := p.Validate(); err != nil {
		return nil, validationErr(err)
	}
	return &p, nil
}

// SubackBuilder assembles a SubackPacket. Codes are positional: add them
// in the order of the subscriptions they answer.
type SubackBuilder struct {
	packet SubackPacket
}

// NewSuback returns a builder for a SUBACK packet.
func NewSuback() *SubackBuilder {
	return &SubackBuilder{}
}

// PacketID sets the packet identifier.
func (b *SubackBuilder) PacketID(id uint16) *SubackBuilder {
	b.packet.PacketID = id
	return b
}

// AddCode appends a return code.
func (b *SubackBuilder) AddCode(code SubackReturnCode) *SubackBuilder {
	b.packet.ReturnCodes = append(b.packet.ReturnCodes, code)
	return b
}

// Build validates the configuration and returns the packet.
func (b *SubackBuilder) Build() (*SubackPacket, error) {
	p := b.packet
	p.ReturnCodes = append([]SubackReturnCode(nil), p.ReturnCodes...)
	if err := p.Validate(); err != nil {
		return nil, validationErr(err)
	}
	return &p, nil
}

// UnsubscribeBuilder assembles an UnsubscribePacket.
type UnsubscribeBuilder struct {
	packet UnsubscribePacket
}

// NewUnsubscribe returns a builder for an UNSUBSCRIBE packet.
func NewUnsubscribe() *UnsubscribeBuilder {
	return &UnsubscribeBuilder{}
}

// PacketID sets the packet identifier.
func (b *UnsubscribeBuilder) PacketID(id uint16) *UnsubscribeBuilder {
	b.packet.PacketID = id
	return b
}

// AddTopic appends a topic filter.
func (b *UnsubscribeBuilder) AddTopic(filter string) *UnsubscribeBuilder {
	b.packet.TopicFilters = append(b.packet.TopicFilters, filter)
	return b
}

// Build validates the configuration and returns the packet.
func (b *UnsubscribeBuilder) Build() (*UnsubscribePacket, error) {
	p := b.packet
	p.TopicFilters = append([]string(nil), p.TopicFilters...)
	if err := p.Validate(); err != nil {
		return nil, validationErr(err)
	}
	return &p, nil
}

// PubackBuilder assembles a PubackPacket.
type PubackBuilder struct {
	packet PubackPacket
}

// NewPuback returns a builder for a PUBACK packet.
func NewPuback() *PubackBuilder {
	return &PubackBuilder{}
}

// PacketID sets the packet identifier.
func (b *PubackBuilder) PacketID(id uint16) *PubackBuilder {
	b.packet.PacketID = id
	return b
}

// Build validates the configuration and returns the packet.
func (b *PubackBuilder) Build() (*PubackPacket, error) {
	p := b.packet
	if err := p.Validate(); err != nil {
		return nil, validationErr(err)
	}
	return &p, nil
}

// PubrecBuilder assembles a PubrecPacket.
type PubrecBuilder struct {
	packet PubrecPacket
}

// NewPubrec returns a builder for a PUBREC packet.
func NewPubrec() *PubrecBuilder {
	return &PubrecBuilder{}
}

// PacketID sets the packet identifier.
func (b *PubrecBuilder) PacketID(id uint16) *PubrecBuilder {
	b.packet.PacketID = id
	return b
}

// Build validates the configuration and returns the packet.
func (b *PubrecBuilder) Build() (*PubrecPacket, error) {
	p := b.packet
	if err := p.Validate(); err != nil {
		return nil, validationErr(err)
	}
	return &p, nil
}

// PubrelBuilder assembles a PubrelPacket.
type PubrelBuilder struct {
	packet PubrelPacket
}

// NewPubrel returns a builder for a PUBREL packet.
func NewPubrel() *PubrelBuilder {
	return &PubrelBuilder{}
}

// PacketID sets the packet identifier.
func (b *PubrelBuilder) PacketID(id uint16) *PubrelBuilder {
	b.packet.PacketID = id
	return b
}

// Build validates the configuration and returns the packet.
func (b *PubrelBuilder) Build() (*PubrelPacket, error) {
	p := b.packet
	if err := p.Validate(); err != nil {
		return nil, validationErr(err)
	}
	return &p, nil
}

// PubcompBuilder assembles a PubcompPacket.
type PubcompBuilder struct {
	packet PubcompPacket
}

// NewPubcomp returns a builder for a PUBCOMP packet.
func NewPubcomp() *PubcompBuilder {
	return &PubcompBuilder{}
}

// PacketID sets the packet identifier.
func (b *PubcompBuilder) PacketID(id uint16) *PubcompBuilder {
	b.packet.PacketID = id
	return b
}

// Build validates the configuration and returns the packet.
func (b *PubcompBuilder) Build() (*PubcompPacket, error) {
	p := b.packet
	if err := p.Validate(); err != nil {
		return nil, validationErr(err)
	}
	return &p, nil
}

// UnsubackBuilder assembles an UnsubackPacket.
type UnsubackBuilder struct {
	packet UnsubackPacket
}

// NewUnsuback returns a builder for an UNSUBACK packet.
func NewUnsuback() *UnsubackBuilder {
	return &UnsubackBuilder{}
}

// PacketID sets the packet identifier.
func (b *UnsubackBuilder) PacketID(id uint16) *UnsubackBuilder {
	b.packet.PacketID = id
	return b
}

// Build validates the configuration and returns the packet.
func (b *UnsubackBuilder) Build() (*UnsubackPacket, error) {
	p := b.packet
	if err := p.Validate(); err != nil {
		return nil, validationErr(err)
	}
	return &p, nil
}

// PingreqBuilder assembles a PingreqPacket.
type PingreqBuilder struct{}

// NewPingreq returns a builder for a PINGREQ packet.
func NewPingreq() *PingreqBuilder {
	return &PingreqBuilder{}
}

// Build returns the packet.
func (b *PingreqBuilder) Build() (*PingreqPacket, error) {
	return &PingreqPacket{}, nil
}

// PingrespBuilder assembles a PingrespPacket.
type PingrespBuilder struct{}

// NewPingresp returns a builder for a PINGRESP packet.
func NewPingresp() *PingrespBuilder {
	return &PingrespBuilder{}
}

// Build returns the packet.
func (b *PingrespBuilder) Build() (*PingrespPacket, error) {
	return &PingrespPacket{}, nil
}

// DisconnectBuilder assembles a DisconnectPacket.
type DisconnectBuilder struct{}

// NewDisconnect returns a builder for a DISCONNECT packet.
func NewDisconnect() *DisconnectBuilder {
	return &DisconnectBuilder{}
}

// Build returns the packet.
func (b *DisconnectBuilder) Build() (*DisconnectPacket, error) {
	return &DisconnectPacket{}, nil
}
