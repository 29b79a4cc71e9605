package mqttv5

import (
	"unicode/utf8"
)

// Mqtt5Publish is the immutable, fully decoded form of one inbound PUBLISH
// packet. It is produced by PublishDecoder.Decode and handed to downstream
// routing; the decoder never mutates it after assembly.
type Mqtt5Publish struct {
	Topic            string
	QoS              byte
	Retain           bool
	DUP              bool
	PacketIdentifier uint16

	Payload []byte

	PayloadFormatIndicator *byte // nil if absent, else 0 (Unspecified) or 1 (Utf8)
	ContentType            *string
	ResponseTopic          *string
	CorrelationData        []byte
	MessageExpiryInterval  *uint32
	UserProperties         []StringPair

	IsNewTopicAlias bool
	BrokerID        string
}

// disconnectKind mirrors the internal taxonomy of §7: each kind maps 1:1 to a
// DISCONNECT reason code.
type disconnectKind int

const (
	disconnectMalformed disconnectKind = iota
	disconnectProtocol
	disconnectAliasInvalid
	disconnectQuota
	disconnectPayloadFormat
)

// DisconnectReason describes why the decoder rejected a packet: the reason
// code to send, a human-readable reason string (sent only when reason
// strings are enabled), and a log template for broker operators.
type DisconnectReason struct {
	Kind         disconnectKind
	ReasonCode   ReasonCode
	ReasonString string
	LogTemplate  string
}

func newDisconnectReason(kind disconnectKind, code ReasonCode, reasonString, logTemplate string) *DisconnectReason {
	return &DisconnectReason{Kind: kind, ReasonCode: code, ReasonString: reasonString, LogTemplate: logTemplate}
}

// decoderConfig is the read-only configuration snapshot captured at decoder
// construction (SPEC_FULL.md §3 "Configuration snapshot").
type decoderConfig struct {
	maxMessageExpiryInterval uint32
	validatePayloadFormat    bool
	maxUserPropertiesLength  uint32
	reasonStringsEnabled     bool
	brokerID                 string
}

// PublishDecoder is a state-free component: a single instance is shared
// process-wide and its Decode method is re-entrant (no instance-level
// mutable state). It is not safe for a single connection's aliases table to
// be mutated concurrently by two invocations — the framing layer guarantees
// one-packet-at-a-time per connection.
type PublishDecoder struct {
	config  decoderConfig
	limiter *TopicAliasLimiter
}

// NewPublishDecoder creates a decoder bound to the given configuration
// snapshot and the broker's shared alias limiter.
func NewPublishDecoder(config decoderConfig, limiter *TopicAliasLimiter) *PublishDecoder {
	return &PublishDecoder{config: config, limiter: limiter}
}

// Decode parses the variable-header+payload byte window of one PUBLISH
// packet. aliases is the invoking connection's per-connection alias table.
// firstHeaderByte is the packet's fixed-header first byte (type+flags).
//
// Returns either a decoded record, or a non-nil DisconnectReason and a nil
// record. Never both, never neither (§8 invariant 1).
func (d *PublishDecoder) Decode(body []byte, firstHeaderByte byte, aliases *TopicAliasManager) (*Mqtt5Publish, *DisconnectReason) {
	qos := (firstHeaderByte >> 1) & 0x03
	dup := firstHeaderByte&0x08 != 0
	retain := firstHeaderByte&0x01 != 0

	// 4.2 Fixed-Header Interpreter
	if qos == 3 {
		return nil, newDisconnectReason(disconnectMalformed, ReasonMalformedPacket,
			"invalid QoS value", "received PUBLISH with invalid QoS 3")
	}
	if qos == 0 && dup {
		return nil, newDisconnectReason(disconnectProtocol, ReasonProtocolError,
			"DUP must be 0 for QoS 0", "received PUBLISH with DUP=1 and QoS=0")
	}

	r := newByteReader(body)

	// Topic name
	topicName, err := r.string()
	if err != nil {
		return nil, d.malformedFromReaderErr(err, "topic name")
	}

	// Packet identifier, only present for QoS > 0
	var packetID uint16
	if qos > 0 {
		packetID, err = r.u16()
		if err != nil {
			return nil, d.malformedFromReaderErr(err, "packet identifier")
		}
		if packetID == 0 {
			return nil, newDisconnectReason(disconnectProtocol, ReasonProtocolError,
				"packet identifier must be non-zero", "received PUBLISH with packet identifier 0")
		}
	}

	// Properties Loop
	props, reason := d.decodeProperties(r)
	if reason != nil {
		return nil, reason
	}

	// Topic-Alias Resolver
	resolvedTopic, isNew, reason := d.resolveTopicAlias(topicName, props.topicAlias, aliases)
	if reason != nil {
		return nil, reason
	}

	// Payload Validator: everything left in the window is payload.
	payload := body[len(body)-r.remaining():]
	if props.payloadFormatIndicator != nil && *props.payloadFormatIndicator == 1 && d.config.validatePayloadFormat {
		if !utf8.Valid(payload) {
			return nil, newDisconnectReason(disconnectPayloadFormat, ReasonPayloadFormatInvalid,
				"payload declared as UTF-8 but is not well-formed", "PUBLISH payload failed UTF-8 validation")
		}
	}

	// Assembler
	userPropsLen := userPropertiesSerializedLength(props.userProperties)
	if d.config.maxUserPropertiesLength > 0 && userPropsLen > d.config.maxUserPropertiesLength {
		return nil, newDisconnectReason(disconnectMalformed, ReasonMalformedPacket,
			"user properties exceed configured limit", "PUBLISH user properties too large")
	}

	msgExpiry := props.messageExpiryInterval
	if msgExpiry != nil && d.config.maxMessageExpiryInterval > 0 && *msgExpiry > d.config.maxMessageExpiryInterval {
		clamped := d.config.maxMessageExpiryInterval
		msgExpiry = &clamped
	}

	return &Mqtt5Publish{
		Topic:                  resolvedTopic,
		QoS:                    qos,
		Retain:                 retain,
		DUP:                    dup,
		PacketIdentifier:       packetID,
		Payload:                payload,
		PayloadFormatIndicator: props.payloadFormatIndicator,
		ContentType:            props.contentType,
		ResponseTopic:          props.responseTopic,
		CorrelationData:        props.correlationData,
		MessageExpiryInterval:  msgExpiry,
		UserProperties:         props.userProperties,
		IsNewTopicAlias:        isNew,
		BrokerID:               d.config.brokerID,
	}, nil
}

func (d *PublishDecoder) malformedFromReaderErr(err error, field string) *DisconnectReason {
	switch err {
	case ErrReaderBadUTF8:
		return newDisconnectReason(disconnectMalformed, ReasonMalformedPacket,
			"malformed utf-8 in "+field, "PUBLISH "+field+" failed utf-8 validation")
	default:
		return newDisconnectReason(disconnectMalformed, ReasonMalformedPacket,
			"truncated "+field, "PUBLISH "+field+" read underran the packet window")
	}
}

// publishProperties accumulates the Properties Loop's output fields.
type publishProperties struct {
	payloadFormatIndicator *byte
	messageExpiryInterval  *uint32
	contentType            *string
	responseTopic          *string
	correlationData        []byte
	topicAlias             *uint16
	userProperties         []StringPair
}

// decodeProperties implements §4.3: reads a VBI propertiesLength, establishes
// a sub-window of exactly that many bytes, and dispatches each property by
// its 1-byte identifier, enforcing single-occurrence rules and exact length
// accounting.
func (d *PublishDecoder) decodeProperties(r *byteReader) (*publishProperties, *DisconnectReason) {
	propsLen, err := r.vbi()
	if err != nil {
		return nil, newDisconnectReason(disconnectMalformed, ReasonMalformedPacket,
			"malformed properties length", "PUBLISH properties length VBI malformed")
	}
	if uint32(r.remaining()) < propsLen {
		return nil, newDisconnectReason(disconnectMalformed, ReasonMalformedPacket,
			"properties length exceeds packet", "PUBLISH properties length exceeds remaining bytes")
	}

	start := r.pos
	end := start + int(propsLen)
	sub := newByteReader(r.data[start:end])

	props := &publishProperties{}

	for sub.remaining() > 0 {
		idByte, err := sub.u8()
		if err != nil {
			return nil, newDisconnectReason(disconnectMalformed, ReasonMalformedPacket,
				"truncated property identifier", "PUBLISH property identifier read underran")
		}

		switch PropertyID(idByte) {
		case PropPayloadFormatIndicator:
			if props.payloadFormatIndicator != nil {
				return nil, dupPropertyReason("Payload Format Indicator")
			}
			v, err := sub.u8()
			if err != nil {
				return nil, malformedPropertyReason("Payload Format Indicator")
			}
			if v != 0 && v != 1 {
				return nil, newDisconnectReason(disconnectMalformed, ReasonMalformedPacket,
					"invalid payload format indicator value", "PUBLISH payload format indicator not in {0,1}")
			}
			props.payloadFormatIndicator = &v

		case PropMessageExpiryInterval:
			if props.messageExpiryInterval != nil {
				return nil, dupPropertyReason("Message Expiry Interval")
			}
			v, err := sub.u32()
			if err != nil {
				return nil, malformedPropertyReason("Message Expiry Interval")
			}
			props.messageExpiryInterval = &v

		case PropContentType:
			if props.contentType != nil {
				return nil, dupPropertyReason("Content Type")
			}
			v, err := sub.string()
			if err != nil {
				return nil, malformedPropertyReason("Content Type")
			}
			props.contentType = &v

		case PropResponseTopic:
			if props.responseTopic != nil {
				return nil, dupPropertyReason("Response Topic")
			}
			v, err := sub.string()
			if err != nil {
				return nil, malformedPropertyReason("Response Topic")
			}
			props.responseTopic = &v

		case PropCorrelationData:
			if props.correlationData != nil {
				return nil, dupPropertyReason("Correlation Data")
			}
			v, err := sub.binary()
			if err != nil {
				return nil, malformedPropertyReason("Correlation Data")
			}
			if v == nil {
				v = []byte{}
			}
			props.correlationData = v

		case PropSubscriptionIdentifier:
			return nil, newDisconnectReason(disconnectProtocol, ReasonProtocolError,
				"subscription identifier not allowed from client", "PUBLISH carried Subscription Identifier from client")

		case PropTopicAlias:
			if props.topicAlias != nil {
				return nil, dupPropertyReason("Topic Alias")
			}
			v, err := sub.u16()
			if err != nil {
				return nil, malformedPropertyReason("Topic Alias")
			}
			if v == 0 {
				return nil, newDisconnectReason(disconnectProtocol, ReasonProtocolError,
					"topic alias must be non-zero", "PUBLISH carried Topic Alias = 0")
			}
			props.topicAlias = &v

		case PropUserProperty:
			pair, err := decodeStringPairFromReader(sub)
			if err != nil {
				return nil, malformedPropertyReason("User Property")
			}
			props.userProperties = append(props.userProperties, pair)

		default:
			return nil, newDisconnectReason(disconnectMalformed, ReasonMalformedPacket,
				"invalid property identifier", "PUBLISH carried unrecognized property identifier")
		}
	}

	if sub.remaining() != 0 {
		return nil, newDisconnectReason(disconnectMalformed, ReasonMalformedPacket,
			"malformed property length", "PUBLISH properties consumed a different byte count than declared")
	}

	r.pos = end
	return props, nil
}

func decodeStringPairFromReader(r *byteReader) (StringPair, error) {
	key, err := r.string()
	if err != nil {
		return StringPair{}, err
	}
	value, err := r.string()
	if err != nil {
		return StringPair{}, err
	}
	return StringPair{Key: key, Value: value}, nil
}

func dupPropertyReason(name string) *DisconnectReason {
	return newDisconnectReason(disconnectProtocol, ReasonProtocolError,
		"duplicate "+name+" property", "PUBLISH carried duplicate "+name+" property")
}

func malformedPropertyReason(name string) *DisconnectReason {
	return newDisconnectReason(disconnectMalformed, ReasonMalformedPacket,
		"malformed "+name+" property", "PUBLISH "+name+" property read underran or was malformed")
}

// resolveTopicAlias implements the §4.4 decision matrix. It returns the final
// topic name and whether this packet established a new alias binding.
func (d *PublishDecoder) resolveTopicAlias(topicName string, alias *uint16, aliases *TopicAliasManager) (string, bool, *DisconnectReason) {
	switch {
	case topicName == "" && alias == nil:
		return "", false, newDisconnectReason(disconnectProtocol, ReasonProtocolError,
			"absent topic alias while topic name is zero length", "PUBLISH had no topic name and no topic alias")

	case topicName == "" && alias != nil:
		size := aliases.Size()
		if *alias > size {
			return "", false, newDisconnectReason(disconnectAliasInvalid, ReasonTopicAliasInvalid,
				"topic alias too large", "PUBLISH topic alias exceeds table size")
		}
		resolved, occupied := aliases.Slot(*alias)
		if !occupied {
			return "", false, newDisconnectReason(disconnectAliasInvalid, ReasonTopicAliasInvalid,
				"topic alias unmapped", "PUBLISH topic alias has no bound topic")
		}
		return resolved, false, nil

	case topicName != "" && alias == nil:
		return topicName, false, nil

	default: // topicName != "" && alias != nil
		size := aliases.Size()
		if *alias > size {
			return "", false, newDisconnectReason(disconnectAliasInvalid, ReasonTopicAliasInvalid,
				"topic alias too large", "PUBLISH topic alias exceeds table size")
		}

		previous := aliases.SetSlot(*alias, topicName)
		if previous != "" {
			d.limiter.removeUsage(previous)
		}
		d.limiter.addUsage(topicName)

		// Mutation happens before the exceedance check and is not rolled back
		// on failure; the slot stays bound, matching §4.4/§9.
		if d.limiter.limitExceeded() {
			return "", false, newDisconnectReason(disconnectQuota, ReasonQuotaExceeded,
				"topic alias byte limit exceeded", "global topic alias limiter byte limit exceeded")
		}

		return topicName, true, nil
	}
}

// userPropertiesSerializedLength returns the wire size of the User Property
// entries: per pair, the 1-byte identifier plus two u16-length-prefixed
// strings.
func userPropertiesSerializedLength(props []StringPair) uint32 {
	var total uint32
	for _, p := range props {
		total += 1 + 2 + uint32(len(p.Key)) + 2 + uint32(len(p.Value))
	}
	return total
}
