package mqttv5

// PropertyID represents an MQTT v5.0 property identifier. Only the
// identifiers that can appear in a PUBLISH packet's Properties (§4.3) are
// defined here; other control packets' properties are out of this
// package's scope.
type PropertyID byte

const (
	PropPayloadFormatIndicator PropertyID = 0x01
	PropMessageExpiryInterval  PropertyID = 0x02
	PropContentType            PropertyID = 0x03
	PropResponseTopic          PropertyID = 0x08
	PropCorrelationData        PropertyID = 0x09
	PropSubscriptionIdentifier PropertyID = 0x0B
	PropTopicAlias             PropertyID = 0x23
	PropUserProperty           PropertyID = 0x26
)
