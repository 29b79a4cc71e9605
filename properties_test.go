package mqttv5

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPropertyIDValues(t *testing.T) {
	tests := []struct {
		name string
		id   PropertyID
		want byte
	}{
		{"PayloadFormatIndicator", PropPayloadFormatIndicator, 0x01},
		{"MessageExpiryInterval", PropMessageExpiryInterval, 0x02},
		{"ContentType", PropContentType, 0x03},
		{"ResponseTopic", PropResponseTopic, 0x08},
		{"CorrelationData", PropCorrelationData, 0x09},
		{"SubscriptionIdentifier", PropSubscriptionIdentifier, 0x0B},
		{"TopicAlias", PropTopicAlias, 0x23},
		{"UserProperty", PropUserProperty, 0x26},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, PropertyID(tt.want), tt.id)
		})
	}
}
