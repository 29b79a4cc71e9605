package mqttv5

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicAliasLimiter(t *testing.T) {
	t.Run("zero max disables enforcement", func(t *testing.T) {
		l := NewTopicAliasLimiter(0)
		l.addUsage("sensors/temperature")
		assert.False(t, l.limitExceeded())
	})

	t.Run("tracks bytes in use across usages", func(t *testing.T) {
		l := NewTopicAliasLimiter(1000)
		l.addUsage("a")
		l.addUsage("bb")
		assert.Equal(t, int64(3), l.BytesInUse())
	})

	t.Run("exceeds limit once usage passes the ceiling", func(t *testing.T) {
		l := NewTopicAliasLimiter(5)
		l.addUsage("topic")
		assert.False(t, l.limitExceeded())

		l.addUsage("x")
		assert.True(t, l.limitExceeded())
	})

	t.Run("removeUsage releases bytes", func(t *testing.T) {
		l := NewTopicAliasLimiter(100)
		l.addUsage("sensors/temperature")
		assert.Equal(t, int64(len("sensors/temperature")), l.BytesInUse())

		l.removeUsage("sensors/temperature")
		assert.Equal(t, int64(0), l.BytesInUse())
	})

	t.Run("removeUsage is reference counted per topic", func(t *testing.T) {
		l := NewTopicAliasLimiter(100)
		l.addUsage("shared/topic")
		l.addUsage("shared/topic")
		assert.Equal(t, int64(len("shared/topic")), l.BytesInUse())

		l.removeUsage("shared/topic")
		assert.Equal(t, int64(len("shared/topic")), l.BytesInUse())

		l.removeUsage("shared/topic")
		assert.Equal(t, int64(0), l.BytesInUse())
	})

	t.Run("removeUsage on untracked topic is a no-op", func(t *testing.T) {
		l := NewTopicAliasLimiter(100)
		l.removeUsage("never/added")
		assert.Equal(t, int64(0), l.BytesInUse())
	})
}
