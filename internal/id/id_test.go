package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageKeyRoundTrip(t *testing.T) {
	key := MessageKey("chan123", "msg456")
	assert.Equal(t, "chan123/msg456", key)

	ch, msg, err := ParseMessageKey(key)
	require.NoError(t, err)
	assert.Equal(t, "chan123", ch)
	assert.Equal(t, "msg456", msg)
}

func TestParseMessageKeyRejectsMalformed(t *testing.T) {
	for _, key := range []string{"", "nodelimiter", "/msg", "chan/"} {
		_, _, err := ParseMessageKey(key)
		assert.Error(t, err, "key %q", key)
	}
}

func TestNewKeyUnique(t *testing.T) {
	assert.NotEqual(t, NewKey(), NewKey())
}
