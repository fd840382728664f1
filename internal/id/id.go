// Package id builds correlation keys: the identity a transaction is filed
// under so an undo gesture on the originating message can locate it later.
package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// MessageKey returns a correlation key like "chan123/msg456" tying a
// transaction to the message that produced it.
func MessageKey(channelID, messageID string) string {
	return channelID + "/" + messageID
}

// ParseMessageKey splits a correlation key back into channel and message.
func ParseMessageKey(key string) (channelID, messageID string, err error) {
	channelID, messageID, ok := strings.Cut(key, "/")
	if !ok || channelID == "" || messageID == "" {
		return "", "", fmt.Errorf("invalid correlation key: %q", key)
	}
	return channelID, messageID, nil
}

// NewKey returns a random correlation key for sources that carry no message
// identity of their own.
func NewKey() string {
	return uuid.NewString()
}
