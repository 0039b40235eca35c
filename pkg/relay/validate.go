package relay

import (
	"errors"
	"slices"
)

var (
	// ErrTopicNotAllowed means the sanitized topic is not on the configured
	// whitelist.
	ErrTopicNotAllowed = errors.New("topic not allowed")

	// ErrMessageTooLong means the sanitized message exceeds the configured
	// maximum length.
	ErrMessageTooLong = errors.New("message too long")
)

// Validate checks a sanitized topic and message against the gateway policy.
// An empty whitelist disables the topic check entirely; a non-empty one
// requires an exact match. The topic check runs first, so a request that
// fails both reports ErrTopicNotAllowed. The length bound is exclusive: a
// message of exactly maxLen bytes passes.
func Validate(topic, message string, whitelist []string, maxLen int) error {
	if len(whitelist) > 0 && !slices.Contains(whitelist, topic) {
		return ErrTopicNotAllowed
	}
	if len(message) > maxLen {
		return ErrMessageTooLong
	}
	return nil
}
