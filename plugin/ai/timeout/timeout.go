// Package timeout defines centralized timeout constants for message processing.
package timeout

import "time"

const (
	// ModelAttemptTimeout bounds a single model invocation during failover.
	ModelAttemptTimeout = 30 * time.Second

	// ModelSuspension is how long a failed model stays out of rotation.
	ModelSuspension = 24 * time.Hour

	// TypingRefreshInterval is how often the typing indicator is re-sent while a reply is composed.
	TypingRefreshInterval = 15 * time.Second

	// MessageTimeout bounds the whole processing of one inbound message.
	MessageTimeout = 5 * time.Minute

	// TransportTimeout bounds a single call to the WhatsApp API.
	TransportTimeout = 15 * time.Second

	// MaxTruncateLength is the maximum length for truncating strings in logs.
	MaxTruncateLength = 200
)

// Truncate shortens s to MaxTruncateLength runes for logging.
func Truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxTruncateLength {
		return s
	}
	return string(runes[:MaxTruncateLength]) + "..."
}
