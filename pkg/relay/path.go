package relay

import (
	"fmt"
	"net/url"
	"strings"
)

// pathParts is the segment count of a well-formed request path: the empty
// string before the leading slash, the topic, and the message.
const pathParts = 3

// MalformedPathError reports a request path that does not split into the
// /<topic>/<message> shape. Parts carries the observed segment count.
type MalformedPathError struct {
	Parts int
}

func (e *MalformedPathError) Error() string {
	return fmt.Sprintf("malformed path: expected %d segments, got %d", pathParts, e.Parts)
}

// ParsePath splits an escaped request path into its raw topic and message.
// Only the first two separators count, so the message may itself contain
// "/". Both segments are percent-decoded after the split; a client that
// wants a literal "/" inside the topic sends %2F. Decoded segments are raw
// client input and still need sanitizing.
func ParsePath(path string) (topic, message string, err error) {
	parts := strings.SplitN(path, "/", pathParts)
	if len(parts) != pathParts {
		return "", "", &MalformedPathError{Parts: len(parts)}
	}
	return unescape(parts[1]), unescape(parts[2]), nil
}

// unescape percent-decodes one path segment. A segment with a broken escape
// sequence is used verbatim; the sanitizer strips whatever the decoder could
// not handle.
func unescape(segment string) string {
	decoded, err := url.PathUnescape(segment)
	if err != nil {
		return segment
	}
	return decoded
}
