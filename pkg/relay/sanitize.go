package relay

import "strings"

// TopicExtraAllowed is the extra character set applied when sanitizing the
// topic segment: "/" keeps multi-level topic names intact.
const TopicExtraAllowed = "/"

// MessageExtraAllowed is the extra character set applied when sanitizing the
// message segment: ASCII punctuation plus space.
const MessageExtraAllowed = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~ "

// Sanitize returns the subsequence of s made up of ASCII letters, digits,
// and the characters listed in extraAllowed, in input order.
// Everything else is dropped rather than replaced or rejected, so the result
// is always safe to hand to the broker. Sanitizing never fails and applying
// it twice changes nothing.
func Sanitize(s, extraAllowed string) string {
	return strings.Map(func(r rune) rune {
		if isBaseAllowed(r) || strings.ContainsRune(extraAllowed, r) {
			return r
		}
		return -1
	}, s)
}

// isBaseAllowed reports whether r is in the always-allowed base set. The set
// is ASCII only: accented letters and anything multi-byte are dropped.
func isBaseAllowed(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
