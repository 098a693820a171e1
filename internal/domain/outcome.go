package domain

import (
	"strings"
	"unicode/utf8"
)

// ProbeOutcome is what a single lookup returned, before classification.
// Expected failure modes (timeout, unreachable host, throttling, odd bodies)
// are carried here rather than as errors.
type ProbeOutcome struct {
	HTTPStatus int
	Body       []byte
	// Malformed is set when the body could not be read completely.
	Malformed bool
	// TimedOut is set when no response arrived within the probe timeout.
	TimedOut bool
	// Unreachable is set when the request never got a response, e.g. the
	// connection was refused or reset or the host did not resolve.
	Unreachable bool
	// Reason is a short transport-level note, e.g. the timeout error text.
	Reason string
}

// Excerpt returns up to n bytes of the body on a single line, cut on a rune
// boundary.
func (o ProbeOutcome) Excerpt(n int) string {
	b := o.Body
	if len(b) > n {
		cut := n
		for cut > 0 && !utf8.RuneStart(b[cut]) {
			cut--
		}
		b = b[:cut]
	}
	s := strings.ReplaceAll(string(b), "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
