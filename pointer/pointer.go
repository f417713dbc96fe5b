// Package pointer implements the address scheme used to locate nodes inside a
// survey schema document.
//
// An address walks the document from the root through mapping keys and
// sequence indices, rendered with "/" separators:
//
//	/questions/0/answers/0/options/1/label
//
// The root itself is the empty address "". Keys containing "~" or "/" are
// escaped as "~0" and "~1", so every address is also a valid JSON Pointer.
package pointer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed is returned (wrapped) for addresses that cannot be parsed.
var ErrMalformed = errors.New("malformed address")

// Segment is a single step of an address: a mapping key or a sequence index.
type Segment struct {
	key   string
	index int
	isIdx bool
}

// Key returns a segment selecting a mapping key.
func Key(k string) Segment { return Segment{key: k} }

// Index returns a segment selecting a sequence element.
func Index(i int) Segment { return Segment{index: i, isIdx: true} }

// IsIndex reports whether the segment is a sequence index.
func (s Segment) IsIndex() bool { return s.isIdx }

// Key returns the mapping key. For index segments it returns the decimal form,
// which is how an index is spelled when it addresses a mapping.
func (s Segment) Key() string {
	if s.isIdx {
		return strconv.Itoa(s.index)
	}
	return s.key
}

// Index returns the sequence index, or -1 for key segments.
func (s Segment) Index() int {
	if !s.isIdx {
		return -1
	}
	return s.index
}

// String renders the segment as it appears inside an address.
func (s Segment) String() string {
	if s.isIdx {
		return strconv.Itoa(s.index)
	}
	return Escape(s.key)
}

// Render joins segments into an address.
func Render(segs ...Segment) string {
	if len(segs) == 0 {
		return ""
	}
	var b strings.Builder
	for _, s := range segs {
		b.WriteByte('/')
		b.WriteString(s.String())
	}
	return b.String()
}

// Append extends addr with more segments. addr is assumed to be well formed.
func Append(addr string, segs ...Segment) string {
	return addr + Render(segs...)
}

// Parse splits an address into segments. Digit-only segments become indices.
func Parse(addr string) ([]Segment, error) {
	if addr == "" {
		return nil, nil
	}
	if addr[0] != '/' {
		return nil, fmt.Errorf("%w: %q does not start with /", ErrMalformed, addr)
	}
	parts := strings.Split(addr[1:], "/")
	segs := make([]Segment, 0, len(parts))
	for i, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: %q has an empty segment at position %d", ErrMalformed, addr, i)
		}
		if n, ok := parseIndex(p); ok {
			segs = append(segs, Index(n))
			continue
		}
		segs = append(segs, Key(Unescape(p)))
	}
	return segs, nil
}

// ParentPrefixes returns every strict prefix of addr, longest first. The root
// address "" is always last.
func ParentPrefixes(addr string) ([]string, error) {
	segs, err := Parse(addr)
	if err != nil {
		return nil, err
	}
	prefixes := make([]string, 0, len(segs))
	for n := len(segs) - 1; n >= 0; n-- {
		prefixes = append(prefixes, Render(segs[:n]...))
	}
	return prefixes, nil
}

// Escape encodes "~" and "/" in a mapping key.
func Escape(key string) string {
	if !strings.ContainsAny(key, "~/") {
		return key
	}
	key = strings.ReplaceAll(key, "~", "~0")
	return strings.ReplaceAll(key, "/", "~1")
}

// Unescape reverses Escape.
func Unescape(s string) string {
	if !strings.Contains(s, "~") {
		return s
	}
	s = strings.ReplaceAll(s, "~1", "/")
	return strings.ReplaceAll(s, "~0", "~")
}

// parseIndex accepts canonical non-negative decimals: "0", "7", "12", not "07".
func parseIndex(s string) (int, bool) {
	if len(s) > 1 && s[0] == '0' {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
