// Package slug turns titles, tags and file names into URL path segments
// that are also valid file names.
package slug

import (
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/text/unicode/norm"
)

const (
	maxLen     = 200
	keepPrefix = 180
	hashHexLen = 16
)

// Encode percent-encodes s for use as a single path segment. The input is
// NFC normalized first so visually identical names map to one segment.
// Segments longer than 200 bytes keep a 180 byte prefix followed by a dash
// and 16 hex characters of the BLAKE3 digest of the full encoding.
func Encode(s string) string {
	s = norm.NFC.String(s)

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldEscape(c) {
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&15])
			continue
		}
		b.WriteByte(c)
	}
	encoded := b.String()

	if len(encoded) <= maxLen {
		return encoded
	}
	sum := blake3.Sum256([]byte(encoded))
	prefix := encoded[:keepPrefix]
	// Never cut an escape sequence in half.
	if i := strings.LastIndexByte(prefix, '%'); i >= keepPrefix-2 {
		prefix = prefix[:i]
	}
	return prefix + "-" + hex.EncodeToString(sum[:])[:hashHexLen]
}

// Decode reverses the percent-encoding of Encode. Invalid escapes are
// returned unchanged.
func Decode(s string) string {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return decoded
}

const upperhex = "0123456789ABCDEF"

// shouldEscape reports bytes outside the WHATWG path percent-encode set,
// plus the path separators that would split the segment.
func shouldEscape(c byte) bool {
	if c < 0x20 || c >= 0x7f {
		return true
	}
	switch c {
	case ' ', '"', '<', '>', '`', '#', '?', '{', '}', '/', '\\', '%':
		return true
	}
	return false
}
