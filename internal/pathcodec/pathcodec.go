// Package pathcodec implements the URL-style encoding DecSync uses to turn
// arbitrary Unicode path segments (app IDs, path components) into
// filesystem-safe names, with an LRU cache memoizing both directions since
// the same handful of segments get re-encoded on every directory scan.
//
// Modeled on the sanitize/mapper split in aigotowork/stow's internal/index
// package, but the algorithm itself is dictated bit-exact by the wire
// format: unlike stow's lossy character substitution, encode/decode here
// must round-trip.
package pathcodec

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

const cacheSize = 4096

var (
	encodeCache, _ = lru.New[string, string](cacheSize)
	decodeCache, _ = lru.New[string, string](cacheSize)
)

// ErrInvalidEncoding is returned by Decode when a segment contains a '%' not
// followed by two hex digits.
var ErrInvalidEncoding = errors.New("invalid percent-encoding in path segment")

func isUnreserved(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z':
		return true
	case b >= 'a' && b <= 'z':
		return true
	case b >= '0' && b <= '9':
		return true
	case b == '-' || b == '_' || b == '.' || b == '~':
		return true
	default:
		return false
	}
}

const hexDigits = "0123456789ABCDEF"

// EncodeSegment encodes one path segment: each byte of its UTF-8
// representation is emitted literally if it's an ASCII alphanumeric or one
// of -_.~, otherwise as an uppercase %XX. If the result
// would start with '.', that leading byte is rewritten to %2E to avoid
// colliding with hidden-file filtering.
func EncodeSegment(segment string) string {
	if cached, ok := encodeCache.Get(segment); ok {
		return cached
	}

	var b strings.Builder
	b.Grow(len(segment))
	for i := 0; i < len(segment); i++ {
		c := segment[i]
		if isUnreserved(c) {
			b.WriteByte(c)
		} else {
			b.WriteByte('%')
			b.WriteByte(hexDigits[c>>4])
			b.WriteByte(hexDigits[c&0xF])
		}
	}
	encoded := b.String()
	if strings.HasPrefix(encoded, ".") {
		encoded = "%2E" + encoded[1:]
	}

	encodeCache.Add(segment, encoded)
	return encoded
}

// Encode encodes a full path (a sequence of segments) joined with '/'.
func Encode(path []string) string {
	parts := make([]string, len(path))
	for i, seg := range path {
		parts[i] = EncodeSegment(seg)
	}
	return strings.Join(parts, "/")
}

// DecodeSegment is the inverse of EncodeSegment. It returns
// ErrInvalidEncoding if a '%' is not followed by two valid hex digits;
// callers must skip the containing file/directory and log a warning rather
// than abort the scan.
func DecodeSegment(encoded string) (string, error) {
	if cached, ok := decodeCache.Get(encoded); ok {
		return cached, nil
	}

	var b strings.Builder
	b.Grow(len(encoded))
	for i := 0; i < len(encoded); i++ {
		c := encoded[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		if i+2 >= len(encoded) {
			return "", errors.Wrapf(ErrInvalidEncoding, "segment %q", encoded)
		}
		hi, ok1 := hexVal(encoded[i+1])
		lo, ok2 := hexVal(encoded[i+2])
		if !ok1 || !ok2 {
			return "", errors.Wrapf(ErrInvalidEncoding, "segment %q", encoded)
		}
		b.WriteByte(hi<<4 | lo)
		i += 2
	}

	decoded := b.String()
	decodeCache.Add(encoded, decoded)
	return decoded, nil
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	default:
		return 0, false
	}
}

// Decode decodes a '/'-joined path back into its segments. An empty string
// decodes to an empty path.
func Decode(encoded string) ([]string, error) {
	if encoded == "" {
		return nil, nil
	}
	parts := strings.Split(encoded, "/")
	out := make([]string, len(parts))
	for i, p := range parts {
		seg, err := DecodeSegment(p)
		if err != nil {
			return nil, err
		}
		out[i] = seg
	}
	return out, nil
}
