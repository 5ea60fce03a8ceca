package querycache

import (
	"net/url"
	"strings"
)

// Key is a structured cache key: an operation name followed by its parameters.
// Invalidation matches on whole tuple elements, so Key{"quizzes"} covers
// Key{"quizzes", "v1"} but never Key{"quizzesArchive"}.
type Key []string

// K builds a key from its parts.
func K(parts ...string) Key {
	return Key(parts)
}

// With returns a new key with extra parameters appended.
func (k Key) With(parts ...string) Key {
	out := make(Key, 0, len(k)+len(parts))
	out = append(out, k...)
	return append(out, parts...)
}

// HasPrefix reports whether every element of p matches the leading elements of k.
func (k Key) HasPrefix(p Key) bool {
	if len(p) > len(k) {
		return false
	}
	for i := range p {
		if k[i] != p[i] {
			return false
		}
	}
	return true
}

func (k Key) Equal(o Key) bool {
	return len(k) == len(o) && k.HasPrefix(o)
}

// String renders the key with each element path-escaped and joined by "/".
// The escaping keeps the output free of glob metacharacters.
func (k Key) String() string {
	parts := make([]string, len(k))
	for i, p := range k {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// ParseKey reverses Key.String.
func ParseKey(s string) (Key, error) {
	if s == "" {
		return Key{}, nil
	}
	raw := strings.Split(s, "/")
	k := make(Key, len(raw))
	for i, p := range raw {
		v, err := url.PathUnescape(p)
		if err != nil {
			return nil, err
		}
		k[i] = v
	}
	return k, nil
}
