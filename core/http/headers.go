package http

import (
	"strings"
)

// Header is a single (name, value) pair.
type Header struct {
	Name  string
	Value string
}

// Headers is an ordered header list. Duplicate names are legal and kept in
// arrival order; lookups are case-insensitive.
type Headers struct {
	kvs []Header
}

// Add appends a header, preserving order and duplicates.
func (h *Headers) Add(name, value string) {
	h.kvs = append(h.kvs, Header{Name: name, Value: value})
}

// Get returns the first value for name.
func (h *Headers) Get(name string) (string, bool) {
	for i := range h.kvs {
		if strings.EqualFold(h.kvs[i].Name, name) {
			return h.kvs[i].Value, true
		}
	}
	return "", false
}

// Values returns every value recorded for name, in arrival order.
func (h *Headers) Values(name string) []string {
	var out []string
	for i := range h.kvs {
		if strings.EqualFold(h.kvs[i].Name, name) {
			out = append(out, h.kvs[i].Value)
		}
	}
	return out
}

// All returns the backing list. Callers must not mutate it.
func (h *Headers) All() []Header {
	return h.kvs
}

// Len returns the number of header lines.
func (h *Headers) Len() int {
	return len(h.kvs)
}

// Reset clears the list but keeps capacity for reuse.
func (h *Headers) Reset() {
	h.kvs = h.kvs[:0]
}

// HasToken reports whether the comma-separated value list of name contains
// token (case-insensitive). Used for Connection option checks.
func (h *Headers) HasToken(name, token string) bool {
	v, ok := h.Get(name)
	if !ok {
		return false
	}
	for _, part := range strings.Split(v, ",") {
		if strings.EqualFold(strings.TrimSpace(part), token) {
			return true
		}
	}
	return false
}

func isValidHeaderNameByte(b byte) bool {
	return (b >= 'A' && b <= 'Z') ||
		(b >= 'a' && b <= 'z') ||
		(b >= '0' && b <= '9') ||
		b == '!' || b == '#' || b == '$' || b == '%' || b == '&' ||
		b == '\'' || b == '*' || b == '+' || b == '-' || b == '.' ||
		b == '^' || b == '_' || b == '`' || b == '|' || b == '~'
}
