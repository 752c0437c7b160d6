package http

import (
	"fmt"
	"strconv"
	"strings"
)

// Request is one parsed HTTP request frame. Header and body fields reference
// the parser's read buffer; they are valid only until the next Feed/Next
// cycle on the owning parser and must not be retained by a service.
type Request struct {
	Method  string
	Path    string
	Proto   string
	Headers Headers

	// Body is the full, already de-framed body: the Content-Length span or
	// the decoded chunked payload. Empty when the request carries no body.
	Body []byte
}

// Reset clears the request for reuse, keeping allocated capacity.
func (r *Request) Reset() {
	r.Method = ""
	r.Path = ""
	r.Proto = ""
	r.Headers.Reset()
	r.Body = r.Body[:0]
}

// ContentLength returns the declared body length, or -1 when the header is
// absent. A present but non-numeric or negative value is an error: treating
// it as "no body" would leave the body bytes in the stream to be misread as
// the next pipelined request.
func (r *Request) ContentLength() (int64, error) {
	v, ok := r.Headers.Get("Content-Length")
	if !ok {
		return -1, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: invalid Content-Length %q", ErrMalformedHeader, v)
	}
	return n, nil
}

// IsChunked reports whether the body uses chunked transfer encoding.
func (r *Request) IsChunked() bool {
	return r.Headers.HasToken("Transfer-Encoding", "chunked")
}

// KeepAlive reports whether the connection should be reused after this
// exchange. HTTP/1.1 keeps the connection unless "Connection: close" was
// sent; HTTP/1.0 closes unless "Connection: keep-alive" was sent.
func (r *Request) KeepAlive() bool {
	if r.Headers.HasToken("Connection", "close") {
		return false
	}
	if r.Proto == "HTTP/1.0" {
		return r.Headers.HasToken("Connection", "keep-alive")
	}
	return true
}
