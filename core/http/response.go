package http

import (
	"strconv"
	"strings"
	"sync"
)

// Response is built by a service (or by the framework's error paths) and
// serialized exactly once by the connection driver.
type Response struct {
	Status  int
	Reason  string
	headers []Header
	body    []byte
}

var responsePool = sync.Pool{
	New: func() any {
		return &Response{
			Status:  StatusOK,
			Reason:  "OK",
			headers: make([]Header, 0, 8),
			body:    make([]byte, 0, 512),
		}
	},
}

// NewResponse returns a fresh 200 OK response. Handlers build their results
// with it; the driver's own responses come from the pool instead.
func NewResponse() *Response {
	return &Response{Status: StatusOK, Reason: "OK"}
}

// AcquireResponse returns a pooled response initialized to 200 OK.
func AcquireResponse() *Response {
	return responsePool.Get().(*Response)
}

// ReleaseResponse resets resp and returns it to the pool.
func ReleaseResponse(resp *Response) {
	resp.Reset()
	responsePool.Put(resp)
}

// Reset restores the zero-value 200 OK response, keeping capacity.
func (r *Response) Reset() {
	r.Status = StatusOK
	r.Reason = "OK"
	r.headers = r.headers[:0]
	r.body = r.body[:0]
}

// StatusCode sets the status line. An empty reason falls back to the
// standard phrase for code.
func (r *Response) StatusCode(code int, reason string) *Response {
	if reason == "" {
		reason = StatusText(code)
	}
	r.Status = code
	r.Reason = reason
	return r
}

// Header appends a header. Order is preserved and nothing is deduplicated.
func (r *Response) Header(name, value string) *Response {
	r.headers = append(r.headers, Header{Name: name, Value: value})
	return r
}

// Headers returns the appended headers in order.
func (r *Response) Headers() []Header {
	return r.headers
}

// BodyString sets the body from a string, replacing any previous body.
func (r *Response) BodyString(s string) *Response {
	r.body = append(r.body[:0], s...)
	return r
}

// SetBody sets the body bytes, replacing any previous body.
func (r *Response) SetBody(b []byte) *Response {
	r.body = append(r.body[:0], b...)
	return r
}

// AppendBody appends to the body.
func (r *Response) AppendBody(b []byte) *Response {
	r.body = append(r.body, b...)
	return r
}

// Body returns the current body bytes.
func (r *Response) Body() []byte {
	return r.body
}

// CopyFrom replaces r's status, headers, and body with src's.
func (r *Response) CopyFrom(src *Response) {
	r.Status = src.Status
	r.Reason = src.Reason
	r.headers = append(r.headers[:0], src.headers...)
	r.body = append(r.body[:0], src.body...)
}

// Encode appends the wire form of the response to buf and returns the
// extended slice. Layout: status line, the framing headers (Server, Date,
// Content-Length), then every appended header in order, a blank line, and
// the body verbatim. A response with no explicit headers is still framed
// correctly through Content-Length. A handler that appends its own
// Content-Length or Transfer-Encoding header owns the framing; the
// automatic Content-Length is suppressed so the wire never carries two.
func (r *Response) Encode(buf []byte) []byte {
	buf = append(buf, "HTTP/1.1 "...)
	buf = strconv.AppendInt(buf, int64(r.Status), 10)
	buf = append(buf, ' ')
	buf = append(buf, r.Reason...)
	buf = append(buf, "\r\nServer: karics\r\nDate: "...)
	buf = appendDate(buf)
	if !r.hasFramingHeader() {
		buf = append(buf, "\r\nContent-Length: "...)
		buf = strconv.AppendInt(buf, int64(len(r.body)), 10)
	}
	for _, h := range r.headers {
		buf = append(buf, "\r\n"...)
		buf = append(buf, h.Name...)
		buf = append(buf, ": "...)
		buf = append(buf, h.Value...)
	}
	buf = append(buf, "\r\n\r\n"...)
	buf = append(buf, r.body...)
	return buf
}

func (r *Response) hasFramingHeader() bool {
	for _, h := range r.headers {
		if strings.EqualFold(h.Name, "Content-Length") ||
			strings.EqualFold(h.Name, "Transfer-Encoding") {
			return true
		}
	}
	return false
}

// EncodeError appends a bare 500 response carrying the error text, used
// when a service call fails and no usable response exists.
func EncodeError(err error, buf []byte) []byte {
	msg := err.Error()
	buf = append(buf, "HTTP/1.1 500 Internal Server Error\r\nServer: karics\r\nDate: "...)
	buf = appendDate(buf)
	buf = append(buf, "\r\nContent-Length: "...)
	buf = strconv.AppendInt(buf, int64(len(msg)), 10)
	buf = append(buf, "\r\n\r\n"...)
	buf = append(buf, msg...)
	return buf
}
