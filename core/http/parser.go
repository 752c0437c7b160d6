package http

import (
	"bytes"
	"errors"
	"fmt"
)

// Parse errors. All of them are terminal for the connection: the driver
// answers 400 and closes.
var (
	ErrMalformedRequestLine = errors.New("malformed request line")
	ErrMalformedHeader      = errors.New("malformed header")
	ErrUnsupportedProto     = errors.New("unsupported protocol version")
	ErrRequestLineTooLong   = errors.New("request line too long")
	ErrHeaderTooLarge       = errors.New("headers too large")
	ErrTooManyHeaders       = errors.New("too many header lines")
	ErrBodyTooLarge         = errors.New("body too large")
)

var crlf = []byte("\r\n")

// Limits bounds how much of a single request the parser will accept.
type Limits struct {
	MaxRequestLineBytes int
	MaxHeaderBytes      int
	MaxHeaderLines      int
	MaxBodyBytes        int64
}

// DefaultLimits returns the limits used when a field is zero.
func DefaultLimits() Limits {
	return Limits{
		MaxRequestLineBytes: 8 << 10,
		MaxHeaderBytes:      64 << 10,
		MaxHeaderLines:      256,
		MaxBodyBytes:        8 << 20,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxRequestLineBytes <= 0 {
		l.MaxRequestLineBytes = d.MaxRequestLineBytes
	}
	if l.MaxHeaderBytes <= 0 {
		l.MaxHeaderBytes = d.MaxHeaderBytes
	}
	if l.MaxHeaderLines <= 0 {
		l.MaxHeaderLines = d.MaxHeaderLines
	}
	if l.MaxBodyBytes <= 0 {
		l.MaxBodyBytes = d.MaxBodyBytes
	}
	return l
}

type parserState int

const (
	stateRequestLine parserState = iota
	stateHeaders
	stateFixedBody
	stateChunkedBody
	stateFailed
)

// Parser turns a stream of bytes arriving in arbitrary chunks into a
// sequence of complete request frames. Feed appends bytes; Next extracts at
// most one frame per call. The state machine is resumable: bytes already
// consumed for the in-progress frame are never re-scanned, so total work is
// linear in total bytes received.
type Parser struct {
	limits Limits

	buf []byte // accumulated stream bytes
	pos int    // consumption cursor into buf

	state       parserState
	req         Request
	headerBytes int
	headerLines int
	bodyNeed    int   // remaining Content-Length bytes
	chunk       chunkDecoder
	chunkBuf    []byte // decoded chunked body, owned by the parser
}

// NewParser creates a parser with the given limits (zero fields fall back
// to DefaultLimits).
func NewParser(limits Limits) *Parser {
	return &Parser{
		limits: limits.withDefaults(),
		buf:    make([]byte, 0, 4096),
	}
}

// Feed appends stream bytes. It does no parsing, but it compacts the
// internal buffer, so request views handed out by earlier Next calls become
// invalid once Feed is called again.
func (p *Parser) Feed(data []byte) {
	if p.pos > 0 {
		n := copy(p.buf, p.buf[p.pos:])
		p.buf = p.buf[:n]
		p.pos = 0
	}
	p.buf = append(p.buf, data...)
}

// Buffered returns the number of unconsumed bytes held by the parser.
func (p *Parser) Buffered() int {
	return len(p.buf) - p.pos
}

// Next attempts to extract exactly one complete request from the
// unconsumed prefix of the buffer. It returns (req, nil) when a frame is
// complete, (nil, nil) when more bytes are needed, and (nil, err) when the
// stream is malformed. The returned request is reused by the next Next
// call; the driver must finish dispatching it first.
func (p *Parser) Next() (*Request, error) {
	for {
		switch p.state {
		case stateRequestLine:
			ok, err := p.parseRequestLine()
			if err != nil {
				return p.fail(err)
			}
			if !ok {
				return nil, nil
			}

		case stateHeaders:
			ok, err := p.parseHeaders()
			if err != nil {
				return p.fail(err)
			}
			if !ok {
				return nil, nil
			}
			done, err := p.beginBody()
			if err != nil {
				return p.fail(err)
			}
			if done {
				return p.finish(), nil
			}

		case stateFixedBody:
			if p.Buffered() < p.bodyNeed {
				return nil, nil
			}
			p.req.Body = p.buf[p.pos : p.pos+p.bodyNeed]
			p.pos += p.bodyNeed
			p.bodyNeed = 0
			return p.finish(), nil

		case stateChunkedBody:
			consumed, done, err := p.chunk.decode(p.buf[p.pos:], &p.chunkBuf, p.limits.MaxBodyBytes)
			p.pos += consumed
			if err != nil {
				return p.fail(err)
			}
			if !done {
				return nil, nil
			}
			p.req.Body = p.chunkBuf
			return p.finish(), nil

		case stateFailed:
			return nil, errors.New("parser in failed state")
		}
	}
}

func (p *Parser) fail(err error) (*Request, error) {
	p.state = stateFailed
	return nil, err
}

// finish hands out the completed frame and rearms the state machine for the
// next pipelined request.
func (p *Parser) finish() *Request {
	p.state = stateRequestLine
	return &p.req
}

// parseRequestLine consumes "METHOD SP PATH SP VERSION CRLF".
func (p *Parser) parseRequestLine() (bool, error) {
	data := p.buf[p.pos:]
	idx := bytes.Index(data, crlf)
	if idx == -1 {
		if len(data) > p.limits.MaxRequestLineBytes {
			return false, ErrRequestLineTooLong
		}
		return false, nil
	}
	if idx > p.limits.MaxRequestLineBytes {
		return false, ErrRequestLineTooLong
	}

	line := data[:idx]
	sp1 := bytes.IndexByte(line, ' ')
	if sp1 <= 0 {
		return false, ErrMalformedRequestLine
	}
	sp2 := bytes.IndexByte(line[sp1+1:], ' ')
	if sp2 <= 0 {
		return false, ErrMalformedRequestLine
	}
	sp2 += sp1 + 1

	method := line[:sp1]
	path := line[sp1+1 : sp2]
	proto := line[sp2+1:]

	if len(path) == 0 || (path[0] != '/' && path[0] != '*') {
		return false, ErrMalformedRequestLine
	}
	if !bytes.HasPrefix(proto, []byte("HTTP/1.")) {
		return false, ErrUnsupportedProto
	}

	p.req.Reset()
	p.req.Method = string(method)
	p.req.Path = string(path)
	p.req.Proto = string(proto)

	p.pos += idx + 2
	p.state = stateHeaders
	p.headerBytes = 0
	p.headerLines = 0
	return true, nil
}

// parseHeaders consumes header lines until the blank line. It returns
// (false, nil) when the terminator has not arrived yet.
func (p *Parser) parseHeaders() (bool, error) {
	for {
		data := p.buf[p.pos:]
		idx := bytes.Index(data, crlf)
		if idx == -1 {
			if p.headerBytes+len(data) > p.limits.MaxHeaderBytes {
				return false, ErrHeaderTooLarge
			}
			return false, nil
		}

		if idx == 0 {
			p.pos += 2
			return true, nil
		}

		p.headerBytes += idx + 2
		if p.headerBytes > p.limits.MaxHeaderBytes {
			return false, ErrHeaderTooLarge
		}
		p.headerLines++
		if p.headerLines > p.limits.MaxHeaderLines {
			return false, ErrTooManyHeaders
		}

		line := data[:idx]
		// Obsolete line folding is rejected outright.
		if line[0] == ' ' || line[0] == '\t' {
			return false, fmt.Errorf("%w: obsolete line folding", ErrMalformedHeader)
		}
		name, value, err := splitHeaderLine(line)
		if err != nil {
			return false, err
		}
		p.req.Headers.Add(name, value)
		p.pos += idx + 2
	}
}

// beginBody decides the body framing after the header block. It returns
// done=true when the frame has no body.
func (p *Parser) beginBody() (bool, error) {
	if p.req.IsChunked() {
		p.chunk.reset()
		p.chunkBuf = p.chunkBuf[:0]
		p.state = stateChunkedBody
		return false, nil
	}

	cl, err := p.req.ContentLength()
	if err != nil {
		return false, err
	}
	if cl > p.limits.MaxBodyBytes {
		return false, ErrBodyTooLarge
	}
	if cl > 0 {
		p.bodyNeed = int(cl)
		p.state = stateFixedBody
		return false, nil
	}
	// No Content-Length and no chunked encoding: empty body.
	p.req.Body = nil
	return true, nil
}

func splitHeaderLine(line []byte) (string, string, error) {
	colon := bytes.IndexByte(line, ':')
	if colon <= 0 {
		return "", "", fmt.Errorf("%w: missing colon", ErrMalformedHeader)
	}
	name := line[:colon]
	for _, b := range name {
		if !isValidHeaderNameByte(b) {
			return "", "", fmt.Errorf("%w: invalid character %q in name", ErrMalformedHeader, b)
		}
	}
	value := bytes.TrimSpace(line[colon+1:])
	return string(name), string(value), nil
}
