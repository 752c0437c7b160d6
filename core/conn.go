package core

import (
	"fmt"
	"net"
	"time"

	"github.com/karics-io/karics/core/http"
)

// conn drives one accepted connection through the
// Reading → Dispatching → Writing cycle until keep-alive ends or the peer
// goes away. It is owned exclusively by its goroutine; nothing here is
// shared, so nothing is locked.
type conn struct {
	srv    *Server
	rwc    net.Conn
	id     uint64
	svc    Service
	parser *http.Parser
}

func (c *conn) serve() {
	defer func() {
		c.rwc.Close()
		c.srv.forgetConn(c)
		if c.srv.stats != nil {
			c.srv.stats.ConnClosed()
		}
		c.srv.conns.Done()
	}()

	readBuf := c.srv.bufPool.Get(8 << 10)
	defer c.srv.bufPool.Put(readBuf)
	writeBuf := c.srv.bufPool.Get(16 << 10)
	defer c.srv.bufPool.Put(writeBuf)

	for {
		if rt := c.srv.cfg.ReadTimeout; rt > 0 {
			c.rwc.SetReadDeadline(time.Now().Add(time.Duration(rt) * time.Second))
		}
		n, err := c.rwc.Read(readBuf)
		if n > 0 {
			c.parser.Feed(readBuf[:n])
			out, keep := c.drain(writeBuf[:0])
			if len(out) > 0 {
				if wt := c.srv.cfg.WriteTimeout; wt > 0 {
					c.rwc.SetWriteDeadline(time.Now().Add(time.Duration(wt) * time.Second))
				}
				if _, werr := c.rwc.Write(out); werr != nil {
					return
				}
			}
			if !keep {
				return
			}
		}
		if err != nil {
			// EOF, idle timeout, or reset: close with no response attempt.
			return
		}
	}
}

// drain extracts every complete frame currently buffered and appends the
// encoded responses to out, batching pipelined exchanges into one write.
// keep=false tells the caller to close after flushing.
func (c *conn) drain(out []byte) ([]byte, bool) {
	for {
		req, err := c.parser.Next()
		if err != nil {
			if c.srv.stats != nil {
				c.srv.stats.ParseError()
			}
			c.srv.log.Debug("malformed request", "conn", c.id, "remote", c.rwc.RemoteAddr().String(), "err", err)
			resp := http.AcquireResponse()
			resp.StatusCode(http.StatusBadRequest, "").Header("Connection", "close")
			out = resp.Encode(out)
			http.ReleaseResponse(resp)
			return out, false
		}
		if req == nil {
			return out, true
		}

		var keep bool
		out, keep = c.dispatch(req, out)
		if !keep {
			return out, false
		}
		if c.srv.shuttingDown() {
			return out, false
		}
	}
}

// dispatch runs the service on one frame and encodes the result.
func (c *conn) dispatch(req *http.Request, out []byte) ([]byte, bool) {
	resp := http.AcquireResponse()
	defer http.ReleaseResponse(resp)

	start := time.Now()
	err := c.call(req, resp)
	if err != nil {
		out = http.EncodeError(err, out)
		if c.srv.stats != nil {
			c.srv.stats.Request(http.StatusInternalServerError, time.Since(start))
		}
		return out, false
	}

	out = resp.Encode(out)
	if c.srv.stats != nil {
		c.srv.stats.Request(resp.Status, time.Since(start))
	}
	return out, req.KeepAlive()
}

// call invokes the service with panic isolation: a panicking handler takes
// down its own connection only, never the listener or its neighbors.
func (c *conn) call(req *http.Request, resp *http.Response) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if c.srv.stats != nil {
				c.srv.stats.PanicRecovered()
			}
			c.srv.log.Error("handler panic", "conn", c.id, "method", req.Method, "path", req.Path, "panic", r)
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return c.svc.Call(req, resp)
}
