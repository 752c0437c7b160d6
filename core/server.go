package core

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/netutil"

	"github.com/karics-io/karics/config"
	"github.com/karics-io/karics/core/http"
	"github.com/karics-io/karics/core/pools"
)

// ErrServerClosed is reported by Wait after a clean Shutdown or Close.
var ErrServerClosed = errors.New("server closed")

// Collector receives server events. The metrics package provides a
// Prometheus-backed implementation; a nil collector disables collection.
type Collector interface {
	ConnOpened()
	ConnClosed()
	Request(status int, d time.Duration)
	ParseError()
	PanicRecovered()
}

// Server binds a listening socket and drives one goroutine per accepted
// connection. The goroutine is the engine's coroutine: it suspends in the
// runtime poller on every socket read and write, so a waiting connection
// never occupies an OS thread and a few threads carry many thousands of
// connections.
type Server struct {
	cfg     *config.Config
	factory ServiceFactory
	log     *slog.Logger
	stats   Collector

	ln      net.Listener
	connID  atomic.Uint64
	conns   sync.WaitGroup
	closing atomic.Bool
	done    chan struct{}
	waitErr error
	bufPool *pools.BytePool
	limits  http.Limits

	mu     sync.Mutex
	active map[*conn]struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithLogger replaces the default slog logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithCollector installs a metrics collector.
func WithCollector(c Collector) Option {
	return func(s *Server) { s.stats = c }
}

// NewServer creates a server for cfg that asks factory for a Service per
// connection. A nil cfg uses config.Default().
func NewServer(cfg *config.Config, factory ServiceFactory, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Server{
		cfg:     cfg,
		factory: factory,
		log:     slog.Default(),
		done:    make(chan struct{}),
		bufPool: pools.NewBytePool(),
		active:  make(map[*conn]struct{}),
		limits: http.Limits{
			MaxRequestLineBytes: cfg.MaxRequestLineBytes,
			MaxHeaderBytes:      cfg.MaxHeaderBytes,
			MaxHeaderLines:      cfg.MaxHeaderLines,
			MaxBodyBytes:        cfg.MaxBodyBytes,
		},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start binds addr (cfg.Addr when empty) and begins accepting in a
// background goroutine. Bind failures are synchronous: on error no server
// state is left running. Use Wait to join.
func (s *Server) Start(addr string) error {
	if addr == "" {
		addr = s.cfg.Addr
	}

	lc := net.ListenConfig{Control: listenControl}
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return err
	}
	if s.cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConnections)
	}
	s.ln = ln

	s.log.Info("server listening", "addr", ln.Addr().String(), "env", s.cfg.Env)
	go s.acceptLoop()
	return nil
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Wait blocks until the server stops. It returns ErrServerClosed after
// Shutdown or Close, or the accept-loop error otherwise. Under normal
// operation it blocks forever.
func (s *Server) Wait() error {
	<-s.done
	return s.waitErr
}

// Shutdown stops accepting, releases the listening socket, and wakes every
// connection parked in Read, so idle keep-alive connections close now
// rather than at their read deadline. A connection mid-exchange finishes
// and flushes its current batch before closing; a partially received
// request is abandoned. Returns the context's error if the connections do
// not drain in time.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closing.Store(true)
	if s.ln != nil {
		s.ln.Close()
	}

	s.mu.Lock()
	for c := range s.active {
		c.rwc.SetReadDeadline(time.Now())
	}
	s.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the listener without waiting for open connections.
func (s *Server) Close() error {
	s.closing.Store(true)
	if s.ln != nil {
		return s.ln.Close()
	}
	return nil
}

func (s *Server) acceptLoop() {
	defer close(s.done)

	for {
		rwc, err := s.ln.Accept()
		if err != nil {
			if s.closing.Load() {
				s.waitErr = ErrServerClosed
				return
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			s.log.Error("accept failed", "err", err)
			s.waitErr = err
			return
		}

		tuneConn(rwc)

		id := s.connID.Add(1)
		c := &conn{
			srv:    s,
			rwc:    rwc,
			id:     id,
			svc:    s.factory.NewService(id),
			parser: http.NewParser(s.limits),
		}
		s.conns.Add(1)
		s.mu.Lock()
		s.active[c] = struct{}{}
		s.mu.Unlock()
		if s.stats != nil {
			s.stats.ConnOpened()
		}
		go c.serve()
	}
}

func (s *Server) shuttingDown() bool {
	return s.closing.Load()
}

func (s *Server) forgetConn(c *conn) {
	s.mu.Lock()
	delete(s.active, c)
	s.mu.Unlock()
}
