package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/gnet/v2"
	"github.com/valyala/bytebufferpool"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/lojhan/primehash/internal/command"
	"github.com/lojhan/primehash/internal/resp"
)

const (
	DefaultPort     = "6380"
	shutdownTimeout = 5 * time.Second
)

var ErrNotRunning = errors.New("server is not running")

type Option func(*Server)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMulticore runs one event loop per CPU. Handlers then execute
// concurrently and must only touch goroutine-safe state.
func WithMulticore(multicore bool) Option {
	return func(s *Server) {
		s.multicore = multicore
	}
}

// Server speaks RESP over TCP on top of a gnet event loop and dispatches each
// request to a registered command handler.
type Server struct {
	gnet.BuiltinEventEngine

	mu       sync.RWMutex
	handlers map[string]command.Handler
	engine   gnet.Engine

	logger    *zap.Logger
	multicore bool

	ready     chan struct{}
	readyOnce sync.Once
	running   atomic.Bool
	clients   atomic.Int64
	commands  atomic.Int64
}

func NewServer(opts ...Option) *Server {
	s := &Server{
		handlers: make(map[string]command.Handler),
		logger:   zap.NewNop(),
		ready:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) RegisterCommand(name string, handler command.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[strings.ToUpper(name)] = handler
}

func (s *Server) GetHandler(name string) command.Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handlers[strings.ToUpper(name)]
}

// Start serves on port until Stop is called.
func (s *Server) Start(port string) error {
	if port == "" {
		port = DefaultPort
	}

	addr := "tcp://:" + port
	err := gnet.Run(s, addr,
		gnet.WithMulticore(s.multicore),
		gnet.WithLogger(s.logger.Sugar()),
	)
	if err != nil {
		return fmt.Errorf("failed to serve on port %s: %w", port, err)
	}
	return nil
}

// Serve runs the server until ctx is done, then stops it. A ctx canceled
// before the event loop has booted still stops the server once it is up.
func (s *Server) Serve(ctx context.Context, port string) error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Start(port)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	select {
	case <-s.Ready():
	case err := <-errChan:
		return err
	}

	if err := s.Stop(); err != nil && !errors.Is(err, ErrNotRunning) {
		return err
	}
	return <-errChan
}

// Ready is closed once the event loop is accepting connections.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

func (s *Server) Stop() error {
	if !s.running.Load() {
		return ErrNotRunning
	}

	s.mu.RLock()
	eng := s.engine
	s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return eng.Stop(ctx)
}

func (s *Server) ClientCount() int {
	return int(s.clients.Load())
}

// Counters exposes the server counters reported by INFO and the HTTP stats.
func (s *Server) Counters() map[string]int64 {
	return map[string]int64{
		"connected_clients":  int64(s.ClientCount()),
		"commands_processed": s.commands.Load(),
	}
}

func (s *Server) OnBoot(eng gnet.Engine) gnet.Action {
	s.mu.Lock()
	s.engine = eng
	s.mu.Unlock()

	s.running.Store(true)
	s.readyOnce.Do(func() { close(s.ready) })
	s.logger.Info("server started", zap.Bool("multicore", s.multicore))
	return gnet.None
}

func (s *Server) OnShutdown(gnet.Engine) {
	s.running.Store(false)
	s.logger.Info("server stopped")
}

func (s *Server) OnOpen(c gnet.Conn) ([]byte, gnet.Action) {
	s.clients.Inc()
	s.logger.Debug("client connected",
		zap.Stringer("remote", c.RemoteAddr()),
		zap.Int("clients", s.ClientCount()))
	return nil, gnet.None
}

func (s *Server) OnClose(c gnet.Conn, err error) gnet.Action {
	s.clients.Dec()
	fields := []zap.Field{zap.Stringer("remote", c.RemoteAddr()), zap.Int("clients", s.ClientCount())}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	s.logger.Debug("client disconnected", fields...)
	return gnet.None
}

// OnTraffic answers every complete request in the inbound buffer. A trailing
// partial request stays buffered until more bytes arrive.
func (s *Server) OnTraffic(c gnet.Conn) gnet.Action {
	n := c.InboundBuffered()
	if n == 0 {
		return gnet.None
	}
	buf, err := c.Peek(n)
	if err != nil {
		s.logger.Warn("failed to read request", zap.Stringer("remote", c.RemoteAddr()), zap.Error(err))
		return gnet.Close
	}

	out := bytebufferpool.Get()
	defer bytebufferpool.Put(out)

	action := gnet.None
	consumed := 0
	for consumed < len(buf) {
		value, size, err := resp.Decode(buf[consumed:])
		if errors.Is(err, resp.ErrIncomplete) {
			break
		}
		if err != nil {
			s.logger.Warn("protocol error", zap.Stringer("remote", c.RemoteAddr()), zap.Error(err))
			out.B, _ = resp.AppendValue(out.B, resp.ErrorValue("ERR protocol error"))
			consumed = len(buf)
			action = gnet.Close
			break
		}

		consumed += size
		if out.B, err = resp.AppendValue(out.B, s.processCommand(value)); err != nil {
			s.logger.Error("failed to encode reply", zap.Error(err))
			action = gnet.Close
			break
		}
	}

	if _, err := c.Discard(consumed); err != nil {
		s.logger.Warn("failed to discard request bytes", zap.Error(err))
		return gnet.Close
	}
	if out.Len() > 0 {
		if _, err := c.Write(out.B); err != nil {
			s.logger.Warn("failed to write reply", zap.Stringer("remote", c.RemoteAddr()), zap.Error(err))
			return gnet.Close
		}
	}
	return action
}

func (s *Server) processCommand(value resp.Value) resp.Value {
	if value.Type != resp.Array {
		return resp.ErrorValue("ERR protocol error: expected array")
	}
	if len(value.Array) == 0 {
		return resp.ErrorValue("ERR empty command")
	}

	cmd := value.Array[0]
	if cmd.Type != resp.BulkString {
		return resp.ErrorValue("ERR protocol error: command must be bulk string")
	}

	name := strings.ToUpper(cmd.Str)
	handler := s.GetHandler(name)
	if handler == nil {
		return resp.ErrorValue(fmt.Sprintf("ERR unknown command '%s'", name))
	}

	s.commands.Inc()
	return handler(value.Array[1:])
}
