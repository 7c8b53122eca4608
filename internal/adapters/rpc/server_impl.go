package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"shoplist/go-backend/internal/domains/contracts"
	"shoplist/go-backend/internal/platform/metrics"
	"shoplist/go-backend/internal/platform/ratelimiter"
	"shoplist/go-backend/pkg/wire"
)

var (
	ErrServiceRequired    = errors.New("shopping list service is required")
	ErrServerStarted      = errors.New("server already started")
	ErrServerNotStarted   = errors.New("server is not started")
	ErrServerStopped      = errors.New("server is stopped")
	errServerShuttingDown = errors.New("server shutting down")
)

// Server accepts WebSocket clients on /socket and answers shopping list
// events. Start/Stop may be driven directly or through Run.
type Server struct {
	opts     Options
	service  contracts.ShoppingListService
	logger   *slog.Logger
	metrics  *metrics.ServerMetrics
	limiter  *ratelimiter.MapLimiter
	upgrader websocket.Upgrader

	httpServer *http.Server
	serveErr   chan error

	baseCtx    context.Context
	cancelBase context.CancelFunc

	mu       sync.Mutex
	listener net.Listener
	conns    map[*clientConn]struct{}
	started  bool
	stopping bool
	stopped  chan struct{}
	handlers sync.WaitGroup
	nextConn atomic.Uint64
}

func NewServer(opts Options, deps ServerDeps) (*Server, error) {
	if deps.Service == nil {
		return nil, ErrServiceRequired
	}
	opts = opts.normalized()
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}
	baseCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		opts:       opts,
		service:    deps.Service,
		logger:     logger.With("component", "rpc"),
		metrics:    m,
		limiter:    newEventLimiter(opts.RateLimit),
		baseCtx:    baseCtx,
		cancelBase: cancel,
		conns:      make(map[*clientConn]struct{}),
		stopped:    make(chan struct{}),
	}
	origins := newOriginPolicy(opts.AllowedOrigins, opts.AllowLoopbackOrigins)
	s.upgrader = websocket.Upgrader{
		HandshakeTimeout: 10 * time.Second,
		Subprotocols:     wire.Subprotocols(),
		CheckOrigin:      origins.check,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(HealthPath, s.handleHealth)
	mux.Handle(MetricsPath, m.Handler())
	mux.HandleFunc(SocketPath, s.handleSocket)
	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Start binds the listener and serves in the background. onReady, when not
// nil, runs once the address is bound.
func (s *Server) Start(onReady func()) error {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return ErrServerStopped
	}
	if s.started {
		s.mu.Unlock()
		return ErrServerStarted
	}
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("listen on %s: %w", s.opts.Addr, err)
	}
	s.listener = ln
	s.started = true
	s.serveErr = make(chan error, 1)
	s.mu.Unlock()

	go func() {
		err := s.httpServer.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.serveErr <- err
	}()

	s.logger.Info("server listening", "addr", ln.Addr().String())
	if onReady != nil {
		onReady()
	}
	return nil
}

// Addr is the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) Port() int {
	if tcp, ok := s.Addr().(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}

// Stop closes the listener, disconnects every client, waits for their
// handlers and then calls onClosed. Later calls only wait and call onClosed.
func (s *Server) Stop(onClosed func()) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrServerNotStarted
	}
	if s.stopping {
		s.mu.Unlock()
		<-s.stopped
		if onClosed != nil {
			onClosed()
		}
		return nil
	}
	s.stopping = true
	conns := make([]*clientConn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	shutdownErr := s.httpServer.Shutdown(shutdownCtx)
	cancel()

	for _, c := range conns {
		c.closeWith(websocket.CloseGoingAway, errServerShuttingDown.Error())
	}
	s.handlers.Wait()
	s.cancelBase()

	serveErr := <-s.serveErr
	close(s.stopped)
	s.logger.Info("server stopped", "disconnected", len(conns))
	if onClosed != nil {
		onClosed()
	}
	if shutdownErr != nil {
		return shutdownErr
	}
	return serveErr
}

// Run starts the server and blocks until ctx is done or serving fails.
func (s *Server) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	default:
	}
	if err := s.Start(nil); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return s.Stop(nil)
	case err := <-s.serveErr:
		// Put the result back for Stop, which always drains it.
		s.serveErr <- err
		if stopErr := s.Stop(nil); err == nil {
			err = stopErr
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	stopping := s.stopping
	s.mu.Unlock()
	if stopping {
		http.Error(w, errServerShuttingDown.Error(), http.StatusServiceUnavailable)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Warn("websocket upgrade failed", "remote_addr", r.RemoteAddr, "origin", r.Header.Get("Origin"), "error", err)
		return
	}
	codec, err := wire.CodecFor(ws.Subprotocol())
	if err != nil {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseProtocolError, err.Error()),
			time.Now().Add(s.opts.WriteTimeout))
		_ = ws.Close()
		return
	}

	c := newClientConn(fmt.Sprintf("conn_%d", s.nextConn.Add(1)), ws, codec, r.RemoteAddr, s.opts.WriteTimeout)
	if !s.track(c) {
		c.closeWith(websocket.CloseGoingAway, errServerShuttingDown.Error())
		return
	}
	defer s.untrack(c)
	s.serveConn(s.baseCtx, c)
}

// track registers c unless Stop already began; the WaitGroup is only grown
// while not stopping so Stop's Wait cannot race an Add.
func (s *Server) track(c *clientConn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopping {
		return false
	}
	s.conns[c] = struct{}{}
	s.handlers.Add(1)
	return true
}

func (s *Server) untrack(c *clientConn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	s.limiter.Forget(c.id)
	s.handlers.Done()
}

// ActiveConnections is the number of clients currently served.
func (s *Server) ActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}
