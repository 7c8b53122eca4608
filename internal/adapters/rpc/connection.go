package rpc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"shoplist/go-backend/internal/domains/rpckit"
	shoppinglistrpc "shoplist/go-backend/internal/domains/shoppinglist/adapters/rpc"
	"shoplist/go-backend/internal/platform/metrics"
	"shoplist/go-backend/internal/platform/privacylog"
	"shoplist/go-backend/pkg/models"
	"shoplist/go-backend/pkg/wire"
)

const (
	ReasonAckRequired  = "acknowledgement callback is required"
	reasonMalformed    = "malformed frame"
	reasonRateLimited  = "rate limit exceeded"
	reasonInternal     = "internal error"
	violationMissing   = "missing_ack"
	violationMalformed = "malformed_frame"
	violationInvalid   = "invalid_frame"

	maxLoggedEventName = 64
)

type clientConn struct {
	id           string
	ws           *websocket.Conn
	codec        wire.Codec
	remoteAddr   string
	writeTimeout time.Duration
	done         chan struct{}
	closeOnce    sync.Once
}

func newClientConn(id string, ws *websocket.Conn, codec wire.Codec, remoteAddr string, writeTimeout time.Duration) *clientConn {
	return &clientConn{
		id:           id,
		ws:           ws,
		codec:        codec,
		remoteAddr:   remoteAddr,
		writeTimeout: writeTimeout,
		done:         make(chan struct{}),
	}
}

// closeWith sends a close frame and drops the socket. Safe to call from any
// goroutine and more than once.
func (c *clientConn) closeWith(code int, reason string) {
	c.closeOnce.Do(func() {
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason),
			time.Now().Add(c.writeTimeout))
		_ = c.ws.Close()
	})
}

// write is only called from the connection's read loop, which makes it the
// single data-frame writer gorilla requires.
func (c *clientConn) write(frame wire.Frame) error {
	data, err := c.codec.Marshal(frame)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	messageType := websocket.TextMessage
	if c.codec.Binary() {
		messageType = websocket.BinaryMessage
	}
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(messageType, data)
}

func (s *Server) serveConn(ctx context.Context, c *clientConn) {
	s.metrics.ConnectionOpened()
	s.logger.Info("client connected", "conn_id", c.id, "remote_addr", c.remoteAddr, "subprotocol", c.codec.Subprotocol())
	reason := "client closed"
	defer func() {
		close(c.done)
		c.closeWith(websocket.CloseNormalClosure, "")
		s.metrics.ConnectionClosed()
		s.logger.Info("client disconnected", "conn_id", c.id, "remote_addr", c.remoteAddr, "reason", reason)
	}()

	c.ws.SetReadLimit(s.opts.MaxFrameBytes)
	_ = c.ws.SetReadDeadline(time.Now().Add(s.opts.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(s.opts.PongWait))
	})
	go s.keepAlive(c)

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			reason = readCloseReason(err)
			return
		}
		var frame wire.Frame
		if err := c.codec.Unmarshal(data, &frame); err != nil {
			reason = s.violation(c, "", violationMalformed, websocket.CloseUnsupportedData, reasonMalformed)
			return
		}
		if err := frame.ValidateEvent(); err != nil {
			reason = s.violation(c, loggedEvent(frame.Event), violationInvalid, websocket.CloseProtocolError, err.Error())
			return
		}
		if !s.handleFrame(ctx, c, frame) {
			reason = ReasonAckRequired
			return
		}
	}
}

func (s *Server) keepAlive(c *clientConn) {
	ticker := time.NewTicker(s.opts.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout)); err != nil {
				return
			}
		}
	}
}

// handleFrame answers one event frame. It returns false when the connection
// must be dropped.
func (s *Server) handleFrame(ctx context.Context, c *clientConn, frame wire.Frame) bool {
	started := time.Now()
	known := shoppinglistrpc.IsKnownEvent(frame.Event)
	event := loggedEvent(frame.Event)
	s.logger.Debug("event received", "conn_id", c.id, "event", event, "args", frame.Args, "has_ack", frame.HasAck())

	if known && !frame.HasAck() {
		s.violation(c, event, violationMissing, websocket.ClosePolicyViolation, ReasonAckRequired)
		return false
	}
	if !s.limiter.Allow(c.id, started) {
		s.metrics.RecordRateLimited()
		s.logger.Warn("event rate limited", "conn_id", c.id, "event", event)
		if frame.HasAck() {
			s.acknowledge(c, frame, rpckit.ErrorMessage(reasonRateLimited), started)
		}
		return true
	}
	if !known {
		s.logger.Warn("unknown event dropped", "conn_id", c.id, "event", event)
		if frame.HasAck() {
			s.acknowledge(c, frame, rpckit.ErrorMessage(fmt.Sprintf("unknown event %q", frame.Event)), started)
		}
		return true
	}

	s.acknowledge(c, frame, s.dispatch(ctx, c, frame), started)
	return true
}

func (s *Server) dispatch(ctx context.Context, c *clientConn, frame wire.Frame) (resp models.Response) {
	defer func() {
		if recovered := recover(); recovered != nil {
			s.metrics.RecordError("api")
			s.logger.Error("event handler panicked", "conn_id", c.id, "event", frame.Event, "panic", fmt.Sprint(recovered))
			resp = rpckit.ErrorMessage(reasonInternal)
		}
	}()
	resp, _ = shoppinglistrpc.Dispatch(ctx, s.service, frame.Event, frame.Args)
	return resp
}

func (s *Server) acknowledge(c *clientConn, frame wire.Frame, resp models.Response, started time.Time) {
	status := models.NormalizeStatus(resp.Status)
	label := metricsEvent(frame.Event)
	s.metrics.RecordEvent(label, status, started)
	if err := c.write(wire.AckFrame(*frame.Ack, resp)); err != nil {
		s.logger.Warn("ack write failed", "conn_id", c.id, "event", label, "error", err)
		return
	}
	s.logger.Info("event acknowledged",
		"conn_id", c.id,
		"event", label,
		"status", status,
		"latency_ms", time.Since(started).Milliseconds(),
	)
}

func (s *Server) violation(c *clientConn, event, kind string, code int, reason string) string {
	s.metrics.RecordProtocolViolation(kind)
	s.logger.Warn("protocol violation", "conn_id", c.id, "event", event, "kind", kind, "reason", reason)
	c.closeWith(code, reason)
	return reason
}

// metricsEvent keeps the event label set closed: client-chosen names all
// collapse into one series.
func metricsEvent(event string) string {
	if shoppinglistrpc.IsKnownEvent(event) {
		return event
	}
	return metrics.UnknownEvent
}

func loggedEvent(event string) string {
	if shoppinglistrpc.IsKnownEvent(event) {
		return event
	}
	return privacylog.Truncate(event, maxLoggedEventName)
}

func readCloseReason(err error) string {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		if closeErr.Text != "" {
			return closeErr.Text
		}
		return fmt.Sprintf("close %d", closeErr.Code)
	}
	return err.Error()
}
