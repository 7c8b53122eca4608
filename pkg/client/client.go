// Package client is a Go client for the shopping list socket.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"shoplist/go-backend/pkg/models"
	"shoplist/go-backend/pkg/wire"
)

var ErrClosed = errors.New("client connection closed")

type Options struct {
	// Subprotocol selects the codec; empty means JSON.
	Subprotocol  string
	Header       http.Header
	WriteTimeout time.Duration
}

type Client struct {
	ws           *websocket.Conn
	codec        wire.Codec
	writeTimeout time.Duration

	writeMu sync.Mutex
	nextAck atomic.Uint64

	mu      sync.Mutex
	pending map[uint64]chan wire.Frame
	err     error
	done    chan struct{}
}

// Dial connects to a socket URL such as ws://127.0.0.1:3000/socket.
func Dial(ctx context.Context, url string, opts Options) (*Client, error) {
	subprotocol := opts.Subprotocol
	if subprotocol == "" {
		subprotocol = wire.SubprotocolJSON
	}
	if _, err := wire.CodecFor(subprotocol); err != nil {
		return nil, err
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		Subprotocols:     []string{subprotocol},
	}
	ws, resp, err := dialer.DialContext(ctx, url, opts.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	codec, err := wire.CodecFor(ws.Subprotocol())
	if err != nil {
		_ = ws.Close()
		return nil, err
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	c := &Client{
		ws:           ws,
		codec:        codec,
		writeTimeout: writeTimeout,
		pending:      make(map[uint64]chan wire.Frame),
		done:         make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *Client) Subprotocol() string {
	return c.codec.Subprotocol()
}

// Emit sends an event with an ack id and waits for its response envelope.
func (c *Client) Emit(ctx context.Context, event string, args ...any) (models.Response, error) {
	if err := ctx.Err(); err != nil {
		return models.Response{}, err
	}
	ack := c.nextAck.Add(1)
	ch := make(chan wire.Frame, 1)
	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return models.Response{}, err
	}
	c.pending[ack] = ch
	c.mu.Unlock()

	if err := c.send(wire.EventFrame(event, &ack, args...)); err != nil {
		c.forget(ack)
		return models.Response{}, err
	}

	select {
	case frame := <-ch:
		var resp models.Response
		if err := wire.Convert(c.codec, frame.Data, &resp); err != nil {
			return models.Response{}, fmt.Errorf("decode ack %d: %w", ack, err)
		}
		return resp, nil
	case <-c.done:
		return models.Response{}, c.Err()
	case <-ctx.Done():
		c.forget(ack)
		return models.Response{}, ctx.Err()
	}
}

// EmitNoAck sends an event without asking for a response.
func (c *Client) EmitNoAck(event string, args ...any) error {
	return c.send(wire.EventFrame(event, nil, args...))
}

// SendRaw writes a pre-encoded message; used to exercise protocol faults.
func (c *Client) SendRaw(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(messageType, data)
}

// DecodePayload converts a response payload into dst, for example a
// models.Item or []models.Item.
func (c *Client) DecodePayload(resp models.Response, dst any) error {
	return wire.Convert(c.codec, resp.Payload, dst)
}

// Done is closed once the connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err is the reason the connection ended. A server-initiated close is a
// *websocket.CloseError carrying the close code and reason.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(c.writeTimeout))
	c.writeMu.Unlock()
	err := c.ws.Close()
	<-c.done
	return err
}

func (c *Client) send(frame wire.Frame) error {
	data, err := c.codec.Marshal(frame)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	messageType := websocket.TextMessage
	if c.codec.Binary() {
		messageType = websocket.BinaryMessage
	}
	if err := c.SendRaw(messageType, data); err != nil {
		if closed := c.Err(); closed != nil {
			return closed
		}
		return err
	}
	return nil
}

func (c *Client) forget(ack uint64) {
	c.mu.Lock()
	delete(c.pending, ack)
	c.mu.Unlock()
}

func (c *Client) readLoop() {
	var err error
	for {
		var data []byte
		_, data, err = c.ws.ReadMessage()
		if err != nil {
			break
		}
		var frame wire.Frame
		if decodeErr := c.codec.Unmarshal(data, &frame); decodeErr != nil {
			continue
		}
		if frame.Type != wire.FrameTypeAck || frame.Ack == nil {
			continue
		}
		c.mu.Lock()
		ch, ok := c.pending[*frame.Ack]
		delete(c.pending, *frame.Ack)
		c.mu.Unlock()
		if ok {
			ch <- frame
		}
	}

	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) {
		err = fmt.Errorf("%w: %v", ErrClosed, err)
	}
	c.mu.Lock()
	c.err = err
	c.pending = make(map[uint64]chan wire.Frame)
	c.mu.Unlock()
	close(c.done)
}
