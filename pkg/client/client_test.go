package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"shoplist/go-backend/internal/adapters/rpc"
	shoppinglistrpc "shoplist/go-backend/internal/domains/shoppinglist/adapters/rpc"
	"shoplist/go-backend/internal/domains/shoppinglist/usecase"
	"shoplist/go-backend/internal/storage"
	"shoplist/go-backend/pkg/models"
	"shoplist/go-backend/pkg/wire"
)

func startServer(t *testing.T) *rpc.Server {
	t.Helper()
	svc, err := usecase.NewService(usecase.ServiceDeps{Repository: storage.NewMemoryItemStore()})
	if err != nil {
		t.Fatalf("new service failed: %v", err)
	}
	opts := rpc.DefaultOptions()
	opts.Addr = "127.0.0.1:0"
	opts.RateLimit.Enabled = false
	srv, err := rpc.NewServer(opts, rpc.ServerDeps{Service: svc, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err != nil {
		t.Fatalf("new server failed: %v", err)
	}
	if err := srv.Start(nil); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	t.Cleanup(func() { _ = srv.Stop(nil) })
	return srv
}

func urlFor(srv *rpc.Server) string {
	return "ws://127.0.0.1:" + strconv.Itoa(srv.Port()) + rpc.SocketPath
}

func TestDialRejectsUnknownSubprotocol(t *testing.T) {
	if _, err := Dial(context.Background(), "ws://127.0.0.1:1/socket", Options{Subprotocol: "shoplist.v9+xml"}); err == nil {
		t.Fatal("expected unsupported subprotocol error")
	}
}

func TestEmitDecodesTypedPayloads(t *testing.T) {
	srv := startServer(t)
	for _, subprotocol := range wire.Subprotocols() {
		t.Run(subprotocol, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			c, err := Dial(ctx, urlFor(srv), Options{Subprotocol: subprotocol})
			if err != nil {
				t.Fatalf("dial failed: %v", err)
			}
			defer func() { _ = c.Close() }()

			resp, err := c.Emit(ctx, shoppinglistrpc.EventCreate, models.NewItem{Title: "cheese", Completed: true})
			if err != nil {
				t.Fatalf("emit failed: %v", err)
			}
			var item models.Item
			if err := c.DecodePayload(resp, &item); err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if item.ID == "" || item.Title != "cheese" || !item.Completed {
				t.Fatalf("unexpected item: %+v", item)
			}

			resp, err = c.Emit(ctx, shoppinglistrpc.EventList)
			if err != nil {
				t.Fatalf("list failed: %v", err)
			}
			var items []models.Item
			if err := c.DecodePayload(resp, &items); err != nil {
				t.Fatalf("decode list failed: %v", err)
			}
			found := false
			for _, listed := range items {
				found = found || listed == item
			}
			if !found {
				t.Fatalf("created item missing from %+v", items)
			}
		})
	}
}

func TestEmitAfterServerCloseReturnsError(t *testing.T) {
	srv := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := Dial(ctx, urlFor(srv), Options{})
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	if err := srv.Stop(nil); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("client did not observe close")
	}
	if _, err := c.Emit(ctx, shoppinglistrpc.EventList); err == nil {
		t.Fatal("expected error after close")
	}
	_ = c.Close()
}

func TestEmitHonoursContext(t *testing.T) {
	srv := startServer(t)
	c, err := Dial(context.Background(), urlFor(srv), Options{})
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer func() { _ = c.Close() }()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Emit(ctx, shoppinglistrpc.EventList); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}
