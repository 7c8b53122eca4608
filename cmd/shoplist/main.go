// shoplist is a command line client for the shopping list daemon.
//
//	shoplist [--url ws://127.0.0.1:3000/socket] [--cbor] <command> [flags]
//
// Commands: create, list, read, update, delete. The response envelope is
// printed as JSON; the exit status is non-zero unless it reports success.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	shoppinglistrpc "shoplist/go-backend/internal/domains/shoppinglist/adapters/rpc"
	"shoplist/go-backend/pkg/client"
	"shoplist/go-backend/pkg/models"
	"shoplist/go-backend/pkg/wire"
)

const defaultURL = "ws://127.0.0.1:3000/socket"

var errNotSuccess = errors.New("request did not succeed")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, errNotSuccess) {
			fmt.Fprintf(os.Stderr, "shoplist: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	global := pflag.NewFlagSet("shoplist", pflag.ContinueOnError)
	global.SetInterspersed(false)
	url := global.String("url", envOr("SHOPLIST_URL", defaultURL), "socket URL")
	useCBOR := global.Bool("cbor", false, "use the CBOR subprotocol")
	timeout := global.Duration("timeout", 10*time.Second, "request timeout")
	if err := global.Parse(args); err != nil {
		return err
	}
	rest := global.Args()
	if len(rest) == 0 {
		return errors.New("missing command: create | list | read | update | delete")
	}

	event, eventArgs, err := buildRequest(rest[0], rest[1:])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	opts := client.Options{}
	if *useCBOR {
		opts.Subprotocol = wire.SubprotocolCBOR
	}
	c, err := client.Dial(ctx, *url, opts)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	resp, err := c.Emit(ctx, event, eventArgs...)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return errNotSuccess
	}
	return nil
}

// buildRequest maps a command line onto an event name and its positional
// arguments.
func buildRequest(command string, args []string) (string, []any, error) {
	flags := pflag.NewFlagSet(command, pflag.ContinueOnError)
	title := flags.StringP("title", "t", "", "item title")
	completed := flags.Bool("completed", false, "item completed flag")
	if err := flags.Parse(args); err != nil {
		return "", nil, err
	}
	positional := flags.Args()

	switch command {
	case "create":
		info := map[string]any{"title": *title}
		if flags.Changed("completed") {
			info["completed"] = *completed
		}
		return shoppinglistrpc.EventCreate, []any{info}, nil
	case "list":
		return shoppinglistrpc.EventList, nil, nil
	case "read", "delete":
		if len(positional) != 1 {
			return "", nil, fmt.Errorf("%s needs exactly one item id", command)
		}
		event := shoppinglistrpc.EventRead
		if command == "delete" {
			event = shoppinglistrpc.EventDelete
		}
		return event, []any{positional[0]}, nil
	case "update":
		if len(positional) != 1 {
			return "", nil, errors.New("update needs exactly one item id")
		}
		update := models.ItemUpdate{}
		if flags.Changed("title") {
			update.Title = title
		}
		if flags.Changed("completed") {
			update.Completed = completed
		}
		return shoppinglistrpc.EventUpdate, []any{positional[0], update}, nil
	default:
		return "", nil, fmt.Errorf("unknown command %q", command)
	}
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
