// subscriber connects to a running pusher broker and streams updates to console.
// Usage: go run ./cmd/subscriber --addr localhost:8765 --channel trade --isins IRO1FOLD0001,IRO1IKCO0001
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
)

func main() {
	addr := flag.String("addr", "localhost:8765", "broker address host:port")
	channel := flag.String("channel", "all", "channel to subscribe to (all, trade, orderbook, clienttype)")
	isins := flag.String("isins", "", "comma-separated 12-character instrument identities")
	flag.Parse()

	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	if *isins == "" {
		logger.Error("at least one instrument identity is required (--isins)")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	url := fmt.Sprintf("ws://%s/", *addr)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		logger.Error("failed to connect to broker", "url", url, "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	logger.Info("connected", "url", url)

	command := strings.Join([]string{"1", *channel, *isins}, ".")
	if err := conn.WriteMessage(websocket.TextMessage, []byte(command)); err != nil {
		logger.Error("failed to send subscribe command", "error", err)
		os.Exit(1)
	}
	logger.Info("subscribed", "command", command)

	// Close the connection on shutdown to unblock the read loop.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("subscriber stopped")
				return
			}
			logger.Error("read error", "error", err)
			os.Exit(1)
		}
		fmt.Println(string(payload))
	}
}
