// Command wsprobe connects one realtime channel and logs its traffic.
// Useful for poking at the chat, DM, and card-stream endpoints without a
// frontend.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Sorchess/Picaton-sub002/internal/auth"
	"github.com/Sorchess/Picaton-sub002/internal/chat"
	"github.com/Sorchess/Picaton-sub002/internal/config"
	"github.com/Sorchess/Picaton-sub002/internal/dm"
	"github.com/Sorchess/Picaton-sub002/internal/genstream"
	"github.com/Sorchess/Picaton-sub002/internal/logging"
	"github.com/Sorchess/Picaton-sub002/internal/ws"
)

func main() {
	kind := flag.String("kind", "chat", "channel kind: chat, dm, or card")
	resource := flag.String("resource", "", "project, conversation, or card id")
	owner := flag.String("owner", "", "owner id (card streams only)")
	token := flag.String("token", os.Getenv("PICATON_TOKEN"), "auth token")
	flag.Parse()

	if *resource == "" {
		log.Fatal("missing -resource")
	}
	if *token == "" {
		log.Fatal("missing -token (or PICATON_TOKEN)")
	}

	cfg := config.LoadOrDefault()

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	opts := ws.Options{
		Tokens: auth.Static(*token),
		Reconnect: ws.ReconnectPolicy{
			MaxAttempts: cfg.Reconnect.MaxAttempts,
			BaseDelay:   cfg.Reconnect.BaseDelay,
		},
		KeepaliveInterval: cfg.Keepalive.Interval,
		ConnectTimeout:    cfg.Realtime.ConnectTimeout,
		Logger:            logger,
		OnConnected: func() {
			logger.Info("connected")
		},
		OnDisconnected: func(err error) {
			logger.Error("gave up reconnecting", zap.Error(err))
		},
	}

	var disconnect func()

	switch *kind {
	case "chat":
		client, err := chat.New(chat.Config{
			ProjectID: *resource,
			BaseURL:   cfg.Realtime.BaseURL,
			Channel:   opts,
		})
		if err != nil {
			log.Fatalf("chat client: %v", err)
		}
		client.OnNewMessage(func(m chat.Message) {
			logger.Info("message", zap.String("author", m.AuthorName), zap.String("content", m.Content))
		})
		client.OnTyping(func(ev chat.TypingEvent) {
			logger.Info("typing", zap.String("user", ev.UserName), zap.Bool("is_typing", ev.IsTyping))
		})
		if err := client.Connect(context.Background()); err != nil {
			log.Fatalf("connect: %v", err)
		}
		disconnect = client.Disconnect

	case "dm":
		client, err := dm.New(dm.Config{
			ConversationID: *resource,
			BaseURL:        cfg.Realtime.BaseURL,
			Channel:        opts,
		})
		if err != nil {
			log.Fatalf("dm client: %v", err)
		}
		client.OnNewMessage(func(m dm.Message) {
			logger.Info("message", zap.String("author", m.AuthorName), zap.String("content", m.Content))
		})
		if err := client.Connect(context.Background()); err != nil {
			log.Fatalf("connect: %v", err)
		}
		disconnect = client.Disconnect

	case "card":
		client, err := genstream.New(genstream.Config{
			CardID:  *resource,
			OwnerID: *owner,
			BaseURL: cfg.Realtime.BaseURL,
			Channel: opts,
			Callbacks: genstream.Callbacks{
				OnChunk: func(partial string) {
					logger.Info("chunk", zap.Int("length", len(partial)))
				},
				OnCommitted: func(full string) {
					logger.Info("committed", zap.String("content", full))
				},
				OnRolledBack: func(restored string) {
					logger.Info("rolled back", zap.Int("restored_length", len(restored)))
				},
				OnStreamError: func(msg string) {
					logger.Warn("stream error", zap.String("message", msg))
				},
			},
		})
		if err != nil {
			log.Fatalf("genstream client: %v", err)
		}
		if err := client.Connect(context.Background()); err != nil {
			log.Fatalf("connect: %v", err)
		}
		disconnect = client.Disconnect

	default:
		log.Fatalf("unknown kind %q", *kind)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	disconnect()
}
