package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mdp/qrterminal"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/wagate/config"
	"github.com/hazyhaar/wagate/dispatch"
	"github.com/hazyhaar/wagate/gateway"
	"github.com/hazyhaar/wagate/observability"
	"github.com/hazyhaar/wagate/relay"
	"github.com/hazyhaar/wagate/session"
	"github.com/hazyhaar/wagate/wweb"
)

func main() {
	cfg, err := config.Load(env("CONFIG", "wagate.yaml"))
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	// Logging.
	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Event DB.
	if dir := filepath.Dir(cfg.Events.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Error("events dir", "error", err)
			os.Exit(1)
		}
	}
	eventDB, err := sql.Open("sqlite", cfg.Events.Path)
	if err != nil {
		slog.Error("events db", "error", err)
		os.Exit(1)
	}
	defer eventDB.Close()

	events, err := observability.NewEventLogger(eventDB)
	if err != nil {
		slog.Error("events init", "error", err)
		os.Exit(1)
	}
	if err := observability.Cleanup(ctx, eventDB, cfg.Events.RetentionDays); err != nil {
		slog.Warn("events cleanup", "error", err)
	}

	// Relay.
	rl := relay.New(cfg.Webhook.URL,
		relay.WithLogger(logger),
		relay.WithSecret(cfg.Webhook.Secret))
	defer rl.Close()

	// Session state machine.
	sess := session.New(cfg.Session.ID,
		session.WithNotifier(rl),
		session.WithRecorder(events),
		session.WithLogger(logger))

	// Browser client.
	client := wweb.NewRodClient(wweb.RodConfig{
		SessionID: cfg.Session.ID,
		DataDir:   cfg.Session.DataDir,
		Headless:  cfg.Browser.Headless,
		RemoteURL: cfg.Browser.RemoteURL,
		Logger:    logger,
	})
	defer client.Close()

	client.SetHandlers(wweb.Handlers{
		OnQR: func(code string) {
			sess.HandleQR(code)
			fmt.Println("Scan the QR code with WhatsApp:")
			qrterminal.GenerateHalfBlock(code, qrterminal.L, os.Stdout)
		},
		OnAuthenticated: sess.HandleAuthenticated,
		OnAuthFailure:   sess.HandleAuthFailure,
		OnReady:         sess.HandleReady,
		OnDisconnected:  sess.HandleDisconnected,
		OnMessage: func(m wweb.Message) {
			rl.Emit("message", m)
		},
		OnMessageCreate: func(m wweb.Message) {
			rl.Emit("message_create", m)
		},
		OnMessageAck: func(m wweb.Message, ack int) {
			rl.Emit("message_ack", map[string]any{"message": m, "ack": ack})
		},
	})

	// Dispatcher over the client's capability surface.
	disp := dispatch.New(dispatch.WithLogger(logger))
	disp.Register(dispatch.KindClient, wweb.ClientResolver(client))
	disp.Register(dispatch.KindChat, wweb.ChatResolver(client))
	disp.Register(dispatch.KindContact, wweb.ContactResolver(client))

	gw := gateway.New(gateway.Config{
		APIKey:        cfg.Auth.APIKey,
		RatePerSecond: 50,
		RateBurst:     100,
	}, sess, rl, disp, client,
		gateway.WithLogger(logger),
		gateway.WithEvents(events))

	// Connect the browser in the background; the HTTP surface answers 503 on
	// gated routes until the ready signal arrives.
	go func() {
		if err := client.Initialize(ctx); err != nil && ctx.Err() == nil {
			slog.Error("client initialize", "error", err)
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           gw.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr(), "session", cfg.Session.ID)
		if cfg.Auth.APIKey != "" {
			slog.Info("API authentication enabled")
		}
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
