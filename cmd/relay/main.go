package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Tropical8818/iProTalk/auth"
	"github.com/Tropical8818/iProTalk/infrastructure/http/server"
	"github.com/Tropical8818/iProTalk/internal"
	"github.com/Tropical8818/iProTalk/repositories"
	"github.com/Tropical8818/iProTalk/runtime"
	"github.com/Tropical8818/iProTalk/runtime/workers"
	"github.com/Tropical8818/iProTalk/services"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
)

// Exit codes for the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and blocks until a signal arrives.
// Deferred cleanups run before main exits.
func run() (int, error) {
	// 1. Configuration & Logger
	config, err := internal.LoadConfig()
	if err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	tokens, err := auth.NewTokenManager(config.SecretKey, config.AuthTokenDuration)
	if err != nil {
		return exitConfig, err
	}

	// 2. Database (BadgerDB). SyncWrites makes an acknowledged append survive a crash.
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithSyncWrites(true).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Core
	messageRepository, err := repositories.NewMessageRepository(db, log, config.MessageCacheSize)
	if err != nil {
		return exitConfig, err
	}
	hub := runtime.NewHub(runtime.WithCapacity(config.SubscriberBufferSize))
	defer hub.Close()

	relay := services.NewRelayService(log, tokens, messageRepository, hub, config.KeepAliveInterval)
	accounts := services.NewAuthService(repositories.NewUserRepository(db), tokens)
	keys := services.NewKeyService(tokens, repositories.NewKeyRepository(db))

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Background workers
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		workers.NewValueLogGCWorker(log, db, config.ValueLogGCInterval),
		workers.NewStatsReporterWorker(log, hub, messageRepository, config.StatsInterval),
	)
	supervisorDone := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supervisorDone)
	}()

	if strings.EqualFold(config.LogLevel, slog.LevelDebug.String()) {
		debugServer := internal.StartDebugServer(log, db, config.DebugPort, messageRow, func() map[string]any {
			stats := hub.Stats()
			figures := map[string]any{
				"consumers": stats.Consumers,
				"published": stats.Published,
				"lagged":    stats.Lagged,
				"capacity":  stats.Capacity,
			}
			if self, err := workers.SelfStats(); err == nil {
				figures["rss_bytes"] = self.RSS
				figures["cpu_percent"] = self.CPU
			}
			return figures
		})
		defer func() { _ = debugServer.Close() }()
	}

	// 6. HTTP server
	httpServer := &http.Server{
		Addr:              config.Address(),
		Handler:           server.NewServer(log, tokens, relay, accounts, keys, hub).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		// No WriteTimeout, streams stay open.
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", httpServer.Addr, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		sup.Stop()
		<-supervisorDone
		return exitRuntime, err
	}

	// 8. Final Cleanup. Closing the hub first ends every open stream so
	// Shutdown does not wait on them.
	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown incomplete", "error", err)
	}
	<-supervisorDone
	log.Info("Relay stopped cleanly")

	return exitOK, nil
}

// messageRow shows a stored message by its routing fields for the debug inspector.
func messageRow(key string, val []byte) internal.InspectRow {
	msg, err := repositories.DecodeMessage(val)
	if err != nil {
		return internal.DefaultMapper(key, val)
	}
	return internal.InspectRow{
		Key:    key,
		Size:   len(val),
		Detail: fmt.Sprintf("sender=%s group=%s recipient=%s", msg.SenderID, lo.FromPtrOr(msg.GroupID, "-"), lo.FromPtrOr(msg.RecipientID, "-")),
	}
}
