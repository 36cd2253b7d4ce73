// Package main initializes and starts the NoteKeeper HTTP server,
// setting up configuration, logging, storage, repositories,
// services, handlers, and optional TLS.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/NoteKeeper/internal/ai"
	"github.com/atinyakov/NoteKeeper/internal/config"
	"github.com/atinyakov/NoteKeeper/internal/db"
	"github.com/atinyakov/NoteKeeper/internal/logger"
	"github.com/atinyakov/NoteKeeper/internal/media"
	"github.com/atinyakov/NoteKeeper/internal/middleware"
	"github.com/atinyakov/NoteKeeper/internal/repository"
	"github.com/atinyakov/NoteKeeper/internal/server/handler/http"
	"github.com/atinyakov/NoteKeeper/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownTimeout = 10 * time.Second

type userStore interface {
	service.UserRepository
	service.UserLookup
}

func main() {
	// Parse command-line, config file and environment configuration.
	options, err := config.Parse()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(2)
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Pick the storage backend.
	var (
		users userStore
		notes service.NoteRepository
	)
	if options.DatabaseDSN != "" {
		postgresDB, err := db.InitPostgres(options.DatabaseDSN)
		if err != nil {
			zapLogger.Fatal("cannot init database", zap.Error(err))
		}
		defer postgresDB.Close()
		users = repository.NewPostgresUserRepository(postgresDB)
		notes = repository.NewPostgresNoteRepository(postgresDB)
		zapLogger.Info("using postgres store")
	} else {
		fileUsers, err := repository.NewFileUserRepository(options.DataDir, zapLogger)
		if err != nil {
			zapLogger.Fatal("cannot open user list", zap.Error(err))
		}
		fileNotes, err := repository.NewFileNoteRepository(options.DataDir, zapLogger)
		if err != nil {
			zapLogger.Fatal("cannot open note store", zap.Error(err))
		}
		users, notes = fileUsers, fileNotes
		zapLogger.Info("using file store", zap.String("dir", options.DataDir))
	}

	mediaStore, err := media.NewStore(options.MediaDir)
	if err != nil {
		zapLogger.Fatal("cannot open media store", zap.Error(err))
	}

	// Initialize business-logic services.
	tokens := service.NewTokenManager(options.JWTSecret, options.TokenTTL.Duration)
	authService := service.NewAuthService(users, notes, tokens, zapLogger)
	noteService := service.NewNoteService(notes, zapLogger)

	var completer service.Completer
	if options.AI.APIKey != "" {
		completer = ai.NewClient(options.AI.BaseURL, options.AI.APIKey, options.AI.Model, options.AI.Timeout.Duration)
	} else {
		zapLogger.Info("no AI API key configured, assistant answers locally")
	}
	assistant := service.NewAssistantService(users, noteService, completer, options.AI.SystemPrompt, zapLogger)

	// Remove uploads whose note was never saved.
	media.StartOrphanSweeper(ctx, mediaStore, noteService.MediaReferences,
		options.MediaSweepInterval.Duration,
		options.MediaRetention.Duration,
		zapLogger,
	)

	// Create HTTP handlers.
	handlers := http.Handlers{
		Auth:  &http.AuthHandler{AuthService: authService, Log: zapLogger},
		Notes: &http.NoteHandler{Notes: noteService, Media: mediaStore, Log: zapLogger},
		AI:    &http.AIHandler{Assistant: assistant, Log: zapLogger},
	}
	if options.DebugEndpoints {
		handlers.Debug = &http.DebugHandler{Files: noteService, Log: zapLogger}
		zapLogger.Warn("debug endpoints enabled")
	}

	// Build the router with middleware and routes.
	router := http.NewRouter(handlers, http.RouterOptions{
		Verifier:       authService,
		AILimiter:      middleware.NewUserRateLimiter(float64(options.AI.RatePerMinute), options.AI.Burst),
		MediaDir:       mediaStore.Dir(),
		MaxUploadBytes: options.MaxUploadBytes,
		AllowedOrigins: options.AllowedOrigins,
	}, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if options.TLSCert != "" {
			zapLogger.Info("starting HTTPS server", zap.String("addr", options.Port))
			errCh <- server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
			return
		}
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		zapLogger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
