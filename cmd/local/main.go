package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cruxstack/mail-dispatch-func-go/internal/config"
	"github.com/cruxstack/mail-dispatch-func-go/internal/httpadapter"
	"github.com/cruxstack/mail-dispatch-func-go/internal/metrics"
	"github.com/cruxstack/mail-dispatch-func-go/internal/sender"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

const shutdownTimeout = 10 * time.Second

func NewRouter(s *sender.Sender) http.Handler {
	fn := httpadapter.Handler(s.Handle)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Handle("/.netlify/functions/mail", fn)
	r.Handle("/", fn)
	r.Handle("/metrics", metrics.MetricsHandler())

	return r
}

func main() {
	for _, envpath := range []string{".env", filepath.Join("..", "..", ".env")} {
		if _, err := os.Stat(envpath); err == nil {
			_ = godotenv.Load(envpath)
			break
		}
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatal("failed to load config", "error", err)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           log.Level(cfg.AppLogLevel),
		ReportTimestamp: true,
	})
	log.SetDefault(logger)
	slog.SetDefault(slog.New(logger))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cfg.Resolve(ctx); err != nil {
		log.Fatal("failed to resolve config", "error", err)
	}

	s, err := sender.NewSender(ctx, cfg)
	if err != nil {
		log.Fatal("failed to init sender", "error", err)
	}

	server := &http.Server{
		Addr:              cfg.AppLocalAddr,
		Handler:           NewRouter(s),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "address", cfg.AppLocalAddr, "provider", cfg.AppEmailProvider, "send_enabled", cfg.AppSendEnabled)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal("server failed", "error", err)
		}
		return
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "error", err)
	}
}
