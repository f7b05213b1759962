package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Funz/fz-go/internal/fzd"
	"github.com/Funz/fz-go/pkg/logger"
)

func main() {
	var addr string
	var workRoot string
	var logLevel string

	flag.StringVar(&addr, "addr", ":9009", "HTTP listen address")
	flag.StringVar(&workRoot, "work-root", "fzd-work", "directory where staged cases run")
	flag.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	logger.SetDefault(logger.NewText(logLevel, os.Stdout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(workRoot, 0o755); err != nil {
		logger.Error("failed to create work root", "dir", workRoot, "error", err)
		os.Exit(1)
	}

	store := fzd.NewCaseStore()
	executor := fzd.NewExecutor(workRoot, store)

	srv := &http.Server{
		Addr:              addr,
		Handler:           fzd.SetupRouter(fzd.NewHandler(store, executor)),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("calculator daemon listening", "addr", addr, "work_root", workRoot)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown requested")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
}
