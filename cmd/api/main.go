package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/markdave123-py/rfpsearch/internal/app"
	"github.com/markdave123-py/rfpsearch/internal/config"
	"github.com/markdave123-py/rfpsearch/internal/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM for graceful shutdown
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		<-c
		cancel()
	}()

	cfg := config.LoadConfig()
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		logger.Fatal("startup failed: %v", err)
	}
	defer application.Close()

	server := app.NewServer(cfg, application)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error("http server: %v", err)
			cancel()
		}
	}()

	logger.Info("rfpsearch API is running; DB connected and bootstrapped.")
	<-ctx.Done()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown: %v", err)
	}
}
