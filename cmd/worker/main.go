package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/markdave123-py/rfpsearch/internal/app"
	"github.com/markdave123-py/rfpsearch/internal/config"
	"github.com/markdave123-py/rfpsearch/internal/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	worker := app.NewWorker(cfg, application)
	if err := worker.Start(); err != nil {
		logger.Error("worker start: %v", err)
		return
	}

	<-ctx.Done()
	worker.Shutdown()
}
