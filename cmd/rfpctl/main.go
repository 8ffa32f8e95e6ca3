package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/markdave123-py/rfpsearch/internal/app"
	"github.com/markdave123-py/rfpsearch/internal/cli"
	"github.com/markdave123-py/rfpsearch/internal/config"
	db "github.com/markdave123-py/rfpsearch/internal/core/database"
	"github.com/markdave123-py/rfpsearch/internal/core/jobs"
	"github.com/markdave123-py/rfpsearch/internal/logger"
	"github.com/markdave123-py/rfpsearch/internal/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	dbClient, err := db.NewDatabaseClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer dbClient.Close()

	jobsClient := jobs.NewClient(app.RedisOpt(cfg), cfg.JobRetention)
	defer jobsClient.Close()

	inspector := jobs.NewInspector(app.RedisOpt(cfg))
	defer inspector.Close()

	cli.SetServices(services.NewReprocessService(dbClient, jobsClient), inspector)
	return cli.Execute(ctx)
}
