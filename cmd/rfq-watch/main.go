package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rfq/internal/config"
	"rfq/internal/listener"
	"rfq/internal/pipeline"
	"rfq/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	logger := config.NewLogger(cfg.LogLevel, os.Stderr)

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	gen, err := pipeline.NewGenerator(db, cfg, logger)
	must(err)

	svc := listener.NewService(db, cfg, gen, logger)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
