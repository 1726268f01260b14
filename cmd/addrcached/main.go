// Package main runs address cache daemon fed by DNS lookups.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vearutop/addrcache"
	"github.com/vearutop/addrcache/internal/config"
	"github.com/vearutop/addrcache/internal/logging"
	"github.com/vearutop/addrcache/internal/resolve"
	"github.com/vearutop/addrcache/internal/server"
)

func main() {
	cfgPath := os.Getenv("ADDRCACHE_CONFIG")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Level)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	c, err := addrcache.NewAddressCache(cfg.MaxAge, addrcache.Config{
		Name:   cfg.Name,
		Logger: logger,
	})
	if err != nil {
		log.Fatalf("init cache: %v", err)
	}

	inv := &addrcache.Invalidator{
		SkipInterval: cfg.FlushSkipInterval,
		Callbacks:    []func(){c.RemoveAll},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(cfg.Resolve.Hosts) > 0 {
		feeder, err := resolve.NewFeeder(c, resolve.Config{
			Server:  cfg.Resolve.Server,
			Timeout: cfg.Resolve.Timeout,
			IPv6:    cfg.Resolve.IPv6,
			Logger:  logger,
		})
		if err != nil {
			log.Fatalf("init resolver: %v", err)
		}

		go feeder.Run(ctx, cfg.Resolve.Hosts, cfg.Resolve.Interval)
	}

	srv := server.New(c, inv, server.Options{APIToken: cfg.APIToken, Logger: logger})

	go func() {
		logger.Important(ctx, "starting server", "listen", cfg.Listen, "maxAge", cfg.MaxAge.String())

		if err := srv.Start(cfg.Listen); err != nil {
			log.Fatalf("server start: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Important(ctx, "shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "failed to shutdown server", "error", err)
	}
}
