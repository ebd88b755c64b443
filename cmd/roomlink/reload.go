// If you are AI: This file reloads the connection section of the config on SIGHUP.
// Only the descriptor source changes; protocol, reconnect and http settings need a restart.

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"roomlink/internal/config"
)

// refresher re-resolves descriptors after the resolver changed.
type refresher interface {
	Refresh(ctx context.Context) error
}

// watchReload subscribes to SIGHUP before returning and then, in the background, swaps the
// resolver's connection config on every signal until ctx is done.
func watchReload(ctx context.Context, path string, resolver *config.StaticResolver, mgr refresher, log *slog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go reloadLoop(ctx, hup, path, resolver, mgr, log)
}

// reloadLoop applies one reload per signal. A file that fails to load or validate is logged and ignored.
func reloadLoop(ctx context.Context, hup chan os.Signal, path string, resolver *config.StaticResolver, mgr refresher, log *slog.Logger) {
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
		}

		cfg, err := config.Load(path)
		if err == nil {
			err = cfg.Validate()
		}
		if err != nil {
			log.Warn("config reload rejected", "path", path, "error", err)
			continue
		}
		resolver.Update(cfg.Connection)
		if err := mgr.Refresh(ctx); err != nil {
			log.Warn("refresh after reload failed", "error", err)
			continue
		}
		log.Info("connection config reloaded", "path", path, "restricted_area", cfg.Connection.RestrictedArea)
	}
}
