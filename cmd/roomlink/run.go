// If you are AI: This file wires configuration, the lifecycle manager, the event hub and the HTTP surface.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"roomlink/internal/config"
	"roomlink/internal/core/bus"
	"roomlink/internal/core/protocol/rtmp"
	"roomlink/internal/core/transport"
	"roomlink/internal/metrics"
	"roomlink/internal/server"
	"roomlink/internal/svc/lifecycle"
)

// runCmd starts the client and blocks until SIGINT or SIGTERM.
func runCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the room server and serve health, metrics and events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return run(cmd.Context(), cfg, configPath, cfg.Log.NewLogger(os.Stderr))
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "configs/roomlink.example.yaml", "Path to configuration file")

	return cmd
}

// run starts every component and waits for shutdown. path is re-read on SIGHUP.
func run(ctx context.Context, cfg *config.Config, path string, log *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)
	hub := bus.NewHub()

	opts := cfg.LifecycleOptions(log)
	opts.Dialer = transport.NewDialer(cfg.Protocol.DialTimeout, cfg.Protocol.KeepAlive)
	opts.Observer = m
	opts.Dispatcher = lifecycle.DispatcherFunc(func(slot lifecycle.Slot, session string, msg *rtmp.Message) {
		hub.Publish(bus.NewMessageEvent(slot.String(), session, msg))
	})
	opts.Notifier = lifecycle.NotifierFunc(func(ev lifecycle.Event) {
		status := bus.NewStatusEvent(ev.Slot.String(), ev.State.String(), ev.Delay, ev.Err)
		status.Session = ev.Session
		hub.Publish(status)
	})
	resolver := config.NewStaticResolver(cfg.Connection)
	mgr := lifecycle.NewManager(resolver, opts)

	srv := server.New(cfg.HTTP.Port, server.Deps{
		Manager:  mgr,
		Checker:  mgr,
		Hub:      hub,
		Drops:    m,
		Gatherer: reg,
		Version:  version,
		Logger:   log,
	})

	if err := mgr.Start(ctx); err != nil {
		return err
	}
	shutdown := server.NewShutdownHandler(ctx, srv, mgr)
	watchReload(shutdown.Context(), path, resolver, mgr, log)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
			serveErr <- err
			cancel()
		}
	}()

	err := shutdown.Wait()
	select {
	case serr := <-serveErr:
		err = errors.Join(serr, err)
	default:
	}
	if err == nil {
		log.Info("shut down cleanly")
	}
	return err
}
