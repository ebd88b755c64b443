// If you are AI: This file handles graceful shutdown orchestration for the process.

package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// ShutdownTimeout bounds how long stopping takes after a signal.
const ShutdownTimeout = 5 * time.Second

// Stopper is anything that must be stopped on shutdown, in registration order.
type Stopper interface {
	Stop(ctx context.Context) error
}

// StopFunc adapts a function to Stopper.
type StopFunc func(ctx context.Context) error

// Stop calls f.
func (f StopFunc) Stop(ctx context.Context) error {
	return f(ctx)
}

// ShutdownHandler manages graceful shutdown on SIGINT or SIGTERM.
type ShutdownHandler struct {
	server   *Server
	stoppers []Stopper
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewShutdownHandler creates a handler that listens for termination signals.
// Stoppers run before the HTTP server is shut down.
func NewShutdownHandler(ctx context.Context, server *Server, stoppers ...Stopper) *ShutdownHandler {
	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ShutdownHandler{
		server:   server,
		stoppers: stoppers,
		ctx:      shutdownCtx,
		cancel:   cancel,
	}
}

// Wait blocks until a termination signal arrives or the parent context ends, then shuts down.
// This method should be called from the main goroutine.
func (h *ShutdownHandler) Wait() error {
	ctx, stop := signal.NotifyContext(h.ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	return h.Shutdown()
}

// Shutdown cancels the shutdown context, stops every stopper and then the server.
// All steps run even if one fails; the errors are joined.
func (h *ShutdownHandler) Shutdown() error {
	h.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	var errs []error
	for _, s := range h.stoppers {
		if err := s.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if h.server != nil {
		if err := h.server.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Context returns the shutdown context that is cancelled when shutdown begins.
func (h *ShutdownHandler) Context() context.Context {
	return h.ctx
}
