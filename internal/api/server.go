package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"devforge/internal/logger"
	"devforge/internal/orchestrator"
)

const shutdownGrace = 10 * time.Second

// Serve runs the HTTP API until the context is cancelled or a termination
// signal arrives, then drains in-flight requests.
func Serve(ctx context.Context, addr string, orch *orchestrator.Orchestrator) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: NewRouter(orch),
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Log.Infow("http api listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	return g.Wait()
}
