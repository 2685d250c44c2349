package keeper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/helixswap/governance/logger"
)

func indicatorHandler(reg prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return mux
}

// ServeIndicators exposes the keeper's indicator registry on addr under
// /metrics until the context is cancelled. Failures surface on the returned
// channel, which closes once the server has stopped.
func ServeIndicators(ctx context.Context, addr string, reg prometheus.Gatherer, log logger.Logger) <-chan error {
	errs := make(chan error, 2)
	srv := &http.Server{
		Addr:              addr,
		Handler:           indicatorHandler(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		defer close(errs)
		log.Info("serving keeper indicators", logger.WithField("address", addr))

		serveErr := make(chan error, 1)
		go func() { serveErr <- srv.ListenAndServe() }()

		select {
		case err := <-serveErr:
			errs <- fmt.Errorf("indicator server: %w", err)
			return
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs <- err
		}
		if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		log.Info("indicator server stopped")
	}()
	return errs
}
