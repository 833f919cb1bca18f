package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"golang.org/x/sync/errgroup"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Server runs the REST API until its context is cancelled.
type Server struct {
	addr   string
	srv    *http.Server
	logger logging.Logger
}

// NewServer wraps handler with request logging and panic recovery.
func NewServer(addr string, handler http.Handler, l logging.Logger) *Server {
	logger := l.With("module", "http_server")

	handler = recoverPanics(logger)(handler)
	handler = logRequests(logger)(handler)

	return &Server{
		addr:   addr,
		logger: logger,
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}
}

func (s *Server) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		<-ctx.Done()

		s.logger.Info(ctx, "Stopping HTTP server...")
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		return s.srv.Shutdown(ctx)
	})

	eg.Go(func() error {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.addr)

		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen and serve: %w", err)
		}

		return nil
	})

	return eg.Wait()
}
