package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"yatube/internal/blob"
	"yatube/internal/forms"
	"yatube/internal/handlers"
	"yatube/internal/identity"
	"yatube/internal/metrics"
	"yatube/internal/middleware"
	"yatube/internal/views"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	cache, closeCache, err := a.openCache(ctx)
	if err != nil {
		return err
	}
	defer closeCache()

	blobs, err := blob.NewOSStorage(a.cfg.MediaRoot, a.cfg.MediaURL)
	if err != nil {
		return err
	}
	renderer, err := views.New(blobs.URL)
	if err != nil {
		return err
	}
	if a.cfg.SessionKey == "" {
		a.log.Warn("SESSION_KEY is not set, sessions will not survive a restart")
	}

	h := handlers.New(handlers.Options{
		Store:        st,
		Identity:     identity.NewService(st, a.cfg.BcryptCost),
		Sessions:     identity.NewSessions([]byte(a.cfg.SessionKey), a.cfg.SecureCookies),
		Views:        renderer,
		Blobs:        blobs,
		PageCache:    cache,
		CacheTTL:     a.cfg.Cache.TTL,
		Metrics:      metrics.New(),
		Log:          a.log,
		SignupRules:  forms.DefaultSignupRules(),
		MediaURL:     a.cfg.MediaURL,
		LoginLimiter: middleware.NewRateLimiter(a.cfg.LoginRatePerMinute, a.cfg.LoginBurst, handlers.TooManyRequests(renderer, a.log), a.log),
	})

	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	ln, err := net.Listen("tcp", a.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.cfg.Addr, err)
	}
	return runServer(ctx, srv, ln, a.cfg.ShutdownTimeout, a.log)
}

// runServer serves on ln until ctx is cancelled, then shuts down gracefully.
func runServer(ctx context.Context, srv *http.Server, ln net.Listener, timeout time.Duration, log logrus.FieldLogger) error {
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", ln.Addr().String()).Info("Starting HTTP server")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.WithError(err).Error("Server stopped unexpectedly")
		return err
	case <-ctx.Done():
	}
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error during server shutdown")
		return err
	}
	log.Info("Server stopped gracefully")
	return nil
}
