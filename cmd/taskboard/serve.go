package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskboard/taskboard/internal/tracker"
)

func newServeMockCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve-mock",
		Short: "Serve the demo tracker over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.open()
			if err != nil {
				return err
			}
			defer e.Close() //nolint:errcheck
			if addr == "" {
				addr = e.cfg.Addr
			}

			auth, err := mockAuth(e.logger)
			if err != nil {
				return err
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           tracker.NewRouter(tracker.NewMock(e.cfg.MockLatency), auth, e.logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, srv, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "mock tracker listening on http://%s\n", addr)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from TASKBOARD_ADDR)")
	return cmd
}

// serve runs srv until ctx is done, then shuts it down.
func serve(ctx context.Context, srv *http.Server, started func()) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	started()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
