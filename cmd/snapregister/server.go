package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/snapregister/snapregister/internal/config"
	"github.com/snapregister/snapregister/internal/devserver"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the local development backend (foreground)",
	Long: `Run the local development backend (foreground).

Serves the auth, upload, and analysis routes under /api with canned
extraction results, matching the development base URL.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return runServer(cmd.Context(), addr, cfg.Image.MaxUploadBytes)
	},
}

func runServer(ctx context.Context, addr string, maxUploadBytes int64) error {
	mux := chi.NewRouter()
	mux.Mount("/api", devserver.New(maxUploadBytes).Handler())

	srv := &http.Server{Addr: addr, Handler: mux}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fmt.Printf("snapregister dev server listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func init() {
	serverCmd.Flags().String("addr", "127.0.0.1:8080", "listen address")
}
