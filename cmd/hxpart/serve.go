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

	"github.com/pthm/hxpart/lib/encoding"
	"github.com/pthm/hxpart/lib/gqlschema"
	"github.com/pthm/hxpart/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HXPART_ADDR)")
	return cmd
}

func runServe(ctx context.Context, cfg Config) error {
	logger, err := cfg.newLogger(os.Stderr)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	key, err := cfg.signingKey(logger)
	if err != nil {
		return err
	}
	codec, err := encoding.NewCodec(key)
	if err != nil {
		return fmt.Errorf("signing codec: %w", err)
	}

	opts := []server.Option{server.WithLogger(logger)}
	if a.registrar != nil {
		schema, err := a.registrar.Schema()
		if err != nil {
			return fmt.Errorf("build graphql schema: %w", err)
		}
		opts = append(opts, server.WithGraphQL(gqlschema.Handler(schema, logger)))
	}
	srv := server.New(a.registry, a.store, a.resolver, codec, opts...)

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr, "database", cfg.Database, "graphql", cfg.GraphQLEnabled)
		errc <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
