package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/chr21-gene-api/internal/api"
	"github.com/inodb/chr21-gene-api/internal/duckdb"
	"github.com/inodb/chr21-gene-api/internal/query"
	"github.com/inodb/chr21-gene-api/internal/seed"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long:  "Opens the gene store, seeds it from the dataset on first run, and serves the API.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	cmd.Flags().String("addr", ":8080", "Listen address")
	viper.BindPFlag("addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe() error {
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	store, err := duckdb.Open(viper.GetString("database"))
	if err != nil {
		return fmt.Errorf("open gene store: %w", err)
	}
	defer store.Close()

	// Seed before accepting traffic. A write failure here means the
	// dataset and the store disagree, so refuse to start.
	if err := seed.Run(context.Background(), store, viper.GetString("data"), logger); err != nil {
		return fmt.Errorf("initialize gene store: %w", err)
	}

	engine := query.New(store)
	engine.SetLogger(logger)

	srv := api.NewServer(engine)
	srv.SetLogger(logger)

	addr := viper.GetString("addr")
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("gene-api listening", zap.String("addr", addr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errc:
		return fmt.Errorf("listen on %s: %w", addr, err)
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("gene-api stopped")
	return nil
}
