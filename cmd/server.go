package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/viktsys/nifty50/api"
	"github.com/viktsys/nifty50/database"
)

var serverAddr string

var serverCMD = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long:  `Start the HTTP API server to serve stored daily bars and per-ticker statistics.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr = serverAddr
		}
		if err := validated(cfg.ValidateDatabase, cfg.ValidateServer); err != nil {
			return err
		}

		slog.Info("initializing database", "driver", cfg.Database.Driver)
		if err := database.InitDB(cfg.Database); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer database.Close(database.DB)

		srv := &http.Server{
			Addr:    cfg.Server.Addr,
			Handler: api.SetupRoutes(database.DB),
		}

		ctx, stop := signalContext()
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			slog.Info("starting server", "addr", cfg.Server.Addr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("failed to start server: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serverCMD.Flags().StringVar(&serverAddr, "addr", "", "listen address (default from config)")
}
