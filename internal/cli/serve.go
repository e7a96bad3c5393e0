package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/BlankParticle/preview-pkg/internal/config"
	"github.com/BlankParticle/preview-pkg/internal/github"
	"github.com/BlankParticle/preview-pkg/internal/httpserve"
	"github.com/BlankParticle/preview-pkg/internal/registry"
	"github.com/BlankParticle/preview-pkg/pkg/logger"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the preview registry server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger.GetLogger().SetLogLevel(cfg.Server.LogLevel)

			store, err := registry.NewFilesystemStore(cfg.Server.DataDir)
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					logger.Error("failed to close package store", "error", err)
				}
			}()

			resolver := &github.Resolver{Client: github.NewClient()}
			srv := httpserve.NewServer(cfg.Server.Port, store, resolver)

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-quit:
				logger.Info("shutting down", "signal", sig)
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(ctx)
			}
		},
	}
}
