package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Laisky/errors/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	"github.com/rohits-web03/transferly/internal/api"
	"github.com/rohits-web03/transferly/internal/log"
	"github.com/rohits-web03/transferly/internal/repositories"
	"github.com/rohits-web03/transferly/internal/transfer"
)

const shutdownTimeout = 30 * time.Second

var serveCMD = &cobra.Command{
	Use:   "serve",
	Short: "serve",
	Long:  `run the transfer HTTP gateway`,
	Args:  gcmd.NoExtraArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(cmd)
		if err != nil {
			return err
		}
		autoMigrate, err := cmd.Flags().GetBool("auto-migrate")
		if err != nil {
			return errors.Wrap(err, "read auto-migrate flag")
		}

		db, err := repositories.ConnectDatabase(cfg.DBURL)
		if err != nil {
			return err
		}
		if autoMigrate {
			if err = repositories.Migrate(db); err != nil {
				return err
			}
		}

		blobs, err := repositories.NewBlobStore(cfg)
		if err != nil {
			return errors.Wrap(err, "new blob store")
		}

		manager, err := transfer.NewManager(
			repositories.NewTransferRepository(db),
			blobs,
			transfer.SettingsFromConfig(cfg),
			log.Logger.Named("transfer_manager"),
			nil,
		)
		if err != nil {
			return errors.Wrap(err, "new transfer manager")
		}

		server := &http.Server{
			Addr: ":" + cfg.Port,
			Handler: api.SetupRouter(api.Deps{
				Manager:            manager,
				Blobs:              blobs,
				Cors:               cfg.CorsConfig,
				MaxMultipartMemory: cfg.Transfer.MaxMultipartMemory,
				Logger:             log.Logger,
			}),
			// uploads and blob downloads may stream for a long time, only headers are bounded
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			log.Logger.Info("starting transferly server",
				zap.String("port", cfg.Port),
				zap.String("env", cfg.Environment),
				zap.String("blob_backend", cfg.Blob.Backend))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- errors.Wrapf(err, "listen on port %s", cfg.Port)
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		log.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown server")
		}
		return nil
	},
}

func init() {
	serveCMD.Flags().Bool("auto-migrate", true, "migrate the database before serving")
	rootCMD.AddCommand(serveCMD)
}
