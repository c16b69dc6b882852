package main

import (
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	"github.com/rohits-web03/transferly/internal/log"
	"github.com/rohits-web03/transferly/internal/repositories"
)

var migrateCMD = &cobra.Command{
	Use:   "migrate",
	Short: "migrate",
	Long:  `create or update the transfer tables`,
	Args:  gcmd.NoExtraArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup(cmd)
		if err != nil {
			return err
		}

		db, err := repositories.ConnectDatabase(cfg.DBURL)
		if err != nil {
			return err
		}
		if err = repositories.Migrate(db); err != nil {
			return err
		}

		log.Logger.Info("database migrated", zap.String("env", cfg.Environment))
		return nil
	},
}

func init() {
	rootCMD.AddCommand(migrateCMD)
}
