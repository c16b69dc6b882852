package main

import (
	"github.com/Laisky/errors/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	"github.com/rohits-web03/transferly/internal/config"
	"github.com/rohits-web03/transferly/internal/log"
)

var rootCMD = &cobra.Command{
	Use:   "transferly",
	Short: "transferly",
	Long:  `expiring, password-protected file transfers`,
	Args:  gcmd.NoExtraArgs,
}

// setup loads the configuration and applies the log level flag.
func setup(cmd *cobra.Command) (config.Config, error) {
	lvl, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return config.Config{}, errors.Wrap(err, "read log-level flag")
	}
	if err = log.Logger.ChangeLevel(glog.Level(lvl)); err != nil {
		return config.Config{}, errors.Wrapf(err, "change log level to %q", lvl)
	}

	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return config.Config{}, errors.Wrap(err, "read env-file flag")
	}
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, errors.Wrap(err, "load config")
	}
	return cfg, nil
}

func init() {
	rootCMD.PersistentFlags().String("env-file", "", "dotenv file to load, defaults to ENV_FILE or .env")
	rootCMD.PersistentFlags().String("log-level", "info", "`debug/info/warn/error`")
}

// Execute runs the root command.
func Execute() {
	if err := rootCMD.Execute(); err != nil {
		glog.Shared.Panic("start", zap.Error(err))
	}
}
