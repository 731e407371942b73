package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/mirrorbox/mirrorbox/internal/config"
	"github.com/mirrorbox/mirrorbox/internal/logging"
	"github.com/mirrorbox/mirrorbox/internal/mirror"
	"github.com/mirrorbox/mirrorbox/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	home, _        = os.UserHomeDir()
	configFileName = "config"
)

var rootCmd = &cobra.Command{
	Use:     "mirrorbox",
	Short:   "One-way folder mirroring daemon (source -> replica)",
	Version: version.Detailed(),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := &config.Config{
			Path:       viper.ConfigFileUsed(),
			SourceDir:  viper.GetString("source_dir"),
			ReplicaDir: viper.GetString("replica_dir"),
			Interval:   viper.GetDuration("interval"),
			LogFile:    viper.GetString("log_file"),
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		// config is good, errors past this point are runtime errors
		cmd.SilenceUsage = true

		closeLog, err := logging.Setup(cfg.LogFile)
		if err != nil {
			return err
		}
		defer closeLog()

		showHeader()

		daemon := mirror.NewDaemon(cfg, mirror.NewSlogSink(slog.Default()))

		if once, _ := cmd.Flags().GetBool("once"); once {
			if err := daemon.Lock(); err != nil {
				return err
			}
			defer daemon.Unlock()
			return daemon.RunPass()
		}

		defer slog.Info("Bye!")
		return daemon.Start(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.Flags().StringP("source", "s", "", "Source folder path (must exist)")
	rootCmd.Flags().StringP("replica", "r", "", "Replica folder path (created if missing)")
	rootCmd.Flags().DurationP("interval", "i", config.DefaultInterval, "Synchronization interval")
	rootCmd.Flags().StringP("logfile", "l", config.DefaultLogFilePath, "Log file path")
	rootCmd.Flags().Bool("once", false, "Run a single pass and exit")
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "Config file")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) error {
	// a local .env can carry MIRRORBOX_* overrides
	_ = godotenv.Load()

	if cmd.Flag("config").Changed {
		configFilePath, _ := cmd.Flags().GetString("config")
		viper.SetConfigFile(configFilePath)
	} else {
		viper.AddConfigPath(filepath.Join(home, ".mirrorbox"))
		viper.SetConfigName(configFileName)
		viper.SetConfigType("json")
	}

	if err := viper.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !enoent && !notFound {
			return fmt.Errorf("config read '%s': %w", viper.ConfigFileUsed(), err)
		}
	}

	viper.BindPFlag("source_dir", cmd.Flags().Lookup("source"))
	viper.BindPFlag("replica_dir", cmd.Flags().Lookup("replica"))
	viper.BindPFlag("interval", cmd.Flags().Lookup("interval"))
	viper.BindPFlag("log_file", cmd.Flags().Lookup("logfile"))

	viper.SetEnvPrefix("MIRRORBOX")
	viper.AutomaticEnv()

	return nil
}

func showHeader() {
	color.New(color.FgHiCyan, color.Bold).
		Printf("%s %s\n", version.AppName, version.Short())
}
