package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	backend "github.com/Alturino/storefront/backend/cmd"
	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/log"
	storefront "github.com/Alturino/storefront/storefront/cmd"
)

func Start() {
	var (
		logDir string
		env    string
	)

	rootCmd := &cobra.Command{
		Use:   "storefront",
		Short: "Storefront cart and order services",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logFile := ""
			if logDir != "" {
				logFile = filepath.Join(logDir, cmd.Name()+".log")
			}
			logger := log.Get(logFile, config.Application{Env: env}).
				With().
				Str(log.KeyAppName, constants.AppMain).
				Logger()
			cmd.SetContext(logger.WithContext(cmd.Context()))
		},
	}
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", os.Getenv("APPLICATION_LOG_DIR"), "directory for rotated log files, empty logs to stdout only")
	rootCmd.PersistentFlags().StringVar(&env, "env", envOr("APPLICATION_ENV", "development"), "environment, development enables trace logging")

	commands := []*cobra.Command{
		{
			Use:   constants.AppStorefront,
			Short: "Run the session facing storefront service",
			Run: func(cmd *cobra.Command, args []string) {
				storefront.RunStorefront(cmd.Context())
			},
		},
		{
			Use:   constants.AppBackend,
			Short: "Run the order and user backend",
			Run: func(cmd *cobra.Command, args []string) {
				backend.RunBackend(cmd.Context())
			},
		},
	}
	rootCmd.AddCommand(commands...)

	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(c); err != nil {
		logger := log.Get("", config.Application{Env: env})
		logger.Fatal().Err(err).Msgf("error when executing command=%s", err.Error())
	}
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
