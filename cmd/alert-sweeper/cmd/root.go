package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kasu-devops/sitekeeper/internal/config"
	"github.com/kasu-devops/sitekeeper/internal/logger"
	"github.com/kasu-devops/sitekeeper/internal/service/sweeper"
	"github.com/kasu-devops/sitekeeper/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// pageFile overrides the page snapshot location.
	pageFile string

	// dismissDelay overrides the configured delay before dismissal.
	dismissDelay time.Duration

	// logLevel sets the minimum level for log output.
	logLevel string

	// rootCmd represents the base command auto-dismissing page alerts.
	rootCmd = &cobra.Command{
		Use:   "alert-sweeper",
		Short: "Auto-dismiss the alert banners of a captured page after a fixed delay",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			} else if logLevel != "" {
				logger.Warnf(ctx, "Unknown log level %q, keeping %s", logLevel, logger.Level())
			}

			options := &sweeper.Options{
				ConfigPath:   configPath,
				PageFile:     pageFile,
				DismissDelay: dismissDelay,
			}

			return sweeper.Run(ctx, options)
		},
	}
)

// Execute runs the alert-sweeper CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&pageFile, "page", "p", "", "path to page snapshot JSON")
	rootCmd.Flags().DurationVar(&dismissDelay, "delay", 0, "override delay before alerts are dismissed")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "minimum log level (debug, info, warn, error)")
}
