package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kasu-devops/sitekeeper/internal/config"
	"github.com/kasu-devops/sitekeeper/internal/logger"
	"github.com/kasu-devops/sitekeeper/internal/service/provisioner"
	"github.com/kasu-devops/sitekeeper/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string

	// manifestPath overrides the dependency manifest location.
	manifestPath string

	// dryRun plans every step without executing anything.
	dryRun bool

	// logLevel sets the minimum level for log output.
	logLevel string

	// rootCmd represents the base command preparing the runtime environment.
	rootCmd = &cobra.Command{
		Use:   "site-provisioner",
		Short: "Upgrade installer tooling and install declared dependencies",
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

			options := &provisioner.Options{
				ConfigPath:   configPath,
				ManifestPath: manifestPath,
				DryRun:       dryRun,
			}

			return provisioner.Run(ctx, options)
		},
	}
)

// Execute runs the site-provisioner CLI and exits with non-zero status on error.
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
	rootCmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "path to dependency manifest")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "log planned commands without executing them")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "minimum log level (debug, info, warn, error)")
}
