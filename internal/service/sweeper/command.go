package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/kasu-devops/sitekeeper/internal/config"
	"github.com/kasu-devops/sitekeeper/internal/logger"
	repo "github.com/kasu-devops/sitekeeper/internal/repository/page"
)

// Options controls the sweeper run and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// PageFile provides an optional page snapshot path override.
	PageFile string
	// DismissDelay overrides the configured delay when positive.
	DismissDelay time.Duration
}

// Run loads the page snapshot, auto-dismisses its alerts after the
// configured delay and persists the result.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "alert-sweeper")

	// Load settings from configuration file.
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	// Determine page file and delay: command line overrides config.
	pageFile := cfg.PageFile
	if opts.PageFile != "" {
		pageFile = opts.PageFile
	}

	delay := cfg.DismissDelay
	if opts.DismissDelay > 0 {
		delay = opts.DismissDelay
	}

	repository := repo.NewFileRepository(pageFile)

	doc, err := repository.Load(ctx)
	if err != nil {
		return fmt.Errorf("load page snapshot: %w", err)
	}

	logger.InfoKV(ctx, "Sweeping page", "page_file", pageFile, "alerts", len(doc.Alerts))

	// The scheduler mutates its document; sweep a copy and keep the loaded
	// snapshot intact.
	working := doc.Clone()

	scheduler := NewScheduler(working, delay)
	if err = scheduler.Run(ctx); err != nil {
		return fmt.Errorf("run scheduler: %w", err)
	}

	if err = repository.Save(ctx, working); err != nil {
		return fmt.Errorf("persist page snapshot: %w", err)
	}

	logger.InfoKV(ctx, "Sweep finished",
		"dismissed", scheduler.Dismissed(), "skipped", scheduler.Skipped())

	return nil
}
