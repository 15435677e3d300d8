package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds settings shared by the sitekeeper binaries.
type Config struct {
	// LibraryPath is the absolute library search path exported to every
	// command the provisioner runs. It replaces the environment variable
	// the legacy deployment script set process-wide.
	LibraryPath string `yaml:"library_path"`
	// ManifestFile is the path to the YAML dependency manifest.
	ManifestFile string `yaml:"manifest_file"`
	// PageFile is the path to the JSON page snapshot consumed by the sweeper.
	PageFile string `yaml:"page_file"`
	// DismissDelay is how long an alert stays on the page before
	// its dismiss control is activated automatically.
	DismissDelay time.Duration `yaml:"dismiss_delay"`
	// Timeout is the duration allotted to a single provisioning command.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for sitekeeper settings.
	DefaultConfigFilename = "sitekeeper-settings.yaml"

	// DefaultManifestFilename is the default filename for the dependency manifest.
	DefaultManifestFilename = "sitekeeper-manifest.yaml"

	// DefaultPageFilename is the default filename for the page snapshot JSON.
	DefaultPageFilename = "sitekeeper-page.json"

	// DefaultDismissDelay is how long alerts linger before auto-dismissal.
	DefaultDismissDelay = 5 * time.Second

	// DefaultTimeout is the default duration for a single provisioning command.
	DefaultTimeout = 5 * time.Minute

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errLibraryPathNotAbsolute is returned when the library path is relative.
	errLibraryPathNotAbsolute = errors.New("library path must be absolute")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills in defaults.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.LibraryPath != "" && !filepath.IsAbs(settings.LibraryPath) {
		return fmt.Errorf("%w: %s", errLibraryPathNotAbsolute, settings.LibraryPath)
	}

	if settings.ManifestFile == "" {
		settings.ManifestFile = DefaultManifestFilename
	}

	if settings.PageFile == "" {
		settings.PageFile = DefaultPageFilename
	}

	if settings.DismissDelay <= 0 {
		settings.DismissDelay = DefaultDismissDelay
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	return nil
}
