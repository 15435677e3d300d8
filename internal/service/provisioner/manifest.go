package provisioner

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-ps"
	"gopkg.in/yaml.v3"

	"github.com/kasu-devops/sitekeeper/internal/logger"

	// Ensure SHA512 is available for checksum calculation.
	_ "crypto/sha512"
)

var (
	errHashUnavailable  = errors.New("hash function unavailable")
	errNoInstaller      = errors.New("manifest does not declare an installer")
	errEmptyPackageSpec = errors.New("manifest contains an empty package spec")
)

const (
	// MarkerFilename marks that a provisioning run is in progress to avoid parallel execution.
	MarkerFilename = "sitekeeper-provision-marker.bin"

	// DefaultFileMode is used when replacing installer tooling on disk.
	DefaultFileMode os.FileMode = 0o755

	// DefaultChecksumFunction is used to verify pinned tooling artifacts.
	DefaultChecksumFunction crypto.Hash = crypto.SHA512

	// markerLifetime is the period after which a stale provisioning marker is ignored.
	markerLifetime = 30 * time.Second

	// provisionerProcessName is the executable name scanned for during stale-marker recovery.
	provisionerProcessName = "site-provisioner"
)

// Upgrade describes how the installer tooling itself is brought up to date
// before any package is installed. Either Args (a command run through the
// installer, e.g. "install --upgrade pip") or a pinned Artifact with its
// checksum may be given; the artifact wins when both are present.
type Upgrade struct {
	// Args are the installer arguments performing an in-place tooling upgrade.
	Args []string `yaml:"args,omitempty"`
	// Artifact is a path to a replacement installer binary to apply.
	Artifact string `yaml:"artifact,omitempty"`
	// Checksum is the base64-encoded SHA512 checksum of the artifact.
	Checksum string `yaml:"checksum,omitempty"`
}

// Manifest is the fixed-name dependency manifest read from the working directory.
type Manifest struct {
	// Installer is the package installer executable (name or path).
	Installer string `yaml:"installer"`
	// Upgrade controls the tooling upgrade step preceding installation.
	Upgrade Upgrade `yaml:"upgrade,omitempty"`
	// Packages lists package specs to install, in order.
	Packages []string `yaml:"packages"`
}

// LoadManifest reads and validates the dependency manifest at the provided path.
func LoadManifest(path string) (*Manifest, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err = yaml.Unmarshal(contents, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}

	if err = m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Validate checks the manifest for required fields.
func (m *Manifest) Validate() error {
	if m.Installer == "" {
		return errNoInstaller
	}

	for _, spec := range m.Packages {
		if spec == "" {
			return errEmptyPackageSpec
		}
	}

	return nil
}

// GetFileChecksum returns checksum bytes for a file using DefaultChecksumFunction.
func GetFileChecksum(path string) ([]byte, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	if !DefaultChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := DefaultChecksumFunction.New()
	if _, err = hasher.Write(contents); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}

// IsProvisionerRunningNow checks presence of a marker file and attempts recovery if it looks stale.
func IsProvisionerRunningNow(ctx context.Context) bool {
	logger.Info(ctx, "Checking for the presence of a provisioning marker")

	fileInfo, err := os.Stat(MarkerFilename)
	if err == nil {
		if time.Since(fileInfo.ModTime()) <= markerLifetime {
			return true
		}

		logger.Info(ctx, "The provisioning marker is too old, attempting cleanup")

		if err = terminateProcessByName(provisionerProcessName); err != nil {
			return true
		}

		if err = os.Remove(MarkerFilename); err != nil {
			return true
		}

		return false
	}

	if errors.Is(err, os.ErrNotExist) {
		logger.Info(ctx, "Provisioning marker not found, continuing")
		return false
	}

	logger.Infof(ctx, "Unable to read provisioning marker: %v", err)

	return false
}

// terminateProcessByName tries to kill processes with the provided executable name.
func terminateProcessByName(processName string) error {
	processList, err := ps.Processes()
	if err != nil {
		return err
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() != processName {
			continue
		}

		var runningProcess *os.Process

		runningProcess, err = os.FindProcess(process.Pid())
		if err != nil {
			return err
		}

		if err = runningProcess.Kill(); err != nil {
			return err
		}
	}

	return nil
}
