package provisioner

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/user"
	"time"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/kasu-devops/sitekeeper/internal/config"
	"github.com/kasu-devops/sitekeeper/internal/logger"
)

var (
	errProvisionerAlreadyRunning = errors.New("the provisioner is already running")
	errNoArtifactChecksum        = errors.New("checksum missing for tooling artifact")
	errArtifactChecksumMismatch  = errors.New("tooling artifact does not match its checksum")
)

const (
	// startMessage and successMessage are the literal status lines the
	// hosting platform expects on standard output.
	startMessage   = "Installing dependencies..."
	successMessage = "Dependencies installed successfully!"

	// libraryPathEnvVar designates the library search path for child commands.
	// The value comes from configuration and is set per command, never process-wide.
	libraryPathEnvVar = "LD_LIBRARY_PATH"
)

// Options are inputs accepted by the provisioner entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// ManifestPath overrides the manifest location from configuration.
	ManifestPath string
	// DryRun logs planned commands without executing anything.
	DryRun bool
	// Output receives the status lines; defaults to os.Stdout.
	Output io.Writer
}

// commandExecutor runs one external command to completion.
// Declared as an interface so tests can observe and fail individual steps.
type commandExecutor interface {
	Run(ctx context.Context, name string, args []string, extraEnv []string) error
}

// execExecutor is the production commandExecutor backed by os/exec.
type execExecutor struct {
	// timeout bounds a single command; zero means no limit.
	timeout time.Duration
}

// Run executes the command, streaming its output to the process streams.
func (e *execExecutor) Run(ctx context.Context, name string, args []string, extraEnv []string) error {
	if e.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), extraEnv...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}

// runner holds the state and helpers for a single provisioning execution.
// It is intentionally unexported, callers go through Run(ctx, Options).
type runner struct {
	cfg      *config.Config // Settings loaded from YAML.
	manifest *Manifest      // Dependency manifest from the working directory.
	exec     commandExecutor
	out      io.Writer // Destination for the literal status lines.
	dryRun   bool
}

// Run executes the provisioning lifecycle and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "site-provisioner")

	r, err := newRunner(ctx, opts)
	if r != nil {
		// The marker exists once newRunner gets this far; remove it even
		// when loading the config or manifest failed.
		defer r.cleanup(ctx)
	}

	if err != nil {
		return err
	}

	if err = r.Run(ctx); err != nil {
		logger.ErrorKV(ctx, "Provisioning run failed", "error", err)
		return err
	}

	logger.Info(ctx, "Provisioning completed")

	return nil
}

// newRunner prepares the run and writes a marker to avoid concurrent runs.
func newRunner(ctx context.Context, opts *Options) (*runner, error) {
	if IsProvisionerRunningNow(ctx) {
		return nil, errProvisionerAlreadyRunning
	}

	marker, err := os.Create(MarkerFilename)
	if err != nil {
		return nil, err
	}

	r := &runner{
		out:    opts.Output,
		dryRun: opts.DryRun,
	}

	if r.out == nil {
		r.out = os.Stdout
	}

	if err = marker.Close(); err != nil {
		return r, err
	}

	r.cfg, err = config.Load(opts.ConfigPath)
	if err != nil {
		return r, err
	}

	manifestPath := r.cfg.ManifestFile
	if opts.ManifestPath != "" {
		manifestPath = opts.ManifestPath
	}

	r.manifest, err = LoadManifest(manifestPath)
	if err != nil {
		return r, err
	}

	r.exec = &execExecutor{timeout: r.cfg.Timeout}

	return r, nil
}

// Run executes the provisioning workflow:
// 1) Upgrade the installer tooling.
// 2) Install every declared package, in order, stopping at the first failure.
func (r *runner) Run(ctx context.Context) error {
	logRunActor(ctx)

	_, _ = fmt.Fprintln(r.out, startMessage)

	logger.InfoKV(ctx, "Upgrading installer tooling", "installer", r.manifest.Installer)

	if err := r.upgradeTooling(ctx); err != nil {
		return fmt.Errorf("upgrade tooling: %w", err)
	}

	if err := r.installPackages(ctx); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(r.out, successMessage)

	return nil
}

// upgradeTooling brings the installer itself up to date. A pinned artifact
// takes precedence over an upgrade command; a manifest may declare neither.
func (r *runner) upgradeTooling(ctx context.Context) error {
	up := r.manifest.Upgrade

	switch {
	case up.Artifact != "":
		return r.applyToolingArtifact(ctx)
	case len(up.Args) > 0:
		if r.dryRun {
			logger.InfoKV(ctx, "Would run upgrade command", "installer", r.manifest.Installer, "args", up.Args)
			return nil
		}

		return r.exec.Run(ctx, r.manifest.Installer, up.Args, r.libraryEnv())
	default:
		logger.Info(ctx, "No tooling upgrade declared, skipping")
		return nil
	}
}

// applyToolingArtifact replaces the installer executable with the pinned
// artifact after verifying its checksum.
func (r *runner) applyToolingArtifact(ctx context.Context) error {
	if r.manifest.Upgrade.Checksum == "" {
		return errNoArtifactChecksum
	}

	checksum, err := base64.StdEncoding.DecodeString(r.manifest.Upgrade.Checksum)
	if err != nil {
		return fmt.Errorf("decode artifact checksum: %w", err)
	}

	// Resolve the installer to its on-disk location; a bare name is looked
	// up on PATH, a path is used as-is.
	targetPath, err := exec.LookPath(r.manifest.Installer)
	if err != nil {
		targetPath = r.manifest.Installer
	}

	if r.dryRun {
		logger.InfoKV(ctx, "Would apply tooling artifact",
			"artifact", r.manifest.Upgrade.Artifact, "target", targetPath)

		return nil
	}

	// Reject a corrupt artifact before anything touches the target binary.
	actual, err := GetFileChecksum(r.manifest.Upgrade.Artifact)
	if err != nil {
		return fmt.Errorf("checksum tooling artifact: %w", err)
	}

	if !bytes.Equal(actual, checksum) {
		return fmt.Errorf("%w: %s", errArtifactChecksumMismatch, r.manifest.Upgrade.Artifact)
	}

	data, err := os.ReadFile(r.manifest.Upgrade.Artifact)
	if err != nil {
		return fmt.Errorf("read tooling artifact: %w", err)
	}

	logger.InfoKV(ctx, "Applying tooling artifact", "target", targetPath)

	options := goupdate.Options{
		TargetPath: targetPath,
		TargetMode: DefaultFileMode,
		Checksum:   checksum,
		Hash:       DefaultChecksumFunction,
	}

	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		return fmt.Errorf("apply tooling artifact: %w", err)
	}

	oldFileName := targetPath + ".old"
	if _, err = os.Stat(oldFileName); err == nil {
		_ = os.Remove(oldFileName)
	}

	return nil
}

// installPackages runs the install command for every manifest package in
// order. The first failing command aborts the run; later packages are
// never attempted.
func (r *runner) installPackages(ctx context.Context) error {
	total := len(r.manifest.Packages)

	for i, spec := range r.manifest.Packages {
		r.refreshMarker(ctx)

		logger.InfoKV(ctx, "Installing package", "package", spec, "step", i+1, "total", total)

		if r.dryRun {
			logger.InfoKV(ctx, "Would run install command",
				"installer", r.manifest.Installer, "package", spec)

			continue
		}

		args := append([]string{"install"}, spec)
		if err := r.exec.Run(ctx, r.manifest.Installer, args, r.libraryEnv()); err != nil {
			return fmt.Errorf("install %s: %w", spec, err)
		}
	}

	return nil
}

// libraryEnv returns the library search path assignment for child commands,
// or nil when no library path is configured.
func (r *runner) libraryEnv() []string {
	if r.cfg.LibraryPath == "" {
		return nil
	}

	return []string{libraryPathEnvVar + "=" + r.cfg.LibraryPath}
}

// refreshMarker extends the running marker's timestamp so a long install
// is not mistaken for a stale run by a second invocation.
func (r *runner) refreshMarker(ctx context.Context) {
	now := time.Now()
	if err := os.Chtimes(MarkerFilename, now, now); err != nil {
		logger.DebugKV(ctx, "Unable to refresh provisioning marker", "error", err)
	}
}

// cleanup removes the running marker.
func (r *runner) cleanup(ctx context.Context) {
	if _, err := os.Stat(MarkerFilename); err == nil {
		_ = os.Remove(MarkerFilename)
	}

	logger.Info(ctx, "The provisioner has been stopped")
}

// logRunActor records who started the run for the audit trail.
func logRunActor(ctx context.Context) {
	hostname, err := os.Hostname()
	if err != nil {
		return
	}

	currentUser, err := user.Current()
	if err != nil {
		return
	}

	logger.InfoKV(ctx, "Provisioning started", "host", hostname, "user", currentUser.Username)
}
