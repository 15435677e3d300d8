package provisioner

import (
	"crypto/sha512"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestLoadManifest verifies parsing and validation of dependency manifests.
func TestLoadManifest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.yaml")

	contents := []byte(`installer: pip3
upgrade:
  args: ["install", "--upgrade", "pip"]
packages:
  - flask==3.0.0
  - flask-sqlalchemy
`)
	require.NoError(t, os.WriteFile(path, contents, 0o600))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	require.Equal(t, "pip3", m.Installer)
	require.Equal(t, []string{"install", "--upgrade", "pip"}, m.Upgrade.Args)
	require.Equal(t, []string{"flask==3.0.0", "flask-sqlalchemy"}, m.Packages)

	// Missing file.
	_, err = LoadManifest(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

// TestManifest_Validate rejects manifests without an installer or with blank specs.
func TestManifest_Validate(t *testing.T) {
	t.Parallel()

	m := &Manifest{Packages: []string{"flask"}}
	require.Error(t, m.Validate())

	m = &Manifest{Installer: "pip3", Packages: []string{"flask", ""}}
	require.Error(t, m.Validate())

	m = &Manifest{Installer: "pip3"}
	require.NoError(t, m.Validate())
}

// TestGetFileChecksum compares the helper against a direct SHA512 sum.
func TestGetFileChecksum(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "artifact.bin")
	body := []byte("tooling-artifact-contents")
	require.NoError(t, os.WriteFile(path, body, 0o600))

	want := sha512.Sum512(body)

	got, err := GetFileChecksum(path)
	require.NoError(t, err)
	require.Equal(t, want[:], got)
}
