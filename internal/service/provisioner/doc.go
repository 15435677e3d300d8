// Package provisioner prepares a runtime environment before the
// application starts: it upgrades the package-installer tooling, then
// installs the dependency list declared in the manifest, sequentially,
// aborting on the first failing step. A marker file plus a process-table
// scan keep two provisioning runs from interleaving.
package provisioner
