// Package page persists page snapshots as JSON files on disk.
package page
