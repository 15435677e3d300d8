// Package config loads, validates and persists the YAML settings file
// shared by the sitekeeper binaries. Missing optional fields receive
// defaults during validation, so callers can rely on a fully populated
// Config after Load.
package config
