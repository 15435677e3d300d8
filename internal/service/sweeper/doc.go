// Package sweeper removes transient alert banners without user
// interaction: once a page snapshot is loaded, every alert's dismiss
// control is activated automatically after a fixed delay. Alerts without
// a dismiss control are skipped; alerts added after the snapshot are
// never touched.
package sweeper
