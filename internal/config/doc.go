// Package config provides configuration structures and utilities for kumo.
// It defines the crawl options assembled from CLI flags, per-host overrides
// loaded from the .kumo.yaml file, and report generation preferences.
package config
