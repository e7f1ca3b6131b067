// Package config holds all configuration for politewalk.
//
// Configuration flows in one direction: CLI flags and an optional YAML file
// are merged into a single Config value at startup, validated once, and then
// passed into each component at construction. No component reads global
// state, which keeps units testable with deterministic settings (for
// example MinDelay = MaxDelay = 0 in tests).
//
// The optional configuration file (.politewalk in the current or home
// directory) carries defaults plus per-host overrides for selectors,
// headers, and pacing. See the File and SiteConfig types.
package config
