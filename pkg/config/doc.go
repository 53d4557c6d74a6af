// Package config defines the configuration structure for Callisto tooling
// and provides loading, defaulting, validation, and live-reload support.
//
// Configuration is loaded from a YAML file, defaults are applied to zero
// values, and the result is validated before use. Environment variables
// with the CALLISTO_ prefix override file values. A file watcher can
// trigger limit policy reloads when the configuration file changes.
package config
