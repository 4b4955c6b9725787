// Package config provides configuration loading, defaulting, and validation
// for Ferry.
//
// Configuration is layered: YAML file values, then defaults for unset
// fields, then FERRY_* environment variable overrides, then validation.
// Routing bounds (health-check interval, ban duration, speed window, sample
// minimum) are clamped rather than rejected.
//
// The Watcher supports zero-downtime reconfiguration by re-parsing the file
// on change and handing the result to the caller, which decides whether to
// swap the running endpoint set.
package config
