// Package config provides configuration management for streetgrab.
//
// This package handles:
//   - Default configuration values
//   - Loading overrides from a config file (YAML, JSON or TOML)
//   - Environment overrides, including the MAPILLARY_TOKEN credential
//   - Command-line flags bound on top
//
// # Default Settings
//
//	settings := config.DefaultSettings()
//	// 25 m radius, ./panos, 4 workers
//
// # Loading
//
//	settings, err := config.Load("streetgrab.yaml", flags)
//	if err != nil {
//	    return err
//	}
//	if err := settings.Validate(); err != nil {
//	    // ErrMissingToken when MAPILLARY_TOKEN is unset
//	}
//
// Every option can also be set as STREETGRAB_<NAME>, with dashes in the
// option name replaced by underscores (STREETGRAB_RETRY_COOLDOWN=500ms).
package config
