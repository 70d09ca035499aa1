// Package config handles configuration loading for labeldesk.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from LABELDESK_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/labeldesk/config.yaml
//  3. ~/.config/labeldesk/config.yaml
//
// Files ending in .toml are decoded as TOML; anything else is YAML.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${LABELDESK_JWT_SECRET}"
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	auth:
//	  session_duration: "168h"
//	admin:
//	  session_poll_interval: "30s"
//
// Empty durations fall back to DefaultSessionDuration and
// DefaultSessionPollInterval.
package config
