// Package config loads and validates application configuration.
//
// Configuration is layered: built-in defaults, then an optional
// config.yaml, then EFS_-prefixed environment variables. Environment
// variables always win. The package also owns filesystem path
// resolution; every directory the application touches is derived from
// the executable location, never the working directory.
package config
