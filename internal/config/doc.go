// Package config handles configuration loading, parsing, and validation
// from environment variables (CRM_ prefix) and an optional config.yaml.
// It provides type-safe access to the settings of the admission
// controller, the task runner, report generation, and the log and
// statistics sinks.
package config
