// Package utils exposes reusable helpers consumed by the xsec commands.
//
// It houses ConfigurationLoader and LoggerFactory abstractions that integrate
// Viper, environment variables, and zap logging for the CLI, plus the
// CommandContextAccessor that carries the run identifier between commands.
package utils
