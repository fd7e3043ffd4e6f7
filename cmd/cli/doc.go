// Package cli constructs the xsec command-line interface. It wires the Cobra
// command hierarchy (run, compare, inspect) to the Viper configuration loader
// and the zap logger factory, and exposes Execute for the main package.
package cli
