package cli

import (
	"bytes"
	_ "embed"
)

// defaultConfigurationDocument holds logging defaults, backend driver executables, and the toy seed.
//
//go:embed default_config.yaml
var defaultConfigurationDocument []byte

// EmbeddedDefaultConfiguration returns a copy of the built-in application configuration and its format.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return bytes.Clone(defaultConfigurationDocument), configurationTypeConstant
}
