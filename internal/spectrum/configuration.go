package spectrum

import (
	"strings"

	"github.com/temirov/xsec/internal/toys"
	"github.com/temirov/xsec/internal/unfolding"
)

// CommandConfiguration captures the application settings consumed by the run command.
type CommandConfiguration struct {
	Backends map[string]unfolding.DriverConfiguration `mapstructure:"backends"`
	Toys     ToyConfiguration                         `mapstructure:"toys"`
}

// ToyConfiguration configures statistical resampling.
type ToyConfiguration struct {
	Seed uint64 `mapstructure:"seed"`
}

// DefaultCommandConfiguration returns baseline configuration values for the run command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Backends: map[string]unfolding.DriverConfiguration{},
		Toys:     ToyConfiguration{Seed: toys.DefaultSeed},
	}
}

// driverConfigurations keys the configured backends by family, ignoring entries without an executable.
func (configuration CommandConfiguration) driverConfigurations() map[unfolding.Family]unfolding.DriverConfiguration {
	drivers := make(map[unfolding.Family]unfolding.DriverConfiguration, len(configuration.Backends))
	for familyName, driver := range configuration.Backends {
		if len(strings.TrimSpace(driver.Executable)) == 0 {
			continue
		}
		family := unfolding.Family(strings.ToLower(strings.TrimSpace(familyName)))
		drivers[family] = driver
	}
	return drivers
}
