package config

import (
	"fmt"
	"strings"

	"github.com/temirov/xsec/internal/toys"
	"github.com/temirov/xsec/internal/unfolding"
)

const (
	statisticalErrorSeparatorConstant    = ":"
	sourceSeparatorConstant              = ":"
	statisticalErrorNoneConstant         = "none"
	statisticalErrorAnalyticalConstant   = "analytical"
	statisticalErrorToysConstant         = "toys"
	statisticalErrorTemplateConstant     = "%w: %q"
	statisticalErrorToysTemplateConstant = "%w: %q: %v"
	// MonteCarloStatisticsSystematic is the systematic whose toys default to Gaussian smearing.
	MonteCarloStatisticsSystematic = "MCstat"
	// DefaultToys is the toy count used when ntoys is not configured.
	DefaultToys = 10000
	// DefaultRegularization requests the method default.
	DefaultRegularization = -1
)

// HistogramSource locates a histogram inside a ROOT file.
type HistogramSource struct {
	File string
	Path string
}

// IsEmpty reports whether either the file or the object path is blank.
func (source HistogramSource) IsEmpty() bool {
	return len(source.File) == 0 || len(source.Path) == 0
}

// String renders the source as file:path.
func (source HistogramSource) String() string {
	return source.File + sourceSeparatorConstant + source.Path
}

// UncertaintyMode selects how statistical uncertainties of the result are obtained.
type UncertaintyMode string

// Supported uncertainty modes.
const (
	UncertaintyNone       UncertaintyMode = statisticalErrorNoneConstant
	UncertaintyAnalytical UncertaintyMode = statisticalErrorAnalyticalConstant
	UncertaintyToys       UncertaintyMode = statisticalErrorToysConstant
)

// Uncertainty is the parsed statErr setting.
type Uncertainty struct {
	Mode UncertaintyMode
	// Distribution is set for UncertaintyToys only.
	Distribution toys.Distribution
	// Toys is the number of replicas; zero when Mode is UncertaintyNone.
	Toys int
}

// Configuration is the immutable description of one unfolding run.
type Configuration struct {
	Data       HistogramSource
	Signal     HistogramSource
	Background HistogramSource
	Response   HistogramSource
	Generated  HistogramSource

	Luminosity     float64
	BranchingRatio float64
	RecoScale      float64

	TotalCrossSection    bool
	EfficiencyCorrection bool
	TransposeResponse    bool

	Method unfolding.Method
	// Regularization is the configured value; negative selects the method default.
	Regularization   int
	StatisticalError string
	Toys             int
	Uncertainty      Uncertainty

	Particle   string
	Variable   string
	Systematic string
}

// SubtractsBackground reports whether a background histogram is configured.
func (configuration Configuration) SubtractsBackground() bool {
	return !configuration.Background.IsEmpty()
}

// ParseStatisticalError interprets a statErr value. Plain "toys" smears with Poisson,
// or Gauss when the systematic is MCstat.
func ParseStatisticalError(rawValue string, systematic string, toyCount int) (Uncertainty, error) {
	trimmedValue := strings.TrimSpace(rawValue)
	if len(trimmedValue) == 0 {
		trimmedValue = statisticalErrorNoneConstant
	}
	mode, distributionName, hasDistribution := strings.Cut(trimmedValue, statisticalErrorSeparatorConstant)

	switch UncertaintyMode(mode) {
	case UncertaintyNone:
		if hasDistribution {
			return Uncertainty{}, fmt.Errorf(statisticalErrorTemplateConstant, ErrInvalidStatisticalError, rawValue)
		}
		return Uncertainty{Mode: UncertaintyNone}, nil
	case UncertaintyAnalytical:
		if hasDistribution {
			return Uncertainty{}, fmt.Errorf(statisticalErrorTemplateConstant, ErrInvalidStatisticalError, rawValue)
		}
		return Uncertainty{Mode: UncertaintyAnalytical, Toys: toyCount}, nil
	case UncertaintyToys:
		distribution := toys.DistributionPoisson
		if systematic == MonteCarloStatisticsSystematic {
			distribution = toys.DistributionGauss
		}
		if hasDistribution {
			parsedDistribution, parseError := toys.ParseDistribution(distributionName)
			if parseError != nil {
				return Uncertainty{}, fmt.Errorf(statisticalErrorToysTemplateConstant, ErrInvalidStatisticalError, rawValue, parseError)
			}
			distribution = parsedDistribution
		}
		return Uncertainty{Mode: UncertaintyToys, Distribution: distribution, Toys: toyCount}, nil
	default:
		return Uncertainty{}, fmt.Errorf(statisticalErrorTemplateConstant, ErrInvalidStatisticalError, rawValue)
	}
}
