package toys

import (
	"errors"
	"fmt"
	"strings"
)

const (
	unknownDistributionMessageConstant  = "unknown toy distribution"
	unknownDistributionTemplateConstant = "%w %q (supported: %s)"
	distributionSeparatorConstant       = ", "
)

// Distribution names the resampling law applied to every bin of a toy.
type Distribution string

// Supported distributions.
const (
	// DistributionPoisson draws each bin from a Poisson law with the bin content as mean.
	DistributionPoisson Distribution = "Poisson"
	// DistributionGauss draws each bin from a normal law with the bin content and error.
	DistributionGauss Distribution = "Gauss"
)

// ErrUnknownDistribution reports an unsupported toy distribution name.
var ErrUnknownDistribution = errors.New(unknownDistributionMessageConstant)

// SupportedDistributions lists the accepted distribution names.
func SupportedDistributions() []string {
	return []string{string(DistributionPoisson), string(DistributionGauss)}
}

// ParseDistribution resolves a distribution name. Matching is exact.
func ParseDistribution(rawDistribution string) (Distribution, error) {
	switch Distribution(strings.TrimSpace(rawDistribution)) {
	case DistributionPoisson:
		return DistributionPoisson, nil
	case DistributionGauss:
		return DistributionGauss, nil
	default:
		return "", fmt.Errorf(unknownDistributionTemplateConstant, ErrUnknownDistribution, rawDistribution, strings.Join(SupportedDistributions(), distributionSeparatorConstant))
	}
}
