package toys

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/temirov/xsec/internal/histogram"
)

// DefaultSeed is the seed used when none is configured.
const DefaultSeed uint64 = 4357

const seedStreamConstant uint64 = 0x9e3779b97f4a7c15

// Sampler draws toy replicas of histograms. A Sampler is not safe for concurrent use.
type Sampler struct {
	distribution Distribution
	source       rand.Source
}

// NewSampler creates a reproducible sampler for the distribution.
func NewSampler(distribution Distribution, seed uint64) (*Sampler, error) {
	if _, parseError := ParseDistribution(string(distribution)); parseError != nil {
		return nil, parseError
	}
	return &Sampler{distribution: distribution, source: rand.NewPCG(seed, seedStreamConstant)}, nil
}

// Distribution reports the resampling law.
func (sampler *Sampler) Distribution() Distribution {
	return sampler.distribution
}

// Smear returns a replica with every bin content redrawn. Errors are carried over unchanged.
// Poisson draws for non-positive contents yield zero.
func (sampler *Sampler) Smear(source histogram.Histogram) (histogram.Histogram, error) {
	contents := source.Contents()
	errorValues := source.Errors()
	for binIndex, content := range contents {
		contents[binIndex] = sampler.draw(content, errorValues[binIndex])
	}
	return histogram.New(source.Edges(), contents, errorValues)
}

func (sampler *Sampler) draw(mean float64, sigma float64) float64 {
	switch sampler.distribution {
	case DistributionGauss:
		if sigma <= 0 {
			return mean
		}
		return distuv.Normal{Mu: mean, Sigma: sigma, Src: sampler.source}.Rand()
	default:
		if mean <= 0 {
			return 0
		}
		return distuv.Poisson{Lambda: mean, Src: sampler.source}.Rand()
	}
}
