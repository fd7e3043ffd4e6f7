package toys

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/temirov/xsec/internal/histogram"
)

const (
	minimumSamplesConstant              = 2
	insufficientSamplesMessageConstant  = "not enough toys to estimate a covariance"
	insufficientSamplesTemplateConstant = "%w: %d collected, %d required"
	sampleBinningTemplateConstant       = "toy sample binning: %w"
)

// ErrInsufficientSamples indicates that fewer than two toys were accumulated.
var ErrInsufficientSamples = errors.New(insufficientSamplesMessageConstant)

// Accumulator collects toy replicas of one observable and estimates their covariance.
type Accumulator struct {
	reference histogram.Histogram
	samples   []float64
	count     int
}

// NewAccumulator prepares an accumulator for replicas binned like reference.
func NewAccumulator(reference histogram.Histogram, expectedSamples int) *Accumulator {
	if expectedSamples < 0 {
		expectedSamples = 0
	}
	return &Accumulator{reference: reference, samples: make([]float64, 0, expectedSamples*reference.Bins())}
}

// Add records one replica.
func (accumulator *Accumulator) Add(sample histogram.Histogram) error {
	if !accumulator.reference.SameBinning(sample) {
		return fmt.Errorf(sampleBinningTemplateConstant, histogram.ErrBinningMismatch)
	}
	accumulator.samples = append(accumulator.samples, sample.Contents()...)
	accumulator.count++
	return nil
}

// Count reports the number of recorded replicas.
func (accumulator *Accumulator) Count() int {
	return accumulator.count
}

// Mean returns the per-bin sample mean.
func (accumulator *Accumulator) Mean() []float64 {
	bins := accumulator.reference.Bins()
	means := make([]float64, bins)
	if accumulator.count == 0 {
		return means
	}
	observations := mat.NewDense(accumulator.count, bins, accumulator.samples)
	for binIndex := range means {
		means[binIndex] = stat.Mean(mat.Col(nil, binIndex, observations), nil)
	}
	return means
}

// Covariance returns the unbiased sample covariance of the recorded replicas on the reference binning.
func (accumulator *Accumulator) Covariance() (histogram.Matrix, error) {
	if accumulator.count < minimumSamplesConstant {
		return histogram.Matrix{}, fmt.Errorf(insufficientSamplesTemplateConstant, ErrInsufficientSamples, accumulator.count, minimumSamplesConstant)
	}
	bins := accumulator.reference.Bins()
	observations := mat.NewDense(accumulator.count, bins, accumulator.samples)
	var covariance mat.SymDense
	stat.CovarianceMatrix(&covariance, observations, nil)
	return histogram.NewSquareMatrix(accumulator.reference.Edges(), &covariance)
}
