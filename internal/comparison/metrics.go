package comparison

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/mat"

	"github.com/temirov/xsec/internal/histogram"
)

const (
	singularCovarianceMessageConstant  = "covariance matrix is not invertible"
	tooFewBinsMessageConstant          = "at least two bins are required"
	covarianceShapeTemplateConstant    = "covariance has %dx%d bins, spectrum has %d: %w"
	singularCovarianceTemplateConstant = "%w: %v"
	tooFewBinsTemplateConstant         = "%w: got %d"
	binningMismatchTemplateConstant    = "%w: %d bins vs %d bins"
	minimumDegreesBinsConstant         = 2
	emptyBinPaddingConstant            = 1.0
	triangularScaleConstant            = 1e3
)

var (
	// ErrSingularCovariance indicates that the covariance could not be inverted.
	ErrSingularCovariance = errors.New(singularCovarianceMessageConstant)
	// ErrTooFewBins indicates a spectrum too short for the requested statistic.
	ErrTooFewBins = errors.New(tooFewBinsMessageConstant)
)

// Chi2WithCovariance returns r^T C^-1 r for the residual r = observed - expected.
func Chi2WithCovariance(observed histogram.Histogram, expected histogram.Histogram, covariance histogram.Matrix) (float64, error) {
	residuals, residualError := observed.Add(expected, -1)
	if residualError != nil {
		return 0, residualError
	}
	bins := residuals.Bins()
	if covariance.XBins() != bins || covariance.YBins() != bins {
		return 0, fmt.Errorf(covarianceShapeTemplateConstant, covariance.XBins(), covariance.YBins(), bins, histogram.ErrBinningMismatch)
	}

	var inverse mat.Dense
	if inverseError := inverse.Inverse(covariance.Dense()); inverseError != nil {
		return 0, fmt.Errorf(singularCovarianceTemplateConstant, ErrSingularCovariance, inverseError)
	}
	residualVector := mat.NewVecDense(bins, residuals.Contents())
	return mat.Inner(residualVector, &inverse, residualVector), nil
}

// Chi2PerDegreeOfFreedom compares unfolded against truth rescaled to the unfolded integral,
// ignoring uncertainties. Bins where truth is empty are padded by one in both spectra.
func Chi2PerDegreeOfFreedom(unfolded histogram.Histogram, truth histogram.Histogram) (float64, error) {
	if !unfolded.SameBinning(truth) {
		return 0, fmt.Errorf(binningMismatchTemplateConstant, histogram.ErrBinningMismatch, unfolded.Bins(), truth.Bins())
	}
	bins := unfolded.Bins()
	if bins < minimumDegreesBinsConstant {
		return 0, fmt.Errorf(tooFewBinsTemplateConstant, ErrTooFewBins, bins)
	}

	observed := unfolded.Contents()
	reference := truth.Contents()
	for binIndex := range reference {
		if reference[binIndex] == 0 {
			reference[binIndex] += emptyBinPaddingConstant
			observed[binIndex] += emptyBinPaddingConstant
		}
	}
	floats.Scale(floats.Sum(observed)/floats.Sum(reference), reference)

	chi2 := 0.0
	for binIndex := range observed {
		if reference[binIndex] == 0 {
			continue
		}
		difference := observed[binIndex] - reference[binIndex]
		chi2 += difference * difference / reference[binIndex]
	}
	return chi2 / float64(bins-1), nil
}

// TriangularDiscriminator integrates (p-q)^2/(p+q) over the bin index with the trapezoidal
// rule and reports half of it in units of 1e-3. Bins with p+q = 0 contribute zero.
func TriangularDiscriminator(observed histogram.Histogram, expected histogram.Histogram) (float64, error) {
	if !observed.SameBinning(expected) {
		return 0, fmt.Errorf(binningMismatchTemplateConstant, histogram.ErrBinningMismatch, observed.Bins(), expected.Bins())
	}
	bins := observed.Bins()
	if bins < minimumDegreesBinsConstant {
		return 0, nil
	}

	positions := make([]float64, bins)
	terms := make([]float64, bins)
	for binIndex := range terms {
		positions[binIndex] = float64(binIndex)
		sum := observed.Content(binIndex) + expected.Content(binIndex)
		if sum == 0 {
			continue
		}
		difference := observed.Content(binIndex) - expected.Content(binIndex)
		terms[binIndex] = difference * difference / sum
	}
	return 0.5 * integrate.Trapezoidal(positions, terms) * triangularScaleConstant, nil
}
