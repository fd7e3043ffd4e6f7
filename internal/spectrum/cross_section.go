package spectrum

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/temirov/xsec/internal/histogram"
)

const (
	zeroTotalCrossSectionMessageConstant = "total cross section is zero"
	efficiencyCorrectionTemplateConstant = "efficiency correction: %w"
	covarianceShapeTemplateConstant      = "covariance has %dx%d bins, cross section has %d"
	covarianceConversionTemplateConstant = "covariance: %w"
)

// ErrZeroTotalCrossSection indicates that the efficiency-corrected spectrum integrates to zero.
var ErrZeroTotalCrossSection = errors.New(zeroTotalCrossSectionMessageConstant)

// CrossSections are the observables derived from one unfolded spectrum.
type CrossSections struct {
	Unfolded histogram.Histogram
	// EfficiencyCorrected is Unfolded / Efficiency before any bin-width or luminosity scaling.
	EfficiencyCorrected histogram.Histogram
	Absolute            histogram.Histogram
	Relative            histogram.Histogram
	Total               float64
	TotalError          float64
}

// DeriveCrossSections divides by the efficiency, integrates the total cross section, and
// builds the absolute (per bin width and luminosity) and relative (per bin width, unit area)
// differential cross sections.
func DeriveCrossSections(unfolded histogram.Histogram, efficiency histogram.Histogram, luminosity float64) (CrossSections, error) {
	corrected, divideError := unfolded.Divide(efficiency)
	if divideError != nil {
		return CrossSections{}, fmt.Errorf(efficiencyCorrectionTemplateConstant, divideError)
	}
	total, totalError := corrected.IntegralAndError()
	if total == 0 {
		return CrossSections{}, ErrZeroTotalCrossSection
	}
	return CrossSections{
		Unfolded:            unfolded,
		EfficiencyCorrected: corrected,
		Absolute:            corrected.DivideByBinWidth().Scale(1 / luminosity),
		Relative:            corrected.Scale(1 / total).DivideByBinWidth(),
		Total:               total,
		TotalError:          totalError,
	}, nil
}

// CovarianceSet holds the covariances of the absolute and relative cross sections.
type CovarianceSet struct {
	Absolute histogram.Matrix
	Relative histogram.Matrix
}

// PropagateCovariance maps a covariance of the unfolded bins onto the absolute and relative
// cross sections using the linearized transformation. Bins with zero efficiency do not contribute.
func PropagateCovariance(unfoldedCovariance histogram.Matrix, sections CrossSections, efficiency histogram.Histogram, luminosity float64) (CovarianceSet, error) {
	bins := sections.EfficiencyCorrected.Bins()
	if unfoldedCovariance.XBins() != bins || unfoldedCovariance.YBins() != bins {
		return CovarianceSet{}, fmt.Errorf(covarianceShapeTemplateConstant, unfoldedCovariance.XBins(), unfoldedCovariance.YBins(), bins)
	}
	unfoldedSymmetric, symmetricError := unfoldedCovariance.Symmetric()
	if symmetricError != nil {
		return CovarianceSet{}, symmetricError
	}

	efficiencyJacobian := mat.NewDense(bins, bins, nil)
	absoluteJacobian := mat.NewDense(bins, bins, nil)
	relativeJacobian := mat.NewDense(bins, bins, nil)
	for rowIndex := 0; rowIndex < bins; rowIndex++ {
		if efficiency.Content(rowIndex) != 0 {
			efficiencyJacobian.Set(rowIndex, rowIndex, 1/efficiency.Content(rowIndex))
		}
		width := sections.EfficiencyCorrected.Width(rowIndex)
		absoluteJacobian.Set(rowIndex, rowIndex, 1/(width*luminosity))
		correctedContent := sections.EfficiencyCorrected.Content(rowIndex)
		for columnIndex := 0; columnIndex < bins; columnIndex++ {
			derivative := -correctedContent / (sections.Total * sections.Total)
			if rowIndex == columnIndex {
				derivative += 1 / sections.Total
			}
			relativeJacobian.Set(rowIndex, columnIndex, derivative/width)
		}
	}

	var correctedCovariance mat.Dense
	correctedCovariance.Product(efficiencyJacobian, unfoldedSymmetric, efficiencyJacobian.T())

	edges := sections.EfficiencyCorrected.Edges()
	absolute, absoluteError := transformedCovariance(edges, absoluteJacobian, &correctedCovariance)
	if absoluteError != nil {
		return CovarianceSet{}, absoluteError
	}
	relative, relativeError := transformedCovariance(edges, relativeJacobian, &correctedCovariance)
	if relativeError != nil {
		return CovarianceSet{}, relativeError
	}
	return CovarianceSet{Absolute: absolute, Relative: relative}, nil
}

func transformedCovariance(edges []float64, jacobian mat.Matrix, covariance mat.Matrix) (histogram.Matrix, error) {
	var transformed mat.Dense
	transformed.Product(jacobian, covariance, jacobian.T())
	size, _ := transformed.Dims()
	symmetric := mat.NewSymDense(size, nil)
	for rowIndex := 0; rowIndex < size; rowIndex++ {
		for columnIndex := rowIndex; columnIndex < size; columnIndex++ {
			symmetric.SetSym(rowIndex, columnIndex, 0.5*(transformed.At(rowIndex, columnIndex)+transformed.At(columnIndex, rowIndex)))
		}
	}
	matrix, conversionError := histogram.NewSquareMatrix(edges, symmetric)
	if conversionError != nil {
		return histogram.Matrix{}, fmt.Errorf(covarianceConversionTemplateConstant, conversionError)
	}
	return matrix, nil
}

// WithCovarianceErrors replaces the errors of source by the square roots of the covariance diagonal.
func WithCovarianceErrors(source histogram.Histogram, covariance histogram.Matrix) (histogram.Histogram, error) {
	diagonal, diagonalError := covariance.Diagonal()
	if diagonalError != nil {
		return histogram.Histogram{}, diagonalError
	}
	errorValues := diagonal.Contents()
	for binIndex, variance := range errorValues {
		errorValues[binIndex] = math.Sqrt(math.Max(variance, 0))
	}
	return source.WithErrors(errorValues)
}

func (sections CrossSections) withCovarianceErrors(covariance CovarianceSet) (CrossSections, error) {
	absolute, absoluteError := WithCovarianceErrors(sections.Absolute, covariance.Absolute)
	if absoluteError != nil {
		return CrossSections{}, absoluteError
	}
	relative, relativeError := WithCovarianceErrors(sections.Relative, covariance.Relative)
	if relativeError != nil {
		return CrossSections{}, relativeError
	}
	sections.Absolute = absolute
	sections.Relative = relative
	return sections, nil
}
