package histogram

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

const (
	minimumEdgeCountConstant             = 2
	singleBinLowEdgeConstant             = 0.0
	singleBinHighEdgeConstant            = 1.0
	edgeCountTemplateConstant            = "histogram needs at least %d edges, got %d"
	edgeOrderTemplateConstant            = "histogram edges must increase strictly (edge %d: %g <= %g)"
	valueCountTemplateConstant           = "histogram with %d bins received %d %s"
	binningMismatchTemplateConstant      = "%w: %d bins vs %d bins"
	contentsLabelConstant                = "contents"
	errorsLabelConstant                  = "errors"
	binningMismatchMessageConstant       = "incompatible binning"
	binningEdgeMismatchRelativeTolerance = 1e-9
	binningEdgeMismatchTemplateConstant  = "%w: edge %d differs (%g vs %g)"
	negativeErrorTemplateConstant        = "histogram error of bin %d is negative (%g)"
	nonFiniteValueTemplateConstant       = "histogram %s of bin %d is not finite"
)

// ErrBinningMismatch is returned by arithmetic between histograms of different binning.
var ErrBinningMismatch = errors.New(binningMismatchMessageConstant)

// Histogram is an immutable binned distribution: bin edges, contents, and per-bin errors.
// Under- and overflow are not represented.
type Histogram struct {
	edges    []float64
	contents []float64
	errors   []float64
}

// New validates and copies the provided bin description.
// A nil errors slice means Poisson-like errors, sqrt(|content|), as ROOT assumes for unweighted fills.
func New(edges []float64, contents []float64, errorValues []float64) (Histogram, error) {
	if validationError := validateEdges(edges); validationError != nil {
		return Histogram{}, validationError
	}
	binCount := len(edges) - 1
	if len(contents) != binCount {
		return Histogram{}, fmt.Errorf(valueCountTemplateConstant, binCount, len(contents), contentsLabelConstant)
	}
	if errorValues == nil {
		errorValues = make([]float64, binCount)
		for binIndex, content := range contents {
			errorValues[binIndex] = math.Sqrt(math.Abs(content))
		}
	}
	if len(errorValues) != binCount {
		return Histogram{}, fmt.Errorf(valueCountTemplateConstant, binCount, len(errorValues), errorsLabelConstant)
	}
	for binIndex := range contents {
		if math.IsNaN(contents[binIndex]) || math.IsInf(contents[binIndex], 0) {
			return Histogram{}, fmt.Errorf(nonFiniteValueTemplateConstant, contentsLabelConstant, binIndex)
		}
		if math.IsNaN(errorValues[binIndex]) || math.IsInf(errorValues[binIndex], 0) {
			return Histogram{}, fmt.Errorf(nonFiniteValueTemplateConstant, errorsLabelConstant, binIndex)
		}
		if errorValues[binIndex] < 0 {
			return Histogram{}, fmt.Errorf(negativeErrorTemplateConstant, binIndex, errorValues[binIndex])
		}
	}

	return Histogram{
		edges:    append([]float64(nil), edges...),
		contents: append([]float64(nil), contents...),
		errors:   append([]float64(nil), errorValues...),
	}, nil
}

// Zero returns an empty histogram on the given binning.
func Zero(edges []float64) (Histogram, error) {
	if validationError := validateEdges(edges); validationError != nil {
		return Histogram{}, validationError
	}
	binCount := len(edges) - 1
	return Histogram{
		edges:    append([]float64(nil), edges...),
		contents: make([]float64, binCount),
		errors:   make([]float64, binCount),
	}, nil
}

// Bins reports the number of bins.
func (histogram Histogram) Bins() int {
	return len(histogram.contents)
}

// Edges returns a copy of the bin edges.
func (histogram Histogram) Edges() []float64 {
	return append([]float64(nil), histogram.edges...)
}

// Contents returns a copy of the bin contents.
func (histogram Histogram) Contents() []float64 {
	return append([]float64(nil), histogram.contents...)
}

// Errors returns a copy of the bin errors.
func (histogram Histogram) Errors() []float64 {
	return append([]float64(nil), histogram.errors...)
}

// Content returns the content of bin binIndex (zero based).
func (histogram Histogram) Content(binIndex int) float64 {
	return histogram.contents[binIndex]
}

// Error returns the error of bin binIndex (zero based).
func (histogram Histogram) Error(binIndex int) float64 {
	return histogram.errors[binIndex]
}

// Width returns the width of bin binIndex.
func (histogram Histogram) Width(binIndex int) float64 {
	return histogram.edges[binIndex+1] - histogram.edges[binIndex]
}

// Center returns the midpoint of bin binIndex.
func (histogram Histogram) Center(binIndex int) float64 {
	return 0.5 * (histogram.edges[binIndex] + histogram.edges[binIndex+1])
}

// IsZero reports whether the histogram has no binning.
func (histogram Histogram) IsZero() bool {
	return len(histogram.edges) == 0
}

// SameBinning reports whether both histograms share the same bin edges.
func (histogram Histogram) SameBinning(other Histogram) bool {
	return compareEdges(histogram.edges, other.edges) == nil
}

// Scale multiplies contents by factor and errors by |factor|.
func (histogram Histogram) Scale(factor float64) Histogram {
	scaled := histogram.clone()
	floats.Scale(factor, scaled.contents)
	floats.Scale(math.Abs(factor), scaled.errors)
	return scaled
}

// WithErrors returns a copy carrying the supplied errors.
func (histogram Histogram) WithErrors(errorValues []float64) (Histogram, error) {
	return New(histogram.edges, histogram.contents, errorValues)
}

// Add returns histogram + factor*other with errors added in quadrature.
func (histogram Histogram) Add(other Histogram, factor float64) (Histogram, error) {
	if mismatchError := histogram.requireSameBinning(other); mismatchError != nil {
		return Histogram{}, mismatchError
	}
	sum := histogram.clone()
	floats.AddScaled(sum.contents, factor, other.contents)
	for binIndex := range sum.errors {
		sum.errors[binIndex] = math.Hypot(histogram.errors[binIndex], factor*other.errors[binIndex])
	}
	return sum, nil
}

// Multiply returns the bin-by-bin product with uncorrelated error propagation.
func (histogram Histogram) Multiply(other Histogram) (Histogram, error) {
	if mismatchError := histogram.requireSameBinning(other); mismatchError != nil {
		return Histogram{}, mismatchError
	}
	product := histogram.clone()
	floats.Mul(product.contents, other.contents)
	for binIndex := range product.errors {
		product.errors[binIndex] = math.Hypot(histogram.errors[binIndex]*other.contents[binIndex], other.errors[binIndex]*histogram.contents[binIndex])
	}
	return product, nil
}

// Divide returns the bin-by-bin ratio with uncorrelated error propagation.
// Bins with a zero denominator yield zero content and zero error.
func (histogram Histogram) Divide(other Histogram) (Histogram, error) {
	if mismatchError := histogram.requireSameBinning(other); mismatchError != nil {
		return Histogram{}, mismatchError
	}
	ratio := histogram.clone()
	for binIndex := range ratio.contents {
		numerator := histogram.contents[binIndex]
		denominator := other.contents[binIndex]
		if denominator == 0 {
			ratio.contents[binIndex] = 0
			ratio.errors[binIndex] = 0
			continue
		}
		squaredDenominator := denominator * denominator
		numeratorError := histogram.errors[binIndex]
		denominatorError := other.errors[binIndex]
		ratio.contents[binIndex] = numerator / denominator
		ratio.errors[binIndex] = math.Sqrt(numeratorError*numeratorError*squaredDenominator+denominatorError*denominatorError*numerator*numerator) / squaredDenominator
	}
	return ratio, nil
}

// DivideByBinWidth divides contents and errors by the width of their bins.
func (histogram Histogram) DivideByBinWidth() Histogram {
	divided := histogram.clone()
	for binIndex := range divided.contents {
		width := histogram.Width(binIndex)
		divided.contents[binIndex] /= width
		divided.errors[binIndex] /= width
	}
	return divided
}

// Integral sums all bin contents.
func (histogram Histogram) Integral() float64 {
	return floats.Sum(histogram.contents)
}

// IntegralAndError sums all bin contents and adds their errors in quadrature.
func (histogram Histogram) IntegralAndError() (float64, float64) {
	return floats.Sum(histogram.contents), floats.Norm(histogram.errors, 2)
}

// CollapseToSingleBin integrates the histogram into one bin spanning [0, 1].
func (histogram Histogram) CollapseToSingleBin() Histogram {
	integral, integralError := histogram.IntegralAndError()
	return Histogram{
		edges:    []float64{singleBinLowEdgeConstant, singleBinHighEdgeConstant},
		contents: []float64{integral},
		errors:   []float64{integralError},
	}
}

func (histogram Histogram) clone() Histogram {
	return Histogram{
		edges:    append([]float64(nil), histogram.edges...),
		contents: append([]float64(nil), histogram.contents...),
		errors:   append([]float64(nil), histogram.errors...),
	}
}

func (histogram Histogram) requireSameBinning(other Histogram) error {
	return compareEdges(histogram.edges, other.edges)
}

func validateEdges(edges []float64) error {
	if len(edges) < minimumEdgeCountConstant {
		return fmt.Errorf(edgeCountTemplateConstant, minimumEdgeCountConstant, len(edges))
	}
	for edgeIndex := 1; edgeIndex < len(edges); edgeIndex++ {
		if !(edges[edgeIndex] > edges[edgeIndex-1]) {
			return fmt.Errorf(edgeOrderTemplateConstant, edgeIndex, edges[edgeIndex], edges[edgeIndex-1])
		}
	}
	return nil
}

func compareEdges(first []float64, second []float64) error {
	if len(first) != len(second) {
		return fmt.Errorf(binningMismatchTemplateConstant, ErrBinningMismatch, len(first)-1, len(second)-1)
	}
	for edgeIndex := range first {
		if !scalar.EqualWithinRel(first[edgeIndex], second[edgeIndex], binningEdgeMismatchRelativeTolerance) && !scalar.EqualWithinAbs(first[edgeIndex], second[edgeIndex], binningEdgeMismatchRelativeTolerance) {
			return fmt.Errorf(binningEdgeMismatchTemplateConstant, ErrBinningMismatch, edgeIndex, first[edgeIndex], second[edgeIndex])
		}
	}
	return nil
}
