package comparison_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/temirov/xsec/internal/comparison"
	"github.com/temirov/xsec/internal/histogram"
)

const testToleranceConstant = 1e-9

func mustHistogram(testInstance *testing.T, edges []float64, contents []float64) histogram.Histogram {
	testInstance.Helper()
	created, creationError := histogram.New(edges, contents, nil)
	require.NoError(testInstance, creationError)
	return created
}

func mustCovariance(testInstance *testing.T, edges []float64, values []float64) histogram.Matrix {
	testInstance.Helper()
	size := len(edges) - 1
	covariance, covarianceError := histogram.NewSquareMatrix(edges, mat.NewSymDense(size, values))
	require.NoError(testInstance, covarianceError)
	return covariance
}

func TestChi2WithCovariance(testInstance *testing.T) {
	edges := []float64{0, 1, 2}
	testCases := []struct {
		name       string
		observed   []float64
		expected   []float64
		covariance []float64
		chi2       float64
	}{
		{name: "diagonal", observed: []float64{3, 5}, expected: []float64{1, 2}, covariance: []float64{4, 0, 0, 9}, chi2: 2},
		{name: "correlated", observed: []float64{2, 3}, expected: []float64{1, 2}, covariance: []float64{2, 1, 1, 2}, chi2: 2.0 / 3.0},
		{name: "identical", observed: []float64{2, 3}, expected: []float64{2, 3}, covariance: []float64{1, 0, 0, 1}, chi2: 0},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			chi2, chi2Error := comparison.Chi2WithCovariance(
				mustHistogram(testInstance, edges, testCase.observed),
				mustHistogram(testInstance, edges, testCase.expected),
				mustCovariance(testInstance, edges, testCase.covariance),
			)
			require.NoError(testInstance, chi2Error)
			require.InDelta(testInstance, testCase.chi2, chi2, testToleranceConstant)
		})
	}
}

func TestChi2WithCovarianceFailures(testInstance *testing.T) {
	edges := []float64{0, 1, 2}
	observed := mustHistogram(testInstance, edges, []float64{2, 3})
	expected := mustHistogram(testInstance, edges, []float64{1, 1})

	_, singularError := comparison.Chi2WithCovariance(observed, expected, mustCovariance(testInstance, edges, []float64{1, 1, 1, 1}))
	require.ErrorIs(testInstance, singularError, comparison.ErrSingularCovariance)

	_, shapeError := comparison.Chi2WithCovariance(observed, expected, mustCovariance(testInstance, []float64{0, 1}, []float64{1}))
	require.ErrorIs(testInstance, shapeError, histogram.ErrBinningMismatch)
}

func TestChi2PerDegreeOfFreedom(testInstance *testing.T) {
	testCases := []struct {
		name     string
		edges    []float64
		unfolded []float64
		truth    []float64
		expected float64
	}{
		{name: "proportional", edges: []float64{0, 1, 2, 3}, unfolded: []float64{10, 20, 30}, truth: []float64{20, 40, 60}, expected: 0},
		{name: "shifted", edges: []float64{0, 1, 2}, unfolded: []float64{12, 8}, truth: []float64{10, 10}, expected: 0.8},
		{name: "empty_truth_bin_padded", edges: []float64{0, 1, 2, 3}, unfolded: []float64{5, 0, 5}, truth: []float64{5, 0, 5}, expected: 0},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			chi2, chi2Error := comparison.Chi2PerDegreeOfFreedom(
				mustHistogram(testInstance, testCase.edges, testCase.unfolded),
				mustHistogram(testInstance, testCase.edges, testCase.truth),
			)
			require.NoError(testInstance, chi2Error)
			require.InDelta(testInstance, testCase.expected, chi2, testToleranceConstant)
		})
	}
}

func TestChi2PerDegreeOfFreedomRejectsSingleBin(testInstance *testing.T) {
	single := mustHistogram(testInstance, []float64{0, 1}, []float64{3})
	_, chi2Error := comparison.Chi2PerDegreeOfFreedom(single, single)
	require.ErrorIs(testInstance, chi2Error, comparison.ErrTooFewBins)
}

func TestTriangularDiscriminator(testInstance *testing.T) {
	edges := []float64{0, 1, 2, 3}
	observed := mustHistogram(testInstance, edges, []float64{1, 3, 2})
	expected := mustHistogram(testInstance, edges, []float64{1, 1, 2})

	discriminator, discriminatorError := comparison.TriangularDiscriminator(observed, expected)
	require.NoError(testInstance, discriminatorError)
	require.InDelta(testInstance, 500.0, discriminator, testToleranceConstant)

	zero, zeroError := comparison.TriangularDiscriminator(
		mustHistogram(testInstance, edges, []float64{0, 0, 0}),
		mustHistogram(testInstance, edges, []float64{0, 0, 0}),
	)
	require.NoError(testInstance, zeroError)
	require.Zero(testInstance, zero)

	_, mismatchError := comparison.TriangularDiscriminator(observed, mustHistogram(testInstance, []float64{0, 1}, []float64{1}))
	require.ErrorIs(testInstance, mismatchError, histogram.ErrBinningMismatch)
}
