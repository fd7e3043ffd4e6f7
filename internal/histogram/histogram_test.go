package histogram_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/xsec/internal/histogram"
)

const (
	testToleranceConstant = 1e-12
)

func mustHistogram(testInstance *testing.T, edges []float64, contents []float64, errorValues []float64) histogram.Histogram {
	testInstance.Helper()
	created, creationError := histogram.New(edges, contents, errorValues)
	require.NoError(testInstance, creationError)
	return created
}

func TestNewValidatesBinning(testInstance *testing.T) {
	testCases := []struct {
		name        string
		edges       []float64
		contents    []float64
		errorValues []float64
	}{
		{name: "too_few_edges", edges: []float64{0}, contents: []float64{}},
		{name: "decreasing_edges", edges: []float64{0, 2, 1}, contents: []float64{1, 1}},
		{name: "content_count", edges: []float64{0, 1, 2}, contents: []float64{1}},
		{name: "error_count", edges: []float64{0, 1, 2}, contents: []float64{1, 2}, errorValues: []float64{1}},
		{name: "negative_error", edges: []float64{0, 1}, contents: []float64{1}, errorValues: []float64{-1}},
		{name: "not_finite", edges: []float64{0, 1}, contents: []float64{math.NaN()}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			_, creationError := histogram.New(testCase.edges, testCase.contents, testCase.errorValues)
			require.Error(testInstance, creationError)
		})
	}
}

func TestNewDefaultsToPoissonErrors(testInstance *testing.T) {
	created := mustHistogram(testInstance, []float64{0, 1, 2}, []float64{4, 9}, nil)
	require.Equal(testInstance, []float64{2, 3}, created.Errors())
}

func TestHistogramIsImmutable(testInstance *testing.T) {
	edges := []float64{0, 1, 2}
	contents := []float64{1, 2}
	created := mustHistogram(testInstance, edges, contents, []float64{1, 1})

	contents[0] = 100
	edges[0] = -5
	returnedContents := created.Contents()
	returnedContents[1] = 100

	require.Equal(testInstance, []float64{1, 2}, created.Contents())
	require.Equal(testInstance, []float64{0, 1, 2}, created.Edges())

	_ = created.Scale(10)
	require.Equal(testInstance, []float64{1, 2}, created.Contents())
}

func TestHistogramArithmetic(testInstance *testing.T) {
	edges := []float64{0, 1, 3}
	first := mustHistogram(testInstance, edges, []float64{10, 20}, []float64{3, 4})
	second := mustHistogram(testInstance, edges, []float64{2, 5}, []float64{1, 2})

	testCases := []struct {
		name             string
		operation        func() (histogram.Histogram, error)
		expectedContents []float64
		expectedErrors   []float64
	}{
		{
			name:             "subtract",
			operation:        func() (histogram.Histogram, error) { return first.Add(second, -1) },
			expectedContents: []float64{8, 15},
			expectedErrors:   []float64{math.Sqrt(10), math.Sqrt(20)},
		},
		{
			name:             "multiply",
			operation:        func() (histogram.Histogram, error) { return first.Multiply(second) },
			expectedContents: []float64{20, 100},
			expectedErrors:   []float64{math.Hypot(3*2, 1*10), math.Hypot(4*5, 2*20)},
		},
		{
			name:             "divide",
			operation:        func() (histogram.Histogram, error) { return first.Divide(second) },
			expectedContents: []float64{5, 4},
			expectedErrors:   []float64{math.Sqrt(9*4+1*100) / 4, math.Sqrt(16*25+4*400) / 25},
		},
		{
			name:             "scale",
			operation:        func() (histogram.Histogram, error) { return first.Scale(-0.5), nil },
			expectedContents: []float64{-5, -10},
			expectedErrors:   []float64{1.5, 2},
		},
		{
			name:             "divide_by_bin_width",
			operation:        func() (histogram.Histogram, error) { return first.DivideByBinWidth(), nil },
			expectedContents: []float64{10, 10},
			expectedErrors:   []float64{3, 2},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			result, operationError := testCase.operation()
			require.NoError(testInstance, operationError)
			require.InDeltaSlice(testInstance, testCase.expectedContents, result.Contents(), testToleranceConstant)
			require.InDeltaSlice(testInstance, testCase.expectedErrors, result.Errors(), testToleranceConstant)
		})
	}
}

func TestDivideByZeroDenominatorYieldsZero(testInstance *testing.T) {
	edges := []float64{0, 1, 2}
	numerator := mustHistogram(testInstance, edges, []float64{3, 4}, []float64{1, 1})
	denominator := mustHistogram(testInstance, edges, []float64{0, 2}, []float64{0, 1})

	ratio, divideError := numerator.Divide(denominator)
	require.NoError(testInstance, divideError)
	require.Equal(testInstance, 0.0, ratio.Content(0))
	require.Equal(testInstance, 0.0, ratio.Error(0))
	require.Equal(testInstance, 2.0, ratio.Content(1))
}

func TestArithmeticRejectsBinningMismatch(testInstance *testing.T) {
	first := mustHistogram(testInstance, []float64{0, 1, 2}, []float64{1, 1}, nil)
	second := mustHistogram(testInstance, []float64{0, 1, 2, 3}, []float64{1, 1, 1}, nil)
	shifted := mustHistogram(testInstance, []float64{0, 1.5, 2}, []float64{1, 1}, nil)

	_, addError := first.Add(second, 1)
	require.ErrorIs(testInstance, addError, histogram.ErrBinningMismatch)

	_, multiplyError := first.Multiply(shifted)
	require.ErrorIs(testInstance, multiplyError, histogram.ErrBinningMismatch)
	require.False(testInstance, first.SameBinning(shifted))
}

func TestIntegralAndCollapse(testInstance *testing.T) {
	created := mustHistogram(testInstance, []float64{0, 1, 2, 4}, []float64{1, 2, 3}, []float64{1, 2, 2})

	integral, integralError := created.IntegralAndError()
	require.InDelta(testInstance, 6.0, integral, testToleranceConstant)
	require.InDelta(testInstance, 3.0, integralError, testToleranceConstant)

	collapsed := created.CollapseToSingleBin()
	require.Equal(testInstance, 1, collapsed.Bins())
	require.Equal(testInstance, []float64{0, 1}, collapsed.Edges())
	require.InDelta(testInstance, 6.0, collapsed.Content(0), testToleranceConstant)
	require.InDelta(testInstance, 3.0, collapsed.Error(0), testToleranceConstant)
}

func TestZeroHistogramIsNeutralForSubtraction(testInstance *testing.T) {
	edges := []float64{0, 1, 2}
	data := mustHistogram(testInstance, edges, []float64{7, 9}, nil)
	zero, zeroError := histogram.Zero(edges)
	require.NoError(testInstance, zeroError)

	subtracted, subtractError := data.Add(zero, -1)
	require.NoError(testInstance, subtractError)
	require.Equal(testInstance, data.Contents(), subtracted.Contents())
	require.InDeltaSlice(testInstance, data.Errors(), subtracted.Errors(), testToleranceConstant)
}
