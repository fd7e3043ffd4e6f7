package histogram

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	matrixValueCountTemplateConstant = "matrix with %dx%d bins received %d %s"
	matrixNotSquareTemplateConstant  = "matrix is not square: %dx%d bins"
)

// Matrix is an immutable two-dimensional binned distribution.
// For response matrices X is the reconstructed level and Y the particle level.
type Matrix struct {
	xEdges   []float64
	yEdges   []float64
	contents []float64
	errors   []float64
}

// NewMatrix validates and copies a 2-D bin description. Values are indexed as [iy*nx + ix].
// A nil errors slice yields sqrt(|content|) errors.
func NewMatrix(xEdges []float64, yEdges []float64, contents []float64, errorValues []float64) (Matrix, error) {
	if validationError := validateEdges(xEdges); validationError != nil {
		return Matrix{}, validationError
	}
	if validationError := validateEdges(yEdges); validationError != nil {
		return Matrix{}, validationError
	}
	xBins := len(xEdges) - 1
	yBins := len(yEdges) - 1
	if len(contents) != xBins*yBins {
		return Matrix{}, fmt.Errorf(matrixValueCountTemplateConstant, xBins, yBins, len(contents), contentsLabelConstant)
	}
	if errorValues == nil {
		errorValues = make([]float64, len(contents))
		for cellIndex, content := range contents {
			errorValues[cellIndex] = math.Sqrt(math.Abs(content))
		}
	}
	if len(errorValues) != xBins*yBins {
		return Matrix{}, fmt.Errorf(matrixValueCountTemplateConstant, xBins, yBins, len(errorValues), errorsLabelConstant)
	}
	for cellIndex := range contents {
		if math.IsNaN(contents[cellIndex]) || math.IsInf(contents[cellIndex], 0) {
			return Matrix{}, fmt.Errorf(nonFiniteValueTemplateConstant, contentsLabelConstant, cellIndex)
		}
		if errorValues[cellIndex] < 0 || math.IsNaN(errorValues[cellIndex]) {
			return Matrix{}, fmt.Errorf(negativeErrorTemplateConstant, cellIndex, errorValues[cellIndex])
		}
	}

	return Matrix{
		xEdges:   append([]float64(nil), xEdges...),
		yEdges:   append([]float64(nil), yEdges...),
		contents: append([]float64(nil), contents...),
		errors:   append([]float64(nil), errorValues...),
	}, nil
}

// NewSquareMatrix builds a matrix sharing one binning on both axes, as used for covariances.
func NewSquareMatrix(edges []float64, values *mat.SymDense) (Matrix, error) {
	size := values.SymmetricDim()
	contents := make([]float64, 0, size*size)
	for rowIndex := 0; rowIndex < size; rowIndex++ {
		for columnIndex := 0; columnIndex < size; columnIndex++ {
			contents = append(contents, values.At(rowIndex, columnIndex))
		}
	}
	return NewMatrix(edges, edges, contents, make([]float64, len(contents)))
}

// XBins reports the number of bins along X.
func (matrix Matrix) XBins() int {
	return len(matrix.xEdges) - 1
}

// YBins reports the number of bins along Y.
func (matrix Matrix) YBins() int {
	return len(matrix.yEdges) - 1
}

// XEdges returns a copy of the X edges.
func (matrix Matrix) XEdges() []float64 {
	return append([]float64(nil), matrix.xEdges...)
}

// YEdges returns a copy of the Y edges.
func (matrix Matrix) YEdges() []float64 {
	return append([]float64(nil), matrix.yEdges...)
}

// Contents returns a copy of the contents indexed as [iy*nx + ix].
func (matrix Matrix) Contents() []float64 {
	return append([]float64(nil), matrix.contents...)
}

// Errors returns a copy of the errors indexed as [iy*nx + ix].
func (matrix Matrix) Errors() []float64 {
	return append([]float64(nil), matrix.errors...)
}

// Content returns the content of cell (xIndex, yIndex).
func (matrix Matrix) Content(xIndex int, yIndex int) float64 {
	return matrix.contents[matrix.cellIndex(xIndex, yIndex)]
}

// Error returns the error of cell (xIndex, yIndex).
func (matrix Matrix) Error(xIndex int, yIndex int) float64 {
	return matrix.errors[matrix.cellIndex(xIndex, yIndex)]
}

// IsZero reports whether the matrix has no binning.
func (matrix Matrix) IsZero() bool {
	return len(matrix.xEdges) == 0
}

// ProjectionX sums over Y and returns the X-axis distribution.
func (matrix Matrix) ProjectionX() Histogram {
	xBins := matrix.XBins()
	contents := make([]float64, xBins)
	squaredErrors := make([]float64, xBins)
	for yIndex := 0; yIndex < matrix.YBins(); yIndex++ {
		for xIndex := 0; xIndex < xBins; xIndex++ {
			cellIndex := matrix.cellIndex(xIndex, yIndex)
			contents[xIndex] += matrix.contents[cellIndex]
			squaredErrors[xIndex] += matrix.errors[cellIndex] * matrix.errors[cellIndex]
		}
	}
	return projected(matrix.xEdges, contents, squaredErrors)
}

// ProjectionY sums over X and returns the Y-axis distribution.
func (matrix Matrix) ProjectionY() Histogram {
	yBins := matrix.YBins()
	contents := make([]float64, yBins)
	squaredErrors := make([]float64, yBins)
	for yIndex := 0; yIndex < yBins; yIndex++ {
		for xIndex := 0; xIndex < matrix.XBins(); xIndex++ {
			cellIndex := matrix.cellIndex(xIndex, yIndex)
			contents[yIndex] += matrix.contents[cellIndex]
			squaredErrors[yIndex] += matrix.errors[cellIndex] * matrix.errors[cellIndex]
		}
	}
	return projected(matrix.yEdges, contents, squaredErrors)
}

// Transpose swaps the X and Y axes.
func (matrix Matrix) Transpose() Matrix {
	xBins := matrix.XBins()
	yBins := matrix.YBins()
	contents := make([]float64, len(matrix.contents))
	errorValues := make([]float64, len(matrix.errors))
	for yIndex := 0; yIndex < yBins; yIndex++ {
		for xIndex := 0; xIndex < xBins; xIndex++ {
			sourceIndex := matrix.cellIndex(xIndex, yIndex)
			targetIndex := xIndex*yBins + yIndex
			contents[targetIndex] = matrix.contents[sourceIndex]
			errorValues[targetIndex] = matrix.errors[sourceIndex]
		}
	}
	return Matrix{
		xEdges:   append([]float64(nil), matrix.yEdges...),
		yEdges:   append([]float64(nil), matrix.xEdges...),
		contents: contents,
		errors:   errorValues,
	}
}

// Scale multiplies contents by factor and errors by |factor|.
func (matrix Matrix) Scale(factor float64) Matrix {
	scaled := Matrix{
		xEdges:   append([]float64(nil), matrix.xEdges...),
		yEdges:   append([]float64(nil), matrix.yEdges...),
		contents: append([]float64(nil), matrix.contents...),
		errors:   append([]float64(nil), matrix.errors...),
	}
	floats.Scale(factor, scaled.contents)
	floats.Scale(math.Abs(factor), scaled.errors)
	return scaled
}

// IntegralAndError sums all cells and adds their errors in quadrature.
func (matrix Matrix) IntegralAndError() (float64, float64) {
	return floats.Sum(matrix.contents), floats.Norm(matrix.errors, 2)
}

// CollapseToSingleBin integrates the matrix into one cell spanning [0, 1]x[0, 1].
func (matrix Matrix) CollapseToSingleBin() Matrix {
	integral, integralError := matrix.IntegralAndError()
	return Matrix{
		xEdges:   []float64{singleBinLowEdgeConstant, singleBinHighEdgeConstant},
		yEdges:   []float64{singleBinLowEdgeConstant, singleBinHighEdgeConstant},
		contents: []float64{integral},
		errors:   []float64{integralError},
	}
}

// Dense returns the contents as a gonum matrix with rows indexed by X and columns by Y.
func (matrix Matrix) Dense() *mat.Dense {
	dense := mat.NewDense(matrix.XBins(), matrix.YBins(), nil)
	for yIndex := 0; yIndex < matrix.YBins(); yIndex++ {
		for xIndex := 0; xIndex < matrix.XBins(); xIndex++ {
			dense.Set(xIndex, yIndex, matrix.Content(xIndex, yIndex))
		}
	}
	return dense
}

// Symmetric returns a square matrix as a gonum symmetric matrix, averaging off-diagonal pairs.
func (matrix Matrix) Symmetric() (*mat.SymDense, error) {
	if matrix.XBins() != matrix.YBins() {
		return nil, fmt.Errorf(matrixNotSquareTemplateConstant, matrix.XBins(), matrix.YBins())
	}
	size := matrix.XBins()
	symmetric := mat.NewSymDense(size, nil)
	for rowIndex := 0; rowIndex < size; rowIndex++ {
		for columnIndex := rowIndex; columnIndex < size; columnIndex++ {
			average := 0.5 * (matrix.Content(rowIndex, columnIndex) + matrix.Content(columnIndex, rowIndex))
			symmetric.SetSym(rowIndex, columnIndex, average)
		}
	}
	return symmetric, nil
}

func (matrix Matrix) cellIndex(xIndex int, yIndex int) int {
	return yIndex*matrix.XBins() + xIndex
}

func projected(edges []float64, contents []float64, squaredErrors []float64) Histogram {
	errorValues := make([]float64, len(squaredErrors))
	for binIndex, squaredError := range squaredErrors {
		errorValues[binIndex] = math.Sqrt(squaredError)
	}
	return Histogram{
		edges:    append([]float64(nil), edges...),
		contents: contents,
		errors:   errorValues,
	}
}

// Correlation normalizes a covariance matrix by its diagonal. Cells touching a zero variance are zero.
func (matrix Matrix) Correlation() (Matrix, error) {
	if matrix.XBins() != matrix.YBins() {
		return Matrix{}, fmt.Errorf(matrixNotSquareTemplateConstant, matrix.XBins(), matrix.YBins())
	}
	size := matrix.XBins()
	contents := make([]float64, len(matrix.contents))
	for yIndex := 0; yIndex < size; yIndex++ {
		for xIndex := 0; xIndex < size; xIndex++ {
			normalization := math.Sqrt(matrix.Content(xIndex, xIndex) * matrix.Content(yIndex, yIndex))
			if normalization == 0 {
				continue
			}
			contents[matrix.cellIndex(xIndex, yIndex)] = matrix.Content(xIndex, yIndex) / normalization
		}
	}
	return Matrix{
		xEdges:   append([]float64(nil), matrix.xEdges...),
		yEdges:   append([]float64(nil), matrix.yEdges...),
		contents: contents,
		errors:   make([]float64, len(contents)),
	}, nil
}

// Diagonal returns the diagonal of a square matrix as a histogram on the X binning.
func (matrix Matrix) Diagonal() (Histogram, error) {
	if matrix.XBins() != matrix.YBins() {
		return Histogram{}, fmt.Errorf(matrixNotSquareTemplateConstant, matrix.XBins(), matrix.YBins())
	}
	contents := make([]float64, matrix.XBins())
	for binIndex := range contents {
		contents[binIndex] = matrix.Content(binIndex, binIndex)
	}
	return Histogram{
		edges:    append([]float64(nil), matrix.xEdges...),
		contents: contents,
		errors:   make([]float64, len(contents)),
	}, nil
}
