package histio

import (
	"math"
	"slices"

	"go-hep.org/x/hep/hbook"

	"github.com/temirov/xsec/internal/histogram"
)

const (
	annotationNameConstant  = "name"
	annotationTitleConstant = "title"
)

// histogramFromH1D copies the in-range bins of an hbook histogram. Under- and overflow are dropped.
func histogramFromH1D(source *hbook.H1D) (histogram.Histogram, error) {
	bins := source.Binning.Bins
	edges := make([]float64, 0, len(bins)+1)
	contents := make([]float64, 0, len(bins))
	errorValues := make([]float64, 0, len(bins))
	for binIndex, bin := range bins {
		if binIndex == 0 {
			edges = append(edges, bin.Range.Min)
		}
		edges = append(edges, bin.Range.Max)
		contents = append(contents, bin.SumW())
		errorValues = append(errorValues, math.Sqrt(bin.SumW2()))
	}
	return histogram.New(edges, contents, errorValues)
}

// matrixFromH2D copies the in-range cells of an hbook 2-D histogram.
// Cells are located by their midpoints so the conversion does not depend on the storage order.
func matrixFromH2D(source *hbook.H2D) (histogram.Matrix, error) {
	bins := source.Binning.Bins
	xEdges := collectEdges(bins, func(bin hbook.Bin2D) hbook.Range { return bin.XRange })
	yEdges := collectEdges(bins, func(bin hbook.Bin2D) hbook.Range { return bin.YRange })
	xBins := len(xEdges) - 1
	contents := make([]float64, xBins*max(len(yEdges)-1, 0))
	errorValues := make([]float64, len(contents))
	for _, bin := range bins {
		xIndex := locate(xEdges, 0.5*(bin.XRange.Min+bin.XRange.Max))
		yIndex := locate(yEdges, 0.5*(bin.YRange.Min+bin.YRange.Max))
		if xIndex < 0 || yIndex < 0 {
			continue
		}
		contents[yIndex*xBins+xIndex] = bin.SumW()
		errorValues[yIndex*xBins+xIndex] = math.Sqrt(bin.SumW2())
	}
	return histogram.NewMatrix(xEdges, yEdges, contents, errorValues)
}

// ToH1D builds an hbook histogram carrying the exact contents and errors of source.
func ToH1D(name string, title string, source histogram.Histogram) *hbook.H1D {
	converted := hbook.NewH1DFromEdges(source.Edges())
	for binIndex := range converted.Binning.Bins {
		bin := &converted.Binning.Bins[binIndex]
		content := source.Content(binIndex)
		errorValue := source.Error(binIndex)
		bin.Dist.Dist.N = 1
		bin.Dist.Dist.SumW = content
		bin.Dist.Dist.SumW2 = errorValue * errorValue
	}
	converted.Ann[annotationNameConstant] = name
	converted.Ann[annotationTitleConstant] = title
	return converted
}

// h2dFromMatrix builds an hbook 2-D histogram carrying the exact contents and errors of source.
func h2dFromMatrix(name string, title string, source histogram.Matrix) *hbook.H2D {
	xEdges := source.XEdges()
	yEdges := source.YEdges()
	converted := hbook.NewH2DFromEdges(xEdges, yEdges)
	for binIndex := range converted.Binning.Bins {
		bin := &converted.Binning.Bins[binIndex]
		xIndex := locate(xEdges, 0.5*(bin.XRange.Min+bin.XRange.Max))
		yIndex := locate(yEdges, 0.5*(bin.YRange.Min+bin.YRange.Max))
		if xIndex < 0 || yIndex < 0 {
			continue
		}
		content := source.Content(xIndex, yIndex)
		errorValue := source.Error(xIndex, yIndex)
		for _, axis := range []*hbook.Dist1D{&bin.Dist.X, &bin.Dist.Y} {
			axis.Dist.N = 1
			axis.Dist.SumW = content
			axis.Dist.SumW2 = errorValue * errorValue
		}
	}
	converted.Ann[annotationNameConstant] = name
	converted.Ann[annotationTitleConstant] = title
	return converted
}

func collectEdges(bins []hbook.Bin2D, axisRange func(hbook.Bin2D) hbook.Range) []float64 {
	edges := make([]float64, 0, len(bins))
	for _, bin := range bins {
		binRange := axisRange(bin)
		edges = append(edges, binRange.Min, binRange.Max)
	}
	slices.Sort(edges)
	return slices.Compact(edges)
}

// locate returns the index of the bin of edges containing value, or -1.
func locate(edges []float64, value float64) int {
	position, _ := slices.BinarySearch(edges, value)
	binIndex := position - 1
	if binIndex < 0 || binIndex >= len(edges)-1 {
		return -1
	}
	return binIndex
}
