package comparison

import (
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/temirov/xsec/internal/histio"
	"github.com/temirov/xsec/internal/histogram"
)

const (
	plotTitleConstant  = "Absolute differential cross section"
	plotXLabelConstant = "Observable"
	plotYLabelConstant = "dσ/dX"
	plotWidthConstant  = 6 * vg.Inch
	plotHeightConstant = 4 * vg.Inch
)

// Series is one labelled spectrum of an overlay.
type Series struct {
	Label     string
	Histogram histogram.Histogram
}

// RenderOverlay draws the truth and the unfolded spectra into one plot. The image format
// follows the file extension.
func RenderOverlay(outputPath string, truth Series, results []Series) error {
	overlay := hplot.New()
	overlay.Title.Text = plotTitleConstant
	overlay.X.Label.Text = plotXLabelConstant
	overlay.Y.Label.Text = plotYLabelConstant
	overlay.Legend.Top = true

	for seriesIndex, series := range append([]Series{truth}, results...) {
		drawn := hplot.NewH1D(histio.ToH1D(series.Label, series.Label, series.Histogram), hplot.WithYErrBars(seriesIndex > 0))
		drawn.FillColor = nil
		drawn.LineStyle.Color = plotutil.Color(seriesIndex)
		drawn.Infos.Style = hplot.HInfoNone
		overlay.Add(drawn)
		overlay.Legend.Add(series.Label, drawn)
	}

	if saveError := overlay.Save(plotWidthConstant, plotHeightConstant, outputPath); saveError != nil {
		return histio.WriteError{Path: outputPath, Cause: saveError}
	}
	return nil
}
