package spectrum

import (
	"fmt"
	"strings"

	"github.com/temirov/xsec/internal/histio"
	"github.com/temirov/xsec/internal/unfolding"
)

const (
	defaultOutputNameTemplateConstant = "%s_%s_%d_DiffXs.root"
	methodSolverSeparatorConstant     = ":"
	fileNameSeparatorConstant         = "_"

	// Output object names.
	objectDataConstant                  = "Data"
	objectSignalRecoConstant            = "SignalReco"
	objectBackgroundConstant            = "Background"
	objectDataMinusBackgroundConstant   = "DataMinusBackground"
	objectResponseConstant              = "Response"
	objectGeneratedConstant             = "Generated"
	objectSignalTruthConstant           = "SignalTruth"
	objectEfficiencyConstant            = "Efficiency"
	objectAcceptanceConstant            = "Acceptance"
	objectDataMinusBkgCorrectedConstant = "DataMinusBkgCorrected"
	objectDataUnfoldedConstant          = "DataUnfolded"
	objectAbsoluteConstant              = "AbsoluteDiffXs"
	objectRelativeConstant              = "RelativeDiffXs"
	objectCovarianceAbsoluteConstant    = "Covariance_abs"
	objectCovarianceRelativeConstant    = "Covariance_rel"
	objectCorrelationAbsoluteConstant   = "Correlation_abs"
	objectCorrelationRelativeConstant   = "Correlation_rel"

	titleDataMinusBkgCorrectedConstant = "(Data - Bkg) x Acceptance"
	titleAbsoluteConstant              = "Absolute differential cross section"
	titleRelativeConstant              = "Relative differential cross section"
)

// DefaultOutputName derives the output file name used when none is given.
// regularization is the configured value, so the method default appears as -1.
func DefaultOutputName(systematic string, method unfolding.Method, regularization int) string {
	methodLabel := strings.ReplaceAll(method.String(), methodSolverSeparatorConstant, fileNameSeparatorConstant)
	return fmt.Sprintf(defaultOutputNameTemplateConstant, systematic, methodLabel, regularization)
}

func resultEntries(normalized Normalized, sections CrossSections, covariance *CovarianceSet) ([]histio.Entry, error) {
	entries := []histio.Entry{
		histio.HistogramEntry(objectDataConstant, objectDataConstant, normalized.Data),
		histio.HistogramEntry(objectSignalRecoConstant, objectSignalRecoConstant, normalized.SignalReco),
		histio.HistogramEntry(objectBackgroundConstant, objectBackgroundConstant, normalized.Background),
		histio.HistogramEntry(objectDataMinusBackgroundConstant, objectDataMinusBackgroundConstant, normalized.DataMinusBackground),
		histio.MatrixEntry(objectResponseConstant, objectResponseConstant, normalized.Response),
		histio.HistogramEntry(objectGeneratedConstant, objectGeneratedConstant, normalized.Generated),
		histio.HistogramEntry(objectSignalTruthConstant, objectSignalTruthConstant, normalized.SignalTruth),
		histio.HistogramEntry(objectEfficiencyConstant, objectEfficiencyConstant, normalized.Efficiency),
		histio.HistogramEntry(objectAcceptanceConstant, objectAcceptanceConstant, normalized.Acceptance),
		histio.HistogramEntry(objectDataMinusBkgCorrectedConstant, titleDataMinusBkgCorrectedConstant, normalized.DataMinusBkgCorrected),
		histio.HistogramEntry(objectDataUnfoldedConstant, objectDataUnfoldedConstant, sections.Unfolded),
		histio.HistogramEntry(objectAbsoluteConstant, titleAbsoluteConstant, sections.Absolute),
		histio.HistogramEntry(objectRelativeConstant, titleRelativeConstant, sections.Relative),
	}
	if covariance == nil {
		return entries, nil
	}

	absoluteCorrelation, absoluteError := covariance.Absolute.Correlation()
	if absoluteError != nil {
		return nil, absoluteError
	}
	relativeCorrelation, relativeError := covariance.Relative.Correlation()
	if relativeError != nil {
		return nil, relativeError
	}
	return append(entries,
		histio.MatrixEntry(objectCovarianceAbsoluteConstant, objectCovarianceAbsoluteConstant, covariance.Absolute),
		histio.MatrixEntry(objectCovarianceRelativeConstant, objectCovarianceRelativeConstant, covariance.Relative),
		histio.MatrixEntry(objectCorrelationAbsoluteConstant, objectCorrelationAbsoluteConstant, absoluteCorrelation),
		histio.MatrixEntry(objectCorrelationRelativeConstant, objectCorrelationRelativeConstant, relativeCorrelation),
	), nil
}
