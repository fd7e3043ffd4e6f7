package spectrum

import (
	"fmt"

	"github.com/temirov/xsec/internal/histio"
	"github.com/temirov/xsec/internal/histogram"
)

const (
	normalizationStepTemplateConstant = "%s: %w"
	stepBackgroundConstant            = "background subtraction"
	stepEfficiencyConstant            = "efficiency"
	stepAcceptanceConstant            = "acceptance"
	stepCorrectionConstant            = "acceptance correction"
)

// NormalizationSettings carries the scalar factors applied to the inputs.
type NormalizationSettings struct {
	RecoScale          float64
	BranchingRatio     float64
	SubtractBackground bool
}

// Normalized holds the inputs after scaling together with the derived correction histograms.
type Normalized struct {
	Data                  histogram.Histogram
	SignalReco            histogram.Histogram
	Background            histogram.Histogram
	DataMinusBackground   histogram.Histogram
	Response              histogram.Matrix
	Generated             histogram.Histogram
	SignalTruth           histogram.Histogram
	Efficiency            histogram.Histogram
	Acceptance            histogram.Histogram
	DataMinusBkgCorrected histogram.Histogram
}

// SubtractBackground returns data - background, or data unchanged when subtraction is disabled.
func SubtractBackground(data histogram.Histogram, background histogram.Histogram, enabled bool) (histogram.Histogram, error) {
	if !enabled {
		return data, nil
	}
	return data.Add(background, -1)
}

// Normalize scales the data by the reco scale and the generated spectrum by the inverse branching
// ratio, subtracts the background, and derives efficiency, acceptance and the corrected reco spectrum.
func Normalize(inputs histio.InputSet, settings NormalizationSettings) (Normalized, error) {
	normalized := Normalized{
		Data:       inputs.Data.Scale(settings.RecoScale),
		SignalReco: inputs.SignalReco,
		Background: inputs.Background,
		Response:   inputs.Response,
		Generated:  inputs.Generated.Scale(1 / settings.BranchingRatio),
	}
	var stepError error

	if normalized.DataMinusBackground, stepError = SubtractBackground(normalized.Data, normalized.Background, settings.SubtractBackground); stepError != nil {
		return Normalized{}, fmt.Errorf(normalizationStepTemplateConstant, stepBackgroundConstant, stepError)
	}

	normalized.SignalTruth = inputs.Response.ProjectionY()
	if normalized.Efficiency, stepError = normalized.SignalTruth.Divide(normalized.Generated); stepError != nil {
		return Normalized{}, fmt.Errorf(normalizationStepTemplateConstant, stepEfficiencyConstant, stepError)
	}
	if normalized.Acceptance, stepError = inputs.Response.ProjectionX().Divide(normalized.SignalReco); stepError != nil {
		return Normalized{}, fmt.Errorf(normalizationStepTemplateConstant, stepAcceptanceConstant, stepError)
	}
	if normalized.DataMinusBkgCorrected, stepError = normalized.DataMinusBackground.Multiply(normalized.Acceptance); stepError != nil {
		return Normalized{}, fmt.Errorf(normalizationStepTemplateConstant, stepCorrectionConstant, stepError)
	}
	return normalized, nil
}

// CorrectToy applies background subtraction and acceptance to a resampled data spectrum.
func (normalized Normalized) CorrectToy(smearedData histogram.Histogram, subtractBackground bool) (histogram.Histogram, error) {
	subtracted, subtractError := SubtractBackground(smearedData, normalized.Background, subtractBackground)
	if subtractError != nil {
		return histogram.Histogram{}, fmt.Errorf(normalizationStepTemplateConstant, stepBackgroundConstant, subtractError)
	}
	corrected, correctionError := subtracted.Multiply(normalized.Acceptance)
	if correctionError != nil {
		return histogram.Histogram{}, fmt.Errorf(normalizationStepTemplateConstant, stepCorrectionConstant, correctionError)
	}
	return corrected, nil
}
