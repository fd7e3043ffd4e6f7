package histio

import (
	"go.uber.org/zap"

	"github.com/temirov/xsec/internal/config"
	"github.com/temirov/xsec/internal/histogram"
)

const (
	loadedInputMessageConstant       = "loaded input"
	skippedBackgroundMessageConstant = "background file or histogram path is empty, background subtraction skipped"
	generatedFromResponseConstant    = "efficiency correction disabled, generated spectrum taken from the response projection"
	logFieldInputConstant            = "input"
	logFieldBinsConstant             = "bins"
	logFieldIntegralConstant         = "integral"
	inputDataConstant                = "data"
	inputSignalConstant              = "signal"
	inputBackgroundConstant          = "background"
	inputResponseConstant            = "response"
	inputGeneratedConstant           = "generated"
)

// InputSet holds every histogram a run consumes, as read from disk.
type InputSet struct {
	Data       histogram.Histogram
	SignalReco histogram.Histogram
	// Background is a zero histogram on the data binning when subtraction is skipped.
	Background histogram.Histogram
	// Response has the reco level on X and the particle level on Y.
	Response  histogram.Matrix
	Generated histogram.Histogram
}

// Loader reads the inputs named by a configuration.
type Loader struct {
	logger *zap.Logger
	reader *Reader
}

// NewLoader constructs a Loader. A nil logger disables diagnostics.
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger, reader: NewReader(logger)}
}

// Load reads all inputs. It collapses every input to one bin for total cross sections,
// transposes the response when requested, and projects the generated spectrum from the
// response when efficiency correction is disabled. Failures are DataAccessError values.
func (loader *Loader) Load(configuration config.Configuration) (InputSet, error) {
	var inputs InputSet
	var readError error

	if inputs.Data, readError = loader.readHistogram(inputDataConstant, configuration.Data, configuration.TotalCrossSection); readError != nil {
		return InputSet{}, readError
	}
	if inputs.SignalReco, readError = loader.readHistogram(inputSignalConstant, configuration.Signal, configuration.TotalCrossSection); readError != nil {
		return InputSet{}, readError
	}

	response, responseError := loader.reader.ReadMatrix(configuration.Response.File, configuration.Response.Path)
	if responseError != nil {
		return InputSet{}, responseError
	}
	if configuration.TotalCrossSection {
		response = response.CollapseToSingleBin()
	}
	if configuration.TransposeResponse {
		response = response.Transpose()
	}
	inputs.Response = response
	responseIntegral, _ := response.IntegralAndError()
	loader.logger.Info(
		loadedInputMessageConstant,
		zap.String(logFieldInputConstant, inputResponseConstant),
		zap.String(logFieldFileConstant, configuration.Response.File),
		zap.String(logFieldObjectConstant, configuration.Response.Path),
		zap.Int(logFieldBinsConstant, response.XBins()*response.YBins()),
		zap.Float64(logFieldIntegralConstant, responseIntegral),
	)

	if configuration.EfficiencyCorrection {
		if inputs.Generated, readError = loader.readHistogram(inputGeneratedConstant, configuration.Generated, configuration.TotalCrossSection); readError != nil {
			return InputSet{}, readError
		}
	} else {
		loader.logger.Info(generatedFromResponseConstant)
		inputs.Generated = response.ProjectionY()
	}

	if !configuration.SubtractsBackground() {
		loader.logger.Warn(skippedBackgroundMessageConstant)
		zeroBackground, zeroError := histogram.Zero(inputs.Data.Edges())
		if zeroError != nil {
			return InputSet{}, DataAccessError{File: configuration.Data.File, Path: configuration.Data.Path, Cause: zeroError}
		}
		inputs.Background = zeroBackground
		return inputs, nil
	}
	if inputs.Background, readError = loader.readHistogram(inputBackgroundConstant, configuration.Background, configuration.TotalCrossSection); readError != nil {
		return InputSet{}, readError
	}
	return inputs, nil
}

func (loader *Loader) readHistogram(inputName string, source config.HistogramSource, collapse bool) (histogram.Histogram, error) {
	loaded, readError := loader.reader.ReadHistogram(source.File, source.Path)
	if readError != nil {
		return histogram.Histogram{}, readError
	}
	if collapse {
		loaded = loaded.CollapseToSingleBin()
	}
	loader.logger.Info(
		loadedInputMessageConstant,
		zap.String(logFieldInputConstant, inputName),
		zap.String(logFieldFileConstant, source.File),
		zap.String(logFieldObjectConstant, source.Path),
		zap.Int(logFieldBinsConstant, loaded.Bins()),
		zap.Float64(logFieldIntegralConstant, loaded.Integral()),
	)
	return loaded, nil
}
