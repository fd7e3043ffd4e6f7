package comparison

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/xsec/internal/histogram"
	"github.com/temirov/xsec/internal/ui"
)

const (
	// DefaultResultObject is the spectrum compared from each result file.
	DefaultResultObject = "AbsoluteDiffXs"
	// DefaultCovarianceObject is the covariance read when chi2 with covariance is requested.
	DefaultCovarianceObject = "Covariance_abs"
	// DefaultTruthObject is the truth spectrum read from the truth file.
	DefaultTruthObject = "TheoryXs_abs"

	loggerNotConfiguredMessageConstant = "comparison service requires a logger"
	readerNotConfiguredMessageConstant = "comparison service requires a result reader"
	missingResultsMessageConstant      = "at least one result file is required"
	missingTruthMessageConstant        = "a truth file is required"
	metricTemplateConstant             = "%s: %s: %w"
	metricValueFormatConstant          = "%.3g"
	missingMetricPlaceholderConstant   = "-"
	reportLineTemplateConstant         = "%s\n"
	metricChi2CovarianceConstant       = "chi2 (cov)"
	metricChi2PerDegreeConstant        = "chi2/dof"
	metricTriangularConstant           = "triangular discriminator"
	headerResultConstant               = "result"
	comparisonMessageConstant          = "comparison computed"
	logFieldResultConstant             = "result"
	logFieldChi2Constant               = "chi2_dof"
	logFieldTriangularConstant         = "triangular"
)

var (
	// ErrLoggerNotConfigured indicates a missing logger dependency.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrReaderNotConfigured indicates a missing reader dependency.
	ErrReaderNotConfigured = errors.New(readerNotConfiguredMessageConstant)
	// ErrMissingResults indicates that no result file was given.
	ErrMissingResults = errors.New(missingResultsMessageConstant)
	// ErrMissingTruth indicates that no truth file was given.
	ErrMissingTruth = errors.New(missingTruthMessageConstant)
)

// ResultReader reads spectra and covariances from ROOT files.
type ResultReader interface {
	ReadHistogram(filePath string, objectPath string) (histogram.Histogram, error)
	ReadMatrix(filePath string, objectPath string) (histogram.Matrix, error)
}

// ResultSource names one unfolded result file.
type ResultSource struct {
	Label string
	Path  string
}

// Options configure one comparison.
type Options struct {
	Results     []ResultSource
	TruthPath   string
	TruthObject string
	// UseCovariance also computes chi2 with the stored covariance.
	UseCovariance bool
	// PlotPath, when set, receives an overlay of the truth and every result.
	PlotPath string
}

// Metrics are the agreement measures of one result against the truth.
type Metrics struct {
	Label string
	// Chi2Covariance is nil unless the covariance was used.
	Chi2Covariance          *float64
	Chi2PerDegreeOfFreedom  float64
	TriangularDiscriminator float64
}

// Report collects the metrics of every compared result.
type Report struct {
	Metrics []Metrics
}

// Service compares unfolded cross sections against a truth spectrum.
type Service struct {
	logger *zap.Logger
	reader ResultReader
	output io.Writer
}

// NewService constructs a Service. A nil output discards the rendered table.
func NewService(logger *zap.Logger, reader ResultReader, output io.Writer) (*Service, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if reader == nil {
		return nil, ErrReaderNotConfigured
	}
	if output == nil {
		output = io.Discard
	}
	return &Service{logger: logger, reader: reader, output: output}, nil
}

// Run reads the spectra, computes the metrics, prints them as a table and renders the optional plot.
func (service *Service) Run(executionContext context.Context, options Options) (Report, error) {
	if len(options.Results) == 0 {
		return Report{}, ErrMissingResults
	}
	truthPath := strings.TrimSpace(options.TruthPath)
	if len(truthPath) == 0 {
		return Report{}, ErrMissingTruth
	}
	truthObject := strings.TrimSpace(options.TruthObject)
	if len(truthObject) == 0 {
		truthObject = DefaultTruthObject
	}

	truth, truthError := service.reader.ReadHistogram(truthPath, truthObject)
	if truthError != nil {
		return Report{}, truthError
	}

	report := Report{Metrics: make([]Metrics, 0, len(options.Results))}
	series := make([]Series, 0, len(options.Results))
	for _, source := range options.Results {
		if contextError := executionContext.Err(); contextError != nil {
			return Report{}, contextError
		}
		label := resultLabel(source)
		spectrum, readError := service.reader.ReadHistogram(source.Path, DefaultResultObject)
		if readError != nil {
			return Report{}, readError
		}
		metrics, metricsError := service.compare(label, source.Path, spectrum, truth, options.UseCovariance)
		if metricsError != nil {
			return Report{}, metricsError
		}
		report.Metrics = append(report.Metrics, metrics)
		series = append(series, Series{Label: label, Histogram: spectrum})
	}

	fmt.Fprintf(service.output, reportLineTemplateConstant, report.table(options.UseCovariance))

	if plotPath := strings.TrimSpace(options.PlotPath); len(plotPath) > 0 {
		if plotError := RenderOverlay(plotPath, Series{Label: truthObject, Histogram: truth}, series); plotError != nil {
			return Report{}, plotError
		}
	}
	return report, nil
}

func (service *Service) compare(label string, resultPath string, spectrum histogram.Histogram, truth histogram.Histogram, useCovariance bool) (Metrics, error) {
	metrics := Metrics{Label: label}
	if useCovariance {
		covariance, covarianceError := service.reader.ReadMatrix(resultPath, DefaultCovarianceObject)
		if covarianceError != nil {
			return Metrics{}, covarianceError
		}
		chi2, chi2Error := Chi2WithCovariance(spectrum, truth, covariance)
		if chi2Error != nil {
			return Metrics{}, fmt.Errorf(metricTemplateConstant, label, metricChi2CovarianceConstant, chi2Error)
		}
		metrics.Chi2Covariance = &chi2
	}

	var metricError error
	if metrics.Chi2PerDegreeOfFreedom, metricError = Chi2PerDegreeOfFreedom(spectrum, truth); metricError != nil {
		return Metrics{}, fmt.Errorf(metricTemplateConstant, label, metricChi2PerDegreeConstant, metricError)
	}
	if metrics.TriangularDiscriminator, metricError = TriangularDiscriminator(spectrum, truth); metricError != nil {
		return Metrics{}, fmt.Errorf(metricTemplateConstant, label, metricTriangularConstant, metricError)
	}

	service.logger.Info(comparisonMessageConstant,
		zap.String(logFieldResultConstant, label),
		zap.Float64(logFieldChi2Constant, metrics.Chi2PerDegreeOfFreedom),
		zap.Float64(logFieldTriangularConstant, metrics.TriangularDiscriminator),
	)
	return metrics, nil
}

func (report Report) table(withCovariance bool) string {
	headers := []string{headerResultConstant, metricChi2PerDegreeConstant, metricTriangularConstant}
	if withCovariance {
		headers = append(headers, metricChi2CovarianceConstant)
	}
	rows := make([][]string, 0, len(report.Metrics))
	for _, metrics := range report.Metrics {
		row := []string{
			metrics.Label,
			fmt.Sprintf(metricValueFormatConstant, metrics.Chi2PerDegreeOfFreedom),
			fmt.Sprintf(metricValueFormatConstant, metrics.TriangularDiscriminator),
		}
		if withCovariance {
			chi2 := missingMetricPlaceholderConstant
			if metrics.Chi2Covariance != nil {
				chi2 = fmt.Sprintf(metricValueFormatConstant, *metrics.Chi2Covariance)
			}
			row = append(row, chi2)
		}
		rows = append(rows, row)
	}
	return ui.NewMetricsTable().Render(headers, rows)
}

func resultLabel(source ResultSource) string {
	if label := strings.TrimSpace(source.Label); len(label) > 0 {
		return label
	}
	return strings.TrimSuffix(filepath.Base(source.Path), filepath.Ext(source.Path))
}
