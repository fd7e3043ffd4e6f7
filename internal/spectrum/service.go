package spectrum

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/xsec/internal/config"
	"github.com/temirov/xsec/internal/toys"
	"github.com/temirov/xsec/internal/unfolding"
	"github.com/temirov/xsec/internal/utils"
)

const (
	// DefaultSystematic is the systematic unfolded when none is requested.
	DefaultSystematic = "nominal"

	loggerNotConfiguredMessageConstant   = "spectrum service requires a logger"
	loaderNotConfiguredMessageConstant   = "spectrum service requires an input loader"
	writerNotConfiguredMessageConstant   = "spectrum service requires a result writer"
	unfolderNotConfiguredMessageConstant = "spectrum service requires an unfolder"
	missingConfigurationMessageConstant  = "configuration path is required"

	runStartedMessageConstant        = "unfolding spectrum"
	toysSkippedMessageConstant       = "toy ensemble skipped, keeping backend bin errors"
	totalCrossSectionMessageConstant = "total cross section (abs/eff)"
	runCompletedMessageConstant      = "cross sections written"
	logFieldRunIdentifierConstant    = "run_id"
	logFieldConfigurationConstant    = "config"
	logFieldSystematicConstant       = "systematic"
	logFieldOutputConstant           = "output"
	logFieldTotalConstant            = "total"
	logFieldTotalErrorConstant       = "total_error"
	logFieldUncertaintyConstant      = "uncertainty"
)

var (
	// ErrLoggerNotConfigured indicates a missing logger dependency.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrLoaderNotConfigured indicates a missing input loader dependency.
	ErrLoaderNotConfigured = errors.New(loaderNotConfiguredMessageConstant)
	// ErrWriterNotConfigured indicates a missing result writer dependency.
	ErrWriterNotConfigured = errors.New(writerNotConfiguredMessageConstant)
	// ErrUnfolderNotConfigured indicates a missing unfolder dependency.
	ErrUnfolderNotConfigured = errors.New(unfolderNotConfiguredMessageConstant)
	// ErrMissingConfigurationPath indicates that no configuration file was supplied.
	ErrMissingConfigurationPath = errors.New(missingConfigurationMessageConstant)
)

// ServiceDependencies wires the collaborators of Service.
type ServiceDependencies struct {
	Logger   *zap.Logger
	Loader   InputLoader
	Writer   ResultWriter
	Unfolder Unfolder
	// ToySeed seeds the toy sampler; zero selects toys.DefaultSeed.
	ToySeed uint64
}

// Options describe one invocation.
type Options struct {
	ConfigurationPath string
	// OutputPath is the ROOT file to create; empty derives the name from the run settings.
	OutputPath string
	Systematic string
}

// Result summarizes a completed run.
type Result struct {
	OutputPath     string
	Configuration  config.Configuration
	Regularization int
	CrossSections  CrossSections
	// Covariance is nil when no statistical uncertainty was requested.
	Covariance *CovarianceSet
}

// Service runs the configuration, loading, normalization, unfolding and output stages of one spectrum.
type Service struct {
	logger          *zap.Logger
	loader          InputLoader
	writer          ResultWriter
	unfolder        Unfolder
	toySeed         uint64
	contextAccessor utils.CommandContextAccessor
}

// NewService validates the dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if dependencies.Loader == nil {
		return nil, ErrLoaderNotConfigured
	}
	if dependencies.Writer == nil {
		return nil, ErrWriterNotConfigured
	}
	if dependencies.Unfolder == nil {
		return nil, ErrUnfolderNotConfigured
	}
	seed := dependencies.ToySeed
	if seed == 0 {
		seed = toys.DefaultSeed
	}
	return &Service{
		logger:          dependencies.Logger,
		loader:          dependencies.Loader,
		writer:          dependencies.Writer,
		unfolder:        dependencies.Unfolder,
		toySeed:         seed,
		contextAccessor: utils.NewCommandContextAccessor(),
	}, nil
}

// Run executes one unfolding run. Nothing is written unless every stage succeeds.
// Errors are config.ConfigError, histio.DataAccessError, unfolding.BackendError, ComputationError
// or histio.WriteError for the respective stage.
func (service *Service) Run(executionContext context.Context, options Options) (Result, error) {
	configurationPath := strings.TrimSpace(options.ConfigurationPath)
	if len(configurationPath) == 0 {
		return Result{}, config.ConfigError{Cause: ErrMissingConfigurationPath}
	}
	systematic := strings.TrimSpace(options.Systematic)
	if len(systematic) == 0 {
		systematic = DefaultSystematic
	}

	logger := service.logger.With(zap.String(logFieldSystematicConstant, systematic))
	if runIdentifier, available := service.contextAccessor.RunIdentifier(executionContext); available {
		logger = logger.With(zap.String(logFieldRunIdentifierConstant, runIdentifier))
	}
	logger.Info(runStartedMessageConstant, zap.String(logFieldConfigurationConstant, configurationPath))

	configuration, configurationError := config.Load(configurationPath, systematic)
	if configurationError != nil {
		return Result{}, configurationError
	}

	inputs, loadError := service.loader.Load(configuration)
	if loadError != nil {
		return Result{}, loadError
	}

	normalized, normalizationError := Normalize(inputs, NormalizationSettings{
		RecoScale:          configuration.RecoScale,
		BranchingRatio:     configuration.BranchingRatio,
		SubtractBackground: configuration.SubtractsBackground(),
	})
	if normalizationError != nil {
		return Result{}, ComputationError{Stage: StageNormalization, Cause: normalizationError}
	}

	regularization := configuration.Method.EffectiveRegularization(configuration.Regularization, normalized.Response.XBins())
	problem := unfolding.Problem{
		Method:         configuration.Method,
		Regularization: regularization,
		ErrorMode:      unfolding.ErrorModeNone,
		Toys:           configuration.Uncertainty.Toys,
		Measured:       normalized.DataMinusBkgCorrected,
		Reco:           normalized.SignalReco,
		Truth:          normalized.SignalTruth,
		Response:       normalized.Response,
	}
	if configuration.Uncertainty.Mode == config.UncertaintyAnalytical {
		problem.ErrorMode = unfolding.ErrorModeCovariance
	}

	outcome := service.unfolder.Run(executionContext, problem)
	if !outcome.Succeeded() {
		return Result{}, outcome.Err
	}

	sections, sectionsError := DeriveCrossSections(outcome.Solution.Unfolded, normalized.Efficiency, configuration.Luminosity)
	if sectionsError != nil {
		return Result{}, ComputationError{Stage: StageCrossSections, Cause: sectionsError}
	}
	logger.Info(totalCrossSectionMessageConstant, zap.Float64(logFieldTotalConstant, sections.Total), zap.Float64(logFieldTotalErrorConstant, sections.TotalError))

	covariance, uncertaintyError := service.uncertainties(executionContext, logger, configuration, normalized, problem, outcome.Solution, sections)
	if uncertaintyError != nil {
		return Result{}, uncertaintyFailure(string(configuration.Uncertainty.Mode), uncertaintyError)
	}
	if covariance != nil {
		if sections, uncertaintyError = sections.withCovarianceErrors(*covariance); uncertaintyError != nil {
			return Result{}, uncertaintyFailure(string(configuration.Uncertainty.Mode), uncertaintyError)
		}
	}

	entries, entriesError := resultEntries(normalized, sections, covariance)
	if entriesError != nil {
		return Result{}, ComputationError{Stage: StageOutput, Cause: entriesError}
	}

	outputPath := strings.TrimSpace(options.OutputPath)
	if len(outputPath) == 0 {
		outputPath = DefaultOutputName(systematic, configuration.Method, configuration.Regularization)
	}
	outputPath = filepath.Clean(outputPath)
	if writeError := service.writer.Write(outputPath, entries); writeError != nil {
		return Result{}, writeError
	}

	logger.Info(runCompletedMessageConstant, zap.String(logFieldOutputConstant, outputPath), zap.String(logFieldUncertaintyConstant, string(configuration.Uncertainty.Mode)))
	return Result{
		OutputPath:     outputPath,
		Configuration:  configuration,
		Regularization: regularization,
		CrossSections:  sections,
		Covariance:     covariance,
	}, nil
}

func (service *Service) uncertainties(executionContext context.Context, logger *zap.Logger, configuration config.Configuration, normalized Normalized, nominal unfolding.Problem, solution unfolding.Solution, sections CrossSections) (*CovarianceSet, error) {
	switch configuration.Uncertainty.Mode {
	case config.UncertaintyAnalytical:
		if !solution.HasCovariance() {
			return nil, unfolding.ErrMissingCovariance
		}
		covariance, propagationError := PropagateCovariance(solution.Covariance, sections, normalized.Efficiency, configuration.Luminosity)
		if propagationError != nil {
			return nil, propagationError
		}
		return &covariance, nil
	case config.UncertaintyToys:
		if configuration.Uncertainty.Toys == 0 {
			logger.Info(toysSkippedMessageConstant, zap.Int(logFieldToysConstant, 0))
			return nil, nil
		}
		sampler, samplerError := toys.NewSampler(configuration.Uncertainty.Distribution, service.toySeed)
		if samplerError != nil {
			return nil, samplerError
		}
		covariance, toysError := RunToys(executionContext, logger, service.unfolder, sampler, normalized, nominal, ToySettings{
			Count:              configuration.Uncertainty.Toys,
			Luminosity:         configuration.Luminosity,
			SubtractBackground: configuration.SubtractsBackground(),
		})
		if toysError != nil {
			return nil, toysError
		}
		return &covariance, nil
	default:
		return nil, nil
	}
}
