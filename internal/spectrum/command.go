package spectrum

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/xsec/internal/execshell"
	"github.com/temirov/xsec/internal/histio"
	"github.com/temirov/xsec/internal/unfolding"
	"github.com/temirov/xsec/internal/utils"
)

const (
	commandUseConstant              = "run"
	commandShortDescriptionConstant = "Unfold a spectrum and derive differential cross sections"
	commandLongDescriptionConstant  = `run loads an XML unfolding configuration, subtracts backgrounds, unfolds the corrected data with the configured backend and writes the differential cross sections to a ROOT file.

Unfolding is delegated to external driver executables configured under backends.roounfold and backends.qunfold
(defaults xsec-roounfold-driver and xsec-qunfold-driver, looked up on PATH). xsec does not ship them; any program
honouring driver protocol 1 can serve:

  stdin   one JSON object: protocol (1), method, solver, regularization, error_mode ("none" or "covariance"), toys,
          measured, reco and truth histograms as {edges, contents, errors}, and the response as
          {x_edges, y_edges, contents, errors} with contents indexed [iy*nx + ix].
  stdout  one JSON object: unfolded {edges, contents, errors} on the particle-level binning, covariance when
          error_mode is "covariance", or error with a message when unfolding fails.
  exit    zero when a document was written; any other status is reported as a backend failure with the last stderr line.`
	unexpectedArgumentsMessageConstant = "run does not accept positional arguments"
	flagConfigurationNameConstant      = "config"
	flagConfigurationUsageConstant     = "Path to the XML unfolding configuration"
	flagOutputNameConstant             = "output"
	flagOutputUsageConstant            = "Path of the ROOT file to create (default {systematic}_{method}_{regularization}_DiffXs.root)"
	flagSystematicNameConstant         = "systematic"
	flagSystematicUsageConstant        = "Systematic variation to unfold"
	runSummaryTemplateConstant         = "%s\ttotal=%g +- %g\n"
)

var errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the application configuration for the run command.
type ConfigurationProvider func() CommandConfiguration

// CommandEventsObserverProvider returns the observer of backend driver processes, or nil.
type CommandEventsObserverProvider func() execshell.CommandEventObserver

// CommandBuilder assembles the run command.
type CommandBuilder struct {
	LoggerProvider                LoggerProvider
	ConfigurationProvider         ConfigurationProvider
	CommandEventsObserverProvider CommandEventsObserverProvider
	Executor                      unfolding.CommandExecutor
}

// Build constructs the run command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().String(flagConfigurationNameConstant, "", flagConfigurationUsageConstant)
	command.Flags().String(flagOutputNameConstant, "", flagOutputUsageConstant)
	command.Flags().String(flagSystematicNameConstant, DefaultSystematic, flagSystematicUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	options := builder.parseOptions(command)
	logger := builder.resolveLogger()
	configuration := builder.resolveConfiguration()

	executor, executorError := builder.resolveExecutor(logger)
	if executorError != nil {
		return executorError
	}
	dispatcher, dispatcherError := unfolding.NewDriverDispatcher(configuration.driverConfigurations(), executor)
	if dispatcherError != nil {
		return dispatcherError
	}
	adapter, adapterError := unfolding.NewAdapter(logger, dispatcher)
	if adapterError != nil {
		return adapterError
	}

	service, serviceError := NewService(ServiceDependencies{
		Logger:   logger,
		Loader:   histio.NewLoader(logger),
		Writer:   histio.NewWriter(logger),
		Unfolder: adapter,
		ToySeed:  configuration.Toys.Seed,
	})
	if serviceError != nil {
		return serviceError
	}

	executionContext := utils.NewCommandContextAccessor().WithRunIdentifier(command.Context())
	result, runError := service.Run(executionContext, options)
	if runError != nil {
		return runError
	}

	fmt.Fprintf(command.OutOrStdout(), runSummaryTemplateConstant, result.OutputPath, result.CrossSections.Total, result.CrossSections.TotalError)
	return nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) Options {
	configurationPath, _ := command.Flags().GetString(flagConfigurationNameConstant)
	outputPath, _ := command.Flags().GetString(flagOutputNameConstant)
	systematic, _ := command.Flags().GetString(flagSystematicNameConstant)

	return Options{
		ConfigurationPath: strings.TrimSpace(configurationPath),
		OutputPath:        strings.TrimSpace(outputPath),
		Systematic:        strings.TrimSpace(systematic),
	}
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider()
}

func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger) (unfolding.CommandExecutor, error) {
	if builder.Executor != nil {
		return builder.Executor, nil
	}

	observers := []execshell.CommandEventObserver{}
	if builder.CommandEventsObserverProvider != nil {
		observers = append(observers, builder.CommandEventsObserverProvider())
	}
	shellExecutor, creationError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), observers...)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}
