package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/xsec/internal/comparison"
	"github.com/temirov/xsec/internal/execshell"
	"github.com/temirov/xsec/internal/spectrum"
	"github.com/temirov/xsec/internal/ui"
	"github.com/temirov/xsec/internal/unfolding"
	"github.com/temirov/xsec/internal/utils"
	flagutils "github.com/temirov/xsec/internal/utils/flags"
)

const (
	applicationNameConstant                 = "xsec"
	applicationShortDescriptionConstant     = "Differential cross sections from unfolded spectra"
	applicationLongDescriptionConstant      = "xsec unfolds measured spectra with RooUnfold or QUnfold drivers and derives absolute and relative differential cross sections."
	applicationConfigFlagNameConstant       = "app-config"
	applicationConfigFlagUsageConstant      = "Optional path to an application configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	toysSeedConfigKeyConstant               = "toys.seed"
	environmentPrefixConstant               = "XSEC"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationBackendsFieldConstant      = "backends"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	rootCommandInfoMessageConstant          = "xsec CLI executed"
	rootCommandDebugMessageConstant         = "xsec CLI diagnostics"
	logFieldCommandNameConstant             = "command_name"
	logFieldArgumentCountConstant           = "argument_count"
	logFieldArgumentsConstant               = "arguments"
	logFieldRunIdentifierConstant           = "run_id"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	defaultConfigurationSearchPathConstant  = "."
)

// Version is the application version reported by --version. Release builds override it with -ldflags.
var Version = "dev"

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common   ApplicationCommonConfiguration           `mapstructure:"common"`
	Backends map[string]unfolding.DriverConfiguration `mapstructure:"backends"`
	Toys     spectrum.ToyConfiguration                `mapstructure:"toys"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	consoleLogger          *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	commandContextAccessor utils.CommandContextAccessor
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		consoleLogger:          zap.NewNop(),
		logLevelFlagValue:      string(utils.LogLevelInfo),
		logFormatFlagValue:     string(utils.LogFormatStructured),
		commandContextAccessor: utils.NewCommandContextAccessor(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, applicationConfigFlagNameConstant, "", applicationConfigFlagUsageConstant)
	cobraCommand.PersistentFlags().Var(
		flagutils.NewChoiceValue(&application.logLevelFlagValue, utils.SupportedLogLevels()),
		logLevelFlagNameConstant,
		flagutils.FormatChoiceUsage(string(utils.LogLevelInfo), utils.SupportedLogLevels(), logLevelFlagUsageConstant),
	)
	cobraCommand.PersistentFlags().Var(
		flagutils.NewChoiceValue(&application.logFormatFlagValue, utils.SupportedLogFormats()),
		logFormatFlagNameConstant,
		flagutils.FormatChoiceUsage(string(utils.LogFormatStructured), utils.SupportedLogFormats(), logFormatFlagUsageConstant),
	)

	runBuilder := spectrum.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ConfigurationProvider: func() spectrum.CommandConfiguration {
			return spectrum.CommandConfiguration{Backends: application.configuration.Backends, Toys: application.configuration.Toys}
		},
		CommandEventsObserverProvider: application.commandEventsObserver,
	}
	runCommand, runBuildError := runBuilder.Build()
	if runBuildError == nil {
		cobraCommand.AddCommand(runCommand)
	}

	compareBuilder := comparison.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
	}
	compareCommand, compareBuildError := compareBuilder.Build()
	if compareBuildError == nil {
		cobraCommand.AddCommand(compareCommand)
	}

	inspectBuilder := InspectCommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
	}
	inspectCommand, inspectBuildError := inspectBuilder.Build()
	if inspectBuildError == nil {
		cobraCommand.AddCommand(inspectCommand)
	}

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatStructured),
		toysSeedConfigKeyConstant:        spectrum.DefaultCommandConfiguration().Toys.Seed,
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	loggerOutputs, loggerCreationError := application.loggerFactory.CreateLoggerOutputs(
		utils.LogLevel(strings.ToLower(strings.TrimSpace(application.configuration.Common.LogLevel))),
		utils.LogFormat(strings.ToLower(strings.TrimSpace(application.configuration.Common.LogFormat))),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	executionContext := application.commandContextAccessor.WithRunIdentifier(command.Context())
	executionContext = application.commandContextAccessor.WithConfigurationFilePath(executionContext, application.configurationMetadata.ConfigFileUsed)
	runIdentifier, _ := application.commandContextAccessor.RunIdentifier(executionContext)

	application.logger = loggerOutputs.DiagnosticLogger.With(zap.String(logFieldRunIdentifierConstant, runIdentifier))
	application.consoleLogger = loggerOutputs.ConsoleLogger

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.Int(configurationBackendsFieldConstant, len(application.configuration.Backends)),
	)

	command.SetContext(executionContext)
	if rootCommand := command.Root(); rootCommand != nil {
		rootCommand.SetContext(executionContext)
	}

	return nil
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) commandEventsObserver() execshell.CommandEventObserver {
	if !application.humanReadableLoggingEnabled() {
		return nil
	}
	return ui.NewConsoleCommandEventLogger(application.consoleLogger)
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	application.logger.Info(
		rootCommandInfoMessageConstant,
		zap.String(logFieldCommandNameConstant, command.Name()),
		zap.Int(logFieldArgumentCountConstant, len(arguments)),
	)

	application.logger.Debug(
		rootCommandDebugMessageConstant,
		zap.Strings(logFieldArgumentsConstant, arguments),
	)

	if len(arguments) == 0 {
		return command.Help()
	}

	return nil
}

func (application *Application) flushLogger() error {
	for _, logger := range []*zap.Logger{application.logger, application.consoleLogger} {
		if syncError := application.syncLoggerInstance(logger); syncError != nil {
			return syncError
		}
	}
	return nil
}

func (application *Application) syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
