package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/temirov/xsec/internal/config"
	"github.com/temirov/xsec/internal/spectrum"
	flagutils "github.com/temirov/xsec/internal/utils/flags"
)

const (
	inspectCommandUseConstant          = "inspect"
	inspectCommandShortConstant        = "Print the parsed unfolding configuration"
	inspectCommandLongConstant         = "inspect loads an XML unfolding configuration, expands the systematic placeholder, and prints the resolved settings as YAML."
	inspectConfigFlagNameConstant      = "config"
	inspectConfigFlagUsageConstant     = "Path to the XML unfolding configuration."
	inspectSystematicFlagNameConstant  = "systematic"
	inspectSystematicFlagUsageConstant = "Systematic name substituted into histogram paths."
	inspectUnexpectedArgumentsMessage  = "inspect does not accept positional arguments"
	inspectEncodeErrorTemplateConstant = "unable to encode configuration: %w"
	inspectLoggedMessageConstant       = "configuration inspected"
	inspectLogFieldPathConstant        = "config_path"
	inspectLogFieldMethodConstant      = "method"
	inspectLogFieldSystematicConstant  = "systematic"
	inspectMissingConfigurationMessage = "configuration path must be provided"
	inspectFormatFlagNameConstant      = "format"
	inspectFormatFlagUsageConstant     = "Output format for the resolved configuration."
	inspectFormatYAMLConstant          = "yaml"
	inspectFormatXMLConstant           = "xml"
)

var (
	errInspectUnexpectedArguments  = errors.New(inspectUnexpectedArgumentsMessage)
	errInspectMissingConfiguration = errors.New(inspectMissingConfigurationMessage)
)

// InspectCommandBuilder assembles the inspect command.
type InspectCommandBuilder struct {
	LoggerProvider func() *zap.Logger
}

type inspectOptions struct {
	configurationPath string
	systematic        string
	format            string
}

type sourceView struct {
	File string `yaml:"file"`
	Path string `yaml:"path"`
}

type unfoldingView struct {
	Family                  string `yaml:"family"`
	Method                  string `yaml:"method"`
	Regularization          int    `yaml:"regularization"`
	StatisticalError        string `yaml:"stat_err"`
	UncertaintyMode         string `yaml:"uncertainty_mode"`
	UncertaintyDistribution string `yaml:"uncertainty_distribution,omitempty"`
	Toys                    int    `yaml:"toys,omitempty"`
}

type configurationView struct {
	Systematic           string        `yaml:"systematic"`
	Particle             string        `yaml:"particle,omitempty"`
	Variable             string        `yaml:"variable,omitempty"`
	Data                 sourceView    `yaml:"data"`
	Signal               sourceView    `yaml:"signal"`
	Background           *sourceView   `yaml:"background,omitempty"`
	Response             sourceView    `yaml:"response"`
	Generated            *sourceView   `yaml:"generated,omitempty"`
	Luminosity           float64       `yaml:"luminosity"`
	BranchingRatio       float64       `yaml:"branching_ratio"`
	RecoScale            float64       `yaml:"reco_scale"`
	TotalCrossSection    bool          `yaml:"total_cross_section"`
	EfficiencyCorrection bool          `yaml:"efficiency_correction"`
	TransposeResponse    bool          `yaml:"transpose_response"`
	Unfolding            unfoldingView `yaml:"unfolding"`
}

// Build constructs the inspect command.
func (builder InspectCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   inspectCommandUseConstant,
		Short: inspectCommandShortConstant,
		Long:  inspectCommandLongConstant,
		RunE:  builder.run,
	}

	command.Flags().String(inspectConfigFlagNameConstant, "", inspectConfigFlagUsageConstant)
	command.Flags().String(inspectSystematicFlagNameConstant, spectrum.DefaultSystematic, inspectSystematicFlagUsageConstant)
	formatValue := inspectFormatYAMLConstant
	formatChoices := []string{inspectFormatYAMLConstant, inspectFormatXMLConstant}
	command.Flags().Var(
		flagutils.NewChoiceValue(&formatValue, formatChoices),
		inspectFormatFlagNameConstant,
		flagutils.FormatChoiceUsage(inspectFormatYAMLConstant, formatChoices, inspectFormatFlagUsageConstant),
	)

	return command, nil
}

func (builder InspectCommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errInspectUnexpectedArguments
	}

	options := builder.parseOptions(command)
	if len(options.configurationPath) == 0 {
		return config.ConfigError{Cause: errInspectMissingConfiguration}
	}

	configuration, loadError := config.Load(options.configurationPath, options.systematic)
	if loadError != nil {
		return loadError
	}

	encoded, encodeError := encodeConfiguration(configuration, options.format)
	if encodeError != nil {
		return encodeError
	}

	builder.resolveLogger().Debug(
		inspectLoggedMessageConstant,
		zap.String(inspectLogFieldPathConstant, options.configurationPath),
		zap.String(inspectLogFieldMethodConstant, configuration.Method.String()),
		zap.String(inspectLogFieldSystematicConstant, configuration.Systematic),
	)

	_, writeError := command.OutOrStdout().Write(encoded)
	return writeError
}

func (builder InspectCommandBuilder) parseOptions(command *cobra.Command) inspectOptions {
	configurationPath, _ := command.Flags().GetString(inspectConfigFlagNameConstant)
	systematic, _ := command.Flags().GetString(inspectSystematicFlagNameConstant)
	format := inspectFormatYAMLConstant
	if formatFlag := command.Flags().Lookup(inspectFormatFlagNameConstant); formatFlag != nil {
		format = formatFlag.Value.String()
	}
	return inspectOptions{
		configurationPath: strings.TrimSpace(configurationPath),
		systematic:        systematic,
		format:            format,
	}
}

func encodeConfiguration(configuration config.Configuration, format string) ([]byte, error) {
	if format == inspectFormatXMLConstant {
		return config.Marshal(configuration)
	}
	encoded, encodeError := yaml.Marshal(newConfigurationView(configuration))
	if encodeError != nil {
		return nil, fmt.Errorf(inspectEncodeErrorTemplateConstant, encodeError)
	}
	return encoded, nil
}

func (builder InspectCommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func newConfigurationView(configuration config.Configuration) configurationView {
	view := configurationView{
		Systematic:           configuration.Systematic,
		Particle:             configuration.Particle,
		Variable:             configuration.Variable,
		Data:                 newSourceView(configuration.Data),
		Signal:               newSourceView(configuration.Signal),
		Response:             newSourceView(configuration.Response),
		Luminosity:           configuration.Luminosity,
		BranchingRatio:       configuration.BranchingRatio,
		RecoScale:            configuration.RecoScale,
		TotalCrossSection:    configuration.TotalCrossSection,
		EfficiencyCorrection: configuration.EfficiencyCorrection,
		TransposeResponse:    configuration.TransposeResponse,
		Unfolding: unfoldingView{
			Family:                  string(configuration.Method.Family),
			Method:                  configuration.Method.String(),
			Regularization:          configuration.Regularization,
			StatisticalError:        configuration.StatisticalError,
			UncertaintyMode:         string(configuration.Uncertainty.Mode),
			UncertaintyDistribution: string(configuration.Uncertainty.Distribution),
			Toys:                    configuration.Uncertainty.Toys,
		},
	}
	if configuration.SubtractsBackground() {
		background := newSourceView(configuration.Background)
		view.Background = &background
	}
	if !configuration.Generated.IsEmpty() {
		generated := newSourceView(configuration.Generated)
		view.Generated = &generated
	}
	return view
}

func newSourceView(source config.HistogramSource) sourceView {
	return sourceView{File: source.File, Path: source.Path}
}
