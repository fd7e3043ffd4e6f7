package comparison

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/xsec/internal/histio"
)

const (
	commandUseConstant                 = "compare"
	commandShortDescriptionConstant    = "Compare unfolded cross sections against a truth spectrum"
	commandLongDescriptionConstant     = "compare reads AbsoluteDiffXs from each result file, compares it with the truth spectrum, and prints chi2 and triangular discriminator values."
	unexpectedArgumentsMessageConstant = "compare does not accept positional arguments"
	flagFirstNameConstant              = "first"
	flagFirstUsageConstant             = "First result file"
	flagFirstLabelNameConstant         = "first-label"
	flagFirstLabelUsageConstant        = "Label of the first result (default: file name)"
	flagSecondNameConstant             = "second"
	flagSecondUsageConstant            = "Second result file"
	flagSecondLabelNameConstant        = "second-label"
	flagSecondLabelUsageConstant       = "Label of the second result (default: file name)"
	flagTruthNameConstant              = "truth"
	flagTruthUsageConstant             = "ROOT file holding the truth spectrum"
	flagTruthPathNameConstant          = "truth-path"
	flagTruthPathUsageConstant         = "Object path of the truth spectrum"
	flagCovarianceNameConstant         = "covariance"
	flagCovarianceUsageConstant        = "Also compute chi2 with the stored Covariance_abs"
	flagPlotNameConstant               = "plot"
	flagPlotUsageConstant              = "Write an overlay plot (format from extension: png, svg, pdf)"
)

var errUnexpectedArguments = errors.New(unexpectedArgumentsMessageConstant)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the compare command.
type CommandBuilder struct {
	LoggerProvider LoggerProvider
	Reader         ResultReader
}

// Build constructs the compare command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().String(flagFirstNameConstant, "", flagFirstUsageConstant)
	command.Flags().String(flagFirstLabelNameConstant, "", flagFirstLabelUsageConstant)
	command.Flags().String(flagSecondNameConstant, "", flagSecondUsageConstant)
	command.Flags().String(flagSecondLabelNameConstant, "", flagSecondLabelUsageConstant)
	command.Flags().String(flagTruthNameConstant, "", flagTruthUsageConstant)
	command.Flags().String(flagTruthPathNameConstant, DefaultTruthObject, flagTruthPathUsageConstant)
	command.Flags().Bool(flagCovarianceNameConstant, false, flagCovarianceUsageConstant)
	command.Flags().String(flagPlotNameConstant, "", flagPlotUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errUnexpectedArguments
	}

	logger := builder.resolveLogger()
	service, serviceError := NewService(logger, builder.resolveReader(logger), command.OutOrStdout())
	if serviceError != nil {
		return serviceError
	}

	_, runError := service.Run(command.Context(), builder.parseOptions(command))
	return runError
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) Options {
	firstPath, _ := command.Flags().GetString(flagFirstNameConstant)
	firstLabel, _ := command.Flags().GetString(flagFirstLabelNameConstant)
	secondPath, _ := command.Flags().GetString(flagSecondNameConstant)
	secondLabel, _ := command.Flags().GetString(flagSecondLabelNameConstant)
	truthPath, _ := command.Flags().GetString(flagTruthNameConstant)
	truthObject, _ := command.Flags().GetString(flagTruthPathNameConstant)
	useCovariance, _ := command.Flags().GetBool(flagCovarianceNameConstant)
	plotPath, _ := command.Flags().GetString(flagPlotNameConstant)

	results := make([]ResultSource, 0, 2)
	for _, source := range []ResultSource{{Label: firstLabel, Path: firstPath}, {Label: secondLabel, Path: secondPath}} {
		source.Path = strings.TrimSpace(source.Path)
		if len(source.Path) == 0 {
			continue
		}
		results = append(results, source)
	}

	return Options{
		Results:       results,
		TruthPath:     strings.TrimSpace(truthPath),
		TruthObject:   strings.TrimSpace(truthObject),
		UseCovariance: useCovariance,
		PlotPath:      strings.TrimSpace(plotPath),
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

func (builder *CommandBuilder) resolveReader(logger *zap.Logger) ResultReader {
	if builder.Reader != nil {
		return builder.Reader
	}
	return histio.NewReader(logger)
}
