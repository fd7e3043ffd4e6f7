package spectrum_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/xsec/internal/spectrum"
	"github.com/temirov/xsec/internal/unfolding"
)

func testCommandConfiguration() spectrum.CommandConfiguration {
	configuration := spectrum.DefaultCommandConfiguration()
	configuration.Backends = map[string]unfolding.DriverConfiguration{
		" RooUnfold ": {Executable: testDriverExecutableConstant},
		"qunfold":     {},
	}
	return configuration
}

func TestRunCommandWritesOutput(testInstance *testing.T) {
	inputPath := writeInputs(testInstance)
	configurationPath := writeRunConfiguration(testInstance, inputPath, "h_background", "none", 10)
	outputPath := filepath.Join(testInstance.TempDir(), testOutputFileNameConstant)
	executor := &identityDriverExecutor{}

	builder := spectrum.CommandBuilder{
		LoggerProvider:        func() *zap.Logger { return zap.NewNop() },
		ConfigurationProvider: testCommandConfiguration,
		Executor:              executor,
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetErr(&bytes.Buffer{})
	command.SetContext(context.Background())
	command.SetArgs([]string{"--config", configurationPath, "--output", outputPath, "--systematic", "nominal"})

	require.NoError(testInstance, command.Execute())
	require.Equal(testInstance, 1, executor.invocations)
	require.Contains(testInstance, outputBuffer.String(), outputPath)
	require.FileExists(testInstance, outputPath)
}

func TestRunCommandRejectsInvalidInvocations(testInstance *testing.T) {
	testCases := []struct {
		name      string
		arguments []string
	}{
		{name: "positional_arguments", arguments: []string{"extra"}},
		{name: "missing_configuration", arguments: []string{"--output", "result.root"}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &identityDriverExecutor{}
			builder := spectrum.CommandBuilder{ConfigurationProvider: testCommandConfiguration, Executor: executor}
			command, buildError := builder.Build()
			require.NoError(testInstance, buildError)

			command.SetOut(&bytes.Buffer{})
			command.SetErr(&bytes.Buffer{})
			command.SetContext(context.Background())
			command.SetArgs(testCase.arguments)

			require.Error(testInstance, command.Execute())
			require.Zero(testInstance, executor.invocations)
		})
	}
}

func TestRunCommandReportsUnconfiguredBackend(testInstance *testing.T) {
	inputPath := writeInputs(testInstance)
	configurationPath := writeRunConfiguration(testInstance, inputPath, "", "none", 10)
	outputPath := filepath.Join(testInstance.TempDir(), testOutputFileNameConstant)

	builder := spectrum.CommandBuilder{Executor: &identityDriverExecutor{}}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)
	command.SetOut(&bytes.Buffer{})
	command.SetErr(&bytes.Buffer{})
	command.SetContext(context.Background())
	command.SetArgs([]string{"--config", configurationPath, "--output", outputPath})

	executionError := command.Execute()
	var backendError unfolding.BackendError
	require.ErrorAs(testInstance, executionError, &backendError)
	require.ErrorIs(testInstance, executionError, unfolding.ErrBackendNotRegistered)
	require.NoFileExists(testInstance, outputPath)
}

func TestRunCommandHelpDescribesDriverContract(testInstance *testing.T) {
	builder := spectrum.CommandBuilder{LoggerProvider: func() *zap.Logger { return zap.NewNop() }}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	for _, expected := range []string{"backends.roounfold", "xsec-qunfold-driver", "protocol 1", "error_mode", "x_edges"} {
		require.Contains(testInstance, command.Long, expected)
	}
}
