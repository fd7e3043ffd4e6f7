package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/xsec/internal/config"
)

const (
	testRunConfigurationFileNameConstant = "run.xml"
	testRunConfigurationConstant         = `<config>
  <data file="inputs/{systematic}/data.root" hpath="h_data"/>
  <sig file="inputs/{systematic}/signal.root" hpath="h_signal"/>
  <bkg file="inputs/{systematic}/background.root" hpath="h_background"/>
  <res file="inputs/{systematic}/signal.root" hpath="h_response"/>
  <gen file="inputs/{systematic}/signal.root" hpath="h_generated"/>
  <lumi value="2"/>
  <unfolding method="Bayes" statErr="analytical"/>
</config>
`
	testApplicationConfigurationFileNameConstant = "xsec.yaml"
	testApplicationConfigurationConstant         = `backends:
  roounfold:
    executable: /opt/xsec/roounfold-driver
    timeout: 30s
    arguments: --batch,--quiet
toys:
  seed: 11
`
)

func writeTestFile(testInstance *testing.T, name string, contents string) string {
	testInstance.Helper()
	filePath := filepath.Join(testInstance.TempDir(), name)
	require.NoError(testInstance, os.WriteFile(filePath, []byte(contents), 0o600))
	return filePath
}

func executeApplication(testInstance *testing.T, arguments ...string) (*Application, string, error) {
	testInstance.Helper()
	application := NewApplication()
	outputBuffer := &bytes.Buffer{}
	application.rootCommand.SetOut(outputBuffer)
	application.rootCommand.SetErr(&bytes.Buffer{})
	application.rootCommand.SetArgs(arguments)
	executionError := application.rootCommand.Execute()
	return application, outputBuffer.String(), executionError
}

func TestApplicationRegistersCommands(testInstance *testing.T) {
	application := NewApplication()
	registered := map[string]bool{}
	for _, command := range application.rootCommand.Commands() {
		registered[command.Name()] = true
	}
	for _, expectedCommand := range []string{"run", "compare", "inspect"} {
		require.True(testInstance, registered[expectedCommand], expectedCommand)
	}
}

func TestApplicationVersionFlag(testInstance *testing.T) {
	_, output, executionError := executeApplication(testInstance, "--version")
	require.NoError(testInstance, executionError)
	require.Contains(testInstance, output, "xsec version "+Version)
}

func TestApplicationConfigurationSources(testInstance *testing.T) {
	runConfigurationPath := writeTestFile(testInstance, testRunConfigurationFileNameConstant, testRunConfigurationConstant)

	testCases := []struct {
		name                 string
		environment          map[string]string
		useApplicationConfig bool
		extraArguments       []string
		expectedLogLevel     string
		expectedLogFormat    string
		expectedExecutable   string
		expectedTimeout      time.Duration
		expectedArguments    []string
		expectedSeed         uint64
		expectObserver       bool
	}{
		{
			name:               "embedded_defaults",
			expectedLogLevel:   "info",
			expectedLogFormat:  "structured",
			expectedExecutable: "xsec-roounfold-driver",
			expectedSeed:       4357,
		},
		{
			name:                 "application_file",
			useApplicationConfig: true,
			expectedLogLevel:     "info",
			expectedLogFormat:    "structured",
			expectedExecutable:   "/opt/xsec/roounfold-driver",
			expectedTimeout:      30 * time.Second,
			expectedArguments:    []string{"--batch", "--quiet"},
			expectedSeed:         11,
		},
		{
			name:               "flag_overrides",
			extraArguments:     []string{"--log-level", "debug", "--log-format", "console"},
			expectedLogLevel:   "debug",
			expectedLogFormat:  "console",
			expectedExecutable: "xsec-roounfold-driver",
			expectedSeed:       4357,
			expectObserver:     true,
		},
		{
			name:               "environment_overrides",
			environment:        map[string]string{"XSEC_COMMON_LOG_LEVEL": "warn", "XSEC_TOYS_SEED": "99"},
			expectedLogLevel:   "warn",
			expectedLogFormat:  "structured",
			expectedExecutable: "xsec-roounfold-driver",
			expectedSeed:       99,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			for environmentKey, environmentValue := range testCase.environment {
				testInstance.Setenv(environmentKey, environmentValue)
			}

			arguments := append([]string{}, testCase.extraArguments...)
			if testCase.useApplicationConfig {
				applicationConfigurationPath := writeTestFile(testInstance, testApplicationConfigurationFileNameConstant, testApplicationConfigurationConstant)
				arguments = append(arguments, "--app-config", applicationConfigurationPath)
			}
			arguments = append(arguments, "inspect", "--config", runConfigurationPath)

			application, _, executionError := executeApplication(testInstance, arguments...)
			require.NoError(testInstance, executionError)

			configuration := application.configuration
			require.Equal(testInstance, testCase.expectedLogLevel, configuration.Common.LogLevel)
			require.Equal(testInstance, testCase.expectedLogFormat, configuration.Common.LogFormat)
			require.Equal(testInstance, testCase.expectedSeed, configuration.Toys.Seed)

			roounfold := configuration.Backends["roounfold"]
			require.Equal(testInstance, testCase.expectedExecutable, roounfold.Executable)
			require.Equal(testInstance, testCase.expectedTimeout, roounfold.Timeout)
			if testCase.expectedArguments != nil {
				require.Equal(testInstance, testCase.expectedArguments, roounfold.Arguments)
			}
			require.Equal(testInstance, "xsec-qunfold-driver", configuration.Backends["qunfold"].Executable)

			if testCase.expectObserver {
				require.NotNil(testInstance, application.commandEventsObserver())
			} else {
				require.Nil(testInstance, application.commandEventsObserver())
			}
		})
	}
}

func TestInspectPrintsResolvedConfiguration(testInstance *testing.T) {
	runConfigurationPath := writeTestFile(testInstance, testRunConfigurationFileNameConstant, testRunConfigurationConstant)

	_, output, executionError := executeApplication(testInstance, "inspect", "--config", runConfigurationPath, "--systematic", "JES_up")
	require.NoError(testInstance, executionError)

	var printed map[string]any
	require.NoError(testInstance, yaml.Unmarshal([]byte(output), &printed))
	require.Equal(testInstance, "JES_up", printed["systematic"])
	require.Equal(testInstance, map[string]any{"file": "inputs/JES_up/background.root", "path": "h_background"}, printed["background"])

	unfoldingSection, isMap := printed["unfolding"].(map[string]any)
	require.True(testInstance, isMap)
	require.Equal(testInstance, "roounfold", unfoldingSection["family"])
	require.Equal(testInstance, "Bayes", unfoldingSection["method"])
	require.Equal(testInstance, "analytical", unfoldingSection["uncertainty_mode"])
}

func TestInspectXMLOutputLoadsBack(testInstance *testing.T) {
	runConfigurationPath := writeTestFile(testInstance, testRunConfigurationFileNameConstant, testRunConfigurationConstant)

	_, output, executionError := executeApplication(testInstance, "inspect", "--config", runConfigurationPath, "--format", "xml")
	require.NoError(testInstance, executionError)

	reparsed, parseError := config.Parse([]byte(output), "nominal")
	require.NoError(testInstance, parseError)
	require.Equal(testInstance, "inputs/nominal/data.root", reparsed.Data.File)
	require.Equal(testInstance, "Bayes", reparsed.Method.String())
	require.InDelta(testInstance, 2.0, reparsed.Luminosity, 1e-12)
}

func TestInspectFailures(testInstance *testing.T) {
	malformedPath := writeTestFile(testInstance, testRunConfigurationFileNameConstant, "<config><data")

	testCases := []struct {
		name              string
		arguments         []string
		expectConfigError bool
	}{
		{name: "missing_configuration_flag", arguments: []string{"inspect"}, expectConfigError: true},
		{name: "malformed_configuration", arguments: []string{"inspect", "--config", malformedPath}, expectConfigError: true},
		{name: "missing_configuration_file", arguments: []string{"inspect", "--config", filepath.Join(testInstance.TempDir(), "absent.xml")}, expectConfigError: true},
		{name: "unsupported_format", arguments: []string{"inspect", "--config", malformedPath, "--format", "json"}},
		{name: "positional_arguments", arguments: []string{"inspect", "extra"}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			_, _, executionError := executeApplication(testInstance, testCase.arguments...)
			require.Error(testInstance, executionError)

			var configError config.ConfigError
			require.Equal(testInstance, testCase.expectConfigError, errors.As(executionError, &configError))
		})
	}
}

func TestApplicationRejectsUnknownLogLevel(testInstance *testing.T) {
	_, _, executionError := executeApplication(testInstance, "--log-level", "verbose", "inspect")
	require.Error(testInstance, executionError)
}
