package flags

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestFormatChoiceUsage(t *testing.T) {
	testCases := []struct {
		name           string
		defaultChoice  string
		choices        []string
		description    string
		expectedOutput string
	}{
		{
			name:           "DefaultFirstChoice",
			defaultChoice:  "structured",
			choices:        []string{"structured", "console"},
			description:    "Log encoding.",
			expectedOutput: "`<STRUCTURED|console>` Log encoding.",
		},
		{
			name:           "DefaultSecondChoice",
			defaultChoice:  "console",
			choices:        []string{"structured", "console"},
			description:    "Log encoding.",
			expectedOutput: "`<structured|CONSOLE>` Log encoding.",
		},
		{
			name:           "EmptyDescription",
			defaultChoice:  "info",
			choices:        []string{"debug", "info"},
			description:    "",
			expectedOutput: "`<debug|INFO>`",
		},
		{
			name:           "DuplicateChoicesIgnored",
			defaultChoice:  "warn",
			choices:        []string{"warn", "warn", "error", "error"},
			description:    "Severity.",
			expectedOutput: "`<WARN|error>` Severity.",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			actual := FormatChoiceUsage(testCase.defaultChoice, testCase.choices, testCase.description)
			require.Equal(t, testCase.expectedOutput, actual)
		})
	}
}

func TestChoiceValueRestrictsInput(t *testing.T) {
	selected := "structured"
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flagSet.Var(NewChoiceValue(&selected, []string{"structured", "console"}), "log-format", "")

	require.NoError(t, flagSet.Parse([]string{"--log-format", " Console "}))
	require.Equal(t, "console", selected)

	require.Error(t, flagSet.Parse([]string{"--log-format", "xml"}))
	require.Equal(t, "console", selected)
	require.Equal(t, "choice", flagSet.Lookup("log-format").Value.Type())
}
