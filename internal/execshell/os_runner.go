package execshell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"
	"time"
)

const (
	environmentAssignmentSeparatorConstant = "="
	processInterruptedTemplateConstant     = "%w after %s"
)

// OSCommandRunner starts driver processes with os/exec.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs a runner backed by os/exec.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// Run starts the process, writes StandardInput to it, and captures both output streams.
// A process stopped because executionContext ended reports the context error instead of an exit code.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	process := exec.CommandContext(executionContext, string(command.Name), slices.Clone(command.Details.Arguments)...)
	process.Dir = command.Details.WorkingDirectory
	process.Env = mergeEnvironment(os.Environ(), command.Details.EnvironmentVariables)
	process.Stdin = bytes.NewReader(command.Details.StandardInput)

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer
	process.Stdout = &standardOutputBuffer
	process.Stderr = &standardErrorBuffer

	startTime := time.Now()
	runError := process.Run()
	result := ExecutionResult{
		StandardOutput: standardOutputBuffer.String(),
		StandardError:  standardErrorBuffer.String(),
		Duration:       time.Since(startTime),
	}

	if runError == nil {
		return result, nil
	}
	if contextError := executionContext.Err(); contextError != nil {
		return ExecutionResult{}, fmt.Errorf(processInterruptedTemplateConstant, contextError, result.Duration.Round(time.Millisecond))
	}

	exitError := &exec.ExitError{}
	if errors.As(runError, &exitError) {
		result.ExitCode = exitError.ExitCode()
		return result, nil
	}
	return ExecutionResult{}, runError
}

// mergeEnvironment returns nil (inherit) without overrides; otherwise the base environment with
// overridden keys replaced and the overrides appended in key order.
func mergeEnvironment(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return nil
	}

	merged := make([]string, 0, len(base)+len(overrides))
	for _, assignment := range base {
		key, _, _ := strings.Cut(assignment, environmentAssignmentSeparatorConstant)
		if _, overridden := overrides[key]; overridden {
			continue
		}
		merged = append(merged, assignment)
	}

	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		merged = append(merged, key+environmentAssignmentSeparatorConstant+overrides[key])
	}
	return merged
}
