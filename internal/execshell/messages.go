package execshell

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	driverStartTemplateConstant            = "Starting driver %s"
	driverSuccessTemplateConstant          = "Driver %s finished in %s"
	driverFailureTemplateConstant          = "Driver %s exited with code %d%s"
	driverExecutionFailureTemplateConstant = "Driver %s could not run: %s"
	workingDirectorySuffixTemplateConstant = " (in %s)"
	diagnosticSuffixTemplateConstant       = ": %s"
	commandArgumentsJoinSeparatorConstant  = " "
	standardErrorLineSeparatorConstant     = "\n"
	unknownFailureMessageConstant          = "unknown error"
	durationRoundingConstant               = time.Millisecond
)

// CommandMessageFormatter builds human-readable lines for driver process lifecycle events.
// Drivers may print long diagnostics, so failure lines keep only the last line of standard error.
type CommandMessageFormatter struct{}

// BuildStartedMessage describes a driver about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return fmt.Sprintf(driverStartTemplateConstant, formatter.Label(command))
}

// BuildSuccessMessage describes a driver that exited with code zero.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand, result ExecutionResult) string {
	return fmt.Sprintf(driverSuccessTemplateConstant, formatter.Label(command), result.Duration.Round(durationRoundingConstant))
}

// BuildFailureMessage describes a driver that exited with a non-zero code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return fmt.Sprintf(driverFailureTemplateConstant, formatter.Label(command), result.ExitCode, diagnosticSuffix(LastDiagnosticLine(result.StandardError)))
}

// BuildExecutionFailureMessage describes a driver that could not be started or was interrupted.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	failureMessage := unknownFailureMessageConstant
	if failure != nil {
		failureMessage = failure.Error()
	}
	return fmt.Sprintf(driverExecutionFailureTemplateConstant, formatter.Label(command), failureMessage)
}

// Label renders the executable base name, its arguments, and the working directory.
func (formatter CommandMessageFormatter) Label(command ShellCommand) string {
	labelParts := append([]string{filepath.Base(string(command.Name))}, command.Details.Arguments...)
	label := strings.Join(labelParts, commandArgumentsJoinSeparatorConstant)
	if workingDirectory := strings.TrimSpace(command.Details.WorkingDirectory); len(workingDirectory) > 0 {
		label += fmt.Sprintf(workingDirectorySuffixTemplateConstant, workingDirectory)
	}
	return label
}

// LastDiagnosticLine returns the last non-blank line of a driver's standard error.
func LastDiagnosticLine(standardError string) string {
	lines := strings.Split(strings.TrimSpace(standardError), standardErrorLineSeparatorConstant)
	for lineIndex := len(lines) - 1; lineIndex >= 0; lineIndex-- {
		if trimmedLine := strings.TrimSpace(lines[lineIndex]); len(trimmedLine) > 0 {
			return trimmedLine
		}
	}
	return ""
}

func diagnosticSuffix(diagnostic string) string {
	if len(diagnostic) == 0 {
		return ""
	}
	return fmt.Sprintf(diagnosticSuffixTemplateConstant, diagnostic)
}
