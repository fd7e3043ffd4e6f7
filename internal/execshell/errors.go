package execshell

import (
	"errors"
	"fmt"
)

const (
	loggerNotConfiguredMessageConstant        = "shell executor logger not configured"
	commandRunnerNotConfiguredMessageConstant = "shell executor command runner not configured"
	commandFailedTemplateConstant             = "%s exited with code %d"
	commandFailedWithOutputTemplateConstant   = "%s exited with code %d: %s"
	commandExecutionTemplateConstant          = "%s could not be executed: %v"
)

// ErrLoggerNotConfigured indicates that a ShellExecutor was created without a logger.
var ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)

// ErrCommandRunnerNotConfigured indicates that a ShellExecutor was created without a runner.
var ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)

// CommandFailedError reports a command that ran to completion with a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command and the last line of its standard error.
func (failure CommandFailedError) Error() string {
	diagnostic := LastDiagnosticLine(failure.Result.StandardError)
	if len(diagnostic) == 0 {
		return fmt.Sprintf(commandFailedTemplateConstant, failure.Command.Name, failure.Result.ExitCode)
	}
	return fmt.Sprintf(commandFailedWithOutputTemplateConstant, failure.Command.Name, failure.Result.ExitCode, diagnostic)
}

// CommandExecutionError reports a command that could not be started or was interrupted.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (failure CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionTemplateConstant, failure.Command.Name, failure.Cause)
}

// Unwrap exposes the underlying cause.
func (failure CommandExecutionError) Unwrap() error {
	return failure.Cause
}
