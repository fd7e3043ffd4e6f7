package execshell

import (
	"context"

	"go.uber.org/zap"
)

const (
	logFieldCommandConstant        = "command"
	logFieldExitCodeConstant       = "exit_code"
	logFieldStandardInputConstant  = "stdin_bytes"
	logFieldStandardOutputConstant = "stdout_bytes"
	logFieldDurationConstant       = "duration"
)

// ShellExecutor runs commands through a CommandRunner and reports their lifecycle.
type ShellExecutor struct {
	logger    *zap.Logger
	runner    CommandRunner
	observer  CommandEventObserver
	formatter CommandMessageFormatter
}

// NewShellExecutor constructs a ShellExecutor. Non-nil observers receive lifecycle events in addition to the logger.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner, observers ...CommandEventObserver) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	return &ShellExecutor{logger: logger, runner: runner, observer: newObserverChain(observers), formatter: CommandMessageFormatter{}}, nil
}

// Execute runs the command. A non-zero exit code yields CommandFailedError; a runner failure yields CommandExecutionError.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	commandLabel := executor.formatter.Label(command)

	executor.observer.CommandStarted(command)
	executor.logger.Debug(
		executor.formatter.BuildStartedMessage(command),
		zap.String(logFieldCommandConstant, commandLabel),
		zap.Int(logFieldStandardInputConstant, len(command.Details.StandardInput)),
	)

	executionResult, runError := executor.runner.Run(executionContext, command)
	if runError != nil {
		executor.observer.CommandExecutionFailed(command, runError)
		executor.logger.Error(
			executor.formatter.BuildExecutionFailureMessage(command, runError),
			zap.String(logFieldCommandConstant, commandLabel),
			zap.Error(runError),
		)
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runError}
	}

	executor.observer.CommandCompleted(command, executionResult)

	if executionResult.ExitCode != 0 {
		executor.logger.Warn(
			executor.formatter.BuildFailureMessage(command, executionResult),
			zap.String(logFieldCommandConstant, commandLabel),
			zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
			zap.Duration(logFieldDurationConstant, executionResult.Duration),
		)
		return ExecutionResult{}, CommandFailedError{Command: command, Result: executionResult}
	}

	executor.logger.Debug(
		executor.formatter.BuildSuccessMessage(command, executionResult),
		zap.String(logFieldCommandConstant, commandLabel),
		zap.Int(logFieldStandardOutputConstant, len(executionResult.StandardOutput)),
		zap.Duration(logFieldDurationConstant, executionResult.Duration),
	)

	return executionResult, nil
}
