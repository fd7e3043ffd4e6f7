package ui

import (
	"go.uber.org/zap"

	"github.com/temirov/xsec/internal/execshell"
)

// ConsoleCommandEventLogger prints one human-readable line per unfolding driver event.
// It is attached only when the console log format is selected.
type ConsoleCommandEventLogger struct {
	logger    *zap.Logger
	formatter execshell.CommandMessageFormatter
}

// NewConsoleCommandEventLogger constructs an event logger writing to logger; nil discards output.
func NewConsoleCommandEventLogger(logger *zap.Logger) *ConsoleCommandEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleCommandEventLogger{logger: logger}
}

// CommandStarted announces a driver invocation.
func (eventLogger *ConsoleCommandEventLogger) CommandStarted(command execshell.ShellCommand) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Info(eventLogger.formatter.BuildStartedMessage(command))
}

// CommandCompleted reports the driver exit: info with the elapsed time on success, warn with the
// last diagnostic line otherwise.
func (eventLogger *ConsoleCommandEventLogger) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	if eventLogger == nil {
		return
	}
	if result.ExitCode != 0 {
		eventLogger.logger.Warn(eventLogger.formatter.BuildFailureMessage(command, result))
		return
	}
	eventLogger.logger.Info(eventLogger.formatter.BuildSuccessMessage(command, result))
}

// CommandExecutionFailed reports a driver that could not start or was interrupted.
func (eventLogger *ConsoleCommandEventLogger) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Error(eventLogger.formatter.BuildExecutionFailureMessage(command, failure))
}

var _ execshell.CommandEventObserver = (*ConsoleCommandEventLogger)(nil)
