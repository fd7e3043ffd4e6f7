package execshell

import (
	"context"
	"time"
)

// CommandName identifies the executable to run.
type CommandName string

// CommandDetails describes arguments and process settings of a single invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand combines an executable with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable results of executing a command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
	Duration       time.Duration
}

// CommandRunner represents the ability to run shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}
