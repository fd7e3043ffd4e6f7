package unfolding

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/temirov/xsec/internal/execshell"
)

// CommandExecutor runs driver processes.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// DriverConfiguration describes how to launch the driver executable of one backend family.
type DriverConfiguration struct {
	Executable       string            `mapstructure:"executable"`
	Arguments        []string          `mapstructure:"arguments"`
	WorkingDirectory string            `mapstructure:"working_directory"`
	Environment      map[string]string `mapstructure:"environment"`
	// Timeout bounds a single invocation; zero disables it.
	Timeout time.Duration `mapstructure:"timeout"`
}

// DriverBackend unfolds by exchanging JSON documents with an external driver process.
type DriverBackend struct {
	family        Family
	configuration DriverConfiguration
	executor      CommandExecutor
}

// NewDriverBackend validates the driver configuration of a family.
func NewDriverBackend(family Family, configuration DriverConfiguration, executor CommandExecutor) (*DriverBackend, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	configuration.Executable = strings.TrimSpace(configuration.Executable)
	if len(configuration.Executable) == 0 {
		return nil, fmt.Errorf(executableNotConfiguredTemplateConstant, ErrExecutableNotConfigured, family)
	}
	return &DriverBackend{family: family, configuration: configuration, executor: executor}, nil
}

// Unfold sends the problem to the driver and interprets its answer. No retries are attempted.
func (backend *DriverBackend) Unfold(executionContext context.Context, problem Problem) (Solution, error) {
	payload, encodingError := EncodeProblem(problem)
	if encodingError != nil {
		return Solution{}, encodingError
	}

	if backend.configuration.Timeout > 0 {
		var cancel context.CancelFunc
		executionContext, cancel = context.WithTimeout(executionContext, backend.configuration.Timeout)
		defer cancel()
	}

	command := execshell.ShellCommand{
		Name: execshell.CommandName(backend.configuration.Executable),
		Details: execshell.CommandDetails{
			Arguments:            append([]string{}, backend.configuration.Arguments...),
			WorkingDirectory:     backend.configuration.WorkingDirectory,
			EnvironmentVariables: backend.configuration.Environment,
			StandardInput:        payload,
		},
	}

	executionResult, executionError := backend.executor.Execute(executionContext, command)
	if executionError != nil {
		return Solution{}, fmt.Errorf(driverInvocationErrorTemplateConstant, backend.configuration.Executable, executionError)
	}

	return decodeSolution([]byte(executionResult.StandardOutput), problem)
}

// NewDriverDispatcher builds a dispatcher with one DriverBackend per configured family.
func NewDriverDispatcher(configurations map[Family]DriverConfiguration, executor CommandExecutor) (*Dispatcher, error) {
	backends := make(map[Family]Backend, len(configurations))
	for family, configuration := range configurations {
		backend, backendError := NewDriverBackend(family, configuration, executor)
		if backendError != nil {
			return nil, backendError
		}
		backends[family] = backend
	}
	return NewDispatcher(backends), nil
}
