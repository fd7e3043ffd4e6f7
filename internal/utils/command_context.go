package utils

import (
	"context"

	"github.com/google/uuid"
)

const (
	configurationFilePathContextKeyConstant = commandContextKey("configurationFilePath")
	runIdentifierContextKeyConstant         = commandContextKey("runIdentifier")
)

type commandContextKey string

// CommandContextAccessor manages values stored in command execution contexts.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFilePath attaches the application configuration file path to the provided context.
func (accessor CommandContextAccessor) WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, configurationFilePathContextKeyConstant, configurationFilePath)
}

// ConfigurationFilePath extracts the application configuration file path from the provided context.
func (accessor CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	configurationFilePath, configurationFilePathAvailable := executionContext.Value(configurationFilePathContextKeyConstant).(string)
	if !configurationFilePathAvailable {
		return "", false
	}
	return configurationFilePath, true
}

// WithRunIdentifier attaches a freshly generated run identifier unless one is already present.
func (accessor CommandContextAccessor) WithRunIdentifier(parentContext context.Context) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	if _, exists := accessor.RunIdentifier(parentContext); exists {
		return parentContext
	}
	return context.WithValue(parentContext, runIdentifierContextKeyConstant, uuid.NewString())
}

// RunIdentifier extracts the run identifier used to correlate log records of one invocation.
func (accessor CommandContextAccessor) RunIdentifier(executionContext context.Context) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	runIdentifier, runIdentifierAvailable := executionContext.Value(runIdentifierContextKeyConstant).(string)
	if !runIdentifierAvailable || len(runIdentifier) == 0 {
		return "", false
	}
	return runIdentifier, true
}
