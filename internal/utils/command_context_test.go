package utils_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/temirov/xsec/internal/utils"
)

const (
	testApplicationConfigurationPathConstant = "/etc/xsec/config.yaml"
)

func TestCommandContextAccessorConfigurationFilePath(testInstance *testing.T) {
	accessor := utils.NewCommandContextAccessor()

	_, missing := accessor.ConfigurationFilePath(context.Background())
	require.False(testInstance, missing)

	executionContext := accessor.WithConfigurationFilePath(context.Background(), testApplicationConfigurationPathConstant)
	configurationFilePath, available := accessor.ConfigurationFilePath(executionContext)
	require.True(testInstance, available)
	require.Equal(testInstance, testApplicationConfigurationPathConstant, configurationFilePath)
}

func TestCommandContextAccessorRunIdentifier(testInstance *testing.T) {
	accessor := utils.NewCommandContextAccessor()

	executionContext := accessor.WithRunIdentifier(context.Background())
	runIdentifier, available := accessor.RunIdentifier(executionContext)
	require.True(testInstance, available)

	_, parseError := uuid.Parse(runIdentifier)
	require.NoError(testInstance, parseError)

	preservedContext := accessor.WithRunIdentifier(executionContext)
	preservedIdentifier, preservedAvailable := accessor.RunIdentifier(preservedContext)
	require.True(testInstance, preservedAvailable)
	require.Equal(testInstance, runIdentifier, preservedIdentifier)
}
