package utils

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	environmentKeySeparatorOldConstant              = "."
	environmentKeySeparatorNewConstant              = "_"
	configurationReadErrorTemplateConstant          = "failed to read configuration: %w"
	configurationUnmarshalErrorTemplateConstant     = "failed to parse configuration: %w"
	embeddedConfigurationMergeErrorTemplateConstant = "failed to merge embedded configuration: %w"
	configurationFileMissingTemplateConstant        = "%w: %s"
	configurationFileMissingMessageConstant         = "configuration file not found"
	listValueSeparatorConstant                      = ","
)

// ErrConfigurationFileNotFound reports an explicitly requested configuration file that does not exist.
var ErrConfigurationFileNotFound = errors.New(configurationFileMissingMessageConstant)

// ConfigurationLoader loads the application configuration (backend drivers, toy seed, logging) with Viper.
// Sources in increasing precedence: defaults, embedded document, configuration file, prefixed environment.
type ConfigurationLoader struct {
	configurationName         string
	configurationType         string
	environmentPrefix         string
	searchPaths               []string
	environmentKeyReplacer    *strings.Replacer
	embeddedConfiguration     []byte
	embeddedConfigurationType string
}

// LoadedConfiguration surfaces metadata about the resolved configuration.
type LoadedConfiguration struct {
	ConfigFileUsed string
}

// NewConfigurationLoader creates a loader that searches the given directories for configurationName.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	return &ConfigurationLoader{
		configurationName:      configurationName,
		configurationType:      configurationType,
		environmentPrefix:      environmentPrefix,
		searchPaths:            append([]string(nil), searchPaths...),
		environmentKeyReplacer: strings.NewReplacer(environmentKeySeparatorOldConstant, environmentKeySeparatorNewConstant),
	}
}

// SetEmbeddedConfiguration stores the built-in document merged beneath any configuration file.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(configurationData []byte, configurationType string) {
	if loader == nil {
		return
	}
	loader.embeddedConfigurationType = strings.TrimSpace(configurationType)
	loader.embeddedConfiguration = nil
	if len(configurationData) > 0 {
		loader.embeddedConfiguration = bytes.Clone(configurationData)
	}
}

// LoadConfiguration decodes the merged configuration into targetConfiguration.
// Durations accept Go duration strings, comma separated strings decode into slices,
// and $VARIABLE references in string values are expanded, so driver paths may use $HOME.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, targetConfiguration any) (LoadedConfiguration, error) {
	viperInstance, preparationError := loader.prepare(defaultValues)
	if preparationError != nil {
		return LoadedConfiguration{}, preparationError
	}

	if readError := loader.mergeConfigurationFile(viperInstance, strings.TrimSpace(configurationFilePath)); readError != nil {
		return LoadedConfiguration{}, readError
	}

	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.DecodeHookFuncType(expandEnvironmentHook),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(listValueSeparatorConstant),
	))
	if unmarshalError := viperInstance.Unmarshal(targetConfiguration, decodeHook); unmarshalError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationUnmarshalErrorTemplateConstant, unmarshalError)
	}

	return LoadedConfiguration{ConfigFileUsed: viperInstance.ConfigFileUsed()}, nil
}

func (loader *ConfigurationLoader) prepare(defaultValues map[string]any) (*viper.Viper, error) {
	viperInstance := viper.New()
	viperInstance.SetConfigName(loader.configurationName)

	if len(loader.embeddedConfiguration) > 0 {
		embeddedType := loader.configurationType
		if len(loader.embeddedConfigurationType) > 0 {
			embeddedType = loader.embeddedConfigurationType
		}
		viperInstance.SetConfigType(embeddedType)
		if mergeError := viperInstance.MergeConfig(bytes.NewReader(loader.embeddedConfiguration)); mergeError != nil {
			return nil, fmt.Errorf(embeddedConfigurationMergeErrorTemplateConstant, mergeError)
		}
	}
	viperInstance.SetConfigType(loader.configurationType)

	for _, searchPath := range loader.searchPaths {
		viperInstance.AddConfigPath(searchPath)
	}

	viperInstance.SetEnvPrefix(loader.environmentPrefix)
	viperInstance.SetEnvKeyReplacer(loader.environmentKeyReplacer)
	viperInstance.AutomaticEnv()

	for defaultKey, defaultValue := range defaultValues {
		viperInstance.SetDefault(defaultKey, defaultValue)
	}
	return viperInstance, nil
}

func (loader *ConfigurationLoader) mergeConfigurationFile(viperInstance *viper.Viper, configurationFilePath string) error {
	if len(configurationFilePath) > 0 {
		if _, statError := os.Stat(configurationFilePath); errors.Is(statError, os.ErrNotExist) {
			return fmt.Errorf(configurationFileMissingTemplateConstant, ErrConfigurationFileNotFound, configurationFilePath)
		}
		viperInstance.SetConfigFile(configurationFilePath)
	}

	readError := viperInstance.MergeInConfig()
	if readError == nil {
		return nil
	}
	var notFoundError viper.ConfigFileNotFoundError
	if errors.As(readError, &notFoundError) {
		return nil
	}
	return fmt.Errorf(configurationReadErrorTemplateConstant, readError)
}

func expandEnvironmentHook(sourceType reflect.Type, targetType reflect.Type, value any) (any, error) {
	if sourceType.Kind() != reflect.String || targetType.Kind() != reflect.String {
		return value, nil
	}
	return os.ExpandEnv(value.(string)), nil
}
