package config

import (
	"errors"
	"fmt"
)

const (
	configErrorTemplateConstant            = "invalid configuration %s: %v"
	configErrorWithoutPathTemplateConstant = "invalid configuration: %v"
	missingElementMessageConstant          = "required element is missing"
	missingAttributeMessageConstant        = "required attribute is missing"
	invalidValueMessageConstant            = "attribute value is invalid"
	malformedDocumentMessageConstant       = "configuration document is malformed"
	unreadableDocumentMessageConstant      = "configuration document cannot be read"
	invalidStatisticalErrorMessageConstant = "statistical error mode is badly formatted"
)

var (
	// ErrMissingElement reports an absent required element.
	ErrMissingElement = errors.New(missingElementMessageConstant)
	// ErrMissingAttribute reports an absent or empty required attribute.
	ErrMissingAttribute = errors.New(missingAttributeMessageConstant)
	// ErrInvalidValue reports an attribute that cannot be parsed or is out of range.
	ErrInvalidValue = errors.New(invalidValueMessageConstant)
	// ErrMalformedDocument reports XML that cannot be decoded.
	ErrMalformedDocument = errors.New(malformedDocumentMessageConstant)
	// ErrUnreadableDocument reports a configuration file that cannot be opened.
	ErrUnreadableDocument = errors.New(unreadableDocumentMessageConstant)
	// ErrInvalidStatisticalError reports an unsupported statErr value.
	ErrInvalidStatisticalError = errors.New(invalidStatisticalErrorMessageConstant)
)

// ConfigError reports a configuration that cannot be loaded.
type ConfigError struct {
	Path  string
	Cause error
}

// Error describes the configuration failure.
func (configError ConfigError) Error() string {
	if len(configError.Path) == 0 {
		return fmt.Sprintf(configErrorWithoutPathTemplateConstant, configError.Cause)
	}
	return fmt.Sprintf(configErrorTemplateConstant, configError.Path, configError.Cause)
}

// Unwrap exposes the underlying cause.
func (configError ConfigError) Unwrap() error {
	return configError.Cause
}
