package unfolding

import (
	"errors"
	"fmt"
)

const (
	backendErrorTemplateConstant             = "unfolding backend %s failed for method %s: %v"
	backendNotRegisteredMessageConstant      = "no unfolding backend registered for family"
	backendReportedFailureMessageConstant    = "unfolding driver reported a failure"
	malformedSolutionMessageConstant         = "unfolding driver returned a malformed solution"
	missingCovarianceMessageConstant         = "unfolding driver returned no covariance"
	unsupportedProtocolMessageConstant       = "unsupported unfolding protocol version"
	loggerNotConfiguredMessageConstant       = "unfolding adapter logger not configured"
	dispatcherNotConfiguredMessageConstant   = "unfolding adapter dispatcher not configured"
	executorNotConfiguredMessageConstant     = "unfolding driver command executor not configured"
	executableNotConfiguredMessageConstant   = "unfolding driver executable not configured"
	backendReportedFailureTemplateConstant   = "%w: %s"
	malformedSolutionTemplateConstant        = "%w: %v"
	backendNotRegisteredTemplateConstant     = "%w %q"
	unsupportedProtocolTemplateConstant      = "%w %d"
	unfoldedBinCountTemplateConstant         = "%w: unfolded histogram has %d bins, response has %d particle-level bins"
	covarianceShapeTemplateConstant          = "%w: covariance is %dx%d, expected %dx%d"
	executableNotConfiguredTemplateConstant  = "%w for family %q"
	driverInvocationErrorTemplateConstant    = "unfolding driver %s: %w"
	problemEncodingErrorTemplateConstant     = "unable to encode unfolding problem: %w"
	problemDecodingErrorTemplateConstant     = "unable to decode unfolding problem: %w"
	solutionEncodingErrorTemplateConstant    = "unable to encode unfolding solution: %w"
	histogramConversionErrorTemplateConstant = "%s histogram: %w"
)

var (
	// ErrBackendNotRegistered indicates that no backend serves the method family.
	ErrBackendNotRegistered = errors.New(backendNotRegisteredMessageConstant)
	// ErrBackendReportedFailure indicates that the driver answered with an error message.
	ErrBackendReportedFailure = errors.New(backendReportedFailureMessageConstant)
	// ErrMalformedSolution indicates that the driver output could not be interpreted.
	ErrMalformedSolution = errors.New(malformedSolutionMessageConstant)
	// ErrMissingCovariance indicates that a covariance was requested but not returned.
	ErrMissingCovariance = errors.New(missingCovarianceMessageConstant)
	// ErrUnsupportedProtocol indicates a protocol version this build does not speak.
	ErrUnsupportedProtocol = errors.New(unsupportedProtocolMessageConstant)
	// ErrLoggerNotConfigured indicates that an Adapter was created without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrDispatcherNotConfigured indicates that an Adapter was created without a dispatcher.
	ErrDispatcherNotConfigured = errors.New(dispatcherNotConfiguredMessageConstant)
	// ErrExecutorNotConfigured indicates that a DriverBackend was created without a command executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
	// ErrExecutableNotConfigured indicates that a driver has no executable.
	ErrExecutableNotConfigured = errors.New(executableNotConfiguredMessageConstant)
)

// BackendError reports a failed unfolding run. It is the FAILURE state of the adapter.
type BackendError struct {
	Family Family
	Method string
	Cause  error
}

// Error describes the failing backend and method.
func (backendError BackendError) Error() string {
	return fmt.Sprintf(backendErrorTemplateConstant, backendError.Family, backendError.Method, backendError.Cause)
}

// Unwrap exposes the underlying cause.
func (backendError BackendError) Unwrap() error {
	return backendError.Cause
}
