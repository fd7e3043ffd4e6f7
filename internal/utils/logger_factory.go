package utils

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logLevelDebugStringConstant          = "debug"
	logLevelInfoStringConstant           = "info"
	logLevelWarnStringConstant           = "warn"
	logLevelErrorStringConstant          = "error"
	logFormatStructuredStringConstant    = "structured"
	logFormatConsoleStringConstant       = "console"
	jsonZapEncodingStringConstant        = "json"
	consoleZapEncodingStringConstant     = "console"
	standardErrorOutputPathConstant      = "stderr"
	consoleMessageKeyConstant            = "message"
	unsupportedLogLevelTemplateConstant  = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant = "unsupported log format: %s"
)

// LogLevel enumerates supported logging granularities.
type LogLevel string

// Exported log level constants for reuse across packages.
const (
	LogLevelDebug LogLevel = LogLevel(logLevelDebugStringConstant)
	LogLevelInfo  LogLevel = LogLevel(logLevelInfoStringConstant)
	LogLevelWarn  LogLevel = LogLevel(logLevelWarnStringConstant)
	LogLevelError LogLevel = LogLevel(logLevelErrorStringConstant)
)

// LogFormat enumerates supported logger output encodings.
type LogFormat string

// Exported log format constants for reuse across packages.
const (
	LogFormatStructured LogFormat = LogFormat(logFormatStructuredStringConstant)
	LogFormatConsole    LogFormat = LogFormat(logFormatConsoleStringConstant)
)

// SupportedLogLevels lists log levels accepted by the factory in ascending severity.
func SupportedLogLevels() []string {
	return []string{logLevelDebugStringConstant, logLevelInfoStringConstant, logLevelWarnStringConstant, logLevelErrorStringConstant}
}

// SupportedLogFormats lists log formats accepted by the factory.
func SupportedLogFormats() []string {
	return []string{logFormatStructuredStringConstant, logFormatConsoleStringConstant}
}

// LoggerOutputs groups the loggers produced for a CLI invocation.
type LoggerOutputs struct {
	// DiagnosticLogger receives pipeline diagnostics in the requested format.
	DiagnosticLogger *zap.Logger
	// ConsoleLogger renders short human-readable lines for backend driver events.
	ConsoleLogger *zap.Logger
}

// LoggerFactory builds zap.Logger instances with consistent configuration.
type LoggerFactory struct{}

var logLevelMapping = map[LogLevel]zapcore.Level{
	LogLevelDebug: zapcore.DebugLevel,
	LogLevelInfo:  zapcore.InfoLevel,
	LogLevelWarn:  zapcore.WarnLevel,
	LogLevelError: zapcore.ErrorLevel,
}

var logFormatEncodingMapping = map[LogFormat]string{
	LogFormatStructured: jsonZapEncodingStringConstant,
	LogFormatConsole:    consoleZapEncodingStringConstant,
}

// NewLoggerFactory constructs a new logger factory.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{}
}

// CreateLogger produces a zap.Logger honoring the requested log level and format.
// Output goes to standard error so command results on standard output stay parseable.
func (factory *LoggerFactory) CreateLogger(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (*zap.Logger, error) {
	zapLogLevel, levelExists := logLevelMapping[requestedLogLevel]
	if !levelExists {
		return nil, fmt.Errorf(unsupportedLogLevelTemplateConstant, requestedLogLevel)
	}

	encoding, formatExists := logFormatEncodingMapping[requestedLogFormat]
	if !formatExists {
		return nil, fmt.Errorf(unsupportedLogFormatTemplateConstant, requestedLogFormat)
	}

	configuration := zap.NewProductionConfig()
	configuration.Level = zap.NewAtomicLevelAt(zapLogLevel)
	configuration.Encoding = encoding
	configuration.OutputPaths = []string{standardErrorOutputPathConstant}
	configuration.ErrorOutputPaths = []string{standardErrorOutputPathConstant}
	if requestedLogFormat == LogFormatConsole {
		configuration.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		configuration.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	logger, buildError := configuration.Build()
	if buildError != nil {
		return nil, buildError
	}

	return logger, nil
}

// CreateLoggerOutputs builds the diagnostic logger and a console logger sharing the requested level.
func (factory *LoggerFactory) CreateLoggerOutputs(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (LoggerOutputs, error) {
	diagnosticLogger, diagnosticError := factory.CreateLogger(requestedLogLevel, requestedLogFormat)
	if diagnosticError != nil {
		return LoggerOutputs{}, diagnosticError
	}

	consoleConfiguration := zap.NewDevelopmentConfig()
	consoleConfiguration.Level = zap.NewAtomicLevelAt(logLevelMapping[requestedLogLevel])
	consoleConfiguration.Encoding = consoleZapEncodingStringConstant
	consoleConfiguration.OutputPaths = []string{standardErrorOutputPathConstant}
	consoleConfiguration.ErrorOutputPaths = []string{standardErrorOutputPathConstant}
	consoleConfiguration.DisableCaller = true
	consoleConfiguration.DisableStacktrace = true
	consoleConfiguration.EncoderConfig = zapcore.EncoderConfig{MessageKey: consoleMessageKeyConstant}

	consoleLogger, consoleError := consoleConfiguration.Build()
	if consoleError != nil {
		return LoggerOutputs{}, consoleError
	}

	return LoggerOutputs{DiagnosticLogger: diagnosticLogger, ConsoleLogger: consoleLogger}, nil
}
