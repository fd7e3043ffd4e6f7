package histio

import (
	"errors"
	"fmt"
)

const (
	dataAccessErrorTemplateConstant     = "unable to read %s from %s: %v"
	dataAccessFileErrorTemplateConstant = "unable to read %s: %v"
	writeErrorTemplateConstant          = "unable to write %s: %v"
	objectNotFoundMessageConstant       = "object not found"
	unexpectedKindMessageConstant       = "object has an unexpected kind"
	emptyOutputPathMessageConstant      = "output path is empty"
	duplicateEntryMessageConstant       = "duplicate output object name"
	emptyEntryMessageConstant           = "output object carries no data"
	unexpectedKindTemplateConstant      = "%w: %s is %T, expected %s"
	objectNotFoundTemplateConstant      = "%w: %v"
	duplicateEntryTemplateConstant      = "%w %q"
	emptyEntryTemplateConstant          = "%w: %q"
	conversionErrorTemplateConstant     = "%s: %w"
	oneDimensionalKindConstant          = "a one-dimensional histogram"
	twoDimensionalKindConstant          = "a two-dimensional histogram"
)

var (
	// ErrObjectNotFound indicates that the requested path does not exist in the file.
	ErrObjectNotFound = errors.New(objectNotFoundMessageConstant)
	// ErrUnexpectedKind indicates a TH1 where a TH2 was expected, or the reverse.
	ErrUnexpectedKind = errors.New(unexpectedKindMessageConstant)
	// ErrEmptyOutputPath indicates that no output path was provided.
	ErrEmptyOutputPath = errors.New(emptyOutputPathMessageConstant)
	// ErrDuplicateEntry indicates two output objects sharing a name.
	ErrDuplicateEntry = errors.New(duplicateEntryMessageConstant)
	// ErrEmptyEntry indicates an output object without histogram data.
	ErrEmptyEntry = errors.New(emptyEntryMessageConstant)
)

// DataAccessError reports an input histogram that cannot be read.
type DataAccessError struct {
	File  string
	Path  string
	Cause error
}

// Error describes the inaccessible input.
func (accessError DataAccessError) Error() string {
	if len(accessError.Path) == 0 {
		return fmt.Sprintf(dataAccessFileErrorTemplateConstant, accessError.File, accessError.Cause)
	}
	return fmt.Sprintf(dataAccessErrorTemplateConstant, accessError.Path, accessError.File, accessError.Cause)
}

// Unwrap exposes the underlying cause.
func (accessError DataAccessError) Unwrap() error {
	return accessError.Cause
}

// WriteError reports an output file that could not be written.
type WriteError struct {
	Path  string
	Cause error
}

// Error describes the failed write.
func (writeError WriteError) Error() string {
	return fmt.Sprintf(writeErrorTemplateConstant, writeError.Path, writeError.Cause)
}

// Unwrap exposes the underlying cause.
func (writeError WriteError) Unwrap() error {
	return writeError.Cause
}
