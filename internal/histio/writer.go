package histio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/groot/root"
	"go.uber.org/zap"

	"github.com/temirov/xsec/internal/histogram"
)

const (
	temporaryFilePatternTemplateConstant = ".%s.*.tmp"
	wroteOutputMessageConstant           = "wrote output file"
	logFieldPathConstant                 = "path"
	logFieldObjectsConstant              = "objects"
	putObjectErrorTemplateConstant       = "store %s: %w"
	closeFileErrorTemplateConstant       = "close: %w"
	renameFileErrorTemplateConstant      = "rename: %w"
)

// Entry is one named object of an output file: either a histogram or a matrix.
type Entry struct {
	Name      string
	Title     string
	Histogram histogram.Histogram
	Matrix    histogram.Matrix
}

// HistogramEntry wraps a one-dimensional histogram for writing.
func HistogramEntry(name string, title string, source histogram.Histogram) Entry {
	return Entry{Name: name, Title: title, Histogram: source}
}

// MatrixEntry wraps a two-dimensional histogram for writing.
func MatrixEntry(name string, title string, source histogram.Matrix) Entry {
	return Entry{Name: name, Title: title, Matrix: source}
}

func (entry Entry) object() (root.Object, error) {
	switch {
	case !entry.Matrix.IsZero():
		return rhist.NewH2DFrom(h2dFromMatrix(entry.Name, entry.Title, entry.Matrix)), nil
	case !entry.Histogram.IsZero():
		return rhist.NewH1DFrom(ToH1D(entry.Name, entry.Title, entry.Histogram)), nil
	default:
		return nil, fmt.Errorf(emptyEntryTemplateConstant, ErrEmptyEntry, entry.Name)
	}
}

// Writer persists result objects to ROOT files.
type Writer struct {
	logger *zap.Logger
}

// NewWriter constructs a Writer. A nil logger disables diagnostics.
func NewWriter(logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{logger: logger}
}

// Write stores the entries in outputPath, replacing any existing file.
// The objects are written to a temporary sibling first, so a failure never leaves a partial output.
func (writer *Writer) Write(outputPath string, entries []Entry) error {
	trimmedPath := strings.TrimSpace(outputPath)
	if len(trimmedPath) == 0 {
		return WriteError{Path: outputPath, Cause: ErrEmptyOutputPath}
	}

	objects := make([]root.Object, 0, len(entries))
	seenNames := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if _, duplicate := seenNames[entry.Name]; duplicate {
			return WriteError{Path: trimmedPath, Cause: fmt.Errorf(duplicateEntryTemplateConstant, ErrDuplicateEntry, entry.Name)}
		}
		seenNames[entry.Name] = struct{}{}
		object, objectError := entry.object()
		if objectError != nil {
			return WriteError{Path: trimmedPath, Cause: objectError}
		}
		objects = append(objects, object)
	}

	temporaryFile, temporaryError := os.CreateTemp(filepath.Dir(trimmedPath), fmt.Sprintf(temporaryFilePatternTemplateConstant, filepath.Base(trimmedPath)))
	if temporaryError != nil {
		return WriteError{Path: trimmedPath, Cause: temporaryError}
	}
	temporaryPath := temporaryFile.Name()
	if closeError := temporaryFile.Close(); closeError != nil {
		_ = os.Remove(temporaryPath)
		return WriteError{Path: trimmedPath, Cause: closeError}
	}

	if storeError := storeObjects(temporaryPath, entries, objects); storeError != nil {
		_ = os.Remove(temporaryPath)
		return WriteError{Path: trimmedPath, Cause: storeError}
	}
	if renameError := os.Rename(temporaryPath, trimmedPath); renameError != nil {
		_ = os.Remove(temporaryPath)
		return WriteError{Path: trimmedPath, Cause: fmt.Errorf(renameFileErrorTemplateConstant, renameError)}
	}

	writer.logger.Info(wroteOutputMessageConstant, zap.String(logFieldPathConstant, trimmedPath), zap.Int(logFieldObjectsConstant, len(objects)))
	return nil
}

func storeObjects(filePath string, entries []Entry, objects []root.Object) error {
	file, createError := groot.Create(filePath)
	if createError != nil {
		return createError
	}
	for objectIndex, object := range objects {
		if putError := file.Put(entries[objectIndex].Name, object); putError != nil {
			_ = file.Close()
			return fmt.Errorf(putObjectErrorTemplateConstant, entries[objectIndex].Name, putError)
		}
	}
	if closeError := file.Close(); closeError != nil {
		return fmt.Errorf(closeFileErrorTemplateConstant, closeError)
	}
	return nil
}
