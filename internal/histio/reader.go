package histio

import (
	"fmt"
	"os"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/root"
	"go-hep.org/x/hep/hbook/rootcnv"
	"go.uber.org/zap"

	"github.com/temirov/xsec/internal/histogram"
)

const (
	readingObjectMessageConstant = "reading histogram"
	logFieldFileConstant         = "file"
	logFieldObjectConstant       = "object"
)

// Reader extracts histograms from ROOT files. Each read opens and closes its own file handle.
type Reader struct {
	logger *zap.Logger
}

// NewReader constructs a Reader. A nil logger disables diagnostics.
func NewReader(logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{logger: logger}
}

// ReadHistogram returns the one-dimensional histogram stored at objectPath.
func (reader *Reader) ReadHistogram(filePath string, objectPath string) (histogram.Histogram, error) {
	var loaded histogram.Histogram
	readError := reader.readObject(filePath, objectPath, func(object root.Object) error {
		if _, isTwoDimensional := object.(rhist.H2); isTwoDimensional {
			return fmt.Errorf(unexpectedKindTemplateConstant, ErrUnexpectedKind, objectPath, object, oneDimensionalKindConstant)
		}
		oneDimensional, isOneDimensional := object.(rhist.H1)
		if !isOneDimensional {
			return fmt.Errorf(unexpectedKindTemplateConstant, ErrUnexpectedKind, objectPath, object, oneDimensionalKindConstant)
		}
		converted, conversionError := histogramFromH1D(rootcnv.H1D(oneDimensional))
		if conversionError != nil {
			return fmt.Errorf(conversionErrorTemplateConstant, objectPath, conversionError)
		}
		loaded = converted
		return nil
	})
	return loaded, readError
}

// ReadMatrix returns the two-dimensional histogram stored at objectPath.
func (reader *Reader) ReadMatrix(filePath string, objectPath string) (histogram.Matrix, error) {
	var loaded histogram.Matrix
	readError := reader.readObject(filePath, objectPath, func(object root.Object) error {
		twoDimensional, isTwoDimensional := object.(rhist.H2)
		if !isTwoDimensional {
			return fmt.Errorf(unexpectedKindTemplateConstant, ErrUnexpectedKind, objectPath, object, twoDimensionalKindConstant)
		}
		converted, conversionError := matrixFromH2D(rootcnv.H2D(twoDimensional))
		if conversionError != nil {
			return fmt.Errorf(conversionErrorTemplateConstant, objectPath, conversionError)
		}
		loaded = converted
		return nil
	})
	return loaded, readError
}

func (reader *Reader) readObject(filePath string, objectPath string, convert func(root.Object) error) error {
	reader.logger.Debug(readingObjectMessageConstant, zap.String(logFieldFileConstant, filePath), zap.String(logFieldObjectConstant, objectPath))

	if _, statError := os.Stat(filePath); statError != nil {
		return DataAccessError{File: filePath, Cause: statError}
	}
	file, openError := groot.Open(filePath)
	if openError != nil {
		return DataAccessError{File: filePath, Cause: openError}
	}
	defer file.Close()

	object, getError := riofs.Dir(file).Get(objectPath)
	if getError != nil {
		return DataAccessError{File: filePath, Path: objectPath, Cause: fmt.Errorf(objectNotFoundTemplateConstant, ErrObjectNotFound, getError)}
	}
	if conversionError := convert(object); conversionError != nil {
		return DataAccessError{File: filePath, Path: objectPath, Cause: conversionError}
	}
	return nil
}
