package spectrum

import (
	"context"
	"errors"
	"fmt"

	"github.com/temirov/xsec/internal/unfolding"
)

const (
	computationErrorTemplateConstant = "%s failed: %v"
	stageUncertaintyTemplateConstant = "%s uncertainties: %w"
	modeStageTemplateConstant        = "%s %s"

	// StageNormalization covers background subtraction, efficiency and acceptance.
	StageNormalization = "normalization"
	// StageCrossSections covers the absolute and relative cross section derivation.
	StageCrossSections = "cross sections"
	// StageUncertainties covers covariance propagation and the toy ensemble.
	StageUncertainties = "uncertainties"
	// StageOutput covers assembling the objects handed to the writer.
	StageOutput = "output objects"
)

// ComputationError reports arithmetic that cannot be carried out on the loaded inputs,
// such as histograms with incompatible binning or a vanishing total cross section.
type ComputationError struct {
	Stage string
	Cause error
}

// Error describes the failed stage.
func (computationError ComputationError) Error() string {
	return fmt.Sprintf(computationErrorTemplateConstant, computationError.Stage, computationError.Cause)
}

// Unwrap exposes the underlying cause.
func (computationError ComputationError) Unwrap() error {
	return computationError.Cause
}

// uncertaintyFailure keeps backend failures raised by toy unfolds as BackendError
// and cancellations as context errors.
func uncertaintyFailure(mode string, cause error) error {
	var backendError unfolding.BackendError
	if errors.As(cause, &backendError) || errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		return fmt.Errorf(stageUncertaintyTemplateConstant, mode, cause)
	}
	return ComputationError{Stage: fmt.Sprintf(modeStageTemplateConstant, mode, StageUncertainties), Cause: cause}
}
