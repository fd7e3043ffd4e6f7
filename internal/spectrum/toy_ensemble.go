package spectrum

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/xsec/internal/toys"
	"github.com/temirov/xsec/internal/unfolding"
)

const (
	toysStartedMessageConstant   = "running statistical toys"
	toysCompletedMessageConstant = "statistical toys completed"
	toyFailedTemplateConstant    = "toy %d: %w"
	logFieldToysConstant         = "toys"
	logFieldDistributionConstant = "distribution"
)

// ToySettings configures a toy ensemble.
type ToySettings struct {
	Count              int
	Luminosity         float64
	SubtractBackground bool
}

// RunToys resamples the scaled data, re-applies background subtraction and acceptance,
// unfolds every replica without uncertainties, and returns the empirical covariance of
// the absolute and relative cross sections. Toys run sequentially; the first failure aborts.
func RunToys(executionContext context.Context, logger *zap.Logger, unfolder Unfolder, sampler *toys.Sampler, normalized Normalized, nominal unfolding.Problem, settings ToySettings) (CovarianceSet, error) {
	reference := normalized.Efficiency
	absoluteAccumulator := toys.NewAccumulator(reference, settings.Count)
	relativeAccumulator := toys.NewAccumulator(reference, settings.Count)

	logger.Info(toysStartedMessageConstant, zap.Int(logFieldToysConstant, settings.Count), zap.String(logFieldDistributionConstant, string(sampler.Distribution())))
	for toyIndex := 0; toyIndex < settings.Count; toyIndex++ {
		if contextError := executionContext.Err(); contextError != nil {
			return CovarianceSet{}, contextError
		}
		sections, toyError := runToy(executionContext, unfolder, sampler, normalized, nominal, settings)
		if toyError != nil {
			return CovarianceSet{}, fmt.Errorf(toyFailedTemplateConstant, toyIndex, toyError)
		}
		if addError := absoluteAccumulator.Add(sections.Absolute); addError != nil {
			return CovarianceSet{}, fmt.Errorf(toyFailedTemplateConstant, toyIndex, addError)
		}
		if addError := relativeAccumulator.Add(sections.Relative); addError != nil {
			return CovarianceSet{}, fmt.Errorf(toyFailedTemplateConstant, toyIndex, addError)
		}
	}

	absolute, absoluteError := absoluteAccumulator.Covariance()
	if absoluteError != nil {
		return CovarianceSet{}, absoluteError
	}
	relative, relativeError := relativeAccumulator.Covariance()
	if relativeError != nil {
		return CovarianceSet{}, relativeError
	}
	logger.Info(toysCompletedMessageConstant, zap.Int(logFieldToysConstant, absoluteAccumulator.Count()))
	return CovarianceSet{Absolute: absolute, Relative: relative}, nil
}

func runToy(executionContext context.Context, unfolder Unfolder, sampler *toys.Sampler, normalized Normalized, nominal unfolding.Problem, settings ToySettings) (CrossSections, error) {
	smeared, smearError := sampler.Smear(normalized.Data)
	if smearError != nil {
		return CrossSections{}, smearError
	}
	corrected, correctionError := normalized.CorrectToy(smeared, settings.SubtractBackground)
	if correctionError != nil {
		return CrossSections{}, correctionError
	}

	problem := nominal
	problem.Measured = corrected
	problem.ErrorMode = unfolding.ErrorModeNone
	outcome := unfolder.Run(executionContext, problem)
	if !outcome.Succeeded() {
		return CrossSections{}, outcome.Err
	}
	return DeriveCrossSections(outcome.Solution.Unfolded, normalized.Efficiency, settings.Luminosity)
}
