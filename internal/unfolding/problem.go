package unfolding

import (
	"context"

	"github.com/temirov/xsec/internal/histogram"
)

// ErrorMode selects which uncertainty the backend computes.
type ErrorMode string

// Supported error modes.
const (
	// ErrorModeNone asks for bin errors only.
	ErrorModeNone ErrorMode = "none"
	// ErrorModeCovariance asks for the full covariance of the unfolded bins.
	ErrorModeCovariance ErrorMode = "covariance"
)

// Problem is one unfolding request.
type Problem struct {
	Method         Method
	Regularization int
	ErrorMode      ErrorMode
	// Toys is forwarded to backends that estimate the covariance by internal resampling.
	Toys int
	// Measured is the background-subtracted, acceptance-corrected reco-level distribution.
	Measured histogram.Histogram
	// Reco and Truth are the signal projections the response was filled from.
	Reco     histogram.Histogram
	Truth    histogram.Histogram
	Response histogram.Matrix
}

// Solution is the SUCCESS payload of an unfolding run.
type Solution struct {
	Unfolded histogram.Histogram
	// Covariance is zero-valued unless ErrorModeCovariance was requested.
	Covariance histogram.Matrix
}

// HasCovariance reports whether the solution carries a covariance matrix.
func (solution Solution) HasCovariance() bool {
	return !solution.Covariance.IsZero()
}

// Backend unfolds problems for one method family.
type Backend interface {
	Unfold(executionContext context.Context, problem Problem) (Solution, error)
}
