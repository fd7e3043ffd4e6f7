package unfolding

import (
	"context"

	"go.uber.org/zap"
)

const (
	unfoldingSucceededMessageConstant = "unfolding succeeded"
	unfoldingFailedMessageConstant    = "unfolding failed"
	logFieldFamilyConstant            = "backend"
	logFieldMethodConstant            = "method"
	logFieldRegularizationConstant    = "regularization"
	logFieldErrorModeConstant         = "error_mode"
	logFieldBinsConstant              = "unfolded_bins"
	logFieldCovarianceConstant        = "covariance"
)

// State is the terminal state of one unfolding run.
type State string

// Terminal states.
const (
	StateSuccess State = "SUCCESS"
	StateFailure State = "FAILURE"
)

// Outcome is the result of Adapter.Run. Solution is set on SUCCESS; Err holds a BackendError on FAILURE.
type Outcome struct {
	State    State
	Solution Solution
	Err      error
}

// Succeeded reports whether the run reached SUCCESS.
func (outcome Outcome) Succeeded() bool {
	return outcome.State == StateSuccess
}

// Adapter dispatches unfolding problems to backends and normalizes their failures into BackendError.
type Adapter struct {
	logger     *zap.Logger
	dispatcher *Dispatcher
}

// NewAdapter constructs an Adapter.
func NewAdapter(logger *zap.Logger, dispatcher *Dispatcher) (*Adapter, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if dispatcher == nil {
		return nil, ErrDispatcherNotConfigured
	}
	return &Adapter{logger: logger, dispatcher: dispatcher}, nil
}

// Run performs one unfolding and reports its terminal state.
func (adapter *Adapter) Run(executionContext context.Context, problem Problem) Outcome {
	fields := []zap.Field{
		zap.String(logFieldFamilyConstant, string(problem.Method.Family)),
		zap.String(logFieldMethodConstant, problem.Method.String()),
		zap.Int(logFieldRegularizationConstant, problem.Regularization),
		zap.String(logFieldErrorModeConstant, string(problem.ErrorMode)),
	}

	backend, dispatchError := adapter.dispatcher.Backend(problem.Method)
	if dispatchError != nil {
		return adapter.failure(problem, dispatchError, fields)
	}

	solution, unfoldError := backend.Unfold(executionContext, problem)
	if unfoldError != nil {
		return adapter.failure(problem, unfoldError, fields)
	}

	adapter.logger.Debug(
		unfoldingSucceededMessageConstant,
		append(fields, zap.Int(logFieldBinsConstant, solution.Unfolded.Bins()), zap.Bool(logFieldCovarianceConstant, solution.HasCovariance()))...,
	)
	return Outcome{State: StateSuccess, Solution: solution}
}

// Unfold runs the problem and returns the solution or the BackendError.
func (adapter *Adapter) Unfold(executionContext context.Context, problem Problem) (Solution, error) {
	outcome := adapter.Run(executionContext, problem)
	if !outcome.Succeeded() {
		return Solution{}, outcome.Err
	}
	return outcome.Solution, nil
}

func (adapter *Adapter) failure(problem Problem, cause error, fields []zap.Field) Outcome {
	backendError := BackendError{Family: problem.Method.Family, Method: problem.Method.String(), Cause: cause}
	adapter.logger.Error(unfoldingFailedMessageConstant, append(fields, zap.Error(cause))...)
	return Outcome{State: StateFailure, Err: backendError}
}
