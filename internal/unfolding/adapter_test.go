package unfolding_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/xsec/internal/execshell"
	"github.com/temirov/xsec/internal/histogram"
	"github.com/temirov/xsec/internal/unfolding"
)

const (
	testRooUnfoldDriverConstant = "roounfold-driver"
	testQUnfoldDriverConstant   = "qunfold-driver"
	testToleranceConstant       = 1e-9
)

type scriptedCommandRunner struct {
	result              execshell.ExecutionResult
	runError            error
	blockUntilCancelled bool
}

func (runner *scriptedCommandRunner) Run(executionContext context.Context, _ execshell.ShellCommand) (execshell.ExecutionResult, error) {
	if runner.blockUntilCancelled {
		<-executionContext.Done()
		return execshell.ExecutionResult{}, executionContext.Err()
	}
	return runner.result, runner.runError
}

type staticBackend struct {
	solution unfolding.Solution
	err      error
}

func (backend staticBackend) Unfold(context.Context, unfolding.Problem) (unfolding.Solution, error) {
	return backend.solution, backend.err
}

func identityProblem(testInstance *testing.T, rawMethod string, errorMode unfolding.ErrorMode) unfolding.Problem {
	testInstance.Helper()
	method, methodError := unfolding.ParseMethod(rawMethod)
	require.NoError(testInstance, methodError)

	edges := []float64{0, 10, 20, 40}
	measured, measuredError := histogram.New(edges, []float64{12, 25, 7}, []float64{2, 3, 1})
	require.NoError(testInstance, measuredError)
	response, responseError := histogram.NewMatrix(edges, edges, []float64{
		100, 0, 0,
		0, 50, 0,
		0, 0, 80,
	}, nil)
	require.NoError(testInstance, responseError)

	return unfolding.Problem{
		Method:         method,
		Regularization: method.EffectiveRegularization(-1, measured.Bins()),
		ErrorMode:      errorMode,
		Toys:           1000,
		Measured:       measured,
		Reco:           response.ProjectionX(),
		Truth:          response.ProjectionY(),
		Response:       response,
	}
}

func newDriverAdapter(testInstance *testing.T, runner execshell.CommandRunner, timeout time.Duration) (*unfolding.Adapter, *observer.ObservedLogs) {
	testInstance.Helper()
	observedCore, observedLogs := observer.New(zapcore.DebugLevel)
	logger := zap.New(observedCore)

	executor, executorError := execshell.NewShellExecutor(logger, runner)
	require.NoError(testInstance, executorError)

	dispatcher, dispatcherError := unfolding.NewDriverDispatcher(map[unfolding.Family]unfolding.DriverConfiguration{
		unfolding.FamilyRooUnfold: {Executable: testRooUnfoldDriverConstant, Timeout: timeout},
		unfolding.FamilyQUnfold:   {Executable: testQUnfoldDriverConstant, Arguments: []string{"--backend", "cpu"}, Timeout: timeout},
	}, executor)
	require.NoError(testInstance, dispatcherError)

	adapter, adapterError := unfolding.NewAdapter(logger, dispatcher)
	require.NoError(testInstance, adapterError)
	return adapter, observedLogs
}

func TestAdapterIdentityResponseReturnsMeasured(testInstance *testing.T) {
	testCases := []struct {
		name               string
		rawMethod          string
		expectedExecutable string
	}{
		{name: "roounfold_inversion", rawMethod: "Inversion", expectedExecutable: testRooUnfoldDriverConstant},
		{name: "roounfold_bayes", rawMethod: "Bayes", expectedExecutable: testRooUnfoldDriverConstant},
		{name: "qunfold_simulated_annealing", rawMethod: "QUnfold:SA", expectedExecutable: testQUnfoldDriverConstant},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			runner := &invertingCommandRunner{}
			adapter, _ := newDriverAdapter(testInstance, runner, 0)
			problem := identityProblem(testInstance, testCase.rawMethod, unfolding.ErrorModeCovariance)

			outcome := adapter.Run(context.Background(), problem)
			require.NoError(testInstance, outcome.Err)
			require.Equal(testInstance, unfolding.StateSuccess, outcome.State)
			require.InDeltaSlice(testInstance, problem.Measured.Contents(), outcome.Solution.Unfolded.Contents(), testToleranceConstant)
			require.InDeltaSlice(testInstance, problem.Measured.Errors(), outcome.Solution.Unfolded.Errors(), testToleranceConstant)
			require.True(testInstance, outcome.Solution.HasCovariance())
			require.InDelta(testInstance, 9.0, outcome.Solution.Covariance.Content(1, 1), testToleranceConstant)
			require.InDelta(testInstance, 0.0, outcome.Solution.Covariance.Content(0, 1), testToleranceConstant)

			require.Len(testInstance, runner.commands, 1)
			require.Equal(testInstance, execshell.CommandName(testCase.expectedExecutable), runner.commands[0].Name)
			require.Len(testInstance, runner.problems, 1)
			require.Equal(testInstance, problem.Method, runner.problems[0].Method)
			require.Equal(testInstance, problem.Regularization, runner.problems[0].Regularization)
		})
	}
}

func TestAdapterDropsCovarianceWhenNotRequested(testInstance *testing.T) {
	adapter, _ := newDriverAdapter(testInstance, &invertingCommandRunner{}, 0)
	solution, unfoldError := adapter.Unfold(context.Background(), identityProblem(testInstance, "Inversion", unfolding.ErrorModeNone))
	require.NoError(testInstance, unfoldError)
	require.False(testInstance, solution.HasCovariance())
	require.Equal(testInstance, 3, solution.Unfolded.Bins())
}

func TestAdapterFailureStates(testInstance *testing.T) {
	reportedFailure, encodeError := unfolding.EncodeFailure("response matrix is singular")
	require.NoError(testInstance, encodeError)

	testCases := []struct {
		name          string
		runner        *scriptedCommandRunner
		errorMode     unfolding.ErrorMode
		expectedCause error
	}{
		{
			name:      "non_zero_exit",
			runner:    &scriptedCommandRunner{result: execshell.ExecutionResult{ExitCode: 1, StandardError: "segmentation violation"}},
			errorMode: unfolding.ErrorModeNone,
		},
		{
			name:          "reported_failure",
			runner:        &scriptedCommandRunner{result: execshell.ExecutionResult{StandardOutput: string(reportedFailure)}},
			errorMode:     unfolding.ErrorModeNone,
			expectedCause: unfolding.ErrBackendReportedFailure,
		},
		{
			name:          "malformed_output",
			runner:        &scriptedCommandRunner{result: execshell.ExecutionResult{StandardOutput: "Info in <TUnfold>: done"}},
			errorMode:     unfolding.ErrorModeNone,
			expectedCause: unfolding.ErrMalformedSolution,
		},
		{
			name:          "wrong_bin_count",
			runner:        &scriptedCommandRunner{result: execshell.ExecutionResult{StandardOutput: `{"protocol":1,"unfolded":{"edges":[0,1],"contents":[3],"errors":[1]}}`}},
			errorMode:     unfolding.ErrorModeNone,
			expectedCause: unfolding.ErrMalformedSolution,
		},
		{
			name:          "missing_covariance",
			runner:        &scriptedCommandRunner{result: execshell.ExecutionResult{StandardOutput: `{"unfolded":{"edges":[0,10,20,40],"contents":[1,2,3],"errors":[1,1,1]}}`}},
			errorMode:     unfolding.ErrorModeCovariance,
			expectedCause: unfolding.ErrMissingCovariance,
		},
		{
			name:          "unsupported_protocol",
			runner:        &scriptedCommandRunner{result: execshell.ExecutionResult{StandardOutput: `{"protocol":7}`}},
			errorMode:     unfolding.ErrorModeNone,
			expectedCause: unfolding.ErrUnsupportedProtocol,
		},
		{
			name:          "runner_error",
			runner:        &scriptedCommandRunner{runError: errors.New("executable file not found")},
			errorMode:     unfolding.ErrorModeNone,
			expectedCause: nil,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			adapter, observedLogs := newDriverAdapter(testInstance, testCase.runner, 0)
			outcome := adapter.Run(context.Background(), identityProblem(testInstance, "SVD", testCase.errorMode))

			require.Equal(testInstance, unfolding.StateFailure, outcome.State)
			require.False(testInstance, outcome.Succeeded())

			var backendError unfolding.BackendError
			require.ErrorAs(testInstance, outcome.Err, &backendError)
			require.Equal(testInstance, unfolding.FamilyRooUnfold, backendError.Family)
			require.Equal(testInstance, "SVD", backendError.Method)
			if testCase.expectedCause != nil {
				require.ErrorIs(testInstance, outcome.Err, testCase.expectedCause)
			}

			failureLogs := observedLogs.FilterMessage("unfolding failed").All()
			require.Len(testInstance, failureLogs, 1)
			require.Equal(testInstance, zapcore.ErrorLevel, failureLogs[0].Level)
		})
	}
}

func TestAdapterReportsDriverExitAsCommandFailure(testInstance *testing.T) {
	runner := &scriptedCommandRunner{result: execshell.ExecutionResult{ExitCode: 3, StandardError: "RooUnfold not found"}}
	adapter, _ := newDriverAdapter(testInstance, runner, 0)

	_, unfoldError := adapter.Unfold(context.Background(), identityProblem(testInstance, "QUnfold", unfolding.ErrorModeNone))

	var commandFailure execshell.CommandFailedError
	require.ErrorAs(testInstance, unfoldError, &commandFailure)
	require.Equal(testInstance, 3, commandFailure.Result.ExitCode)
	require.Contains(testInstance, unfoldError.Error(), "RooUnfold not found")
}

func TestAdapterAppliesDriverTimeout(testInstance *testing.T) {
	adapter, _ := newDriverAdapter(testInstance, &scriptedCommandRunner{blockUntilCancelled: true}, 20*time.Millisecond)

	outcome := adapter.Run(context.Background(), identityProblem(testInstance, "Bayes", unfolding.ErrorModeNone))

	require.Equal(testInstance, unfolding.StateFailure, outcome.State)
	require.ErrorIs(testInstance, outcome.Err, context.DeadlineExceeded)
}

func TestAdapterRejectsUnregisteredFamily(testInstance *testing.T) {
	dispatcher := unfolding.NewDispatcher(map[unfolding.Family]unfolding.Backend{
		unfolding.FamilyRooUnfold: staticBackend{},
		unfolding.FamilyQUnfold:   nil,
	})
	adapter, adapterError := unfolding.NewAdapter(zap.NewNop(), dispatcher)
	require.NoError(testInstance, adapterError)

	outcome := adapter.Run(context.Background(), identityProblem(testInstance, "QUnfold:QA", unfolding.ErrorModeNone))
	require.Equal(testInstance, unfolding.StateFailure, outcome.State)
	require.ErrorIs(testInstance, outcome.Err, unfolding.ErrBackendNotRegistered)
}

func TestAdapterPassesThroughBackendSolution(testInstance *testing.T) {
	problem := identityProblem(testInstance, "BinByBin", unfolding.ErrorModeNone)
	dispatcher := unfolding.NewDispatcher(map[unfolding.Family]unfolding.Backend{
		unfolding.FamilyRooUnfold: staticBackend{solution: unfolding.Solution{Unfolded: problem.Truth}},
	})
	adapter, adapterError := unfolding.NewAdapter(zap.NewNop(), dispatcher)
	require.NoError(testInstance, adapterError)

	solution, unfoldError := adapter.Unfold(context.Background(), problem)
	require.NoError(testInstance, unfoldError)
	require.Equal(testInstance, problem.Truth.Contents(), solution.Unfolded.Contents())
}

func TestConstructorsValidateDependencies(testInstance *testing.T) {
	_, adapterError := unfolding.NewAdapter(nil, unfolding.NewDispatcher(nil))
	require.ErrorIs(testInstance, adapterError, unfolding.ErrLoggerNotConfigured)

	_, adapterError = unfolding.NewAdapter(zap.NewNop(), nil)
	require.ErrorIs(testInstance, adapterError, unfolding.ErrDispatcherNotConfigured)

	_, backendError := unfolding.NewDriverBackend(unfolding.FamilyQUnfold, unfolding.DriverConfiguration{Executable: "qunfold-driver"}, nil)
	require.ErrorIs(testInstance, backendError, unfolding.ErrExecutorNotConfigured)

	executor, executorError := execshell.NewShellExecutor(zap.NewNop(), &scriptedCommandRunner{})
	require.NoError(testInstance, executorError)
	_, dispatcherError := unfolding.NewDriverDispatcher(map[unfolding.Family]unfolding.DriverConfiguration{
		unfolding.FamilyQUnfold: {Executable: "   "},
	}, executor)
	require.ErrorIs(testInstance, dispatcherError, unfolding.ErrExecutableNotConfigured)
}
