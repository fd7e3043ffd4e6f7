package spectrum_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/temirov/xsec/internal/execshell"
	"github.com/temirov/xsec/internal/histio"
	"github.com/temirov/xsec/internal/histogram"
	"github.com/temirov/xsec/internal/spectrum"
	"github.com/temirov/xsec/internal/unfolding"
)

const (
	testToleranceConstant         = 1e-9
	testInputFileNameConstant     = "inputs.root"
	testOutputFileNameConstant    = "result.root"
	testConfigurationNameConstant = "run.xml"
	testDriverExecutableConstant  = "xsec-fake-driver"
	testLuminosityConstant        = 2.0
	configurationTemplateConstant = `<configuration>
  <data file="%[1]s" hpath="h_data"/>
  <sig file="%[1]s" hpath="h_signal"/>
  %[2]s
  <res file="%[1]s" hpath="h_response"/>
  <gen file="%[1]s" hpath="h_generated"/>
  <lumi value="2"/>
  <unfolding method="Inversion" statErr="%[3]s" ntoys="%[4]d"/>
</configuration>
`
	backgroundElementTemplateConstant = `<bkg file="%s" hpath="%s"/>`
)

func TestMain(testMain *testing.M) {
	goleak.VerifyTestMain(testMain)
}

var fixtureEdges = []float64{0, 1, 2, 4}

// writeInputs stores a diagonal response whose reco projection equals the signal, so the
// acceptance is one and the efficiency one half in every bin.
func writeInputs(testInstance *testing.T) string {
	testInstance.Helper()
	data := mustHistogram(testInstance, []float64{110, 80, 30}, nil)
	signal := mustHistogram(testInstance, []float64{100, 60, 20}, nil)
	background := mustHistogram(testInstance, []float64{10, 20, 10}, []float64{1, 2, 1})
	zeroBackground, zeroError := histogram.Zero(fixtureEdges)
	require.NoError(testInstance, zeroError)
	coarseBackground, coarseError := histogram.New([]float64{0, 2, 4}, []float64{30, 10}, nil)
	require.NoError(testInstance, coarseError)
	generated := mustHistogram(testInstance, []float64{200, 120, 40}, nil)
	response, responseError := histogram.NewMatrix(fixtureEdges, fixtureEdges, []float64{
		100, 0, 0,
		0, 60, 0,
		0, 0, 20,
	}, nil)
	require.NoError(testInstance, responseError)

	inputPath := filepath.Join(testInstance.TempDir(), testInputFileNameConstant)
	require.NoError(testInstance, histio.NewWriter(zap.NewNop()).Write(inputPath, []histio.Entry{
		histio.HistogramEntry("h_data", "data", data),
		histio.HistogramEntry("h_signal", "signal", signal),
		histio.HistogramEntry("h_background", "background", background),
		histio.HistogramEntry("h_zero", "zero", zeroBackground),
		histio.HistogramEntry("h_background_coarse", "coarse background", coarseBackground),
		histio.HistogramEntry("h_generated", "generated", generated),
		histio.MatrixEntry("h_response", "response", response),
	}))
	return inputPath
}

func writeRunConfiguration(testInstance *testing.T, inputPath string, backgroundPath string, statisticalError string, toyCount int) string {
	testInstance.Helper()
	backgroundElement := ""
	if len(backgroundPath) > 0 {
		backgroundElement = fmt.Sprintf(backgroundElementTemplateConstant, inputPath, backgroundPath)
	}
	contents := fmt.Sprintf(configurationTemplateConstant, inputPath, backgroundElement, statisticalError, toyCount)
	configurationPath := filepath.Join(testInstance.TempDir(), testConfigurationNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(contents), 0o600))
	return configurationPath
}

func mustHistogram(testInstance *testing.T, contents []float64, errorValues []float64) histogram.Histogram {
	testInstance.Helper()
	created, creationError := histogram.New(fixtureEdges, contents, errorValues)
	require.NoError(testInstance, creationError)
	return created
}

// identityDriverExecutor answers every driver invocation with the measured spectrum,
// as a backend would for a diagonal response.
type identityDriverExecutor struct {
	invocations int
	failure     string
}

func (executor *identityDriverExecutor) Execute(_ context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	executor.invocations++
	problem, decodeError := unfolding.DecodeProblem(command.Details.StandardInput)
	if decodeError != nil {
		return execshell.ExecutionResult{}, decodeError
	}
	if len(executor.failure) > 0 {
		payload, encodeError := unfolding.EncodeFailure(executor.failure)
		return execshell.ExecutionResult{StandardOutput: string(payload)}, encodeError
	}

	solution := unfolding.Solution{Unfolded: problem.Measured}
	if problem.ErrorMode == unfolding.ErrorModeCovariance {
		variances := mat.NewSymDense(problem.Measured.Bins(), nil)
		for binIndex := 0; binIndex < problem.Measured.Bins(); binIndex++ {
			variances.SetSym(binIndex, binIndex, problem.Measured.Error(binIndex)*problem.Measured.Error(binIndex))
		}
		covariance, covarianceError := histogram.NewSquareMatrix(problem.Measured.Edges(), variances)
		if covarianceError != nil {
			return execshell.ExecutionResult{}, covarianceError
		}
		solution.Covariance = covariance
	}
	payload, encodeError := unfolding.EncodeSolution(solution)
	return execshell.ExecutionResult{StandardOutput: string(payload)}, encodeError
}

func newTestService(testInstance *testing.T, logger *zap.Logger, executor unfolding.CommandExecutor) *spectrum.Service {
	testInstance.Helper()
	dispatcher, dispatcherError := unfolding.NewDriverDispatcher(map[unfolding.Family]unfolding.DriverConfiguration{
		unfolding.FamilyRooUnfold: {Executable: testDriverExecutableConstant},
	}, executor)
	require.NoError(testInstance, dispatcherError)
	adapter, adapterError := unfolding.NewAdapter(logger, dispatcher)
	require.NoError(testInstance, adapterError)

	service, serviceError := spectrum.NewService(spectrum.ServiceDependencies{
		Logger:   logger,
		Loader:   histio.NewLoader(logger),
		Writer:   histio.NewWriter(logger),
		Unfolder: adapter,
	})
	require.NoError(testInstance, serviceError)
	return service
}
