package unfolding

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/temirov/xsec/internal/histogram"
)

// ProtocolVersion is the version of the JSON exchange spoken with unfolding drivers.
const ProtocolVersion = 1

const (
	measuredLabelConstant   = "measured"
	recoLabelConstant       = "reco"
	truthLabelConstant      = "truth"
	responseLabelConstant   = "response"
	unfoldedLabelConstant   = "unfolded"
	covarianceLabelConstant = "covariance"
)

type wireHistogram struct {
	Edges    []float64 `json:"edges"`
	Contents []float64 `json:"contents"`
	Errors   []float64 `json:"errors"`
}

type wireMatrix struct {
	XEdges   []float64 `json:"x_edges"`
	YEdges   []float64 `json:"y_edges"`
	Contents []float64 `json:"contents"`
	Errors   []float64 `json:"errors"`
}

type wireProblem struct {
	Protocol       int           `json:"protocol"`
	Method         string        `json:"method"`
	Solver         string        `json:"solver,omitempty"`
	Regularization int           `json:"regularization"`
	ErrorMode      ErrorMode     `json:"error_mode"`
	Toys           int           `json:"toys"`
	Measured       wireHistogram `json:"measured"`
	Reco           wireHistogram `json:"reco"`
	Truth          wireHistogram `json:"truth"`
	Response       wireMatrix    `json:"response"`
}

type wireSolution struct {
	Protocol   int            `json:"protocol,omitempty"`
	Unfolded   *wireHistogram `json:"unfolded,omitempty"`
	Covariance *wireMatrix    `json:"covariance,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// EncodeProblem renders the request document written to a driver's standard input.
func EncodeProblem(problem Problem) ([]byte, error) {
	document := wireProblem{
		Protocol:       ProtocolVersion,
		Method:         problem.Method.Name,
		Solver:         problem.Method.Solver,
		Regularization: problem.Regularization,
		ErrorMode:      problem.ErrorMode,
		Toys:           problem.Toys,
		Measured:       toWireHistogram(problem.Measured),
		Reco:           toWireHistogram(problem.Reco),
		Truth:          toWireHistogram(problem.Truth),
		Response:       toWireMatrix(problem.Response),
	}
	payload, encodingError := json.Marshal(document)
	if encodingError != nil {
		return nil, fmt.Errorf(problemEncodingErrorTemplateConstant, encodingError)
	}
	return payload, nil
}

// DecodeProblem parses a request document. Drivers written in Go use it to read their input.
func DecodeProblem(payload []byte) (Problem, error) {
	var document wireProblem
	if decodingError := json.Unmarshal(payload, &document); decodingError != nil {
		return Problem{}, fmt.Errorf(problemDecodingErrorTemplateConstant, decodingError)
	}
	if document.Protocol != ProtocolVersion {
		return Problem{}, fmt.Errorf(unsupportedProtocolTemplateConstant, ErrUnsupportedProtocol, document.Protocol)
	}

	rawMethod := document.Method
	if len(document.Solver) > 0 {
		rawMethod += methodSolverSeparatorConstant + document.Solver
	}
	method, methodError := ParseMethod(rawMethod)
	if methodError != nil {
		return Problem{}, fmt.Errorf(problemDecodingErrorTemplateConstant, methodError)
	}

	problem := Problem{
		Method:         method,
		Regularization: document.Regularization,
		ErrorMode:      document.ErrorMode,
		Toys:           document.Toys,
	}
	var conversionError error
	if problem.Measured, conversionError = fromWireHistogram(measuredLabelConstant, document.Measured); conversionError != nil {
		return Problem{}, fmt.Errorf(problemDecodingErrorTemplateConstant, conversionError)
	}
	if problem.Reco, conversionError = fromWireHistogram(recoLabelConstant, document.Reco); conversionError != nil {
		return Problem{}, fmt.Errorf(problemDecodingErrorTemplateConstant, conversionError)
	}
	if problem.Truth, conversionError = fromWireHistogram(truthLabelConstant, document.Truth); conversionError != nil {
		return Problem{}, fmt.Errorf(problemDecodingErrorTemplateConstant, conversionError)
	}
	if problem.Response, conversionError = fromWireMatrix(responseLabelConstant, document.Response); conversionError != nil {
		return Problem{}, fmt.Errorf(problemDecodingErrorTemplateConstant, conversionError)
	}
	return problem, nil
}

// EncodeSolution renders a successful driver answer.
func EncodeSolution(solution Solution) ([]byte, error) {
	unfolded := toWireHistogram(solution.Unfolded)
	document := wireSolution{Protocol: ProtocolVersion, Unfolded: &unfolded}
	if solution.HasCovariance() {
		covariance := toWireMatrix(solution.Covariance)
		document.Covariance = &covariance
	}
	payload, encodingError := json.Marshal(document)
	if encodingError != nil {
		return nil, fmt.Errorf(solutionEncodingErrorTemplateConstant, encodingError)
	}
	return payload, nil
}

// EncodeFailure renders a driver answer reporting that unfolding failed.
func EncodeFailure(message string) ([]byte, error) {
	payload, encodingError := json.Marshal(wireSolution{Protocol: ProtocolVersion, Error: message})
	if encodingError != nil {
		return nil, fmt.Errorf(solutionEncodingErrorTemplateConstant, encodingError)
	}
	return payload, nil
}

// decodeSolution interprets a driver answer for the given problem.
func decodeSolution(payload []byte, problem Problem) (Solution, error) {
	var document wireSolution
	if decodingError := json.Unmarshal([]byte(strings.TrimSpace(string(payload))), &document); decodingError != nil {
		return Solution{}, fmt.Errorf(malformedSolutionTemplateConstant, ErrMalformedSolution, decodingError)
	}
	if document.Protocol != 0 && document.Protocol != ProtocolVersion {
		return Solution{}, fmt.Errorf(unsupportedProtocolTemplateConstant, ErrUnsupportedProtocol, document.Protocol)
	}
	if trimmedMessage := strings.TrimSpace(document.Error); len(trimmedMessage) > 0 {
		return Solution{}, fmt.Errorf(backendReportedFailureTemplateConstant, ErrBackendReportedFailure, trimmedMessage)
	}
	if document.Unfolded == nil {
		return Solution{}, fmt.Errorf(malformedSolutionTemplateConstant, ErrMalformedSolution, unfoldedLabelConstant)
	}

	unfolded, unfoldedError := fromWireHistogram(unfoldedLabelConstant, *document.Unfolded)
	if unfoldedError != nil {
		return Solution{}, fmt.Errorf(malformedSolutionTemplateConstant, ErrMalformedSolution, unfoldedError)
	}
	expectedBins := problem.Response.YBins()
	if unfolded.Bins() != expectedBins {
		return Solution{}, fmt.Errorf(unfoldedBinCountTemplateConstant, ErrMalformedSolution, unfolded.Bins(), expectedBins)
	}

	solution := Solution{Unfolded: unfolded}
	if problem.ErrorMode != ErrorModeCovariance {
		return solution, nil
	}
	if document.Covariance == nil {
		return Solution{}, ErrMissingCovariance
	}
	covariance, covarianceError := fromWireMatrix(covarianceLabelConstant, *document.Covariance)
	if covarianceError != nil {
		return Solution{}, fmt.Errorf(malformedSolutionTemplateConstant, ErrMalformedSolution, covarianceError)
	}
	if covariance.XBins() != expectedBins || covariance.YBins() != expectedBins {
		return Solution{}, fmt.Errorf(covarianceShapeTemplateConstant, ErrMalformedSolution, covariance.XBins(), covariance.YBins(), expectedBins, expectedBins)
	}
	solution.Covariance = covariance
	return solution, nil
}

func toWireHistogram(source histogram.Histogram) wireHistogram {
	if source.IsZero() {
		return wireHistogram{}
	}
	return wireHistogram{Edges: source.Edges(), Contents: source.Contents(), Errors: source.Errors()}
}

func toWireMatrix(source histogram.Matrix) wireMatrix {
	if source.IsZero() {
		return wireMatrix{}
	}
	return wireMatrix{XEdges: source.XEdges(), YEdges: source.YEdges(), Contents: source.Contents(), Errors: source.Errors()}
}

func fromWireHistogram(label string, source wireHistogram) (histogram.Histogram, error) {
	if len(source.Edges) == 0 {
		return histogram.Histogram{}, nil
	}
	converted, conversionError := histogram.New(source.Edges, source.Contents, source.Errors)
	if conversionError != nil {
		return histogram.Histogram{}, fmt.Errorf(histogramConversionErrorTemplateConstant, label, conversionError)
	}
	return converted, nil
}

func fromWireMatrix(label string, source wireMatrix) (histogram.Matrix, error) {
	if len(source.XEdges) == 0 && len(source.YEdges) == 0 {
		return histogram.Matrix{}, nil
	}
	converted, conversionError := histogram.NewMatrix(source.XEdges, source.YEdges, source.Contents, source.Errors)
	if conversionError != nil {
		return histogram.Matrix{}, fmt.Errorf(histogramConversionErrorTemplateConstant, label, conversionError)
	}
	return converted, nil
}
