package unfolding

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const (
	methodSolverSeparatorConstant     = ":"
	unknownMethodMessageConstant      = "unknown unfolding method"
	unknownMethodTemplateConstant     = "%w %q (supported: %s)"
	unexpectedSolverTemplateConstant  = "%w %q: method %s does not accept a solver"
	unknownSolverTemplateConstant     = "%w %q: unsupported solver %q"
	supportedMethodsSeparatorConstant = ", "
	methodBayesConstant               = "Bayes"
	methodSVDConstant                 = "SVD"
	methodInversionConstant           = "Inversion"
	methodBinByBinConstant            = "BinByBin"
	methodIDSConstant                 = "IDS"
	methodTUnfoldConstant             = "TUnfold"
	methodQUnfoldConstant             = "QUnfold"
	solverSimulatedAnnealingConstant  = "SA"
	solverHybridConstant              = "HYB"
	solverQuantumAnnealingConstant    = "QA"
	defaultBayesIterationsConstant    = 4
	minimumSVDRegularizationConstant  = 2
)

// Family identifies the external engine that implements a method.
type Family string

// Supported backend families.
const (
	FamilyRooUnfold Family = "roounfold"
	FamilyQUnfold   Family = "qunfold"
)

// ErrUnknownMethod reports a method string that no backend family implements.
var ErrUnknownMethod = errors.New(unknownMethodMessageConstant)

// Method is a parsed unfolding method: the engine family, the method name, and an optional solver.
type Method struct {
	Family Family
	Name   string
	Solver string
}

var methodFamilies = map[string]Family{
	methodBayesConstant:     FamilyRooUnfold,
	methodSVDConstant:       FamilyRooUnfold,
	methodInversionConstant: FamilyRooUnfold,
	methodBinByBinConstant:  FamilyRooUnfold,
	methodIDSConstant:       FamilyRooUnfold,
	methodTUnfoldConstant:   FamilyRooUnfold,
	methodQUnfoldConstant:   FamilyQUnfold,
}

var familySolvers = map[Family][]string{
	FamilyQUnfold: {solverSimulatedAnnealingConstant, solverHybridConstant, solverQuantumAnnealingConstant},
}

// ParseMethod resolves a configured method string such as "Bayes" or "QUnfold:SA".
// Dispatch depends only on the string; method names are case sensitive as in RooUnfold.
func ParseMethod(rawMethod string) (Method, error) {
	trimmedMethod := strings.TrimSpace(rawMethod)
	methodName, solver, _ := strings.Cut(trimmedMethod, methodSolverSeparatorConstant)

	family, known := methodFamilies[methodName]
	if !known {
		return Method{}, fmt.Errorf(unknownMethodTemplateConstant, ErrUnknownMethod, trimmedMethod, strings.Join(SupportedMethods(), supportedMethodsSeparatorConstant))
	}

	if len(solver) > 0 {
		solvers, acceptsSolver := familySolvers[family]
		if !acceptsSolver {
			return Method{}, fmt.Errorf(unexpectedSolverTemplateConstant, ErrUnknownMethod, trimmedMethod, methodName)
		}
		if !slices.Contains(solvers, solver) {
			return Method{}, fmt.Errorf(unknownSolverTemplateConstant, ErrUnknownMethod, trimmedMethod, solver)
		}
	}

	return Method{Family: family, Name: methodName, Solver: solver}, nil
}

// SupportedMethods lists the accepted method strings in sorted order.
func SupportedMethods() []string {
	supported := make([]string, 0, len(methodFamilies))
	for methodName, family := range methodFamilies {
		supported = append(supported, methodName)
		for _, solver := range familySolvers[family] {
			supported = append(supported, methodName+methodSolverSeparatorConstant+solver)
		}
	}
	slices.Sort(supported)
	return supported
}

// String renders the method as written in configuration files.
func (method Method) String() string {
	if len(method.Solver) == 0 {
		return method.Name
	}
	return method.Name + methodSolverSeparatorConstant + method.Solver
}

// EffectiveRegularization applies the method default when the configured value is negative:
// four iterations for Bayes and half the reco bins, at least two, for SVD.
func (method Method) EffectiveRegularization(configured int, recoBins int) int {
	if configured >= 0 {
		return configured
	}
	switch method.Name {
	case methodBayesConstant:
		return defaultBayesIterationsConstant
	case methodSVDConstant:
		regularization := recoBins / 2
		if regularization < minimumSVDRegularizationConstant {
			regularization = minimumSVDRegularizationConstant
		}
		return regularization
	default:
		return configured
	}
}
