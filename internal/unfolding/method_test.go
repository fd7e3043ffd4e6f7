package unfolding_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/xsec/internal/unfolding"
)

func TestParseMethod(testInstance *testing.T) {
	testCases := []struct {
		name           string
		rawMethod      string
		expectedMethod unfolding.Method
		expectError    bool
	}{
		{name: "bayes", rawMethod: "Bayes", expectedMethod: unfolding.Method{Family: unfolding.FamilyRooUnfold, Name: "Bayes"}},
		{name: "trimmed_inversion", rawMethod: "  Inversion ", expectedMethod: unfolding.Method{Family: unfolding.FamilyRooUnfold, Name: "Inversion"}},
		{name: "tunfold", rawMethod: "TUnfold", expectedMethod: unfolding.Method{Family: unfolding.FamilyRooUnfold, Name: "TUnfold"}},
		{name: "qunfold_default_solver", rawMethod: "QUnfold", expectedMethod: unfolding.Method{Family: unfolding.FamilyQUnfold, Name: "QUnfold"}},
		{name: "qunfold_hybrid", rawMethod: "QUnfold:HYB", expectedMethod: unfolding.Method{Family: unfolding.FamilyQUnfold, Name: "QUnfold", Solver: "HYB"}},
		{name: "unknown", rawMethod: "Gradient", expectError: true},
		{name: "case_sensitive", rawMethod: "bayes", expectError: true},
		{name: "solver_on_roounfold", rawMethod: "Bayes:SA", expectError: true},
		{name: "unknown_solver", rawMethod: "QUnfold:GPU", expectError: true},
		{name: "empty", rawMethod: "", expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			method, parseError := unfolding.ParseMethod(testCase.rawMethod)
			if testCase.expectError {
				require.ErrorIs(testInstance, parseError, unfolding.ErrUnknownMethod)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expectedMethod, method)
		})
	}
}

func TestMethodStringRoundTrips(testInstance *testing.T) {
	for _, rawMethod := range unfolding.SupportedMethods() {
		method, parseError := unfolding.ParseMethod(rawMethod)
		require.NoError(testInstance, parseError)
		require.Equal(testInstance, rawMethod, method.String())
	}
	require.Contains(testInstance, unfolding.SupportedMethods(), "QUnfold:QA")
	require.IsNonDecreasing(testInstance, unfolding.SupportedMethods())
}

func TestEffectiveRegularization(testInstance *testing.T) {
	testCases := []struct {
		name           string
		rawMethod      string
		configured     int
		recoBins       int
		expectedResult int
	}{
		{name: "explicit_value_wins", rawMethod: "Bayes", configured: 7, recoBins: 10, expectedResult: 7},
		{name: "bayes_default", rawMethod: "Bayes", configured: -1, recoBins: 10, expectedResult: 4},
		{name: "svd_half_bins", rawMethod: "SVD", configured: -1, recoBins: 10, expectedResult: 5},
		{name: "svd_minimum", rawMethod: "SVD", configured: -1, recoBins: 3, expectedResult: 2},
		{name: "inversion_untouched", rawMethod: "Inversion", configured: -1, recoBins: 10, expectedResult: -1},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			method, parseError := unfolding.ParseMethod(testCase.rawMethod)
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expectedResult, method.EffectiveRegularization(testCase.configured, testCase.recoBins))
		})
	}
}
