// Package unfolding dispatches unfolding problems to external RooUnfold and QUnfold drivers.
//
// A configured method string selects a backend family. Each family is served by a driver
// executable that reads a JSON problem from standard input and writes a JSON solution to
// standard output. Every run ends in SUCCESS with a Solution or FAILURE with a BackendError.
package unfolding
