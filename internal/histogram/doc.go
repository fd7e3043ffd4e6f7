// Package histogram models binned distributions and response matrices.
//
// Values are immutable: every arithmetic operation returns a new Histogram or
// Matrix. Error propagation follows ROOT's conventions for uncorrelated bins
// (TH1::Add, TH1::Multiply, TH1::Divide without the binomial option).
package histogram
