// Package histio reads input histograms from ROOT files and writes result histograms back.
//
// Reading failures are reported as DataAccessError and writing failures as WriteError.
package histio
