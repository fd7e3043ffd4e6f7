// Package spectrum turns an unfolding configuration into differential cross sections.
//
// A run loads the configured histograms, scales and background-subtracts the data,
// corrects it for acceptance, unfolds it through the unfolding adapter, divides by the
// efficiency, and derives absolute and relative differential cross sections. Statistical
// uncertainties come either from the backend covariance or from a toy ensemble.
package spectrum
