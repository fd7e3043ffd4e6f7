// Package toys resamples histograms and estimates the covariance of derived observables from the replicas.
package toys
