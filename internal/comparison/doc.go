// Package comparison measures how well unfolded cross sections agree with a truth spectrum.
package comparison
