// Package ui provides helpers for formatting human-readable console output.
//
// The helpers translate unfolding driver events into concise messages and
// render comparison metrics as terminal tables, while detailed telemetry
// continues to flow through structured loggers.
package ui
