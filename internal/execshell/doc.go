// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with logging via ShellExecutor, exposes OSCommandRunner for
// default process execution, and defines the abstractions xsec uses to run the
// unfolding driver executables in a testable manner.
package execshell
