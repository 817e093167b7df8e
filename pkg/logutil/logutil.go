// Package logutil provides loggers used for tracing script execution.
package logutil

import (
	"io"
	"log"
)

// Discard is a Logger that ignores all loggings.
var Discard = log.New(io.Discard, "", 0)

// New returns a Logger writing to out with the given prefix. The output has no
// timestamps; traces are meant to be read alongside the script that produced
// them.
func New(out io.Writer, prefix string) *log.Logger {
	return log.New(out, prefix, 0)
}

// Tracer returns a Logger writing to out if verbose is true, and Discard
// otherwise.
func Tracer(out io.Writer, verbose bool) *log.Logger {
	if !verbose {
		return Discard
	}
	return New(out, "")
}
