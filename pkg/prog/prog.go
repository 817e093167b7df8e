// Package prog provides the entry point of asschk: it parses the command line
// and runs a Program, translating the error it returns into messages and an
// exit status.
package prog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
)

// DefaultName is the invocation name used when argv[0] is missing.
const DefaultName = "asschk"

// Flags keeps command-line flags.
type Flags struct {
	// Name is the invocation name, the base name of argv[0]. Messages printed
	// to stderr are prefixed with it.
	Name string

	Verbose bool
	// Defines keeps the values of -D options, in the form name or name=value.
	Defines []string
}

func newFlagSet(f *Flags) *pflag.FlagSet {
	fs := pflag.NewFlagSet(f.Name, pflag.ContinueOnError)
	// Errors and usage will be printed explicitly.
	fs.SetOutput(io.Discard)
	fs.SortFlags = false

	fs.BoolVar(&f.Verbose, "verbose", false, "trace script execution to stderr")
	fs.StringArrayVarP(&f.Defines, "define", "D", nil,
		"set variable `name[=value]` before running the script; value defaults to 1")
	return fs
}

// Usage is the one-line usage message.
const Usage = "usage: asschk [--verbose] {-D<name>[=<value>]}"

// Run parses command-line flags and runs the program. It returns the exit
// status of the program.
func Run(fds [3]*os.File, args []string, p Program) int {
	f := &Flags{Name: invocationName(args)}
	fs := newFlagSet(f)
	var rest []string
	if len(args) > 0 {
		rest = attachDefines(args[1:])
	}
	if err := fs.Parse(rest); err != nil {
		if err == pflag.ErrHelp {
			err = errors.New("unknown flag: --help")
		}
		fmt.Fprintf(fds[2], "%s: %v\n", f.Name, err)
		fmt.Fprintf(fds[2], "%s: %s\n", f.Name, Usage)
		return 1
	}

	err := p.Run(fds, f, fs.Args())
	if err == nil {
		return 0
	}
	var exit exitError
	if errors.As(err, &exit) {
		return exit.exit
	}
	fmt.Fprintf(fds[2], "%s: %v\n", f.Name, err)
	if _, ok := err.(badUsageError); ok {
		fmt.Fprintf(fds[2], "%s: %s\n", f.Name, Usage)
	}
	return 1
}

// Rewrites -D<name>[=<value>] to --define=<name>[=<value>]. The value of -D is
// always attached: a bare -D defines the empty name, and -D=x defines the
// empty name as x. The following argument is never consumed.
func attachDefines(args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i, arg := range out {
		if arg == "--" {
			break
		}
		if strings.HasPrefix(arg, "-D") {
			out[i] = "--define=" + arg[2:]
		}
	}
	return out
}

func invocationName(args []string) string {
	if len(args) == 0 || args[0] == "" {
		return DefaultName
	}
	return filepath.Base(args[0])
}

// BadUsage returns a special error that may be returned by Program.Run. It
// causes the main function to print out a message, the usage information and
// exit with 1.
func BadUsage(msg string) error { return badUsageError{msg} }

type badUsageError struct{ msg string }

func (e badUsageError) Error() string { return e.msg }

// Exit returns a special error that may be returned by Program.Run. It causes
// the main function to exit with the given code without printing any error
// messages. Exit(0) returns nil.
func Exit(exit int) error {
	if exit == 0 {
		return nil
	}
	return exitError{exit}
}

type exitError struct{ exit int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.exit) }

// Program represents a program run by Run.
type Program interface {
	// Run runs the program. The args are the positional arguments left after
	// parsing flags.
	Run(fds [3]*os.File, f *Flags, args []string) error
}
