// Package script implements the script interpreter of asschk.
//
// A script is read line by line. Empty lines and lines whose first
// non-whitespace character is # are ignored. Variable references ($name, with
// $$ for a literal $) are expanded once before a line is parsed. Each line has
// the form
//
//	[<name> =] <statement> [<args>]
//
// If the statement is a known command, the command runs with the argument
// string; commands that produce a value assign it to name, or to ? if no name
// is given. If the statement is not a known command, the line must have a
// name, which is assigned the statement and its arguments verbatim. A line
// consisting of just "<name> =" unsets the variable.
package script

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/shlevy/gnupg/pkg/assuan"
	"github.com/shlevy/gnupg/pkg/errutil"
	"github.com/shlevy/gnupg/pkg/logutil"
	"github.com/shlevy/gnupg/pkg/sys"
	"github.com/shlevy/gnupg/pkg/vars"
)

// DefaultTarget is the variable assigned by commands that are not given an
// explicit target.
const DefaultTarget = "?"

// MaxScriptLine is the maximum length of a script line, including the
// terminating newline.
const MaxScriptLine = 2048

// Prompt is written to stderr before reading each line when stdin is a
// terminal.
const Prompt = "asschk> "

// ErrQuit is returned by Exec when the script should end successfully.
var ErrQuit = errors.New("quit")

var (
	errIncompleteLine = errors.New("incomplete script line")
	errNoConnection   = errors.New("no server connection")
)

// Config keeps the configuration of an Interp.
type Config struct {
	// Name prefixes messages written to Stderr.
	Name string
	// Stdout receives the output of echo.
	Stdout io.Writer
	// Stderr receives messages, and is inherited by servers.
	Stderr *os.File
	// Verbose enables tracing of the script execution to Stderr.
	Verbose bool
}

// Interp is the state of a running script: the variables and the connection
// to the current server.
type Interp struct {
	name    string
	stdout  io.Writer
	stderr  *os.File
	verbose bool
	logger  *log.Logger

	vars *vars.Store
	conn *assuan.Conn
}

// NewInterp creates a new Interp. The variable ? is initialized to "1".
func NewInterp(cfg Config) *Interp {
	in := &Interp{
		name:    cfg.Name,
		stdout:  cfg.Stdout,
		stderr:  cfg.Stderr,
		verbose: cfg.Verbose,
		logger:  logutil.Tracer(cfg.Stderr, cfg.Verbose),
		vars:    vars.New(),
	}
	in.vars.Set(DefaultTarget, "1")
	return in
}

// Vars returns the variable store of the Interp.
func (in *Interp) Vars() *vars.Store { return in.vars }

// RunScript executes the script read from r until its end or until a quit
// command. It returns nil in both cases.
func (in *Interp) RunScript(r io.Reader) error {
	interactive := false
	if f, ok := r.(*os.File); ok {
		interactive = sys.IsATTY(f)
	}
	br := bufio.NewReaderSize(r, MaxScriptLine)
	for {
		if interactive {
			fmt.Fprint(in.stderr, Prompt)
		}
		bs, err := br.ReadSlice('\n')
		switch {
		case err == io.EOF && len(bs) == 0:
			return nil
		case err == io.EOF || err == bufio.ErrBufferFull:
			return errIncompleteLine
		case err != nil:
			return fmt.Errorf("reading script failed: %w", err)
		}
		err = in.Exec(string(bs[:len(bs)-1]))
		if err == ErrQuit {
			return nil
		} else if err != nil {
			return err
		}
	}
}

// Exec executes one script line, which must not contain a newline.
func (in *Interp) Exec(line string) error {
	line = skipSpace(line)
	if isBlankOrComment(line) {
		return nil
	}
	if expanded, ok := vars.Expand(line, in.vars.Get); ok {
		line = skipSpace(expanded)
		if isBlankOrComment(line) {
			return nil
		}
	}

	st, err := parseStmt(line)
	if err != nil {
		return err
	}
	if st.unset {
		in.vars.Unset(st.target)
		return nil
	}
	cmd, ok := commands[st.name]
	if !ok {
		if !st.hasTarget {
			return fmt.Errorf("invalid statement `%s'", st.name)
		}
		in.vars.Set(st.target, st.text)
		return nil
	}
	target := st.target
	if !st.hasTarget {
		target = DefaultTarget
	}
	switch cmd.kind {
	case kindQuit:
		return ErrQuit
	default:
		return cmd.fn(in, target, st.arg)
	}
}

func isBlankOrComment(line string) bool {
	return line == "" || line[0] == '#'
}

// Close closes the connection to the server and all descriptors owned by
// variables.
func (in *Interp) Close() error {
	var connErr error
	if in.conn != nil {
		connErr = in.conn.Close()
		in.conn = nil
	}
	return errutil.Multi(connErr, in.vars.Close())
}

// Writes a message that does not stop the script.
func (in *Interp) reportf(format string, args ...any) {
	fmt.Fprintf(in.stderr, "%s: %s\n", in.name, fmt.Sprintf(format, args...))
}
