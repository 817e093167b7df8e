// Package progtest contains utilities for testing [prog.Program] instances by
// running them with a given command line and standard input, and checking
// the output and the exit status.
package progtest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shlevy/gnupg/pkg/must"
	"github.com/shlevy/gnupg/pkg/prog"
	"github.com/shlevy/gnupg/pkg/testutil"
)

// Case is a test case that can be used in Test.
type Case struct {
	args  []string
	stdin string
	tty   bool
	want  result
}

type result struct {
	exitCode int
	stdout   output
	stderr   output
}

type output struct {
	content string
	partial bool
}

func (o output) String() string {
	if o.partial {
		return fmt.Sprintf("text containing %q", o.content)
	}
	return fmt.Sprintf("%q", o.content)
}

// ThatAsschk returns a new Case with the specified CLI arguments.
//
// The new Case expects the program run to exit with 0, and write nothing to
// stdout or stderr.
//
// When combined with subsequent method calls, a test case reads like English.
// For example, a test for the fact that "asschk -x" writes "bad flag" to
// stderr and exits with 1 can be written as:
//
//	ThatAsschk("-x").ExitsWith(1).WritesStderrContaining("bad flag")
func ThatAsschk(args ...string) Case {
	return Case{args: append([]string{"asschk"}, args...)}
}

// WithStdin returns an altered Case that feeds the given script to the
// program's stdin.
func (c Case) WithStdin(s string) Case {
	c.stdin = s
	return c
}

// OnTTY returns an altered Case whose stdin is a pseudo-terminal. The stdin
// text is typed into the terminal, followed by an end-of-file character. The
// test is skipped where pseudo-terminals are unavailable.
func (c Case) OnTTY() Case {
	c.tty = true
	return c
}

// DoesNothing returns c itself. It is useful to mark tests that otherwise don't
// have any expectations, for example:
//
//	ThatAsschk("-Dx").WithStdin("").DoesNothing()
func (c Case) DoesNothing() Case {
	return c
}

// ExitsWith returns an altered Case that requires the program run to return
// with the given exit code.
func (c Case) ExitsWith(code int) Case {
	c.want.exitCode = code
	return c
}

// WritesStdout returns an altered Case that requires the program run to write
// exactly the given text to stdout.
func (c Case) WritesStdout(s string) Case {
	c.want.stdout = output{content: s}
	return c
}

// WritesStdoutContaining returns an altered Case that requires the program run
// to write output to stdout that contains the given text as a substring.
func (c Case) WritesStdoutContaining(s string) Case {
	c.want.stdout = output{content: s, partial: true}
	return c
}

// WritesStderr returns an altered Case that requires the program run to write
// exactly the given text to stderr.
func (c Case) WritesStderr(s string) Case {
	c.want.stderr = output{content: s}
	return c
}

// WritesStderrContaining returns an altered Case that requires the program run
// to write output to stderr that contains the given text as a substring.
func (c Case) WritesStderrContaining(s string) Case {
	c.want.stderr = output{content: s, partial: true}
	return c
}

// Test runs test cases against a given program.
func Test(t *testing.T, p prog.Program, cases ...Case) {
	t.Helper()
	for _, c := range cases {
		t.Run(strings.Join(c.args, " "), func(t *testing.T) {
			t.Helper()
			r := run(t, p, c)
			if r.exitCode != c.want.exitCode {
				t.Errorf("got exit code %v, want %v", r.exitCode, c.want.exitCode)
			}
			if !matchOutput(r.stdout.content, c.want.stdout) {
				t.Errorf("got stdout %v, want %v", r.stdout, c.want.stdout)
			}
			if !matchOutput(r.stderr.content, c.want.stderr) {
				t.Errorf("got stderr %v, want %v", r.stderr, c.want.stderr)
			}
		})
	}
}

// Run runs a Program with the given arguments and script. It returns the exit
// code, stdout and stderr.
func Run(t *testing.T, p prog.Program, script string, args ...string) (int, string, string) {
	t.Helper()
	r := run(t, p, ThatAsschk(args...).WithStdin(script))
	return r.exitCode, r.stdout.content, r.stderr.content
}

// How long a program may run before the test fails. Scripts talking to a
// misbehaving server can otherwise block forever.
const runTimeout = 10 * time.Second

// Stdout and stderr are regular files, so that a server process that
// inherits stderr cannot block the test by keeping a pipe open.
func run(t *testing.T, p prog.Program, c Case) result {
	dir := testutil.TempDir(t)
	var stdin *os.File
	if c.tty {
		stdin = ttyStdin(t, c.stdin)
	} else {
		stdinName := filepath.Join(dir, "stdin")
		must.WriteFile(stdinName, c.stdin)
		stdin = must.OK1(os.Open(stdinName))
		defer stdin.Close()
	}
	stdout := must.OK1(os.Create(filepath.Join(dir, "stdout")))
	defer stdout.Close()
	stderr := must.OK1(os.Create(filepath.Join(dir, "stderr")))
	defer stderr.Close()

	done := make(chan int, 1)
	go func() { done <- prog.Run([3]*os.File{stdin, stdout, stderr}, c.args, p) }()
	var exit int
	select {
	case exit = <-done:
	case <-time.After(testutil.Scaled(runTimeout)):
		t.Fatalf("program did not finish within %v", testutil.Scaled(runTimeout))
	}
	return result{
		exit,
		output{content: must.ReadFileString(stdout.Name())},
		output{content: must.ReadFileString(stderr.Name())},
	}
}

func matchOutput(got string, want output) bool {
	if want.partial {
		return strings.Contains(got, want.content)
	}
	return got == want.content
}
