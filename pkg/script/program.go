package script

import (
	"os"
	"strings"

	"github.com/shlevy/gnupg/pkg/prog"
)

// Program runs the script read from stdin.
type Program struct{}

func (Program) Run(fds [3]*os.File, f *prog.Flags, args []string) error {
	if len(args) > 0 {
		return prog.BadUsage("unexpected argument `" + args[0] + "'")
	}
	in := NewInterp(Config{
		Name: f.Name, Stdout: fds[1], Stderr: fds[2], Verbose: f.Verbose})
	for _, define := range f.Defines {
		name, value, found := strings.Cut(define, "=")
		if !found {
			value = "1"
		}
		in.Vars().Set(name, value)
	}

	err := in.RunScript(fds[0])
	if closeErr := in.Close(); closeErr != nil {
		in.reportf("%v", closeErr)
	}
	return err
}
