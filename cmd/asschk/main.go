// Asschk checks an Assuan server by running a script read from stdin. The
// script starts the server, sends requests and checks the responses. See the
// script package for the script language.
package main

import (
	"os"

	"github.com/shlevy/gnupg/pkg/prog"
	"github.com/shlevy/gnupg/pkg/script"
)

func main() {
	os.Exit(prog.Run(
		[3]*os.File{os.Stdin, os.Stdout, os.Stderr}, os.Args, script.Program{}))
}
