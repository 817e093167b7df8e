//go:build unix

package progtest

import (
	"os"
	"testing"

	"github.com/creack/pty"
)

func ttyStdin(t *testing.T, input string) *os.File {
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skip("cannot open pty:", err)
	}
	t.Cleanup(func() {
		tty.Close()
		ptmx.Close()
	})
	// In canonical mode, ^D at the start of a line makes the reader see
	// end-of-file.
	if _, err := ptmx.WriteString(input + "\x04"); err != nil {
		t.Fatal(err)
	}
	return tty
}
