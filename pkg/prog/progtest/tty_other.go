//go:build !unix

package progtest

import (
	"os"
	"testing"
)

func ttyStdin(t *testing.T, input string) *os.File {
	t.Skip("pseudo-terminals are not supported on this platform")
	return nil
}
