package script

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/shlevy/gnupg/pkg/assuan"
	"github.com/shlevy/gnupg/pkg/prog"
)

type cmdKind uint8

const (
	// Runs fn.
	kindCall cmdKind = iota
	// Ends the script.
	kindQuit
)

type command struct {
	kind cmdKind
	fn   func(in *Interp, target, arg string) error
}

func call(fn func(in *Interp, target, arg string) error) command {
	return command{kindCall, fn}
}

var commands = map[string]command{
	"let":        call((*Interp).let),
	"echo":       call((*Interp).echo),
	"send":       call((*Interp).send),
	"expect-ok":  call((*Interp).expectOK),
	"expect-err": call((*Interp).expectErr),
	"openfile":   call((*Interp).openFile),
	"createfile": call((*Interp).createFile),
	"pipeserver": call((*Interp).pipeServer),
	"quit":       {kind: kindQuit},
	"quit-if":    call((*Interp).quitIf),
	"fail-if":    call((*Interp).failIf),
	"cmpfiles":   call((*Interp).cmpFiles),
}

func (in *Interp) let(target, arg string) error {
	in.vars.Set(target, arg)
	return nil
}

func (in *Interp) echo(_, arg string) error {
	_, err := fmt.Fprintln(in.stdout, arg)
	return err
}

func (in *Interp) send(_, arg string) error {
	if in.conn == nil {
		return errNoConnection
	}
	return in.conn.Send(arg)
}

func (in *Interp) expectOK(_, _ string) error { return in.expect(assuan.OK) }

func (in *Interp) expectErr(_, _ string) error { return in.expect(assuan.ERR) }

// Reads lines up to the next OK or ERR line, which must be of the given kind.
func (in *Interp) expect(want assuan.Kind) error {
	if in.conn == nil {
		return errNoConnection
	}
	in.logger.Printf("expecting %s", want)
	line, err := in.conn.Expect()
	if err != nil {
		return err
	}
	if line.Kind != want {
		return fmt.Errorf("expected %s but got `%s'", want, line.Raw)
	}
	return nil
}

// The descriptors are opened without close-on-exec, so that servers started
// later inherit them and scripts can pass their numbers to servers.
func (in *Interp) openFile(target, arg string) error {
	fd, err := open(arg, unix.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("error opening `%s': %w", arg, err)
	}
	in.vars.SetFd(target, fd)
	return nil
}

func (in *Interp) createFile(target, arg string) error {
	fd, err := open(arg, unix.O_WRONLY|unix.O_CREAT|unix.O_TRUNC, 0666)
	if err != nil {
		return fmt.Errorf("error creating `%s': %w", arg, err)
	}
	in.vars.SetFd(target, fd)
	return nil
}

func open(path string, mode int, perm uint32) (int, error) {
	for {
		fd, err := unix.Open(path, mode, perm)
		if err != unix.EINTR {
			return fd, err
		}
	}
}

// Starting a server while connected to another one closes the previous
// connection first.
func (in *Interp) pipeServer(_, arg string) error {
	if in.conn != nil {
		if err := in.conn.Close(); err != nil {
			in.reportf("closing previous server connection: %v", err)
		}
		in.conn = nil
	}
	conn, err := assuan.Start(&assuan.StartConfig{
		Path: arg, Stderr: in.stderr, Logger: in.logger})
	if err != nil {
		return err
	}
	in.conn = conn
	return nil
}

func (in *Interp) quitIf(_, arg string) error {
	if EvalBool(arg) {
		return ErrQuit
	}
	return nil
}

func (in *Interp) failIf(_, arg string) error {
	if EvalBool(arg) {
		return prog.Exit(1)
	}
	return nil
}

// Size of the chunks compared by cmpfiles.
const cmpChunkSize = 2048

// Sets target to "1" if the two files have the same content, and "0"
// otherwise. Failures to open or read the files are reported but do not stop
// the script.
func (in *Interp) cmpFiles(target, arg string) error {
	in.vars.Set(target, "0")
	names := strings.FieldsFunc(arg, func(r rune) bool { return r == ' ' || r == '\t' })
	if len(names) != 2 {
		return errors.New("cmpfiles: syntax error")
	}

	f1, err := os.Open(names[0])
	if err != nil {
		in.reportf("can't open `%s': %v", names[0], pathErrorCause(err))
		return nil
	}
	defer f1.Close()
	f2, err := os.Open(names[1])
	if err != nil {
		in.reportf("can't open `%s': %v", names[1], pathErrorCause(err))
		return nil
	}
	defer f2.Close()

	same, err := sameContent(f1, f2)
	switch {
	case err != nil:
		in.reportf("cmpfiles: read error: %v", pathErrorCause(err))
	case !same:
		in.reportf("cmpfiles: mismatch")
	default:
		if in.verbose {
			in.reportf("files match")
		}
		in.vars.Set(target, "1")
	}
	return nil
}

func sameContent(r1, r2 io.Reader) (bool, error) {
	var buf1, buf2 [cmpChunkSize]byte
	for {
		n1, err := readChunk(r1, buf1[:])
		if err != nil {
			return false, err
		}
		n2, err := readChunk(r2, buf2[:])
		if err != nil {
			return false, err
		}
		if n1 != n2 || !bytes.Equal(buf1[:n1], buf2[:n2]) {
			return false, nil
		}
		if n1 < cmpChunkSize {
			// Both readers have reached the end.
			return true, nil
		}
	}
}

// Fills buf, unless the reader ends first.
func readChunk(r io.Reader, buf []byte) (int, error) {
	n, err := io.ReadFull(r, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		err = nil
	}
	return n, err
}

// Strips the operation and path from an *fs.PathError, since messages
// already mention the path.
func pathErrorCause(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err
	}
	return err
}
