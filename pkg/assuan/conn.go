package assuan

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/shlevy/gnupg/pkg/errutil"
	"github.com/shlevy/gnupg/pkg/logutil"
)

// DefaultServerPath is the server started when no path is given.
const DefaultServerPath = "../sm/gpgsm"

// ServerFlag is the single argument passed to a started server.
const ServerFlag = "--server"

// ErrNoGreeting is returned by Start when the first line from the server is
// not an OK line.
var ErrNoGreeting = errors.New("no greeting message")

// StartConfig keeps configurations for starting a server.
type StartConfig struct {
	// Path is the path of the server program. If empty, DefaultServerPath is
	// used.
	Path string
	// Stderr is inherited by the server as its standard error. If nil, the
	// server's standard error is closed.
	Stderr *os.File
	// Logger receives traces. If nil, logutil.Discard is used.
	Logger *log.Logger
}

// Conn is a connection to a running server.
type Conn struct {
	send    *os.File
	recv    *Reader
	recvF   *os.File
	process *os.Process
	logger  *log.Logger
}

// Start starts the server and waits for its greeting. The server is invoked
// with the basename of the path as argv[0] and ServerFlag as its only
// argument; its stdin and stdout are connected to the returned Conn.
//
// Descriptors of the current process that are not marked close-on-exec are
// inherited by the server at the same numbers.
func Start(cfg *StartConfig) (*Conn, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultServerPath
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logutil.Discard
	}

	// Requests flow from sendW to the server's stdin; responses flow from the
	// server's stdout to recvR.
	sendR, sendW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("pipe creation failed: %w", err)
	}
	recvR, recvW, err := os.Pipe()
	if err != nil {
		sendR.Close()
		sendW.Close()
		return nil, fmt.Errorf("pipe creation failed: %w", err)
	}

	logger.Printf("starting server `%s'", path)
	args := []string{filepath.Base(path), ServerFlag}
	process, err := os.StartProcess(path, args, &os.ProcAttr{
		Files: []*os.File{sendR, recvW, cfg.Stderr},
	})
	// The child has its own copies of these now.
	sendR.Close()
	recvW.Close()
	if err != nil {
		sendW.Close()
		recvR.Close()
		return nil, fmt.Errorf("exec failed for `%s': %w", path, err)
	}

	c := &Conn{sendW, NewReader(recvR), recvR, process, logger}
	line, err := c.Recv()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("%w: %v", ErrNoGreeting, err)
	}
	if line.Kind != OK {
		c.Close()
		return nil, ErrNoGreeting
	}
	return c, nil
}

// Send writes one line to the server.
func (c *Conn) Send(line string) error {
	c.logger.Printf("sending `%s'", line)
	return WriteLine(c.send, line)
}

// Recv reads one line from the server.
func (c *Conn) Recv() (Line, error) {
	line, err := c.recv.ReadLine()
	if err == nil {
		c.logger.Printf("got line `%s'", line.Raw)
	}
	return line, err
}

// Expect reads lines until an OK or ERR line arrives, discarding status and
// data lines, and returns the terminating line.
func (c *Conn) Expect() (Line, error) {
	for {
		line, err := c.Recv()
		if err != nil {
			return Line{}, err
		}
		if line.Kind.Terminal() {
			return line, nil
		}
	}
}

// Close closes both pipes to the server. The server is expected to exit when
// its stdin is closed; it is not waited for.
func (c *Conn) Close() error {
	return errutil.Multi(c.send.Close(), c.recvF.Close(), c.process.Release())
}
