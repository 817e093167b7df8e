// Package assuan implements the small part of the Assuan protocol needed to
// check a server: reading and classifying response lines, writing request
// lines, and starting a server process connected through two pipes.
//
// The implementation is deliberately independent from any production Assuan
// library, so that bugs in such a library cannot hide bugs in the server
// being checked. Parsing is strict and matches exactly what a conforming
// server sends.
package assuan

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// MaxLineLen is the maximum number of bytes in a line, excluding the
// terminating newline.
const MaxLineLen = 1024

var (
	// ErrIncompleteLine is returned by ReadLine when the stream ends before a
	// newline.
	ErrIncompleteLine = errors.New("received incomplete line")
	// ErrLineTooLarge is returned by ReadLine when no newline is found within
	// MaxLineLen bytes.
	ErrLineTooLarge = errors.New("received line too large")
	// ErrInvalidLineType is returned when a line starts with none of the known
	// prefixes.
	ErrInvalidLineType = errors.New("invalid line type")
	// ErrLineTooLong is returned by WriteLine when the line does not fit into
	// the protocol.
	ErrLineTooLong = errors.New("line too long for Assuan protocol")
)

// Kind is the type of a received line.
type Kind int

// Possible values of Kind.
const (
	OK Kind = iota
	ERR
	STAT
	DATA
	END
)

var kindNames = [...]string{OK: "OK", ERR: "ERR", STAT: "S", DATA: "D", END: "END"}

func (k Kind) String() string {
	if 0 <= k && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Terminal reports whether a line of this kind ends a response.
func (k Kind) Terminal() bool { return k == OK || k == ERR }

// Line is a classified line received from a server.
type Line struct {
	Kind Kind
	// Payload is the part of the line after the prefix and its separating
	// space.
	Payload string
	// Raw is the whole line without the newline.
	Raw string
}

// Classify determines the kind of a line, which must not contain the
// terminating newline.
func Classify(s string) (Line, error) {
	line := Line{Raw: s}
	switch {
	case hasPrefixWord(s, "OK"):
		line.Kind, line.Payload = OK, payloadAfter(s, "OK")
	case hasPrefixWord(s, "ERR"):
		line.Kind, line.Payload = ERR, payloadAfter(s, "ERR")
	case hasPrefixWord(s, "S"):
		line.Kind, line.Payload = STAT, payloadAfter(s, "S")
	case strings.HasPrefix(s, "D "):
		line.Kind, line.Payload = DATA, s[2:]
	case s == "END":
		line.Kind = END
	default:
		return Line{}, fmt.Errorf("%w (%s)", ErrInvalidLineType, excerpt(s, 5))
	}
	return line, nil
}

// Reports whether s is word alone, or word followed by a space.
func hasPrefixWord(s, word string) bool {
	return s == word || strings.HasPrefix(s, word+" ")
}

func payloadAfter(s, word string) string {
	if len(s) == len(word) {
		return ""
	}
	return s[len(word)+1:]
}

func excerpt(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

// Reader reads lines from a server. Bytes read past a newline are kept for
// the next call.
type Reader struct {
	r    *bufio.Reader
	name string
}

// NewReader returns a Reader reading from r. If r is an *os.File, its
// descriptor number is used in error messages.
func NewReader(r io.Reader) *Reader {
	name := "input"
	if f, ok := r.(*os.File); ok {
		name = fmt.Sprintf("fd %d", f.Fd())
	}
	return &Reader{bufio.NewReaderSize(r, MaxLineLen+1), name}
}

// ReadLine reads and classifies one line.
func (r *Reader) ReadLine() (Line, error) {
	bs, err := r.r.ReadSlice('\n')
	switch {
	case err == bufio.ErrBufferFull:
		return Line{}, ErrLineTooLarge
	case err == io.EOF:
		return Line{}, fmt.Errorf("%w on %s", ErrIncompleteLine, r.name)
	case err != nil:
		return Line{}, fmt.Errorf("reading %s failed: %w", r.name, err)
	}
	return Classify(string(bs[:len(bs)-1]))
}

// WriteLine writes s as one line to w. A trailing newline in s is optional.
func WriteLine(w io.Writer, s string) error {
	s = strings.TrimSuffix(s, "\n")
	if len(s) > MaxLineLen {
		return ErrLineTooLong
	}
	buf := make([]byte, 0, len(s)+1)
	buf = append(append(buf, s...), '\n')
	// io.Writer implementations must return an error for short writes, and
	// *os.File retries writes interrupted by signals.
	if _, err := w.Write(buf); err != nil {
		if f, ok := w.(*os.File); ok {
			return fmt.Errorf("sending line to fd %d failed: %w", f.Fd(), err)
		}
		return fmt.Errorf("sending line failed: %w", err)
	}
	return nil
}
