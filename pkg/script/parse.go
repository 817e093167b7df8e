package script

import (
	"errors"
	"strings"
)

var errSyntax = errors.New("syntax error")

// A parsed script line of the form [target =] name [arg].
type stmt struct {
	target    string
	hasTarget bool
	// The target is assigned nothing; the line unsets it.
	unset bool
	name  string
	// Everything after the name, with leading whitespace removed.
	arg string
	// The name and everything after it, verbatim.
	text string
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' }

func skipSpace(s string) string {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return s[i:]
}

// Returns the index of the first byte of s satisfying f, or len(s).
func indexByteFunc(s string, f func(byte) bool) int {
	for i := 0; i < len(s); i++ {
		if f(s[i]) {
			return i
		}
	}
	return len(s)
}

// Parses a line that has no leading whitespace and is neither empty nor a
// comment.
func parseStmt(line string) (stmt, error) {
	i := indexByteFunc(line, func(b byte) bool { return isSpace(b) || b == '=' })
	var st stmt
	var afterEq string
	switch {
	case i < len(line) && line[i] == '=':
		st.target, afterEq = line[:i], line[i+1:]
	case i < len(line):
		if rest := skipSpace(line[i+1:]); strings.HasPrefix(rest, "=") {
			st.target, afterEq = line[:i], rest[1:]
		} else {
			st.name, st.arg, st.text = line[:i], rest, line
			return st, nil
		}
	default:
		st.name, st.text = line, line
		return st, nil
	}

	if st.target == "" {
		return stmt{}, errSyntax
	}
	st.hasTarget = true
	st.text = skipSpace(afterEq)
	if st.text == "" {
		st.unset = true
		return st, nil
	}
	j := indexByteFunc(st.text, isSpace)
	st.name, st.arg = st.text[:j], skipSpace(st.text[j:])
	return st, nil
}
