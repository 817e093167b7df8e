package vars

import "strings"

// Expand substitutes variable references in line in a single left-to-right
// pass and returns the result.
//
// A reference is a $ followed by a name, which extends up to the next space,
// tab or $. Unknown names expand to the empty string. $$ stands for a literal
// $. Neither substituted values nor literal dollars are scanned again, so a
// value containing $name stays as is.
//
// The second return value is false if line contains no $ at all, in which case
// the first return value is line itself.
func Expand(line string, lookup func(string) (string, bool)) (string, bool) {
	if strings.IndexByte(line, '$') == -1 {
		return line, false
	}
	var sb strings.Builder
	sb.Grow(len(line))
	// Invariant: sb holds the expansion of everything before line; only line
	// is scanned.
	for line != "" {
		i := strings.IndexByte(line, '$')
		if i == -1 {
			sb.WriteString(line)
			break
		}
		sb.WriteString(line[:i])
		line = line[i+1:]
		if strings.HasPrefix(line, "$") {
			sb.WriteByte('$')
			line = line[1:]
			continue
		}
		end := strings.IndexAny(line, " \t$")
		if end == -1 {
			end = len(line)
		}
		value, _ := lookup(line[:end])
		sb.WriteString(value)
		line = line[end:]
	}
	return sb.String(), true
}
