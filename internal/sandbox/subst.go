package sandbox

import (
	"iter"
	"strings"
)

// Subcommands yields the inner text of every live substitution in cmd, in
// order of the opening delimiter: $(...), <(...), >(...) and `...`. Escaped
// openers and anything inside single quotes are inert and skipped. Inner
// substitutions are not descended into, except for escaped backticks nested
// in a backtick span, which are unescaped and scanned again.
//
// Extraction stops at the first unterminated substitution.
func Subcommands(cmd string) iter.Seq[string] {
	return func(yield func(string) bool) {
		extract(cmd, yield)
	}
}

// extract reports false once yield has asked to stop.
func extract(s string, yield func(string) bool) bool {
	inDouble := false
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == '\\':
			i += 2
		case c == '"':
			inDouble = !inDouble
			i++
		case !inDouble && c == '\'':
			i = skipSingle(s, i+1)
		case !inDouble && c == '$' && i+1 < len(s) && s[i+1] == '\'':
			i = skipANSI(s, i+2)
		case parenOpener(s, i):
			end, ok := matchParen(s, i+2)
			if !ok {
				return true
			}
			if !yield(s[i+2 : end-1]) {
				return false
			}
			i = end
		case c == '`':
			end, ok := matchBacktick(s, i+1)
			if !ok {
				return true
			}
			inner := s[i+1 : end-1]
			if !yield(inner) {
				return false
			}
			if strings.Contains(inner, "\\`") {
				if !extract(strings.ReplaceAll(inner, "\\`", "`"), yield) {
					return false
				}
			}
			i = end
		default:
			i++
		}
	}
	return true
}
