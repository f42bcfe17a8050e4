package sandbox

import (
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

// placeholder replaces escaped, and therefore inert, substitution spans.
const placeholder = '_'

// Neutralize rewrites cmd for tokenizing. Escaped substitutions such as
// \$(...) or \`...\` never run, so each collapses to a single placeholder and
// its punctuation cannot leak into the token stream. Single-quoted text is
// copied verbatim. ANSI-C quoted words ($'...') are decoded and re-quoted so
// the tokenizer sees their real value.
//
// The result must not be used to look for live substitutions.
func Neutralize(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))

	inDouble := false
	i := 0
	for i < len(cmd) {
		c := cmd[i]
		switch {
		case c == '\\' && i+1 < len(cmd):
			if end, ok := escapedSpan(cmd, i); ok {
				b.WriteByte(placeholder)
				i = end
				continue
			}
			b.WriteString(cmd[i : i+2])
			i += 2
		case c == '"':
			inDouble = !inDouble
			b.WriteByte(c)
			i++
		case !inDouble && c == '\'':
			end := skipSingle(cmd, i+1)
			b.WriteString(cmd[i:end])
			i = end
		case !inDouble && c == '$' && i+1 < len(cmd) && cmd[i+1] == '\'':
			end := skipANSI(cmd, i+2)
			b.WriteString(decodeANSI(cmd[i:end]))
			i = end
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// escapedSpan returns the end of an escaped substitution starting with the
// backslash at s[i]. An escaped backtick runs to the next escaped backtick;
// an escaped paren opener runs to its matching paren.
func escapedSpan(s string, i int) (int, bool) {
	if s[i+1] == '`' {
		j := strings.Index(s[i+2:], "\\`")
		if j < 0 {
			return 0, false
		}
		return i + 2 + j + 2, true
	}
	if parenOpener(s, i+1) {
		return matchParen(s, i+3)
	}
	return 0, false
}

// decodeANSI turns a $'...' word into a single-quoted word with the same
// value. Spans that do not parse are returned unchanged.
func decodeANSI(span string) string {
	if len(span) < 3 || span[len(span)-1] != '\'' {
		return span
	}
	f, err := syntax.NewParser().Parse(strings.NewReader(span), "")
	if err != nil || len(f.Stmts) != 1 {
		return span
	}
	call, ok := f.Stmts[0].Cmd.(*syntax.CallExpr)
	if !ok || len(call.Args) != 1 {
		return span
	}
	val, err := expand.Literal(nil, call.Args[0])
	if err != nil {
		return span
	}
	return "'" + strings.ReplaceAll(val, "'", `'"'"'`) + "'"
}
