package sandbox

// The scanners below walk raw command text. Each takes the index just past an
// opening delimiter and returns the index just past the matching closer. An
// unterminated span runs to len(s).

// skipSingle skips a '...' span. Nothing inside is special.
func skipSingle(s string, i int) int {
	for ; i < len(s); i++ {
		if s[i] == '\'' {
			return i + 1
		}
	}
	return len(s)
}

// skipDouble skips a "..." span. A backslash escapes the next character.
func skipDouble(s string, i int) int {
	for i < len(s) {
		switch s[i] {
		case '\\':
			i += 2
		case '"':
			return i + 1
		default:
			i++
		}
	}
	return len(s)
}

// skipANSI skips a $'...' span, where \' does not close the quote.
func skipANSI(s string, i int) int {
	for i < len(s) {
		switch s[i] {
		case '\\':
			i += 2
		case '\'':
			return i + 1
		default:
			i++
		}
	}
	return len(s)
}

// matchParen finds the paren closing a span opened just before i. Quoted and
// escaped parens do not count. ok is false if the span is unterminated.
func matchParen(s string, i int) (end int, ok bool) {
	depth := 1
	for i < len(s) {
		switch c := s[i]; {
		case c == '\\':
			i += 2
		case c == '\'':
			i = skipSingle(s, i+1)
		case c == '"':
			i = skipDouble(s, i+1)
		case c == '$' && i+1 < len(s) && s[i+1] == '\'':
			i = skipANSI(s, i+2)
		case c == '(':
			depth++
			i++
		case c == ')':
			depth--
			i++
			if depth == 0 {
				return i, true
			}
		default:
			i++
		}
	}
	return len(s), false
}

// matchBacktick finds the next unescaped backtick at or after i.
func matchBacktick(s string, i int) (end int, ok bool) {
	for i < len(s) {
		switch s[i] {
		case '\\':
			i += 2
		case '`':
			return i + 1, true
		default:
			i++
		}
	}
	return len(s), false
}

// parenOpener reports whether a paren-style substitution ($(, <(, >() starts
// at i.
func parenOpener(s string, i int) bool {
	if i+1 >= len(s) || s[i+1] != '(' {
		return false
	}
	switch s[i] {
	case '$', '<', '>':
		return true
	}
	return false
}
