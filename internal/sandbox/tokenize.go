package sandbox

import (
	"errors"
	"strings"
)

var (
	// ErrNoClosingQuote is returned for an unterminated quoted word.
	ErrNoClosingQuote = errors.New("no closing quotation")
	// ErrNoEscapedChar is returned for a trailing backslash.
	ErrNoEscapedChar = errors.New("no escaped character")
)

// punctuation characters end a word. A run of them forms one operator token.
const punctuation = ";&|()<>"

// Tokenize splits cmd into shell words. Quotes and backslashes are handled the
// POSIX way and removed; whitespace and punctuation separate words, so a
// redirect glued to its target ("2>/dev/null") comes out as "2", ">",
// "/dev/null". Comments are not recognized.
func Tokenize(cmd string) ([]string, error) {
	var (
		tokens []string
		tok    strings.Builder
		inWord bool // true even for an empty quoted word
		inOp   bool
	)
	flush := func() {
		if inWord || inOp {
			tokens = append(tokens, tok.String())
		}
		tok.Reset()
		inWord, inOp = false, false
	}

	for i := 0; i < len(cmd); {
		c := cmd[i]
		switch {
		case strings.IndexByte(punctuation, c) >= 0:
			if !inOp {
				flush()
				inOp = true
			}
			tok.WriteByte(c)
			i++
		case isSpace(c):
			flush()
			i++
		default:
			if inOp {
				flush()
			}
			inWord = true
			switch c {
			case '\\':
				if i+1 >= len(cmd) {
					return nil, ErrNoEscapedChar
				}
				tok.WriteByte(cmd[i+1])
				i += 2
			case '\'':
				end := strings.IndexByte(cmd[i+1:], '\'')
				if end < 0 {
					return nil, ErrNoClosingQuote
				}
				tok.WriteString(cmd[i+1 : i+1+end])
				i += end + 2
			case '"':
				end, err := readDouble(cmd, i+1, &tok)
				if err != nil {
					return nil, err
				}
				i = end
			default:
				tok.WriteByte(c)
				i++
			}
		}
	}
	flush()
	return tokens, nil
}

// readDouble copies the body of a "..." word into tok and returns the index
// past the closing quote. Inside double quotes a backslash only escapes '"'
// and '\'; before anything else it is kept.
func readDouble(s string, i int, tok *strings.Builder) (int, error) {
	for i < len(s) {
		switch c := s[i]; c {
		case '"':
			return i + 1, nil
		case '\\':
			if i+1 >= len(s) {
				return 0, ErrNoEscapedChar
			}
			if n := s[i+1]; n != '"' && n != '\\' {
				tok.WriteByte('\\')
			}
			tok.WriteByte(s[i+1])
			i += 2
		default:
			tok.WriteByte(c)
			i++
		}
	}
	return 0, ErrNoClosingQuote
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// isRedirectOp reports whether tok is an operator token that takes a file
// operand, such as ">", ">>", "<", "&>" or ">&".
func isRedirectOp(tok string) bool {
	if tok == "" || strings.HasSuffix(tok, "(") || !strings.ContainsAny(tok, "<>") {
		return false
	}
	for i := 0; i < len(tok); i++ {
		if strings.IndexByte(punctuation, tok[i]) < 0 {
			return false
		}
	}
	return true
}
