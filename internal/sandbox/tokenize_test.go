package sandbox

import (
	"errors"
	"slices"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"ls -la", []string{"ls", "-la"}},
		{"ls 2>/dev/null", []string{"ls", "2", ">", "/dev/null"}},
		{"a&&b||c;d", []string{"a", "&&", "b", "||", "c", ";", "d"}},
		{"x>&2", []string{"x", ">&", "2"}},
		{"cat <(ls)", []string{"cat", "<(", "ls", ")"}},
		{`echo "a b" 'c d' e\ f`, []string{"echo", "a b", "c d", "e f"}},
		{`echo "" ''`, []string{"echo", "", ""}},
		{`echo "/usr"'/'"local"/bin`, []string{"echo", "/usr/local/bin"}},
		{`echo "a\"b\\c\d"`, []string{"echo", `a"b\c\d`}},
		{`echo 'a\b'`, []string{"echo", `a\b`}},
		{`echo "x;y" 'p|q'`, []string{"echo", "x;y", "p|q"}},
		{"echo a#b # c", []string{"echo", "a#b", "#", "c"}},
		{"a\tb\nc", []string{"a", "b", "c"}},
		{"echo `cat /etc/passwd", []string{"echo", "`cat", "/etc/passwd"}},
	}
	for _, tt := range tests {
		got, err := Tokenize(tt.in)
		if err != nil {
			t.Errorf("Tokenize(%q) error: %v", tt.in, err)
			continue
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("Tokenize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTokenize_Errors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{`echo "abc`, ErrNoClosingQuote},
		{`echo 'abc`, ErrNoClosingQuote},
		{`echo abc\`, ErrNoEscapedChar},
		{`echo "abc\`, ErrNoEscapedChar},
	}
	for _, tt := range tests {
		_, err := Tokenize(tt.in)
		if !errors.Is(err, tt.want) {
			t.Errorf("Tokenize(%q) error = %v, want %v", tt.in, err, tt.want)
		}
	}
}

func TestIsRedirectOp(t *testing.T) {
	for _, op := range []string{">", ">>", "<", "<>", ">&", "&>", ">|"} {
		if !isRedirectOp(op) {
			t.Errorf("isRedirectOp(%q) = false", op)
		}
	}
	for _, op := range []string{"", "|", "&&", ";", "<(", ">(", "a>"} {
		if isRedirectOp(op) {
			t.Errorf("isRedirectOp(%q) = true", op)
		}
	}
}
