package sandbox

import "testing"

func TestMatchParen(t *testing.T) {
	tests := []struct {
		s      string
		start  int
		end    int
		wantOK bool
	}{
		{"$(ls)", 2, 5, true},
		{"$(a (b) c) d", 2, 10, true},
		{"$(echo ')') x", 2, 11, true},
		{`$(echo ")") x`, 2, 11, true},
		{`$(echo \)) x`, 2, 10, true},
		{`$(echo $'\')') x`, 2, 14, true},
		{"$(unterminated", 2, 14, false},
		{"$(echo '", 2, 8, false},
	}
	for _, tt := range tests {
		end, ok := matchParen(tt.s, tt.start)
		if end != tt.end || ok != tt.wantOK {
			t.Errorf("matchParen(%q) = %d, %v; want %d, %v", tt.s, end, ok, tt.end, tt.wantOK)
		}
	}
}

func TestMatchBacktick(t *testing.T) {
	tests := []struct {
		s      string
		end    int
		wantOK bool
	}{
		{"`ls` x", 4, true},
		{"`a \\`b\\` c` x", 11, true},
		{"`open", 5, false},
	}
	for _, tt := range tests {
		end, ok := matchBacktick(tt.s, 1)
		if end != tt.end || ok != tt.wantOK {
			t.Errorf("matchBacktick(%q) = %d, %v; want %d, %v", tt.s, end, ok, tt.end, tt.wantOK)
		}
	}
}

func TestSkipQuotes(t *testing.T) {
	if got := skipSingle(`'a\'b`, 1); got != 4 {
		t.Errorf("skipSingle = %d, want 4", got)
	}
	if got := skipDouble(`"a\"b" c`, 1); got != 6 {
		t.Errorf("skipDouble = %d, want 6", got)
	}
	if got := skipANSI(`$'a\'b' c`, 2); got != 7 {
		t.Errorf("skipANSI = %d, want 7", got)
	}
	if got := skipDouble(`"open`, 1); got != 5 {
		t.Errorf("skipDouble unterminated = %d, want 5", got)
	}
}
