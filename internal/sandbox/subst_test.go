package sandbox

import (
	"slices"
	"testing"
)

func TestSubcommands(t *testing.T) {
	tests := []struct {
		cmd  string
		want []string
	}{
		{"ls -la", nil},
		{"echo $(ls) $(pwd)", []string{"ls", "pwd"}},
		{"echo $(a $(b))", []string{"a $(b)"}},
		{"cat <(ls) >(wc -l)", []string{"ls", "wc -l"}},
		{"echo `date`", []string{"date"}},
		{"echo '$(no)'", nil},
		{`echo \$(no)`, nil},
		{`echo \$(no $(yes))`, []string{"yes"}},
		{"echo \\`no\\`", nil},
		{`echo $'\'$(no)'`, nil},
		{`echo "$(yes)" "it's $(also)"`, []string{"yes", "also"}},
		{`echo "\$(no)"`, nil},
		{"echo $(unterminated", nil},
		{"echo $(first) $(unterminated", []string{"first"}},
		{"echo `unterminated", nil},
		{"echo `a \\`b\\``", []string{"a \\`b\\`", "b"}},
		{`echo $(echo ")")`, []string{`echo ")"`}},
		{"x=$((1 + 2))", []string{"(1 + 2)"}},
	}
	for _, tt := range tests {
		got := slices.Collect(Subcommands(tt.cmd))
		if !slices.Equal(got, tt.want) {
			t.Errorf("Subcommands(%q) = %q, want %q", tt.cmd, got, tt.want)
		}
	}
}

func TestSubcommands_StopsEarly(t *testing.T) {
	var got []string
	for sub := range Subcommands("echo `a \\`b\\`` $(c)") {
		got = append(got, sub)
		break
	}
	if len(got) != 1 || got[0] != "a \\`b\\`" {
		t.Errorf("got %q", got)
	}
}
