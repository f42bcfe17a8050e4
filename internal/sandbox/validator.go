package sandbox

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// Kind says where in a command a violation was found.
type Kind int

const (
	// KindPath is an ordinary argument or flag value.
	KindPath Kind = iota
	// KindRedirect is the operand of a redirection operator.
	KindRedirect
)

// Violation describes the first path found outside the sandbox.
type Violation struct {
	// Path is the offending path after ~ and $VAR expansion.
	Path string
	Kind Kind
	// Nested is set when the path was found inside a substitution.
	Nested bool
}

// Reason renders the violation as a one-line message.
func (v *Violation) Reason() string {
	label := "Path"
	if v.Kind == KindRedirect {
		label = "Redirect"
	}
	where := ""
	if v.Nested {
		where = " in nested subcommand"
	}
	return fmt.Sprintf("%s '%s'%s outside sandbox", label, v.Path, where)
}

// Validate checks cmd and returns the first violation, or nil if every path
// the command mentions stays inside the sandbox.
//
// Live substitutions are checked first, depth first and left to right, then
// the command's own words. Text that does not tokenize (for example an
// unterminated quote) contributes no words; violations already found inside
// its substitutions still count.
func (v *Validator) Validate(cmd string) *Violation {
	for sub := range Subcommands(cmd) {
		if vio := v.Validate(sub); vio != nil {
			vio.Nested = true
			return vio
		}
	}

	tokens, err := Tokenize(Neutralize(cmd))
	if err != nil {
		log.Debug().Err(err).Str("command", cmd).Msg("skipping untokenizable command text")
		return nil
	}
	return v.checkTokens(tokens)
}

// CheckArgs checks an argument vector that has already been split and
// expanded, such as the argv of a command about to be executed.
func (v *Validator) CheckArgs(args []string) *Violation {
	return v.checkTokens(args)
}

func (v *Validator) checkTokens(tokens []string) *Violation {
	for i, tok := range tokens {
		cand, ok := PathCandidate(tok)
		if !ok {
			continue
		}
		expanded, out := v.Outside(cand)
		if !out {
			continue
		}
		kind := KindPath
		if i > 0 && isRedirectOp(tokens[i-1]) {
			kind = KindRedirect
		}
		return &Violation{Path: expanded, Kind: kind}
	}
	return nil
}
