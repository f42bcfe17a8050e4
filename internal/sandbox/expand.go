package sandbox

import (
	"io"
	"os/user"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

// expandPath applies tilde and then variable expansion to p.
func expandPath(p string, env expand.Environ) string {
	return expandVars(expandTilde(p, env), env)
}

// expandTilde expands a leading ~ or ~name. HOME comes from env, or from the
// user database when env has none; other users are looked up in the user
// database. Unknown users are left alone.
func expandTilde(p string, env expand.Environ) string {
	name, ok := strings.CutPrefix(p, "~")
	if !ok {
		return p
	}
	rest := ""
	if i := strings.IndexByte(name, '/'); i >= 0 {
		name, rest = name[:i], name[i:]
	}
	if name == "" {
		if vr := env.Get("HOME"); vr.IsSet() {
			return vr.String() + rest
		}
		// Like the shell, fall back to the password database.
		u, err := user.Current()
		if err != nil || u.HomeDir == "" {
			return p
		}
		return u.HomeDir + rest
	}
	if vr := env.Get("HOME " + name); vr.IsSet() {
		return vr.String() + rest
	}
	u, err := user.Lookup(name)
	if err != nil {
		return p
	}
	return u.HomeDir + rest
}

// expandVars expands $VAR and ${VAR} references the way the shell would:
// unset variables become empty. Command substitutions expand to nothing, as
// their text is validated on its own. Input that is not a valid shell word is
// returned unchanged.
func expandVars(p string, env expand.Environ) string {
	if !strings.ContainsAny(p, "$`") {
		return p
	}
	word, err := syntax.NewParser().Document(strings.NewReader(p))
	if err != nil {
		return p
	}
	cfg := &expand.Config{
		Env:      env,
		CmdSubst: func(io.Writer, *syntax.CmdSubst) error { return nil },
	}
	out, err := expand.Document(cfg, word)
	if err != nil {
		return p
	}
	return out
}
