package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"mvdan.cc/sh/v3/expand"

	"github.com/xonecas/pathguard/internal/sandbox"
)

// primaryTempRoot is always allowed.
const primaryTempRoot = "/tmp"

// SandboxFor builds the immutable engine configuration for a command issued
// from cwd. environ is a "KEY=value" snapshot of the process environment;
// the engine expands ~ and $VAR against it and never reads the live
// environment itself.
//
// When environ has no HOME, the current user's home directory is added so
// that ~ still expands the way the shell would expand it.
//
// CLAUDE_PROJECT_DIR, when set, overrides cwd as the sandbox root. Temp
// roots and the privileged dir that cannot be resolved are left out.
func (c *Config) SandboxFor(cwd string, environ []string) (sandbox.Config, error) {
	env := expand.ListEnviron(environ...)
	if !env.Get("HOME").IsSet() {
		if home := ambientHome(); home != "" {
			env = expand.ListEnviron(append(slices.Clone(environ), "HOME="+home)...)
		}
	}

	rootDir := cwd
	if v := env.Get("CLAUDE_PROJECT_DIR").String(); v != "" {
		rootDir = v
	}
	if rootDir == "" {
		rootDir = "."
	}
	root, err := sandbox.Canonicalize(rootDir)
	if err != nil {
		return sandbox.Config{}, fmt.Errorf("resolve sandbox root %q: %w", rootDir, err)
	}

	home := env.Get("HOME").String()

	candidates := []string{primaryTempRoot}
	if v := env.Get("TMPDIR").String(); v != "" {
		candidates = append(candidates, v)
	}
	candidates = append(candidates, c.Sandbox.TempRoots...)

	var temps []string
	for _, t := range candidates {
		r, ok := resolveDir(t, home)
		if !ok {
			log.Debug().Str("temp_root", t).Msg("dropping unresolvable temp root")
			continue
		}
		if !slices.Contains(temps, r) {
			temps = append(temps, r)
		}
	}

	priv, ok := resolveDir(c.Sandbox.PrivilegedDirOrDefault(), home)
	if !ok {
		log.Debug().Str("privileged_dir", c.Sandbox.PrivilegedDirOrDefault()).Msg("privileged dir unresolvable, carve-out disabled")
		priv = ""
	}

	devices := slices.Concat(sandbox.DefaultSafeDevices, c.Sandbox.SafeDevices)

	return sandbox.Config{
		Root:          root,
		TempRoots:     temps,
		PrivilegedDir: priv,
		SafeDevices:   devices,
		Env:           env,
	}, nil
}

// Validator is shorthand for building a sandbox.Validator from SandboxFor.
func (c *Config) Validator(cwd string, environ []string) (*sandbox.Validator, error) {
	sc, err := c.SandboxFor(cwd, environ)
	if err != nil {
		return nil, err
	}
	return sandbox.New(sc)
}

// resolveDir expands a leading ~ with home and canonicalizes the result.
// Relative paths and unresolvable ones are rejected.
func resolveDir(p, home string) (string, bool) {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home == "" {
			return "", false
		}
		p = home + p[1:]
	}
	if !filepath.IsAbs(p) {
		return "", false
	}
	r, err := sandbox.Canonicalize(p)
	if err != nil {
		return "", false
	}
	return r, true
}

// ambientHome returns the current user's home directory, or "" if it
// cannot be determined.
func ambientHome() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return home
	}
	if u, err := user.Current(); err == nil {
		return u.HomeDir
	}
	return ""
}
