// Package sandbox statically checks shell commands for filesystem paths that
// fall outside a set of allowed roots. Nothing is executed: the command text
// is scanned for live substitutions, split into words, and every word that
// looks like a path is expanded and resolved against the sandbox root.
package sandbox

import (
	"errors"
	"fmt"
	"path/filepath"

	"mvdan.cc/sh/v3/expand"
)

// DefaultSafeDevices are device files that any command may touch.
var DefaultSafeDevices = []string{
	"/dev/null", "/dev/zero", "/dev/random", "/dev/urandom",
	"/dev/stdin", "/dev/stdout", "/dev/stderr",
	"/dev/fd/0", "/dev/fd/1", "/dev/fd/2",
	"/dev/fd0", "/dev/fd1", "/dev/fd2",
	"/dev/tty", "/dev/ptmx",
}

// Config is the input to New. All directories must already be absolute and
// canonical; the config package takes care of that.
type Config struct {
	// Root is the project directory commands are confined to.
	Root string
	// TempRoots are additional trees that are always allowed.
	TempRoots []string
	// PrivilegedDir is always allowed regardless of Root, e.g. the agent's
	// own configuration home. Empty disables the carve-out.
	PrivilegedDir string
	// SafeDevices are exact path strings allowed without resolution.
	// Nil means DefaultSafeDevices.
	SafeDevices []string
	// Env is the environment used for ~ and $VAR expansion. Nil means an
	// empty environment.
	Env expand.Environ
}

// Validator checks commands against an immutable Config. It is safe for
// concurrent use.
type Validator struct {
	root       string
	base       string
	tempRoots  []string
	privileged string
	devices    map[string]struct{}
	env        expand.Environ
}

// New builds a Validator from cfg.
func New(cfg Config) (*Validator, error) {
	if cfg.Root == "" {
		return nil, errors.New("sandbox root is required")
	}
	if !filepath.IsAbs(cfg.Root) {
		return nil, fmt.Errorf("sandbox root %q is not absolute", cfg.Root)
	}
	var errs []error
	for _, t := range cfg.TempRoots {
		if !filepath.IsAbs(t) {
			errs = append(errs, fmt.Errorf("temp root %q is not absolute", t))
		}
	}
	if cfg.PrivilegedDir != "" && !filepath.IsAbs(cfg.PrivilegedDir) {
		errs = append(errs, fmt.Errorf("privileged dir %q is not absolute", cfg.PrivilegedDir))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	devices := cfg.SafeDevices
	if devices == nil {
		devices = DefaultSafeDevices
	}
	set := make(map[string]struct{}, len(devices))
	for _, d := range devices {
		set[d] = struct{}{}
	}

	env := cfg.Env
	if env == nil {
		env = expand.ListEnviron()
	}

	root := filepath.Clean(cfg.Root)
	return &Validator{
		root:       root,
		base:       root,
		tempRoots:  cleanAll(cfg.TempRoots),
		privileged: cleanOptional(cfg.PrivilegedDir),
		devices:    set,
		env:        env,
	}, nil
}

// Root returns the sandbox root.
func (v *Validator) Root() string { return v.root }

// At returns a Validator that resolves relative paths against dir instead of
// the sandbox root. Containment is still judged against the same roots.
func (v *Validator) At(dir string) *Validator {
	if dir == "" || !filepath.IsAbs(dir) {
		return v
	}
	c := *v
	c.base = dir
	return &c
}

func cleanAll(dirs []string) []string {
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		out = append(out, filepath.Clean(d))
	}
	return out
}

func cleanOptional(dir string) string {
	if dir == "" {
		return ""
	}
	return filepath.Clean(dir)
}
