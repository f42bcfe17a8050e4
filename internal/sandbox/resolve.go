package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
)

// maxSymlinks bounds symlink expansion during Canonicalize.
const maxSymlinks = 40

// ErrSymlinkLoop is returned by Canonicalize when a path does not settle
// within maxSymlinks expansions.
var ErrSymlinkLoop = errors.New("too many levels of symbolic links")

// Outside reports whether path escapes the sandbox. When it does, the
// returned string is path after ~ and $VAR expansion, for diagnostics.
//
// Relative paths are taken relative to the sandbox root, or to the
// directory given to At. A path that cannot
// be resolved is reported as outside.
func (v *Validator) Outside(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	expanded := expandPath(path, v.env)
	if _, ok := v.devices[expanded]; ok {
		return "", false
	}
	if v.privileged != "" {
		if r, err := Canonicalize(v.abs(expandTilde(expanded, v.env))); err == nil && within(r, v.privileged) {
			return "", false
		}
	}
	if strings.HasPrefix(expanded, "-") && !strings.ContainsAny(expanded, "/~") {
		return "", false
	}

	resolved, err := Canonicalize(v.abs(expanded))
	if err != nil {
		log.Debug().Err(err).Str("path", expanded).Msg("unresolvable path treated as outside")
		return expanded, true
	}
	if within(resolved, v.root) {
		return "", false
	}
	for _, t := range v.tempRoots {
		if within(resolved, t) {
			return "", false
		}
	}
	return expanded, true
}

// abs anchors p at the base directory without cleaning it: ".." must be
// applied after symlinks are followed, not before.
func (v *Validator) abs(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return v.base + string(filepath.Separator) + p
}

// Canonicalize returns path with every symlink followed and every "." and
// ".." applied in order. Components that do not exist end symlink
// resolution for that component only; the rest of the path is still walked,
// so a path under a dangling symlink resolves to the link's target. Any
// other stat failure, or a symlink loop, is an error.
//
// A relative path is first made absolute against the working directory.
func Canonicalize(path string) (string, error) {
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", err
		}
		path = abs
	}

	sep := string(filepath.Separator)
	vol := filepath.VolumeName(path)
	resolved := vol + sep
	rest := path[len(vol):]
	links := 0

	for rest != "" {
		var name string
		name, rest, _ = strings.Cut(rest, sep)
		switch name {
		case "", ".":
			continue
		case "..":
			resolved = filepath.Dir(resolved)
			continue
		}

		next := filepath.Join(resolved, name)
		fi, err := os.Lstat(next)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
				resolved = next
				continue
			}
			return "", err
		}
		if fi.Mode()&fs.ModeSymlink == 0 {
			resolved = next
			continue
		}

		links++
		if links > maxSymlinks {
			return "", fmt.Errorf("%s: %w", path, ErrSymlinkLoop)
		}
		target, err := os.Readlink(next)
		if err != nil {
			return "", err
		}
		if filepath.IsAbs(target) {
			tvol := filepath.VolumeName(target)
			resolved = tvol + sep
			target = target[len(tvol):]
		}
		rest = target + sep + rest
	}
	return resolved, nil
}

// within reports whether path is dir or nested under it.
func within(path, dir string) bool {
	if path == dir {
		return true
	}
	prefix := dir
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}
