// Package shell runs commands in an in-process POSIX interpreter confined to
// a sandbox root. Commands are checked statically before they run, and every
// expanded call, cd and redirect is checked again while they run.
package shell

import (
	"errors"
	"fmt"

	"github.com/xonecas/pathguard/internal/sandbox"
)

// ErrBlocked is wrapped by every refusal.
var ErrBlocked = errors.New("command blocked")

// BlockFunc inspects an expanded argument list about to run in dir and
// returns an error wrapping ErrBlocked to refuse it.
type BlockFunc func(dir string, args []string) error

// CommandsBlocker returns a BlockFunc that blocks exact command name matches.
func CommandsBlocker(cmds []string) BlockFunc {
	blocked := make(map[string]struct{}, len(cmds))
	for _, c := range cmds {
		blocked[c] = struct{}{}
	}
	return func(_ string, args []string) error {
		if len(args) == 0 {
			return nil
		}
		if _, ok := blocked[args[0]]; ok {
			return fmt.Errorf("%w: %q is not allowed", ErrBlocked, args[0])
		}
		return nil
	}
}

// PathBlocker returns a BlockFunc that refuses arguments naming paths
// outside the sandbox. Relative paths are resolved against dir.
func PathBlocker(v *sandbox.Validator) BlockFunc {
	return func(dir string, args []string) error {
		if vio := v.At(dir).CheckArgs(args); vio != nil {
			return fmt.Errorf("%w: %s", ErrBlocked, vio.Reason())
		}
		return nil
	}
}

// DefaultBlockFuncs returns the path blocker plus a name blocker for the
// configured commands.
func DefaultBlockFuncs(v *sandbox.Validator, blockedCommands []string) []BlockFunc {
	bfs := []BlockFunc{PathBlocker(v)}
	if len(blockedCommands) > 0 {
		bfs = append(bfs, CommandsBlocker(blockedCommands))
	}
	return bfs
}
