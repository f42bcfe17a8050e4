package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/xonecas/pathguard/internal/sandbox"
)

// Shell is an in-process POSIX shell with persistent cwd/env across calls,
// anchored to a sandbox root.
type Shell struct {
	mu         sync.Mutex
	validator  *sandbox.Validator
	cwd        string
	env        []string
	blockFuncs []BlockFunc
}

// New creates a Shell that starts in the validator's root. environ is the
// initial "KEY=value" environment; nil means the process environment.
func New(v *sandbox.Validator, environ []string, blockers []BlockFunc) *Shell {
	if environ == nil {
		environ = os.Environ()
	}
	return &Shell{
		validator:  v,
		cwd:        v.Root(),
		env:        environ,
		blockFuncs: blockers,
	}
}

// Exec runs a command synchronously, returning stdout, stderr, and any error.
func (s *Shell) Exec(ctx context.Context, command string) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stdout, stderr bytes.Buffer
	err := s.execCommon(ctx, command, nil, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

// ExecStream runs a command, streaming output to the provided writers.
func (s *Shell) ExecStream(ctx context.Context, command string, stdin io.Reader, stdout, stderr io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.execCommon(ctx, command, stdin, stdout, stderr)
}

// Dir returns the current working directory.
func (s *Shell) Dir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cwd
}

func (s *Shell) execCommon(ctx context.Context, command string, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	if vio := s.validator.At(s.cwd).Validate(command); vio != nil {
		return fmt.Errorf("%w: %s", ErrBlocked, vio.Reason())
	}

	var runner *interp.Runner
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("command execution panic: %v", r)
		}
		if runner != nil {
			s.updateFromRunner(runner, stderr)
		}
	}()

	parsed, err := syntax.NewParser().Parse(strings.NewReader(command), "")
	if err != nil {
		return fmt.Errorf("could not parse command: %w", err)
	}

	runner, err = s.newInterp(stdin, stdout, stderr)
	if err != nil {
		return fmt.Errorf("could not create interpreter: %w", err)
	}

	return runner.Run(ctx, parsed)
}

func (s *Shell) newInterp(stdin io.Reader, stdout, stderr io.Writer) (*interp.Runner, error) {
	return interp.New(
		interp.StdIO(stdin, stdout, stderr),
		interp.Interactive(false),
		interp.Env(expand.ListEnviron(s.env...)),
		interp.Dir(s.cwd),
		interp.CallHandler(s.callHandler()),
		interp.OpenHandler(s.openHandler()),
	)
}

// callHandler sees every simple command after expansion, builtins included,
// so cd and pushd are checked here as well as external programs.
func (s *Shell) callHandler() interp.CallHandlerFunc {
	return func(ctx context.Context, args []string) ([]string, error) {
		if len(args) == 0 {
			return args, nil
		}
		hc := interp.HandlerCtx(ctx)
		if err := s.checkDirChange(hc, args); err != nil {
			return nil, err
		}
		for _, bf := range s.blockFuncs {
			if err := bf(hc.Dir, args); err != nil {
				log.Info().Err(err).Strs("args", args).Msg("blocked call")
				return nil, err
			}
		}
		return args, nil
	}
}

// checkDirChange refuses cd and pushd targets outside the sandbox, including
// the implicit $HOME of a bare cd and the $OLDPWD of "cd -".
func (s *Shell) checkDirChange(hc interp.HandlerContext, args []string) error {
	if args[0] != "cd" && args[0] != "pushd" {
		return nil
	}
	target := ""
	for _, a := range args[1:] {
		if a == "-" || !strings.HasPrefix(a, "-") {
			target = a
			break
		}
	}
	switch target {
	case "":
		if args[0] == "pushd" {
			return nil
		}
		target = hc.Env.Get("HOME").String()
	case "-":
		target = hc.Env.Get("OLDPWD").String()
	}
	if target == "" {
		return nil
	}
	if p, out := s.validator.At(hc.Dir).Outside(target); out {
		return fmt.Errorf("%w: directory '%s' outside sandbox", ErrBlocked, p)
	}
	return nil
}

func (s *Shell) openHandler() interp.OpenHandlerFunc {
	open := interp.DefaultOpenHandler()
	return func(ctx context.Context, path string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
		hc := interp.HandlerCtx(ctx)
		if p, out := s.validator.At(hc.Dir).Outside(path); out {
			vio := &sandbox.Violation{Path: p, Kind: sandbox.KindRedirect}
			return nil, fmt.Errorf("%w: %s", ErrBlocked, vio.Reason())
		}
		return open(ctx, path, flag, perm)
	}
}

// updateFromRunner persists cwd and exported env vars after execution.
// If the runner's cwd escaped the sandbox anyway, it is clamped back to the
// root and a warning is written to stderr.
func (s *Shell) updateFromRunner(runner *interp.Runner, stderr io.Writer) {
	dir := runner.Dir
	if _, out := s.validator.Outside(dir); out {
		fmt.Fprintf(stderr, "[cd rejected: you are anchored to %s]\n", s.validator.Root())
		dir = s.validator.Root()
	}
	s.cwd = dir
	s.env = s.env[:0]
	runner.Env.Each(func(name string, vr expand.Variable) bool {
		if vr.Exported {
			s.env = append(s.env, name+"="+vr.Str)
		}
		return true
	})
}

// ExitCode extracts the exit code from an interpreter error. Refusals map
// to 2, matching the hook's blocking exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, ErrBlocked) {
		return 2
	}
	var exitErr interp.ExitStatus
	if errors.As(err, &exitErr) {
		return int(exitErr)
	}
	return 1
}
