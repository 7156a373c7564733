package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
)

// TaskRunner holds the metadata for a specific command.
type TaskRunner struct {
	Executable string
	Arguments  []string

	cmd      *exec.Cmd
	env      *Env
	errmsg   string
	quiet    bool
	allowerr bool
}

// CommandRunner runs an executable to completion.
// [Run] is the implementation used outside of tests.
type CommandRunner func(ctx context.Context, executable string, opts ...RunnerOpt) error

// Cmd builds a command runner for a specific Executable.
//
// Bare executable names are resolved against the search path of the [Env]
// passed through [WithEnviron], or the process PATH otherwise. Relative paths
// are made absolute against the current directory, so [WithDir] doesn't
// change which file gets executed.
func Cmd(ctx context.Context, executable string, opts ...RunnerOpt) (*TaskRunner, error) {
	cmd := exec.CommandContext(ctx, executable)

	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	r := TaskRunner{
		Executable: executable,
		cmd:        cmd,
	}

	for _, opt := range opts {
		err := opt(&r)
		if err != nil {
			return nil, err
		}
	}

	if err := r.resolve(); err != nil {
		return nil, err
	}

	cmd.Args = append([]string{executable}, r.Arguments...)

	return &r, nil
}

func (r *TaskRunner) resolve() error {
	switch {
	case filepath.IsAbs(r.Executable):
		r.cmd.Path = r.Executable

	case strings.ContainsRune(r.Executable, filepath.Separator) || strings.ContainsRune(r.Executable, '/'):
		abs, err := filepath.Abs(r.Executable)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", r.Executable, err)
		}
		r.Executable = abs
		r.cmd.Path = abs

	default:
		env := r.env
		if env == nil {
			env = ProcessEnv()
		}

		path, ok := env.Lookup(r.Executable)
		if !ok {
			r.cmd.Err = fmt.Errorf("exec: %q: %w", r.Executable, exec.ErrNotFound)
			return nil
		}
		r.Executable = path
		r.cmd.Path = path
		r.cmd.Err = nil
	}

	return nil
}

// Exec a command returning its error and pretty printing the error message.
func (r *TaskRunner) Exec() error {
	var err error

	start := time.Now()
	defer func() {
		if r.quiet {
			return
		}
		elapsed := time.Since(start).Round(time.Millisecond)
		if err != nil {
			color.Red(" ✘ %s\n\n", elapsed)
			return
		}
		color.Green(" ✔ %s\n\n", elapsed)
	}()

	if !r.quiet {
		logstep(fmt.Sprint(filepath.Base(r.Executable), " ", strings.Join(r.Arguments, " ")))
	}

	log.Debug().
		Str("command", r.Executable).
		Strs("args", r.Arguments).
		Msg("executing command")

	err = r.cmd.Run()

	if err == nil {
		return nil
	}

	if r.allowerr {
		log.Debug().Err(err).Str("command", r.Executable).Msg("ignoring command failure")
		err = nil
		return nil
	}

	if !r.quiet && r.errmsg != "" {
		color.Red(r.errmsg)
	}
	return fmt.Errorf("%s: %w", filepath.Base(r.Executable), err)
}

// Run is a helper function to avoid repetition while gracefully handling errors.
func Run(ctx context.Context, program string, opts ...RunnerOpt) error {
	rnr, err := Cmd(ctx, program, opts...)
	if err != nil {
		return err
	}

	return rnr.Exec()
}

// fancy-ish log of a task step.
func logstep(text string) {
	fmt.Println(
		color.MagentaString(" ⌘"),
		color.New(color.Bold).Sprint(text),
	)
}

func logdetail(text string) {
	fmt.Println(
		color.New(color.FgHiBlack).Sprint("   └"),
		color.New(color.FgHiBlack).Sprint(text),
	)
}

func logwarning(text string) {
	fmt.Println(
		color.YellowString(" !"),
		color.YellowString(text),
	)
}

// RunnerOpt allows customizing the behavior of the command runner.
type RunnerOpt func(r *TaskRunner) error

// WithEnviron runs the command inside env: its variables become the command
// environment and its search path resolves the executable.
func WithEnviron(env *Env) RunnerOpt {
	return func(r *TaskRunner) error {
		r.env = env
		r.cmd.Env = env.Environ()
		return nil
	}
}

// WithEnvVars adds NAME=value assignments to the command environment.
func WithEnvVars(vars ...string) RunnerOpt {
	return func(r *TaskRunner) error {
		if r.cmd.Env == nil {
			r.cmd.Env = os.Environ()
		}
		for _, vrb := range vars {
			name, _, found := strings.Cut(vrb, "=")
			if !found || name == "" {
				return fmt.Errorf("invalid env format; %s doesn't match NAME=value expectation", vrb)
			}
			r.cmd.Env = append(r.cmd.Env, vrb)
		}
		return nil
	}
}

// WithArgs command arguments.
func WithArgs(args ...string) RunnerOpt {
	return func(r *TaskRunner) error {
		r.Arguments = args
		return nil
	}
}

// WithErrMsg sets a message to be printed when the command fails.
func WithErrMsg(msg string) RunnerOpt {
	return func(r *TaskRunner) error {
		r.errmsg = msg
		return nil
	}
}

// WithDir sets the directory where the command should be run inside.
func WithDir(dir string) RunnerOpt {
	return func(r *TaskRunner) error {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("failed to resolve dir %s: %w", dir, err)
		}
		r.cmd.Dir = abs
		return nil
	}
}

// WithoutNoise silences all output for the command; useful when handling that on the caller side.
func WithoutNoise() RunnerOpt {
	return func(r *TaskRunner) error {
		r.quiet = true
		r.cmd.Stdout = nil
		r.cmd.Stderr = nil

		return nil
	}
}

// WithStdOut set up stdout writer.
func WithStdOut(w io.Writer) RunnerOpt {
	return func(r *TaskRunner) error {
		r.cmd.Stdout = w
		return nil
	}
}

// WithAllowErrors allow errors in the command.
func WithAllowErrors() RunnerOpt {
	return func(r *TaskRunner) error {
		r.allowerr = true
		return nil
	}
}
