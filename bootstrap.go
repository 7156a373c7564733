// Package bootstrap installs mosint on a machine that may not even have go.
//
// A [Bootstrapper] runs a fixed sequence of steps, stopping at the first one
// that fails: presence check, connectivity check, toolchain check/install,
// install directory preparation, package install, verification and config
// seeding. Finding the binary already on the search path ends the run
// successfully before anything else happens, so running it twice is harmless.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/aexvir/mosint-bootstrap/binary"
	"github.com/aexvir/mosint-bootstrap/config"
	"github.com/aexvir/mosint-bootstrap/host"
	"github.com/aexvir/mosint-bootstrap/netcheck"
	"github.com/aexvir/mosint-bootstrap/prompt"
)

// Step is a single stage of the bootstrap.
type Step func(ctx context.Context, env *Env) error

// Prober checks internet reachability.
type Prober interface {
	Reachable(ctx context.Context) (netcheck.Result, error)
}

// Bootstrapper installs the configured target.
type Bootstrapper struct {
	cfg config.Config
	env *Env

	host     host.Identity
	hostset  bool
	prompter prompt.Prompter
	prober   Prober
	run      CommandRunner
	origin   binary.Origin
	out      io.Writer
	euid     int

	// go executable, resolved by the toolchain step
	gocmd string
}

type Option func(b *Bootstrapper)

// WithEnv replaces the environment captured from the process.
func WithEnv(env *Env) Option {
	return func(b *Bootstrapper) {
		b.env = env
	}
}

// WithHost skips host detection.
func WithHost(id host.Identity) Option {
	return func(b *Bootstrapper) {
		b.host = id
		b.hostset = true
	}
}

// WithPrompter replaces the prompter chosen from the unattended setting.
func WithPrompter(p prompt.Prompter) Option {
	return func(b *Bootstrapper) {
		b.prompter = p
	}
}

// WithProber replaces the connectivity prober.
func WithProber(p Prober) Option {
	return func(b *Bootstrapper) {
		b.prober = p
	}
}

// WithCommandRunner replaces how toolchain and helper commands are executed.
func WithCommandRunner(run CommandRunner) Option {
	return func(b *Bootstrapper) {
		b.run = run
	}
}

// WithOrigin replaces where the target binary is installed from.
func WithOrigin(origin binary.Origin) Option {
	return func(b *Bootstrapper) {
		b.origin = origin
	}
}

// WithOutput sets where the output of the installed binary is written.
func WithOutput(w io.Writer) Option {
	return func(b *Bootstrapper) {
		b.out = w
	}
}

// New constructs a bootstrapper for cfg.
func New(cfg config.Config, opts ...Option) (*Bootstrapper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	b := Bootstrapper{
		cfg:  cfg,
		run:  Run,
		out:  os.Stdout,
		euid: os.Geteuid(),
	}

	for _, opt := range opts {
		opt(&b)
	}

	if b.env == nil {
		b.env = ProcessEnv()
	}

	if !b.hostset {
		b.host = host.Detect(b.env.GOOS, os.DirFS("/"))
	}

	if b.prompter == nil {
		if cfg.Unattended {
			b.prompter = prompt.Unattended{}
		} else {
			b.prompter = prompt.NewTerminal(os.Stdin, os.Stdout)
		}
	}

	if b.prober == nil {
		b.prober = netcheck.New(
			netcheck.WithURL(cfg.Probe.URL),
			netcheck.WithAddress(cfg.Probe.Address),
			netcheck.WithTimeout(cfg.Probe.Timeout),
			netcheck.WithPinger(netcheck.SystemPinger(b.env.GOOS, b.env.Lookup, b.env.Environ())),
		)
	}

	if b.origin == nil {
		b.origin = binary.GoBinary(cfg.Target.Package)
	}

	return &b, nil
}

// Run executes the whole bootstrap sequence.
func (b *Bootstrapper) Run(ctx context.Context) error {
	return b.Execute(
		ctx,
		b.CheckPresence,
		b.CheckConnectivity,
		b.EnsureToolchain,
		b.PrepareInstallDir,
		b.InstallPackage,
		b.Verify,
		b.SeedConfig,
	)
}

// Execute runs steps sequentially, stopping at the first failure.
// A step reporting the target as already installed ends the run successfully.
func (b *Bootstrapper) Execute(ctx context.Context, steps ...Step) error {
	start := time.Now()

	fmt.Printf("\n")

	for _, step := range steps {
		err := step(ctx, b.env)
		if err == nil {
			continue
		}

		elapsed := time.Since(start).Round(time.Millisecond)
		color.New(color.FgHiBlack).Printf("------------------------\n\n")

		if errors.Is(err, errSatisfied) {
			color.Green(" ✔ %s is already installed, nothing to do after %s\n\n", b.cfg.Target.Binary, elapsed)
			return nil
		}

		color.Red(" ✘ failed after %s", elapsed)
		color.Red("   • %s", err.Error())
		if hint := Hint(err); hint != "" {
			color.Yellow("   • %s", hint)
		}
		fmt.Printf("\n")

		return err
	}

	elapsed := time.Since(start).Round(time.Millisecond)
	color.New(color.FgHiBlack).Printf("------------------------\n\n")
	color.Green(" ✔ %s installed successfully after %s\n\n", b.cfg.Target.Binary, elapsed)

	return nil
}

// target describes the binary being installed, built with the toolchain
// resolved so far.
func (b *Bootstrapper) target() (*binary.Binary, error) {
	return binary.New(
		b.cfg.Target.Binary,
		b.cfg.Target.InstallDir,
		b.cfg.Target.Version,
		b.origin,
		binary.WithGOOS(b.env.GOOS),
		binary.WithVersionFlag(b.cfg.Target.VersionFlag),
		binary.WithToolchain(b.gocmd),
		binary.WithOutput(b.out),
	)
}
