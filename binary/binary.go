package binary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ErrMissing is returned by [Binary.Verify] when the file isn't where the
// installation should have put it.
var ErrMissing = errors.New("binary not found")

type Binary struct {
	name        string
	directory   string
	version     string
	versionflag string
	toolchain   string

	out io.Writer

	origin Origin
	spec   Spec
}

// New describes the command name installed into directory by origin.
func New(command, directory, version string, origin Origin, options ...Option) (*Binary, error) {
	if command == "" {
		return nil, errors.New("command must be set")
	}
	if directory == "" {
		return nil, errors.New("directory must be set")
	}
	if version == "" {
		return nil, errors.New("version must be set")
	}
	if origin == nil {
		return nil, errors.New("origin must be set")
	}

	bin := Binary{
		name:        command,
		directory:   directory,
		version:     version,
		versionflag: "--version",
		out:         os.Stdout,
		origin:      origin,
	}

	bin.spec = Spec{
		GOOS:      runtime.GOOS,
		Directory: directory,
		Name:      command,
		Version:   version,
	}

	for _, opt := range options {
		opt(&bin)
	}

	if bin.spec.GOOS == "windows" {
		bin.spec.Extension = ".exe"
	}
	bin.spec.Cmd = filepath.Join(directory, command+bin.spec.Extension)

	return &bin, nil
}

// Name of the command.
func (b *Binary) Name() string {
	return b.name
}

// Path where the binary is expected after installation.
func (b *Binary) Path() string {
	return b.spec.Cmd
}

// Installed returns true if the binary file exists.
func (b *Binary) Installed() bool {
	info, err := os.Stat(b.spec.Cmd)
	return err == nil && !info.IsDir()
}

// Install provisions the binary through its origin.
// environ is the full environment passed to any command the origin runs.
func (b *Binary) Install(ctx context.Context, environ []string) error {
	logstep(fmt.Sprintf("installing %s@%s into %s", b.name, b.version, b.directory))

	spec := b.spec
	spec.Env = environ
	spec.Toolchain = b.toolchain

	return b.origin.Install(ctx, spec)
}

// Verify checks the binary exists and exits cleanly when asked for its version.
func (b *Binary) Verify(ctx context.Context, environ []string) error {
	if !b.Installed() {
		return fmt.Errorf("%w at %s", ErrMissing, b.spec.Cmd)
	}

	logdetail(fmt.Sprintf("running %s %s", b.spec.Cmd, b.versionflag))

	cmd := exec.CommandContext(ctx, b.spec.Cmd, b.versionflag)
	cmd.Env = environ
	cmd.Stdout = b.out
	cmd.Stderr = b.out

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", b.name, b.versionflag, err)
	}

	return nil
}
