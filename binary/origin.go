package binary

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Spec contains the details an origin needs to provision a binary.
type Spec struct {
	// GOOS is the operating system the binary is installed on
	GOOS string

	// Directory where the binary is placed
	Directory string
	// Name of the binary
	Name string
	// Cmd is the fully qualified path to the binary
	Cmd string
	// Version requested, either "latest" or a semantic version
	Version string
	// Extension is empty on unix systems and ".exe" on windows.
	Extension string

	// Toolchain is the go executable used by [GoBinary]; empty means "go".
	Toolchain string

	// Env is the environment origins pass to the commands they run;
	// nil means the current process environment.
	Env []string
}

// Origin defines the interface for provisioning binaries from different sources.
type Origin interface {
	// Install performs the installation of a binary described by spec.
	Install(ctx context.Context, spec Spec) error
}

// gopkg implements Origin for installing binaries using Go's package management.
// It provisions binaries via 'go install'.
type gopkg struct {
	pkg    string
	stdout io.Writer
	stderr io.Writer
}

// GoBinary creates a new Origin that installs a binary using 'go install'
// into [Spec.Directory].
// The pkg parameter should be a package installable using the go cli.
// e.g. github.com/alpkeskin/mosint/v3/cmd/mosint
func GoBinary(pkg string) Origin {
	return &gopkg{
		pkg:    pkg,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

func (o *gopkg) Install(ctx context.Context, spec Spec) error {
	if err := os.MkdirAll(spec.Directory, 0o755); err != nil {
		return fmt.Errorf("failed to create destination folder %s: %w", spec.Directory, err)
	}

	path, err := filepath.Abs(spec.Directory)
	if err != nil {
		return fmt.Errorf("failed to resolve dir %s: %w", spec.Directory, err)
	}

	args := InstallArgs(o.pkg, spec.Version)

	environ := spec.Env
	if environ == nil {
		environ = os.Environ()
	}

	gocmd := spec.Toolchain
	if gocmd == "" {
		gocmd = "go"
	}

	cmd := exec.CommandContext(ctx, gocmd, args...)
	cmd.Env = append(withoutVar(environ, "GOBIN"), "GOBIN="+path)
	cmd.Stdout = o.stdout
	cmd.Stderr = o.stderr

	logdetail(fmt.Sprintf("running GOBIN=%s %s %s", path, gocmd, strings.Join(args, " ")))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("unable to install executable: %w", err)
	}

	return nil
}

// InstallArgs returns the go cli arguments that install pkg at version.
func InstallArgs(pkg, version string) []string {
	return []string{"install", "-v", pkg + "@" + version}
}

// withoutVar drops any assignment of name from environ.
func withoutVar(environ []string, name string) []string {
	filtered := make([]string, 0, len(environ)+1)
	for _, entry := range environ {
		if strings.HasPrefix(entry, name+"=") {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered
}

func logstep(text string) {
	fmt.Println(
		color.BlueString(" •"),
		color.New(color.FgHiBlack).Sprint(text),
	)
}

func logdetail(text string) {
	fmt.Println(
		color.New(color.FgHiBlack).Sprint("   └"),
		color.New(color.FgHiBlack).Sprint(text),
	)
}
