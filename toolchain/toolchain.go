// Package toolchain plans how the Go toolchain gets installed on each
// supported host. It never executes anything itself; callers run the
// returned commands through their own runner.
package toolchain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/aexvir/mosint-bootstrap/host"
)

// DownloadURL is the official download page opened when the toolchain
// can't be installed automatically.
const DownloadURL = "https://go.dev/dl/"

// ErrUnsupported is returned when no installation strategy exists for the host.
var ErrUnsupported = errors.New("no toolchain installation strategy for this host")

// Command is a single package manager invocation.
type Command struct {
	Name string
	Args []string
	// Env holds extra NAME=value pairs for the command.
	Env []string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Plan describes how the toolchain is obtained on a host.
// Exactly one of Commands or ManualURL is set.
type Plan struct {
	Commands []Command
	// ManualURL is the page the operator has to install the toolchain from.
	ManualURL string
}

// Manual reports whether the plan requires operator action.
func (p Plan) Manual() bool {
	return p.ManualURL != ""
}

// PlanFor returns the installation plan for the host identity.
// With elevate set, package manager commands are prefixed with sudo.
func PlanFor(id host.Identity, elevate bool) (Plan, error) {
	var cmds []Command

	switch id {
	case host.Debian, host.Ubuntu:
		noninteractive := []string{"DEBIAN_FRONTEND=noninteractive"}
		cmds = []Command{
			{Name: "apt-get", Args: []string{"update"}, Env: noninteractive},
			{Name: "apt-get", Args: []string{"install", "-y", "golang-go"}, Env: noninteractive},
		}
	case host.RedHat:
		cmds = []Command{
			{Name: "yum", Args: []string{"install", "-y", "golang"}},
		}
	case host.Arch:
		cmds = []Command{
			{Name: "pacman", Args: []string{"-Sy", "--noconfirm", "go"}},
		}
	case host.Windows:
		return Plan{ManualURL: DownloadURL}, nil
	default:
		return Plan{}, fmt.Errorf("%s: %w", id, ErrUnsupported)
	}

	if elevate {
		for i, cmd := range cmds {
			// sudo resets the environment, so pass the variables as arguments
			args := append([]string{}, cmd.Env...)
			args = append(args, cmd.Name)
			cmds[i] = Command{Name: "sudo", Args: append(args, cmd.Args...)}
		}
	}

	return Plan{Commands: cmds}, nil
}

var goversion = regexp.MustCompile(`\bgo(\d+\.\d+(?:\.\d+)?)\b`)

// ParseVersion extracts the semantic version from `go version` output,
// e.g. "go version go1.22.3 linux/amd64" returns "v1.22.3".
// Pre-release toolchains like go1.23rc1 are not recognised.
func ParseVersion(output string) (string, bool) {
	match := goversion.FindStringSubmatch(output)
	if match == nil {
		return "", false
	}

	version := "v" + match[1]
	if !semver.IsValid(version) {
		return "", false
	}
	return version, true
}

// AtLeast reports whether version have is the same or newer than min.
// Both accept an optional leading "v"; invalid versions never satisfy.
func AtLeast(have, min string) bool {
	have, min = canonical(have), canonical(min)
	if !semver.IsValid(have) || !semver.IsValid(min) {
		return false
	}
	return semver.Compare(have, min) >= 0
}

func canonical(version string) string {
	version = strings.TrimPrefix(strings.TrimSpace(version), "go")
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	return version
}
