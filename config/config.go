// Package config loads the bootstrap settings.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// MOSINT_BOOTSTRAP_* environment variables. Nested keys are separated by a
// double underscore in variable names, e.g. MOSINT_BOOTSTRAP_PROBE__URL.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"

	"github.com/aexvir/mosint-bootstrap/netcheck"
	"github.com/aexvir/mosint-bootstrap/toolchain"
	"github.com/aexvir/mosint-bootstrap/userconfig"
)

const EnvPrefix = "MOSINT_BOOTSTRAP_"

// Seeding modes for the user config file.
const (
	SeedAuto   = "auto"
	SeedAlways = "always"
	SeedNever  = "never"
)

// Config holds everything the bootstrapper needs to know about what to install.
type Config struct {
	Target    Target    `koanf:"target"`
	Probe     Probe     `koanf:"probe"`
	Toolchain Toolchain `koanf:"toolchain"`

	// ConfigFile is the mosint config seeded after installation.
	// Defaults to ~/.mosint.yaml.
	ConfigFile string `koanf:"config_file"`
	// SeedConfig is one of auto, always or never; auto seeds only on windows.
	SeedConfig string `koanf:"seed_config"`

	Unattended bool `koanf:"unattended"`
}

// Target describes the binary being installed.
type Target struct {
	Binary      string `koanf:"binary"`
	Package     string `koanf:"package"`
	Version     string `koanf:"version"`
	VersionFlag string `koanf:"version_flag"`
	// InstallDir defaults to ~/go/bin.
	InstallDir string `koanf:"install_dir"`
}

// Probe configures the connectivity check.
type Probe struct {
	URL     string        `koanf:"url"`
	Address string        `koanf:"address"`
	Timeout time.Duration `koanf:"timeout"`
}

// Toolchain configures the go toolchain requirements.
type Toolchain struct {
	MinVersion  string `koanf:"min_version"`
	DownloadURL string `koanf:"download_url"`
}

func defaults() map[string]any {
	return map[string]any{
		"target.binary":          "mosint",
		"target.package":         "github.com/alpkeskin/mosint/v3/cmd/mosint",
		"target.version":         "latest",
		"target.version_flag":    "--version",
		"target.install_dir":     "",
		"probe.url":              netcheck.DefaultURL,
		"probe.address":          netcheck.DefaultAddress,
		"probe.timeout":          netcheck.DefaultTimeout.String(),
		"toolchain.min_version":  "1.21",
		"toolchain.download_url": toolchain.DownloadURL,
		"config_file":            "",
		"seed_config":            SeedAuto,
		"unattended":             false,
	}
}

// Load reads the configuration. path may be empty, in which case only the
// defaults and environment are used; a path that doesn't exist is an error.
// Relative install and config paths are resolved against home.
func Load(path, home string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	cfg.resolve(home)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) resolve(home string) {
	if c.Target.InstallDir == "" {
		c.Target.InstallDir = filepath.Join(home, "go", "bin")
	} else if !filepath.IsAbs(c.Target.InstallDir) {
		c.Target.InstallDir = filepath.Join(home, c.Target.InstallDir)
	}

	if c.ConfigFile == "" {
		c.ConfigFile = userconfig.DefaultPath(home)
	} else if !filepath.IsAbs(c.ConfigFile) {
		c.ConfigFile = filepath.Join(home, c.ConfigFile)
	}

	c.SeedConfig = strings.ToLower(strings.TrimSpace(c.SeedConfig))
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	var errs []error

	if c.Target.Binary == "" {
		errs = append(errs, errors.New("target binary must be set"))
	}

	if err := module.CheckImportPath(c.Target.Package); err != nil {
		errs = append(errs, fmt.Errorf("invalid target package: %w", err))
	}

	if c.Target.Version != "latest" && !semver.IsValid(c.Target.Version) {
		errs = append(errs, fmt.Errorf("invalid target version %q: expected latest or a semantic version", c.Target.Version))
	}

	if c.Probe.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("probe timeout must be positive, got %s", c.Probe.Timeout))
	}

	switch c.SeedConfig {
	case SeedAuto, SeedAlways, SeedNever:
	default:
		errs = append(errs, fmt.Errorf("invalid seed_config %q: expected auto, always or never", c.SeedConfig))
	}

	return errors.Join(errs...)
}

// ShouldSeed reports whether the mosint config is seeded on goos.
func (c *Config) ShouldSeed(goos string) bool {
	switch c.SeedConfig {
	case SeedAlways:
		return true
	case SeedNever:
		return false
	default:
		return goos == "windows"
	}
}
