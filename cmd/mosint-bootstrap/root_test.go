package main

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bootstrap "github.com/aexvir/mosint-bootstrap"
	"github.com/aexvir/mosint-bootstrap/config"
)

func TestRootFlags(t *testing.T) {
	flags := rootCmd.Flags()

	unattendedFlag := flags.ShorthandLookup("y")
	require.NotNil(t, unattendedFlag)
	assert.Equal(t, "unattended", unattendedFlag.Name)

	configFlag := flags.ShorthandLookup("c")
	require.NotNil(t, configFlag)
	assert.Equal(t, "config", configFlag.Name)

	verboseFlag := rootCmd.PersistentFlags().ShorthandLookup("v")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "verbose", verboseFlag.Name)
}

func TestRootRejectsArguments(t *testing.T) {
	assert.Error(t, rootCmd.Args(rootCmd, []string{"extra"}))
	assert.NoError(t, rootCmd.Args(rootCmd, nil))
}

type sandbox struct {
	home  string
	state string
	path  string
}

// isolate points home, state and search path at empty temp dirs and resets
// the flag variables between runs of the shared root command.
func isolate(t *testing.T) sandbox {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("home directory is read from USERPROFILE on windows")
	}

	sb := sandbox{home: t.TempDir(), state: t.TempDir(), path: t.TempDir()}

	t.Setenv("HOME", sb.home)
	t.Setenv("XDG_STATE_HOME", sb.state)
	t.Setenv("PATH", sb.path)
	xdg.Reload()

	logger, level := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = logger
		zerolog.SetGlobalLevel(level)
		xdg.Reload()

		verbosity, unattended, cfgFile = 0, false, ""
		rootCmd.SetArgs([]string{})
		newBootstrapper = bootstrap.New
	})

	verbosity, unattended, cfgFile = 0, false, ""

	return sb
}

// capture replaces the bootstrapper with one that records its configuration
// and stops the run.
func capture(t *testing.T) *config.Config {
	t.Helper()

	var got config.Config
	newBootstrapper = func(cfg config.Config, _ ...bootstrap.Option) (*bootstrap.Bootstrapper, error) {
		got = cfg
		return nil, errStopped
	}
	return &got
}

var errStopped = errors.New("stopped before running")

func TestNoConnectivityLeavesNoTrace(t *testing.T) {
	sb := isolate(t)
	t.Setenv("MOSINT_BOOTSTRAP_PROBE__URL", "http://127.0.0.1:1")
	t.Setenv("MOSINT_BOOTSTRAP_PROBE__ADDRESS", "192.0.2.1")
	t.Setenv("MOSINT_BOOTSTRAP_PROBE__TIMEOUT", "500ms")

	rootCmd.SetArgs([]string{"-y"})
	err := Execute()
	require.Error(t, err, "a fatal run exits non zero")
	assert.ErrorIs(t, err, bootstrap.ErrNoConnectivity)

	for _, dir := range []string{sb.home, sb.state, sb.path} {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries, "nothing written to %s", dir)
	}
}

func TestUnattendedFlag(t *testing.T) {
	t.Run("set by -y", func(t *testing.T) {
		isolate(t)
		got := capture(t)

		rootCmd.SetArgs([]string{"-y"})
		assert.ErrorIs(t, Execute(), errStopped)
		assert.True(t, got.Unattended)
	})

	t.Run("off by default", func(t *testing.T) {
		isolate(t)
		got := capture(t)

		rootCmd.SetArgs([]string{})
		assert.ErrorIs(t, Execute(), errStopped)
		assert.False(t, got.Unattended)
	})

	t.Run("set through the environment", func(t *testing.T) {
		isolate(t)
		t.Setenv("MOSINT_BOOTSTRAP_UNATTENDED", "true")
		got := capture(t)

		rootCmd.SetArgs([]string{})
		assert.ErrorIs(t, Execute(), errStopped)
		assert.True(t, got.Unattended)
	})
}

func TestConfigFileOverrides(t *testing.T) {
	sb := isolate(t)
	got := capture(t)

	path := filepath.Join(sb.home, "bootstrap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("target:\n  version: v3.0.0\n  install_dir: bin\n"), 0o644))

	rootCmd.SetArgs([]string{"-y", "-c", path})
	assert.ErrorIs(t, Execute(), errStopped)

	assert.Equal(t, "v3.0.0", got.Target.Version)
	assert.Equal(t, filepath.Join(sb.home, "bin"), got.Target.InstallDir)
	assert.Equal(t, filepath.Join(sb.home, ".mosint.yaml"), got.ConfigFile)
}

func TestConfigErrorsFailTheRun(t *testing.T) {
	t.Run("missing config file", func(t *testing.T) {
		sb := isolate(t)
		called := false
		newBootstrapper = func(config.Config, ...bootstrap.Option) (*bootstrap.Bootstrapper, error) {
			called = true
			return nil, errStopped
		}

		rootCmd.SetArgs([]string{"-c", filepath.Join(sb.home, "missing.yaml")})
		err := Execute()
		require.Error(t, err)
		assert.ErrorContains(t, err, "missing.yaml")
		assert.False(t, called)
	})

	t.Run("invalid environment override", func(t *testing.T) {
		isolate(t)
		t.Setenv("MOSINT_BOOTSTRAP_SEED_CONFIG", "sometimes")
		capture(t)

		rootCmd.SetArgs([]string{"-y"})
		err := Execute()
		require.Error(t, err)
		assert.ErrorContains(t, err, "seed_config")
		assert.NotErrorIs(t, err, errStopped)
	})
}
