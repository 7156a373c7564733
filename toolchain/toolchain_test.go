package toolchain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aexvir/mosint-bootstrap/host"
)

func TestPlanFor(t *testing.T) {
	t.Run("debian uses apt non interactively", func(t *testing.T) {
		plan, err := PlanFor(host.Debian, false)
		require.NoError(t, err)
		require.False(t, plan.Manual())
		require.Len(t, plan.Commands, 2)

		assert.Equal(t, "apt-get update", plan.Commands[0].String())
		assert.Equal(t, "apt-get install -y golang-go", plan.Commands[1].String())
		assert.Contains(t, plan.Commands[1].Env, "DEBIAN_FRONTEND=noninteractive")
	})

	t.Run("ubuntu shares the apt strategy", func(t *testing.T) {
		debian, err := PlanFor(host.Debian, false)
		require.NoError(t, err)
		ubuntu, err := PlanFor(host.Ubuntu, false)
		require.NoError(t, err)

		assert.Equal(t, debian, ubuntu)
	})

	t.Run("redhat uses yum", func(t *testing.T) {
		plan, err := PlanFor(host.RedHat, false)
		require.NoError(t, err)
		require.Len(t, plan.Commands, 1)
		assert.Equal(t, "yum install -y golang", plan.Commands[0].String())
	})

	t.Run("arch uses pacman", func(t *testing.T) {
		plan, err := PlanFor(host.Arch, false)
		require.NoError(t, err)
		require.Len(t, plan.Commands, 1)
		assert.Equal(t, "pacman -Sy --noconfirm go", plan.Commands[0].String())
	})

	t.Run("elevated commands go through sudo", func(t *testing.T) {
		plan, err := PlanFor(host.Debian, true)
		require.NoError(t, err)
		require.Len(t, plan.Commands, 2)

		install := plan.Commands[1]
		assert.Equal(t, "sudo", install.Name)
		assert.Equal(t, []string{"DEBIAN_FRONTEND=noninteractive", "apt-get", "install", "-y", "golang-go"}, install.Args)
		assert.Empty(t, install.Env)
	})

	t.Run("windows requires manual install", func(t *testing.T) {
		plan, err := PlanFor(host.Windows, true)
		require.NoError(t, err)
		assert.True(t, plan.Manual())
		assert.Equal(t, DownloadURL, plan.ManualURL)
		assert.Empty(t, plan.Commands)
	})

	t.Run("unsupported host", func(t *testing.T) {
		_, err := PlanFor(host.Unsupported, false)
		assert.ErrorIs(t, err, ErrUnsupported)
	})
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		output   string
		expected string
		ok       bool
	}{
		{"go version go1.22.3 linux/amd64", "v1.22.3", true},
		{"go version go1.21 windows/amd64\n", "v1.21", true},
		{"go version go1.23rc1 linux/arm64", "", false},
		{"command not found", "", false},
	}

	for _, test := range tests {
		t.Run(test.output, func(t *testing.T) {
			version, ok := ParseVersion(test.output)
			assert.Equal(t, test.ok, ok)
			assert.Equal(t, test.expected, version)
		})
	}
}

func TestAtLeast(t *testing.T) {
	assert.True(t, AtLeast("v1.22.3", "1.21"))
	assert.True(t, AtLeast("v1.21", "v1.21.0"))
	assert.True(t, AtLeast("go1.24.0", "1.21"))
	assert.False(t, AtLeast("v1.19.8", "1.21"))
	assert.False(t, AtLeast("garbage", "1.21"))
}
