package netcheck

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReachable(t *testing.T) {
	t.Run("http success skips ping", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodHead, r.Method)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		pinged := false
		prober := New(
			WithURL(srv.URL),
			WithPinger(func(context.Context, string, time.Duration) error {
				pinged = true
				return nil
			}),
		)

		res, err := prober.Reachable(context.Background())
		require.NoError(t, err)
		assert.True(t, res.OK)
		assert.Equal(t, MethodHTTP, res.Method)
		assert.False(t, pinged)
	})

	t.Run("redirect counts as reachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "https://elsewhere.invalid/", http.StatusMovedPermanently)
		}))
		defer srv.Close()

		prober := New(
			WithURL(srv.URL),
			WithPinger(func(context.Context, string, time.Duration) error {
				return errors.New("should not be called")
			}),
		)

		res, err := prober.Reachable(context.Background())
		require.NoError(t, err)
		assert.Equal(t, MethodHTTP, res.Method)
	})

	t.Run("server error falls back to ping", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		var target string
		prober := New(
			WithURL(srv.URL),
			WithAddress("1.1.1.1"),
			WithPinger(func(_ context.Context, address string, _ time.Duration) error {
				target = address
				return nil
			}),
		)

		res, err := prober.Reachable(context.Background())
		require.NoError(t, err)
		assert.True(t, res.OK)
		assert.Equal(t, MethodICMP, res.Method)
		assert.Equal(t, "1.1.1.1", target)
	})

	t.Run("both probes failing is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		prober := New(
			WithURL(srv.URL),
			WithPinger(func(context.Context, string, time.Duration) error {
				return errors.New("100% packet loss")
			}),
		)

		res, err := prober.Reachable(context.Background())
		require.Error(t, err)
		assert.False(t, res.OK)
		assert.Contains(t, err.Error(), "http404")
		assert.Contains(t, err.Error(), "100% packet loss")
	})

	t.Run("slow endpoint times out", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		prober := New(
			WithURL(srv.URL),
			WithTimeout(50*time.Millisecond),
			WithPinger(func(context.Context, string, time.Duration) error {
				return errors.New("unreachable")
			}),
		)

		_, err := prober.Reachable(context.Background())
		assert.Error(t, err)
	})
}

func TestPingArgs(t *testing.T) {
	assert.Equal(t, []string{"-c", "1", "-W", "2", "8.8.8.8"}, PingArgs("linux", "8.8.8.8", 2*time.Second))
	assert.Equal(t, []string{"-c", "1", "-W", "1", "8.8.8.8"}, PingArgs("linux", "8.8.8.8", 100*time.Millisecond))
	assert.Equal(t, []string{"-n", "1", "-w", "2000", "8.8.8.8"}, PingArgs("windows", "8.8.8.8", 2*time.Second))
	assert.Equal(t, []string{"-c", "1", "-W", "2000", "8.8.8.8"}, PingArgs("darwin", "8.8.8.8", 2*time.Second))
}

func TestSystemPinger(t *testing.T) {
	t.Run("ping missing from the search path", func(t *testing.T) {
		looked := ""
		ping := SystemPinger("linux", func(name string) (string, bool) {
			looked = name
			return "", false
		}, nil)

		err := ping(context.Background(), DefaultAddress, time.Second)
		assert.ErrorIs(t, err, exec.ErrNotFound)
		assert.Equal(t, "ping", looked)
	})

	t.Run("runs the resolved command", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("uses a shell script as ping")
		}

		dir := t.TempDir()
		out := filepath.Join(dir, "args")
		script := filepath.Join(dir, "ping")
		body := "#!/bin/sh\necho \"$MARKER $@\" > " + out + "\n"
		require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

		ping := SystemPinger("linux", func(string) (string, bool) {
			return script, true
		}, []string{"MARKER=env"})

		require.NoError(t, ping(context.Background(), "192.0.2.1", 2*time.Second))

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, "env -c 1 -W 2 192.0.2.1\n", string(data))
	})

	t.Run("failing command", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("uses a shell script as ping")
		}

		script := filepath.Join(t.TempDir(), "ping")
		require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexit 1\n"), 0o755))

		ping := SystemPinger("linux", func(string) (string, bool) {
			return script, true
		}, nil)

		assert.ErrorContains(t, ping(context.Background(), "192.0.2.1", time.Second), "ping 192.0.2.1")
	})
}
