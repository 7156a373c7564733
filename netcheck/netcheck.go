// Package netcheck verifies that the machine can reach the internet before
// any long running installation is attempted.
//
// An HTTPS HEAD request is tried first; when it fails a single ICMP echo is
// sent through the system ping command, which covers networks where one of
// the two is filtered.
package netcheck

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"runtime"
	"strconv"
	"time"
)

const (
	DefaultURL     = "https://www.google.com"
	DefaultAddress = "8.8.8.8"
	DefaultTimeout = 5 * time.Second
)

// Method identifies which probe produced a result.
type Method string

const (
	MethodHTTP Method = "http"
	MethodICMP Method = "icmp"
)

// Result captures the outcome of a connectivity probe.
type Result struct {
	Target  string
	Method  Method
	OK      bool
	Latency time.Duration
	Err     error
}

// HTTPClient is the subset of [http.Client] used by the prober.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Pinger sends a single echo request to address, failing after timeout.
type Pinger func(ctx context.Context, address string, timeout time.Duration) error

// Prober checks internet reachability.
type Prober struct {
	url     string
	address string
	timeout time.Duration

	client HTTPClient
	ping   Pinger
}

type Option func(p *Prober)

// WithURL sets the endpoint targeted by the HEAD request.
func WithURL(url string) Option {
	return func(p *Prober) {
		if url != "" {
			p.url = url
		}
	}
}

// WithAddress sets the address targeted by the ICMP fallback.
func WithAddress(address string) Option {
	return func(p *Prober) {
		if address != "" {
			p.address = address
		}
	}
}

// WithTimeout bounds each of the probes.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Prober) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// WithHTTPClient replaces the client used for the HEAD request.
func WithHTTPClient(client HTTPClient) Option {
	return func(p *Prober) {
		if client != nil {
			p.client = client
		}
	}
}

// WithPinger replaces the ICMP fallback implementation.
func WithPinger(ping Pinger) Option {
	return func(p *Prober) {
		if ping != nil {
			p.ping = ping
		}
	}
}

// New constructs a prober with the default endpoints.
func New(opts ...Option) *Prober {
	p := Prober{
		url:     DefaultURL,
		address: DefaultAddress,
		timeout: DefaultTimeout,
		client: &http.Client{
			// a redirect is already proof of connectivity
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		ping: SystemPinger(runtime.GOOS, lookPath, nil),
	}

	for _, opt := range opts {
		opt(&p)
	}

	return &p
}

// Reachable probes over HTTP and falls back to ICMP.
// The returned result belongs to the last probe attempted; the error is
// non-nil only when both probes failed.
func (p *Prober) Reachable(ctx context.Context) (Result, error) {
	res := p.head(ctx)
	if res.OK {
		return res, nil
	}

	fallback := p.echo(ctx)
	if fallback.OK {
		return fallback, nil
	}

	return fallback, fmt.Errorf("%s: %v; %s: %v", res.Target, res.Err, fallback.Target, fallback.Err)
}

func (p *Prober) head(ctx context.Context) (res Result) {
	res = Result{Target: p.url, Method: MethodHTTP}

	start := time.Now()
	defer func() { res.Latency = time.Since(start) }()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		res.Err = fmt.Errorf("failed to build request: %w", err)
		return res
	}

	resp, err := p.client.Do(req)
	if err != nil {
		res.Err = err
		return res
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		res.Err = fmt.Errorf("unexpected response: http%d", resp.StatusCode)
		return res
	}

	res.OK = true
	return res
}

func (p *Prober) echo(ctx context.Context) (res Result) {
	res = Result{Target: p.address, Method: MethodICMP}

	start := time.Now()
	defer func() { res.Latency = time.Since(start) }()

	if p.ping == nil {
		res.Err = errors.New("no pinger configured")
		return res
	}

	if err := p.ping(ctx, p.address, p.timeout); err != nil {
		res.Err = err
		return res
	}

	res.OK = true
	return res
}

// LookupFunc resolves an executable name to its path.
type LookupFunc func(name string) (string, bool)

// SystemPinger returns a [Pinger] running the ping command of goos.
// ping is resolved with lookup and runs with environ; a nil environ means the
// process environment.
func SystemPinger(goos string, lookup LookupFunc, environ []string) Pinger {
	return func(ctx context.Context, address string, timeout time.Duration) error {
		path, ok := lookup("ping")
		if !ok {
			return fmt.Errorf("ping: %w", exec.ErrNotFound)
		}

		// leave the command some room over its own deadline
		ctx, cancel := context.WithTimeout(ctx, timeout+time.Second)
		defer cancel()

		cmd := exec.CommandContext(ctx, path, PingArgs(goos, address, timeout)...)
		cmd.Env = environ
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("ping %s: %w", address, err)
		}
		return nil
	}
}

func lookPath(name string) (string, bool) {
	path, err := exec.LookPath(name)
	return path, err == nil
}

// PingArgs builds the arguments for a single ping on goos.
func PingArgs(goos, address string, timeout time.Duration) []string {
	switch goos {
	case "windows":
		return []string{"-n", "1", "-w", strconv.FormatInt(timeout.Milliseconds(), 10), address}
	case "darwin":
		// -W is in milliseconds on darwin
		return []string{"-c", "1", "-W", strconv.FormatInt(timeout.Milliseconds(), 10), address}
	default:
		seconds := int(timeout.Round(time.Second).Seconds())
		if seconds < 1 {
			seconds = 1
		}
		return []string{"-c", "1", "-W", strconv.Itoa(seconds), address}
	}
}
