package bootstrap

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aexvir/mosint-bootstrap/host"
	"github.com/aexvir/mosint-bootstrap/toolchain"
	"github.com/aexvir/mosint-bootstrap/userconfig"
)

const gotool = "go"

// CheckPresence stops the run if the target already resolves on the search path.
func (b *Bootstrapper) CheckPresence(_ context.Context, env *Env) error {
	logstep(fmt.Sprintf("looking for %s on the search path", b.cfg.Target.Binary))

	if path, ok := env.Lookup(b.cfg.Target.Binary); ok {
		logdetail(fmt.Sprintf("found %s", path))
		return errSatisfied
	}

	logdetail("not found, installing")
	return nil
}

// CheckConnectivity fails the run when the internet can't be reached.
func (b *Bootstrapper) CheckConnectivity(ctx context.Context, _ *Env) error {
	logstep("checking internet connectivity")

	res, err := b.prober.Reachable(ctx)

	log.Debug().
		Str("target", res.Target).
		Str("method", string(res.Method)).
		Bool("ok", res.OK).
		Dur("latency", res.Latency).
		Msg("connectivity probe")

	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoConnectivity, err)
	}

	logdetail(fmt.Sprintf("reached %s over %s in %s", res.Target, res.Method, res.Latency.Round(time.Millisecond)))
	return nil
}

// EnsureToolchain makes sure go is available, installing it with the host
// package manager when the operator agrees.
func (b *Bootstrapper) EnsureToolchain(ctx context.Context, env *Env) error {
	logstep("looking for the go toolchain")

	if path, ok := env.Lookup(gotool); ok {
		logdetail(fmt.Sprintf("found %s", path))
		b.gocmd = path
		b.checkToolchainVersion(ctx, env)
		return nil
	}

	logdetail(fmt.Sprintf("go not found; host detected as %s", b.host))

	plan, err := toolchain.PlanFor(b.host, b.elevate(env))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnsupportedHost, err)
	}

	if plan.Manual() {
		url := plan.ManualURL
		if b.cfg.Toolchain.DownloadURL != "" {
			url = b.cfg.Toolchain.DownloadURL
		}
		b.openBrowser(ctx, env, url)
		return fmt.Errorf("%w: download it from %s", ErrManualToolchainInstall, url)
	}

	if !b.prompter.YesNo("Go is not installed. Install it now?") {
		return ErrToolchainDeclined
	}

	for _, cmd := range plan.Commands {
		err := b.run(
			ctx,
			cmd.Name,
			WithArgs(cmd.Args...),
			WithEnviron(env),
			WithEnvVars(cmd.Env...),
			WithErrMsg(fmt.Sprintf("   • %s could not install go", cmd)),
		)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrToolchainMissing, err)
		}
	}

	path, ok := env.Lookup(gotool)
	if !ok {
		return fmt.Errorf("%w: go is still not on the search path", ErrToolchainMissing)
	}

	logdetail(fmt.Sprintf("installed %s", path))
	b.gocmd = path
	b.checkToolchainVersion(ctx, env)

	return nil
}

// elevate reports whether package managers need sudo.
func (b *Bootstrapper) elevate(env *Env) bool {
	if b.host == host.Windows || b.euid == 0 {
		return false
	}
	_, ok := env.Lookup("sudo")
	return ok
}

// checkToolchainVersion warns when go is older than the configured minimum.
// Not being able to tell the version is not a problem.
func (b *Bootstrapper) checkToolchainVersion(ctx context.Context, env *Env) {
	if b.cfg.Toolchain.MinVersion == "" {
		return
	}

	var out bytes.Buffer
	err := b.run(
		ctx,
		b.gocmd,
		WithArgs("version"),
		WithEnviron(env),
		// outside any module, so a toolchain directive can't switch versions
		WithDir(os.TempDir()),
		WithoutNoise(),
		WithStdOut(&out),
	)
	if err != nil {
		log.Debug().Err(err).Msg("unable to query go version")
		return
	}

	version, ok := toolchain.ParseVersion(out.String())
	if !ok {
		log.Debug().Str("output", out.String()).Msg("unrecognised go version output")
		return
	}

	if !toolchain.AtLeast(version, b.cfg.Toolchain.MinVersion) {
		logwarning(fmt.Sprintf(
			"go %s is older than %s; the installation may fail, consider upgrading from %s",
			version, b.cfg.Toolchain.MinVersion, b.cfg.Toolchain.DownloadURL,
		))
		return
	}

	logdetail(fmt.Sprintf("go %s", version))
}

func (b *Bootstrapper) openBrowser(ctx context.Context, env *Env, url string) {
	logdetail(fmt.Sprintf("opening %s", url))

	var name string
	var args []string
	switch env.GOOS {
	case "windows":
		name, args = "rundll32", []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		name, args = "open", []string{url}
	default:
		name, args = "xdg-open", []string{url}
	}

	// the url is printed either way, a missing browser is not fatal
	_ = b.run(ctx, name, WithArgs(args...), WithEnviron(env), WithoutNoise(), WithAllowErrors())
}

// PrepareInstallDir creates the install directory and warns if the search
// path doesn't include it. It never fails the run.
func (b *Bootstrapper) PrepareInstallDir(_ context.Context, env *Env) error {
	dir := b.cfg.Target.InstallDir
	logstep(fmt.Sprintf("preparing %s", dir))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		logwarning(fmt.Sprintf("unable to create %s: %s", dir, err))
	}

	if env.OnSearchPath(dir) {
		return nil
	}

	if env.GOOS == "windows" {
		env.AppendPath(dir)
		logwarning(fmt.Sprintf("%s is not in your PATH; it was added for this session only", dir))
		logdetail(fmt.Sprintf(`to make it permanent run: setx PATH "%%PATH%%;%s"`, dir))
		return nil
	}

	logwarning(fmt.Sprintf("%s is not in your PATH", dir))
	logdetail(fmt.Sprintf(`add this line to %s and open a new terminal: export PATH="$PATH:%s"`, shellProfile(env), dir))

	return nil
}

// shellProfile picks the startup file of the operator's shell.
func shellProfile(env *Env) string {
	switch filepath.Base(env.Get("SHELL")) {
	case "bash":
		return "~/.bashrc"
	case "zsh":
		return "~/.zshrc"
	case "fish":
		return "~/.config/fish/config.fish"
	default:
		return "~/.profile"
	}
}

// InstallPackage builds the target into the install directory with go install.
func (b *Bootstrapper) InstallPackage(ctx context.Context, env *Env) error {
	// go install places the binary in GOBIN
	env.Set("GOBIN", b.cfg.Target.InstallDir)

	bin, err := b.target()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPackageInstall, err)
	}

	if err := bin.Install(ctx, env.Environ()); err != nil {
		return fmt.Errorf("%w: %w", ErrPackageInstall, err)
	}

	return nil
}

// Verify checks the installed binary exists and reports its version.
func (b *Bootstrapper) Verify(ctx context.Context, env *Env) error {
	bin, err := b.target()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVerification, err)
	}

	logstep(fmt.Sprintf("verifying %s", bin.Path()))

	if err := bin.Verify(ctx, env.Environ()); err != nil {
		return fmt.Errorf("%w: %w", ErrVerification, err)
	}

	logdetail(fmt.Sprintf("%s is ready to use", bin.Name()))
	return nil
}

// SeedConfig writes the default mosint config unless one already exists.
func (b *Bootstrapper) SeedConfig(_ context.Context, env *Env) error {
	if !b.cfg.ShouldSeed(env.GOOS) {
		return nil
	}

	path := b.cfg.ConfigFile
	logstep(fmt.Sprintf("checking config file %s", path))

	created, err := userconfig.Seed(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfigSeed, err)
	}

	if !created {
		logdetail("config file already exists, leaving it untouched")
		return nil
	}

	logdetail("default config created; replace the placeholders with your api keys")
	return nil
}
