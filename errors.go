package bootstrap

import "errors"

var (
	ErrNoConnectivity         = errors.New("no internet connectivity")
	ErrUnsupportedHost        = errors.New("unsupported operating system")
	ErrToolchainDeclined      = errors.New("go toolchain installation declined")
	ErrManualToolchainInstall = errors.New("go toolchain must be installed manually")
	ErrToolchainMissing       = errors.New("go toolchain not available after installation")
	ErrPackageInstall         = errors.New("package installation failed")
	ErrVerification           = errors.New("installation could not be verified")
	ErrConfigSeed             = errors.New("failed to create default config")
)

// errSatisfied ends a run early without anything left to do.
var errSatisfied = errors.New("already installed")

// Hint returns the remediation for a failed run, or an empty string when
// there is nothing more specific to say than the error itself.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrNoConnectivity):
		return "check your network connection or proxy settings and run the bootstrap again"
	case errors.Is(err, ErrUnsupportedHost):
		return "install go manually from https://go.dev/dl/ and run the bootstrap again"
	case errors.Is(err, ErrToolchainDeclined):
		return "go is required to build the tool; install it yourself or rerun and accept the installation"
	case errors.Is(err, ErrManualToolchainInstall):
		return "install go from https://go.dev/dl/, open a new terminal and run the bootstrap again"
	case errors.Is(err, ErrToolchainMissing):
		return "manual intervention required: install go with your package manager and make sure it is on your PATH"
	case errors.Is(err, ErrPackageInstall):
		return "check the go install output above; proxy or GOPROXY settings are the usual suspects"
	case errors.Is(err, ErrVerification):
		return "manual intervention required: the tool was installed but doesn't run, try reinstalling it with go install"
	case errors.Is(err, ErrConfigSeed):
		return "the tool is installed; create the config file yourself with your api keys"
	default:
		return ""
	}
}
