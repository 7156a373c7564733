package binary

import "io"

type Option func(b *Binary)

// WithVersionFlag sets the flag passed to the binary during verification.
// Defaults to --version.
func WithVersionFlag(flag string) Option {
	return func(b *Binary) {
		if flag != "" {
			b.versionflag = flag
		}
	}
}

// WithGOOS overrides the operating system the binary is installed for,
// which decides the file extension.
func WithGOOS(goos string) Option {
	return func(b *Binary) {
		b.spec.GOOS = goos
	}
}

// WithOutput sets where the output of the verification command is written.
func WithOutput(w io.Writer) Option {
	return func(b *Binary) {
		if w != nil {
			b.out = w
		}
	}
}

// WithToolchain sets the go executable origins build with.
func WithToolchain(path string) Option {
	return func(b *Binary) {
		b.toolchain = path
	}
}
