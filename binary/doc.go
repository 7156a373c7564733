// Package binary provisions the binary the bootstrap is responsible for
// and checks the result.
//
// A [Binary] is a description of the command name, the directory it is
// installed into, the requested version and an origin pointing at where to
// obtain it from.
//
// Origins implement the logic needed to provision the binary. The only origin
// implemented is [GoBinary], which provisions binaries by running
// `go install` with GOBIN pointed at the binary directory. If any other source
// is needed, a new origin can be implemented by just fulfilling the [Origin]
// interface.
//
// example usage
//
//	mosint, err := binary.New(
//		"mosint",                 // name the binary will have after installation
//		"/home/me/go/bin",        // where it gets installed
//		"latest",                 // version that will be installed
//		binary.GoBinary("github.com/alpkeskin/mosint/v3/cmd/mosint"),
//	)
//
//	if err := mosint.Install(ctx, os.Environ()); err != nil {
//		return fmt.Errorf("failed to install mosint: %w", err)
//	}
//
//	// file exists and `mosint --version` exits cleanly
//	if err := mosint.Verify(ctx, os.Environ()); err != nil {
//		return fmt.Errorf("mosint installation is broken: %w", err)
//	}
package binary
