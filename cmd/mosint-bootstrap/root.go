package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	bootstrap "github.com/aexvir/mosint-bootstrap"
	"github.com/aexvir/mosint-bootstrap/config"
	"github.com/aexvir/mosint-bootstrap/logging"
)

// newBootstrapper is replaced in tests.
var newBootstrapper = bootstrap.New

var (
	verbosity  int
	unattended bool
	cfgFile    string

	rootCmd = &cobra.Command{
		Use:   "mosint-bootstrap",
		Short: "Install mosint and everything it needs",
		Long: `mosint-bootstrap installs the mosint email OSINT tool.

It checks whether mosint is already installed, verifies internet access,
installs the go toolchain with the system package manager when missing,
builds mosint with go install and checks that the result runs.`,
		Args: cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("command started")
		},
		RunE:          runBootstrap,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().BoolVarP(&unattended, "unattended", "y", false, "Don't ask before installing the go toolchain")
	rootCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "YAML file overriding the install settings")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	env := bootstrap.ProcessEnv()
	if env.Home == "" {
		return fail(errors.New("unable to determine the home directory"))
	}

	cfg, err := config.Load(cfgFile, env.Home)
	if err != nil {
		return fail(err)
	}

	if unattended {
		cfg.Unattended = true
	}

	if !cfg.Unattended && !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		log.Warn().Msg("stdin is not a terminal; pass -y to skip the installation prompt")
	}

	bs, err := newBootstrapper(*cfg, bootstrap.WithEnv(env))
	if err != nil {
		return fail(err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	// failures are reported by the bootstrapper itself
	return bs.Run(ctx)
}

func fail(err error) error {
	color.Red(" ✘ %s\n", err.Error())
	return err
}
