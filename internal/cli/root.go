// Package cli implements the agectl command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flancast90/agegraph-go"
	"github.com/flancast90/agegraph-go/internal/config"
	"github.com/flancast90/agegraph-go/internal/logging"
)

// errUnhealthy is the cancellation cause when the health monitor gives up.
var errUnhealthy = errors.New("database unhealthy")

type app struct {
	envFile string
	debug   bool

	out    io.Writer
	cfg    *config.Config
	log    *zap.Logger
	client *agegraph.Client

	connect     func(ctx context.Context, opts *agegraph.Options) (*agegraph.Client, error)
	onUnhealthy func(error)
}

// Main runs agectl with args and returns the process exit code.
//
// SIGINT and SIGTERM cancel the running command. The pool is drained and the
// exit code is 0. If the health monitor gives up the exit code is 1.
func Main(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	a := &app{
		out:     stdout,
		connect: agegraph.Connect,
		onUnhealthy: func(err error) {
			cancel(fmt.Errorf("%w: %v", errUnhealthy, err))
		},
	}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	a.close()

	code := exitCode(ctx, err)
	if code != 0 {
		if cause := context.Cause(ctx); errors.Is(cause, errUnhealthy) {
			err = cause
		}
		fmt.Fprintln(stderr, "Error:", err)
	}
	return code
}

func exitCode(ctx context.Context, err error) int {
	if errors.Is(context.Cause(ctx), errUnhealthy) {
		return 1
	}
	if err == nil || ctx.Err() != nil {
		return 0
	}
	return 1
}

// NewRootCommand returns the agectl command tree. It is used by tests.
func NewRootCommand(out io.Writer) *cobra.Command {
	a := &app{out: out, connect: agegraph.Connect}
	return a.rootCommand()
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "agectl",
		Short: "Administer Apache AGE graphs",
		Long: `agectl manages Apache AGE graphs stored in PostgreSQL.

Connection settings are read from POSTGRES_* and DB_* environment variables,
optionally loaded from a .env file.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		a.initCommand(),
		a.graphCommand(),
		a.queryCommand(),
		a.seedCommand(),
		a.healthCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var files []string
	if a.envFile != "" {
		files = append(files, a.envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if a.debug {
		level = "debug"
	}
	log, err := logging.New(level, cfg.LogDevelopment)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	return nil
}

// open connects to the database on first use.
func (a *app) open(ctx context.Context) (*agegraph.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	opts := a.cfg.Options(a.log)
	opts.OnUnhealthy = a.onUnhealthy

	client, err := a.connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	a.client = client
	return client, nil
}

func (a *app) close() {
	if a.client != nil {
		if err := a.client.Close(); err != nil {
			a.log.Warn("failed to close client", zap.Error(err))
		}
		a.client = nil
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

func (a *app) initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Install and load the AGE extension",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := client.Initialize(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "AGE extension initialized")
			return nil
		},
	}
}
