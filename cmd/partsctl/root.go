package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"

	"gestorpecas/internal/apierror"
	"gestorpecas/internal/app"
	"gestorpecas/internal/config"

	"github.com/spf13/cobra"
)

const (
	exitOK        = 0
	exitPermanent = 2
	exitRetryable = 3
)

// cli carries what the commands share. The application is opened lazily so
// that help and usage errors never touch the database.
type cli struct {
	cfg     *config.Config
	open    func(cfg *config.Config) (*app.App, error)
	migrate func(dsn string) error

	app     *app.App
	started bool
}

func (c *cli) services() (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	a, err := c.open(c.cfg)
	if err != nil {
		return nil, apierror.Storage(err)
	}
	c.app = a
	return a, nil
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "partsctl",
		Short:         "Automotive parts catalog, stock ledger and kits",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// cobra checks required flags only after this hook
			if err := cmd.ValidateRequiredFlags(); err != nil {
				return apierror.New(apierror.KindValidation, "%v", err)
			}
			c.started = true
			return nil
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return apierror.New(apierror.KindValidation, "%v", err)
	})

	root.AddCommand(
		newMigrateCmd(c),
		newManufacturerCmd(c),
		newModelCmd(c),
		newPartCmd(c),
		newStockCmd(c),
		newKitCmd(c),
	)
	return root
}

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.migrate(c.cfg.DatabaseURL); err != nil {
				return apierror.Storage(err)
			}
			return printJSON(cmd, map[string]string{"status": "migrated"})
		},
	}
}

// run executes one command line and maps the outcome to an exit code:
// permanent failures exit 2, retryable storage failures exit 3.
func run(ctx context.Context, c *cli, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(c)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var domainErr *apierror.Error
	if !c.started && !errors.As(err, &domainErr) {
		// unknown command or similar, rejected before any command ran
		err = apierror.New(apierror.KindValidation, "%v", err)
	}

	env := apierror.Envelope(err)
	enc := json.NewEncoder(stderr)
	enc.SetIndent("", "  ")
	_ = enc.Encode(env)
	if env.Retryable {
		return exitRetryable
	}
	return exitPermanent
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return apierror.New(apierror.KindValidation, "%s takes %d argument(s), got %d", cmd.CommandPath(), n, len(args))
		}
		return nil
	}
}

func parseID(name, s string) (uint, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, apierror.NewValidation(map[string]string{name: "positive integer"})
	}
	return uint(n), nil
}

func parseInt(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, apierror.NewValidation(map[string]string{name: "integer"})
	}
	return n, nil
}
