// Package cli implements the csvintake command tree.
//
// Stdout carries exactly one machine-readable result per invocation (a JSON
// report, or the mail confirmation line); logs and diagnostics go to stderr.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvintake/internal/config"
	"github.com/JonMunkholm/csvintake/internal/core"
	"github.com/JonMunkholm/csvintake/internal/logging"
	"github.com/JonMunkholm/csvintake/internal/mailer"
	"github.com/JonMunkholm/csvintake/internal/store"
)

// exitError stops the command with a status code. Its output has already
// been written.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

var errExit1 = &exitError{code: 1}

// App holds the dependencies of one CLI invocation.
type App struct {
	Stdout io.Writer
	Stderr io.Writer

	// Connect opens the database used by import and serve.
	Connect func(ctx context.Context, cfg config.DatabaseConfig) (store.DB, func(), error)

	// NewSender builds the mail sender used by send-email.
	NewSender func(cfg config.MailConfig, tmpl mailer.Template, logger *slog.Logger) mailer.Sender

	logger *slog.Logger
}

// NewApp creates an App wired to PostgreSQL and the SMTP relay.
func NewApp(stdout, stderr io.Writer) *App {
	return &App{
		Stdout:    stdout,
		Stderr:    stderr,
		Connect:   connectPool,
		NewSender: newSMTPSender,
	}
}

// Run executes the command line args (without the program name) and returns
// the process exit status.
//
// Only logging is configured here. Each command loads the settings it needs,
// so the parse commands keep their JSON output whatever else is misconfigured.
func (a *App) Run(ctx context.Context, args []string) int {
	logCfg, err := config.LoadLogging()
	if err != nil {
		fmt.Fprintf(a.Stderr, "Warning: %v\nUsing default logging settings.\n", err)
	}
	a.logger = logging.Setup(a.Stderr, logCfg.Level, logCfg.Format)

	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(a.Stdout)
	root.SetErr(a.Stderr)

	err = root.ExecuteContext(ctx)
	var exit *exitError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &exit):
		return exit.code
	default:
		fmt.Fprintf(a.Stderr, "Error: %v\n", err)
		return 1
	}
}

func (a *App) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "csvintake",
		Short:         "Validate, normalize and import transaction and contact files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		a.transactionsCommand(),
		a.contactsCommand("clients", "Validate a client list"),
		a.contactsCommand("customers", "Validate a customer list"),
		a.parseCommand(),
		a.importCommand(),
		a.serveCommand(),
		a.sendEmailCommand(),
	)
	return root
}

// writeReport prints r as one JSON line on stdout.
func (a *App) writeReport(v any) error {
	enc := json.NewEncoder(a.Stdout)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// usageFailure prints a failure report carrying msg and exits 1.
func (a *App) usageFailure(msg string) error {
	if err := a.writeReport(core.FailureReport(errors.New(msg))); err != nil {
		return err
	}
	return errExit1
}

func connectPool(ctx context.Context, cfg config.DatabaseConfig) (store.DB, func(), error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, pool.Close, nil
}

func newSMTPSender(cfg config.MailConfig, tmpl mailer.Template, logger *slog.Logger) mailer.Sender {
	return mailer.NewSMTPSender(cfg, mailer.WithTemplate(tmpl), mailer.WithLogger(logger))
}
