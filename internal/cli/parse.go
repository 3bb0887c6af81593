package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvintake/internal/core"
	"github.com/JonMunkholm/csvintake/internal/schema"
)

func (a *App) transactionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "transactions <csv_file_path>",
		Short: "Validate a financial transactions file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return a.usageFailure("Usage: csvintake transactions <csv_file_path>")
			}
			return a.parseFile(schema.Transactions, args[0])
		},
	}
}

// contactsCommand validates the first argument; further arguments are ignored.
func (a *App) contactsCommand(key, short string) *cobra.Command {
	return &cobra.Command{
		Use:   key + " <csv_file_path>",
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return a.usageFailure("No file path provided")
			}
			return a.parseFile(key, args[0])
		},
	}
}

func (a *App) parseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <schema> <file>",
		Short: "Validate a file against any registered schema",
		Long:  "Validate a file against any registered schema.\n\nSchemas: " + joinKeys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return a.usageFailure("Usage: csvintake parse <schema> <file>")
			}
			if _, ok := schema.Get(args[0]); !ok {
				return a.usageFailure(fmt.Sprintf("Unknown schema '%s'. Available schemas: %s", args[0], joinKeys()))
			}
			return a.parseFile(args[0], args[1])
		},
	}
}

// parseFile prints the report for path. Validation outcomes never change the
// exit status.
func (a *App) parseFile(key, path string) error {
	report, err := a.parse(key, path)
	if err != nil {
		return err
	}
	return a.writeReport(report)
}

func (a *App) parse(key, path string) (core.Report, error) {
	s, ok := schema.Get(key)
	if !ok {
		return core.Report{}, fmt.Errorf("schema %q is not registered", key)
	}
	return core.NewParser(s, core.WithLogger(a.logger)).ParseFile(path), nil
}

func joinKeys() string {
	return strings.Join(schema.Keys(), ", ")
}
