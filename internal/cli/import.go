package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvintake/internal/config"
	"github.com/JonMunkholm/csvintake/internal/core"
	"github.com/JonMunkholm/csvintake/internal/schema"
	"github.com/JonMunkholm/csvintake/internal/store"
)

// importReport is the report printed by import, with the copy result once
// rows were written.
type importReport struct {
	core.Report
	Import *store.Result `json:"import"`
}

func (a *App) importCommand() *cobra.Command {
	var ensureSchema bool

	cmd := &cobra.Command{
		Use:   "import <schema> <file>",
		Short: "Validate a file and copy its rows into PostgreSQL",
		Long: "Validate a file and, only when the report succeeds, copy every valid row\n" +
			"into PostgreSQL in one transaction. Requires DATABASE_URL.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return a.usageFailure("Usage: csvintake import <schema> <file>")
			}
			if _, ok := schema.Get(args[0]); !ok {
				return a.usageFailure(fmt.Sprintf("Unknown schema '%s'. Available schemas: %s", args[0], joinKeys()))
			}
			return a.runImport(cmd.Context(), args[0], args[1], ensureSchema)
		},
	}
	cmd.Flags().BoolVar(&ensureSchema, "ensure-schema", false, "Create the intake tables if they do not exist")
	return cmd
}

// runImport exits 1 when the file is not importable or the database fails;
// the report is printed either way.
func (a *App) runImport(ctx context.Context, key, path string, ensureSchema bool) error {
	dbCfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}

	report, err := a.parse(key, path)
	if err != nil {
		return err
	}
	if !report.Success {
		if err := a.writeReport(importReport{Report: report}); err != nil {
			return err
		}
		return errExit1
	}

	ctx, cancel := context.WithTimeout(ctx, dbCfg.ImportTimeout)
	defer cancel()

	db, closeDB, err := a.Connect(ctx, dbCfg)
	if err != nil {
		return err
	}
	defer closeDB()

	importer := store.NewImporter(db, a.logger)
	if ensureSchema {
		if err := importer.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	result, err := importer.Import(ctx, key, filepath.Base(path), report)
	if err != nil {
		return err
	}
	return a.writeReport(importReport{Report: report, Import: &result})
}
