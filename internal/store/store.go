// Package store persists validated intake rows to PostgreSQL.
//
// Each import is one transaction: an intake_uploads record is written, then
// every row is bulk copied into the schema's table tagged with the upload id.
// Any failure rolls the whole import back.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/csvintake/internal/core"
)

// DB is the subset of *pgxpool.Pool the importer needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ErrUnknownSchema is returned for a schema key with no copy target.
var ErrUnknownSchema = errors.New("no table for schema")

// ErrNotImportable is returned when the report did not succeed.
var ErrNotImportable = errors.New("report is not importable")

// Result describes a completed import.
type Result struct {
	UploadID uuid.UUID `json:"upload_id"`
	Table    string    `json:"table"`
	Rows     int64     `json:"rows"`
}

// Importer copies validated rows into PostgreSQL.
type Importer struct {
	db     DB
	now    func() time.Time
	newID  func() uuid.UUID
	logger *slog.Logger
}

// NewImporter creates an importer backed by db.
func NewImporter(db DB, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		db:     db,
		now:    time.Now,
		newID:  uuid.New,
		logger: logger,
	}
}

// EnsureSchema creates the intake tables if they do not exist.
func (i *Importer) EnsureSchema(ctx context.Context) error {
	for _, stmt := range DDL {
		if _, err := i.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Import copies the data of a successful report into the table for
// schemaKey. fileName is recorded with the upload.
func (i *Importer) Import(ctx context.Context, schemaKey, fileName string, report core.Report) (Result, error) {
	target, ok := TargetFor(schemaKey)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownSchema, schemaKey)
	}
	if !report.Success {
		return Result{}, ErrNotImportable
	}

	id := i.newID()
	uploadID := pgUUID(id)
	rows := report.Data

	tx, err := i.db.Begin(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO intake_uploads (id, schema_key, file_name, row_count, uploaded_at) VALUES ($1, $2, $3, $4, $5)`,
		uploadID, schemaKey, fileName, len(rows), pgTimestamptz(i.now()),
	)
	if err != nil {
		return Result{}, fmt.Errorf("record upload: %w", err)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{target.Table}, target.Columns,
		pgx.CopyFromSlice(len(rows), func(idx int) ([]any, error) {
			return target.convert(rows[idx], uploadID)
		}),
	)
	if err != nil {
		return Result{}, fmt.Errorf("copy into %s: %w", target.Table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Result{}, fmt.Errorf("commit: %w", err)
	}

	i.logger.Info("import complete", "schema", schemaKey, "table", target.Table, "rows", n, "upload_id", id)
	return Result{UploadID: id, Table: target.Table, Rows: n}, nil
}
