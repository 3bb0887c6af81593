package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/csvintake/internal/core"
	"github.com/JonMunkholm/csvintake/internal/schema"
)

// Target describes where one schema's normalized rows are copied.
type Target struct {
	Table   string
	Columns []string // Schema field columns followed by upload_id
	convert func(row core.NormalizedRow, uploadID pgtype.UUID) ([]any, error)
}

var targets = map[string]Target{
	schema.Transactions: {
		Table:   "financial_transactions",
		Columns: []string{"description", "bank", "amount", "type", "transaction_date", "upload_id"},
		convert: transactionValues,
	},
	schema.Clients: {
		Table:   "clients",
		Columns: contactColumns,
		convert: contactValues,
	},
	schema.Customers: {
		Table:   "customers",
		Columns: contactColumns,
		convert: contactValues,
	},
}

var contactColumns = []string{"establishment_name", "employer_name", "email_id", "mobile_number", "upload_id"}

// TargetFor returns the copy target for a schema key.
func TargetFor(key string) (Target, bool) {
	t, ok := targets[key]
	return t, ok
}

// DDL creates the intake tables when absent.
var DDL = []string{
	`CREATE TABLE IF NOT EXISTS intake_uploads (
		id          UUID PRIMARY KEY,
		schema_key  TEXT NOT NULL,
		file_name   TEXT NOT NULL,
		row_count   INTEGER NOT NULL,
		uploaded_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS financial_transactions (
		id               BIGSERIAL PRIMARY KEY,
		description      TEXT NOT NULL,
		bank             TEXT NOT NULL,
		amount           NUMERIC NOT NULL CHECK (amount >= 0),
		type             TEXT NOT NULL CHECK (type IN ('Credit', 'Debit')),
		transaction_date DATE NOT NULL,
		upload_id        UUID NOT NULL REFERENCES intake_uploads(id)
	)`,
	`CREATE TABLE IF NOT EXISTS clients (
		id                 BIGSERIAL PRIMARY KEY,
		establishment_name TEXT NOT NULL,
		employer_name      TEXT NOT NULL,
		email_id           TEXT NOT NULL,
		mobile_number      TEXT NOT NULL,
		upload_id          UUID NOT NULL REFERENCES intake_uploads(id)
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id                 BIGSERIAL PRIMARY KEY,
		establishment_name TEXT NOT NULL,
		employer_name      TEXT NOT NULL,
		email_id           TEXT NOT NULL,
		mobile_number      TEXT NOT NULL,
		upload_id          UUID NOT NULL REFERENCES intake_uploads(id)
	)`,
}

func transactionValues(row core.NormalizedRow, uploadID pgtype.UUID) ([]any, error) {
	var amount pgtype.Numeric
	if err := amount.Scan(row["amount"]); err != nil {
		return nil, fmt.Errorf("amount %q: %w", row["amount"], err)
	}

	t, ok := core.ParseISODate(row["transaction_date"])
	if !ok {
		return nil, fmt.Errorf("transaction_date %q: not a calendar date", row["transaction_date"])
	}

	return []any{
		row["description"],
		row["bank"],
		amount,
		row["type"],
		pgtype.Date{Time: t, Valid: true},
		uploadID,
	}, nil
}

func contactValues(row core.NormalizedRow, uploadID pgtype.UUID) ([]any, error) {
	return []any{
		row["establishment_name"],
		row["employer_name"],
		row["email_id"],
		row["mobile_number"],
		uploadID,
	}, nil
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func pgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
