// Package migrations applies the ledger database schema. Statements are
// idempotent so Apply is safe to run on every startup.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		account_nr         BIGSERIAL PRIMARY KEY,
		email              TEXT NOT NULL UNIQUE,
		date_joined        TIMESTAMPTZ NOT NULL,
		invested_sum_cents BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS stocks (
		stock_id BIGSERIAL PRIMARY KEY,
		symbol   TEXT NOT NULL UNIQUE,
		name     TEXT NOT NULL,
		industry TEXT NOT NULL DEFAULT '',
		sector   TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS trades (
		trade_id           BIGSERIAL PRIMARY KEY,
		stock_id           BIGINT NOT NULL REFERENCES stocks (stock_id) ON DELETE RESTRICT,
		price_bought_cents BIGINT NOT NULL,
		price_sold_cents   BIGINT NOT NULL DEFAULT 0,
		date_bought        TIMESTAMPTZ NOT NULL,
		date_sold          TIMESTAMPTZ NOT NULL DEFAULT 'epoch',
		amount             BIGINT NOT NULL,
		comment_bought     TEXT NOT NULL DEFAULT '',
		comment_sold       TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS deposits (
		account_nr BIGINT NOT NULL REFERENCES accounts (account_nr) ON DELETE CASCADE,
		date       TIMESTAMPTZ NOT NULL,
		sum_cents  BIGINT NOT NULL,
		PRIMARY KEY (account_nr, date)
	)`,
	`CREATE TABLE IF NOT EXISTS withdraws (
		account_nr BIGINT NOT NULL REFERENCES accounts (account_nr) ON DELETE CASCADE,
		date       TIMESTAMPTZ NOT NULL,
		sum_cents  BIGINT NOT NULL,
		PRIMARY KEY (account_nr, date)
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		user_id  BIGSERIAL PRIMARY KEY,
		name     TEXT NOT NULL DEFAULT '',
		auth0_id TEXT NOT NULL UNIQUE
	)`,
}

// Apply runs every schema statement in order.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
