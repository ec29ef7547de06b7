package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
)

// Each dialect's schema is a list of statements so that no driver needs
// multi-statement support. Payer shares must come after expenses and
// delivery records after device tokens because of their foreign keys.
// "groups" is reserved in MySQL 8, hence user_groups.
// device_tokens.seq orders registrations made within the same second.
var schemas = map[string][]string{
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			first_name TEXT NOT NULL DEFAULT '',
			registered INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_groups (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id TEXT PRIMARY KEY,
			group_id TEXT NOT NULL,
			creator_id TEXT NOT NULL,
			title TEXT NOT NULL,
			cost TEXT NOT NULL,
			due_date TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS payer_shares (
			expense_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			amount TEXT NOT NULL,
			paid INTEGER NOT NULL DEFAULT 0,
			paid_at INTEGER,
			PRIMARY KEY (expense_id, user_id),
			FOREIGN KEY (expense_id) REFERENCES expenses(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS device_tokens (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			token TEXT NOT NULL UNIQUE,
			created_at INTEGER NOT NULL,
			seq INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS delivery_records (
			id TEXT PRIMARY KEY,
			device_token_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			delivery_id TEXT NOT NULL,
			topic TEXT NOT NULL,
			group_id TEXT NOT NULL,
			expense_id TEXT,
			title TEXT NOT NULL,
			body TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			FOREIGN KEY (device_token_id) REFERENCES device_tokens(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_due_date ON expenses(due_date)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_group_id ON expenses(group_id)`,
		`CREATE INDEX IF NOT EXISTS idx_payer_shares_user_id ON payer_shares(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_device_tokens_user_id ON device_tokens(user_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_delivery_records_delivery_id ON delivery_records(delivery_id, user_id)`,
	},
	DriverMySQL: {
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(64) PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			first_name VARCHAR(255) NOT NULL DEFAULT '',
			registered BOOLEAN NOT NULL DEFAULT FALSE,
			created_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_groups (
			id VARCHAR(64) PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			created_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id VARCHAR(64) PRIMARY KEY,
			group_id VARCHAR(64) NOT NULL,
			creator_id VARCHAR(64) NOT NULL,
			title VARCHAR(255) NOT NULL,
			cost DECIMAL(14,2) NOT NULL,
			due_date DATE NULL,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL,
			INDEX idx_expenses_due_date (due_date),
			INDEX idx_expenses_group_id (group_id)
		)`,
		`CREATE TABLE IF NOT EXISTS payer_shares (
			expense_id VARCHAR(64) NOT NULL,
			user_id VARCHAR(64) NOT NULL,
			amount DECIMAL(14,2) NOT NULL,
			paid BOOLEAN NOT NULL DEFAULT FALSE,
			paid_at BIGINT NULL,
			PRIMARY KEY (expense_id, user_id),
			INDEX idx_payer_shares_user_id (user_id),
			FOREIGN KEY (expense_id) REFERENCES expenses(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS device_tokens (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			token VARCHAR(512) NOT NULL UNIQUE,
			created_at BIGINT NOT NULL,
			seq BIGINT NOT NULL DEFAULT 0,
			INDEX idx_device_tokens_user_id (user_id, created_at)
		)`,
		`CREATE TABLE IF NOT EXISTS delivery_records (
			id VARCHAR(64) PRIMARY KEY,
			device_token_id VARCHAR(64) NOT NULL,
			user_id VARCHAR(64) NOT NULL,
			delivery_id VARCHAR(255) NOT NULL,
			topic VARCHAR(32) NOT NULL,
			group_id VARCHAR(64) NOT NULL,
			expense_id VARCHAR(64) NULL,
			title VARCHAR(255) NOT NULL,
			body TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			INDEX idx_delivery_records_delivery_id (delivery_id, user_id),
			FOREIGN KEY (device_token_id) REFERENCES device_tokens(id) ON DELETE CASCADE
		)`,
	},
}

// runMigrations executes the schema setup for the given driver.
func runMigrations(ctx context.Context, db *sql.DB, driver string) error {
	statements, ok := schemas[driver]
	if !ok {
		return fmt.Errorf("no schema for driver %q", driver)
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
