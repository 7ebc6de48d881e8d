// internal/store/postgres.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"autoflow/internal/models"
)

// PostgresBackend persists the collection as one JSONB document per
// record, keyed by insertion position. Save still replaces the whole set
// in a single transaction: the store contract is whole-collection
// persistence regardless of backend.
type PostgresBackend struct {
	db *sql.DB
}

func NewPostgresBackend(db *sql.DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

// EnsureSchema creates the applications table if it is missing.
func (b *PostgresBackend) EnsureSchema(ctx context.Context) error {
	_, err := b.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS applications (
			position INTEGER PRIMARY KEY,
			id BIGINT NOT NULL,
			doc JSONB NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("ensure applications schema: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Load(ctx context.Context) ([]models.CreditApplication, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT doc FROM applications ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load applications: %w", err)
	}
	defer rows.Close()

	var apps []models.CreditApplication
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan application row: %w", err)
		}
		var app models.CreditApplication
		if err := json.Unmarshal(doc, &app); err != nil {
			return nil, fmt.Errorf("decode application document: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate application rows: %w", err)
	}
	return apps, nil
}

func (b *PostgresBackend) Save(ctx context.Context, apps []models.CreditApplication) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM applications`); err != nil {
		return fmt.Errorf("clear applications: %w", err)
	}

	for i, app := range apps {
		doc, err := json.Marshal(app)
		if err != nil {
			return fmt.Errorf("encode application %d: %w", app.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO applications (position, id, doc) VALUES ($1, $2, $3)`,
			i, app.ID, doc,
		); err != nil {
			return fmt.Errorf("insert application %d: %w", app.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}
