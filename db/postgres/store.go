// Package postgres provides the relational implementation of the feature
// store for deployments that already run Postgres.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"customer-segmentation/db/storage"
	"customer-segmentation/internal/assemble"
)

// Store implements storage.FeatureStore on Postgres.
type Store struct {
	db *sql.DB
}

// NewStore opens the connection from a DSN and ensures the schema exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS feature_snapshots (
			id            UUID PRIMARY KEY,
			source_file   TEXT NOT NULL,
			snapshot_date TIMESTAMPTZ NOT NULL,
			row_count     INTEGER NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS customer_features (
			snapshot_id UUID NOT NULL REFERENCES feature_snapshots(id),
			customer_id TEXT NOT NULL,
			%s,
			created_at  TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (snapshot_id, customer_id)
		)`, featureColumnDDL()),
	}
	for _, stmt := range ddl {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}

func featureColumnDDL() string {
	cols := make([]string, 0, len(assemble.FeatureColumns))
	for _, name := range assemble.FeatureColumns {
		cols = append(cols, fmt.Sprintf("%s DOUBLE PRECISION", columnName(name)))
	}
	return strings.Join(cols, ",\n\t\t\t")
}

// SaveSnapshot writes the run metadata and all feature rows in a single
// transaction: a run is either fully persisted or not at all.
func (s *Store) SaveSnapshot(ctx context.Context, snapshot *storage.Snapshot, table *assemble.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO feature_snapshots (id, source_file, snapshot_date, row_count, created_at) VALUES ($1, $2, $3, $4, $5)`,
		snapshot.ID, snapshot.SourceFile, snapshot.SnapshotDate, snapshot.RowCount, snapshot.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertFeaturesSQL())
	if err != nil {
		return fmt.Errorf("failed to prepare feature insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range table.Rows {
		args := make([]any, 0, len(row.Values)+3)
		args = append(args, snapshot.ID, row.CustomerID)
		for _, v := range row.Values {
			args = append(args, nullable(v))
		}
		args = append(args, snapshot.CreatedAt)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row for customer %s: %w", row.CustomerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit feature snapshot: %w", err)
	}
	return nil
}

func insertFeaturesSQL() string {
	cols := []string{"snapshot_id", "customer_id"}
	for _, name := range assemble.FeatureColumns {
		cols = append(cols, columnName(name))
	}
	cols = append(cols, "created_at")

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO customer_features (%s) VALUES (%s)",
		strings.Join(cols, ", "), strings.Join(placeholders, ", "))
}

// nullable maps non-finite cells to SQL NULL.
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// columnName converts a schema name like MeanInterpurchaseTime to
// mean_interpurchase_time.
func columnName(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) Close() error {
	return s.db.Close()
}
