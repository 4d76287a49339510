// Package clickhouse provides the ClickHouse implementation of the feature
// store. Columnar layout suits the downstream analytics queries over large
// customer universes.
package clickhouse

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"customer-segmentation/db/storage"
	"customer-segmentation/internal/assemble"
	"customer-segmentation/pkg/platform"
)

// Config holds ClickHouse connection configuration.
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Debug    bool
}

// DefaultConfig returns configuration from the environment with development
// fallbacks.
func DefaultConfig() *Config {
	return &Config{
		Host:     platform.GetEnv("CLICKHOUSE_HOST", "localhost"),
		Port:     platform.GetEnvInt("CLICKHOUSE_PORT", 9000),
		Database: platform.GetEnv("CLICKHOUSE_DATABASE", "segmentation"),
		Username: platform.GetEnv("CLICKHOUSE_USER", "default"),
		Password: platform.GetEnv("CLICKHOUSE_PASSWORD", ""),
		Debug:    platform.GetEnvBool("CLICKHOUSE_DEBUG", false),
	}
}

// Store implements storage.FeatureStore on ClickHouse.
type Store struct {
	conn clickhouse.Conn
}

// NewStore connects and ensures the schema exists.
func NewStore(ctx context.Context, cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug:       cfg.Debug,
		DialTimeout: 10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse ping failed: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS feature_snapshots (
			id            UUID,
			source_file   String,
			snapshot_date DateTime,
			row_count     UInt32,
			created_at    DateTime
		) ENGINE = MergeTree() ORDER BY (created_at, id)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS customer_features (
			snapshot_id UUID,
			customer_id String,
			%s,
			created_at  DateTime
		) ENGINE = MergeTree() ORDER BY (snapshot_id, customer_id)`, featureColumnDDL()),
	}
	for _, stmt := range ddl {
		if err := s.conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}

// featureColumnDDL renders the schema columns as Nullable(Float64): NaN and
// Inf cells are stored as NULL.
func featureColumnDDL() string {
	cols := make([]string, 0, len(assemble.FeatureColumns))
	for _, name := range assemble.FeatureColumns {
		cols = append(cols, fmt.Sprintf("%s Nullable(Float64)", columnName(name)))
	}
	return strings.Join(cols, ",\n\t\t\t")
}

// SaveSnapshot persists the run metadata and the full feature table in one
// batch per table.
func (s *Store) SaveSnapshot(ctx context.Context, snapshot *storage.Snapshot, table *assemble.Table) error {
	if err := s.conn.Exec(ctx,
		`INSERT INTO feature_snapshots (id, source_file, snapshot_date, row_count, created_at) VALUES (?, ?, ?, ?, ?)`,
		snapshot.ID, snapshot.SourceFile, snapshot.SnapshotDate, uint32(snapshot.RowCount), snapshot.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	batch, err := s.conn.PrepareBatch(ctx, insertFeaturesSQL())
	if err != nil {
		return fmt.Errorf("failed to prepare feature batch: %w", err)
	}
	for _, row := range table.Rows {
		args := make([]any, 0, len(row.Values)+3)
		args = append(args, snapshot.ID, row.CustomerID)
		for _, v := range row.Values {
			args = append(args, nullable(v))
		}
		args = append(args, snapshot.CreatedAt)
		if err := batch.Append(args...); err != nil {
			return fmt.Errorf("failed to append row for customer %s: %w", row.CustomerID, err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send feature batch: %w", err)
	}
	return nil
}

func insertFeaturesSQL() string {
	cols := []string{"snapshot_id", "customer_id"}
	for _, name := range assemble.FeatureColumns {
		cols = append(cols, columnName(name))
	}
	cols = append(cols, "created_at")
	return fmt.Sprintf("INSERT INTO customer_features (%s)", strings.Join(cols, ", "))
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
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
	return s.conn.Close()
}
