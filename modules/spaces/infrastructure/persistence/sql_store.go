package persistence

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

var (
	sqlOpen = sql.Open
	migrate = runMigrations
)

// OverrideSQLOpen swaps the database/sql opener and returns a restore func. Tests only.
func OverrideSQLOpen(fn func(driverName, dsn string) (*sql.DB, error)) func() {
	prev := sqlOpen
	sqlOpen = fn
	return func() { sqlOpen = prev }
}

// SQLPersister stores each bucket of the snapshot as one JSON row of the
// spaces_state table.
type SQLPersister struct {
	db      *sql.DB
	dialect Dialect
	mu      sync.Mutex
}

var _ Persister = (*SQLPersister)(nil)

// NewSQLPersister wraps an already migrated database.
func NewSQLPersister(db *sql.DB, dialect Dialect) *SQLPersister {
	return &SQLPersister{db: db, dialect: dialect}
}

func OpenSQLite(ctx context.Context, path string) (*SQLPersister, error) {
	if path == "" {
		path = "spaces.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sqlOpen("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := migrate(ctx, db, DialectSQLite); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewSQLPersister(db, DialectSQLite), nil
}

func OpenPostgres(ctx context.Context, dsn string) (*SQLPersister, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn required")
	}
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := migrate(ctx, db, DialectPostgres); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewSQLPersister(db, DialectPostgres), nil
}

func runMigrations(ctx context.Context, db *sql.DB, dialect Dialect) error {
	sub, err := fs.Sub(migrationsFS, "migrations/"+string(dialect))
	if err != nil {
		return err
	}
	gooseDialect := goose.DialectSQLite3
	if dialect == DialectPostgres {
		gooseDialect = goose.DialectPostgres
	}
	provider, err := goose.NewProvider(gooseDialect, db, sub)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migrate %s: %w", dialect, err)
	}
	return nil
}

func (p *SQLPersister) Driver() string { return string(p.dialect) }

func (p *SQLPersister) Close() error { return p.db.Close() }

func (p *SQLPersister) DB() *sql.DB { return p.db }

func (p *SQLPersister) Load(ctx context.Context) (Snapshot, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT bucket, payload FROM spaces_state`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snap := newSnapshot()
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return Snapshot{}, fmt.Errorf("scan: %w", err)
		}
		target := snap.bucketTarget(bucket)
		if target == nil {
			continue
		}
		if err := json.Unmarshal(payload, target); err != nil {
			return Snapshot{}, fmt.Errorf("decode %s: %w", bucket, err)
		}
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, err
	}
	return snap.normalize(), nil
}

func (p *SQLPersister) upsertSQL() string {
	if p.dialect == DialectPostgres {
		return `INSERT INTO spaces_state (bucket, payload) VALUES ($1, $2::jsonb)
ON CONFLICT (bucket) DO UPDATE SET payload = EXCLUDED.payload, updated_at = CURRENT_TIMESTAMP`
	}
	return `INSERT INTO spaces_state (bucket, payload) VALUES (?, ?)
ON CONFLICT (bucket) DO UPDATE SET payload = excluded.payload, updated_at = CURRENT_TIMESTAMP`
}

func (p *SQLPersister) Persist(ctx context.Context, snapshot Snapshot, buckets []string) (retErr error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	query := p.upsertSQL()
	for _, bucket := range buckets {
		data, err := json.Marshal(snapshot.bucket(bucket))
		if err != nil {
			return fmt.Errorf("encode %s: %w", bucket, err)
		}
		var payload any = data
		if p.dialect == DialectPostgres {
			payload = string(data)
		}
		if _, err := tx.ExecContext(ctx, query, bucket, payload); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	return tx.Commit()
}
