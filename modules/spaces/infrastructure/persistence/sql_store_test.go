package persistence

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/domain"
)

func TestSQLite_RoundTripAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "spaces.db")

	s, err := OpenStore(ctx, Config{Driver: "sqlite", SQLitePath: path})
	require.NoError(t, err)
	require.Equal(t, "sqlite", s.Driver())
	c := seedClassification(t, s)
	require.NoError(t, s.RunInTransaction(ctx, func(_ context.Context, tx domain.Tx) error {
		_, err := tx.CreateSpace(domain.Space{
			LegacyXID:    "281",
			Type:         domain.SpaceTypeRoom,
			Informations: []domain.Information{{ClassificationID: c.ID, Name: "0.18"}},
		})
		return err
	}))
	require.NoError(t, s.Close())

	reopened, err := OpenStore(ctx, Config{Driver: "sqlite", SQLitePath: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	require.NoError(t, reopened.View(ctx, func(v domain.View) error {
		sp, ok := v.SpaceByLegacyXID("281")
		require.True(t, ok)
		require.Equal(t, "0.18", sp.Informations[0].Name)
		got, ok := v.ClassificationByAbsoluteCode("3.6")
		require.True(t, ok)
		require.Equal(t, c.ID, got.ID)
		return nil
	}))
}

func TestSQLite_MigrationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "spaces.db")
	for i := 0; i < 2; i++ {
		p, err := OpenSQLite(ctx, path)
		require.NoError(t, err)
		snap, err := p.Load(ctx)
		require.NoError(t, err)
		require.Empty(t, snap.Spaces)
		require.NoError(t, p.Close())
	}
}

func TestPostgresPersister_Persist(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	p := NewSQLPersister(db, DialectPostgres)
	snap := newSnapshot()
	snap.Bridges["b1"] = domain.Bridge{ID: "b1", Kind: domain.BridgeLesson, AllocationXID: "al-1"}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO spaces_state (bucket, payload) VALUES ($1, $2::jsonb)")).
		WithArgs(BucketBridges, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, p.Persist(context.Background(), snap, []string{BucketBridges}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPersister_PersistRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	p := NewSQLPersister(db, DialectPostgres)
	mock.ExpectBegin()
	lost := errors.New("connection reset")
	mock.ExpectExec("INSERT INTO spaces_state").WillReturnError(lost)
	mock.ExpectRollback()

	err = p.Persist(context.Background(), newSnapshot(), []string{BucketSpaces, BucketBridges})
	require.ErrorIs(t, err, lost)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPersister_Load(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows := sqlmock.NewRows([]string{"bucket", "payload"}).
		AddRow(BucketGroups, []byte(`{"g1":{"xid":"g1","kind":"custom"}}`)).
		AddRow("unknown_bucket", []byte(`{}`))
	mock.ExpectQuery("SELECT bucket, payload FROM spaces_state").WillReturnRows(rows)

	snap, err := NewSQLPersister(db, DialectPostgres).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.GroupKindCustom, snap.Groups["g1"].Kind)
	require.NotNil(t, snap.Spaces)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenPostgres_RunsMigrations(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing()
	mock.ExpectClose()

	restore := OverrideSQLOpen(func(driver, dsn string) (*sql.DB, error) {
		require.Equal(t, "pgx", driver)
		require.Contains(t, dsn, "dbname=fenix_spaces")
		return db, nil
	})
	t.Cleanup(restore)

	var migrated Dialect
	prevMigrate := migrate
	migrate = func(_ context.Context, _ *sql.DB, d Dialect) error {
		migrated = d
		return nil
	}
	t.Cleanup(func() { migrate = prevMigrate })

	p, err := OpenPostgres(context.Background(), "host=localhost dbname=fenix_spaces")
	require.NoError(t, err)
	require.Equal(t, DialectPostgres, migrated)
	require.Equal(t, "postgres", p.Driver())
	require.NoError(t, p.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), Config{Driver: "redis"})
	require.Error(t, err)

	s, err := OpenStore(context.Background(), Config{})
	require.NoError(t, err)
	require.Equal(t, "memory", s.Driver())
}
