package persistence

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/domain"
	"github.com/sergiofbsilva/fenixedu-spaces-migration/pkg/intl"
)

func sequentialIDs() Option {
	n := 0
	return WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})
}

func seedClassification(t *testing.T, s *Store) domain.Classification {
	t.Helper()
	var out domain.Classification
	err := s.RunInTransaction(context.Background(), func(_ context.Context, tx domain.Tx) error {
		root, err := tx.CreateClassification(domain.Classification{Code: "3", Name: intl.NewLocalizedString().With(intl.PT, "Apoio")})
		if err != nil {
			return err
		}
		out, err = tx.CreateClassification(domain.Classification{Code: "6", ParentID: root.ID})
		return err
	})
	require.NoError(t, err)
	return out
}

func TestStore_CommitAndRollback(t *testing.T) {
	s := NewMemoryStore(sequentialIDs())
	ctx := context.Background()
	c := seedClassification(t, s)
	require.Equal(t, "3.6", c.AbsoluteCode)

	boom := errors.New("boom")
	err := s.RunInTransaction(ctx, func(_ context.Context, tx domain.Tx) error {
		if _, err := tx.CreateSpace(domain.Space{LegacyXID: "A", Type: domain.SpaceTypeRoom}); err != nil {
			return err
		}
		_, ok := tx.SpaceByLegacyXID("A")
		require.True(t, ok)
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, s.View(ctx, func(v domain.View) error {
		_, ok := v.SpaceByLegacyXID("A")
		require.False(t, ok)
		got, ok := v.ClassificationByAbsoluteCode("3.6")
		require.True(t, ok)
		require.Equal(t, c.ID, got.ID)
		require.Len(t, v.RootClassifications(), 1)
		return nil
	}))
}

func TestStore_NestedTransactionJoins(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	err := s.RunInTransaction(ctx, func(ctx context.Context, outer domain.Tx) error {
		if _, err := outer.CreateSpace(domain.Space{LegacyXID: "A", Type: domain.SpaceTypeCampus}); err != nil {
			return err
		}
		return s.RunInTransaction(ctx, func(_ context.Context, inner domain.Tx) error {
			parent, ok := inner.SpaceByLegacyXID("A")
			require.True(t, ok)
			_, err := inner.CreateSpace(domain.Space{LegacyXID: "B", ParentID: parent.ID, Type: domain.SpaceTypeBuilding})
			return err
		})
	})
	require.NoError(t, err)

	snap := s.ExportState()
	require.Len(t, snap.Spaces, 2)
}

func TestStore_ReadOnlyRejectedInsideWriteTransaction(t *testing.T) {
	s := NewMemoryStore()
	err := s.RunInTransaction(context.Background(), func(ctx context.Context, _ domain.Tx) error {
		return s.ReadOnly(ctx, func(context.Context) error {
			t.Error("should not run")
			return nil
		})
	})
	require.ErrorIs(t, err, domain.ErrReadOnly)
}

func TestStore_ReadOnlyBatches(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	err := s.ReadOnly(ctx, func(ctx context.Context) error {
		require.NoError(t, s.RunInTransaction(ctx, func(_ context.Context, tx domain.Tx) error {
			_, err := tx.CreateSpace(domain.Space{LegacyXID: "A"})
			return err
		}))
		err := s.RunInTransaction(ctx, func(_ context.Context, tx domain.Tx) error {
			if _, err := tx.CreateSpace(domain.Space{LegacyXID: "B"}); err != nil {
				return err
			}
			return errors.New("second batch fails")
		})
		require.Error(t, err)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, s.View(ctx, func(v domain.View) error {
		_, okA := v.SpaceByLegacyXID("A")
		_, okB := v.SpaceByLegacyXID("B")
		require.True(t, okA)
		require.False(t, okB)
		return nil
	}))
}

func TestStore_Constraints(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	c := seedClassification(t, s)

	err := s.RunInTransaction(ctx, func(_ context.Context, tx domain.Tx) error {
		_, err := tx.CreateClassification(domain.Classification{Code: "3"})
		return err
	})
	require.ErrorIs(t, err, domain.ErrAlreadyExists)

	err = s.RunInTransaction(ctx, func(_ context.Context, tx domain.Tx) error {
		_, err := tx.CreateSpace(domain.Space{LegacyXID: "A", ParentID: "missing"})
		return err
	})
	require.ErrorIs(t, err, domain.ErrNotFound)

	err = s.RunInTransaction(ctx, func(_ context.Context, tx domain.Tx) error {
		_, err := tx.CreateSpace(domain.Space{
			LegacyXID:    "A",
			Informations: []domain.Information{{ClassificationID: "nope"}},
		})
		return err
	})
	require.ErrorIs(t, err, domain.ErrNotFound)

	err = s.RunInTransaction(ctx, func(_ context.Context, tx domain.Tx) error {
		sp, err := tx.CreateSpace(domain.Space{
			LegacyXID:    "A",
			Informations: []domain.Information{{ClassificationID: c.ID}},
		})
		if err != nil {
			return err
		}
		if _, err := tx.CreateBridge(domain.Bridge{Kind: domain.BridgeLesson, AllocationXID: "al-1", SpaceID: sp.ID}); err != nil {
			return err
		}
		_, err = tx.CreateBridge(domain.Bridge{Kind: domain.BridgeLesson, AllocationXID: "al-1"})
		return err
	})
	require.ErrorIs(t, err, domain.ErrAlreadyExists)
}

type failingPersister struct {
	calls int
}

func (f *failingPersister) Load(context.Context) (Snapshot, error) { return newSnapshot(), nil }
func (f *failingPersister) Persist(context.Context, Snapshot, []string) error {
	f.calls++
	return errors.New("disk full")
}
func (f *failingPersister) Driver() string { return "failing" }
func (f *failingPersister) Close() error   { return nil }

func TestStore_PersistFailureKeepsCommittedState(t *testing.T) {
	p := &failingPersister{}
	s, err := Open(context.Background(), p)
	require.NoError(t, err)

	err = s.RunInTransaction(context.Background(), func(_ context.Context, tx domain.Tx) error {
		_, err := tx.CreateSpace(domain.Space{LegacyXID: "A"})
		return err
	})
	require.ErrorContains(t, err, "disk full")
	require.Equal(t, 1, p.calls)
	require.Empty(t, s.ExportState().Spaces)

	require.NoError(t, s.RunInTransaction(context.Background(), func(context.Context, domain.Tx) error { return nil }))
	require.Equal(t, 1, p.calls, "empty transactions persist nothing")
}

func TestStore_ImportState(t *testing.T) {
	s := NewMemoryStore()
	snap := Snapshot{
		LegacySpaces: map[string]domain.LegacySpace{"281": {XID: "281", Type: domain.SpaceTypeRoom}},
		Groups:       map[string]domain.PersistentGroup{"g1": {XID: "g1", Kind: domain.GroupKindCustom}},
	}
	require.NoError(t, s.ImportState(context.Background(), snap))

	require.NoError(t, s.View(context.Background(), func(v domain.View) error {
		sp, ok := v.LegacySpace("281")
		require.True(t, ok)
		require.Equal(t, domain.SpaceTypeRoom, sp.Type)
		g, ok := v.PersistentGroup("g1")
		require.True(t, ok)
		require.True(t, g.Valid())
		require.Empty(t, v.Spaces())
		return nil
	}))
}
