package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sergiofbsilva/fenixedu-spaces-migration/modules/spaces/domain"
)

func TestBatchExecutor_FailedBatchIsRolledBack(t *testing.T) {
	ctx := context.Background()
	store := newImportedStore(t)
	pub := &recordingPublisher{}
	r := NewSpaceReconstructor(store)

	descs := []SpaceDescriptor{
		typedDescriptor("A", nil, "Building", "Torre"),
		roomDescriptor("B", strPtr("A"), nil),
		roomDescriptor("C", strPtr("A"), nil),
		roomDescriptor("D", strPtr("A"), strPtr("9.9")),
		roomDescriptor("E", strPtr("A"), strPtr("1.1")),
	}
	summary, err := NewBatchExecutor(store, r, 2, pub).Run(ctx, descs)
	require.NoError(t, err)

	require.Equal(t, 3, summary.Batches)
	require.Equal(t, 2, summary.Committed)
	require.Equal(t, 3, summary.Spaces)
	require.Len(t, summary.Failed, 1)
	require.Equal(t, 1, summary.Failed[0].Index)
	require.Equal(t, "D", summary.Failed[0].XID)
	require.Equal(t, KindUnknownClassification, summary.Failed[0].Kind)

	for _, xid := range []string{"A", "B", "E"} {
		_, ok := r.SpaceFor(xid)
		require.True(t, ok, xid)
	}
	for _, xid := range []string{"C", "D"} {
		_, ok := r.SpaceFor(xid)
		require.False(t, ok, xid)
	}

	require.NoError(t, store.View(ctx, func(v domain.View) error {
		require.Len(t, v.Spaces(), 3)
		_, ok := v.SpaceByLegacyXID("C")
		require.False(t, ok)
		e, ok := v.SpaceByLegacyXID("E")
		require.True(t, ok)
		a, _ := v.SpaceByLegacyXID("A")
		require.Equal(t, a.ID, e.ParentID)
		return nil
	}))

	require.Equal(t, 3, pub.count(func(e any) bool { _, ok := e.(*SpaceCreated); return ok }))
	require.Equal(t, 2, pub.count(func(e any) bool { _, ok := e.(*BatchCommitted); return ok }))
	require.Equal(t, 1, pub.count(func(e any) bool { _, ok := e.(*BatchFailed); return ok }))
}

func TestBatchExecutor_ParentsCreatedWithinChildBatch(t *testing.T) {
	ctx := context.Background()
	store := newImportedStore(t)
	r := NewSpaceReconstructor(store)

	descs := []SpaceDescriptor{
		roomDescriptor("child", strPtr("floor"), nil),
		typedDescriptor("campus", nil, "Campus", "Alameda"),
		typedDescriptor("floor", strPtr("campus"), "Floor", "0"),
	}
	summary, err := NewBatchExecutor(store, r, 1, nil).Run(ctx, descs)
	require.NoError(t, err)
	require.Empty(t, summary.Failed)
	require.Equal(t, 3, summary.Batches)
	require.Equal(t, 3, summary.Spaces)

	child, _ := r.SpaceFor("child")
	floor, _ := r.SpaceFor("floor")
	campus, _ := r.SpaceFor("campus")
	require.Equal(t, floor.ID, child.ParentID)
	require.Equal(t, campus.ID, floor.ParentID)
}

func TestBatchExecutor_Cancelled(t *testing.T) {
	store := newImportedStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := NewBatchExecutor(store, NewSpaceReconstructor(store), 10, nil).Run(ctx, []SpaceDescriptor{roomDescriptor("A", nil, nil)})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, summary.Batches)
}

func TestBatchExecutor_DefaultBatchSize(t *testing.T) {
	e := NewBatchExecutor(newImportedStore(t), nil, 0, nil)
	require.Equal(t, DefaultBatchSize, e.batchSize)
}
