package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrationError_Is(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("batch 3: %w", newMigrationError(KindUnknownClassification, "xid-1", "code doesnt exist: 9", cause))

	require.ErrorIs(t, err, ErrUnknownClassification)
	require.ErrorIs(t, err, &MigrationError{Kind: KindUnknownClassification, XID: "xid-1"})
	require.NotErrorIs(t, err, &MigrationError{Kind: KindUnknownClassification, XID: "xid-2"})
	require.NotErrorIs(t, err, ErrCyclicSpaceGraph)
	require.ErrorIs(t, err, cause)

	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, KindUnknownClassification, kind)
	require.Equal(t, "xid-1", XIDOf(err))
	require.Equal(t, "batch 3: UnknownClassification: code doesnt exist: 9 (xid xid-1): boom", err.Error())

	_, ok = KindOf(cause)
	require.False(t, ok)
	require.Empty(t, XIDOf(cause))
}
