package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/warp/roster-engine/generic"
	"github.com/warp/roster-engine/generic/store/storetest"
)

func TestMemoryRepository(t *testing.T) {
	suite.Run(t, &storetest.RepositorySuite{
		NewRepo: func(t *testing.T) generic.TxRepository { return NewMemory() },
	})
}

func TestMemory_Reset(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.SaveStore(ctx, generic.Store{ID: "S", CycleAnchor: generic.NewDate(2024, time.January, 1)}))

	require.NoError(t, m.Reset(ctx))

	stores, err := m.ListStores(ctx)
	require.NoError(t, err)
	assert.Empty(t, stores)
}

func TestMemory_WithTxSnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.SaveStore(ctx, generic.Store{ID: "S", Name: "before"}))

	// WHEN: a transaction renames the store and then fails
	_ = m.WithTx(ctx, func(r generic.Repository) error {
		require.NoError(t, r.SaveStore(ctx, generic.Store{ID: "S", Name: "after"}))
		return generic.ErrConcurrentModification
	})

	// THEN: the rename is rolled back
	st, err := m.GetStore(ctx, "S")
	require.NoError(t, err)
	assert.Equal(t, "before", st.Name)
}
