package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/warp/roster-engine/generic"
	"github.com/warp/roster-engine/generic/store/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteRepository(t *testing.T) {
	suite.Run(t, &storetest.RepositorySuite{
		NewRepo: func(t *testing.T) generic.TxRepository { return newTestStore(t) },
	})
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.SaveStore(ctx, generic.Store{ID: "S", Name: "S", CycleAnchor: generic.NewDate(2024, time.January, 1)}))
	require.NoError(t, s.SaveEmployee(ctx, generic.Employee{ID: "e", Name: "E", Active: true, Stores: []generic.StoreID{"S"}}))

	require.NoError(t, s.Reset(ctx))

	stores, err := s.ListStores(ctx)
	require.NoError(t, err)
	assert.Empty(t, stores)
	_, err = s.GetEmployee(ctx, "e")
	assert.ErrorIs(t, err, generic.ErrNotFound)
}

func TestPersistsAcrossReopen(t *testing.T) {
	// GIVEN: a file database with one store
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "roster.db")
	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveStore(ctx, generic.Store{ID: "S", Name: "S", CycleAnchor: generic.NewDate(2024, time.January, 1), CycleLengthWeeks: 3}))
	require.NoError(t, s.Close())

	// WHEN: reopening it (migrations run again)
	s, err = New(path)
	require.NoError(t, err)
	defer s.Close()

	// THEN: the data is still there
	st, err := s.GetStore(ctx, "S")
	require.NoError(t, err)
	assert.Equal(t, 3, st.CycleLengthWeeks)
}

func TestTimeLayoutSortsLexically(t *testing.T) {
	early := time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)
	late := early.Add(1500 * time.Millisecond)
	assert.Less(t, formatTime(early), formatTime(late))
	var tp timeParser
	assert.True(t, tp.parse("at", formatTime(late)).Equal(late))
	require.NoError(t, tp.err)

	sydney, err := time.LoadLocation("Australia/Sydney")
	require.NoError(t, err)
	assert.Equal(t, formatTime(early), formatTime(early.In(sydney)))
}

func TestCorruptTimestampIsReported(t *testing.T) {
	// GIVEN: an activity whose creation time was overwritten with garbage
	s := newTestStore(t)
	ctx := context.Background()
	login := time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveStore(ctx, generic.Store{ID: "S", Name: "S", CycleAnchor: generic.NewDate(2024, time.January, 1), CycleLengthWeeks: 1}))
	require.NoError(t, s.InsertActivity(ctx, generic.ActivityRecord{
		ID: "act-1", StoreID: "S", EmployeeID: "emp-1", LoginAt: login, CreatedAt: login,
	}))
	_, err := s.db.ExecContext(ctx, `UPDATE activity_records SET created_at = 'garbage' WHERE id = ?`, "act-1")
	require.NoError(t, err)

	// WHEN: reading it back
	_, getErr := s.GetActivity(ctx, "act-1")
	_, listErr := s.ListActivities(ctx, "S", login.Add(-time.Hour), login.Add(time.Hour))

	// THEN: both reads fail and name the column instead of returning a zero time
	require.Error(t, getErr)
	assert.Contains(t, getErr.Error(), "created_at")
	assert.Contains(t, getErr.Error(), "act-1")
	require.Error(t, listErr)
	assert.Contains(t, listErr.Error(), "created_at")
}
