package checkpoint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	state := &CheckpointState{
		ConfigHash:   "abc123",
		DatabaseName: "mydb",
		StartedAt:    time.Now().Truncate(time.Second),
		Status:       RunInProgress,
		Tables: []TableCheckpoint{
			{TableName: "users", Status: TableInProgress, TotalRows: 100, ProcessedRows: 40},
		},
	}

	require.NoError(t, store.Save(state))

	loaded, found, err := store.Load("abc123")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, state.DatabaseName, loaded.DatabaseName)
	assert.Equal(t, state.Tables[0].ProcessedRows, loaded.Tables[0].ProcessedRows)
}

func TestStore_LoadMissingReturnsNotFound(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	loaded, found, err := store.Load("does-not-exist")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, loaded)
}

func TestStore_ClearRemovesCheckpoint(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	state := &CheckpointState{ConfigHash: "hash1"}
	require.NoError(t, store.Save(state))

	require.NoError(t, store.Clear("hash1"))

	_, found, err := store.Load("hash1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_ClearMissingIsNotAnError(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, store.Clear("never-existed"))
}

func TestCheckpointState_RecomputeSumsTableProgress(t *testing.T) {
	state := &CheckpointState{
		Tables: []TableCheckpoint{
			{TableName: "a", ProcessedRows: 10},
			{TableName: "b", ProcessedRows: 25},
		},
	}
	state.Recompute()
	assert.Equal(t, int64(35), state.TotalRowsProcessed)
}

func TestCheckpointState_FindTable(t *testing.T) {
	state := &CheckpointState{
		Tables: []TableCheckpoint{{TableName: "users"}, {TableName: "orders"}},
	}

	found := state.FindTable("orders")
	require.NotNil(t, found)
	assert.Equal(t, "orders", found.TableName)

	assert.Nil(t, state.FindTable("missing"))
}
