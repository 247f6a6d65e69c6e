package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildr-dev/buildr/internal/collab"
	"github.com/buildr-dev/buildr/internal/types"
)

func openTestStore(t *testing.T) *ProjectStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "projects.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "projects.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestProjectStore_SaveAndLoad(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	snapshot := collab.Snapshot{
		ProjectID: "proj-1",
		Name:      "Portfolio",
		UserID:    "user-1",
		Components: []types.Component{
			{ID: "c1", Type: "hero", Props: map[string]any{"title": "Hi"}},
			{ID: "c2", Type: "footer"},
		},
	}
	require.NoError(t, s.SaveProject(ctx, snapshot))

	loaded, err := s.Load(ctx, "proj-1")
	require.NoError(t, err)
	assert.Equal(t, "proj-1", loaded.ID)
	assert.Equal(t, "Portfolio", loaded.Name)
	assert.Equal(t, "user-1", loaded.UserID)
	require.Len(t, loaded.Components, 2)
	assert.Equal(t, "hero", loaded.Components[0].Type)
	assert.Equal(t, "Hi", loaded.Components[0].Props["title"])
	assert.False(t, loaded.UpdatedAt.IsZero())
}

func TestProjectStore_SaveUpserts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveProject(ctx, collab.Snapshot{
		ProjectID: "proj-1", Name: "First", UserID: "user-1",
		Components: []types.Component{{ID: "c1", Type: "text"}},
	}))
	require.NoError(t, s.SaveProject(ctx, collab.Snapshot{
		ProjectID: "proj-1", Name: "Renamed", UserID: "user-1",
		Components: []types.Component{{ID: "c1", Type: "text"}, {ID: "c2", Type: "button"}},
	}))

	loaded, err := s.Load(ctx, "proj-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", loaded.Name)
	assert.Len(t, loaded.Components, 2)

	// The upsert never creates a second row.
	projects, err := s.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, projects, 1)
}

func TestProjectStore_SaveDefaults(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Missing id and name get generated and defaulted.
	require.NoError(t, s.SaveProject(ctx, collab.Snapshot{UserID: "user-1"}))

	projects, err := s.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.NotEmpty(t, projects[0].ID)
	assert.Equal(t, "Untitled", projects[0].Name)
}

func TestProjectStore_LoadMissing(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProjectStore_ListFiltersByUser(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveProject(ctx, collab.Snapshot{ProjectID: "a", Name: "A", UserID: "user-1"}))
	require.NoError(t, s.SaveProject(ctx, collab.Snapshot{ProjectID: "b", Name: "B", UserID: "user-2"}))

	projects, err := s.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "a", projects[0].ID)
	// Listing omits the layout payload.
	assert.Nil(t, projects[0].Components)
}

func TestProjectStore_Delete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveProject(ctx, collab.Snapshot{ProjectID: "a", Name: "A", UserID: "user-1"}))
	require.NoError(t, s.Delete(ctx, "a"))

	_, err := s.Load(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing id is a no-op.
	require.NoError(t, s.Delete(ctx, "a"))
}

func TestProjectStore_BridgeAutosaveIntegration(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	docStore := collab.NewStore("node-a")
	bridge := collab.NewBridge(docStore, s, "proj-1", "Live", "user-1", 0, nil)
	defer bridge.Close()

	docStore.AddComponent(types.Component{ID: "c1", Type: "hero"})
	require.NoError(t, bridge.SaveNow(ctx))

	loaded, err := s.Load(ctx, "proj-1")
	require.NoError(t, err)
	require.Len(t, loaded.Components, 1)
	assert.Equal(t, "c1", loaded.Components[0].ID)
}
