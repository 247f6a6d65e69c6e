package collab

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildr-dev/buildr/internal/types"
)

func TestColorFor_Stable(t *testing.T) {
	first := ColorFor("peer-1")
	assert.Contains(t, Palette, first)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ColorFor("peer-1"))
	}
}

func TestAnonymousUser(t *testing.T) {
	user := AnonymousUser("abcdef123456")
	assert.Equal(t, "abcdef123456", user.ID)
	assert.Equal(t, "Guest abcdef", user.Name)
	assert.Contains(t, Palette, user.Color)

	short := AnonymousUser("ab")
	assert.Equal(t, "Guest ab", short.Name)
}

func TestNewAwareness_LocalIdentity(t *testing.T) {
	a := NewAwareness("peer-1", types.User{ID: "peer-1", Name: "Ada"})

	local := a.Local()
	assert.Equal(t, "Ada", local.User.Name)
	// A missing color is assigned from the palette.
	assert.Contains(t, Palette, local.User.Color)
	assert.Nil(t, local.Cursor)
	assert.Empty(t, a.Others())
}

func TestAwareness_CursorLifecycle(t *testing.T) {
	a := NewAwareness("peer-1", types.User{ID: "peer-1"})

	var notified [][]string
	unsub := a.Observe(func(changed []string) {
		notified = append(notified, changed)
	})
	defer unsub()

	a.SetLocalCursor(12, 34)
	local := a.Local()
	require.NotNil(t, local.Cursor)
	assert.Equal(t, types.Cursor{X: 12, Y: 34}, *local.Cursor)

	a.ClearLocalCursor()
	assert.Nil(t, a.Local().Cursor)

	assert.Equal(t, [][]string{{"peer-1"}, {"peer-1"}}, notified)
}

func TestAwareness_EncodeDeltaClearsChangedSet(t *testing.T) {
	a := NewAwareness("peer-1", types.User{ID: "peer-1", Name: "Ada"})

	// The initial identity counts as changed.
	data, err := a.EncodeDelta()
	require.NoError(t, err)
	require.NotNil(t, data)

	var delta map[string]*types.PresenceState
	require.NoError(t, json.Unmarshal(data, &delta))
	require.Contains(t, delta, "peer-1")
	assert.Equal(t, "Ada", delta["peer-1"].User.Name)

	// Nothing changed since: nil frame.
	data, err = a.EncodeDelta()
	require.NoError(t, err)
	assert.Nil(t, data)

	a.SetLocalCursor(1, 2)
	data, err = a.EncodeDelta()
	require.NoError(t, err)
	assert.NotNil(t, data)
}

func TestAwareness_ApplyDelta(t *testing.T) {
	a := NewAwareness("peer-1", types.User{ID: "peer-1"})
	b := NewAwareness("peer-2", types.User{ID: "peer-2", Name: "Bea"})

	b.SetLocalCursor(5, 6)
	data, err := b.EncodeDelta()
	require.NoError(t, err)

	require.NoError(t, a.ApplyDelta(data))

	others := a.Others()
	require.Contains(t, others, "peer-2")
	assert.Equal(t, "Bea", others["peer-2"].User.Name)
	require.NotNil(t, others["peer-2"].Cursor)
	assert.Equal(t, types.Cursor{X: 5, Y: 6}, *others["peer-2"].Cursor)
}

func TestAwareness_ApplyDeltaIgnoresLocalEntry(t *testing.T) {
	a := NewAwareness("peer-1", types.User{ID: "peer-1", Name: "Ada"})

	spoofed, err := json.Marshal(map[string]*types.PresenceState{
		"peer-1": {User: types.User{ID: "peer-1", Name: "Imposter"}},
	})
	require.NoError(t, err)

	require.NoError(t, a.ApplyDelta(spoofed))
	assert.Equal(t, "Ada", a.Local().User.Name)
}

func TestAwareness_NilEntryRemovesPeer(t *testing.T) {
	a := NewAwareness("peer-1", types.User{ID: "peer-1"})

	join, err := json.Marshal(map[string]*types.PresenceState{
		"peer-2": {User: types.User{ID: "peer-2"}},
	})
	require.NoError(t, err)
	require.NoError(t, a.ApplyDelta(join))
	assert.Contains(t, a.Others(), "peer-2")

	leave, err := json.Marshal(map[string]*types.PresenceState{"peer-2": nil})
	require.NoError(t, err)
	require.NoError(t, a.ApplyDelta(leave))
	assert.Empty(t, a.Others())
}

func TestAwareness_EncodeLocalLeave(t *testing.T) {
	a := NewAwareness("peer-1", types.User{ID: "peer-1", Name: "Ada"})
	b := NewAwareness("peer-2", types.User{ID: "peer-2"})

	identity, err := a.EncodeDelta()
	require.NoError(t, err)
	require.NoError(t, b.ApplyDelta(identity))
	require.Contains(t, b.Others(), "peer-1")

	leave, err := a.EncodeLocalLeave()
	require.NoError(t, err)
	require.NoError(t, b.ApplyDelta(leave))
	assert.NotContains(t, b.Others(), "peer-1")
}

func TestAwareness_RemovePeer(t *testing.T) {
	a := NewAwareness("peer-1", types.User{ID: "peer-1"})

	join, err := json.Marshal(map[string]*types.PresenceState{
		"peer-2": {User: types.User{ID: "peer-2"}},
	})
	require.NoError(t, err)
	require.NoError(t, a.ApplyDelta(join))

	var notified int
	unsub := a.Observe(func([]string) { notified++ })
	defer unsub()

	a.RemovePeer("peer-2")
	assert.Empty(t, a.Others())
	assert.Equal(t, 1, notified)

	// Removing an unknown peer notifies nobody.
	a.RemovePeer("peer-9")
	assert.Equal(t, 1, notified)
}

func TestAwareness_ApplyDeltaRejectsGarbage(t *testing.T) {
	a := NewAwareness("peer-1", types.User{ID: "peer-1"})
	assert.Error(t, a.ApplyDelta([]byte("{broken")))
}
