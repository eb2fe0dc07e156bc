package presence

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionRegistry_RegisterAndGet(t *testing.T) {
	r := NewConnectionRegistry()

	conn, err := r.Register("c1", "alice", "General")
	require.NoError(t, err)
	assert.Equal(t, "c1", conn.ID)
	assert.Equal(t, "alice", conn.DisplayName)
	assert.Equal(t, "General", conn.Room)
	assert.False(t, conn.ConnectedAt.IsZero())

	got, err := r.Get("c1")
	require.NoError(t, err)
	assert.Equal(t, conn, got)
	assert.Equal(t, 1, r.Len())
}

func TestConnectionRegistry_RegisterDuplicate(t *testing.T) {
	r := NewConnectionRegistry()
	_, err := r.Register("c1", "alice", "General")
	require.NoError(t, err)

	_, err = r.Register("c1", "bob", "General")
	assert.True(t, errors.Is(err, ErrDuplicateConnection))

	got, err := r.Get("c1")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.DisplayName)
}

func TestConnectionRegistry_NotFound(t *testing.T) {
	r := NewConnectionRegistry()

	_, err := r.Get("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = r.Remove("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(r.SetRoom("missing", "General"), ErrNotFound))
	assert.True(t, errors.Is(r.SetDisplayName("missing", "x"), ErrNotFound))
	_, err = r.FindByDisplayName("nobody")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestConnectionRegistry_Remove(t *testing.T) {
	r := NewConnectionRegistry()
	_, err := r.Register("c1", "alice", "General")
	require.NoError(t, err)
	require.NoError(t, r.SetRoom("c1", "Introductions"))

	prior, err := r.Remove("c1")
	require.NoError(t, err)
	assert.Equal(t, "Introductions", prior.Room)
	assert.Equal(t, 0, r.Len())

	_, err = r.Get("c1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestConnectionRegistry_Mutations(t *testing.T) {
	r := NewConnectionRegistry()
	_, err := r.Register("c1", "alice", "General")
	require.NoError(t, err)

	require.NoError(t, r.SetRoom("c1", "off-topics"))
	require.NoError(t, r.SetDisplayName("c1", "alicia"))

	got, err := r.Get("c1")
	require.NoError(t, err)
	assert.Equal(t, "off-topics", got.Room)
	assert.Equal(t, "alicia", got.DisplayName)
}

func TestConnectionRegistry_AccessorsReturnCopies(t *testing.T) {
	r := NewConnectionRegistry()
	_, err := r.Register("c1", "alice", "General")
	require.NoError(t, err)

	got, err := r.Get("c1")
	require.NoError(t, err)
	got.Room = "elsewhere"

	all := r.All()
	all[0].DisplayName = "mallory"

	fresh, err := r.Get("c1")
	require.NoError(t, err)
	assert.Equal(t, "General", fresh.Room)
	assert.Equal(t, "alice", fresh.DisplayName)
}

func TestConnectionRegistry_AllInRegistrationOrder(t *testing.T) {
	r := NewConnectionRegistry()
	ids := []string{"z", "a", "m", "b", "y"}
	for _, id := range ids {
		_, err := r.Register(id, "user-"+id, "General")
		require.NoError(t, err)
	}
	_, err := r.Remove("m")
	require.NoError(t, err)

	var got []string
	for _, conn := range r.All() {
		got = append(got, conn.ID)
	}
	assert.Equal(t, []string{"z", "a", "b", "y"}, got)
}

func TestConnectionRegistry_FindByDisplayNameFirstRegisteredWins(t *testing.T) {
	r := NewConnectionRegistry()
	for _, id := range []string{"c1", "c2", "c3"} {
		_, err := r.Register(id, "bob", "General")
		require.NoError(t, err)
	}

	got, err := r.FindByDisplayName("bob")
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ID)

	_, err = r.Remove("c1")
	require.NoError(t, err)
	got, err = r.FindByDisplayName("bob")
	require.NoError(t, err)
	assert.Equal(t, "c2", got.ID)
}
