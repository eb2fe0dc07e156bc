package presence

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoomCatalog(t *testing.T) {
	tests := []struct {
		name        string
		rooms       []string
		defaultRoom string
		wantRooms   []string
		wantDefault string
		wantErr     error
	}{
		{
			name:        "default rooms",
			rooms:       DefaultRooms,
			wantRooms:   []string{"General", "Introductions", "off-topics", "Hobbies and sports"},
			wantDefault: "General",
		},
		{
			name:        "explicit default",
			rooms:       []string{"lobby", "games"},
			defaultRoom: "games",
			wantRooms:   []string{"lobby", "games"},
			wantDefault: "games",
		},
		{
			name:        "blank and duplicate names dropped",
			rooms:       []string{" lobby ", "", "lobby", "games", "  "},
			wantRooms:   []string{"lobby", "games"},
			wantDefault: "lobby",
		},
		{
			name:    "empty list",
			rooms:   []string{"", " "},
			wantErr: ErrEmptyCatalog,
		},
		{
			name:        "unknown default",
			rooms:       []string{"lobby"},
			defaultRoom: "attic",
			wantErr:     ErrInvalidRoom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewRoomCatalog(tt.rooms, tt.defaultRoom)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRooms, c.Rooms())
			assert.Equal(t, tt.wantDefault, c.Default())
		})
	}
}

func TestRoomCatalog_IsValid(t *testing.T) {
	c, err := NewRoomCatalog(DefaultRooms, "")
	require.NoError(t, err)

	assert.True(t, c.IsValid("General"))
	assert.True(t, c.IsValid("Hobbies and sports"))
	assert.False(t, c.IsValid("general"))
	assert.False(t, c.IsValid(""))
	assert.False(t, c.IsValid("Basement"))
}

func TestRoomCatalog_RoomsReturnsCopy(t *testing.T) {
	c, err := NewRoomCatalog(DefaultRooms, "")
	require.NoError(t, err)

	rooms := c.Rooms()
	rooms[0] = "Hacked"

	assert.Equal(t, "General", c.Rooms()[0])
	assert.False(t, c.IsValid("Hacked"))
}
