package presence

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewGuestNamer(t *testing.T) {
	clock := func() time.Time { return time.Date(2024, 3, 1, 9, 5, 0, 0, time.UTC) }

	tests := []struct {
		name string
		draw int
		want string
	}{
		{name: "lowest", draw: 0, want: "user09051000"},
		{name: "highest", draw: 8999, want: "user09059999"},
		{name: "middle", draw: 4321, want: "user09055321"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			namer := NewGuestNamer(clock, func(n int) int {
				assert.Equal(t, 9000, n)
				return tt.draw
			})
			assert.Equal(t, tt.want, namer())
		})
	}
}

func TestNewGuestNamer_Defaults(t *testing.T) {
	namer := NewGuestNamer(nil, nil)
	pattern := regexp.MustCompile(`^user\d{4}[1-9]\d{3}$`)

	for i := 0; i < 50; i++ {
		assert.Regexp(t, pattern, namer())
	}
}
