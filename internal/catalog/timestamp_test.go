package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-01-01T00:00:00Z", "2024-01-01 00:00:00"},
		{"2024-01-01T02:30:00+02:00", "2024-01-01 00:30:00"},
		{"2023-11-05T10:11:12.345-05:00", "2023-11-05 15:11:12"},
		{"2024-03-04 05:06:07", "2024-03-04 05:06:07"},
		{"2024-03-04", "2024-03-04 00:00:00"},
		{"", "1970-01-01 00:00:00"},
		{"not a date", "1970-01-01 00:00:00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeTimestamp(tt.in), tt.in)
	}
}
