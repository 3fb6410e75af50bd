package repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero uses default", 0, 50},
		{"negative uses default", -3, 50},
		{"within range", 120, 120},
		{"at cap", 500, 500},
		{"above cap is capped", 10000, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clampLimit(tt.limit))
		})
	}
}

func TestNullableText(t *testing.T) {
	empty := nullIfEmpty("")
	assert.False(t, empty.Valid)
	assert.Equal(t, "", getString(empty))

	set := nullIfEmpty("req_1")
	assert.True(t, set.Valid)
	assert.Equal(t, "req_1", getString(set))
}
