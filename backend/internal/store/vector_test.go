package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorToString(t *testing.T) {
	tests := []struct {
		name string
		vect []float32
		want string
	}{
		{"nil vector", nil, ""},
		{"empty vector", []float32{}, ""},
		{"single component", []float32{0.5}, "[0.5]"},
		{"multiple components", []float32{0.1, -0.25, 1}, "[0.1,-0.25,1]"},
		{"zero", []float32{0}, "[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, vectorToString(tt.vect))
		})
	}
}

func TestParseVector(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []float32
		wantErr bool
	}{
		{"empty string", "", nil, false},
		{"empty literal", "[]", nil, false},
		{"single component", "[0.5]", []float32{0.5}, false},
		{"multiple components", "[0.1,-0.25,1]", []float32{0.1, -0.25, 1}, false},
		{"spaces between components", "[0.1, 0.2]", []float32{0.1, 0.2}, false},
		{"missing brackets", "0.1,0.2", nil, true},
		{"garbage component", "[0.1,abc]", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVector(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVectorRoundTrip(t *testing.T) {
	original := []float32{0.123, -0.456, 0.789, 0}
	parsed, err := parseVector(vectorToString(original))
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}
