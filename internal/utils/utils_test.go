package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAnswer(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Perro", "perro"},
		{"perro ", "perro"},
		{"  Ñandú", "nandu"},
		{"Él", "el"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeAnswer(tt.in), "NormalizeAnswer(%q)", tt.in)
	}
}

func TestStartsWithLetter(t *testing.T) {
	assert.True(t, StartsWithLetter("Perro", "P"))
	assert.True(t, StartsWithLetter(" perro", "p"))
	assert.True(t, StartsWithLetter("Ángel", "A"))
	assert.False(t, StartsWithLetter("Gato", "P"))
	assert.False(t, StartsWithLetter("", "P"))
	assert.False(t, StartsWithLetter("Perro", ""))
}

func TestGenerateRoomCode(t *testing.T) {
	seen := make(map[string]bool)
	for range 50 {
		code, err := GenerateRoomCode()
		require.NoError(t, err)
		require.Len(t, code, RoomCodeLength)
		for _, c := range code {
			assert.True(t, strings.ContainsRune(RoomCodeAlphabet, c), "unexpected char %q in %s", c, code)
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1)
}

func TestReadPresetsCsv(t *testing.T) {
	input := `# name,categories...
movies, movie, actor, director
movies,soundtrack
broken
,orphan
`
	presets, err := ReadPresetsCsv(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"movies": {"movie", "actor", "director", "soundtrack"},
	}, presets)
}

func TestReadPresetsCsvFileMissing(t *testing.T) {
	_, err := ReadPresetsCsvFile("does-not-exist.csv")
	assert.Error(t, err)
}

func TestNormalizeRoomCode(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOk bool
	}{
		{"abc234", "ABC234", true},
		{" XYZ789 ", "XYZ789", true},
		{"ABC23", "ABC23", false},
		{"ABC2340", "ABC2340", false},
		{"ABCO34", "ABCO34", false},
		{"AB-234", "AB-234", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeRoomCode(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.wantOk, ok, tt.in)
	}
}
