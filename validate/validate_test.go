package validate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFile_Valid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "duel.json", `{
		"name": "Duel",
		"description": "Two players",
		"players": [{"id": "ada", "name": "Ada"}, {"id": "grace", "name": "Grace", "color": "purple"}],
		"move_delay_ms": 500,
		"battle_complete_delay_ms": 1000
	}`)

	result := File(path)

	require.True(t, result.Valid, "errors: %v", result.Errors)
	assert.Equal(t, "duel.json", result.File)
	assert.Empty(t, result.Errors)
	info := strings.Join(result.Info, "\n")
	assert.Contains(t, info, "✓ Name: Duel")
	assert.Contains(t, info, "Ada (ada, red)")
	assert.Contains(t, info, "Grace (grace, purple)")
	assert.Contains(t, info, "move 500ms, battle 1s")
	assert.Contains(t, info, "Simulated 25 games")
}

func TestFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "invalid json",
			content: `{"name": "test", invalid json}`,
			wantErr: "Invalid JSON",
		},
		{
			name:    "missing name",
			content: `{"players": [{"name": "A"}, {"name": "B"}]}`,
			wantErr: "name is required",
		},
		{
			name:    "one player",
			content: `{"name": "Solo", "players": [{"name": "A"}]}`,
			wantErr: "not enough players",
		},
		{
			name:    "five players",
			content: `{"name": "Crowd", "players": [{"name": "A"}, {"name": "B"}, {"name": "C"}, {"name": "D"}, {"name": "E"}]}`,
			wantErr: "too many players",
		},
		{
			name:    "duplicate ids",
			content: `{"name": "Twins", "players": [{"id": "x", "name": "A"}, {"id": "x", "name": "B"}]}`,
			wantErr: "duplicate player id",
		},
		{
			name:    "negative delay",
			content: `{"name": "Rewind", "players": [{"name": "A"}, {"name": "B"}], "move_delay_ms": -1}`,
			wantErr: "move_delay_ms must not be negative",
		},
		{
			name:    "duplicate names",
			content: `{"name": "Mirror", "players": [{"id": "a", "name": "Sam"}, {"id": "b", "name": "sam"}]}`,
			wantErr: "Duplicate player names: sam",
		},
		{
			name:    "unknown field",
			content: `{"name": "Extra", "players": [{"name": "A"}, {"name": "B"}], "grid_size": 5}`,
			wantErr: "Unexpected content",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "preset.json", tt.content)

			result := File(path)

			assert.False(t, result.Valid)
			assert.Contains(t, strings.Join(result.Errors, "\n"), tt.wantErr)
			assert.Empty(t, result.Info)
		})
	}
}

func TestFile_Missing(t *testing.T) {
	result := File(filepath.Join(t.TempDir(), "nope.json"))

	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors[0], "Failed to read file")
}

func TestDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.json", `{"name": "B", "players": [{"name": "A"}, {"name": "B"}]}`)
	writeFile(t, dir, "a.json", `{"name": "A"}`)
	writeFile(t, dir, "notes.txt", "ignored")

	results, err := Dir(dir)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "a.json", results[0].File)
	assert.False(t, results[0].Valid)
	assert.Equal(t, "b.json", results[1].File)
	assert.True(t, results[1].Valid)
}

func TestDir_Empty(t *testing.T) {
	_, err := Dir(t.TempDir())

	assert.ErrorContains(t, err, "no preset files")
}

func TestRepositoryPresets(t *testing.T) {
	results, err := Dir(filepath.Join("..", "configs"))
	require.NoError(t, err)

	for _, result := range results {
		assert.True(t, result.Valid, "%s: %v", result.File, result.Errors)
	}
}
