package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStem(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"conversation.txt", "conversation"},
		{"visit.2024.txt", "visit.2024"},
		{"noext", "noext"},
		{".hidden", ""},
		{"nested/dir/notes.txt", "notes"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Stem(tt.input))
		})
	}
}

func TestStructuredName(t *testing.T) {
	assert.Equal(t, "conversation_structured.json", StructuredName("conversation.txt"))
	assert.Equal(t, "notes_structured.json", StructuredName("notes"))
}

func TestNewUploads_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backend", "uploads")

	u, err := NewUploads(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, u.Dir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestUploads_SaveAndRead(t *testing.T) {
	u, err := NewUploads(t.TempDir())
	require.NoError(t, err)

	path, err := u.Save("conversation.txt", strings.NewReader("hello\nworld\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(u.Dir(), "conversation.txt"), path)

	data, err := u.Read("conversation.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld\n", string(data))
}

func TestUploads_PathDropsDirectories(t *testing.T) {
	u, err := NewUploads(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(u.Dir(), "passwd"), u.Path("../../etc/passwd"))
}

func TestUploads_ReadMissing(t *testing.T) {
	u, err := NewUploads(t.TempDir())
	require.NoError(t, err)

	_, err = u.Read("missing.txt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUploads_WriteJSON(t *testing.T) {
	u, err := NewUploads(t.TempDir())
	require.NoError(t, err)

	records := []map[string]string{{"speaker": "Patient", "text": "Ça fait mal <ici>"}}
	_, err = u.WriteJSON("out.json", records, "    ")
	require.NoError(t, err)

	data, err := u.Read("out.json")
	require.NoError(t, err)
	assert.Contains(t, string(data), "Ça fait mal <ici>")
	assert.Contains(t, string(data), "\n        \"speaker\": \"Patient\"")
	assert.True(t, strings.HasSuffix(string(data), "]"), "output must not end with a newline")
}
