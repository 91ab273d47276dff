package ast

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCompileDB_ResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "compile_commands.json")

	contents := `[
		{"directory": "/src", "file": "a.c", "command": "cc -c a.c"},
		{"directory": "/src/sub", "file": "b.c", "command": "cc -c b.c"},
		{"directory": "/src", "file": "/abs/c.c", "command": "cc -c /abs/c.c"}
	]`
	require.NoError(t, os.WriteFile(dbPath, []byte(contents), 0o644))

	files, err := LoadCompileDB(dbPath)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Clean("/src/a.c"),
		filepath.Clean("/src/sub/b.c"),
		filepath.Clean("/abs/c.c"),
	}, files)
}

func TestLoadCompileDB_MissingFile(t *testing.T) {
	_, err := LoadCompileDB(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadCompileDB_SkipsEmptyFileField(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "compile_commands.json")
	require.NoError(t, os.WriteFile(dbPath, []byte(`[{"directory": "/src", "file": ""}]`), 0o644))

	files, err := LoadCompileDB(dbPath)
	require.NoError(t, err)
	assert.Empty(t, files)
}
