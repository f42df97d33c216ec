package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(""))
	assert.True(t, IsEmpty("   "))
	assert.True(t, IsEmpty("\t\n"))
	assert.False(t, IsEmpty("x"))
	assert.False(t, IsEmpty(" x "))

	assert.False(t, IsNotEmpty(""))
	assert.True(t, IsNotEmpty("x"))
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "present.yaml")

	assert.False(t, FileExists(path))
	require.NoError(t, os.WriteFile(path, []byte("a: b\n"), 0o600))
	assert.True(t, FileExists(path))
}
