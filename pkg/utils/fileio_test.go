package utils

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "state.json")

	err := AtomicWriteFile(path, 0644, func(w io.Writer) error {
		_, err := io.WriteString(w, "hello")
		return err
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file should be renamed away")
}

func TestAtomicWriteFileKeepsPreviousContentOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0644))

	err := AtomicWriteFile(path, 0644, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return errors.New("encoder failed")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encoder failed")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file should be cleaned up")
}

func TestAtomicWriteFileDirectoryIsAFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := AtomicWriteFile(filepath.Join(blocker, "state.json"), 0644, func(w io.Writer) error {
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create directory")
}

func TestWriteJSONFile(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected string
	}{
		{
			name:     "empty slice",
			value:    []string{},
			expected: "[]\n",
		},
		{
			name:     "object",
			value:    map[string][]string{"alice": {"a"}},
			expected: "{\n  \"alice\": [\n    \"a\"\n  ]\n}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.json")
			require.NoError(t, WriteJSONFile(path, tt.value, "  "))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(data))
		})
	}
}
