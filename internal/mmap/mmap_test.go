package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blob")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestMapping(t *testing.T) {
	content := []byte("Hello, Mmap!")
	m, err := Open(writeTemp(t, content))
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, len(content), m.Size())
	assert.Equal(t, content, m.Bytes())
	require.NoError(t, m.Advise(AccessSequential))

	t.Run("read at", func(t *testing.T) {
		buf := make([]byte, 5)
		n, err := m.ReadAt(buf, 7)
		require.NoError(t, err)
		assert.Equal(t, 5, n)
		assert.Equal(t, "Mmap!", string(buf))
	})

	t.Run("partial", func(t *testing.T) {
		buf := make([]byte, 10)
		n, err := m.ReadAt(buf, 7)
		assert.Equal(t, 5, n)
		assert.Equal(t, io.EOF, err)
	})

	t.Run("out of bounds", func(t *testing.T) {
		n, err := m.ReadAt(make([]byte, 4), 100)
		assert.Zero(t, n)
		assert.Equal(t, io.EOF, err)

		_, err = m.ReadAt(make([]byte, 4), -1)
		assert.ErrorIs(t, err, ErrInvalidOffset)
	})
}

func TestMappingEmptyFile(t *testing.T) {
	m, err := Open(writeTemp(t, nil))
	require.NoError(t, err)
	assert.Zero(t, m.Size())
	assert.NoError(t, m.Advise(AccessRandom))
	assert.NoError(t, m.Close())
}

func TestMappingMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMappingAfterClose(t *testing.T) {
	m, err := Open(writeTemp(t, []byte("data")))
	require.NoError(t, err)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	assert.Nil(t, m.Bytes())
	assert.ErrorIs(t, m.Advise(AccessRandom), ErrClosed)
	_, err = m.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, ErrClosed)
}
