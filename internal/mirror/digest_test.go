package mirror

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFileDigest(t *testing.T) {
	t.Run("known content", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "hello.txt")
		writeFile(t, path, "hello world")

		sum, err := FileDigest(path)
		require.NoError(t, err)
		// md5("hello world")
		assert.Equal(t, "5eb63bbbe01eeed093cb22bb8f5acdc3", sum)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := FileDigest(filepath.Join(t.TempDir(), "nope.txt"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, fs.ErrNotExist))
	})

	t.Run("deterministic", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data.bin")
		writeFile(t, path, "some content")

		first, err := FileDigest(path)
		require.NoError(t, err)
		second, err := FileDigest(path)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestTreeDigest(t *testing.T) {
	t.Run("equal trees equal digests", func(t *testing.T) {
		a := t.TempDir()
		b := t.TempDir()
		for _, root := range []string{a, b} {
			writeFile(t, filepath.Join(root, "one.txt"), "1")
			writeFile(t, filepath.Join(root, "sub", "two.txt"), "2")
			writeFile(t, filepath.Join(root, "sub", "deep", "three.txt"), "3")
		}

		sumA, err := TreeDigest(a)
		require.NoError(t, err)
		sumB, err := TreeDigest(b)
		require.NoError(t, err)
		assert.Equal(t, sumA, sumB)
	})

	t.Run("creation order does not matter", func(t *testing.T) {
		a := t.TempDir()
		writeFile(t, filepath.Join(a, "x.txt"), "x")
		writeFile(t, filepath.Join(a, "a.txt"), "a")
		writeFile(t, filepath.Join(a, "m", "f.txt"), "f")

		b := t.TempDir()
		writeFile(t, filepath.Join(b, "m", "f.txt"), "f")
		writeFile(t, filepath.Join(b, "a.txt"), "a")
		writeFile(t, filepath.Join(b, "x.txt"), "x")

		sumA, err := TreeDigest(a)
		require.NoError(t, err)
		sumB, err := TreeDigest(b)
		require.NoError(t, err)
		assert.Equal(t, sumA, sumB)
	})

	t.Run("different content differs", func(t *testing.T) {
		a := t.TempDir()
		b := t.TempDir()
		writeFile(t, filepath.Join(a, "f.txt"), "left")
		writeFile(t, filepath.Join(b, "f.txt"), "right")

		sumA, err := TreeDigest(a)
		require.NoError(t, err)
		sumB, err := TreeDigest(b)
		require.NoError(t, err)
		assert.NotEqual(t, sumA, sumB)
	})

	t.Run("same content different relative path differs", func(t *testing.T) {
		a := t.TempDir()
		b := t.TempDir()
		writeFile(t, filepath.Join(a, "f.txt"), "same")
		writeFile(t, filepath.Join(b, "sub", "f.txt"), "same")

		sumA, err := TreeDigest(a)
		require.NoError(t, err)
		sumB, err := TreeDigest(b)
		require.NoError(t, err)
		assert.NotEqual(t, sumA, sumB)
	})

	t.Run("empty directories are invisible", func(t *testing.T) {
		a := t.TempDir()
		b := t.TempDir()
		writeFile(t, filepath.Join(a, "f.txt"), "data")
		writeFile(t, filepath.Join(b, "f.txt"), "data")
		require.NoError(t, os.MkdirAll(filepath.Join(b, "empty", "nested"), 0o755))

		sumA, err := TreeDigest(a)
		require.NoError(t, err)
		sumB, err := TreeDigest(b)
		require.NoError(t, err)
		assert.Equal(t, sumA, sumB)
	})

	t.Run("empty tree", func(t *testing.T) {
		sumA, err := TreeDigest(t.TempDir())
		require.NoError(t, err)
		sumB, err := TreeDigest(t.TempDir())
		require.NoError(t, err)
		// digest of nothing is still a digest, and a stable one
		assert.Equal(t, sumA, sumB)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := TreeDigest(filepath.Join(t.TempDir(), "absent"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, fs.ErrNotExist))
	})
}
