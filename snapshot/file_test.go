package snapshot

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/slabkit/internal/fs"
)

func TestWriteFile(t *testing.T) {
	a, data := newPool(t)
	_, _, err := a.Alloc(30)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "pool.slab")
	n, err := WriteFile(nil, path, Describe(a, data), data, CodecLZ4, nil)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info.Size(), int64(n))

	h, img, err := ReadFile(nil, path)
	require.NoError(t, err)
	assert.Equal(t, "lz4", h.Codec)
	assert.Equal(t, data, img)
}

func TestWriteFile_KeepsOldImageOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool.slab")
	old := bytes.Repeat([]byte{1}, 64)
	_, err := WriteFile(nil, path, Header{}, old, CodecNone, nil)
	require.NoError(t, err)

	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("pool.slab", fs.Fault{FailAfterBytes: 16})
	_, err = WriteFile(ffs, path, Header{}, make([]byte, 4096), CodecNone, nil)
	assert.ErrorIs(t, err, fs.ErrInjected)

	_, img, err := ReadFile(nil, path)
	require.NoError(t, err)
	assert.Equal(t, old, img)
}

func TestWriteFile_Pace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool.slab")
	var seen int
	pace := func(w io.Writer) io.Writer {
		return writerFunc(func(b []byte) (int, error) {
			seen += len(b)
			return w.Write(b)
		})
	}

	n, err := WriteFile(nil, path, Header{}, make([]byte, 1000), CodecNone, pace)
	require.NoError(t, err)
	assert.Equal(t, n, seen)

	stop := errors.New("stop")
	failing := func(io.Writer) io.Writer {
		return writerFunc(func([]byte) (int, error) { return 0, stop })
	}
	_, err = WriteFile(nil, path, Header{}, make([]byte, 10), CodecNone, failing)
	assert.ErrorIs(t, err, stop)

	_, img, err := ReadFile(nil, path)
	require.NoError(t, err)
	assert.Len(t, img, 1000)
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) { return f(b) }

func TestReadFile_Missing(t *testing.T) {
	_, _, err := ReadFile(nil, filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
