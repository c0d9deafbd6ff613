package snapshot

import (
	"io"
	"os"

	"github.com/hupe1980/slabkit/internal/fs"
)

// WriteFile writes an image to path atomically: a partially written image
// never replaces an existing file. A nil fsys uses the local file system.
// A non-nil pace wraps the file writer, typically to rate limit the output.
// WriteFile returns the image bytes written.
func WriteFile(fsys fs.FileSystem, path string, h Header, data []byte, c Codec, pace func(io.Writer) io.Writer) (int, error) {
	if fsys == nil {
		fsys = fs.Default
	}
	var cw countingWriter
	err := fs.WriteAtomic(fsys, path, 0o644, func(w io.Writer) error {
		cw.w = w
		if pace != nil {
			cw.w = pace(w)
		}
		return Write(&cw, h, data, c)
	})
	return cw.n, err
}

// ReadFile reads an image from path. A nil fsys uses the local file system.
func ReadFile(fsys fs.FileSystem, path string) (Header, []byte, error) {
	if fsys == nil {
		fsys = fs.Default
	}
	f, err := fsys.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return Header{}, nil, err
	}
	defer f.Close()
	return Read(f)
}

type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += n
	return n, err
}
