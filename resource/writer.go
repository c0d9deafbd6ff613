package resource

import (
	"context"
	"io"
)

// Writer returns w paced by the IO limit. Without a limit, w is returned as is.
func (c *Controller) Writer(ctx context.Context, w io.Writer) io.Writer {
	if c == nil || c.io == nil {
		return w
	}
	return &limitedWriter{ctx: ctx, w: w, rc: c}
}

type limitedWriter struct {
	ctx context.Context
	w   io.Writer
	rc  *Controller
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	written := 0
	burst := w.rc.io.Burst()
	for len(p) > 0 {
		chunk := p[:min(len(p), burst)]
		if err := w.rc.AcquireIO(w.ctx, len(chunk)); err != nil {
			return written, err
		}
		n, err := w.w.Write(chunk)
		written += n
		if err != nil {
			return written, err
		}
		p = p[len(chunk):]
	}
	return written, nil
}
