package sink

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/klauspost/compress/gzip"

	"github.com/hupe1980/voxpipe/dtype"
	"github.com/hupe1980/voxpipe/stage"
)

// GzipName is the name of the gzip sink.
const GzipName = "gzip"

type gzipStream struct {
	level int
}

// NewGzip creates a gzip sink. level follows compress/gzip; 0 selects the default.
func NewGzip(t dtype.Type, level int, opts ...stage.Option) (*Compressor, error) {
	if level == 0 {
		level = gzip.DefaultCompression
	}
	if level != gzip.DefaultCompression && (level < gzip.BestSpeed || level > gzip.BestCompression) {
		return nil, stage.NewConfigError(GzipName, "level", strconv.Itoa(level), errors.New("must be within 1..9"))
	}
	return newCompressor(GzipName, t, gzipStream{level: level}, opts)
}

func (a gzipStream) config() string {
	if a.level == gzip.DefaultCompression {
		return ""
	}
	return "level=" + strconv.Itoa(a.level)
}

func (gzipStream) bound(n int) int { return n + n/1000 + 64 }

func (a gzipStream) encode(dst, src []byte) (int, error) {
	w := &fixedWriter{buf: dst}
	zw, err := gzip.NewWriterLevel(w, a.level)
	if err != nil {
		return 0, err
	}
	if _, err := zw.Write(src); err != nil {
		return 0, err
	}
	if err := zw.Close(); err != nil {
		return 0, err
	}
	return w.n, nil
}

func (gzipStream) decode(dst, src []byte) error {
	zr, err := gzip.NewReader(bytes.NewReader(src))
	if err != nil {
		return errors.Join(ErrCorrupt, err)
	}
	defer func() { _ = zr.Close() }()

	if _, err := io.ReadFull(zr, dst); err != nil {
		return errors.Join(ErrCorrupt, err)
	}
	var extra [1]byte
	if n, _ := zr.Read(extra[:]); n != 0 {
		return fmt.Errorf("%w: stream longer than %d bytes", ErrCorrupt, len(dst))
	}
	return nil
}
