package player

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// Source supplies container bytes. A Read of 0 bytes with io.EOF (or with a
// nil error) is a clean end of stream; any other error is an I/O failure.
type Source interface {
	io.Reader
	io.Closer
}

type ioSource struct {
	r      io.Reader
	c      io.Closer
	closed bool
}

// NewReaderSource adapts r. If r is an io.Closer it is closed once by Close.
func NewReaderSource(r io.Reader) Source {
	s := &ioSource{r: r}
	if c, ok := r.(io.Closer); ok {
		s.c = c
	}
	return s
}

// OpenFileSource opens path for reading.
func OpenFileSource(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open file")
	}
	return &ioSource{r: f, c: f}, nil
}

func (s *ioSource) Read(p []byte) (int, error) {
	if s.closed {
		return 0, os.ErrClosed
	}
	return s.r.Read(p)
}

func (s *ioSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if s.c == nil {
		return nil
	}
	return s.c.Close()
}
