package output

import (
	"encoding/hex"
	"io"
	"os"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/ncbi-acc-download/core/errors"
)

// Stdout is the path that selects standard output instead of a file.
const Stdout = "-"

// xzNewWriter is replaceable in tests.
var xzNewWriter = xz.NewWriter

// Sink is an output target. It counts the bytes written and hashes them
// with BLAKE3 before any compression is applied.
type Sink struct {
	path   string
	file   io.WriteCloser
	xzw    io.WriteCloser
	w      io.Writer
	hasher *blake3.Hasher
	n      int64
}

// Open opens path for writing. With appendMode set existing content is
// kept; compressed output is then added as another xz stream, which xz
// readers concatenate transparently.
func Open(path string, appendMode, compress bool) (*Sink, error) {
	s := &Sink{path: path, hasher: blake3.New()}

	if path == Stdout {
		s.file = nopCloser{os.Stdout}
	} else {
		flags := os.O_CREATE | os.O_WRONLY
		if appendMode {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
		f, err := os.OpenFile(path, flags, 0o644)
		if err != nil {
			return nil, errors.NewIO("open", path, err)
		}
		s.file = f
	}
	s.w = s.file

	if compress {
		xzw, err := xzNewWriter(s.file)
		if err != nil {
			s.file.Close()
			return nil, errors.NewIO("compress", path, err)
		}
		s.xzw = xzw
		s.w = xzw
	}

	return s, nil
}

func (s *Sink) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	s.hasher.Write(p[:n])
	s.n += int64(n)
	if err != nil {
		return n, errors.NewIO("write", s.path, err)
	}
	return n, nil
}

// Close flushes any compressor and closes the file.
func (s *Sink) Close() error {
	var firstErr error
	if s.xzw != nil {
		if err := s.xzw.Close(); err != nil {
			firstErr = errors.NewIO("compress", s.path, err)
		}
	}
	if err := s.file.Close(); err != nil && firstErr == nil {
		firstErr = errors.NewIO("close", s.path, err)
	}
	return firstErr
}

// Path returns the path the sink was opened with.
func (s *Sink) Path() string { return s.path }

// Bytes returns the number of uncompressed bytes written.
func (s *Sink) Bytes() int64 { return s.n }

// Digest returns the hex BLAKE3 digest of everything written so far.
func (s *Sink) Digest() string {
	return hex.EncodeToString(s.hasher.Sum(nil))
}

// Digest returns the hex BLAKE3 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
