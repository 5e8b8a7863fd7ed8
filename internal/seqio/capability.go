package seqio

import (
	"bufio"
	"bytes"
	"io"

	"github.com/FocuswithJustin/ncbi-acc-download/core/errors"
)

// Capability parses downloaded bytes into records and serializes them back.
// Parse must not depend on reader state from earlier calls: the expansion
// engine parses freshly filled buffers repeatedly.
type Capability interface {
	// Available reports whether sequence parsing is present at all.
	Available() bool
	// Supports reports whether the named format can be parsed and serialized.
	Supports(format string) bool
	Parse(r io.Reader, format string) ([]*Record, error)
	Serialize(w io.Writer, records []*Record, format string) error
}

// Default returns the built-in GenBank/FASTA capability.
func Default() Capability {
	return builtin{}
}

// Unavailable returns a capability that cannot parse anything. Code paths
// that need parsing check Available and fall back instead of failing.
func Unavailable() Capability {
	return unavailable{}
}

// ParseBytes is a convenience wrapper around c.Parse for in-memory data.
func ParseBytes(c Capability, data []byte, format string) ([]*Record, error) {
	return c.Parse(bytes.NewReader(data), format)
}

// SerializeBytes is a convenience wrapper around c.Serialize.
func SerializeBytes(c Capability, records []*Record, format string) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Serialize(&buf, records, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type builtin struct{}

func (builtin) Available() bool { return true }

func (builtin) Supports(format string) bool {
	return format == FormatGenBank || format == FormatFASTA
}

func (builtin) Parse(r io.Reader, format string) ([]*Record, error) {
	switch format {
	case FormatGenBank:
		return parseGenBank(r)
	case FormatFASTA:
		return parseFASTA(r)
	}
	return nil, errors.NewUnsupported("format", format+" cannot be parsed")
}

func (builtin) Serialize(w io.Writer, records []*Record, format string) error {
	var write func(*bufio.Writer, *Record) error
	switch format {
	case FormatGenBank:
		write = writeGenBank
	case FormatFASTA:
		write = writeFASTA
	default:
		return errors.NewUnsupported("format", format+" cannot be serialized")
	}

	bw := bufio.NewWriter(w)
	for _, rec := range records {
		if rec.format != format {
			return errors.NewUnsupported("conversion", rec.format+" record "+rec.ID+" written as "+format)
		}
		if err := write(bw, rec); err != nil {
			return err
		}
	}
	return bw.Flush()
}

type unavailable struct{}

func (unavailable) Available() bool        { return false }
func (unavailable) Supports(_ string) bool { return false }

func (unavailable) Parse(_ io.Reader, _ string) ([]*Record, error) {
	return nil, errors.NewUnsupported("sequence parsing", "no parser available")
}

func (unavailable) Serialize(_ io.Writer, _ []*Record, _ string) error {
	return errors.NewUnsupported("sequence serialization", "no parser available")
}
