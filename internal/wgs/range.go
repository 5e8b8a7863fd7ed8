// Package wgs resolves whole-genome-shotgun and supercontig records whose
// sequence lives in other NCBI records.
package wgs

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
	"unicode"

	"github.com/FocuswithJustin/ncbi-acc-download/core/errors"
)

// Range is a run of accessions sharing a prefix and a zero-padded number,
// e.g. ABCD01000001-ABCD01000022 is {Prefix: "ABCD", Width: 8, Start: 1000001, End: 1000022}.
type Range struct {
	Prefix string
	Width  int
	Start  int
	End    int
}

// ParseRange parses "FIRST-LAST" or a single accession into a Range.
// Version suffixes (".1") on either bound are ignored.
func ParseRange(s string) (*Range, error) {
	first, last, found := strings.Cut(s, "-")
	if !found {
		last = first
	}
	if strings.Contains(last, "-") {
		return nil, errors.NewInvalidRange(s, "more than one hyphen in input")
	}

	first, _, _ = strings.Cut(first, ".")
	last, _, _ = strings.Cut(last, ".")

	prefix := first[:prefixEnd(first)]
	width := len(first) - len(prefix)
	if width < 1 {
		return nil, errors.NewInvalidRange(s, "string identifier is too large")
	}
	if !strings.HasPrefix(last, prefix) || len(last) < width {
		return nil, errors.NewInvalidRange(s, "failed to find shared identifier")
	}

	start, err := strconv.Atoi(first[len(first)-width:])
	if err != nil {
		return nil, errors.NewInvalidRange(s, fmt.Sprintf("bad numeric part %q", first[len(first)-width:]))
	}
	end, err := strconv.Atoi(last[len(last)-width:])
	if err != nil {
		return nil, errors.NewInvalidRange(s, fmt.Sprintf("bad numeric part %q", last[len(last)-width:]))
	}
	if end < start {
		return nil, errors.NewInvalidRange(s, "last identifier smaller than first")
	}

	return &Range{Prefix: prefix, Width: width, Start: start, End: end}, nil
}

// prefixEnd returns the index of the first digit in s, or len(s).
func prefixEnd(s string) int {
	for i, c := range s {
		if unicode.IsDigit(c) {
			return i
		}
	}
	return len(s)
}

// Len returns the number of accessions in the range.
func (r *Range) Len() int {
	return r.End - r.Start + 1
}

// id returns the accession numbered n.
func (r *Range) id(n int) string {
	return fmt.Sprintf("%s%0*d", r.Prefix, r.Width, n)
}

// IDs returns every accession in the range in ascending order. Use Batches
// for ranges read from downloaded records, which can be arbitrarily large.
func (r *Range) IDs() []string {
	ids := make([]string, 0, r.Len())
	for i := r.Start; i <= r.End; i++ {
		ids = append(ids, r.id(i))
	}
	return ids
}

// Batches yields the accessions in ascending order, at most size at a time.
// Only the current batch is held in memory.
func (r *Range) Batches(size int) iter.Seq[[]string] {
	if size < 1 {
		size = 1
	}
	return func(yield func([]string) bool) {
		for lo := r.Start; lo <= r.End; lo += size {
			hi := min(lo+size-1, r.End)
			batch := make([]string, 0, hi-lo+1)
			for i := lo; i <= hi; i++ {
				batch = append(batch, r.id(i))
			}
			if !yield(batch) {
				return
			}
			if hi == r.End {
				return
			}
		}
	}
}

func (r *Range) String() string {
	if r.Start == r.End {
		return r.id(r.Start)
	}
	return r.id(r.Start) + "-" + r.id(r.End)
}
