// Package seqio parses and serializes the sequence formats the downloader
// needs to look inside: GenBank and FASTA.
//
// Records keep the raw lines they were parsed from, so serializing an
// unmodified record reproduces the input byte for byte. Only the fields the
// WGS expansion and the validators look at are decoded.
package seqio

import (
	"regexp"
	"strconv"
)

// Format names accepted by Parse and Serialize.
const (
	FormatGenBank      = "genbank"
	FormatFASTA        = "fasta"
	FormatFeatureTable = "featuretable"
	FormatGFF3         = "gff3"
)

// Annotations holds the record-level annotations that announce content
// stored in other records.
type Annotations struct {
	// WGS is the WGS line split on its hyphen, e.g. ["ABCD01000001", "ABCD01000022"].
	WGS []string
	// WGSScaffold holds one split range per WGS_SCAFLD line.
	WGSScaffold [][]string
	// Contig is the CONTIG assembly declaration with continuation lines joined.
	Contig string
}

// Feature is one entry of a GenBank feature table.
type Feature struct {
	Key      string
	Location string

	lines      []string
	qualifiers bool
}

var (
	remoteRefPattern = regexp.MustCompile(`[A-Za-z_]+[0-9]+(?:\.[0-9]+)?:`)
	coordPattern     = regexp.MustCompile(`[0-9]+`)
)

// Remote reports whether the location references another accession.
func (f Feature) Remote() bool {
	return remoteRefPattern.MatchString(f.Location)
}

// End returns the largest coordinate mentioned in the location.
func (f Feature) End() int {
	end := 0
	for _, m := range coordPattern.FindAllString(f.Location, -1) {
		n, err := strconv.Atoi(m)
		if err == nil && n > end {
			end = n
		}
	}
	return end
}

// Record is one sequence entry.
type Record struct {
	ID          string
	Name        string
	Description string
	Length      int
	Sequence    string
	Placeholder bool
	Annotations Annotations
	Features    []Feature

	format       string
	header       []string
	featuresLine string
	trailer      []string
	origin       []string
}

// Format returns the format the record was parsed from.
func (r *Record) Format() string {
	return r.format
}

// SequenceLength returns the length of the stored sequence, falling back to
// the declared length for placeholder records.
func (r *Record) SequenceLength() int {
	if len(r.Sequence) > 0 {
		return len(r.Sequence)
	}
	return r.Length
}

// WithFeatures returns a shallow copy of r carrying the given feature table.
func (r *Record) WithFeatures(features []Feature) *Record {
	clone := *r
	clone.Features = features
	return &clone
}
