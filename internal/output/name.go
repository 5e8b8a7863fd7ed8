// Package output names output files and opens the sinks downloads are
// written to.
package output

import (
	"strings"
	"unicode"

	"github.com/FocuswithJustin/ncbi-acc-download/internal/config"
	"github.com/FocuswithJustin/ncbi-acc-download/internal/seqio"
)

// MaxIDLength is how much of an accession ends up in a generated file name
// unless the full name is requested.
const MaxIDLength = 20

// CompressedSuffix is appended to compressed output file names.
const CompressedSuffix = ".xz"

var endings = map[string]string{
	seqio.FormatGenBank:      ".gbk",
	seqio.FormatFASTA:        ".fa",
	seqio.FormatFeatureTable: ".ft",
	seqio.FormatGFF3:         ".gff",
}

// Ending returns the file extension used for format.
func Ending(format string) string {
	if e, ok := endings[format]; ok {
		return e
	}
	return ".txt"
}

// FileName returns the output file name for id. A non-empty prefix is put
// in front of the accession.
func FileName(id, prefix string, cfg *config.Config, compress bool) string {
	name := prefix + SafeID(id, cfg.KeepFilename) + Ending(cfg.Format)
	if compress {
		name += CompressedSuffix
	}
	return name
}

// SafeID turns an accession (or comma-joined list) into something usable as
// a file name: path separators and spaces become underscores, control
// characters and leading hyphens are dropped, and unless keep is set the
// result is cut to MaxIDLength runes.
func SafeID(id string, keep bool) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(id) {
		switch {
		case r == '/' || r == '\\' || r == ' ':
			b.WriteRune('_')
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}
	safe := strings.TrimLeft(b.String(), "-")

	if !keep {
		if runes := []rune(safe); len(runes) > MaxIDLength {
			safe = string(runes[:MaxIDLength])
		}
	}
	if safe == "" || safe == "." || safe == ".." {
		safe = "download"
	}
	return safe
}
