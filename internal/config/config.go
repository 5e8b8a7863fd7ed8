// Package config builds the immutable settings for one downloader run.
//
// Options carries whatever the command line produced; New validates it and
// rejects invalid combinations up front, so the rest of the program never
// re-checks them.
package config

import (
	"io"
	"os"
	"slices"
	"strings"

	"github.com/FocuswithJustin/ncbi-acc-download/core/errors"
	"github.com/FocuswithJustin/ncbi-acc-download/internal/seqio"
)

// Molecule types.
const (
	MoleculeNucleotide = "nucleotide"
	MoleculeProtein    = "protein"
)

// Extended validation levels.
const (
	ValidationNone    = "none"
	ValidationLoads   = "loads"
	ValidationAll     = "all"
	ValidationCorrect = "correct"
)

// Default NCBI endpoints.
const (
	DefaultEntrezURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/efetch.fcgi"
	DefaultViewerURL = "https://www.ncbi.nlm.nih.gov/sviewer/viewer.cgi"
)

// Molecules lists the accepted molecule types.
var Molecules = []string{MoleculeNucleotide, MoleculeProtein}

// Formats lists the accepted output formats.
var Formats = []string{seqio.FormatGenBank, seqio.FormatFASTA, seqio.FormatFeatureTable, seqio.FormatGFF3}

// ValidationLevels lists the accepted extended validation levels.
var ValidationLevels = []string{ValidationNone, ValidationLoads, ValidationAll, ValidationCorrect}

// Options is the unvalidated input to New.
type Options struct {
	Molecule           string
	Format             string // empty selects the molecule's default
	ExtendedValidation string // empty means none
	Recursive          bool
	APIKey             string
	Range              string // coordinate restriction, e.g. "100:500"
	EntrezURL          string
	ViewerURL          string
	KeepFilename       bool
	Verbose            bool
	// Progress receives verbose progress markers; defaults to os.Stderr.
	Progress io.Writer
}

// Config is the validated, read-only configuration of a run.
type Config struct {
	Molecule           string
	Format             string
	ExtendedValidation string
	Recursive          bool
	APIKey             string
	Range              *CoordinateRange
	EntrezURL          string
	ViewerURL          string
	KeepFilename       bool
	Verbose            bool
	Emitter            Emitter
}

// New validates opts and builds a Config. capability is consulted only to
// check that extended validation can actually run.
func New(opts Options, capability seqio.Capability) (*Config, error) {
	cfg := &Config{
		Molecule:           opts.Molecule,
		Format:             opts.Format,
		ExtendedValidation: opts.ExtendedValidation,
		Recursive:          opts.Recursive,
		APIKey:             opts.APIKey,
		EntrezURL:          opts.EntrezURL,
		ViewerURL:          opts.ViewerURL,
		KeepFilename:       opts.KeepFilename,
		Verbose:            opts.Verbose,
	}

	if cfg.Molecule == "" {
		cfg.Molecule = MoleculeNucleotide
	}
	if !slices.Contains(Molecules, cfg.Molecule) {
		return nil, errors.NewConfig("molecule", cfg.Molecule, "must be one of "+strings.Join(Molecules, ", "))
	}

	cfg.Format = normalizeFormat(cfg.Format)
	if cfg.Format == "" {
		cfg.Format = DefaultFormat(cfg.Molecule)
	}
	if !slices.Contains(Formats, cfg.Format) {
		return nil, errors.NewConfig("format", cfg.Format, "must be one of "+strings.Join(Formats, ", "))
	}

	if cfg.ExtendedValidation == "" {
		cfg.ExtendedValidation = ValidationNone
	}
	if !slices.Contains(ValidationLevels, cfg.ExtendedValidation) {
		return nil, errors.NewConfig("extended validation", cfg.ExtendedValidation,
			"must be one of "+strings.Join(ValidationLevels, ", "))
	}
	if cfg.ExtendedValidation != ValidationNone {
		if capability == nil || !capability.Available() {
			return nil, errors.NewConfig("extended validation", "", "sequence parsing is not available")
		}
		if !capability.Supports(cfg.ContentFormat()) {
			return nil, errors.NewConfig("extended validation", cfg.ExtendedValidation,
				cfg.ContentFormat()+" downloads cannot be parsed; use --extended-validation none")
		}
	}

	if strings.EqualFold(cfg.APIKey, "none") {
		cfg.APIKey = ""
	}

	if opts.Range != "" && !strings.EqualFold(opts.Range, "none") {
		r, err := ParseCoordinateRange(opts.Range)
		if err != nil {
			return nil, err
		}
		cfg.Range = r
	}

	if cfg.EntrezURL == "" {
		cfg.EntrezURL = DefaultEntrezURL
	}
	if cfg.ViewerURL == "" {
		cfg.ViewerURL = DefaultViewerURL
	}

	cfg.Emitter = NopEmitter{}
	if cfg.Verbose {
		w := opts.Progress
		if w == nil {
			w = os.Stderr
		}
		cfg.Emitter = WriterEmitter{W: w}
	}

	return cfg, nil
}

// DefaultFormat returns the format used when none was requested.
func DefaultFormat(molecule string) string {
	if molecule == MoleculeProtein {
		return seqio.FormatFASTA
	}
	return seqio.FormatGenBank
}

func normalizeFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "feature-table" || format == "ft" {
		return seqio.FormatFeatureTable
	}
	return format
}

// ContentFormat is the format NCBI actually returns: protein records are
// always served as FASTA whatever Format names.
func (c *Config) ContentFormat() string {
	if c.Molecule != MoleculeNucleotide {
		return seqio.FormatFASTA
	}
	return c.Format
}

// Emit forwards msg to the configured progress emitter.
func (c *Config) Emit(msg string) {
	if c.Emitter != nil {
		c.Emitter.Emit(msg)
	}
}

// WithFormat returns a copy of c using format.
func (c *Config) WithFormat(format string) *Config {
	clone := *c
	clone.Format = normalizeFormat(format)
	return &clone
}

// WithMolecule returns a copy of c using molecule.
func (c *Config) WithMolecule(molecule string) *Config {
	clone := *c
	clone.Molecule = molecule
	return &clone
}

// Emitter receives progress output in verbose mode.
type Emitter interface {
	Emit(msg string)
}

// NopEmitter discards everything.
type NopEmitter struct{}

func (NopEmitter) Emit(string) {}

// WriterEmitter writes progress straight to W without buffering.
type WriterEmitter struct {
	W io.Writer
}

func (e WriterEmitter) Emit(msg string) {
	io.WriteString(e.W, msg)
}
