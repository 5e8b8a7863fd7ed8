package wgs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/FocuswithJustin/ncbi-acc-download/internal/config"
	"github.com/FocuswithJustin/ncbi-acc-download/internal/entrez"
	"github.com/FocuswithJustin/ncbi-acc-download/internal/logging"
	"github.com/FocuswithJustin/ncbi-acc-download/internal/seqio"
)

// StepSize is the number of accessions requested per batch.
const StepSize = 10

// Expansion kinds, as logged.
const (
	KindScaffold = "wgs_scafld"
	KindWGS      = "wgs"
	KindContig   = "contig"
)

// Expander replaces placeholder records with the records they reference.
type Expander struct {
	client *entrez.Client
	format seqio.Capability
	cfg    *config.Config
}

// NewExpander creates an Expander. A nil or unavailable capability turns
// every expansion into a no-op.
func NewExpander(client *entrez.Client, capability seqio.Capability, cfg *config.Config) *Expander {
	if capability == nil {
		capability = seqio.Unavailable()
	}
	return &Expander{client: client, format: capability, cfg: cfg}
}

// Enabled reports whether records in the configured format can be expanded.
func (e *Expander) Enabled() bool {
	return e.format.Available() && e.format.Supports(e.cfg.ContentFormat())
}

// ExpandBuffer parses data, expands it and serializes the result. When
// expansion is not possible data is returned as is.
func (e *Expander) ExpandBuffer(ctx context.Context, data []byte) ([]byte, error) {
	if !e.Enabled() {
		return data, nil
	}

	records, err := seqio.ParseBytes(e.format, data, e.cfg.ContentFormat())
	if err != nil {
		return nil, err
	}
	expanded, err := e.Expand(ctx, records)
	if err != nil {
		return nil, err
	}
	return seqio.SerializeBytes(e.format, expanded, e.cfg.ContentFormat())
}

// Expand returns records with every WGS or supercontig placeholder replaced
// by the records it references. Order is preserved. Any failure aborts the
// whole expansion.
func (e *Expander) Expand(ctx context.Context, records []*seqio.Record) ([]*seqio.Record, error) {
	if !e.Enabled() {
		return records, nil
	}

	updated := make([]*seqio.Record, 0, len(records))
	for _, rec := range records {
		var (
			parts []*seqio.Record
			err   error
		)

		switch kind := Classify(rec); kind {
		case KindScaffold, KindWGS:
			parts, err = e.downloadWGSParts(ctx, rec, kind)
		case KindContig:
			parts, err = e.fixSupercontig(ctx, rec)
		default:
			updated = append(updated, rec)
			continue
		}
		if err != nil {
			return nil, err
		}
		updated = append(updated, parts...)
	}

	return updated, nil
}

// Classify returns the expansion kind rec needs, or "" if it is complete.
func Classify(rec *seqio.Record) string {
	if !rec.Placeholder {
		return ""
	}
	switch {
	case len(rec.Annotations.WGSScaffold) > 0:
		return KindScaffold
	case len(rec.Annotations.WGS) > 0:
		return KindWGS
	case rec.Annotations.Contig != "":
		return KindContig
	}
	return ""
}

// RangeExpression returns the range text announced by rec for kind. The
// scaffold annotation holds one split range per line; the first one wins.
func RangeExpression(rec *seqio.Record, kind string) string {
	if kind == KindScaffold {
		return strings.Join(rec.Annotations.WGSScaffold[0], "-")
	}
	return strings.Join(rec.Annotations.WGS, "-")
}

func (e *Expander) downloadWGSParts(ctx context.Context, rec *seqio.Record, kind string) ([]*seqio.Record, error) {
	wgsRange, err := ParseRange(RangeExpression(rec, kind))
	if err != nil {
		return nil, err
	}

	logging.Expansion(ctx, rec.ID, kind, wgsRange.Len())

	var buf bytes.Buffer
	for batch := range wgsRange.Batches(StepSize) {
		if err := e.fetch(ctx, strings.Join(batch, ","), &buf); err != nil {
			return nil, err
		}
	}

	return seqio.ParseBytes(e.format, buf.Bytes(), e.cfg.ContentFormat())
}

// fixSupercontig asks NCBI for the assembled form of rec instead of
// fetching the parts listed in its CONTIG line.
func (e *Expander) fixSupercontig(ctx context.Context, rec *seqio.Record) ([]*seqio.Record, error) {
	logging.Expansion(ctx, rec.ID, KindContig, 1)

	var buf bytes.Buffer
	if err := e.fetch(ctx, rec.ID, &buf); err != nil {
		return nil, err
	}
	return seqio.ParseBytes(e.format, buf.Bytes(), e.cfg.ContentFormat())
}

func (e *Expander) fetch(ctx context.Context, ids string, w io.Writer) error {
	resp, err := e.client.Fetch(ctx, entrez.URLForFormat(e.cfg), entrez.BuildParams(ids, e.cfg))
	if err != nil {
		return err
	}
	e.cfg.Emit(fmt.Sprintf("Downloading %s\n", resp.URL))
	return entrez.WriteStream(resp, w, ids, e.cfg.Emitter)
}
