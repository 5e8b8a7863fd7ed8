// Package download fetches single accessions and writes them out, running
// WGS expansion and extended validation on the way.
package download

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/FocuswithJustin/ncbi-acc-download/core/errors"
	"github.com/FocuswithJustin/ncbi-acc-download/internal/config"
	"github.com/FocuswithJustin/ncbi-acc-download/internal/entrez"
	"github.com/FocuswithJustin/ncbi-acc-download/internal/ledger"
	"github.com/FocuswithJustin/ncbi-acc-download/internal/logging"
	"github.com/FocuswithJustin/ncbi-acc-download/internal/output"
	"github.com/FocuswithJustin/ncbi-acc-download/internal/seqio"
	"github.com/FocuswithJustin/ncbi-acc-download/internal/validate"
	"github.com/FocuswithJustin/ncbi-acc-download/internal/wgs"
)

// Downloader retrieves accessions with one configuration.
type Downloader struct {
	client     *entrez.Client
	cfg        *config.Config
	capability seqio.Capability
	expander   *wgs.Expander

	// Ledger, if set, records every file written by DownloadToFile.
	Ledger *ledger.Ledger
}

// Result describes a completed download.
type Result struct {
	ID     string
	URL    string
	Path   string // empty unless written by DownloadToFile
	Bytes  int64
	Digest string // BLAKE3 of the content, hex encoded
}

// Target says where DownloadToFile writes.
type Target struct {
	// Path overrides the generated file name.
	Path string
	// Prefix is put in front of generated file names.
	Prefix   string
	Append   bool
	Compress bool
}

// New creates a Downloader. capability may be nil when no sequence parser
// is available; recursion then becomes a no-op.
func New(client *entrez.Client, cfg *config.Config, capability seqio.Capability) *Downloader {
	if capability == nil {
		capability = seqio.Unavailable()
	}
	return &Downloader{
		client:     client,
		cfg:        cfg,
		capability: capability,
		expander:   wgs.NewExpander(client, capability, cfg),
	}
}

// Retrieve downloads id and returns the final content: expanded when
// recursion is on and validated (or corrected) at the configured level.
// Nothing is returned unless every step succeeded.
func (d *Downloader) Retrieve(ctx context.Context, id string) ([]byte, string, error) {
	resp, err := d.client.Fetch(ctx, entrez.URLForFormat(d.cfg), entrez.BuildParams(id, d.cfg))
	if err != nil {
		return nil, "", err
	}
	url := resp.URL
	d.cfg.Emit(fmt.Sprintf("Downloading %s\n", url))

	var buf bytes.Buffer
	if err := entrez.WriteStream(resp, &buf, id, d.cfg.Emitter); err != nil {
		return nil, url, err
	}
	data := buf.Bytes()

	if d.cfg.Recursive {
		data, err = d.expander.ExpandBuffer(ctx, data)
		if err != nil {
			return nil, url, err
		}
	}

	data, err = validate.Run(data, d.cfg.ContentFormat(), d.cfg.ExtendedValidation, d.capability)
	if err != nil {
		var vErr *errors.ValidationError
		if errors.As(err, &vErr) && vErr.IDs == "" {
			vErr.IDs = id
		}
		return nil, url, err
	}

	return data, url, nil
}

// Download retrieves id and writes it to sink.
func (d *Downloader) Download(ctx context.Context, id string, sink io.Writer) (*Result, error) {
	data, url, err := d.Retrieve(ctx, id)
	if err != nil {
		return nil, err
	}
	n, err := sink.Write(data)
	if err != nil {
		return nil, errors.NewIO("write", id, err)
	}
	return &Result{ID: id, URL: url, Bytes: int64(n), Digest: output.Digest(data)}, nil
}

// DownloadToFile retrieves id and writes it to the file chosen by target.
// The file is only opened once the download succeeded, so a failure never
// leaves a truncated file behind.
func (d *Downloader) DownloadToFile(ctx context.Context, id string, target Target) (*Result, error) {
	start := time.Now()

	data, url, err := d.Retrieve(ctx, id)
	if err != nil {
		return nil, err
	}

	path := target.Path
	if path == "" {
		path = output.FileName(id, target.Prefix, d.cfg, target.Compress)
	}

	sink, err := output.Open(path, target.Append, target.Compress)
	if err != nil {
		return nil, err
	}
	if _, err := sink.Write(data); err != nil {
		sink.Close()
		return nil, err
	}
	if err := sink.Close(); err != nil {
		return nil, err
	}

	res := &Result{ID: id, URL: url, Path: path, Bytes: sink.Bytes(), Digest: sink.Digest()}
	logging.DownloadFinished(ctx, id, path, res.Bytes, res.Digest, time.Since(start))

	if d.Ledger != nil {
		_, err := d.Ledger.Record(ctx, ledger.Entry{
			RunID:     logging.GetRunID(ctx),
			Accession: id,
			Molecule:  d.cfg.Molecule,
			Format:    d.cfg.Format,
			URL:       url,
			Path:      path,
			Bytes:     res.Bytes,
			Digest:    res.Digest,
		})
		if err != nil {
			logging.WarnContext(ctx, "ledger_write_failed", "id", id, "error", err.Error())
		}
	}

	return res, nil
}
