// Command ncbi-acc-download downloads sequence records from NCBI by
// accession.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/ncbi-acc-download/core/errors"
	"github.com/FocuswithJustin/ncbi-acc-download/internal/config"
	"github.com/FocuswithJustin/ncbi-acc-download/internal/download"
	"github.com/FocuswithJustin/ncbi-acc-download/internal/entrez"
	"github.com/FocuswithJustin/ncbi-acc-download/internal/ledger"
	"github.com/FocuswithJustin/ncbi-acc-download/internal/logging"
	"github.com/FocuswithJustin/ncbi-acc-download/internal/seqio"
)

const version = "0.3.0"

type cli struct {
	LogLevel  string `name:"log-level" default:"warn" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" default:"text" enum:"text,json" help:"Log format (text, json)"`

	Fetch   FetchCmd   `cmd:"" default:"withargs" help:"Download records by accession (default command)"`
	History HistoryCmd `cmd:"" help:"Show downloads recorded in a ledger"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// CLI defines the command-line interface.
var CLI cli

// FetchCmd downloads one file per accession, or everything into --out.
type FetchCmd struct {
	IDs []string `arg:"" name:"NCBI-accession" help:"Accession(s) to download"`

	Molecule           string `short:"m" default:"nucleotide" enum:"nucleotide,protein" help:"Molecule type to download"`
	Format             string `short:"F" help:"File format: genbank, fasta, featuretable or gff3 (default: genbank for nucleotide, fasta for protein)"`
	ExtendedValidation string `short:"e" name:"extended-validation" default:"none" help:"Check downloaded records: none, loads, all or correct"`
	Recursive          bool   `short:"g" help:"Also download the records referenced by WGS and supercontig entries"`
	APIKey             string `name:"api-key" env:"NCBI_API_KEY" default:"none" help:"NCBI Entrez API key"`
	Range              string `help:"Only download part of the sequence, e.g. 100:500"`
	Out                string `short:"o" help:"Write all downloads to this file ('-' for stdout)"`
	Prefix             string `short:"p" help:"Prefix for generated file names"`
	KeepFilename       bool   `name:"keep-filename" help:"Do not truncate long accessions in file names"`
	Compress           bool   `short:"z" help:"Compress output with xz"`
	Verbose            bool   `short:"v" help:"Print progress while downloading"`
	URL                string `name:"url" help:"Entrez efetch endpoint"`
	ViewerURL          string `name:"url-viewer" help:"Sequence viewer endpoint used for gff3"`
	Ledger             string `name:"ledger" type:"path" env:"NCBI_ACC_LEDGER" help:"SQLite file recording completed downloads"`
	MaxRetries         int    `name:"max-retries" default:"0" help:"Give up after this many rate-limited retries (0 retries forever)"`
}

// Run downloads every accession. A failed accession does not stop the
// others; the command fails if any of them did.
func (c *FetchCmd) Run() error {
	capability := seqio.Default()
	cfg, err := config.New(config.Options{
		Molecule:           c.Molecule,
		Format:             c.Format,
		ExtendedValidation: c.ExtendedValidation,
		Recursive:          c.Recursive,
		APIKey:             c.APIKey,
		Range:              c.Range,
		EntrezURL:          c.URL,
		ViewerURL:          c.ViewerURL,
		KeepFilename:       c.KeepFilename,
		Verbose:            c.Verbose,
	}, capability)
	if err != nil {
		return err
	}

	client := entrez.NewClient(nil)
	client.MaxRetries = c.MaxRetries
	d := download.New(client, cfg, capability)

	if c.Ledger != "" {
		l, err := ledger.Open(c.Ledger)
		if err != nil {
			return err
		}
		defer l.Close()
		d.Ledger = l
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logging.WithRunID(ctx, logging.NewRunID())

	failed := 0
	wroteOut := false
	for _, id := range c.IDs {
		target := download.Target{Prefix: c.Prefix, Compress: c.Compress}
		if c.Out != "" {
			target.Path = c.Out
			target.Append = wroteOut
		}

		if _, err := d.DownloadToFile(ctx, id, target); err != nil {
			logging.DownloadFailed(ctx, id, err)
			failed++
			if ctx.Err() != nil {
				break
			}
			continue
		}
		wroteOut = true
	}

	if failed > 0 {
		return errors.Wrapf(errors.ErrDownload, "%d of %d downloads failed", failed, len(c.IDs))
	}
	return nil
}

// HistoryCmd lists ledger entries.
type HistoryCmd struct {
	Ledger    string `arg:"" type:"existingfile" help:"Ledger file written by fetch --ledger"`
	Accession string `short:"a" help:"Only show this accession"`
	Limit     int    `short:"n" default:"20" help:"Show at most this many entries (0 for all)"`

	out io.Writer `kong:"-"`
}

func (c *HistoryCmd) Run() error {
	l, err := ledger.Open(c.Ledger)
	if err != nil {
		return err
	}
	defer l.Close()

	entries, err := l.List(context.Background(), ledger.ListOptions{Accession: c.Accession, Limit: c.Limit})
	if err != nil {
		return err
	}

	w := c.out
	if w == nil {
		w = os.Stdout
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tACCESSION\tFORMAT\tBYTES\tPATH\tBLAKE3")
	for _, e := range entries {
		digest := e.Digest
		if len(digest) > 16 {
			digest = digest[:16]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Accession, e.Format, e.Bytes, e.Path, digest)
	}
	return tw.Flush()
}

// VersionCmd prints version information.
type VersionCmd struct {
	out io.Writer `kong:"-"`
}

func (c *VersionCmd) Run() error {
	w := c.out
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprintf(w, "ncbi-acc-download version %s (sqlite: %s)\n", version, ledger.DriverType())
	return nil
}

// setupLogging applies the global logging flags.
func setupLogging(levelName, formatName string) error {
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(formatName)
	if err != nil {
		return err
	}
	logging.InitLogger(level, format, os.Stderr)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("ncbi-acc-download"),
		kong.Description("Download sequence records from NCBI by accession"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	ctx.FatalIfErrorf(setupLogging(CLI.LogLevel, CLI.LogFormat))
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
