// Package entrez talks to the NCBI E-utilities efetch endpoint and the
// sequence viewer used for GFF3 reports.
package entrez

import (
	"net/url"
	"strconv"

	"github.com/FocuswithJustin/ncbi-acc-download/internal/config"
	"github.com/FocuswithJustin/ncbi-acc-download/internal/seqio"
)

// ToolName is sent as the tool parameter on every request.
const ToolName = "ncbi-acc-download"

// URLForFormat returns the endpoint serving cfg.Format.
func URLForFormat(cfg *config.Config) string {
	if cfg.Format == seqio.FormatGFF3 {
		return cfg.ViewerURL
	}
	return cfg.EntrezURL
}

// BuildParams builds the query for ids, a single accession or a
// comma-joined list.
func BuildParams(ids string, cfg *config.Config) url.Values {
	params := url.Values{}
	params.Set("tool", ToolName)
	params.Set("retmode", "text")
	params.Set("id", ids)
	params.Set("db", cfg.Molecule)

	if cfg.APIKey != "" {
		params.Set("api_key", cfg.APIKey)
	}

	if cfg.Range != nil {
		if cfg.Range.From != nil {
			params.Set("from", strconv.Itoa(*cfg.Range.From))
		}
		if cfg.Range.To != nil {
			params.Set("to", strconv.Itoa(*cfg.Range.To))
		}
	}

	switch cfg.ContentFormat() {
	case seqio.FormatGenBank:
		params.Set("rettype", "gbwithparts")
	case seqio.FormatFeatureTable:
		params.Set("rettype", "ft")
	case seqio.FormatGFF3:
		params.Set("report", "gff3")
	default:
		params.Set("rettype", "fasta")
	}

	return params
}
