package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	nerrors "github.com/FocuswithJustin/ncbi-acc-download/core/errors"
	"github.com/FocuswithJustin/ncbi-acc-download/internal/ledger"
)

const testRecord = `LOCUS       X1                        4 bp    DNA     linear   BCT 01-JAN-2017
ACCESSION   X1
VERSION     X1.1
ORIGIN
        1 atgc
//
`

// newFakeNCBI serves testRecord for every id except BAD.
func newFakeNCBI(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") == "BAD" {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		w.Write([]byte(testRecord))
	}))
	t.Cleanup(server.Close)
	return server
}

func parseArgs(t *testing.T, args ...string) (*cli, *kong.Context) {
	t.Helper()
	var c cli
	parser, err := kong.New(&c, kong.Name("ncbi-acc-download"))
	if err != nil {
		t.Fatalf("kong.New() error = %v", err)
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		t.Fatalf("Parse(%v) error = %v", args, err)
	}
	return &c, ctx
}

func TestParseDefaultsToFetch(t *testing.T) {
	t.Setenv("NCBI_API_KEY", "from-env")

	c, ctx := parseArgs(t, "NC_000913.3", "NC_000914.1", "-m", "protein", "-F", "fasta", "-g")
	if !strings.HasPrefix(ctx.Command(), "fetch") {
		t.Errorf("Command() = %q, want fetch", ctx.Command())
	}
	if got := strings.Join(c.Fetch.IDs, ","); got != "NC_000913.3,NC_000914.1" {
		t.Errorf("IDs = %s", got)
	}
	if c.Fetch.Molecule != "protein" || c.Fetch.Format != "fasta" || !c.Fetch.Recursive {
		t.Errorf("Fetch = %+v", c.Fetch)
	}
	if c.Fetch.APIKey != "from-env" {
		t.Errorf("APIKey = %q, want value from NCBI_API_KEY", c.Fetch.APIKey)
	}
	if c.Fetch.ExtendedValidation != "none" || c.LogLevel != "warn" {
		t.Errorf("defaults not applied: %+v", c)
	}
}

func TestParseHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	c, ctx := parseArgs(t, "history", path, "-n", "5")
	if !strings.HasPrefix(ctx.Command(), "history") {
		t.Errorf("Command() = %q, want history", ctx.Command())
	}
	if c.History.Limit != 5 || c.History.Ledger != path {
		t.Errorf("History = %+v", c.History)
	}
}

func TestFetchCmd_Run(t *testing.T) {
	server := newFakeNCBI(t)
	dir := t.TempDir()
	t.Chdir(dir)

	ledgerPath := filepath.Join(dir, "ledger.db")
	cmd := &FetchCmd{
		IDs:                []string{"X1", "X2"},
		Molecule:           "nucleotide",
		ExtendedValidation: "loads",
		APIKey:             "none",
		URL:                server.URL,
		Ledger:             ledgerPath,
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, name := range []string{"X1.gbk", "X2.gbk"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("ReadFile(%s) error = %v", name, err)
		}
		if string(data) != testRecord {
			t.Errorf("%s = %q", name, data)
		}
	}

	l, err := ledger.Open(ledgerPath)
	if err != nil {
		t.Fatalf("ledger.Open() error = %v", err)
	}
	defer l.Close()
	entries, err := l.List(context.Background(), ledger.ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ledger has %d entries, want 2", len(entries))
	}
	if entries[0].RunID == "" || entries[0].RunID != entries[1].RunID {
		t.Errorf("entries should share one run id: %q / %q", entries[0].RunID, entries[1].RunID)
	}
}

func TestFetchCmd_RunSingleOutput(t *testing.T) {
	server := newFakeNCBI(t)
	out := filepath.Join(t.TempDir(), "all.gbk")

	cmd := &FetchCmd{
		IDs:        []string{"BAD", "X1", "X2"},
		Molecule:   "nucleotide",
		URL:        server.URL,
		Out:        out,
		MaxRetries: 1,
	}
	err := cmd.Run()
	if !errors.Is(err, nerrors.ErrDownload) {
		t.Fatalf("Run() error = %v, want ErrDownload", err)
	}
	if !strings.Contains(err.Error(), "1 of 3") {
		t.Errorf("error %q should count the failures", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != testRecord+testRecord {
		t.Errorf("combined output = %q", data)
	}
}

func TestFetchCmd_RunInvalidConfig(t *testing.T) {
	cmd := &FetchCmd{IDs: []string{"X1"}, Molecule: "nucleotide", ExtendedValidation: "strict"}
	if err := cmd.Run(); !errors.Is(err, nerrors.ErrConfig) {
		t.Errorf("Run() error = %v, want ErrConfig", err)
	}
}

func TestHistoryCmd_Run(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	l, err := ledger.Open(path)
	if err != nil {
		t.Fatalf("ledger.Open() error = %v", err)
	}
	for _, acc := range []string{"A1", "B2", "A1"} {
		if _, err := l.Record(context.Background(), ledger.Entry{
			RunID: "r", Accession: acc, Molecule: "nucleotide", Format: "genbank",
			Path: acc + ".gbk", Bytes: 4, Digest: strings.Repeat("ab", 32),
		}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	l.Close()

	var buf bytes.Buffer
	cmd := &HistoryCmd{Ledger: path, Accession: "A1", out: &buf}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("output has %d lines, want header + 2:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "WHEN") {
		t.Errorf("header = %q", lines[0])
	}
	for _, line := range lines[1:] {
		if !strings.Contains(line, "A1.gbk") || strings.Contains(line, "B2") {
			t.Errorf("unexpected row %q", line)
		}
		if !strings.Contains(line, strings.Repeat("ab", 8)) || strings.Contains(line, strings.Repeat("ab", 9)) {
			t.Errorf("digest should be shortened to 16 characters: %q", line)
		}
	}
}

func TestVersionCmd_Run(t *testing.T) {
	var buf bytes.Buffer
	if err := (&VersionCmd{out: &buf}).Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(buf.String(), version) {
		t.Errorf("output %q does not contain version", buf.String())
	}
}

func TestSetupLogging(t *testing.T) {
	if err := setupLogging("debug", "json"); err != nil {
		t.Errorf("setupLogging() error = %v", err)
	}
	if err := setupLogging("loud", "text"); err == nil {
		t.Error("setupLogging() accepted an unknown level")
	}
	if err := setupLogging("info", "xml"); err == nil {
		t.Error("setupLogging() accepted an unknown format")
	}
	setupLogging("warn", "text")
}
