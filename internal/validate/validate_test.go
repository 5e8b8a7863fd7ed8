package validate

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	nerrors "github.com/FocuswithJustin/ncbi-acc-download/core/errors"
	"github.com/FocuswithJustin/ncbi-acc-download/internal/seqio"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("reading fixture %s: %v", name, err)
	}
	return data
}

func TestRunPasses(t *testing.T) {
	fasta := []byte(">foo\nATGC\n>bar\nATGTGA\n")

	tests := []struct {
		name   string
		data   []byte
		format string
		level  string
	}{
		{"none skips parsing", []byte("garbage"), seqio.FormatGenBank, "none"},
		{"empty level skips parsing", []byte("garbage"), seqio.FormatGenBank, ""},
		{"fasta loads", fasta, seqio.FormatFASTA, "loads"},
		{"fasta all", fasta, seqio.FormatFASTA, "all"},
		{"genbank loads", readFixture(t, "wgs_full.gbk"), seqio.FormatGenBank, "loads"},
		{"genbank all", readFixture(t, "wgs_full.gbk"), seqio.FormatGenBank, "all"},
		{"partial contig loads", readFixture(t, "partialcontig.gbk"), seqio.FormatGenBank, "loads"},
		{"correct without problems", readFixture(t, "wgs_full.gbk"), seqio.FormatGenBank, "correct"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Run(tt.data, tt.format, tt.level, seqio.Default())
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if !bytes.Equal(out, tt.data) {
				t.Errorf("Run() changed the content:\n%s", out)
			}
		})
	}
}

func TestRunFails(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		format     string
		level      string
		capability seqio.Capability
		wantErr    error
	}{
		{"empty fasta", []byte(""), seqio.FormatFASTA, "loads", seqio.Default(), nerrors.ErrValidation},
		{"not genbank", []byte("<html>oops</html>\n"), seqio.FormatGenBank, "loads", seqio.Default(), nerrors.ErrInvalidInput},
		{"unparsable format", []byte("##gff-version 3\n"), seqio.FormatGFF3, "loads", seqio.Default(), nerrors.ErrUnsupported},
		{"no parser", []byte(">foo\nATGC\n"), seqio.FormatFASTA, "all", seqio.Unavailable(), nerrors.ErrValidation},
		{"nil parser", []byte(">foo\nATGC\n"), seqio.FormatFASTA, "loads", nil, nerrors.ErrValidation},
		{"partial contig all", readFixture(t, "partialcontig.gbk"), seqio.FormatGenBank, "all", seqio.Default(), nerrors.ErrValidation},
		{"unknown level", []byte(">foo\nATGC\n"), seqio.FormatFASTA, "strict", seqio.Default(), nerrors.ErrConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Run(tt.data, tt.format, tt.level, tt.capability)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Run() error = %v, want %v", err, tt.wantErr)
			}
			if out != nil {
				t.Errorf("Run() returned content alongside an error")
			}
			if tt.wantErr != nerrors.ErrConfig && !errors.Is(err, nerrors.ErrValidation) {
				t.Errorf("error %v should match ErrValidation", err)
			}
		})
	}
}

func TestRunAllReportsProblems(t *testing.T) {
	_, err := Run(readFixture(t, "partialcontig.gbk"), seqio.FormatGenBank, "all", seqio.Default())

	var vErr *nerrors.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("Run() error = %v, want *ValidationError", err)
	}
	if vErr.IDs != "ABCD01000003.1" || vErr.Level != "all" {
		t.Errorf("ValidationError = %+v", vErr)
	}
	for _, want := range []string{"40..90", "ABCD01000004.1"} {
		if !strings.Contains(vErr.Message, want) {
			t.Errorf("Message %q does not mention %s", vErr.Message, want)
		}
	}
}

func TestRunCorrect(t *testing.T) {
	data := readFixture(t, "partialcontig.gbk")

	before, err := seqio.ParseBytes(seqio.Default(), data, seqio.FormatGenBank)
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	if len(before) != 1 || len(before[0].Features) != 5 {
		t.Fatalf("fixture has %d records", len(before))
	}

	out, err := Run(data, seqio.FormatGenBank, "correct", seqio.Default())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	after, err := seqio.ParseBytes(seqio.Default(), out, seqio.FormatGenBank)
	if err != nil {
		t.Fatalf("corrected content does not parse: %v", err)
	}
	if len(after) != 1 {
		t.Fatalf("corrected content has %d records, want 1", len(after))
	}
	// Only the two offending features go: the gene running past base 60 and
	// the CDS joined with ABCD01000004.1. Features that fit stay, so this is
	// not the single-feature result of trimming everything but the source.
	var keys []string
	for _, f := range after[0].Features {
		keys = append(keys, f.Key+" "+f.Location)
	}
	if got := strings.Join(keys, ", "); got != "source 1..60, gene 1..30, CDS 1..30" {
		t.Errorf("corrected features = %s", got)
	}
	if after[0].Sequence != before[0].Sequence {
		t.Error("correction changed the sequence")
	}

	if _, err := Run(out, seqio.FormatGenBank, "all", seqio.Default()); err != nil {
		t.Errorf("corrected content fails validation: %v", err)
	}
}

func TestCorrectLeavesCleanRecordsAlone(t *testing.T) {
	records, err := seqio.ParseBytes(seqio.Default(), readFixture(t, "wgs_full.gbk"), seqio.FormatGenBank)
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	corrected := Correct(records)
	for i := range records {
		if corrected[i] != records[i] {
			t.Errorf("record %d was copied although nothing was dropped", i)
		}
	}
}

func TestCheck(t *testing.T) {
	records, err := seqio.ParseBytes(seqio.Default(), readFixture(t, "partialcontig.gbk"), seqio.FormatGenBank)
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	problems := Check(records)
	if len(problems) != 2 {
		t.Fatalf("Check() found %d problems, want 2: %v", len(problems), problems)
	}
	if problems[0].Feature.Key != "gene" || !strings.Contains(problems[0].Reason, "beyond") {
		t.Errorf("problem 0 = %v", problems[0])
	}
	if problems[1].Feature.Key != "CDS" || !strings.Contains(problems[1].Reason, "another record") {
		t.Errorf("problem 1 = %v", problems[1])
	}
}
