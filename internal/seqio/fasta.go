package seqio

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/TuftsBCB/io/fasta"
	"github.com/TuftsBCB/seq"

	"github.com/FocuswithJustin/ncbi-acc-download/core/errors"
)

// parseFASTA decodes sequences with the fasta reader and keeps the raw
// lines of every entry next to them for byte-exact output.
func parseFASTA(r io.Reader) ([]*Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading fasta")
	}

	raw, err := splitFASTA(data)
	if err != nil || len(raw) == 0 {
		return nil, err
	}

	var records []*Record
	fr := fasta.NewReader(bytes.NewReader(data))
	for {
		s, err := fr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewParse(FormatFASTA, 0, err.Error())
		}
		records = append(records, fromSequence(s))
	}

	if len(records) != len(raw) {
		return nil, errors.NewParse(FormatFASTA, 0, "entry count does not match '>' headers")
	}
	for i, rec := range records {
		rec.header = raw[i][:1]
		rec.origin = raw[i][1:]
	}
	return records, nil
}

func fromSequence(s seq.Sequence) *Record {
	rec := &Record{format: FormatFASTA}
	title := strings.TrimSpace(strings.TrimPrefix(s.Name, ">"))
	if id, desc, ok := strings.Cut(title, " "); ok {
		rec.ID, rec.Description = id, strings.TrimSpace(desc)
	} else {
		rec.ID = title
	}
	rec.Name = rec.ID
	rec.Sequence = string(s.Residues)
	rec.Length = len(s.Residues)
	return rec
}

// splitFASTA groups the lines of data per entry, header first.
func splitFASTA(data []byte) ([][]string, error) {
	var entries [][]string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, ">"):
			entries = append(entries, []string{line})
		case len(entries) == 0:
			if strings.TrimSpace(line) != "" {
				return nil, errors.NewParse(FormatFASTA, lineNo, "sequence data before first '>' header")
			}
		default:
			entries[len(entries)-1] = append(entries[len(entries)-1], line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading fasta")
	}
	return entries, nil
}

func writeFASTA(w *bufio.Writer, rec *Record) error {
	if len(rec.header) == 0 {
		title := rec.ID
		if rec.Description != "" {
			title += " " + rec.Description
		}
		fw := fasta.NewWriter(w)
		if err := fw.Write(seq.Sequence{Name: title, Residues: []seq.Residue(rec.Sequence)}); err != nil {
			return errors.Wrap(err, "writing fasta")
		}
		return fw.Flush()
	}

	for _, l := range rec.header {
		writeLine(w, l)
	}
	for _, l := range rec.origin {
		writeLine(w, l)
	}
	return nil
}
