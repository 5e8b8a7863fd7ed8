package seqio

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/ncbi-acc-download/core/errors"
)

const (
	featureKeyColumn   = 5
	featureValueColumn = 21
	keywordWidth       = 12
)

// trailerKeywords may appear without a preceding feature table.
var trailerKeywords = map[string]bool{
	"WGS":        true,
	"WGS_SCAFLD": true,
	"CONTIG":     true,
	"TSA":        true,
	"TLS":        true,
}

// gbSection tracks where in a record the parser currently is.
type gbSection int

const (
	sectionOutside gbSection = iota
	sectionHeader
	sectionFeatures
	sectionTrailer
	sectionOrigin
)

func parseGenBank(r io.Reader) ([]*Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var (
		records []*Record
		cur     *Record
		section = sectionOutside
		lineNo  = 0
		keyword string
		seq     strings.Builder
	)

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if section == sectionOutside {
			if strings.TrimSpace(line) == "" {
				continue
			}
			if !strings.HasPrefix(line, "LOCUS") {
				return nil, errors.NewParse(FormatGenBank, lineNo, "expected LOCUS line")
			}
			cur = &Record{format: FormatGenBank}
			parseLocus(cur, line)
			cur.header = append(cur.header, line)
			section = sectionHeader
			keyword = "LOCUS"
			continue
		}

		if strings.HasPrefix(line, "//") {
			cur.Sequence = seq.String()
			cur.Placeholder = seq.Len() == 0
			seq.Reset()
			records = append(records, cur)
			cur = nil
			section = sectionOutside
			continue
		}

		continuation := line == "" || line[0] == ' '
		if !continuation {
			keyword = lineKeyword(line)
		}

		switch {
		case !continuation && keyword == "FEATURES":
			cur.featuresLine = line
			section = sectionFeatures
		case !continuation && keyword == "ORIGIN":
			cur.origin = append(cur.origin, line)
			section = sectionOrigin
		case section == sectionOrigin:
			cur.origin = append(cur.origin, line)
			appendSequence(&seq, line)
		case section == sectionFeatures && continuation:
			addFeatureLine(cur, line)
		case !continuation && trailerKeywords[keyword]:
			section = sectionTrailer
			cur.trailer = append(cur.trailer, line)
			parseTrailerLine(cur, keyword, line, continuation)
		case section == sectionHeader:
			cur.header = append(cur.header, line)
			parseHeaderLine(cur, keyword, line, continuation)
		default:
			// Anything after the feature table that is not ORIGIN: WGS,
			// WGS_SCAFLD, CONTIG, TSA and friends.
			section = sectionTrailer
			cur.trailer = append(cur.trailer, line)
			parseTrailerLine(cur, keyword, line, continuation)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading genbank")
	}
	if cur != nil {
		return nil, errors.NewParse(FormatGenBank, lineNo, "unterminated record "+cur.Name)
	}

	return records, nil
}

func lineKeyword(line string) string {
	if i := strings.IndexByte(line, ' '); i >= 0 {
		return line[:i]
	}
	return strings.TrimSpace(line)
}

func lineValue(line string) string {
	if len(line) <= keywordWidth {
		return ""
	}
	return strings.TrimSpace(line[keywordWidth:])
}

func parseLocus(rec *Record, line string) {
	fields := strings.Fields(line)
	if len(fields) > 1 {
		rec.Name = fields[1]
		rec.ID = fields[1]
	}
	if len(fields) > 2 {
		if n, err := strconv.Atoi(fields[2]); err == nil {
			rec.Length = n
		}
	}
}

func parseHeaderLine(rec *Record, keyword, line string, continuation bool) {
	switch keyword {
	case "DEFINITION":
		value := lineValue(line)
		if continuation {
			rec.Description += " " + value
		} else {
			rec.Description = value
		}
	case "ACCESSION":
		if !continuation && rec.ID == rec.Name {
			if fields := strings.Fields(lineValue(line)); len(fields) > 0 {
				rec.ID = fields[0]
			}
		}
	case "VERSION":
		if !continuation {
			if fields := strings.Fields(lineValue(line)); len(fields) > 0 {
				rec.ID = fields[0]
			}
		}
	}
}

func parseTrailerLine(rec *Record, keyword, line string, continuation bool) {
	value := lineValue(line)
	switch keyword {
	case "WGS":
		if !continuation {
			rec.Annotations.WGS = strings.Split(value, "-")
		}
	case "WGS_SCAFLD":
		if !continuation {
			rec.Annotations.WGSScaffold = append(rec.Annotations.WGSScaffold, strings.Split(value, "-"))
		}
	case "CONTIG":
		rec.Annotations.Contig += value
	}
}

func addFeatureLine(rec *Record, line string) {
	if len(line) > featureKeyColumn && line[featureKeyColumn] != ' ' && strings.TrimSpace(line[:featureKeyColumn]) == "" {
		key := strings.Fields(line)[0]
		location := ""
		if len(line) > featureValueColumn {
			location = strings.TrimSpace(line[featureValueColumn:])
		}
		rec.Features = append(rec.Features, Feature{Key: key, Location: location, lines: []string{line}})
		return
	}

	if len(rec.Features) == 0 {
		// Continuation before the first feature key; keep it verbatim.
		rec.featuresLine += "\n" + line
		return
	}

	f := &rec.Features[len(rec.Features)-1]
	value := strings.TrimSpace(line)
	if strings.HasPrefix(value, "/") {
		f.qualifiers = true
	}
	if !f.qualifiers {
		f.Location += value
	}
	f.lines = append(f.lines, line)
}

func appendSequence(b *strings.Builder, line string) {
	for _, c := range line {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '*' || c == '-' {
			b.WriteRune(c)
		}
	}
}

func writeGenBank(w *bufio.Writer, rec *Record) error {
	for _, l := range rec.header {
		writeLine(w, l)
	}
	if rec.featuresLine != "" {
		writeLine(w, rec.featuresLine)
	}
	for _, f := range rec.Features {
		for _, l := range f.lines {
			writeLine(w, l)
		}
	}
	for _, l := range rec.trailer {
		writeLine(w, l)
	}
	for _, l := range rec.origin {
		writeLine(w, l)
	}
	writeLine(w, "//")
	return nil
}

func writeLine(w *bufio.Writer, line string) {
	w.WriteString(line)
	w.WriteByte('\n')
}
