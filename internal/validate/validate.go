// Package validate runs the optional checks on downloaded content before it
// is written out.
//
// Levels:
//
//	none     no checks
//	loads    the content parses into at least one record
//	all      loads, and every feature lies inside its record's sequence
//	         without pointing into another accession
//	correct  loads, and features that would fail "all" are dropped
package validate

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/ncbi-acc-download/core/errors"
	"github.com/FocuswithJustin/ncbi-acc-download/internal/config"
	"github.com/FocuswithJustin/ncbi-acc-download/internal/seqio"
)

// Problem describes one feature that does not fit its record.
type Problem struct {
	RecordID string
	Feature  seqio.Feature
	Reason   string
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s %s %s", p.RecordID, p.Feature.Key, p.Feature.Location, p.Reason)
}

// Run validates data at level and returns the bytes to keep. Only the
// correct level returns content that differs from data.
func Run(data []byte, format, level string, capability seqio.Capability) ([]byte, error) {
	if level == config.ValidationNone || level == "" {
		return data, nil
	}

	if capability == nil || !capability.Available() {
		return nil, &errors.ValidationError{Level: level, Message: "sequence parsing is not available"}
	}

	records, err := seqio.ParseBytes(capability, data, format)
	if err != nil {
		return nil, &errors.ValidationError{Level: level, Message: "content does not parse", Err: err}
	}
	if len(records) == 0 {
		return nil, &errors.ValidationError{Level: level, Message: "no sequence records found"}
	}

	switch level {
	case config.ValidationLoads:
		return data, nil
	case config.ValidationAll:
		if problems := Check(records); len(problems) > 0 {
			return nil, &errors.ValidationError{
				IDs:     problems[0].RecordID,
				Level:   level,
				Message: summarize(problems),
			}
		}
		return data, nil
	case config.ValidationCorrect:
		out, err := seqio.SerializeBytes(capability, Correct(records), format)
		if err != nil {
			return nil, &errors.ValidationError{Level: level, Message: "cannot rewrite corrected records", Err: err}
		}
		return out, nil
	}

	return nil, errors.NewConfig("extended validation", level, "unknown level")
}

// Check returns every feature that runs past the end of its record or
// references another accession.
func Check(records []*seqio.Record) []Problem {
	var problems []Problem
	for _, rec := range records {
		for _, f := range rec.Features {
			if reason := featureProblem(rec, f); reason != "" {
				problems = append(problems, Problem{RecordID: rec.ID, Feature: f, Reason: reason})
			}
		}
	}
	return problems
}

// Correct returns records with the features reported by Check removed.
// Records without problems are returned as is; others are copied.
func Correct(records []*seqio.Record) []*seqio.Record {
	out := make([]*seqio.Record, 0, len(records))
	for _, rec := range records {
		kept := make([]seqio.Feature, 0, len(rec.Features))
		for _, f := range rec.Features {
			if featureProblem(rec, f) == "" {
				kept = append(kept, f)
			}
		}
		if len(kept) == len(rec.Features) {
			out = append(out, rec)
			continue
		}
		out = append(out, rec.WithFeatures(kept))
	}
	return out
}

func featureProblem(rec *seqio.Record, f seqio.Feature) string {
	if f.Remote() {
		return "references another record"
	}
	if length := rec.SequenceLength(); length > 0 && f.End() > length {
		return fmt.Sprintf("ends at %d beyond sequence length %d", f.End(), length)
	}
	return ""
}

func summarize(problems []Problem) string {
	const shown = 3
	parts := make([]string, 0, shown)
	for i, p := range problems {
		if i == shown {
			break
		}
		parts = append(parts, p.String())
	}
	msg := strings.Join(parts, "; ")
	if len(problems) > shown {
		msg += fmt.Sprintf(" (and %d more)", len(problems)-shown)
	}
	return msg
}
