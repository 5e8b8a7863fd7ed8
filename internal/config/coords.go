package config

import (
	"fmt"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/ncbi-acc-download/core/errors"
)

// CoordinateRange restricts a download to part of a sequence. Either bound
// may be missing, which leaves that side open.
type CoordinateRange struct {
	From *int
	To   *int
}

// coordinateExpr is the grammar for "from:to", "from..to" and "from.to".
type coordinateExpr struct {
	From      string `parser:"@Int?"`
	Separator string `parser:"@Sep"`
	To        string `parser:"@Int?"`
}

var coordinateLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Sep", Pattern: `\.\.|:|\.`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var coordinateParser = participle.MustBuild[coordinateExpr](
	participle.Lexer(coordinateLexer),
	participle.Elide("Whitespace"),
)

// ParseCoordinateRange parses a coordinate restriction such as "100:500",
// "100..500", "100.500", ":500" or "100:".
func ParseCoordinateRange(s string) (*CoordinateRange, error) {
	expr, err := coordinateParser.ParseString("", s)
	if err != nil {
		return nil, errors.NewConfig("range", s, "expected FROM:TO, FROM..TO or FROM.TO")
	}

	r := &CoordinateRange{}
	if expr.From != "" {
		n, err := strconv.Atoi(expr.From)
		if err != nil {
			return nil, errors.NewConfig("range", s, err.Error())
		}
		r.From = &n
	}
	if expr.To != "" {
		n, err := strconv.Atoi(expr.To)
		if err != nil {
			return nil, errors.NewConfig("range", s, err.Error())
		}
		r.To = &n
	}
	if r.From != nil && r.To != nil && *r.To < *r.From {
		return nil, errors.NewConfig("range", s, "end is before start")
	}

	return r, nil
}

func (r *CoordinateRange) String() string {
	from, to := "", ""
	if r.From != nil {
		from = strconv.Itoa(*r.From)
	}
	if r.To != nil {
		to = strconv.Itoa(*r.To)
	}
	return fmt.Sprintf("%s:%s", from, to)
}
