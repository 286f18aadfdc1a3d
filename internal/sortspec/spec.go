// Package sortspec models the multi-column usage table sort and its URL form.
package sortspec

import (
	"errors"
	"strings"
)

var ErrInvalidColumn = errors.New("invalid sort column")

// Column is a sortable usage table column.
type Column string

const (
	ColumnReportName  Column = "report_name"
	ColumnCreditsUsed Column = "credits_used"
)

// Columns lists every sortable column in display order.
var Columns = []Column{ColumnReportName, ColumnCreditsUsed}

// ParseColumn validates a column name.
func ParseColumn(raw string) (Column, error) {
	col := Column(strings.ToLower(strings.TrimSpace(raw)))
	switch col {
	case ColumnReportName, ColumnCreditsUsed:
		return col, nil
	}
	return "", ErrInvalidColumn
}

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

func parseDirection(raw string) (Direction, bool) {
	dir := Direction(strings.ToLower(strings.TrimSpace(raw)))
	switch dir {
	case Asc, Desc:
		return dir, true
	}
	return "", false
}

// Entry is one sort criterion.
type Entry struct {
	Column    Column    `json:"column"`
	Direction Direction `json:"direction"`
}

// Spec is an ordered list of criteria; the first entry is the primary sort.
// A column appears at most once.
type Spec []Entry

// Parse reads the "col:dir,col:dir" URL form. Unknown columns or directions,
// malformed pairs and repeated columns are dropped.
func Parse(raw string) Spec {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Spec{}
	}
	parts := strings.Split(raw, ",")
	spec := make(Spec, 0, len(parts))
	for _, part := range parts {
		colRaw, dirRaw, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		col, err := ParseColumn(colRaw)
		if err != nil {
			continue
		}
		dir, ok := parseDirection(dirRaw)
		if !ok {
			continue
		}
		if spec.index(col) >= 0 {
			continue
		}
		spec = append(spec, Entry{Column: col, Direction: dir})
	}
	return spec
}

// String renders the spec in its URL form.
func (s Spec) String() string {
	if len(s) == 0 {
		return ""
	}
	var b strings.Builder
	for i, entry := range s {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(string(entry.Column))
		b.WriteByte(':')
		b.WriteString(string(entry.Direction))
	}
	return b.String()
}

// Clone returns an independent copy of s.
func (s Spec) Clone() Spec {
	out := make(Spec, len(s))
	copy(out, s)
	return out
}

func (s Spec) index(col Column) int {
	for i, entry := range s {
		if entry.Column == col {
			return i
		}
	}
	return -1
}
