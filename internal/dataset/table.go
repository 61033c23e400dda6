package dataset

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// MissingCell is the printable token substituted for empty or absent cells.
const MissingCell = "N/A"

// Table is a spreadsheet tab as read from a source: a header row and data rows.
// Cells keep whatever type the source produced (string, float64, bool, nil).
type Table struct {
	Headers []string
	Rows    [][]any
}

// Identity identifies one version of a source. Two equal identities mean the
// source content has not changed and a cached dataset can be reused.
type Identity struct {
	Source  string
	Version string
}

func (i Identity) String() string {
	return i.Source + "@" + i.Version
}

// Source produces raw tables. Identity must be cheap compared to Read.
type Source interface {
	Identity(ctx context.Context) (Identity, error)
	Read(ctx context.Context) (*Table, error)
}

// tableFromRows splits a grid of cells into header and data rows. Leading
// rows with no content are skipped until the header is found.
func tableFromRows(rows [][]any) (*Table, error) {
	headerIdx := -1
	for i, row := range rows {
		if !isBlankRow(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, ErrEmptySheet
	}

	headers := make([]string, len(rows[headerIdx]))
	for i, cell := range rows[headerIdx] {
		if cell != nil {
			headers[i] = fmt.Sprint(cell)
		}
	}

	return &Table{
		Headers: headers,
		Rows:    rows[headerIdx+1:],
	}, nil
}

func stringRows(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		out[i] = cells
	}
	return out
}

func isBlankRow(row []any) bool {
	for _, cell := range row {
		if cell == nil {
			continue
		}
		if s, ok := cell.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		return false
	}
	return true
}

// cellText renders any cell as text. Empty and missing cells become MissingCell.
func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return MissingCell
	case string:
		if x == "" {
			return MissingCell
		}
		return x
	case float64:
		return floatText(x)
	case float32:
		return floatText(float64(x))
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.DateOnly)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func floatText(f float64) string {
	if math.IsNaN(f) {
		return MissingCell
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
