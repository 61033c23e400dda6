package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// Dataset errors
var (
	ErrSchema        = errors.New("dataset schema invalid")
	ErrSheetNotFound = errors.New("sheet not found")
	ErrEmptySheet    = errors.New("sheet has no header row")
	ErrNoSource      = errors.New("no dataset source configured")
)

// SchemaError reports required source columns that are absent from the header row.
type SchemaError struct {
	Missing []string
	Found   []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(quoteAll(e.Missing), ", "))
}

// Is lets errors.Is(err, ErrSchema) match any SchemaError.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

func quoteAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
