package dataset

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/abhimanyukatariya/msh-interactive-dashboard/pkg/contracts/domain"
)

// Source column headers, matched exactly after trimming surrounding whitespace.
// The TRL header uses full-width parentheses.
const (
	ColumnStartup     = "Name of Startup"
	ColumnAccelerator = "Name of Accelerator"
	ColumnSector      = "Sector"
	ColumnTechnology  = "Technology used (AI, IoT, DeepTech, Blockchain etc.)"
	ColumnTRL         = "Technology Readiness Level （TRL）"
	ColumnState       = "State"
	ColumnStage       = "Stage of startup (Ideation, PMF, Product launched, Scale up)"
)

// RequiredColumns lists the source headers every dataset must carry.
var RequiredColumns = []string{
	ColumnStartup,
	ColumnAccelerator,
	ColumnSector,
	ColumnTechnology,
	ColumnTRL,
	ColumnState,
	ColumnStage,
}

var digitRun = regexp.MustCompile(`\p{Nd}+`)

// columnIndex maps each required header to its position in the table.
type columnIndex map[string]int

func resolveColumns(headers []string) (columnIndex, error) {
	positions := make(map[string]int, len(headers))
	found := make([]string, 0, len(headers))
	for i, h := range headers {
		name := strings.TrimSpace(h)
		if _, dup := positions[name]; dup {
			continue
		}
		positions[name] = i
		found = append(found, name)
	}

	idx := make(columnIndex, len(RequiredColumns))
	var missing []string
	for _, col := range RequiredColumns {
		pos, ok := positions[col]
		if !ok {
			missing = append(missing, col)
			continue
		}
		idx[col] = pos
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing, Found: found}
	}
	return idx, nil
}

func (c columnIndex) cell(row []any, col string) any {
	pos := c[col]
	if pos >= len(row) {
		return nil
	}
	return row[pos]
}

// Normalize selects the required columns, derives TRL and stage fields and
// trims free text. It fails with a *SchemaError when a required column is
// absent; no partial dataset is returned.
func Normalize(table *Table) (*Dataset, error) {
	if table == nil {
		return nil, &SchemaError{Missing: RequiredColumns}
	}
	cols, err := resolveColumns(table.Headers)
	if err != nil {
		return nil, err
	}

	records := make([]domain.StartupRecord, 0, len(table.Rows))
	skipped := 0
	for _, row := range table.Rows {
		if isBlankRow(row) {
			skipped++
			continue
		}
		records = append(records, normalizeRow(cols, row))
	}

	return &Dataset{
		Records: records,
		Meta: Meta{
			Rows:        len(records),
			SkippedRows: skipped,
			Fingerprint: fingerprint(records),
		},
	}, nil
}

func normalizeRow(cols columnIndex, row []any) domain.StartupRecord {
	trlRaw := cellText(cols.cell(row, ColumnTRL))
	stageRaw := cellText(cols.cell(row, ColumnStage))
	trl := ExtractTRL(trlRaw)

	return domain.StartupRecord{
		Startup:     strings.TrimSpace(cellText(cols.cell(row, ColumnStartup))),
		Accelerator: strings.TrimSpace(cellText(cols.cell(row, ColumnAccelerator))),
		Sector:      strings.TrimSpace(cellText(cols.cell(row, ColumnSector))),
		Technology:  strings.TrimSpace(cellText(cols.cell(row, ColumnTechnology))),
		TRLRaw:      trlRaw,
		TRLNum:      trl,
		TRLBucket:   domain.BucketForTRL(trl),
		StageRaw:    stageRaw,
		Stage:       NormalizeStage(stageRaw),
		State:       strings.TrimSpace(cellText(cols.cell(row, ColumnState))),
	}
}

// ExtractTRL returns the first run of decimal digits in raw as an integer.
// Digits from any script count ("４" is 4). It returns nil when raw has no
// digits or the run does not fit in an int.
func ExtractTRL(raw string) *int {
	run := digitRun.FindString(raw)
	if run == "" {
		return nil
	}
	n := 0
	for _, r := range run {
		d := digitValue(r)
		if n > (math.MaxInt-d)/10 {
			return nil
		}
		n = n*10 + d
	}
	return &n
}

// digitValue returns the numeric value of a Unicode decimal digit. Decimal
// digits are encoded in contiguous runs of ten starting at zero, so the
// offset into its Nd range gives the value.
func digitValue(r rune) int {
	if r >= '0' && r <= '9' {
		return int(r - '0')
	}
	for _, rg := range unicode.Nd.R16 {
		if r >= rune(rg.Lo) && r <= rune(rg.Hi) {
			return int((r-rune(rg.Lo))/rune(rg.Stride)) % 10
		}
	}
	for _, rg := range unicode.Nd.R32 {
		if r >= rune(rg.Lo) && r <= rune(rg.Hi) {
			return int((r-rune(rg.Lo))/rune(rg.Stride)) % 10
		}
	}
	return 0
}

// NormalizeStage classifies a free-text stage. The first matching keyword wins,
// so "Ideation to Scale-up" is Ideation.
func NormalizeStage(raw string) domain.Stage {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(s, "ideation"):
		return domain.StageIdeation
	case strings.Contains(s, "pmf"):
		return domain.StagePMF
	case strings.Contains(s, "product"), strings.Contains(s, "launched"), strings.Contains(s, "launch"):
		return domain.StageProductLaunched
	case strings.Contains(s, "scale"):
		return domain.StageScaleUp
	default:
		return domain.StageUnknown
	}
}
