package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StartupRecord is one startup-accelerator pairing after normalization.
// A startup appears once per accelerator it is affiliated with.
type StartupRecord struct {
	Startup     string    `json:"startup"`
	Accelerator string    `json:"accelerator"`
	Sector      string    `json:"sector"`
	Technology  string    `json:"technology"`
	TRLRaw      string    `json:"trl_raw"`
	TRLNum      *int      `json:"trl_num"`
	TRLBucket   TRLBucket `json:"trl_bucket"`
	StageRaw    string    `json:"stage_raw"`
	Stage       Stage     `json:"stage_norm"`
	State       string    `json:"state"`
}

// HasTRL reports whether a numeric TRL could be extracted for the record.
func (r StartupRecord) HasTRL() bool {
	return r.TRLNum != nil
}

// TRLBucket groups technology readiness levels into maturity bands
type TRLBucket string

const (
	TRLBucketEarly   TRLBucket = "Early (1–3)"
	TRLBucketMid     TRLBucket = "Mid (4–6)"
	TRLBucketLate    TRLBucket = "Late (7–9)"
	TRLBucketUnknown TRLBucket = "Unknown"
)

var trlBuckets = []TRLBucket{TRLBucketEarly, TRLBucketMid, TRLBucketLate, TRLBucketUnknown}

// TRLBuckets returns every bucket in display order.
func TRLBuckets() []TRLBucket {
	out := make([]TRLBucket, len(trlBuckets))
	copy(out, trlBuckets)
	return out
}

// BucketForTRL maps a TRL value to its band. Nil and out-of-range values are Unknown.
func BucketForTRL(n *int) TRLBucket {
	if n == nil {
		return TRLBucketUnknown
	}
	switch v := *n; {
	case v >= 1 && v <= 3:
		return TRLBucketEarly
	case v >= 4 && v <= 6:
		return TRLBucketMid
	case v >= 7 && v <= 9:
		return TRLBucketLate
	default:
		return TRLBucketUnknown
	}
}

// Code returns the short lower-case identifier used in query strings.
func (b TRLBucket) Code() string {
	switch b {
	case TRLBucketEarly:
		return "early"
	case TRLBucketMid:
		return "mid"
	case TRLBucketLate:
		return "late"
	default:
		return "unknown"
	}
}

// Valid reports whether b is one of the four known buckets.
func (b TRLBucket) Valid() bool {
	for _, known := range trlBuckets {
		if b == known {
			return true
		}
	}
	return false
}

// ParseTRLBucket accepts either a display label or a short code, case-insensitively.
func ParseTRLBucket(s string) (TRLBucket, error) {
	v := strings.TrimSpace(s)
	for _, b := range trlBuckets {
		if strings.EqualFold(v, string(b)) || strings.EqualFold(v, b.Code()) {
			return b, nil
		}
	}
	// Accept an ASCII hyphen in place of the en dash, e.g. "Mid (4-6)".
	ascii := strings.ReplaceAll(v, "-", "–")
	for _, b := range trlBuckets {
		if strings.EqualFold(ascii, string(b)) {
			return b, nil
		}
	}
	return "", fmt.Errorf("unknown TRL bucket %q", s)
}

// UnmarshalJSON accepts labels and short codes.
func (b *TRLBucket) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTRLBucket(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Stage is the normalized lifecycle phase of a startup
type Stage string

const (
	StageIdeation        Stage = "Ideation"
	StagePMF             Stage = "PMF"
	StageProductLaunched Stage = "Product/Launched"
	StageScaleUp         Stage = "Scale-up"
	StageUnknown         Stage = "Unknown"
)

var stages = []Stage{StageIdeation, StagePMF, StageProductLaunched, StageScaleUp, StageUnknown}

// Stages returns every stage in display order.
func Stages() []Stage {
	out := make([]Stage, len(stages))
	copy(out, stages)
	return out
}

// Rank is the position of s in display order; unknown values sort last.
func (s Stage) Rank() int {
	for i, known := range stages {
		if s == known {
			return i
		}
	}
	return len(stages)
}

// StartupRow is a single line of an accelerator's startup list
type StartupRow struct {
	Startup string `json:"startup"`
	Sector  string `json:"sector"`
	Stage   Stage  `json:"stage_norm"`
	TRLNum  *int   `json:"trl_num"`
	State   string `json:"state"`
}
