package dataset

import (
	"encoding/hex"
	"strconv"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/abhimanyukatariya/msh-interactive-dashboard/pkg/contracts/domain"
)

// Dataset is the cleaned, immutable result of one load. Callers must not
// modify Records.
type Dataset struct {
	Records []domain.StartupRecord
	Meta    Meta
}

// Meta describes where a dataset came from and what it contains.
type Meta struct {
	Source      string    `json:"source"`
	Version     string    `json:"version"`
	LoadedAt    time.Time `json:"loaded_at"`
	Rows        int       `json:"rows"`
	SkippedRows int       `json:"skipped_rows"`
	Fingerprint string    `json:"fingerprint"`
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

const (
	fieldSep  = 0x1f
	recordSep = 0x1e
)

// fingerprint hashes the normalized records with BLAKE2b-256. Equal
// fingerprints mean equal dashboard output for every filter.
func fingerprint(records []domain.StartupRecord) string {
	h, _ := blake2b.New256(nil)
	buf := make([]byte, 0, 256)
	for _, r := range records {
		buf = buf[:0]
		for _, f := range []string{r.Startup, r.Accelerator, r.Sector, r.Technology, r.TRLRaw, r.StageRaw, r.State} {
			buf = append(buf, f...)
			buf = append(buf, fieldSep)
		}
		if r.TRLNum != nil {
			buf = strconv.AppendInt(buf, int64(*r.TRLNum), 10)
		}
		buf = append(buf, recordSep)
		h.Write(buf)
	}
	return hex.EncodeToString(h.Sum(nil))
}
