package domain

import (
	"errors"
	"time"
)

// DateLayout is the canonical draw date format used in the store and all
// internal APIs. Lexicographic order equals chronological order.
const DateLayout = "2006-01-02"

// TurnDateLayout is the locale format the upstream uses for issue dates.
const TurnDateLayout = "02/01/2006"

// ErrStoreDisabled is returned by every repository method when the service
// runs without a configured database path.
var ErrStoreDisabled = errors.New("lottery store disabled: no database configured")

// RawIssue is one per-game history record as the upstream returns it. Detail
// is an opaque JSON string holding the nine prize-tier groups.
type RawIssue struct {
	TurnNum string `json:"turnNum"`
	Detail  string `json:"detail"`
}

// Result is one prize-tier line within a draw. PrizeOrder disambiguates
// multiple winning numbers in the same tier (1-based). ResultNumber stays a
// string so leading zeros survive.
type Result struct {
	PrizeCode    string `json:"prize_code"`
	PrizeOrder   int    `json:"prize_order"`
	ResultNumber string `json:"result_number"`
}

// Draw is a single province's single-day outcome with its result lines.
type Draw struct {
	DrawDate     string   `json:"draw_date"`
	ProvinceCode string   `json:"province_code"`
	RegionCode   string   `json:"region_code"`
	Results      []Result `json:"results"`
}

// ImportStats reports the outcome of one import batch. Skipped counts draws
// with unresolvable region or province references.
type ImportStats struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// FormatDate renders a time as a canonical draw date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
