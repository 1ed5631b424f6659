// Package normalize converts raw upstream issue records into canonical draws.
// Malformed input is never an error here: bad issues are dropped with a typed
// skip reason and processing continues, because a single garbled record must
// not poison a whole region fetch.
package normalize

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"lottery-proxy/internal/domain"
)

type SkipReason string

const (
	SkipBadDate      SkipReason = "bad_date"
	SkipBadDetail    SkipReason = "bad_detail"
	SkipDateFiltered SkipReason = "date_filtered"
	SkipNoResults    SkipReason = "no_results"
	SkipUnknownGame  SkipReason = "unknown_game"
)

// Skip records one dropped issue and why.
type Skip struct {
	TurnNum string
	Reason  SkipReason
}

// ParseTurnDate parses the upstream's locale date ("DD/MM/YYYY", sometimes
// with dashes) into a concrete date.
func ParseTurnDate(turnNum string) (time.Time, error) {
	s := strings.ReplaceAll(strings.TrimSpace(turnNum), "-", "/")
	parts := strings.Split(s, "/")
	if len(parts) < 3 {
		return time.Time{}, &time.ParseError{Layout: domain.TurnDateLayout, Value: turnNum}
	}
	d, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	m, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	y, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err1 != nil || err2 != nil || err3 != nil || m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, &time.ParseError{Layout: domain.TurnDateLayout, Value: turnNum}
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC), nil
}

// ParseDetail decodes an issue's detail payload into result lines. The
// payload is a JSON array of up to nine tier strings; each tier may hold a
// comma-separated list of winning numbers. PrizeOrder is the number's
// 1-based position within its tier, counting empty slots, so re-ingesting a
// corrected tier keeps stable keys. A non-string tier entry is skipped
// without invalidating the rest.
func ParseDetail(detail string) ([]domain.Result, bool) {
	var groups []any
	if err := json.Unmarshal([]byte(detail), &groups); err != nil {
		return nil, false
	}

	var results []domain.Result
	for i, raw := range groups {
		code, ok := domain.PrizeCodeForTier(i)
		if !ok {
			break
		}
		val, ok := raw.(string)
		if !ok || val == "" {
			continue
		}
		for j, num := range strings.Split(val, ",") {
			n := strings.TrimSpace(num)
			if n == "" {
				continue
			}
			results = append(results, domain.Result{
				PrizeCode:    code,
				PrizeOrder:   j + 1,
				ResultNumber: n,
			})
		}
	}
	return results, true
}

// IssuesToDraws converts one game's raw issues into draws, resolving the
// region and province from the game code. For northern games the province
// comes from the draw date's weekday rotation. filterDate, when non-empty,
// keeps only issues for that exact canonical date.
func IssuesToDraws(gameCode string, issues []domain.RawIssue, filterDate string) ([]domain.Draw, []Skip) {
	region, fixedProvince, ok := domain.GameRegionProvince(gameCode)
	if !ok {
		skips := make([]Skip, 0, len(issues))
		for _, issue := range issues {
			skips = append(skips, Skip{TurnNum: issue.TurnNum, Reason: SkipUnknownGame})
		}
		return nil, skips
	}

	var draws []domain.Draw
	var skips []Skip
	for _, issue := range issues {
		date, err := ParseTurnDate(issue.TurnNum)
		if err != nil {
			skips = append(skips, Skip{TurnNum: issue.TurnNum, Reason: SkipBadDate})
			continue
		}
		drawDate := domain.FormatDate(date)
		if filterDate != "" && drawDate != filterDate {
			skips = append(skips, Skip{TurnNum: issue.TurnNum, Reason: SkipDateFiltered})
			continue
		}

		province := fixedProvince
		if province == "" {
			province = domain.NorthProvinceForDate(date)
		}

		results, ok := ParseDetail(issue.Detail)
		if !ok {
			skips = append(skips, Skip{TurnNum: issue.TurnNum, Reason: SkipBadDetail})
			continue
		}
		if len(results) == 0 {
			skips = append(skips, Skip{TurnNum: issue.TurnNum, Reason: SkipNoResults})
			continue
		}

		draws = append(draws, domain.Draw{
			DrawDate:     drawDate,
			ProvinceCode: province,
			RegionCode:   region.Code(),
			Results:      results,
		})
	}
	return draws, skips
}
