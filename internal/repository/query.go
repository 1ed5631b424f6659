package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"lottery-proxy/internal/domain"
)

// DrawRecord is one stored draw with its provenance resolved for reads.
type DrawRecord struct {
	ID           int64           `json:"id"`
	DrawDate     string          `json:"draw_date"`
	ProvinceCode string          `json:"province_code"`
	ProvinceName string          `json:"province_name"`
	RegionCode   string          `json:"region_code"`
	CreatedAt    time.Time       `json:"created_at"`
	Results      []domain.Result `json:"results,omitempty"`
}

// GameHistory is the stored history for one game in the shape the upstream
// API exposes.
type GameHistory struct {
	Name     string            `json:"name"`
	Code     string            `json:"code"`
	Sort     int               `json:"sort"`
	NavCate  string            `json:"navCate"`
	OpenTime string            `json:"openTimeByRegion"`
	Issues   []domain.RawIssue `json:"issues"`
}

// DrawsByDate lists draws for a date, optionally filtered by region code,
// ordered the way the front end renders them.
func (r *DrawRepository) DrawsByDate(ctx context.Context, drawDate, regionCode string) ([]DrawRecord, error) {
	if r.db == nil {
		return nil, domain.ErrStoreDisabled
	}

	query := `SELECT d.id, d.draw_date, p.code, p.name, rg.code, d.created_at
		FROM lottery_draws d
		JOIN lottery_provinces p ON d.province_id = p.id
		JOIN regions rg ON d.region_id = rg.id
		WHERE d.draw_date = ?`
	args := []any{drawDate}
	if regionCode != "" {
		query += ` AND rg.code = ?`
		args = append(args, regionCode)
	}
	query += ` ORDER BY rg.id, p.name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query draws for %s: %w", drawDate, err)
	}
	defer rows.Close()

	var records []DrawRecord
	for rows.Next() {
		var rec DrawRecord
		if err := rows.Scan(&rec.ID, &rec.DrawDate, &rec.ProvinceCode, &rec.ProvinceName, &rec.RegionCode, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan draw row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ResultsByDrawID lists a draw's result lines in tier order.
func (r *DrawRepository) ResultsByDrawID(ctx context.Context, drawID int64) ([]domain.Result, error) {
	if r.db == nil {
		return nil, domain.ErrStoreDisabled
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT prize_code, prize_order, result_number
		 FROM lottery_results WHERE draw_id = ?
		 ORDER BY prize_code, prize_order`, drawID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results for draw %d: %w", drawID, err)
	}
	defer rows.Close()

	var results []domain.Result
	for rows.Next() {
		var res domain.Result
		if err := rows.Scan(&res.PrizeCode, &res.PrizeOrder, &res.ResultNumber); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// HistoryListGame renders one game's stored draws in the upstream issue-list
// shape (newest first, detail re-encoded as the nine tier groups). It
// returns nil when the game code is unknown.
func (r *DrawRepository) HistoryListGame(ctx context.Context, gameCode string, limit int) (*GameHistory, error) {
	if r.db == nil {
		return nil, domain.ErrStoreDisabled
	}

	var (
		name       string
		regionCode string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT p.name, rg.code
		 FROM lottery_provinces p
		 JOIN regions rg ON p.region_id = rg.id
		 WHERE p.api_game_code = ?
		 LIMIT 1`, gameCode,
	).Scan(&name, &regionCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve game %s: %w", gameCode, err)
	}

	region, _ := domain.ParseRegion(regionCode)
	history := &GameHistory{
		Name:     name,
		Code:     gameCode,
		Sort:     region.SortKey(),
		NavCate:  region.Slug(),
		OpenTime: region.OpenTime(),
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT d.id, d.draw_date
		 FROM lottery_draws d
		 JOIN lottery_provinces p ON d.province_id = p.id
		 WHERE p.api_game_code = ?
		 ORDER BY d.draw_date DESC
		 LIMIT ?`, gameCode, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history for %s: %w", gameCode, err)
	}
	defer rows.Close()

	type drawRow struct {
		id   int64
		date string
	}
	var drawRows []drawRow
	for rows.Next() {
		var dr drawRow
		if err := rows.Scan(&dr.id, &dr.date); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		drawRows = append(drawRows, dr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, dr := range drawRows {
		results, err := r.ResultsByDrawID(ctx, dr.id)
		if err != nil {
			return nil, err
		}
		history.Issues = append(history.Issues, domain.RawIssue{
			TurnNum: turnNumFromDate(dr.date),
			Detail:  detailFromResults(results),
		})
	}
	return history, nil
}

// turnNumFromDate renders a canonical date back into the upstream's
// DD/MM/YYYY form.
func turnNumFromDate(drawDate string) string {
	t, err := time.Parse(domain.DateLayout, drawDate)
	if err != nil {
		return drawDate
	}
	return t.Format(domain.TurnDateLayout)
}

// detailFromResults re-packs result lines into the nine comma-joined tier
// groups the upstream serves.
func detailFromResults(results []domain.Result) string {
	var groups [len(domain.PrizeCodes)]string
	for _, res := range results {
		idx, ok := domain.TierForPrizeCode(res.PrizeCode)
		if !ok {
			continue
		}
		if groups[idx] != "" {
			groups[idx] += "," + res.ResultNumber
		} else {
			groups[idx] = res.ResultNumber
		}
	}
	encoded, err := json.Marshal(groups[:])
	if err != nil {
		return "[]"
	}
	return string(encoded)
}

// GameCodes lists every seeded game code, used by diagnostics.
func (r *DrawRepository) GameCodes(ctx context.Context) ([]string, error) {
	if r.db == nil {
		return nil, domain.ErrStoreDisabled
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT api_game_code FROM lottery_provinces WHERE api_game_code IS NOT NULL ORDER BY api_game_code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list game codes: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		if strings.TrimSpace(code) != "" {
			codes = append(codes, code)
		}
	}
	return codes, rows.Err()
}
