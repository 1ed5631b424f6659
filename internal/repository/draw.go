package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lottery-proxy/internal/domain"

	"github.com/rs/zerolog"
)

// DrawRepository is the only writer of draw and result rows. All idempotence
// comes from database-level ON CONFLICT handling, which keeps concurrent
// ingestion from the poll scheduler and the backfill auditor safe without
// application locks.
type DrawRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewDrawRepository accepts a nil DB; every method then reports
// domain.ErrStoreDisabled.
func NewDrawRepository(sqlDB *sql.DB, logger zerolog.Logger) *DrawRepository {
	return &DrawRepository{db: sqlDB, logger: logger}
}

func (r *DrawRepository) Enabled() bool { return r.db != nil }

// ImportDraws upserts a batch of draws over a single connection checkout.
// Each draw succeeds or is skipped independently: an unresolvable region or
// province increments Skipped and the batch continues. A draw that already
// exists is a no-op for draw identity; result rows overwrite result_number
// on conflict so a previously ingested wrong number can be corrected.
func (r *DrawRepository) ImportDraws(ctx context.Context, draws []domain.Draw) (domain.ImportStats, error) {
	var stats domain.ImportStats
	if r.db == nil {
		return stats, domain.ErrStoreDisabled
	}

	conn, err := r.db.Conn(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to check out connection: %w", err)
	}
	defer conn.Close()

	for _, d := range draws {
		if d.DrawDate == "" || d.ProvinceCode == "" || d.RegionCode == "" || len(d.Results) == 0 {
			continue
		}

		var regionID int64
		err := conn.QueryRowContext(ctx, `SELECT id FROM regions WHERE code = ?`, d.RegionCode).Scan(&regionID)
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug().Str("region_code", d.RegionCode).Str("draw_date", d.DrawDate).Msg("unknown region, skipping draw")
			stats.Skipped++
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("failed to resolve region %s: %w", d.RegionCode, err)
		}

		var provinceID int64
		err = conn.QueryRowContext(ctx,
			`SELECT id FROM lottery_provinces WHERE code = ? AND region_id = ?`,
			d.ProvinceCode, regionID,
		).Scan(&provinceID)
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug().Str("province_code", d.ProvinceCode).Str("draw_date", d.DrawDate).Msg("unknown province, skipping draw")
			stats.Skipped++
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("failed to resolve province %s: %w", d.ProvinceCode, err)
		}

		if _, err := conn.ExecContext(ctx,
			`INSERT INTO lottery_draws (draw_date, province_id, region_id)
			 VALUES (?, ?, ?)
			 ON CONFLICT(draw_date, province_id) DO NOTHING`,
			d.DrawDate, provinceID, regionID,
		); err != nil {
			return stats, fmt.Errorf("failed to upsert draw %s/%s: %w", d.DrawDate, d.ProvinceCode, err)
		}

		var drawID int64
		if err := conn.QueryRowContext(ctx,
			`SELECT id FROM lottery_draws WHERE draw_date = ? AND province_id = ?`,
			d.DrawDate, provinceID,
		).Scan(&drawID); err != nil {
			return stats, fmt.Errorf("failed to load draw id %s/%s: %w", d.DrawDate, d.ProvinceCode, err)
		}

		for _, res := range d.Results {
			if res.PrizeCode == "" || res.ResultNumber == "" {
				continue
			}
			order := res.PrizeOrder
			if order < 1 {
				order = 1
			}
			if _, err := conn.ExecContext(ctx,
				`INSERT INTO lottery_results (draw_id, prize_code, prize_order, result_number)
				 VALUES (?, ?, ?, ?)
				 ON CONFLICT(draw_id, prize_code, prize_order) DO UPDATE SET result_number = excluded.result_number`,
				drawID, res.PrizeCode, order, res.ResultNumber,
			); err != nil {
				return stats, fmt.Errorf("failed to upsert result %s/%s/%s: %w", d.DrawDate, d.ProvinceCode, res.PrizeCode, err)
			}
		}
		stats.Imported++
	}

	return stats, nil
}

// HasDrawsOn reports whether any draw is stored for the given date.
func (r *DrawRepository) HasDrawsOn(ctx context.Context, drawDate string) (bool, error) {
	if r.db == nil {
		return false, domain.ErrStoreDisabled
	}
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM lottery_draws WHERE draw_date = ?)`, drawDate,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check draws for %s: %w", drawDate, err)
	}
	return exists, nil
}
