package service

import (
	"context"
	"time"

	"lottery-proxy/internal/api"
	"lottery-proxy/internal/config"
	"lottery-proxy/internal/constants"
	"lottery-proxy/internal/domain"
	"lottery-proxy/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// AuditService is the safety net behind the poll scheduler: once a day (and
// at startup) it sweeps a trailing date window and backfills any date the
// store has nothing for.
type AuditService struct {
	history HistorySource
	store   DrawStore
	logger  zerolog.Logger

	days int
	loc  *time.Location
	now  func() time.Time

	issueLimit   int
	perGameDelay time.Duration
}

func NewAuditService(history *api.XosoClient, store *repository.DrawRepository, cfg *config.Config, logger zerolog.Logger) *AuditService {
	return newAuditService(history, store, cfg.BackfillDays, logger)
}

func newAuditService(history HistorySource, store DrawStore, days int, logger zerolog.Logger) *AuditService {
	if days < 1 {
		days = constants.DefaultBackfillDays
	}
	return &AuditService{
		history:      history,
		store:        store,
		logger:       logger,
		days:         days,
		loc:          mustLocation(logger),
		now:          time.Now,
		issueLimit:   constants.BackfillIssueLimit,
		perGameDelay: constants.PerGameDelay,
	}
}

// AuditAndBackfill checks the trailing window for dates with no stored
// draws and re-ingests them. The auditor is strictly additive: a date with
// any draw at all is left alone. A failure on one date never aborts the
// remaining dates.
func (s *AuditService) AuditAndBackfill(ctx context.Context) {
	if !s.store.Enabled() {
		s.logger.Warn().Msg("store disabled, audit skipped")
		return
	}

	dates := s.auditDates()
	s.logger.Info().Int("days", len(dates)).Str("from", dates[len(dates)-1]).Str("to", dates[0]).Msg("audit sweep started")

	for _, date := range dates {
		has, err := s.store.HasDrawsOn(ctx, date)
		if err != nil {
			s.logger.Error().Err(err).Str("draw_date", date).Msg("coverage check failed, skipping date")
			continue
		}
		if has {
			s.logger.Debug().Str("draw_date", date).Msg("date already covered")
			continue
		}

		draws := s.fetchAllRegions(ctx, date)
		if len(draws) == 0 {
			s.logger.Info().Str("draw_date", date).Msg("no draws found upstream for missing date")
			continue
		}

		stats, err := s.store.ImportDraws(ctx, draws)
		if err != nil {
			s.logger.Error().Err(err).Str("draw_date", date).Msg("backfill import failed, continuing")
			continue
		}
		s.logger.Info().
			Str("draw_date", date).
			Int("imported", stats.Imported).
			Int("skipped", stats.Skipped).
			Msg("backfilled missing date")
	}

	s.logger.Info().Msg("audit sweep finished")
}

// auditDates builds the audited window, newest first. Before the earliest
// region's draw hour today cannot have data yet, so the window shifts back
// one day; either way it spans exactly s.days dates.
func (s *AuditService) auditDates() []string {
	now := s.now().In(s.loc)
	start := now
	if now.Hour() < domain.EarliestDrawHour {
		start = now.AddDate(0, 0, -1)
	}

	dates := make([]string, 0, s.days)
	for i := 0; i < s.days; i++ {
		dates = append(dates, domain.FormatDate(start.AddDate(0, 0, -i)))
	}
	return dates
}

// fetchAllRegions pulls every region's full game list for one date. Regions
// share no state, so they fetch concurrently; per-game pacing still applies
// within each region.
func (s *AuditService) fetchAllRegions(ctx context.Context, date string) []domain.Draw {
	var byRegion [domain.RegionCount][]domain.Draw

	g, gctx := errgroup.WithContext(ctx)
	for _, region := range domain.Regions() {
		g.Go(func() error {
			draws := fetchRegionDraws(gctx, s.history, region, date, s.issueLimit, s.perGameDelay, s.logger)
			byRegion[region] = draws
			s.logger.Info().
				Str("draw_date", date).
				Str("region", region.Slug()).
				Int("draws", len(draws)).
				Msg("region backfill fetch complete")
			return nil
		})
	}
	// workers never return errors; per-game failures are isolated upstream
	_ = g.Wait()

	var all []domain.Draw
	for _, draws := range byRegion {
		all = append(all, draws...)
	}
	return all
}
