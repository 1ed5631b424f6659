package service

import (
	"context"
	"sync"
	"time"

	"lottery-proxy/internal/api"
	"lottery-proxy/internal/constants"
	"lottery-proxy/internal/domain"
	"lottery-proxy/internal/normalize"
	"lottery-proxy/internal/repository"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// DirectSource yields same-day draws straight from the primary upstream. No
// draws with a nil error is a normal outcome.
type DirectSource interface {
	FetchDirect(ctx context.Context, region domain.Region) ([]domain.Draw, error)
}

// HistorySource yields raw per-game issue records from the fallback
// upstream. An empty result is inconclusive, never proof of a missing draw.
type HistorySource interface {
	FetchGameIssues(ctx context.Context, gameCode string, limit int) ([]domain.RawIssue, error)
}

// DrawStore is the ingestion entry point plus the coverage check the
// auditor needs.
type DrawStore interface {
	ImportDraws(ctx context.Context, draws []domain.Draw) (domain.ImportStats, error)
	HasDrawsOn(ctx context.Context, drawDate string) (bool, error)
	Enabled() bool
}

// pollState is one region's slot in the scheduler. Owned exclusively by
// SyncService under its mutex.
type pollState struct {
	active         bool
	startedAt      time.Time
	runID          string
	loggedFallback bool
	cancel         context.CancelFunc
}

// SyncService runs the per-region poll loops: Idle -> Polling ->
// Resolved/TimedOut. At most one poll per region is active; ticks within a
// region are strictly sequential because the timer is re-armed only after
// the previous fetch+ingest completes.
type SyncService struct {
	direct  DirectSource
	history HistorySource
	store   DrawStore
	logger  zerolog.Logger

	loc *time.Location
	now func() time.Time

	schedules    [domain.RegionCount]domain.Schedule
	issueLimit   int
	perGameDelay time.Duration

	mu    sync.Mutex
	state [domain.RegionCount]pollState
}

func NewSyncService(direct *api.MinhNgocClient, history *api.XosoClient, store *repository.DrawRepository, logger zerolog.Logger) *SyncService {
	return newSyncService(direct, history, store, logger)
}

func newSyncService(direct DirectSource, history HistorySource, store DrawStore, logger zerolog.Logger) *SyncService {
	s := &SyncService{
		direct:       direct,
		history:      history,
		store:        store,
		logger:       logger,
		loc:          mustLocation(logger),
		now:          time.Now,
		issueLimit:   constants.PollIssueLimit,
		perGameDelay: constants.PerGameDelay,
	}
	for _, region := range domain.Regions() {
		s.schedules[region] = domain.ScheduleFor(region)
	}
	return s
}

func mustLocation(logger zerolog.Logger) *time.Location {
	loc, err := time.LoadLocation(domain.Timezone)
	if err != nil {
		logger.Warn().Err(err).Str("zone", domain.Timezone).Msg("time zone unavailable, using local time")
		return time.Local
	}
	return loc
}

// Trigger starts the region's poll loop. Fire and forget: a trigger while
// the region is already polling is a no-op, and the loop runs until it
// resolves today's result or the poll window closes.
func (s *SyncService) Trigger(region domain.Region) {
	if region < 0 || int(region) >= domain.RegionCount {
		s.logger.Warn().Int("region", int(region)).Msg("trigger for unknown region ignored")
		return
	}
	if !s.store.Enabled() {
		s.logger.Warn().Str("region", region.Slug()).Msg("store disabled, region sync unavailable")
		return
	}

	s.mu.Lock()
	st := &s.state[region]
	if st.active {
		s.mu.Unlock()
		s.logger.Debug().Str("region", region.Slug()).Msg("poll already active, trigger ignored")
		return
	}
	runID, err := gonanoid.New()
	if err != nil {
		runID = domain.FormatDate(s.now())
	}
	ctx, cancel := context.WithCancel(context.Background())
	*st = pollState{active: true, startedAt: s.now(), runID: runID, cancel: cancel}
	s.mu.Unlock()

	sched := s.schedules[region]
	today := domain.FormatDate(s.now().In(s.loc))
	s.logger.Info().
		Str("region", region.Slug()).
		Str("run_id", runID).
		Str("draw_date", today).
		Str("draw_window", sched.DrawStart+"-"+sched.DrawEnd).
		Dur("poll_interval", sched.PollInterval).
		Msg("poll started")

	go s.runPoll(ctx, region, runID, today)
}

// Polling reports whether the region currently has an active poll loop.
func (s *SyncService) Polling(region domain.Region) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state[region].active
}

// Stop cancels every active poll loop. Used at shutdown.
func (s *SyncService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state {
		if s.state[i].cancel != nil {
			s.state[i].cancel()
		}
	}
}

func (s *SyncService) runPoll(ctx context.Context, region domain.Region, runID, today string) {
	defer s.clearState(region)
	sched := s.schedules[region]
	start := s.now()

	for {
		if s.now().Sub(start) > sched.MaxPollDuration {
			// terminal but not an error: the backfill auditor picks
			// up whatever this run missed
			s.logger.Warn().Str("region", region.Slug()).Str("run_id", runID).Msg("poll window exhausted without a result")
			return
		}

		if s.tick(ctx, region, runID, today) {
			return
		}

		timer := time.NewTimer(sched.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info().Str("region", region.Slug()).Str("run_id", runID).Msg("poll cancelled")
			return
		case <-timer.C:
		}
	}
}

// tick runs one poll attempt and reports whether the run is resolved.
func (s *SyncService) tick(ctx context.Context, region domain.Region, runID, today string) bool {
	draws, err := s.direct.FetchDirect(ctx, region)
	if err != nil {
		s.logger.Debug().Err(err).Str("region", region.Slug()).Msg("direct source unavailable")
	}
	if len(draws) == 0 {
		s.noteFallback(region, runID)
		draws = fetchRegionDraws(ctx, s.history, region, today, s.issueLimit, s.perGameDelay, s.logger)
	}

	var forToday []domain.Draw
	for _, d := range draws {
		if d.DrawDate == today {
			forToday = append(forToday, d)
		}
	}
	if len(forToday) == 0 {
		return false
	}

	stats, err := s.store.ImportDraws(ctx, forToday)
	if err != nil {
		s.logger.Error().Err(err).Str("region", region.Slug()).Str("run_id", runID).Msg("import failed")
		return true
	}
	s.logger.Info().
		Str("region", region.Slug()).
		Str("run_id", runID).
		Str("draw_date", today).
		Int("imported", stats.Imported).
		Int("skipped", stats.Skipped).
		Msg("poll resolved")
	return true
}

func (s *SyncService) noteFallback(region domain.Region, runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := &s.state[region]
	if !st.loggedFallback {
		st.loggedFallback = true
		s.logger.Info().Str("region", region.Slug()).Str("run_id", runID).Msg("direct source has no result yet, falling back to game history")
	}
}

func (s *SyncService) clearState(region domain.Region) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := &s.state[region]
	if st.cancel != nil {
		st.cancel()
	}
	*st = pollState{}
}

// SyncTestResult is the diagnostic dry-run report. No ingestion happens.
type SyncTestResult struct {
	OK            bool            `json:"ok"`
	Region        string          `json:"region"`
	DrawDate      string          `json:"drawDate"`
	DrawsCount    int             `json:"drawsCount"`
	ForTodayCount int             `json:"forTodayCount"`
	Sample        *SyncTestSample `json:"sample,omitempty"`
}

type SyncTestSample struct {
	DrawDate     string `json:"draw_date"`
	ProvinceCode string `json:"province_code"`
	ResultsCount int    `json:"resultsCount"`
}

// TestRegionFetch exercises the fallback fetch path end to end without
// touching the store.
func (s *SyncService) TestRegionFetch(ctx context.Context, region domain.Region) *SyncTestResult {
	today := domain.FormatDate(s.now().In(s.loc))
	draws := fetchRegionDraws(ctx, s.history, region, "", s.issueLimit, s.perGameDelay, s.logger)

	result := &SyncTestResult{
		OK:         true,
		Region:     region.Slug(),
		DrawDate:   today,
		DrawsCount: len(draws),
	}
	for _, d := range draws {
		if d.DrawDate == today {
			result.ForTodayCount++
		}
	}
	if len(draws) > 0 {
		result.Sample = &SyncTestSample{
			DrawDate:     draws[0].DrawDate,
			ProvinceCode: draws[0].ProvinceCode,
			ResultsCount: len(draws[0].Results),
		}
	}
	return result
}

// fetchRegionDraws walks a region's game list through the history source and
// normalizes everything into draws. One game's failure never aborts the
// rest; a fixed delay spaces the per-game calls so the upstream rate
// limiter stays quiet.
func fetchRegionDraws(ctx context.Context, source HistorySource, region domain.Region, filterDate string, limit int, delay time.Duration, logger zerolog.Logger) []domain.Draw {
	games := domain.RegionGameCodes(region)
	var all []domain.Draw
	for i, gameCode := range games {
		if ctx.Err() != nil {
			return all
		}
		issues, err := source.FetchGameIssues(ctx, gameCode, limit)
		if err != nil {
			logger.Debug().Err(err).Str("game_code", gameCode).Msg("game fetch failed, continuing with remaining games")
		}
		draws, skips := normalize.IssuesToDraws(gameCode, issues, filterDate)
		if len(skips) > 0 {
			logger.Debug().Str("game_code", gameCode).Int("dropped", len(skips)).Msg("issues dropped during normalization")
		}
		all = append(all, draws...)

		if delay > 0 && i < len(games)-1 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return all
			case <-timer.C:
			}
		}
	}
	return all
}
