package service

import (
	"context"
	"fmt"

	"lottery-proxy/internal/constants"
	"lottery-proxy/internal/domain"
	"lottery-proxy/internal/repository"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// CronScheduler registers the daily triggers: one poll start per region two
// minutes before its draw time, plus the late-day audit sweep. Everything
// runs in the lottery's home time zone regardless of host configuration.
type CronScheduler struct {
	cron   *cron.Cron
	sync   *SyncService
	audit  *AuditService
	store  DrawStore
	logger zerolog.Logger
}

func NewCronScheduler(syncSvc *SyncService, auditSvc *AuditService, store *repository.DrawRepository, logger zerolog.Logger) *CronScheduler {
	return &CronScheduler{
		cron:   cron.New(cron.WithLocation(mustLocation(logger))),
		sync:   syncSvc,
		audit:  auditSvc,
		store:  store,
		logger: logger,
	}
}

// Start registers the cron entries and kicks off the startup audit. With
// the store disabled the whole scheduling subsystem stays off; that is a
// valid degraded mode, not an error.
func (s *CronScheduler) Start() error {
	if !s.store.Enabled() {
		s.logger.Warn().Msg("store disabled, daily sync and audit crons not scheduled")
		return nil
	}

	for _, region := range domain.Regions() {
		sched := domain.ScheduleFor(region)
		if _, err := s.cron.AddFunc(sched.CronSpec, func() {
			s.logger.Info().Str("region", region.Slug()).Msg("cron trigger")
			s.sync.Trigger(region)
		}); err != nil {
			return fmt.Errorf("failed to schedule %s sync: %w", region.Slug(), err)
		}
		s.logger.Info().Str("region", region.Slug()).Str("cron", sched.CronSpec).Msg("region sync scheduled")
	}

	if _, err := s.cron.AddFunc(constants.AuditCronSpec, func() {
		s.audit.AuditAndBackfill(context.Background())
	}); err != nil {
		return fmt.Errorf("failed to schedule daily audit: %w", err)
	}
	s.logger.Info().Str("cron", constants.AuditCronSpec).Msg("daily audit scheduled")

	s.cron.Start()

	// catch anything missed while the process was down
	go s.audit.AuditAndBackfill(context.Background())

	return nil
}

// Stop halts the cron loop and cancels any in-flight region polls. Running
// cron callbacks are not interrupted.
func (s *CronScheduler) Stop() {
	s.cron.Stop()
	s.sync.Stop()
}

// Entries reports how many cron entries are registered, for diagnostics.
func (s *CronScheduler) Entries() int {
	return len(s.cron.Entries())
}
