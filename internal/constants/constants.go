package constants

import "time"

const (
	// FetchMaxAttempts bounds retries against the per-game history endpoint.
	FetchMaxAttempts = 5
	// FetchRetryBackoff keeps go-retry happy; the upstream is retried with
	// effectively no delay beyond network latency.
	FetchRetryBackoff = 1 * time.Millisecond
	// PerGameDelay spaces calls across a region's game list so the upstream
	// rate limiter stays quiet.
	PerGameDelay = 300 * time.Millisecond

	// PollIssueLimit is how many issues each poll tick requests per game.
	PollIssueLimit = 15
	// BackfillIssueLimit is the deeper page used by the auditor.
	BackfillIssueLimit = 30

	DefaultBackfillDays = 7
)

const (
	ExternalAPITimeout = 20 * time.Second
	DirectFetchTimeout = 15 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
	ProxyTimeout       = 30 * time.Second
)

const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// AuditCronSpec runs the daily backfill sweep after the last poll
	// window has closed.
	AuditCronSpec = "0 23 * * *"

	HistoryDefaultLimit = 200
	HistoryMaxLimit     = 500
)
