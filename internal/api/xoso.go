package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lottery-proxy/internal/config"
	"lottery-proxy/internal/constants"
	"lottery-proxy/internal/domain"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"github.com/valyala/fasthttp"
)

// DefaultXosoBaseURL is the upstream the proxy fronts. A relay can be put in
// front of it via RELAY_BASE_URL for deployments with blocked egress IPs.
const DefaultXosoBaseURL = "https://xoso188.net"

const historyPath = "/api/front/open/lottery/history/list/game"

// browserHeaders mimics a real browser session; the upstream rejects bare
// clients.
var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/144.0.0.0 Safari/537.36 Edg/144.0.0.0",
	"Accept-Language":           "en-US,en;q=0.9",
	"Cache-Control":             "max-age=0",
	"Sec-Ch-Ua":                 `"Not(A:Brand";v="8", "Chromium";v="144", "Microsoft Edge";v="144"`,
	"Sec-Ch-Ua-Mobile":          "?0",
	"Sec-Ch-Ua-Platform":        `"Windows"`,
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Sec-Fetch-User":            "?1",
	"Upgrade-Insecure-Requests": "1",
}

// XosoClient is the per-game history source: the fallback used when the
// direct source has nothing, and the only source for backfill.
type XosoClient struct {
	baseURL string
	client  *fasthttp.Client
	logger  zerolog.Logger
}

func NewXosoClient(cfg *config.Config, logger zerolog.Logger) *XosoClient {
	baseURL := DefaultXosoBaseURL
	if cfg.RelayBaseURL != "" {
		baseURL = cfg.RelayBaseURL
	}
	return &XosoClient{
		baseURL: baseURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		logger: logger,
	}
}

type historyResponse struct {
	Success bool `json:"success"`
	// errorCode shows up as either a string or a number depending on the
	// upstream error path
	ErrorCode json.RawMessage `json:"errorCode"`
	T         struct {
		IssueList []domain.RawIssue `json:"issueList"`
	} `json:"t"`
}

func (r *historyResponse) hasErrorCode() bool {
	ec := string(r.ErrorCode)
	switch ec {
	case "", "0", `"0"`, `""`, "null":
		return false
	}
	return true
}

// FetchGameIssues fetches one game's recent issues. Transient upstream
// trouble (non-200, non-JSON, empty body carrying an error code) is retried
// up to the attempt ceiling with no deliberate delay; after that the game is
// reported empty. An empty result is inconclusive, not proof that no draw
// happened.
func (c *XosoClient) FetchGameIssues(ctx context.Context, gameCode string, limit int) ([]domain.RawIssue, error) {
	url := fmt.Sprintf("%s%s?limitNum=%d&gameCode=%s", c.baseURL, historyPath, limit, gameCode)

	var issues []domain.RawIssue
	backoff := retry.WithMaxRetries(constants.FetchMaxAttempts-1, retry.NewConstant(constants.FetchRetryBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		list, err := c.fetchOnce(ctx, url)
		if err != nil {
			return retry.RetryableError(err)
		}
		issues = list
		return nil
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("game_code", gameCode).Msg("game history fetch exhausted retries")
		return nil, fmt.Errorf("fetch %s: %w", gameCode, err)
	}
	return issues, nil
}

func (c *XosoClient) fetchOnce(ctx context.Context, url string) ([]domain.RawIssue, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	if err := c.do(ctx, req, resp); err != nil {
		return nil, err
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("upstream status %d", resp.StatusCode())
	}

	var decoded historyResponse
	if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
		return nil, fmt.Errorf("non-JSON upstream body: %w", err)
	}
	if len(decoded.T.IssueList) == 0 && decoded.hasErrorCode() {
		return nil, fmt.Errorf("upstream error code %s", decoded.ErrorCode)
	}
	return decoded.T.IssueList, nil
}

// Passthrough forwards an arbitrary API path to the upstream, preserving
// status and content type. Used by the transparent proxy surface.
func (c *XosoClient) Passthrough(ctx context.Context, method, pathAndQuery, accept string) (int, string, []byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(DefaultXosoBaseURL + pathAndQuery)
	req.Header.SetMethod(method)
	if accept == "" {
		accept = "application/json"
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", "lottery-proxy")

	if err := c.do(ctx, req, resp); err != nil {
		return 0, "", nil, err
	}

	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return resp.StatusCode(), string(resp.Header.ContentType()), body, nil
}

func (c *XosoClient) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	if deadline, ok := ctx.Deadline(); ok {
		return c.client.DoDeadline(req, resp, deadline)
	}
	return c.client.Do(req, resp)
}
