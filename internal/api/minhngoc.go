package api

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"lottery-proxy/internal/constants"
	"lottery-proxy/internal/domain"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

// DefaultMinhNgocBaseURL serves per-region run-state blobs as JS object
// literals. It is the primary source because it reports the draw directly on
// draw day, but as of now the blob carries only run metadata, no prize
// numbers, so every fetch resolves to "nothing yet" and the caller falls
// back to the history source.
const DefaultMinhNgocBaseURL = "https://dc.minhngoc.net/O0O/0/xstt"

var (
	// matches `kqxs.mn={run:0,tinh:"...",...}` inside the JS payload
	kqxsPattern    = regexp.MustCompile(`kqxs\.(mn|mb|mt)\s*=\s*(\{[^}]+\})`)
	bareKeyPattern = regexp.MustCompile(`(\w+)\s*:`)
)

var regionBlobFile = [domain.RegionCount]string{
	domain.RegionSouth:   "js_m1.js",
	domain.RegionCentral: "js_m3.js",
	domain.RegionNorth:   "js_m2.js",
}

// MinhNgocClient is the direct result source polled first on every tick.
type MinhNgocClient struct {
	baseURL string
	client  *fasthttp.Client
	logger  zerolog.Logger
}

func NewMinhNgocClient(logger zerolog.Logger) *MinhNgocClient {
	return &MinhNgocClient{
		baseURL: DefaultMinhNgocBaseURL,
		client: &fasthttp.Client{
			ReadTimeout:         constants.DirectFetchTimeout,
			WriteTimeout:        constants.DirectFetchTimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		logger: logger,
	}
}

type runState struct {
	Run    int             `json:"run"`
	Tinh   string          `json:"tinh"`
	NTime  int64           `json:"ntime"`
	Delay  int             `json:"delay"`
	Result json.RawMessage `json:"result"`
}

// FetchDirect fetches the region's run-state blob and returns any draws it
// carries. No draws with a nil error is the normal outcome, not a failure:
// the blob currently never contains prize numbers.
func (c *MinhNgocClient) FetchDirect(ctx context.Context, region domain.Region) ([]domain.Draw, error) {
	if region < 0 || int(region) >= domain.RegionCount {
		return nil, fmt.Errorf("unknown region %d", int(region))
	}
	// cache buster, same as a browser embed would send
	url := fmt.Sprintf("%s/%s?_=%d", c.baseURL, regionBlobFile[region], time.Now().UnixMilli())

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; LotterySync/1.0)")

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.Do(req, resp)
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("region", region.Slug()).Msg("direct source fetch failed")
		return nil, err
	}

	state, ok := parseRunState(resp.Body())
	if !ok {
		return nil, nil
	}
	if state.Run == 1 && len(state.Result) > 0 {
		// TODO: parse state.Result into draws once the upstream starts
		// publishing prize numbers in the blob
		c.logger.Info().Str("region", region.Slug()).Msg("direct source reports a running draw without usable numbers")
	}
	return nil, nil
}

// parseRunState extracts the kqxs object literal from the JS blob and
// repairs it into strict JSON (the upstream emits bare keys).
func parseRunState(body []byte) (*runState, bool) {
	m := kqxsPattern.FindSubmatch(body)
	if m == nil {
		return nil, false
	}
	repaired := bareKeyPattern.ReplaceAll(m[2], []byte(`"$1":`))
	var state runState
	if err := json.Unmarshal(repaired, &state); err != nil {
		return nil, false
	}
	return &state, true
}
