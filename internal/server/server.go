// Package server exposes the HTTP surface: the upstream-compatible history
// endpoint backed by the store, a transparent passthrough proxy for
// everything the store cannot answer, and the internal ingest/trigger
// endpoints.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"lottery-proxy/internal/api"
	"lottery-proxy/internal/constants"
	"lottery-proxy/internal/domain"
	"lottery-proxy/internal/normalize"
	"lottery-proxy/internal/repository"
	"lottery-proxy/internal/service"

	"github.com/rs/zerolog"
)

type Server struct {
	repo    *repository.DrawRepository
	syncSvc *service.SyncService
	xoso    *api.XosoClient
	logger  zerolog.Logger
}

func New(repo *repository.DrawRepository, syncSvc *service.SyncService, xoso *api.XosoClient, logger zerolog.Logger) *Server {
	return &Server{repo: repo, syncSvc: syncSvc, xoso: xoso, logger: logger}
}

// Routes wires every endpoint into a mux. Specific patterns win over the
// catch-all /api/ passthrough.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/front/open/lottery/history/list/game", s.handleHistoryListGame)
	mux.HandleFunc("GET /api/lottery/fetch", s.handleLotteryFetch)
	mux.HandleFunc("POST /api/lottery/import", s.handleImport)
	mux.HandleFunc("POST /api/lottery/sync", s.handleSync)
	mux.HandleFunc("GET /api/lottery/sync-test", s.handleSyncTest)
	mux.HandleFunc("GET /api/lottery/db/draws", s.handleDBDraws)
	mux.HandleFunc("GET /api/lottery/db/history/{gameCode}", s.handleDBHistory)
	mux.HandleFunc("/api/", s.handlePassthrough)
	return mux
}

type issueListPayload struct {
	T struct {
		IssueList []domain.RawIssue `json:"issueList"`
	} `json:"t"`
}

func issueList(issues []domain.RawIssue) issueListPayload {
	var p issueListPayload
	if issues == nil {
		issues = []domain.RawIssue{}
	}
	p.T.IssueList = issues
	return p
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("lottery proxy running"))
}

// handleHistoryListGame answers the upstream's own history endpoint from
// the store when it can, and falls through to the passthrough proxy when
// the store has nothing for the game.
func (s *Server) handleHistoryListGame(w http.ResponseWriter, r *http.Request) {
	gameCode := r.URL.Query().Get("gameCode")
	if gameCode != "" && s.repo.Enabled() {
		limit := clampLimit(r.URL.Query().Get("limitNum"))
		history, err := s.repo.HistoryListGame(r.Context(), gameCode, limit)
		if err != nil {
			s.logger.Warn().Err(err).Str("game_code", gameCode).Msg("store read failed, proxying upstream")
		} else if history != nil && len(history.Issues) > 0 {
			writeJSON(w, http.StatusOK, issueList(history.Issues))
			return
		}
	}
	s.handlePassthrough(w, r)
}

// handlePassthrough forwards anything the store does not serve straight to
// the upstream, preserving status and content type.
func (s *Server) handlePassthrough(w http.ResponseWriter, r *http.Request) {
	status, contentType, body, err := s.xoso.Passthrough(r.Context(), r.Method, r.URL.RequestURI(), r.Header.Get("Accept"))
	if err != nil {
		s.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("upstream proxy call failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Proxy failed", "message": err.Error()})
		return
	}
	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(status)
	w.Write(body)
}

// handleLotteryFetch fetches one game's history from the upstream on behalf
// of clients whose own egress is blocked, with the relay header set applied.
func (s *Server) handleLotteryFetch(w http.ResponseWriter, r *http.Request) {
	gameCode := r.URL.Query().Get("gameCode")
	if gameCode == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing gameCode"})
		return
	}
	limit := clampLimit(r.URL.Query().Get("limit"))
	issues, err := s.xoso.FetchGameIssues(r.Context(), gameCode, limit)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "Fetch failed", "message": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, issueList(issues))
}

type importPayload struct {
	Draws []domain.Draw `json:"draws"`
}

// handleImport is the external ingestion endpoint. Its caller only ever
// sees a well-formed success-or-skip-count response or a payload error;
// internal sync failures never surface here.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if !s.repo.Enabled() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "DB not configured"})
		return
	}

	var payload importPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid payload", "message": err.Error()})
		return
	}
	if len(payload.Draws) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid payload", "message": "draws array required"})
		return
	}

	stats, err := s.repo.ImportDraws(r.Context(), payload.Draws)
	if err != nil {
		s.logger.Error().Err(err).Msg("import failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Import failed", "message": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "imported": stats.Imported, "skipped": stats.Skipped})
}

// handleSync is the fire-and-forget external trigger for a region's poll
// loop, for deployments where in-process cron cannot be trusted to fire.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	region, ok := domain.ParseRegion(r.URL.Query().Get("region"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "region must be mn | mt | mb"})
		return
	}
	s.syncSvc.Trigger(region)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "region": region.Slug()})
}

func (s *Server) handleSyncTest(w http.ResponseWriter, r *http.Request) {
	region, ok := domain.ParseRegion(r.URL.Query().Get("region"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "region must be mn | mt | mb"})
		return
	}
	writeJSON(w, http.StatusOK, s.syncSvc.TestRegionFetch(r.Context(), region))
}

func (s *Server) handleDBDraws(w http.ResponseWriter, r *http.Request) {
	if !s.repo.Enabled() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "DB not configured"})
		return
	}

	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing date (DD/MM/YYYY)"})
		return
	}
	date, err := normalize.ParseTurnDate(dateStr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid date, want DD/MM/YYYY"})
		return
	}

	regionCode := ""
	if raw := r.URL.Query().Get("region"); raw != "" {
		region, ok := domain.ParseRegion(raw)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "region must be MB | MT | MN"})
			return
		}
		regionCode = region.Code()
	}

	records, err := s.repo.DrawsByDate(r.Context(), domain.FormatDate(date), regionCode)
	if err != nil {
		s.logger.Error().Err(err).Msg("draws query failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	for i := range records {
		results, err := s.repo.ResultsByDrawID(r.Context(), records[i].ID)
		if err != nil {
			s.logger.Error().Err(err).Int64("draw_id", records[i].ID).Msg("results query failed")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		records[i].Results = results
	}
	if records == nil {
		records = []repository.DrawRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"draws": records})
}

func (s *Server) handleDBHistory(w http.ResponseWriter, r *http.Request) {
	if !s.repo.Enabled() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "DB not configured"})
		return
	}

	gameCode := r.PathValue("gameCode")
	limit := clampLimit(r.URL.Query().Get("limit"))
	history, err := s.repo.HistoryListGame(r.Context(), gameCode, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("game_code", gameCode).Msg("history query failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if history == nil {
		writeJSON(w, http.StatusOK, issueList(nil))
		return
	}
	writeJSON(w, http.StatusOK, issueList(history.Issues))
}

func clampLimit(raw string) int {
	limit := constants.HistoryDefaultLimit
	if raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > constants.HistoryMaxLimit {
		limit = constants.HistoryMaxLimit
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
