package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lexassist/legal-rag/internal/config"
	"github.com/lexassist/legal-rag/internal/core/domain"
	"github.com/lexassist/legal-rag/internal/core/ports"
)

const userIDHeader = "X-User-Id"

type Router struct {
	cfg     config.Config
	service ports.HybridQueryService
	metrics MetricsRecorder
}

// MetricsRecorder is the slice of the metrics surface the router reports to.
// Nil is allowed; handlers then skip instrumentation.
type MetricsRecorder interface {
	Middleware(service string, next http.Handler) http.Handler
	RecordQuery(service, outcome, strategy string, contextsUsed int, duration time.Duration)
	RecordContextMix(service string, personal, publicSemantic, publicGraph int)
	RecordSourceFailure(service, source string)
	RecordFallback(service string)
}

func NewRouter(cfg config.Config, service ports.HybridQueryService, metrics MetricsRecorder) *Router {
	return &Router{
		cfg:     cfg,
		service: service,
		metrics: metrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/query/hybrid", rt.hybridQuery)
	mux.HandleFunc("/v1/query/classify", rt.classifyQuery)
	mux.HandleFunc("/v1/query/capabilities", rt.capabilities)
	mux.HandleFunc("/v1/sessions/", rt.sessionHistory)

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware("legal-rag-api", handler)
	}
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, time.Duration(rt.cfg.APIQueueWaitMillis)*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type hybridQueryRequest struct {
	Query              string `json:"query"`
	SessionID          string `json:"session_id"`
	PersonalTopK       int    `json:"personal_top_k"`
	PublicSemanticTopK int    `json:"public_semantic_top_k"`
	PublicGraphLimit   int    `json:"public_graph_limit"`
}

func (rt *Router) hybridQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req hybridQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	budgets := domain.Budgets{
		PersonalTopK:       req.PersonalTopK,
		PublicSemanticTopK: req.PublicSemanticTopK,
		PublicGraphLimit:   req.PublicGraphLimit,
	}
	if budgets.PersonalTopK == 0 {
		budgets.PersonalTopK = rt.cfg.DefaultPersonalTopK
	}
	if budgets.PublicSemanticTopK == 0 {
		budgets.PublicSemanticTopK = rt.cfg.DefaultPublicTopK
	}
	if budgets.PublicGraphLimit == 0 {
		budgets.PublicGraphLimit = rt.cfg.DefaultGraphLimit
	}

	userID := strings.TrimSpace(r.Header.Get(userIDHeader))

	start := time.Now()
	resp, err := rt.service.HybridSearchAndSynthesize(r.Context(), userID, req.Query, budgets, strings.TrimSpace(req.SessionID))
	if err != nil {
		rt.recordQueryMetrics("error", nil, time.Since(start))
		writeError(w, err)
		return
	}

	rt.recordQueryMetrics("ok", resp, time.Since(start))
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) recordQueryMetrics(outcome string, resp *domain.SynthesisResponse, duration time.Duration) {
	if rt.metrics == nil {
		return
	}
	if resp == nil {
		rt.metrics.RecordQuery("legal-rag-api", outcome, "", 0, duration)
		return
	}
	rt.metrics.RecordQuery(
		"legal-rag-api",
		outcome,
		string(resp.RetrievalMetadata.Strategy),
		resp.RetrievalMetadata.ContextsUsed,
		duration,
	)
	rt.metrics.RecordContextMix(
		"legal-rag-api",
		resp.ContextSummary.PersonalCount,
		resp.ContextSummary.PublicSemanticCount,
		resp.ContextSummary.PublicGraphCount,
	)
	for _, source := range resp.RetrievalMetadata.FailedSources {
		rt.metrics.RecordSourceFailure("legal-rag-api", source)
	}
	if resp.ModelUsed == domain.ModelFallback {
		rt.metrics.RecordFallback("legal-rag-api")
	}
}

type classifyQueryRequest struct {
	Query string `json:"query"`
}

func (rt *Router) classifyQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req classifyQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	userID := strings.TrimSpace(r.Header.Get(userIDHeader))
	classification, err := rt.service.ClassifyQuery(r.Context(), userID, req.Query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, classification)
}

func (rt *Router) capabilities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	userID := strings.TrimSpace(r.Header.Get(userIDHeader))
	caps, err := rt.service.Capabilities(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, caps)
}

func (rt *Router) sessionHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	sessionID := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
	if sessionID == "" || strings.Contains(sessionID, "/") {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	userID := strings.TrimSpace(r.Header.Get(userIDHeader))
	turns, err := rt.service.SessionHistory(r.Context(), userID, sessionID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if turns == nil {
		turns = []domain.SessionTurn{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"turns":      turns,
	})
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
