package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/baystate-data/arrestlog/internal/arrests"
	"github.com/baystate-data/arrestlog/internal/cache"
	"github.com/baystate-data/arrestlog/internal/db"
	"github.com/baystate-data/arrestlog/internal/model"
	"github.com/baystate-data/arrestlog/internal/stats"
)

const maxPageSize = 100

// apiHandlers holds the request handlers and their collaborators.
type apiHandlers struct {
	engine   *stats.Engine
	cache    *cache.Cache
	pageSize int
	log      *zap.Logger
}

func (h *apiHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// filterFrom reads the shared filter parameters. "city" is accepted as an
// alias for "town".
func filterFrom(r *http.Request) model.Filter {
	q := r.URL.Query()
	town := q.Get("town")
	if town == "" {
		town = q.Get("city")
	}
	return arrests.ParseFilter(town, q.Get("dateFrom"), q.Get("dateTo"))
}

func (h *apiHandlers) handleArrests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := filterFrom(r)
	search := q.Get("search")

	page := intParam(q.Get("page"), 1)
	pageSize := intParam(q.Get("pageSize"), h.pageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	result, err := h.engine.List(r.Context(), f, search, page, pageSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *apiHandlers) handleStats(w http.ResponseWriter, r *http.Request) {
	f := filterFrom(r)
	key := "stats|" + arrests.FilterKey(f)

	if body := h.cache.Get(key); body != nil {
		writeJSONBytes(w, http.StatusOK, body)
		return
	}

	bundle, err := h.engine.Aggregate(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	body, err := json.Marshal(bundle)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.cache.Put(key, body)
	writeJSONBytes(w, http.StatusOK, body)
}

func (h *apiHandlers) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	f := filterFrom(r)
	key := "heatmap|" + arrests.FilterKey(f)

	if body := h.cache.Get(key); body != nil {
		writeJSONBytes(w, http.StatusOK, body)
		return
	}

	cities, err := h.engine.Heatmap(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	body, err := json.Marshal(map[string][]model.CityCount{"cityCounts": cities})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.cache.Put(key, body)
	writeJSONBytes(w, http.StatusOK, body)
}

// errorBody is the wire shape for failures.
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// writeError maps store failures to responses. Connection and schema
// problems get distinct messages so operators can tell them apart from the
// dashboard; everything else is an opaque 500.
func (h *apiHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Error("request failed",
		zap.String("request_id", requestIDFrom(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)

	var body errorBody
	switch db.KindOf(err) {
	case db.KindBadCredentials:
		body = errorBody{
			Error:   "Database not configured",
			Details: "Database credentials are missing or invalid.",
		}
	case db.KindMissingTable:
		body = errorBody{
			Error:   "Arrest data not found",
			Details: "The arrest_logs table does not exist. Run migrations first.",
		}
	default:
		body = errorBody{Error: "Internal server error"}
	}
	writeJSON(w, http.StatusInternalServerError, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONBytes(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
