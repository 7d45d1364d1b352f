package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/baystate-data/arrestlog/internal/cache"
	"github.com/baystate-data/arrestlog/internal/config"
	"github.com/baystate-data/arrestlog/internal/stats"
	"github.com/baystate-data/arrestlog/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// newTestServer stands up the full stack over a seeded SQLite database.
func newTestServer(t *testing.T, serverCfg config.ServerConfig) (*httptest.Server, *apiHandlers) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "api.db")
	st, err := store.Open(context.Background(), "sqlite", path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	seedDB(t, path)

	h := &apiHandlers{
		engine:   stats.NewEngine(st),
		cache:    cache.New(16, time.Hour),
		pageSize: 25,
		log:      zap.NewNop(),
	}
	srv := httptest.NewServer(newRouter(h, serverCfg))
	t.Cleanup(srv.Close)
	return srv, h
}

// seedDB inserts the three-record fixture through a second connection.
func seedDB(t *testing.T, path string) {
	t.Helper()
	conn, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer conn.Close()

	rows := [][]any{
		{"a1", "Ann", "Lee", 25, "M", "W", "Operating Under the Influence, Disorderly Conduct", "2024-06-10", "NATICK"},
		{"a2", "Bob", "Ray", 35, "U", "", "Possession of Class B", "2024-06-12", "Natick, MA"},
		{"a3", "Cal", "Fox", 40, "F", "B", "Larceny", "2024-06-11", "Boston"},
	}
	for _, r := range rows {
		_, err := conn.Exec(`INSERT INTO arrest_logs
			(arrest_id, first_name, last_name, age, sex, race, charges, arrest_date, city_town)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, r...)
		require.NoError(t, err)
	}
}

func defaultServerCfg() config.ServerConfig {
	return config.ServerConfig{
		CORSOrigins: []string{"*"},
		PageSize:    25,
	}
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp
}

func TestServe_Health(t *testing.T) {
	srv, _ := newTestServer(t, defaultServerCfg())

	var body map[string]string
	resp := getJSON(t, srv.URL+"/health", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestServe_Arrests_Pagination(t *testing.T) {
	srv, _ := newTestServer(t, defaultServerCfg())

	var page struct {
		Records    []map[string]any `json:"records"`
		Total      int64            `json:"total"`
		Page       int              `json:"page"`
		PageSize   int              `json:"pageSize"`
		TotalPages int              `json:"totalPages"`
	}
	resp := getJSON(t, srv.URL+"/api/arrests?page=1&pageSize=2", &page)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, page.Records, 2)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 2, page.PageSize)
	assert.Equal(t, 2, page.TotalPages)

	// Record JSON uses the snake_case wire shape.
	assert.Contains(t, page.Records[0], "arrest_id")
	assert.Contains(t, page.Records[0], "city_town")
}

func TestServe_Arrests_SearchAndTown(t *testing.T) {
	srv, _ := newTestServer(t, defaultServerCfg())

	var page struct {
		Records []map[string]any `json:"records"`
		Total   int64            `json:"total"`
	}
	getJSON(t, srv.URL+"/api/arrests?town=natick", &page)
	assert.Equal(t, int64(2), page.Total)

	getJSON(t, srv.URL+"/api/arrests?search=larceny", &page)
	assert.Equal(t, int64(1), page.Total)
}

func TestServe_Stats(t *testing.T) {
	srv, h := newTestServer(t, defaultServerCfg())

	var bundle map[string]any
	resp := getJSON(t, srv.URL+"/api/arrests/stats?town=Natick", &bundle)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	statsObj, ok := bundle["stats"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), statsObj["total"])
	assert.Contains(t, statsObj, "thisWeek")
	assert.Contains(t, statsObj, "avgChargesPerArrest")
	assert.Contains(t, bundle, "topCities")
	assert.Contains(t, bundle, "dayOfWeekData")

	// Aggregate arrays are present even when empty.
	trends, ok := bundle["chargeTrends"].([]any)
	require.True(t, ok)
	assert.NotNil(t, trends)

	// Second identical request is served from cache.
	getJSON(t, srv.URL+"/api/arrests/stats?town=Natick", &bundle)
	assert.Equal(t, int64(1), h.cache.Stats().Hits)
}

func TestServe_Stats_EquivalentFiltersShareCacheEntry(t *testing.T) {
	srv, h := newTestServer(t, defaultServerCfg())

	var bundle map[string]any
	getJSON(t, srv.URL+"/api/arrests/stats?town=natick", &bundle)
	getJSON(t, srv.URL+"/api/arrests/stats?city=NATICK%2C+MA", &bundle)

	assert.Equal(t, 1, h.cache.Stats().Entries)
	assert.Equal(t, int64(1), h.cache.Stats().Hits)
}

func TestServe_Heatmap(t *testing.T) {
	srv, _ := newTestServer(t, defaultServerCfg())

	var body struct {
		CityCounts []struct {
			City  string `json:"city"`
			Count int64  `json:"count"`
		} `json:"cityCounts"`
	}
	resp := getJSON(t, srv.URL+"/api/arrests/heatmap", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body.CityCounts, 2)
	assert.Equal(t, "NATICK", body.CityCounts[0].City)
	assert.Equal(t, int64(2), body.CityCounts[0].Count)
}

func TestServe_BadDatesAreLenient(t *testing.T) {
	srv, _ := newTestServer(t, defaultServerCfg())

	var page struct {
		Total int64 `json:"total"`
	}
	resp := getJSON(t, srv.URL+"/api/arrests?dateFrom=garbage&dateTo=2024-13-99", &page)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(3), page.Total)
}

func TestServe_MissingTableError(t *testing.T) {
	// Open a store without running migrations.
	st, err := store.Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "bare.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	h := &apiHandlers{
		engine:   stats.NewEngine(st),
		cache:    cache.New(16, time.Hour),
		pageSize: 25,
		log:      zap.NewNop(),
	}
	srv := httptest.NewServer(newRouter(h, defaultServerCfg()))
	t.Cleanup(srv.Close)

	var body struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	resp := getJSON(t, srv.URL+"/api/arrests/stats", &body)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Arrest data not found", body.Error)
	assert.Contains(t, body.Details, "arrest_logs")
}

func TestServe_RateLimit(t *testing.T) {
	cfg := defaultServerCfg()
	cfg.RateLimit = 0.001
	cfg.RateBurst = 1
	srv, _ := newTestServer(t, cfg)

	first, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	first.Body.Close()
	assert.Equal(t, http.StatusOK, first.StatusCode)

	second, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	second.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
}

func TestIntParam(t *testing.T) {
	assert.Equal(t, 1, intParam("", 1))
	assert.Equal(t, 7, intParam("7", 1))
	assert.Equal(t, 1, intParam("0", 1))
	assert.Equal(t, 1, intParam("-3", 1))
	assert.Equal(t, 1, intParam("abc", 1))
}
