package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsv-dashboard/config"
	"nsv-dashboard/models"
	"nsv-dashboard/nsvapi"
	"nsv-dashboard/service"
)

func testPoints() []models.SurveyPoint {
	return []models.SurveyPoint{
		{ID: 1, Highway: "NH-44", Lane: "L1", Type: "Rutting", Value: 18.5, Unit: "mm", Severity: "High", Lat: 28.6139, Lng: 77.2090},
		{ID: 2, Highway: "NH-44", Lane: "L2", Type: "Cracking", Value: 4.2, Unit: "%area", Severity: "Medium", Lat: 28.6200, Lng: 77.2150},
		{ID: 3, Highway: "NH-48", Lane: "R1", Type: "Roughness", Value: 2100, Unit: "mm/km", Severity: "Low", Lat: 28.6300, Lng: 77.2200},
		{ID: 4, Highway: "NH-48", Lane: "R2", Type: "Rutting", Value: 22.0, Unit: "mm", Severity: "High", Lat: 28.6350, Lng: 77.2250},
	}
}

// datasetBackend fakes the survey backend's GET /data.
func datasetBackend(points []models.SurveyPoint) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(nsvapi.DatasetResponse{Success: true, Data: points, Total: len(points)})
	})
	return mux
}

// newRouterForBackend wires the real service against a backend URL and
// registers the routes under test.
func newRouterForBackend(t *testing.T, backendURL string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		NSVAPIURL:          backendURL,
		BackendTimeout:     2 * time.Second,
		ListPageSize:       50,
		LoadMoreDelay:      time.Millisecond,
		VideoPollInterval:  10 * time.Millisecond,
		SyncMatchThreshold: 50,
	}
	svc := service.NewService(cfg)
	require.NoError(t, svc.Start())
	t.Cleanup(svc.Stop)

	h := NewHandlers(svc)
	router := gin.New()
	router.GET("/api/v1/data", h.GetData)
	router.GET("/api/v1/list", h.GetList)
	router.POST("/api/v1/list/filter", h.SetListFilter)
	router.POST("/api/v1/list/more", h.LoadMore)
	router.GET("/api/v1/list/stats", h.GetListStats)
	router.GET("/api/v1/map/markers", h.GetMapMarkers)
	router.GET("/api/v1/points/:id/qr", h.GetPointQR)
	router.GET("/api/v1/export/columns", h.GetExportColumns)
	router.POST("/api/v1/export", h.ExportView)
	router.GET("/api/v1/videos/current", h.GetVideoJob)
	router.GET("/health", h.HealthCheck)
	return router
}

func newRouter(t *testing.T, backend http.Handler) *gin.Engine {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)
	return newRouterForBackend(t, srv.URL)
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetListSeededFromBackend(t *testing.T) {
	router := newRouter(t, datasetBackend(testPoints()))

	w := doJSON(router, http.MethodGet, "/api/v1/list", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var snap models.ListSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, 4, snap.Stats.Total)
	assert.Equal(t, 4, snap.Stats.Showing)
	assert.Equal(t, models.FilterAll, snap.Stats.Filter)
	require.NotEmpty(t, snap.Sections)
	assert.Equal(t, models.SeverityHigh, snap.Sections[0].Severity)
	assert.Equal(t, 2, snap.Sections[0].Count)
}

func TestSetListFilterNarrowsList(t *testing.T) {
	router := newRouter(t, datasetBackend(testPoints()))

	w := doJSON(router, http.MethodPost, "/api/v1/list/filter", SetListFilterRequest{Filter: "High"})
	assert.Equal(t, http.StatusOK, w.Code)

	var snap models.ListSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, models.FilterHigh, snap.Stats.Filter)
	assert.Equal(t, 2, snap.Stats.Total)
	require.Len(t, snap.Sections, 1)
	assert.Equal(t, models.SeverityHigh, snap.Sections[0].Severity)

	// Going back to All restores the full list.
	w = doJSON(router, http.MethodPost, "/api/v1/list/filter", SetListFilterRequest{Filter: "All"})
	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, 4, snap.Stats.Total)
}

func TestSetListFilterRejectsUnknown(t *testing.T) {
	router := newRouter(t, datasetBackend(testPoints()))

	w := doJSON(router, http.MethodPost, "/api/v1/list/filter", SetListFilterRequest{Filter: "Catastrophic"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown filter")

	w = doJSON(router, http.MethodPost, "/api/v1/list/filter", "not an object")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoadMoreIsAccepted(t *testing.T) {
	router := newRouter(t, datasetBackend(testPoints()))

	w := doJSON(router, http.MethodPost, "/api/v1/list/more", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "scheduled")
}

func TestGetListStats(t *testing.T) {
	router := newRouter(t, datasetBackend(testPoints()))

	w := doJSON(router, http.MethodGet, "/api/v1/list/stats", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var stats models.ListStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 4, stats.Showing)
	assert.Equal(t, 0, stats.Remaining)
}

func TestExportViewStreamsAttachment(t *testing.T) {
	router := newRouter(t, datasetBackend(testPoints()))

	w := doJSON(router, http.MethodPost, "/api/v1/export", ExportRequest{Columns: []string{"id", "severity"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))

	disposition := w.Header().Get("Content-Disposition")
	assert.Contains(t, disposition, `attachment; filename="nhai_pavement_data_filtered_`)
	assert.Contains(t, disposition, `.csv"`)

	assert.True(t, strings.HasPrefix(w.Body.String(), "ID,Severity\n"))
	assert.Contains(t, w.Body.String(), "1,High")
}

func TestExportViewRejectsEmptySelection(t *testing.T) {
	router := newRouter(t, datasetBackend(testPoints()))

	w := doJSON(router, http.MethodPost, "/api/v1/export", ExportRequest{Columns: []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportColumnsCatalog(t *testing.T) {
	router := newRouter(t, datasetBackend(nil))

	w := doJSON(router, http.MethodGet, "/api/v1/export/columns", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Columns []exportColumn `json:"columns"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Columns)
	assert.Equal(t, "id", resp.Columns[0].Key)
	assert.Equal(t, "googleMapsLink", resp.Columns[len(resp.Columns)-1].Key)
}

func TestGetVideoJobWithoutUpload(t *testing.T) {
	router := newRouter(t, datasetBackend(nil))

	w := doJSON(router, http.MethodGet, "/api/v1/videos/current", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "no video uploaded")
}

func TestMapMarkersWholeDataset(t *testing.T) {
	router := newRouter(t, datasetBackend(testPoints()))

	w := doJSON(router, http.MethodGet, "/api/v1/map/markers", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Markers []models.MapMarker `json:"markers"`
		Count   int                `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	total := 0
	for _, m := range resp.Markers {
		total += m.Count
	}
	assert.Equal(t, 4, total)
	assert.Equal(t, len(resp.Markers), resp.Count)
}

func TestMapMarkersRejectsBadViewport(t *testing.T) {
	router := newRouter(t, datasetBackend(testPoints()))

	w := doJSON(router, http.MethodGet, "/api/v1/map/markers?sw_lat=abc&sw_lng=77&ne_lat=29&ne_lng=78", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid sw_lat")
}

func TestPointQREndpoint(t *testing.T) {
	router := newRouter(t, datasetBackend(testPoints()))

	w := doJSON(router, http.MethodGet, "/api/v1/points/1/qr", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w = doJSON(router, http.MethodGet, "/api/v1/points/1/qr?size=4096", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/points/999/qr", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/points/abc/qr", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBackendErrorStatusRelayed(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"detail": "maintenance window"})
	})
	router := newRouter(t, mux)

	w := doJSON(router, http.MethodGet, "/api/v1/data", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "maintenance window")
}

func TestUnreachableBackendIs502(t *testing.T) {
	srv := httptest.NewServer(datasetBackend(nil))
	router := newRouterForBackend(t, srv.URL)
	srv.Close()

	w := doJSON(router, http.MethodGet, "/api/v1/data", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHealthCheck(t *testing.T) {
	router := newRouter(t, datasetBackend(testPoints()))

	w := doJSON(router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var health models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "nsv-dashboard", health.Service)
	assert.True(t, health.DataLoaded)
	assert.Equal(t, 4, health.TotalPoints)
}
