package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"

	"nsv-dashboard/config"
	"nsv-dashboard/exporter"
	"nsv-dashboard/listview"
	"nsv-dashboard/mapview"
	"nsv-dashboard/metrics"
	"nsv-dashboard/models"
	"nsv-dashboard/nsvapi"
	"nsv-dashboard/videosync"
	ws "nsv-dashboard/websocket"
)

// Survey workbooks and drive videos the backend knows how to ingest.
// Anything else is rejected before a byte leaves the dashboard.
var (
	surveyExtensions = map[string]bool{".csv": true, ".xlsx": true, ".xls": true}
	videoExtensions  = map[string]bool{".mp4": true, ".avi": true, ".mov": true, ".mkv": true}
)

// Service owns the operator's view state: the dataset snapshot, the
// severity list, the tracked video job and its sync results. All
// mutation goes through its operations, and every change is mirrored to
// connected dashboards through the hub.
type Service struct {
	config    *config.Config
	api       *nsvapi.Client
	hub       *ws.Hub
	renderer  *listview.Renderer
	poller    *videosync.Poller
	navigator *videosync.Navigator

	// State tracking
	mu          sync.RWMutex
	statistics  *models.Statistics
	mappings    []models.SyncMapping
	syncStats   *models.SyncStats
	syncVideoID string

	wg sync.WaitGroup
}

// NewService wires the dashboard components together.
func NewService(cfg *config.Config) *Service {
	hub := ws.NewHub()
	s := &Service{
		config:    cfg,
		api:       nsvapi.New(cfg),
		hub:       hub,
		navigator: videosync.NewNavigator(),
	}
	s.renderer = listview.New(&dashboardView{hub: hub}, cfg.ListPageSize, cfg.LoadMoreDelay)
	s.poller = videosync.NewPoller(s.api, &pollerEvents{s: s}, cfg.VideoPollInterval)
	return s
}

// Start launches the hub and recovers the operator's dataset from the
// backend; the gateway keeps no storage of its own.
func (s *Service) Start() error {
	log.Info("Starting NSV dashboard service...")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.hub.Run()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.config.BackendTimeout)
	defer cancel()
	if resp, err := s.api.GetData(ctx); err != nil {
		log.Warnf("dataset recovery skipped, backend not answering: %v", err)
	} else if len(resp.Data) > 0 {
		s.setDataset(resp.Data, resp.Statistics)
		log.Infof("Recovered %d survey points from backend", len(resp.Data))
	}

	log.Info("NSV dashboard service started")
	return nil
}

// Stop cancels the video poller and shuts the hub down.
func (s *Service) Stop() {
	log.Info("Stopping NSV dashboard service...")
	s.poller.Stop()
	s.hub.Stop()
	s.wg.Wait()
	log.Info("NSV dashboard service stopped")
}

// Hub exposes the WebSocket hub for connection handling.
func (s *Service) Hub() *ws.Hub { return s.hub }

// Notify broadcasts a dismissible operator notification.
func (s *Service) Notify(level, message string) {
	metrics.NotificationsTotal.WithLabelValues(level).Inc()
	s.hub.Broadcast(models.MsgNotify, models.Notification{Level: level, Message: message})
}

// UploadSurvey forwards NSV workbooks to the backend and replaces the
// dataset with the parse result. File types are checked before any
// network traffic.
func (s *Service) UploadSurvey(ctx context.Context, files []nsvapi.FileUpload) (*nsvapi.DatasetResponse, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files selected")
	}
	for _, f := range files {
		if ext := strings.ToLower(filepath.Ext(f.Name)); !surveyExtensions[ext] {
			return nil, fmt.Errorf("unsupported survey file type: %s", f.Name)
		}
	}

	resp, err := s.api.UploadSurveyFiles(ctx, files)
	if err != nil {
		s.Notify(models.NotifyError, "Survey upload failed: "+err.Error())
		return nil, err
	}

	s.setDataset(resp.Data, resp.Statistics)
	s.Notify(models.NotifySuccess, fmt.Sprintf("Loaded %d survey points", len(resp.Data)))
	return resp, nil
}

// Refresh re-reads the backend's working dataset.
func (s *Service) Refresh(ctx context.Context) (*nsvapi.DatasetResponse, error) {
	resp, err := s.api.GetData(ctx)
	if err != nil {
		s.Notify(models.NotifyError, "Could not refresh data: "+err.Error())
		return nil, err
	}
	s.setDataset(resp.Data, resp.Statistics)
	return resp, nil
}

// ApplyServerFilter fetches a backend-filtered dataset and replaces the
// working set with it wholesale. The list filter resets to All; narrowing
// by severity afterwards happens client-side.
func (s *Service) ApplyServerFilter(ctx context.Context, q nsvapi.FilterQuery) (*nsvapi.DatasetResponse, error) {
	resp, err := s.api.FilterData(ctx, q)
	if err != nil {
		s.Notify(models.NotifyError, "Filter request failed: "+err.Error())
		return nil, err
	}
	s.setDataset(resp.Data, resp.Statistics)
	s.Notify(models.NotifyInfo, fmt.Sprintf("Filter applied, %d points match", resp.Count()))
	return resp, nil
}

// ClearData drops the dataset on the backend and clears the view.
func (s *Service) ClearData(ctx context.Context) error {
	if err := s.api.ClearData(ctx); err != nil {
		s.Notify(models.NotifyError, "Clear failed: "+err.Error())
		return err
	}
	s.setDataset(nil, nil)
	s.Notify(models.NotifySuccess, "All data cleared")
	return nil
}

// LoadSampleData asks the backend for its demonstration dataset.
func (s *Service) LoadSampleData(ctx context.Context) (*nsvapi.DatasetResponse, error) {
	resp, err := s.api.LoadSampleData(ctx)
	if err != nil {
		s.Notify(models.NotifyError, "Sample data load failed: "+err.Error())
		return nil, err
	}
	s.setDataset(resp.Data, resp.Statistics)
	s.Notify(models.NotifySuccess, fmt.Sprintf("Loaded %d sample points", len(resp.Data)))
	return resp, nil
}

// SetListFilter narrows the severity list client-side.
func (s *Service) SetListFilter(f models.Filter) {
	s.renderer.SetFilter(f)
}

// LoadMore appends the next list batch after the configured delay.
func (s *Service) LoadMore() {
	s.renderer.LoadMore()
}

// ListSnapshot returns the rendered list, used to seed late-joining
// dashboards and the list state endpoint.
func (s *Service) ListSnapshot() models.ListSnapshot {
	return s.renderer.Snapshot()
}

// ListStats returns the "Showing X of Y" numbers.
func (s *Service) ListStats() models.ListStats {
	return s.renderer.Stats()
}

// Statistics returns the dataset-level severity breakdown.
func (s *Service) Statistics() models.Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.statistics == nil {
		return models.Statistics{}
	}
	return *s.statistics
}

// ExportView renders the currently filtered list as CSV with the
// operator's column selection. An empty selection fails before any work.
func (s *Service) ExportView(keys []string) (*exporter.Export, error) {
	export, err := exporter.Build(s.renderer.Filtered(), keys, s.renderer.Filter(), time.Now())
	if err != nil {
		return nil, err
	}
	metrics.ExportsTotal.WithLabelValues("local").Inc()
	return export, nil
}

// ExportServer relays the backend's full-dataset CSV.
func (s *Service) ExportServer(ctx context.Context) (*nsvapi.ExportResponse, error) {
	resp, err := s.api.ExportCSV(ctx)
	if err != nil {
		s.Notify(models.NotifyError, "Backend export failed: "+err.Error())
		return nil, err
	}
	metrics.ExportsTotal.WithLabelValues("backend").Inc()
	return resp, nil
}

// MapMarkers aggregates the filtered dataset into viewport-scaled
// markers.
func (s *Service) MapMarkers(vp models.ViewPort) []models.MapMarker {
	return mapview.Aggregate(s.renderer.Filtered(), vp)
}

// MapGeoJSON renders the filtered dataset as a GeoJSON feature
// collection.
func (s *Service) MapGeoJSON() interface{} {
	return mapview.FeatureCollection(s.renderer.Filtered())
}

// PointQR encodes a point's map link as a QR PNG.
func (s *Service) PointQR(pointID, size int) ([]byte, error) {
	p, ok := s.findPoint(pointID)
	if !ok {
		return nil, fmt.Errorf("unknown survey point %d", pointID)
	}
	return mapview.PointQR(&p, size)
}

// findPoint resolves a survey point by its id field, falling back to the
// dataset position for parses that assign no ids.
func (s *Service) findPoint(pointID int) (models.SurveyPoint, bool) {
	dataset := s.renderer.Dataset()
	for i := range dataset {
		if dataset[i].ID == pointID && pointID != 0 {
			return dataset[i], true
		}
	}
	if pointID >= 0 && pointID < len(dataset) {
		return dataset[pointID], true
	}
	return models.SurveyPoint{}, false
}

// Health reports service state for the health endpoint.
func (s *Service) Health() models.HealthResponse {
	connected, _ := s.hub.GetStats()
	stats := s.renderer.Stats()
	return models.HealthResponse{
		Status:           "healthy",
		Service:          "nsv-dashboard",
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		ConnectedClients: connected,
		DataLoaded:       len(s.renderer.Dataset()) > 0,
		TotalPoints:      stats.Total,
	}
}

// setDataset replaces the working dataset everywhere: the renderer resets
// to the All filter and renders its first batch, dashboards get the new
// header statistics.
func (s *Service) setDataset(points []models.SurveyPoint, stats *models.Statistics) {
	s.renderer.SetDataset(points)

	if stats == nil {
		computed := models.ComputeStatistics(points)
		stats = &computed
	}
	s.mu.Lock()
	s.statistics = stats
	s.mu.Unlock()

	s.hub.Broadcast(models.MsgDatasetStats, stats)
}
