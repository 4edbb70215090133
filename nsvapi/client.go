package nsvapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"nsv-dashboard/config"
	"nsv-dashboard/metrics"
	"nsv-dashboard/models"
)

// Client is the HTTP client for the NSV survey backend. The backend owns
// file parsing, severity classification, GPS matching and persistence;
// the dashboard only moves data through this client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a backend client from service configuration.
func New(cfg *config.Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.NSVAPIURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.BackendTimeout,
		},
	}
}

// UploadSurveyFiles posts NSV survey workbooks for processing and returns
// the freshly parsed dataset.
func (c *Client) UploadSurveyFiles(ctx context.Context, files []FileUpload) (*DatasetResponse, error) {
	var resp DatasetResponse
	if err := c.postMultipart(ctx, "/upload", "files", files, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetData fetches the backend's current working dataset.
func (c *Client) GetData(ctx context.Context) (*DatasetResponse, error) {
	var resp DatasetResponse
	if err := c.do(ctx, http.MethodGet, "/data", "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FilterData asks the backend for a filtered view of the dataset.
func (c *Client) FilterData(ctx context.Context, q FilterQuery) (*DatasetResponse, error) {
	params := url.Values{}
	if q.Severity != "" {
		params.Set("severity", q.Severity)
	}
	if q.MeasurementType != "" {
		params.Set("measurement_type", q.MeasurementType)
	}
	if q.Highway != "" {
		params.Set("highway", q.Highway)
	}
	path := "/data/filter"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	var resp DatasetResponse
	if err := c.do(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClearData drops the backend's working dataset.
func (c *Client) ClearData(ctx context.Context) error {
	var resp StatusResponse
	return c.do(ctx, http.MethodDelete, "/data", "", nil, &resp)
}

// LoadSampleData asks the backend to generate its demonstration dataset.
func (c *Client) LoadSampleData(ctx context.Context) (*DatasetResponse, error) {
	var resp DatasetResponse
	if err := c.do(ctx, http.MethodPost, "/sample-data", "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExportCSV fetches the backend-rendered CSV of the full dataset.
func (c *Client) ExportCSV(ctx context.Context) (*ExportResponse, error) {
	var resp ExportResponse
	if err := c.do(ctx, http.MethodGet, "/export", "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadVideo posts a survey drive video and returns the processing job
// to poll.
func (c *Client) UploadVideo(ctx context.Context, filename string, r io.Reader) (*UploadVideoResponse, error) {
	var resp UploadVideoResponse
	files := []FileUpload{{Name: filename, Reader: r}}
	if err := c.postMultipart(ctx, "/upload-video", "file", files, &resp); err != nil {
		return nil, err
	}
	if resp.Filename == "" {
		resp.Filename = filename
	}
	return &resp, nil
}

// GetVideo fetches the current processing state of a video job.
func (c *Client) GetVideo(ctx context.Context, videoID string) (*VideoStatus, error) {
	var resp VideoStatus
	if err := c.do(ctx, http.MethodGet, "/videos/"+url.PathEscape(videoID), "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteVideo removes a video and all data derived from it.
func (c *Client) DeleteVideo(ctx context.Context, videoID string) error {
	var resp StatusResponse
	return c.do(ctx, http.MethodDelete, "/videos/"+url.PathEscape(videoID), "", nil, &resp)
}

// SyncVideoData matches the video's GPS track against the survey dataset.
func (c *Client) SyncVideoData(ctx context.Context, videoID string) (*SyncResponse, error) {
	var resp SyncResponse
	path := "/sync-video-data?video_id=" + url.QueryEscape(videoID)
	if err := c.do(ctx, http.MethodPost, path, "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetMappings fetches the survey-to-video mappings created by the last
// sync run.
func (c *Client) GetMappings(ctx context.Context, videoID string) ([]models.SyncMapping, error) {
	var resp MappingsResponse
	path := "/videos/" + url.PathEscape(videoID) + "/mappings"
	if err := c.do(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Mappings, nil
}

// PointVideoTimestamp looks up where the survey vehicle passed a point.
func (c *Client) PointVideoTimestamp(ctx context.Context, pointID int) (*models.SyncMapping, error) {
	var resp models.SyncMapping
	path := "/survey-point/" + strconv.Itoa(pointID) + "/video-timestamp"
	if err := c.do(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health checks whether the backend is reachable and reports its state.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var resp HealthStatus
	if err := c.do(ctx, http.MethodGet, "/health", "", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out interface{}) error {
	endpoint := metrics.EndpointLabel(path)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveBackendRequest(endpoint, "transport_error", start)
		return &APIError{Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		metrics.ObserveBackendRequest(endpoint, "http_error", start)
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Endpoint: path, StatusCode: resp.StatusCode, Detail: errorDetail(b)}
	}
	metrics.ObserveBackendRequest(endpoint, "ok", start)

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) postMultipart(ctx context.Context, path, field string, files []FileUpload, out interface{}) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := w.CreateFormFile(field, f.Name)
		if err != nil {
			return fmt.Errorf("failed to build multipart body: %w", err)
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, w.FormDataContentType(), &buf, out)
}

// errorDetail pulls FastAPI's {"detail": "..."} out of an error body so
// operators see the backend's own message instead of raw JSON.
func errorDetail(body []byte) string {
	var e struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Detail != "" {
		return e.Detail
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
