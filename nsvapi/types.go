package nsvapi

import (
	"fmt"
	"io"

	"nsv-dashboard/models"
)

// APIError describes a failed backend call: either the backend could not
// be reached (StatusCode 0) or it answered outside 2xx. Flows that must
// tell an unreachable backend apart from a job the backend itself marked
// failed check for this type.
type APIError struct {
	Endpoint   string
	StatusCode int
	Detail     string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("backend unreachable on %s: %v", e.Endpoint, e.Err)
	}
	if e.Detail != "" {
		return fmt.Sprintf("backend %s returned %d: %s", e.Endpoint, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("backend %s returned %d", e.Endpoint, e.StatusCode)
}

func (e *APIError) Unwrap() error { return e.Err }

// Unreachable reports whether the call never produced an HTTP response.
func (e *APIError) Unreachable() bool { return e.StatusCode == 0 }

// FileUpload is one file attached to a multipart upload.
type FileUpload struct {
	Name   string
	Reader io.Reader
}

// FilterQuery narrows the dataset on the backend side. Empty fields are
// omitted from the query string.
type FilterQuery struct {
	Severity        string
	MeasurementType string
	Highway         string
}

// DatasetResponse is the backend envelope for endpoints that return the
// working dataset (upload, get, filter, sample). GET /data reports the
// count as "total", the rest as "total_points".
type DatasetResponse struct {
	Success        bool                   `json:"success,omitempty"`
	Message        string                 `json:"message,omitempty"`
	Data           []models.SurveyPoint   `json:"data"`
	Statistics     *models.Statistics     `json:"statistics,omitempty"`
	TotalPoints    int                    `json:"total_points,omitempty"`
	Total          int                    `json:"total,omitempty"`
	FiltersApplied map[string]interface{} `json:"filters_applied,omitempty"`
}

// Count returns the point count under either wire name.
func (r *DatasetResponse) Count() int {
	if r.TotalPoints > 0 {
		return r.TotalPoints
	}
	if r.Total > 0 {
		return r.Total
	}
	return len(r.Data)
}

// ExportResponse carries a server-rendered CSV.
type ExportResponse struct {
	Success    bool   `json:"success,omitempty"`
	CSVContent string `json:"csv_content"`
	Filename   string `json:"filename"`
}

// UploadVideoResponse acknowledges a video upload and names the job to
// poll.
type UploadVideoResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	VideoID  string `json:"video_id"`
	Filename string `json:"filename,omitempty"`
	Error    string `json:"error,omitempty"`
}

// VideoStatus is the backend's view of one uploaded video. Older backend
// builds report the state as processing_status/error_message, newer ones
// as status/error; State and Reason cover both.
type VideoStatus struct {
	ID               string  `json:"id"`
	Filename         string  `json:"filename"`
	Duration         float64 `json:"duration"`
	FPS              float64 `json:"fps"`
	SizeBytes        int64   `json:"size_bytes,omitempty"`
	Processed        bool    `json:"processed,omitempty"`
	Status           string  `json:"status,omitempty"`
	ProcessingStatus string  `json:"processing_status,omitempty"`
	Error            string  `json:"error,omitempty"`
	ErrorMessage     string  `json:"error_message,omitempty"`
}

// State returns the processing state under either wire name.
func (v *VideoStatus) State() string {
	if v.Status != "" {
		return v.Status
	}
	return v.ProcessingStatus
}

// Reason returns the failure message under either wire name.
func (v *VideoStatus) Reason() string {
	if v.Error != "" {
		return v.Error
	}
	return v.ErrorMessage
}

// SyncResponse acknowledges a GPS/survey synchronization run.
type SyncResponse struct {
	Success         bool                   `json:"success"`
	Message         string                 `json:"message,omitempty"`
	MappingsCreated int                    `json:"mappings_created"`
	SyncStatistics  map[string]interface{} `json:"sync_statistics,omitempty"`
	Error           string                 `json:"error,omitempty"`
}

// MappingsResponse lists the survey-to-video mappings for one video.
type MappingsResponse struct {
	VideoID  string               `json:"video_id"`
	Mappings []models.SyncMapping `json:"mappings"`
	Total    int                  `json:"total,omitempty"`
}

// StatusResponse is the backend's generic success/message envelope.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// HealthStatus is the backend health check payload.
type HealthStatus struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp,omitempty"`
	DataLoaded  bool   `json:"data_loaded"`
	VideosCount int    `json:"videos_count"`
}
