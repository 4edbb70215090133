package models

import (
	"fmt"
	"time"
)

// MapsLink builds the Google Maps URL the dashboard uses for the share
// affordance and the exported googleMapsLink column.
func MapsLink(lat, lng float64) string {
	return fmt.Sprintf("https://maps.google.com/?q=%v,%v", lat, lng)
}

// ListSection is one severity group in the rendered list. Items carries
// only the points the current batch appended to it; Count is the
// section's running total after the append.
type ListSection struct {
	Severity Severity      `json:"severity"`
	Color    string        `json:"color"`
	Items    []SurveyPoint `json:"items"`
	Count    int           `json:"count"`
}

// ListStats drives the "Showing X of Y" line and the load-more control.
type ListStats struct {
	Showing   int    `json:"showing"`
	Total     int    `json:"total"`
	Remaining int    `json:"remaining"`
	Filter    Filter `json:"filter"`
}

// ListBatch is one pagination step pushed to dashboards. Sections appear
// in order of first appearance within the batch.
type ListBatch struct {
	Sections []ListSection `json:"sections"`
	Appended int           `json:"appended"`
	Stats    ListStats     `json:"stats"`
}

// ListSnapshot is the full rendered list state, sent to dashboards that
// connect mid-session and returned by the list state endpoint.
type ListSnapshot struct {
	Sections []ListSection `json:"sections"`
	Stats    ListStats     `json:"stats"`
	Loading  bool          `json:"loading"`
	Empty    bool          `json:"empty"`
}

// Notification levels.
const (
	NotifyInfo    = "info"
	NotifySuccess = "success"
	NotifyError   = "error"
)

// Notification is a dismissible operator-facing message.
type Notification struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// SeekEvent tells connected players to jump to a synced point.
type SeekEvent struct {
	Index          int     `json:"index"`
	Count          int     `json:"count"`
	VideoTimestamp float64 `json:"video_timestamp"`
	SurveyPointID  int     `json:"survey_point_id"`
	DistanceMeters float64 `json:"distance_meters"`
	Label          string  `json:"label"`
}

// ViewPort is the visible map rectangle in the sw/ne form the map layer
// sends it.
type ViewPort struct {
	SWLat float64 `json:"sw_lat"`
	SWLng float64 `json:"sw_lng"`
	NELat float64 `json:"ne_lat"`
	NELng float64 `json:"ne_lng"`
}

// MapMarker is one aggregated cell of survey points for map display,
// colored by the worst severity inside the cell.
type MapMarker struct {
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Count    int      `json:"count"`
	Severity Severity `json:"severity"`
	Color    string   `json:"color"`
}

// WebSocket message types pushed to dashboards.
const (
	MsgListReset    = "list.reset"
	MsgListBatch    = "list.batch"
	MsgListEmpty    = "list.empty"
	MsgListLoading  = "list.loading"
	MsgListLoadMore = "list.loadmore"
	MsgListStats    = "list.stats"
	MsgDatasetStats = "dataset.stats"
	MsgNotify       = "notify"
	MsgVideoStatus  = "video.status"
	MsgSyncResults  = "sync.results"
	MsgVideoSeek    = "video.seek"
)

// BroadcastMessage represents a message sent to WebSocket clients
type BroadcastMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status           string `json:"status"`
	Service          string `json:"service"`
	Timestamp        string `json:"timestamp"`
	ConnectedClients int    `json:"connected_clients"`
	DataLoaded       bool   `json:"data_loaded"`
	TotalPoints      int    `json:"total_points"`
}
