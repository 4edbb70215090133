package models

// Video processing states reported by the backend.
const (
	VideoStatusPending    = "pending"
	VideoStatusProcessing = "processing"
	VideoStatusCompleted  = "completed"
	VideoStatusFailed     = "failed"
)

// VideoJob tracks the survey video currently attached to the dashboard.
// Uploading a new video replaces the whole struct; the poller for the old
// one is cancelled.
type VideoJob struct {
	VideoID  string  `json:"video_id"`
	Filename string  `json:"filename"`
	Status   string  `json:"status"`
	Error    string  `json:"error,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	FPS      float64 `json:"fps,omitempty"`
}

// Terminal reports whether the job needs no further polling.
func (v *VideoJob) Terminal() bool {
	return v.Status == VideoStatusCompleted || v.Status == VideoStatusFailed
}

// VideoGPS is a GPS fix extracted from a video frame overlay.
type VideoGPS struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SyncMapping links one survey point to the video timestamp where the
// vehicle passed it. The backend sends flat video_gps_lat/lng on the
// mappings listing and a nested video_gps object on the per-point lookup;
// both are kept so either shape decodes.
type SyncMapping struct {
	SurveyPointID  int          `json:"survey_point_id"`
	VideoID        string       `json:"video_id,omitempty"`
	VideoTimestamp float64      `json:"video_timestamp"`
	DistanceMeters float64      `json:"distance_meters"`
	VideoGPSLat    float64      `json:"video_gps_lat,omitempty"`
	VideoGPSLng    float64      `json:"video_gps_lng,omitempty"`
	VideoGPS       *VideoGPS    `json:"video_gps,omitempty"`
	SurveyData     *SurveyPoint `json:"survey_data,omitempty"`
}

// GPS returns the video-side fix regardless of which wire shape carried it.
func (m *SyncMapping) GPS() VideoGPS {
	if m.VideoGPS != nil {
		return *m.VideoGPS
	}
	return VideoGPS{Lat: m.VideoGPSLat, Lng: m.VideoGPSLng}
}

// SyncStats summarizes how well the video track lines up with the survey
// points. MatchRate is the percentage of mappings within the match
// threshold, AvgDistanceM the mean mapping distance, both to one decimal.
type SyncStats struct {
	Matched      int     `json:"matched"`
	Total        int     `json:"total"`
	MatchRate    float64 `json:"match_rate"`
	AvgDistanceM float64 `json:"avg_distance_m"`
}
