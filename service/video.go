package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/apex/log"

	"nsv-dashboard/models"
	"nsv-dashboard/nsvapi"
	"nsv-dashboard/videosync"
)

// UploadVideo forwards a survey drive video to the backend and starts
// polling its processing job. Uploading while another video is tracked
// replaces it; the old poll loop is cancelled.
func (s *Service) UploadVideo(ctx context.Context, filename string, r io.Reader) (*nsvapi.UploadVideoResponse, error) {
	if ext := strings.ToLower(filepath.Ext(filename)); !videoExtensions[ext] {
		return nil, fmt.Errorf("unsupported video file type: %s", filename)
	}

	resp, err := s.api.UploadVideo(ctx, filename, r)
	if err != nil {
		s.Notify(models.NotifyError, "Video upload failed: "+err.Error())
		return nil, err
	}
	if resp.VideoID == "" {
		s.Notify(models.NotifyError, "Video upload rejected: "+resp.Error)
		return nil, fmt.Errorf("backend accepted upload but returned no video id")
	}

	s.poller.Track(resp.VideoID, resp.Filename)
	s.Notify(models.NotifyInfo, fmt.Sprintf("Video %s uploaded, processing started", resp.Filename))
	return resp, nil
}

// VideoJob returns the tracked processing job, if any.
func (s *Service) VideoJob() (models.VideoJob, bool) {
	return s.poller.Job()
}

// DeleteVideo removes a video on the backend, stops tracking it and drops
// any sync results derived from it.
func (s *Service) DeleteVideo(ctx context.Context, videoID string) error {
	if err := s.api.DeleteVideo(ctx, videoID); err != nil {
		s.Notify(models.NotifyError, "Video delete failed: "+err.Error())
		return err
	}
	s.poller.Drop(videoID)

	s.mu.Lock()
	if s.syncVideoID == videoID {
		s.mappings = nil
		s.syncStats = nil
		s.syncVideoID = ""
		s.navigator.SetMappings(nil)
	}
	s.mu.Unlock()

	s.Notify(models.NotifySuccess, "Video deleted")
	return nil
}

// RunSync matches the processed video's GPS track against the survey
// dataset and loads the resulting mappings. A failed run leaves the
// previous sync results in place.
func (s *Service) RunSync(ctx context.Context) (*models.SyncStats, error) {
	job, ok := s.poller.Job()
	if !ok {
		return nil, fmt.Errorf("no video uploaded")
	}
	if job.Status != models.VideoStatusCompleted {
		return nil, fmt.Errorf("video %s is not processed yet (status %s)", job.VideoID, job.Status)
	}

	syncResp, err := s.api.SyncVideoData(ctx, job.VideoID)
	if err != nil {
		s.Notify(models.NotifyError, "GPS sync failed: "+err.Error())
		return nil, err
	}

	mappings, err := s.api.GetMappings(ctx, job.VideoID)
	if err != nil {
		s.Notify(models.NotifyError, "Could not load sync mappings: "+err.Error())
		return nil, err
	}

	stats := videosync.ComputeStats(mappings, s.config.SyncMatchThreshold)

	s.mu.Lock()
	s.mappings = mappings
	s.syncStats = &stats
	s.syncVideoID = job.VideoID
	s.mu.Unlock()
	s.navigator.SetMappings(mappings)

	log.WithFields(log.Fields{
		"video_id":   job.VideoID,
		"mappings":   len(mappings),
		"match_rate": stats.MatchRate,
	}).Info("video.sync.completed")

	s.hub.Broadcast(models.MsgSyncResults, map[string]interface{}{
		"video_id": job.VideoID,
		"created":  syncResp.MappingsCreated,
		"stats":    stats,
	})
	s.Notify(models.NotifySuccess,
		fmt.Sprintf("GPS sync complete: %d mappings, %.1f%% matched", len(mappings), stats.MatchRate))
	return &stats, nil
}

// SyncState returns the last sync run's mappings and statistics.
func (s *Service) SyncState() ([]models.SyncMapping, *models.SyncStats, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mappings := make([]models.SyncMapping, len(s.mappings))
	copy(mappings, s.mappings)
	var stats *models.SyncStats
	if s.syncStats != nil {
		c := *s.syncStats
		stats = &c
	}
	return mappings, stats, s.syncVideoID
}

// JumpTo seeks the video to the mapped point at index and tells connected
// dashboards to follow.
func (s *Service) JumpTo(index int) (models.SeekEvent, bool) {
	return s.seek(s.navigator.JumpTo(index))
}

// NextPoint advances to the next mapped survey point.
func (s *Service) NextPoint() (models.SeekEvent, bool) {
	return s.seek(s.navigator.Next())
}

// PrevPoint steps back to the previous mapped survey point.
func (s *Service) PrevPoint() (models.SeekEvent, bool) {
	return s.seek(s.navigator.Prev())
}

func (s *Service) seek(ev models.SeekEvent, ok bool) (models.SeekEvent, bool) {
	if ok {
		s.hub.Broadcast(models.MsgVideoSeek, ev)
	}
	return ev, ok
}

// PointTimestamp asks the backend where the survey vehicle passed a point
// and seeks the video there.
func (s *Service) PointTimestamp(ctx context.Context, pointID int) (*models.SyncMapping, error) {
	m, err := s.api.PointVideoTimestamp(ctx, pointID)
	if err != nil {
		return nil, err
	}
	s.hub.Broadcast(models.MsgVideoSeek, models.SeekEvent{
		Index:          -1,
		Count:          s.navigator.Count(),
		VideoTimestamp: m.VideoTimestamp,
		SurveyPointID:  m.SurveyPointID,
		DistanceMeters: m.DistanceMeters,
		Label:          fmt.Sprintf("Survey point %d", m.SurveyPointID),
	})
	return m, nil
}

// BackendHealth relays the backend's health check.
func (s *Service) BackendHealth(ctx context.Context) (*nsvapi.HealthStatus, error) {
	return s.api.Health(ctx)
}
