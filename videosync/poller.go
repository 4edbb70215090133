// Package videosync tracks survey video processing on the backend and
// the GPS-to-survey synchronization derived from it.
package videosync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/apex/log"

	"nsv-dashboard/metrics"
	"nsv-dashboard/models"
	"nsv-dashboard/nsvapi"
)

// StatusAPI is the slice of the backend client the poller needs.
type StatusAPI interface {
	GetVideo(ctx context.Context, videoID string) (*nsvapi.VideoStatus, error)
}

// Events receives the poller's outcomes. The production implementation
// mirrors them to dashboards; tests substitute a recorder.
type Events interface {
	// VideoStatusChanged fires after every status poll with the job's
	// current state.
	VideoStatusChanged(job models.VideoJob)
	// VideoReady fires once when processing completes and the video
	// metadata has been loaded. Sync becomes available at this point.
	VideoReady(job models.VideoJob)
	// VideoFailed fires when the backend itself marks the job failed.
	VideoFailed(job models.VideoJob, reason string)
	// PollHalted fires when the backend can no longer be reached. The job
	// is not failed; polling just cannot continue.
	PollHalted(job models.VideoJob, err error)
}

// Poller watches one video processing job at a time. Tracking a new video
// cancels the loop of the previous one, so a stale job can never flip the
// dashboard's sync controls after a re-upload.
type Poller struct {
	api      StatusAPI
	events   Events
	interval time.Duration

	mu     sync.Mutex
	job    *models.VideoJob
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPoller creates a poller that queries the job status every interval.
func NewPoller(api StatusAPI, events Events, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Poller{
		api:      api,
		events:   events,
		interval: interval,
	}
}

// Track starts following a freshly uploaded video. The first status query
// goes out immediately; afterwards the job is polled at the fixed
// interval until it reaches a terminal state, the backend becomes
// unreachable, or another video replaces it.
func (p *Poller) Track(videoID, filename string) {
	ctx, cancel := context.WithCancel(context.Background())

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.cancel = cancel
	job := models.VideoJob{
		VideoID:  videoID,
		Filename: filename,
		Status:   models.VideoStatusProcessing,
	}
	p.job = &job
	p.mu.Unlock()

	p.events.VideoStatusChanged(job)

	p.wg.Add(1)
	go p.pollLoop(ctx, videoID)
}

// Job returns a copy of the tracked job, if any.
func (p *Poller) Job() (models.VideoJob, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.job == nil {
		return models.VideoJob{}, false
	}
	return *p.job, true
}

// Drop forgets the tracked job and cancels its poll loop, used when the
// video is deleted from the backend.
func (p *Poller) Drop(videoID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.job == nil || p.job.VideoID != videoID {
		return
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.job = nil
}

// Stop cancels any running poll loop and waits for it to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Poller) pollLoop(ctx context.Context, videoID string) {
	defer p.wg.Done()

	// Immediate first query, then the fixed cadence. The backend gives no
	// progress estimate, so there is no backoff and no retry cap; the
	// loop runs until a terminal state or cancellation.
	if p.pollOnce(ctx, videoID) {
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.pollOnce(ctx, videoID) {
				return
			}
		}
	}
}

// pollOnce queries the job status once. It returns true when no further
// poll should be scheduled.
func (p *Poller) pollOnce(ctx context.Context, videoID string) bool {
	metrics.VideoPollsTotal.Inc()
	status, err := p.api.GetVideo(ctx, videoID)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		job, ok := p.updateJob(videoID, func(j *models.VideoJob) {
			j.Error = err.Error()
		})
		if !ok {
			return true
		}
		var apiErr *nsvapi.APIError
		if errors.As(err, &apiErr) && apiErr.Unreachable() {
			log.Errorf("video %s: backend unreachable, polling halted: %v", videoID, err)
		} else {
			log.Errorf("video %s: status query failed, polling halted: %v", videoID, err)
		}
		p.events.PollHalted(job, err)
		return true
	}

	state := status.State()
	job, ok := p.updateJob(videoID, func(j *models.VideoJob) {
		j.Status = state
		j.Error = status.Reason()
		if status.Duration > 0 {
			j.Duration = status.Duration
		}
		if status.FPS > 0 {
			j.FPS = status.FPS
		}
	})
	if !ok {
		return true
	}
	p.events.VideoStatusChanged(job)

	switch state {
	case models.VideoStatusCompleted:
		job = p.loadMetadata(ctx, videoID, job)
		log.WithFields(log.Fields{
			"video_id": videoID,
			"duration": job.Duration,
		}).Info("video.processing.completed")
		p.events.VideoReady(job)
		return true
	case models.VideoStatusFailed:
		log.Errorf("video %s: processing failed: %s", videoID, job.Error)
		p.events.VideoFailed(job, job.Error)
		return true
	}
	return false
}

// loadMetadata fetches the finished video's playback details. The status
// response usually carries them already; a dedicated load keeps the
// dashboard correct on backends that fill duration only after processing.
func (p *Poller) loadMetadata(ctx context.Context, videoID string, job models.VideoJob) models.VideoJob {
	status, err := p.api.GetVideo(ctx, videoID)
	if err != nil {
		log.Warnf("video %s: metadata load failed, keeping status values: %v", videoID, err)
		return job
	}
	updated, ok := p.updateJob(videoID, func(j *models.VideoJob) {
		if status.Duration > 0 {
			j.Duration = status.Duration
		}
		if status.FPS > 0 {
			j.FPS = status.FPS
		}
	})
	if !ok {
		return job
	}
	return updated
}

// updateJob mutates the tracked job under the lock, refusing when the
// tracked video changed while a poll was in flight.
func (p *Poller) updateJob(videoID string, fn func(*models.VideoJob)) (models.VideoJob, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.job == nil || p.job.VideoID != videoID {
		return models.VideoJob{}, false
	}
	fn(p.job)
	return *p.job, true
}
