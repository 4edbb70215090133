package service

import (
	"fmt"

	"nsv-dashboard/metrics"
	"nsv-dashboard/models"
	ws "nsv-dashboard/websocket"
)

// dashboardView mirrors the list renderer to every connected dashboard.
// Each port call becomes one broadcast; dashboards that connect later are
// seeded from the renderer snapshot instead.
type dashboardView struct {
	hub *ws.Hub
}

func (v *dashboardView) ResetView(snapshot models.ListSnapshot) {
	metrics.ListBatchesTotal.Inc()
	metrics.ListItemsRenderedTotal.Add(float64(snapshot.Stats.Showing))
	v.hub.Broadcast(models.MsgListReset, snapshot)
}

func (v *dashboardView) AppendBatch(batch models.ListBatch) {
	metrics.ListBatchesTotal.Inc()
	metrics.ListItemsRenderedTotal.Add(float64(batch.Appended))
	v.hub.Broadcast(models.MsgListBatch, batch)
}

func (v *dashboardView) ShowEmpty() {
	v.hub.Broadcast(models.MsgListEmpty, nil)
}

func (v *dashboardView) SetLoading(loading bool) {
	v.hub.Broadcast(models.MsgListLoading, map[string]bool{"loading": loading})
}

func (v *dashboardView) SetLoadMoreVisible(visible bool) {
	v.hub.Broadcast(models.MsgListLoadMore, map[string]bool{"visible": visible})
}

func (v *dashboardView) UpdateStats(stats models.ListStats) {
	v.hub.Broadcast(models.MsgListStats, stats)
}

// pollerEvents turns poller outcomes into broadcasts and notifications.
type pollerEvents struct {
	s *Service
}

func (e *pollerEvents) VideoStatusChanged(job models.VideoJob) {
	e.s.hub.Broadcast(models.MsgVideoStatus, job)
}

func (e *pollerEvents) VideoReady(job models.VideoJob) {
	e.s.hub.Broadcast(models.MsgVideoStatus, job)
	e.s.Notify(models.NotifySuccess,
		fmt.Sprintf("Video %s processed, GPS sync available", job.Filename))
}

func (e *pollerEvents) VideoFailed(job models.VideoJob, reason string) {
	e.s.hub.Broadcast(models.MsgVideoStatus, job)
	if reason == "" {
		reason = "unknown error"
	}
	e.s.Notify(models.NotifyError, "Video processing failed: "+reason)
}

func (e *pollerEvents) PollHalted(job models.VideoJob, err error) {
	e.s.hub.Broadcast(models.MsgVideoStatus, job)
	e.s.Notify(models.NotifyError,
		fmt.Sprintf("Lost contact with the survey backend while processing %s: %v", job.Filename, err))
}
