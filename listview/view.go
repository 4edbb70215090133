package listview

import (
	"nsv-dashboard/models"
)

// View is the rendering port the list drives. The production
// implementation mirrors every call to connected dashboards over
// WebSocket; tests substitute a recording fake.
//
// ResetView replaces the entire list area, including control state, with
// the given snapshot. AppendBatch adds to what is already shown and must
// never replace it.
type View interface {
	ResetView(snapshot models.ListSnapshot)
	AppendBatch(batch models.ListBatch)
	ShowEmpty()
	SetLoading(loading bool)
	SetLoadMoreVisible(visible bool)
	UpdateStats(stats models.ListStats)
}

// nopView keeps the renderer total when no view is attached.
type nopView struct{}

func (nopView) ResetView(models.ListSnapshot) {}
func (nopView) AppendBatch(models.ListBatch)  {}
func (nopView) ShowEmpty()                    {}
func (nopView) SetLoading(bool)               {}
func (nopView) SetLoadMoreVisible(bool)       {}
func (nopView) UpdateStats(models.ListStats)  {}
