// Package listview renders the paginated severity list. All state lives
// in the Renderer and changes only through its operations; the attached
// View receives the resulting batches. Operations never fail: malformed
// input degrades to a no-op so a bad dataset can never take the list down.
package listview

import (
	"sync"
	"time"

	"github.com/apex/log"

	"nsv-dashboard/models"
)

// section is one severity group of the rendered list. count is a running
// counter that only ever grows by the size of an appended batch.
type section struct {
	severity models.Severity
	items    []models.SurveyPoint
	count    int
}

// Renderer paginates the current dataset into severity-grouped batches.
type Renderer struct {
	mu sync.Mutex

	view     View
	pageSize int
	delay    time.Duration

	// schedule defers the delayed append; tests replace it to control
	// exactly when pending appends fire.
	schedule func(d time.Duration, f func())

	dataset  []models.SurveyPoint
	filter   models.Filter
	filtered []models.SurveyPoint
	cursor   int

	// generation is bumped by SetDataset and SetFilter. A delayed append
	// captured under an older generation is discarded when it fires, so a
	// filter change can never be trailed by a stale batch.
	generation uint64
	loading    bool

	sections []*section
	bySev    map[models.Severity]*section
	empty    bool
}

// New creates a renderer over the given view. pageSize and delay follow
// the dashboard contract: 50 items per batch, 500ms before a load-more
// batch is appended. The first batch after a reset is always synchronous.
func New(view View, pageSize int, delay time.Duration) *Renderer {
	if view == nil {
		view = nopView{}
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	return &Renderer{
		view:     view,
		pageSize: pageSize,
		delay:    delay,
		schedule: func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		filter:   models.FilterAll,
		bySev:    map[models.Severity]*section{},
		empty:    true,
	}
}

// SetDataset replaces the dataset snapshot, resets the filter to All and
// the cursor to zero, and renders the first batch synchronously. An empty
// dataset clears the list to the placeholder and hides the controls.
func (r *Renderer) SetDataset(points []models.SurveyPoint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.generation++
	r.loading = false
	r.dataset = append([]models.SurveyPoint(nil), points...)
	r.filter = models.FilterAll
	r.reset()
}

// SetFilter switches the severity filter, resets the cursor and re-derives
// the visible list from the original unfiltered dataset. Filtering All
// after a narrower filter restores the full list. Unknown filter values
// are ignored.
func (r *Renderer) SetFilter(f models.Filter) {
	switch f {
	case models.FilterAll, models.FilterHigh, models.FilterMedium, models.FilterLow:
	default:
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.generation++
	r.loading = false
	r.filter = f
	r.reset()
}

// Filter returns the active severity filter.
func (r *Renderer) Filter() models.Filter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter
}

// Dataset returns the unfiltered dataset snapshot the list renders from.
func (r *Renderer) Dataset() []models.SurveyPoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.SurveyPoint(nil), r.dataset...)
}

// Filtered returns the points passing the active filter, in dataset order.
func (r *Renderer) Filtered() []models.SurveyPoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.SurveyPoint(nil), r.filtered...)
}

// LoadMore appends the next batch after the configured delay. It is a
// no-op while a load is already in flight or when the filtered list is
// exhausted; in both cases nothing is scheduled.
func (r *Renderer) LoadMore() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loading {
		return
	}
	if len(r.filtered)-r.cursor <= 0 {
		return
	}

	r.loading = true
	r.view.SetLoading(true)

	gen := r.generation
	r.schedule(r.delay, func() { r.applyPending(gen) })
}

// applyPending runs when a scheduled load-more delay elapses. It fires on
// a timer goroutine, so a panic here would kill the process; recover
// instead and drop the batch.
func (r *Renderer) applyPending(gen uint64) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf("list append dropped after panic: %v", rec)
		}
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.generation {
		// Dataset or filter changed while the delay ran; the reset
		// already re-rendered, this batch belongs to the old view.
		return
	}
	r.loading = false

	batch := r.appendNext()
	if batch == nil {
		r.view.SetLoading(false)
		return
	}
	r.view.AppendBatch(*batch)
	r.view.SetLoading(false)
	r.view.SetLoadMoreVisible(batch.Stats.Remaining > 0)
	r.view.UpdateStats(batch.Stats)
}

// Stats returns the "Showing X of Y" numbers for the current view.
func (r *Renderer) Stats() models.ListStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats()
}

// Snapshot returns the full rendered list, used to seed dashboards that
// connect mid-session.
func (r *Renderer) Snapshot() models.ListSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

// reset re-derives the filtered list and renders the first batch without
// delay. Callers hold the lock and have already bumped the generation.
func (r *Renderer) reset() {
	r.filtered = r.filtered[:0]
	for i := range r.dataset {
		if r.filter.Matches(models.ParseSeverity(string(r.dataset[i].Severity))) {
			r.filtered = append(r.filtered, r.dataset[i])
		}
	}
	r.cursor = 0
	r.sections = nil
	r.bySev = map[models.Severity]*section{}

	if len(r.filtered) == 0 {
		r.empty = true
		r.view.ShowEmpty()
		r.view.SetLoadMoreVisible(false)
		return
	}
	r.empty = false

	r.appendNext()
	r.view.ResetView(r.snapshot())
}

// appendNext moves the cursor over the next batch and folds it into the
// section state. Returns nil when the list is exhausted.
func (r *Renderer) appendNext() *models.ListBatch {
	remaining := len(r.filtered) - r.cursor
	if remaining <= 0 {
		return nil
	}
	n := r.pageSize
	if remaining < n {
		n = remaining
	}
	items := r.filtered[r.cursor : r.cursor+n]
	r.cursor += n

	// Group by severity in order of first appearance within this batch.
	var order []models.Severity
	grouped := map[models.Severity][]models.SurveyPoint{}
	for i := range items {
		sev := models.ParseSeverity(string(items[i].Severity))
		if _, seen := grouped[sev]; !seen {
			order = append(order, sev)
		}
		grouped[sev] = append(grouped[sev], items[i])
	}

	batch := &models.ListBatch{Appended: n}
	for _, sev := range order {
		sec := r.bySev[sev]
		if sec == nil {
			sec = &section{severity: sev}
			r.bySev[sev] = sec
			r.sections = append(r.sections, sec)
		}
		sec.items = append(sec.items, grouped[sev]...)
		sec.count += len(grouped[sev])
		batch.Sections = append(batch.Sections, models.ListSection{
			Severity: sev,
			Color:    sev.Color(),
			Items:    grouped[sev],
			Count:    sec.count,
		})
	}
	batch.Stats = r.stats()
	return batch
}

func (r *Renderer) stats() models.ListStats {
	total := len(r.filtered)
	showing := r.cursor
	if showing > total {
		showing = total
	}
	return models.ListStats{
		Showing:   showing,
		Total:     total,
		Remaining: total - showing,
		Filter:    r.filter,
	}
}

func (r *Renderer) snapshot() models.ListSnapshot {
	snap := models.ListSnapshot{
		Stats:   r.stats(),
		Loading: r.loading,
		Empty:   r.empty,
	}
	for _, sec := range r.sections {
		snap.Sections = append(snap.Sections, models.ListSection{
			Severity: sec.severity,
			Color:    sec.severity.Color(),
			Items:    append([]models.SurveyPoint(nil), sec.items...),
			Count:    sec.count,
		})
	}
	return snap
}
