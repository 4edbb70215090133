package videosync

import (
	"github.com/shopspring/decimal"

	"nsv-dashboard/models"
)

// ComputeStats summarizes mapping quality after a sync run. A mapping
// counts as matched when its distance is at or under threshold meters.
// Rate and average are rounded to one decimal, matching what the
// dashboard displays.
func ComputeStats(mappings []models.SyncMapping, threshold float64) models.SyncStats {
	stats := models.SyncStats{Total: len(mappings)}
	if stats.Total == 0 {
		return stats
	}

	sum := decimal.Zero
	for i := range mappings {
		if mappings[i].DistanceMeters <= threshold {
			stats.Matched++
		}
		sum = sum.Add(decimal.NewFromFloat(mappings[i].DistanceMeters))
	}

	total := decimal.NewFromInt(int64(stats.Total))
	rate := decimal.NewFromInt(int64(stats.Matched)).
		Mul(decimal.NewFromInt(100)).
		Div(total).
		Round(1)
	avg := sum.Div(total).Round(1)

	stats.MatchRate = rate.InexactFloat64()
	stats.AvgDistanceM = avg.InexactFloat64()
	return stats
}
