package pipeline

import (
	"log/slog"
	"sort"
	"time"
)

// DropReason identifies why a record was excluded from a run.
type DropReason string

const (
	DropBuildingYear DropReason = "building_year"
	DropPeriod       DropReason = "period"
	DropPrice        DropReason = "price"
	DropArea         DropReason = "area"
	DropPrefecture   DropReason = "prefecture"
	DropMunicipality DropReason = "municipality"
	DropJoinMiss     DropReason = "join_miss"
	DropAgeRange     DropReason = "age_range"
	DropAreaRange    DropReason = "area_range"
)

// Report summarizes a run. Drops never abort a run; they are only counted.
type Report struct {
	RunID        string
	StartedAt    time.Time
	FinishedAt   time.Time
	RawRecords   int
	Staged       int
	Facts        int
	TrainingRows int
	Drops        map[DropReason]int
}

func newReport(runID string, started time.Time) *Report {
	return &Report{
		RunID:     runID,
		StartedAt: started,
		Drops:     make(map[DropReason]int),
	}
}

func (r *Report) drop(reason DropReason) {
	r.Drops[reason]++
}

// Dropped returns the total number of excluded records.
func (r *Report) Dropped() int {
	total := 0
	for _, n := range r.Drops {
		total += n
	}
	return total
}

// Reasons returns the drop reasons with a non-zero count, sorted.
func (r *Report) Reasons() []DropReason {
	reasons := make([]DropReason, 0, len(r.Drops))
	for reason, n := range r.Drops {
		if n > 0 {
			reasons = append(reasons, reason)
		}
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
	return reasons
}

// Log writes the report at info level.
func (r *Report) Log() {
	attrs := []any{
		"run_id", r.RunID,
		"raw", r.RawRecords,
		"staged", r.Staged,
		"facts", r.Facts,
		"training_rows", r.TrainingRows,
		"dropped", r.Dropped(),
		"duration", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
	}
	for _, reason := range r.Reasons() {
		attrs = append(attrs, "drop_"+string(reason), r.Drops[reason])
	}
	slog.Info("Pipeline: run finished", attrs...)
}
