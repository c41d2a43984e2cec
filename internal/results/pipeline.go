// File: internal/results/pipeline.go
package results

import (
	"sort"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Report represents the final aggregated run.
type Report struct {
	RunID      string         `json:"run_id"`
	Metadata   Metadata       `json:"metadata"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Results    []TestResult   `json:"results"`
	Summary    map[string]int `json:"summary"`
}

// ToJSON serializes the report to a JSON byte slice.
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Count returns how many results ended with o.
func (r *Report) Count(o Outcome) int {
	return r.Summary[string(o)]
}

// Failed reports whether any test ended failed.
func (r *Report) Failed() bool {
	return r.Count(Failed) > 0
}

// NewReport orders the results by suite then id and tallies the outcomes.
func NewReport(runID string, meta Metadata, started, finished time.Time, res []TestResult) *Report {
	ordered := make([]TestResult, len(res))
	copy(ordered, res)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Suite != ordered[j].Suite {
			return ordered[i].Suite < ordered[j].Suite
		}
		return ordered[i].ID < ordered[j].ID
	})

	summary := make(map[string]int, len(Outcomes)+1)
	for _, o := range Outcomes {
		summary[string(o)] = 0
	}
	for _, r := range ordered {
		summary[string(r.Outcome)]++
		if len(r.History) > 1 {
			summary["rerun"]++
		}
	}
	summary["total"] = len(ordered)

	return &Report{
		RunID:      runID,
		Metadata:   meta,
		StartedAt:  started,
		FinishedAt: finished,
		Results:    ordered,
		Summary:    summary,
	}
}
