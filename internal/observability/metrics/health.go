package metrics

import "time"

// CategoryHealth is the verdict for one tracked sync category.
type CategoryHealth struct {
	Status      string     `json:"status"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
	LastRun     *time.Time `json:"last_run,omitempty"`
}

// APIHealth is the cumulative call-level verdict.
type APIHealth struct {
	Status       string  `json:"status"`
	Calls        int64   `json:"calls"`
	SuccessRatio float64 `json:"success_ratio"`
}

// HealthReport is the rollup verdict consumed by the health endpoint. It is a
// liveness/freshness heuristic: it detects staleness and outright failures,
// not silently-wrong data.
type HealthReport struct {
	Status     string                    `json:"status"`
	API        APIHealth                 `json:"api"`
	Categories map[string]CategoryHealth `json:"categories"`
}

// Health derives the verdict: each category is healthy iff its last
// successful run is within the freshness window; the API is healthy iff at
// least one call was recorded and the cumulative success ratio exceeds 95%;
// overall health requires both.
func (t *Tracker) Health() HealthReport {
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	report := HealthReport{
		Status:     StatusHealthy,
		Categories: make(map[string]CategoryHealth, len(t.syncs)),
	}

	for name, s := range t.syncs {
		ch := CategoryHealth{Status: StatusHealthy}
		if s.LastSuccess.IsZero() || now.Sub(s.LastSuccess) > t.freshness {
			ch.Status = StatusUnhealthy
			report.Status = StatusUnhealthy
		}
		if !s.LastSuccess.IsZero() {
			lastSuccess := s.LastSuccess
			ch.LastSuccess = &lastSuccess
		}
		if !s.LastRun.IsZero() {
			lastRun := s.LastRun
			ch.LastRun = &lastRun
		}
		report.Categories[name] = ch
	}

	var total, success int64
	for _, s := range t.calls {
		total += s.Total
		success += s.Success
	}
	api := APIHealth{Status: StatusHealthy, Calls: total}
	if total > 0 {
		api.SuccessRatio = float64(success) / float64(total)
	}
	if total == 0 || api.SuccessRatio <= healthySuccessRatio {
		api.Status = StatusUnhealthy
		report.Status = StatusUnhealthy
	}
	report.API = api

	return report
}
