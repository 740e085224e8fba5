package syncsvc

import "time"

// Result is the structured outcome of one sync run, returned verbatim by the
// manual trigger endpoint. Partial failures are reported through the counts
// instead of an error, except when the whole upsert batch rolled back.
type Result struct {
	Entity     string    `json:"entity"`
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
	Fetched    int       `json:"fetched"`
	Upserted   int       `json:"upserted"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	Error      string    `json:"error,omitempty"`
}
