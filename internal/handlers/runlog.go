package handlers

import (
	"sync"
	"time"

	"zone_control/internal/metasync"
)

// RunSummary is the last outcome of one sync family, as streamed to
// WebSocket subscribers.
type RunSummary struct {
	Family        string    `json:"family"`
	ExportedCount int       `json:"exported_count"`
	FailedCount   int       `json:"failed_count"`
	At            time.Time `json:"at"`
}

// runLog keeps the latest summary per family.
type runLog struct {
	mu     sync.Mutex
	latest map[string]RunSummary
}

func newRunLog() *runLog {
	return &runLog{latest: make(map[string]RunSummary)}
}

func (r *runLog) record(family string, res metasync.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latest[family] = RunSummary{
		Family:        family,
		ExportedCount: res.ExportedCount,
		FailedCount:   res.FailedCount,
		At:            time.Now().UTC(),
	}
}

func (r *runLog) snapshot() []RunSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RunSummary, 0, len(r.latest))
	for _, s := range r.latest {
		out = append(out, s)
	}
	return out
}
