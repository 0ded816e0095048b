package metasync

import "sync"

// Outcome records one entity's fate in a sync batch. Error carries the
// failure text verbatim for API consumers; it is empty for exports.
type Outcome struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Error string `json:"error,omitempty"`
}

// Result is what a sync call hands back: every input entity appears in
// exactly one of the two lists.
type Result struct {
	Exported      []Outcome `json:"exported"`
	Failed        []Outcome `json:"failed"`
	ExportedCount int       `json:"exported_count"`
	FailedCount   int       `json:"failed_count"`
}

// Accumulator collects per-entity outcomes without raising. Safe for use
// from the batch worker goroutines.
type Accumulator struct {
	mu       sync.Mutex
	exported []Outcome
	failed   []Outcome
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

func (a *Accumulator) Exported(id, name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.exported = append(a.exported, Outcome{ID: id, Name: name})
}

func (a *Accumulator) Failed(id, name string, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failed = append(a.failed, Outcome{ID: id, Name: name, Error: err.Error()})
}

func (a *Accumulator) Result() Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Result{
		Exported:      append([]Outcome(nil), a.exported...),
		Failed:        append([]Outcome(nil), a.failed...),
		ExportedCount: len(a.exported),
		FailedCount:   len(a.failed),
	}
}
