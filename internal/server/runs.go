package server

import (
	"sync"
	"time"

	"ticketsmith/internal/source"
	"ticketsmith/internal/workflow"
)

// Run states reported by the API.
const (
	RunRunning   = "running"
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

const maxFinishedRuns = 256

// RunStatus is the API view of a run started through the server.
type RunStatus struct {
	RunID      string           `json:"run_id"`
	State      string           `json:"state"`
	DryRun     bool             `json:"dry_run"`
	Request    source.Request   `json:"request"`
	Result     *workflow.Result `json:"result,omitempty"`
	Error      string           `json:"error,omitempty"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
}

type runRecord struct {
	mu       sync.Mutex
	status   RunStatus
	done     chan struct{}
	finalSeq uint64
}

func (r *runRecord) snapshot() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *runRecord) finished() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

func (r *runRecord) lastSequence() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finalSeq
}

func (r *runRecord) finish(result workflow.Result, err error, finalSeq uint64, at time.Time) {
	r.mu.Lock()
	r.status.Result = &result
	r.status.State = RunSucceeded
	if err != nil {
		r.status.State = RunFailed
		r.status.Error = err.Error()
	}
	r.status.FinishedAt = &at
	r.finalSeq = finalSeq
	r.mu.Unlock()
	close(r.done)
}

// runRegistry tracks in-flight runs and a bounded window of finished ones.
type runRegistry struct {
	mu    sync.Mutex
	runs  map[string]*runRecord
	order []string
}

func newRunRegistry() *runRegistry {
	return &runRegistry{runs: make(map[string]*runRecord)}
}

func (g *runRegistry) start(id string, req source.Request, dryRun bool, at time.Time) *runRecord {
	rec := &runRecord{
		status: RunStatus{RunID: id, State: RunRunning, DryRun: dryRun, Request: req, StartedAt: at},
		done:   make(chan struct{}),
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.runs[id] = rec
	g.order = append(g.order, id)
	g.pruneLocked()
	return rec
}

func (g *runRegistry) get(id string) (*runRecord, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rec, ok := g.runs[id]
	return rec, ok
}

func (g *runRegistry) active() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	count := 0
	for _, rec := range g.runs {
		if !rec.finished() {
			count++
		}
	}
	return count
}

func (g *runRegistry) pruneLocked() {
	excess := len(g.order) - maxFinishedRuns
	if excess <= 0 {
		return
	}
	kept := g.order[:0]
	for _, id := range g.order {
		if excess > 0 && g.runs[id].finished() {
			delete(g.runs, id)
			excess--
			continue
		}
		kept = append(kept, id)
	}
	g.order = kept
}
