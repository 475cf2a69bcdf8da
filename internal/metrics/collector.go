package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Operation names recorded by the API.
const (
	OpKickoff      = "kickoff"
	OpSubstitute   = "substitute"
	OpAutoSubs     = "auto_substitutions"
	OpProject      = "project"
	OpStandings    = "standings"
	OpTopScorers   = "top_scorers"
	OpFinalize     = "finalize"
	OpSchedule     = "schedule"
	OpEventsLogged = "events_logged"
)

type operation struct {
	latency *Histogram
	calls   atomic.Uint64
	errors  atomic.Uint64
}

// Collector tracks latency and error counts per named operation.
// Safe for concurrent use.
type Collector struct {
	mu        sync.RWMutex
	ops       map[string]*operation
	startTime time.Time
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		ops:       make(map[string]*operation),
		startTime: time.Now(),
	}
}

func (c *Collector) op(name string) *operation {
	c.mu.RLock()
	o, ok := c.ops[name]
	c.mu.RUnlock()
	if ok {
		return o
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if o, ok = c.ops[name]; !ok {
		o = &operation{latency: NewHistogram(DefaultHistogramSize)}
		c.ops[name] = o
	}
	return o
}

// Observe records one call of an operation.
func (c *Collector) Observe(name string, d time.Duration, err error) {
	if c == nil {
		return
	}
	o := c.op(name)
	o.calls.Add(1)
	if err != nil {
		o.errors.Add(1)
	}
	o.latency.Record(d)
}

// Since records a call that started at start.
func (c *Collector) Since(name string, start time.Time, err error) {
	c.Observe(name, time.Since(start), err)
}

// OperationStats is the snapshot of one operation.
type OperationStats struct {
	Name        string       `json:"name"`
	Calls       uint64       `json:"calls"`
	Errors      uint64       `json:"errors"`
	SuccessRate float64      `json:"success_rate"` // percentage
	Latency     LatencyStats `json:"latency"`
}

// Snapshot is the JSON view of a collector.
type Snapshot struct {
	Uptime     string           `json:"uptime"`
	Operations []OperationStats `json:"operations"`
}

// Snapshot returns the current statistics, operations sorted by name.
func (c *Collector) Snapshot() *Snapshot {
	c.mu.RLock()
	names := make([]string, 0, len(c.ops))
	for name := range c.ops {
		names = append(names, name)
	}
	c.mu.RUnlock()
	sort.Strings(names)

	snap := &Snapshot{
		Uptime:     time.Since(c.startTime).Round(time.Second).String(),
		Operations: make([]OperationStats, 0, len(names)),
	}
	for _, name := range names {
		o := c.op(name)
		calls, errs := o.calls.Load(), o.errors.Load()
		rate := 0.0
		if calls > 0 {
			rate = float64(calls-errs) / float64(calls) * 100
		}
		snap.Operations = append(snap.Operations, OperationStats{
			Name:        name,
			Calls:       calls,
			Errors:      errs,
			SuccessRate: rate,
			Latency:     o.latency.Stats(),
		})
	}
	return snap
}

// Reset clears every operation and restarts the uptime clock.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = make(map[string]*operation)
	c.startTime = time.Now()
}
