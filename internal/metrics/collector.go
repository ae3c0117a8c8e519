// Package metrics aggregates per-operation runtime statistics and persists
// cumulative totals so `medilex usage` has data across process runs.
package metrics

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Operation names for the collector.
const (
	OpLookup = "lookup"
	OpChat   = "chat"
	OpImage  = "image"
)

// OperationMetrics holds cumulative totals for a single operation type.
type OperationMetrics struct {
	Count       int64 `json:"count"`
	TotalTimeMs int64 `json:"total_time_ms"`
	MinTimeMs   int64 `json:"min_time_ms"`
	MaxTimeMs   int64 `json:"max_time_ms"`
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Count       int64
	TotalTimeMs int64
	AvgTimeMs   float64
	MinTimeMs   int64
	MaxTimeMs   int64
}

// Snapshot is the full usage picture at a point in time.
type Snapshot struct {
	Lookup *OperationSnapshot
	Chat   *OperationSnapshot
	Image  *OperationSnapshot
}

// saver is the persistence hook; *store.KV satisfies it.
type saver interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
}

const usageKey = "medilex_usage"

// Collector aggregates operation statistics. All methods are thread-safe.
// When constructed with a store, totals are loaded at startup and written
// back after each record.
type Collector struct {
	mu    sync.RWMutex
	ops   map[string]*OperationMetrics
	store saver
}

// NewCollector creates an in-memory collector.
func NewCollector() *Collector {
	return &Collector{ops: make(map[string]*OperationMetrics)}
}

// NewPersistentCollector creates a collector seeded from and mirrored to s.
// Corrupt stored totals are discarded and counting restarts from zero.
func NewPersistentCollector(s saver) *Collector {
	c := &Collector{ops: make(map[string]*OperationMetrics), store: s}
	if raw, ok, err := s.Get(usageKey); err == nil && ok {
		var ops map[string]*OperationMetrics
		if json.Unmarshal([]byte(raw), &ops) == nil && ops != nil {
			c.ops = ops
		}
	}
	return c
}

// Record adds one timed occurrence of op.
func (c *Collector) Record(op string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{}
		c.ops[op] = m
	}

	ms := duration.Milliseconds()
	m.Count++
	m.TotalTimeMs += ms
	if m.Count == 1 || ms < m.MinTimeMs {
		m.MinTimeMs = ms
	}
	if ms > m.MaxTimeMs {
		m.MaxTimeMs = ms
	}

	c.persistLocked()
}

// persistLocked writes totals back to the store. Failures are ignored:
// usage stats are best-effort and must never break an operation.
func (c *Collector) persistLocked() {
	if c.store == nil {
		return
	}
	raw, err := json.Marshal(c.ops)
	if err != nil {
		return
	}
	_ = c.store.Set(usageKey, string(raw))
}

// GetSnapshot returns computed statistics for all operations.
func (c *Collector) GetSnapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		Lookup: c.snapshotLocked(OpLookup),
		Chat:   c.snapshotLocked(OpChat),
		Image:  c.snapshotLocked(OpImage),
	}
}

func (c *Collector) snapshotLocked(op string) *OperationSnapshot {
	m, ok := c.ops[op]
	if !ok || m.Count == 0 {
		return nil
	}
	return &OperationSnapshot{
		Count:       m.Count,
		TotalTimeMs: m.TotalTimeMs,
		AvgTimeMs:   float64(m.TotalTimeMs) / float64(m.Count),
		MinTimeMs:   m.MinTimeMs,
		MaxTimeMs:   m.MaxTimeMs,
	}
}

// Format renders a snapshot for the usage command.
func (s Snapshot) Format() string {
	out := ""
	for _, row := range []struct {
		name string
		op   *OperationSnapshot
	}{
		{"Lookups", s.Lookup},
		{"Chat turns", s.Chat},
		{"Image requests", s.Image},
	} {
		if row.op == nil {
			out += fmt.Sprintf("%-15s none recorded\n", row.name+":")
			continue
		}
		out += fmt.Sprintf("%-15s %d calls, avg %.0f ms (min %d / max %d)\n",
			row.name+":", row.op.Count, row.op.AvgTimeMs, row.op.MinTimeMs, row.op.MaxTimeMs)
	}
	return out
}
