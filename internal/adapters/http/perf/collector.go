// Package perf keeps a bounded window of timing samples for the /debug/perf endpoint.
package perf

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingSize is the default capacity of the sample window.
const DefaultRingSize = 4096

// Kind distinguishes what a sample measured.
type Kind uint8

const (
	KindRequest Kind = iota // one HTTP request
	KindQuery               // one SQL call against the record store
	KindNotify              // one board notification fan-out to all subscribers
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindQuery:
		return "query"
	case KindNotify:
		return "notify"
	}
	return "unknown"
}

// Entry is a single timing sample.
type Entry struct {
	Kind     Kind
	Name     string // "POST /projects", "ExecContext", "board.move"
	Status   int    // HTTP status for requests, 0 otherwise
	Duration time.Duration
	At       time.Time
}

// Collector is a fixed-size ring of samples. When full, the oldest sample is overwritten.
type Collector struct {
	mu      sync.Mutex
	ring    []Entry
	next    int
	total   atomic.Int64
	perKind [3]atomic.Int64
}

// NewCollector creates a collector holding at most size samples.
// PRE: none; size <= 0 falls back to DefaultRingSize
// POST: Returns an empty collector
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{ring: make([]Entry, 0, size)}
}

// Record stores a sample. Safe for concurrent use; a nil collector ignores the call.
func (c *Collector) Record(e Entry) {
	if c == nil {
		return
	}
	c.mu.Lock()
	if len(c.ring) < cap(c.ring) {
		c.ring = append(c.ring, e)
	} else {
		c.ring[c.next] = e
	}
	c.next = (c.next + 1) % cap(c.ring)
	c.mu.Unlock()

	c.total.Add(1)
	if int(e.Kind) < len(c.perKind) {
		c.perKind[e.Kind].Add(1)
	}
}

// TotalRecorded returns the number of samples ever recorded, including overwritten ones.
func (c *Collector) TotalRecorded() int64 {
	if c == nil {
		return 0
	}
	return c.total.Load()
}

// Stat aggregates the samples sharing one name.
type Stat struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	AvgMs float64 `json:"avg_ms"`
	MaxMs float64 `json:"max_ms"`
}

// KindSummary aggregates all samples of one kind in the window.
type KindSummary struct {
	Recorded int64   `json:"recorded"`
	P50Ms    float64 `json:"p50_ms"`
	P95Ms    float64 `json:"p95_ms"`
	Slowest  []Stat  `json:"slowest"`
}

// Snapshot is the aggregated view of the window.
type Snapshot struct {
	Total    int64       `json:"total"`
	Requests KindSummary `json:"requests"`
	Queries  KindSummary `json:"queries"`
	Notifies KindSummary `json:"notifies"`
}

// Snapshot aggregates samples taken at or after since, keeping the topN slowest names per kind.
// PRE: topN > 0
// POST: Returns percentiles and slowest names per kind; the ring is not modified
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	samples := make([]Entry, len(c.ring))
	copy(samples, c.ring)
	c.mu.Unlock()

	byKind := map[Kind][]Entry{}
	for _, e := range samples {
		if e.At.Before(since) {
			continue
		}
		byKind[e.Kind] = append(byKind[e.Kind], e)
	}

	return Snapshot{
		Total:    c.TotalRecorded(),
		Requests: summarize(byKind[KindRequest], c.perKind[KindRequest].Load(), topN),
		Queries:  summarize(byKind[KindQuery], c.perKind[KindQuery].Load(), topN),
		Notifies: summarize(byKind[KindNotify], c.perKind[KindNotify].Load(), topN),
	}
}

func summarize(entries []Entry, recorded int64, topN int) KindSummary {
	sum := KindSummary{Recorded: recorded, Slowest: []Stat{}}
	if len(entries) == 0 {
		return sum
	}

	durations := make([]float64, 0, len(entries))
	stats := map[string]*Stat{}
	for _, e := range entries {
		ms := float64(e.Duration.Microseconds()) / 1000.0
		durations = append(durations, ms)
		s, ok := stats[e.Name]
		if !ok {
			s = &Stat{Name: e.Name}
			stats[e.Name] = s
		}
		// AvgMs accumulates the total until the loop below divides it.
		s.Count++
		s.AvgMs += ms
		if ms > s.MaxMs {
			s.MaxMs = ms
		}
	}

	sort.Float64s(durations)
	sum.P50Ms = nearestRank(durations, 50)
	sum.P95Ms = nearestRank(durations, 95)

	for _, s := range stats {
		s.AvgMs /= float64(s.Count)
		sum.Slowest = append(sum.Slowest, *s)
	}
	sort.Slice(sum.Slowest, func(i, j int) bool {
		if sum.Slowest[i].AvgMs == sum.Slowest[j].AvgMs {
			return sum.Slowest[i].Name < sum.Slowest[j].Name
		}
		return sum.Slowest[i].AvgMs > sum.Slowest[j].AvgMs
	})
	if len(sum.Slowest) > topN {
		sum.Slowest = sum.Slowest[:topN]
	}
	return sum
}

// nearestRank returns the p-th percentile of a sorted, non-empty slice.
func nearestRank(sorted []float64, p int) float64 {
	idx := (p*len(sorted)+99)/100 - 1
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}
