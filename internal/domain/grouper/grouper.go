// Package grouper partitions a flat reading list into per-group buckets,
// keeping shared (general) counters apart from ordinary readings.
//
// The flat reading list stays the source of truth: readings whose group id
// is unknown are left out of the grouped view but still count wherever the
// flat list is used, e.g. in allocation totals.
package grouper

import (
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/energysplit/internal/domain/consumption"
)

// MaxDepth bounds how far Rollup walks down a group hierarchy.
const MaxDepth = 16

// Bucket holds the readings owned by one group.
type Bucket struct {
	Group          consumption.Group     `json:"group"`
	Ordinary       []consumption.Reading `json:"ordinary"`
	SharedCounters []consumption.Reading `json:"shared_counters"`
}

// Name returns the group's display name.
func (b *Bucket) Name() string {
	return b.Group.Name
}

// OrdinaryTotal sums kWh over the ordinary readings.
func (b *Bucket) OrdinaryTotal() float64 {
	return sumKwh(b.Ordinary)
}

// SharedCounterTotal sums kWh over the shared counters.
func (b *Bucket) SharedCounterTotal() float64 {
	return sumKwh(b.SharedCounters)
}

// Group partitions readings by group id. Every group in groups gets a bucket,
// even one with no readings. Ungrouped readings are left out.
func Group(readings []consumption.Reading, groups []consumption.Group) map[string]*Bucket {
	buckets := make(map[string]*Bucket, len(groups))
	for _, g := range groups {
		if g.ID == "" {
			continue
		}
		buckets[g.ID] = &Bucket{
			Group:          g,
			Ordinary:       []consumption.Reading{},
			SharedCounters: []consumption.Reading{},
		}
	}

	for _, r := range readings {
		if r.GroupID == "" {
			continue
		}
		b, ok := buckets[r.GroupID]
		if !ok {
			continue
		}
		if r.IsSharedCounter {
			b.SharedCounters = append(b.SharedCounters, r.Clone())
		} else {
			b.Ordinary = append(b.Ordinary, r.Clone())
		}
	}

	return buckets
}

// Ordered returns the buckets in the order groups were declared, skipping
// groups that have no bucket.
func Ordered(buckets map[string]*Bucket, groups []consumption.Group) []*Bucket {
	out := make([]*Bucket, 0, len(groups))
	seen := make(map[string]bool, len(groups))
	for _, g := range groups {
		if seen[g.ID] {
			continue
		}
		seen[g.ID] = true
		if b, ok := buckets[g.ID]; ok {
			out = append(out, b)
		}
	}
	return out
}

// Totals is the consumption of a group including its descendants.
type Totals struct {
	Ordinary      float64 `json:"ordinary_kwh"`
	SharedCounter float64 `json:"shared_counter_kwh"`
	Groups        int     `json:"groups"`
}

// Rollup sums a group's consumption together with every descendant reachable
// through ParentGroupID. Self references and cycles are ignored and the walk
// stops after MaxDepth levels. An unknown id yields zero totals.
func Rollup(buckets map[string]*Bucket, groupID string) Totals {
	if _, ok := buckets[groupID]; !ok {
		return Totals{}
	}

	children := make(map[string][]string)
	for id, b := range buckets {
		parent := b.Group.ParentGroupID
		if parent == "" || parent == id {
			continue
		}
		children[parent] = append(children[parent], id)
	}

	ordinary, shared := decimal.Zero, decimal.Zero
	visited := make(map[string]bool)
	count := 0

	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		if visited[id] || depth > MaxDepth {
			return
		}
		visited[id] = true
		b := buckets[id]
		ordinary = ordinary.Add(decimal.NewFromFloat(b.OrdinaryTotal()))
		shared = shared.Add(decimal.NewFromFloat(b.SharedCounterTotal()))
		count++
		for _, child := range children[id] {
			walk(child, depth+1)
		}
	}
	walk(groupID, 0)

	return Totals{
		Ordinary:      ordinary.InexactFloat64(),
		SharedCounter: shared.InexactFloat64(),
		Groups:        count,
	}
}

func sumKwh(readings []consumption.Reading) float64 {
	total := decimal.Zero
	for _, r := range readings {
		total = total.Add(decimal.NewFromFloat(r.Kwh))
	}
	return total.InexactFloat64()
}
