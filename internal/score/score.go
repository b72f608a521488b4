// Package score accumulates similarity scores keyed by item identity and
// reshapes them into long and wide tables.
package score

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KyungWonPark/StateSpace/internal/errs"
)

// Level is one identity level of a score key.
type Level int

const (
	Item Level = iota
	Subject
	Run
	Timepoint
)

// Column is the table header used for the level.
func (l Level) Column() string {
	switch l {
	case Item:
		return "Task_name"
	case Subject:
		return "Subject"
	case Run:
		return "Run"
	case Timepoint:
		return "Timepoint"
	}
	return fmt.Sprintf("Level%d", int(l))
}

// Key identifies one scored item. Unused levels stay empty.
type Key struct {
	Item      string
	Subject   string
	Run       string
	Timepoint string
}

// Get returns the value of one level.
func (k Key) Get(l Level) string {
	switch l {
	case Item:
		return k.Item
	case Subject:
		return k.Subject
	case Run:
		return k.Run
	case Timepoint:
		return k.Timepoint
	}
	return ""
}

func (k *Key) set(l Level, v string) {
	switch l {
	case Item:
		k.Item = v
	case Subject:
		k.Subject = v
	case Run:
		k.Run = v
	case Timepoint:
		k.Timepoint = v
	}
}

// Project keeps only the given levels.
func (k Key) Project(levels []Level) Key {
	var out Key
	for _, l := range levels {
		out.set(l, k.Get(l))
	}
	return out
}

func (k Key) String() string {
	parts := make([]string, 0, 4)
	for _, l := range []Level{Item, Subject, Run, Timepoint} {
		if v := k.Get(l); v != "" {
			parts = append(parts, l.Column()+"="+v)
		}
	}
	return strings.Join(parts, ",")
}

// TimepointKey formats a 0-based frame index.
func TimepointKey(t int) string {
	return strconv.Itoa(t)
}

type cell struct {
	key Key
	ref string
}

// Aggregator is an append-only map from (key, reference) to score.
type Aggregator struct {
	levels []Level
	values map[cell]float64
	keys   []Key
	seen   map[Key]bool
	refs   []string
	known  map[string]bool
}

// NewAggregator returns an empty aggregator whose keys use the given levels.
func NewAggregator(levels ...Level) *Aggregator {
	return &Aggregator{
		levels: append([]Level(nil), levels...),
		values: make(map[cell]float64),
		seen:   make(map[Key]bool),
		known:  make(map[string]bool),
	}
}

// Record stores one score. Recording the same (key, reference) twice is a
// *errs.DuplicateError and leaves the first value in place.
func (a *Aggregator) Record(key Key, ref string, value float64) error {
	key = key.Project(a.levels)
	c := cell{key: key, ref: ref}
	if _, exists := a.values[c]; exists {
		return &errs.DuplicateError{Key: key.String(), Reference: ref}
	}

	a.values[c] = value
	if !a.seen[key] {
		a.seen[key] = true
		a.keys = append(a.keys, key)
	}
	if !a.known[ref] {
		a.known[ref] = true
		a.refs = append(a.refs, ref)
	}
	return nil
}

// Lookup returns the score of (key, reference).
func (a *Aggregator) Lookup(key Key, ref string) (float64, bool) {
	v, ok := a.values[cell{key: key.Project(a.levels), ref: ref}]
	return v, ok
}

// Len is the number of recorded scores.
func (a *Aggregator) Len() int { return len(a.values) }

// Keys in first-recorded order.
func (a *Aggregator) Keys() []Key { return append([]Key(nil), a.keys...) }

// References in first-recorded order.
func (a *Aggregator) References() []string { return append([]string(nil), a.refs...) }

// Long flattens the aggregator, keys then references in first-recorded order.
func (a *Aggregator) Long() []LongRow {
	rows := make([]LongRow, 0, len(a.values))
	for _, k := range a.keys {
		for _, ref := range a.refs {
			if v, ok := a.values[cell{key: k, ref: ref}]; ok {
				rows = append(rows, newLongRow(k, ref, v))
			}
		}
	}
	return rows
}

// Wide pivots the aggregator so each reference becomes a column.
func (a *Aggregator) Wide() (*Wide, error) {
	return Pivot(a.Long(), a.levels)
}
