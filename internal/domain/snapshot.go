// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"fmt"
	"strconv"
	"time"
)

// StatsSnapshot holds the public statistics for a single repository.
// It is the core domain entity of this application. A snapshot is either
// fully populated or not constructed at all; once built it is never
// mutated, only replaced wholesale.
type StatsSnapshot struct {
	Stars      int `json:"stars"`
	Forks      int `json:"forks"`
	Watchers   int `json:"watchers"`
	OpenIssues int `json:"openIssues"`
}

// NewStatsSnapshot validates and builds a snapshot. All four counts must be
// non-negative; a partial snapshot is never constructed.
func NewStatsSnapshot(stars, forks, watchers, openIssues int) (StatsSnapshot, error) {
	if stars < 0 || forks < 0 || watchers < 0 || openIssues < 0 {
		return StatsSnapshot{}, fmt.Errorf("negative count in stats (stars=%d forks=%d watchers=%d openIssues=%d)",
			stars, forks, watchers, openIssues)
	}
	return StatsSnapshot{
		Stars:      stars,
		Forks:      forks,
		Watchers:   watchers,
		OpenIssues: openIssues,
	}, nil
}

// Fallback returns the fixed snapshot shown when both the cache and the
// remote endpoint fail. The user always sees numbers, never an error state.
func Fallback() StatsSnapshot {
	return StatsSnapshot{Stars: 10200, Forks: 879, Watchers: 168, OpenIssues: 0}
}

// CacheRecord is the envelope persisted to the local store.
// Timestamp is epoch milliseconds at write time.
type CacheRecord struct {
	Data      StatsSnapshot `json:"data"`
	Timestamp int64         `json:"timestamp"`
}

// NewCacheRecord wraps a snapshot with the given write time.
func NewCacheRecord(data StatsSnapshot, now time.Time) CacheRecord {
	return CacheRecord{Data: data, Timestamp: now.UnixMilli()}
}

// ValidAt reports whether the record is still fresh at the given time.
// The comparison is strictly less-than: a record exactly at the TTL
// boundary is already expired.
func (r CacheRecord) ValidAt(now time.Time, ttl time.Duration) bool {
	return now.UnixMilli()-r.Timestamp < ttl.Milliseconds()
}

// Age returns how long ago the record was written.
func (r CacheRecord) Age(now time.Time) time.Duration {
	return time.Duration(now.UnixMilli()-r.Timestamp) * time.Millisecond
}

// Abbreviate formats a counter for compact display: values below 1000
// render as the plain decimal string, larger values as thousands with one
// decimal place and a "k" suffix (10200 -> "10.2k", 1000 -> "1.0k").
func Abbreviate(n int) string {
	if n < 1000 {
		return strconv.Itoa(n)
	}
	return fmt.Sprintf("%.1fk", float64(n)/1000)
}
