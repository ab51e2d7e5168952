// Package history persists a flat, append-only log of download attempts and
// answers aggregate queries over it.
package history

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Record is one download attempt. Records are never mutated; they are only
// removed by Prune.
type Record struct {
	ID        int64  `json:"id"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Platform  string `json:"platform"`
	FilePath  string `json:"filePath"`
	FileSize  int64  `json:"fileSize"`
	Success   bool   `json:"success"`
	Timestamp int64  `json:"timestamp"`
}

// Time returns the record timestamp.
func (r Record) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}

type Stats struct {
	Total      int    `json:"total"`
	Successful int    `json:"successful"`
	Failed     int    `json:"failed"`
	TotalSize  int64  `json:"totalSize"`
	Platform   string `json:"platform,omitempty"`
}

// SuccessRate is the share of successful records in percent.
func (s Stats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Successful) / float64(s.Total) * 100
}

// Store is implemented by every history backend. Writes are serialised by
// the backend; reads observe a consistent snapshot.
type Store interface {
	// Append assigns ID (max+1) and Timestamp and persists the record.
	Append(rec Record) (Record, error)
	// Query returns records newest first, optionally filtered by platform
	// (case-insensitive), truncated to limit when limit > 0.
	Query(limit int, platform string) ([]Record, error)
	Aggregate(platform string) (Stats, error)
	// Prune removes records older than maxAgeDays and returns how many went.
	Prune(maxAgeDays int) (int, error)
	Breakdown() (map[string]int, error)
	Recent(hours int) ([]Record, error)
	Close() error
}

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

var ErrUnknownBackend = errors.New("unknown history backend")

// Open creates the store for the named backend at path.
func Open(backend, path string) (Store, error) {
	switch strings.ToLower(backend) {
	case "", BackendJSON:
		return NewJSONStore(path)
	case BackendSQLite:
		return NewSQLiteStore(path)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
}

// newestFirst orders by timestamp descending, ties by id descending.
func newestFirst(recs []Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Timestamp != recs[j].Timestamp {
			return recs[i].Timestamp > recs[j].Timestamp
		}
		return recs[i].ID > recs[j].ID
	})
}

func matchPlatform(rec Record, platform string) bool {
	return platform == "" || strings.EqualFold(rec.Platform, platform)
}

func aggregate(recs []Record, platform string) Stats {
	stats := Stats{Platform: platform}
	for _, r := range recs {
		if !matchPlatform(r, platform) {
			continue
		}
		stats.Total++
		if r.Success {
			stats.Successful++
			stats.TotalSize += r.FileSize
		}
	}
	stats.Failed = stats.Total - stats.Successful
	return stats
}

func daysAgo(now time.Time, days int) int64 {
	return now.Add(-time.Duration(days) * 24 * time.Hour).UnixMilli()
}

func hoursAgo(now time.Time, hours int) int64 {
	return now.Add(-time.Duration(hours) * time.Hour).UnixMilli()
}
