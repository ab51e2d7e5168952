package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type jsonFile struct {
	Downloads []Record `json:"downloads"`
}

// JSONStore keeps the whole history in one JSON document that is read and
// rewritten wholesale on each operation.
type JSONStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

func NewJSONStore(path string) (*JSONStore, error) {
	if path == "" {
		return nil, errors.New("history path is empty")
	}
	s := &JSONStore{path: path, now: time.Now}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := s.save(nil); err != nil {
			return nil, err
		}
		log.Debug().Str("op", "history/json").Msgf("Created history file %s", path)
	}
	return s, nil
}

func (s *JSONStore) Path() string { return s.path }

func (s *JSONStore) load() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading history: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var f jsonFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("history file %s is corrupt: %w", s.path, err)
	}
	return f.Downloads, nil
}

// save writes to a sibling temp file and renames it over the original.
func (s *JSONStore) save(recs []Record) error {
	if recs == nil {
		recs = []Record{}
	}
	data, err := json.MarshalIndent(jsonFile{Downloads: recs}, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating history directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("error writing history: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("error writing history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error writing history: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("error replacing history: %w", err)
	}
	return nil
}

func (s *JSONStore) Append(rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.load()
	if err != nil {
		return Record{}, err
	}
	var maxID int64
	for _, r := range recs {
		maxID = max(maxID, r.ID)
	}
	rec.ID = maxID + 1
	rec.Timestamp = s.now().UnixMilli()
	if err := s.save(append(recs, rec)); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *JSONStore) Query(limit int, platform string) ([]Record, error) {
	s.mu.Lock()
	recs, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(recs))
	for _, r := range recs {
		if matchPlatform(r, platform) {
			out = append(out, r)
		}
	}
	newestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *JSONStore) Aggregate(platform string) (Stats, error) {
	s.mu.Lock()
	recs, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return Stats{}, err
	}
	return aggregate(recs, platform), nil
}

func (s *JSONStore) Prune(maxAgeDays int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := s.load()
	if err != nil {
		return 0, err
	}
	cutoff := daysAgo(s.now(), maxAgeDays)
	kept := make([]Record, 0, len(recs))
	for _, r := range recs {
		if r.Timestamp >= cutoff {
			kept = append(kept, r)
		}
	}
	removed := len(recs) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := s.save(kept); err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *JSONStore) Breakdown() (map[string]int, error) {
	s.mu.Lock()
	recs, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int)
	for _, r := range recs {
		p := r.Platform
		if p == "" {
			p = "Unknown"
		}
		out[p]++
	}
	return out, nil
}

func (s *JSONStore) Recent(hours int) ([]Record, error) {
	s.mu.Lock()
	recs, err := s.load()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	cutoff := hoursAgo(s.now(), hours)
	out := make([]Record, 0)
	for _, r := range recs {
		if r.Timestamp >= cutoff {
			out = append(out, r)
		}
	}
	newestFirst(out)
	return out, nil
}

func (s *JSONStore) Close() error { return nil }
