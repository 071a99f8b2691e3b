// Package history keeps an append-only log of cascade predictions so
// confidence calibration can be iterated offline. The engine only ever
// writes; reads happen out of band.
package history

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Service names recorded with entries
const (
	ServiceCascadePrediction = "cascade-prediction"
	ServiceRuleExecution     = "rule-execution"
)

// ErrEntryNotFound is returned when a validation targets an unknown or
// evicted entry.
var ErrEntryNotFound = errors.New("history entry not found")

// Entry is one recorded prediction. The validation fields stay empty until
// the real outcome is known and MarkValidated fills them in.
type Entry struct {
	ID          string          `json:"id"`
	Service     string          `json:"service"`
	Timestamp   time.Time       `json:"timestamp"`
	TokenName   string          `json:"token_name"`
	NewValue    string          `json:"new_value,omitempty"`
	Prediction  json.RawMessage `json:"prediction,omitempty"`
	Confidence  float64         `json:"confidence"`
	ValidatedAt *time.Time      `json:"validated_at,omitempty"`
	ActualValue string          `json:"actual_value,omitempty"`
	Accurate    *bool           `json:"accurate,omitempty"`
}

// Validated reports whether the entry's outcome has been filled in.
func (e *Entry) Validated() bool {
	return e.ValidatedAt != nil
}

// NewEntry creates an entry with a fresh time-ordered id.
func NewEntry(service, tokenName, newValue string, prediction json.RawMessage, confidence float64) Entry {
	return Entry{
		ID:         newEntryID(),
		Service:    service,
		Timestamp:  time.Now(),
		TokenName:  tokenName,
		NewValue:   newValue,
		Prediction: prediction,
		Confidence: confidence,
	}
}

func newEntryID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Filter selects entries. Zero values match everything.
type Filter struct {
	Service       string
	TokenName     string
	OnlyValidated bool
	StartTime     *time.Time
	EndTime       *time.Time
}

func (f *Filter) matches(e *Entry) bool {
	if f == nil {
		return true
	}
	if f.Service != "" && e.Service != f.Service {
		return false
	}
	if f.TokenName != "" && e.TokenName != f.TokenName {
		return false
	}
	if f.OnlyValidated && !e.Validated() {
		return false
	}
	if f.StartTime != nil && e.Timestamp.Before(*f.StartTime) {
		return false
	}
	if f.EndTime != nil && e.Timestamp.After(*f.EndTime) {
		return false
	}
	return true
}

// Stats aggregates prediction accuracy for calibration.
type Stats struct {
	Total         int     `json:"total"`
	Validated     int     `json:"validated"`
	Accurate      int     `json:"accurate"`
	AccuracyRate  float64 `json:"accuracy_rate"`
	AvgConfidence float64 `json:"avg_confidence"`
}

func statsOf(entries []Entry) Stats {
	s := Stats{Total: len(entries)}
	confSum := 0.0
	for i := range entries {
		e := &entries[i]
		confSum += e.Confidence
		if e.Validated() {
			s.Validated++
			if e.Accurate != nil && *e.Accurate {
				s.Accurate++
			}
		}
	}
	if s.Total > 0 {
		s.AvgConfidence = confSum / float64(s.Total)
	}
	if s.Validated > 0 {
		s.AccuracyRate = float64(s.Accurate) / float64(s.Validated)
	}
	return s
}

// Store is the interface every prediction log implements.
type Store interface {
	// Record appends a prediction entry
	Record(e Entry) error
	// Entries retrieves entries matching the filter, oldest first
	Entries(f *Filter) ([]Entry, error)
	// MarkValidated fills in the outcome of a recorded prediction
	MarkValidated(id, actualValue string, accurate bool) error
	// Stats aggregates accuracy statistics over the whole log
	Stats() (Stats, error)
	// Close releases any underlying resources
	Close() error
}

// Log is a bounded in-memory prediction store backed by a circular buffer.
// Oldest entries are evicted once the buffer is full.
type Log struct {
	entries    []*Entry
	bufferSize int
	index      int
	count      int
	mu         sync.RWMutex
}

// NewLog creates an in-memory log holding at most bufferSize entries.
func NewLog(bufferSize int) *Log {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &Log{
		entries:    make([]*Entry, bufferSize),
		bufferSize: bufferSize,
	}
}

var _ Store = (*Log)(nil)

// Record appends a prediction entry
func (l *Log) Record(e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if e.ID == "" {
		e.ID = newEntryID()
	}

	l.entries[l.index] = &e
	l.index = (l.index + 1) % l.bufferSize

	if l.count < l.bufferSize {
		l.count++
	}

	return nil
}

// Entries retrieves entries matching the filter, oldest first
func (l *Log) Entries(f *Filter) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]Entry, 0, l.count)
	for i := 0; i < l.count; i++ {
		idx := (l.index - l.count + i + l.bufferSize) % l.bufferSize
		e := l.entries[idx]
		if e == nil || !f.matches(e) {
			continue
		}
		result = append(result, *e)
	}
	return result, nil
}

// Recent returns the n most recent entries, newest first.
func (l *Log) Recent(n int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n > l.count {
		n = l.count
	}

	result := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		idx := (l.index - 1 - i + l.bufferSize) % l.bufferSize
		if l.entries[idx] != nil {
			result = append(result, *l.entries[idx])
		}
	}
	return result
}

// MarkValidated fills in the outcome of a recorded prediction
func (l *Log) MarkValidated(id, actualValue string, accurate bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := 0; i < l.count; i++ {
		idx := (l.index - l.count + i + l.bufferSize) % l.bufferSize
		e := l.entries[idx]
		if e == nil || e.ID != id {
			continue
		}
		now := time.Now()
		e.ValidatedAt = &now
		e.ActualValue = actualValue
		e.Accurate = &accurate
		return nil
	}
	return ErrEntryNotFound
}

// Stats aggregates accuracy statistics over the whole log
func (l *Log) Stats() (Stats, error) {
	entries, err := l.Entries(nil)
	if err != nil {
		return Stats{}, err
	}
	return statsOf(entries), nil
}

// Len returns the number of entries currently held.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.count
}

// Clear removes all entries.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = make([]*Entry, l.bufferSize)
	l.index = 0
	l.count = 0
}

// Close is a no-op for the in-memory log.
func (l *Log) Close() error {
	return nil
}
