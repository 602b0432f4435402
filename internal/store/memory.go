package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/air-quality-bot/internal/weather"
)

var (
	// ErrNotFound is returned when no readings are available for a server.
	ErrNotFound = errors.New("no air quality readings for server")
)

// ReadingHistory holds a time-ordered list of readings for a server.
type ReadingHistory struct {
	Readings []weather.AirQualityReading
}

// MemoryStore is a concurrency-safe in-memory history of refreshed air-quality readings.
type MemoryStore struct {
	mu sync.RWMutex

	// key: server id
	data map[int64]*ReadingHistory

	// retention configuration
	maxHistory int           // max number of readings per server
	maxAge     time.Duration // optional max age for readings

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[int64]*ReadingHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveReading appends a reading for its server and enforces retention.
func (s *MemoryStore) SaveReading(r weather.AirQualityReading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[r.ServerID]
	if !ok {
		history = &ReadingHistory{}
		s.data[r.ServerID] = history
	}

	history.Readings = append(history.Readings, r)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Readings) > s.maxHistory {
		over := len(history.Readings) - s.maxHistory
		history.Readings = history.Readings[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Readings); i++ {
			if !history.Readings[i].FetchedAt.Before(cutoff) {
				break
			}
		}
		history.Readings = history.Readings[i:]
	}
}

// History returns a copy of the readings for a server, oldest first.
func (s *MemoryStore) History(serverID int64) ([]weather.AirQualityReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[serverID]
	if !ok || len(history.Readings) == 0 {
		return nil, ErrNotFound
	}

	out := make([]weather.AirQualityReading, len(history.Readings))
	copy(out, history.Readings)
	return out, nil
}

