package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"sync"

	"github.com/i474232898/air-quality-bot/internal/weather"
)

// ErrStoreCorrupt is returned alongside an empty mapping when the locations file exists
// but cannot be read or decoded.
var ErrStoreCorrupt = errors.New("server locations file is corrupt")

// LoadLocations reads the whole locations file.
//
// A missing file yields an empty mapping and no error. An unreadable or malformed file
// also yields an empty mapping, together with an error wrapping ErrStoreCorrupt; every
// record in that file is dropped and will be overwritten on the next save.
func LoadLocations(path string) (map[int64]weather.ServerLocation, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[int64]weather.ServerLocation{}, nil
	}
	if err != nil {
		return map[int64]weather.ServerLocation{}, fmt.Errorf("%w: %v", ErrStoreCorrupt, err)
	}

	var raw map[string]weather.ServerLocation
	if err := json.Unmarshal(data, &raw); err != nil {
		return map[int64]weather.ServerLocation{}, fmt.Errorf("%w: %v", ErrStoreCorrupt, err)
	}

	locations := make(map[int64]weather.ServerLocation, len(raw))
	for k, v := range raw {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return map[int64]weather.ServerLocation{}, fmt.Errorf("%w: invalid server id %q", ErrStoreCorrupt, k)
		}
		locations[id] = v
	}
	return locations, nil
}

// SaveLocations overwrites path with the full mapping, indented for human inspection.
func SaveLocations(path string, locations map[int64]weather.ServerLocation) error {
	raw := make(map[string]weather.ServerLocation, len(locations))
	for id, loc := range locations {
		raw[strconv.FormatInt(id, 10)] = loc
	}

	data, err := json.MarshalIndent(raw, "", "    ")
	if err != nil {
		return fmt.Errorf("encode server locations: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write server locations to %s: %w", path, err)
	}
	return nil
}

// LocationStore is the file-backed cache of server default locations.
// The in-memory mapping is flushed in full on every Set.
type LocationStore struct {
	mu sync.RWMutex

	path      string
	locations map[int64]weather.ServerLocation
}

// OpenLocationStore loads path into a new LocationStore. A corrupt file is logged and
// replaced by an empty store; it is never fatal.
func OpenLocationStore(path string) *LocationStore {
	locations, err := LoadLocations(path)
	switch {
	case err != nil:
		log.Printf("ERROR: %v; starting with an empty location cache", err)
	case len(locations) == 0:
		log.Printf("INFO: no server locations loaded from %s", path)
	default:
		log.Printf("INFO: loaded %d server locations from %s", len(locations), path)
	}

	return &LocationStore{
		path:      path,
		locations: locations,
	}
}

// Get returns the stored location for serverID.
func (s *LocationStore) Get(serverID int64) (weather.ServerLocation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	loc, ok := s.locations[serverID]
	return loc, ok
}

// Set replaces the location for serverID and rewrites the file.
// When the write fails the previous value is restored, so the cache never serves
// a record that is not on disk.
func (s *LocationStore) Set(serverID int64, loc weather.ServerLocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.locations[serverID]
	s.locations[serverID] = loc
	if err := SaveLocations(s.path, s.locations); err != nil {
		if had {
			s.locations[serverID] = prev
		} else {
			delete(s.locations, serverID)
		}
		log.Printf("ERROR: saving server locations: %v", err)
		return err
	}
	log.Printf("INFO: saved server locations to %s", s.path)
	return nil
}

// All returns a copy of every stored location.
func (s *LocationStore) All() map[int64]weather.ServerLocation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int64]weather.ServerLocation, len(s.locations))
	for k, v := range s.locations {
		out[k] = v
	}
	return out
}
