package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/air-quality-bot/internal/weather"
)

func sampleLocation(name string) weather.ServerLocation {
	return weather.ServerLocation{
		Lat:         37.3022,
		Lon:         -120.4822,
		DisplayName: name,
		SetByUserID: 7,
		SetAt:       weather.Timestamp{Time: time.Date(2024, time.May, 1, 9, 30, 0, 0, time.UTC)},
	}
}

func TestLoadLocations_MissingFile(t *testing.T) {
	got, err := LoadLocations(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLoadLocations_Corrupt(t *testing.T) {
	tests := map[string]string{
		"not json":    `{"123": `,
		"wrong shape": `[1, 2, 3]`,
		"bad key":     `{"general": {"lat": 1, "lon": 2}}`,
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "locations.json")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			got, err := LoadLocations(path)
			assert.True(t, errors.Is(err, ErrStoreCorrupt), "got %v", err)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestSaveAndLoadLocations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locations.json")
	want := map[int64]weather.ServerLocation{
		123456789012345678: sampleLocation("Merced, California, US"),
		42:                 sampleLocation("Fresno"),
	}

	require.NoError(t, SaveLocations(path, want))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `"123456789012345678": {`, "server ids are written as string keys")
	assert.Contains(t, text, "\n    \"42\"", "four-space indentation")
	assert.Contains(t, text, `"display_name": "Fresno"`)
	assert.Contains(t, text, `"set_by_user_id": 7`)

	got, err := LoadLocations(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for id, loc := range want {
		assert.Equal(t, loc.DisplayName, got[id].DisplayName)
		assert.Equal(t, loc.Coordinate(), got[id].Coordinate())
		assert.True(t, loc.SetAt.Equal(got[id].SetAt.Time))
	}
}

func TestLoadLocations_NaiveTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locations.json")
	content := `{
    "987": {
        "lat": 51.5,
        "lon": -0.12,
        "display_name": "London, England, GB",
        "set_by_user_id": 55,
        "set_at": "2024-05-01T09:30:15.123456"
    }
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := LoadLocations(path)
	require.NoError(t, err)
	require.Contains(t, got, int64(987))
	assert.Equal(t, "London, England, GB", got[987].DisplayName)
	assert.Equal(t, 2024, got[987].SetAt.Year())
}

func TestLocationStore_SetFlushesToDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locations.json")
	s := OpenLocationStore(path)
	assert.Empty(t, s.All())

	require.NoError(t, s.Set(1, sampleLocation("First")))
	require.NoError(t, s.Set(1, sampleLocation("Second")))
	require.NoError(t, s.Set(2, sampleLocation("Other")))

	got, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, "Second", got.DisplayName)

	_, ok = s.Get(3)
	assert.False(t, ok)

	// A fresh store sees everything written so far.
	reopened := OpenLocationStore(path)
	all := reopened.All()
	require.Len(t, all, 2)
	assert.Equal(t, "Second", all[1].DisplayName)
	assert.Equal(t, "Other", all[2].DisplayName)
}

func TestLocationStore_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locations.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	s := OpenLocationStore(path)
	assert.Empty(t, s.All())

	// The next save replaces the corrupt file.
	require.NoError(t, s.Set(5, sampleLocation("Fresh")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(data), "garbage"))
}

func TestLocationStore_SetWriteFailureRollsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "locations.json")
	s := OpenLocationStore(path)

	err := s.Set(9, sampleLocation("Unsaved"))
	assert.Error(t, err)

	_, ok := s.Get(9)
	assert.False(t, ok, "a record that failed to save must not be served")
	assert.Empty(t, s.All())
}

func TestLocationStore_SetWriteFailureRestoresPrevious(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.Mkdir(dir, 0o755))
	path := filepath.Join(dir, "locations.json")

	s := OpenLocationStore(path)
	require.NoError(t, s.Set(9, sampleLocation("Saved")))

	require.NoError(t, os.RemoveAll(dir))
	assert.Error(t, s.Set(9, sampleLocation("Unsaved")))

	got, ok := s.Get(9)
	require.True(t, ok)
	assert.Equal(t, "Saved", got.DisplayName)
}

func TestLocationStore_AllReturnsCopy(t *testing.T) {
	s := OpenLocationStore(filepath.Join(t.TempDir(), "locations.json"))
	require.NoError(t, s.Set(1, sampleLocation("Kept")))

	all := s.All()
	delete(all, 1)

	_, ok := s.Get(1)
	assert.True(t, ok)
}
