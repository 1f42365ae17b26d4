package scheduler

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/shuttle/core/model"
)

func band(start, end string, headway time.Duration) Band {
	return Band{Start: model.MustParseTimeOfDay(start), End: model.MustParseTimeOfDay(end), Headway: headway}
}

func TestGenerateDedupsBoundary(t *testing.T) {
	tt, err := Generate("A1", []Band{
		band("07:15", "08:00", 15*time.Minute),
		band("08:00", "08:30", 10*time.Minute),
	})
	require.NoError(t, err)
	want := []string{"07:15", "07:30", "07:45", "08:00", "08:10", "08:20", "08:30"}
	got := make([]string, len(tt))
	for i, e := range tt {
		got[i] = e.Departure.String()
		assert.Equal(t, "A1", e.Route)
	}
	assert.Equal(t, want, got)
}

func TestGenerateOffGridEnd(t *testing.T) {
	tt, err := Generate("A1", []Band{
		band("07:15", "08:00", 10*time.Minute),
		band("08:00", "08:12", 5*time.Minute),
	})
	require.NoError(t, err)
	// 07:55 is the last slot of the first band; 08:00 opens the second.
	assert.Equal(t, "07:55", tt[4].Departure.String())
	assert.Equal(t, "08:00", tt[5].Departure.String())
	assert.Equal(t, "08:10", tt[len(tt)-1].Departure.String())
	assert.True(t, tt.Sorted())
}

func TestGenerateNonDecreasingNoDuplicates(t *testing.T) {
	specs := []BandSpec{
		{"07:15", "08:00", "9min"},
		{"08:00", "10:00", "5min"},
		{"10:00", "11:00", "11min"},
		{"11:00", "14:00", "6min"},
		{"14:00", "17:15", "9min"},
		{"17:15", "19:30", "6min"},
		{"19:30", "23:00", "15min"},
	}
	set := BandSet{Routes: map[string][]BandSpec{"A1": specs}}
	all, err := GenerateAll(set)
	require.NoError(t, err)
	tt := all["A1"]
	require.NotEmpty(t, tt)
	for i := 1; i < len(tt); i++ {
		if tt[i].Departure <= tt[i-1].Departure {
			t.Fatalf("departure %d (%s) not after %s", i, tt[i].Departure, tt[i-1].Departure)
		}
	}
	assert.Equal(t, "07:15", tt[0].Departure.String())
	assert.Equal(t, "23:00", tt[len(tt)-1].Departure.String())
}

func TestGenerateErrors(t *testing.T) {
	cases := map[string][]Band{
		"empty":          nil,
		"zero headway":   {band("07:00", "08:00", 0)},
		"negative":       {band("07:00", "08:00", -time.Minute)},
		"fractional":     {band("07:00", "08:00", 90*time.Second)},
		"inverted":       {band("08:00", "07:00", 5*time.Minute)},
		"gap":            {band("07:00", "08:00", 5*time.Minute), band("08:30", "09:00", 5*time.Minute)},
		"overlap":        {band("07:00", "08:00", 5*time.Minute), band("07:30", "09:00", 5*time.Minute)},
		"zero-length":    {band("07:00", "07:00", 5*time.Minute)},
		"unordered pair": {band("09:00", "10:00", 5*time.Minute), band("07:00", "09:00", 5*time.Minute)},
	}
	for name, bands := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Generate("X", bands)
			assert.ErrorIs(t, err, model.ErrConfiguration)
		})
	}
}

func TestParseHeadway(t *testing.T) {
	for in, want := range map[string]time.Duration{
		"9min": 9 * time.Minute,
		"15":   15 * time.Minute,
		"5m":   5 * time.Minute,
		"1h":   time.Hour,
	} {
		got, err := ParseHeadway(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseHeadway("often")
	assert.ErrorIs(t, err, model.ErrConfiguration)
}

func TestDecodeBands(t *testing.T) {
	data := "routes:\n  E:\n    - start: \"08:00\"\n      end: \"16:00\"\n      headway: 15min\n"
	set, err := DecodeBands(bytes.NewBufferString(data), "yaml")
	require.NoError(t, err)
	all, err := GenerateAll(set)
	require.NoError(t, err)
	assert.Len(t, all["E"], 33)

	_, err = DecodeBands(bytes.NewBufferString("{}"), "toml")
	assert.Error(t, err)
}

func TestLoadBands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bands.json")
	data := `{"routes":{"K":[{"start":"07:00","end":"23:00","headway":"15min"}]}}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	set, err := LoadBands(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(set.Routes["K"]) != 1 {
		t.Fatalf("expected one band, got %d", len(set.Routes["K"]))
	}
	if _, err := LoadBands(filepath.Join(dir, "bands.txt")); err == nil {
		t.Fatalf("expected error for missing file")
	}
	bad := filepath.Join(dir, "bands.yaml")
	if err := os.WriteFile(bad, []byte("routes:\n  K:\n    - start: \"7am\"\n      end: \"08:00\"\n      headway: 5min\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	set, err = LoadBands(bad)
	require.NoError(t, err)
	_, err = GenerateAll(set)
	assert.ErrorIs(t, err, model.ErrConfiguration)
}
