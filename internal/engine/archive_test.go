package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testArchiveConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		ArchiveEnabled: true,
		ArchiveDBPath:  filepath.Join(t.TempDir(), "archive.db"),
		BatchSize:      2,
		BatchTimeout:   60,
	}
}

func openTestArchive(t *testing.T, cfg Config) *Archive {
	t.Helper()
	archive, err := NewArchive(cfg)
	require.NoError(t, err)
	return archive
}

func samplePoint(source string, ts time.Time, value float64) DataPoint {
	return DataPoint{
		Source:    source,
		Type:      "sample",
		Data:      map[string]any{"value": value},
		Timestamp: ts,
	}
}

func TestArchive_RecordAndQuery(t *testing.T) {
	cfg := testArchiveConfig(t)
	archive := openTestArchive(t, cfg)
	t.Cleanup(func() { archive.Close() })

	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, archive.Record(samplePoint("webcam", base.Add(time.Duration(i)*time.Second), float64(i))))
	}

	// Query flushes the pending buffer, so all 3 are visible even though
	// only one full batch was written
	points, err := archive.Query(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, points, 3)

	for i, p := range points {
		assert.Equal(t, "webcam", p.Source)
		assert.True(t, p.Timestamp.Equal(base.Add(time.Duration(i)*time.Second)))
		assert.Equal(t, float64(i), p.Data["value"])
	}
}

func TestArchive_QueryFilters(t *testing.T) {
	cfg := testArchiveConfig(t)
	archive := openTestArchive(t, cfg)
	t.Cleanup(func() { archive.Close() })

	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, archive.Record(samplePoint("webcam", base, 1)))
	require.NoError(t, archive.Record(samplePoint("activity_tracker", base.Add(time.Minute), 2)))
	require.NoError(t, archive.Record(samplePoint("webcam", base.Add(2*time.Minute), 3)))

	bySource, err := archive.Query(context.Background(), Query{Source: "webcam"})
	require.NoError(t, err)
	assert.Len(t, bySource, 2)

	byRange, err := archive.Query(context.Background(), Query{
		Since: base.Add(30 * time.Second),
		Until: base.Add(90 * time.Second),
	})
	require.NoError(t, err)
	require.Len(t, byRange, 1)
	assert.Equal(t, "activity_tracker", byRange[0].Source)
}

func TestArchive_MetadataRoundtrip(t *testing.T) {
	cfg := testArchiveConfig(t)
	archive := openTestArchive(t, cfg)
	t.Cleanup(func() { archive.Close() })

	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	withMeta := samplePoint("webcam", base, 1)
	withMeta.Metadata = map[string]any{"user_id": "u1"}
	require.NoError(t, archive.Record(withMeta))
	require.NoError(t, archive.Record(samplePoint("webcam", base.Add(time.Second), 2)))

	points, err := archive.Query(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, map[string]any{"user_id": "u1"}, points[0].Metadata)
	assert.Nil(t, points[1].Metadata, "absent metadata stays nil after round-trip")
}

func TestArchive_Prune(t *testing.T) {
	cfg := testArchiveConfig(t)
	archive := openTestArchive(t, cfg)
	t.Cleanup(func() { archive.Close() })

	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, archive.Record(samplePoint("webcam", base.AddDate(0, 0, -40), 1)))
	require.NoError(t, archive.Record(samplePoint("webcam", base.AddDate(0, 0, -2), 2)))
	require.NoError(t, archive.Record(samplePoint("webcam", base, 3)))

	pruned, err := archive.Prune(context.Background(), base.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)

	remaining, err := archive.Query(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}

func TestArchive_ReopenKeepsData(t *testing.T) {
	cfg := testArchiveConfig(t)

	archive := openTestArchive(t, cfg)
	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, archive.Record(samplePoint("webcam", base, 1)))
	require.NoError(t, archive.Close())

	reopened := openTestArchive(t, cfg)
	t.Cleanup(func() { reopened.Close() })

	points, err := reopened.Query(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "webcam", points[0].Source)
}

func TestEngine_ArchivesAppendedPoints(t *testing.T) {
	cfg := testArchiveConfig(t)

	eng, err := NewService(cfg)
	require.NoError(t, err)

	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	_, err = eng.AddDataPointAt("activity_tracker", "keyboard_event",
		map[string]any{"keys_per_minute": 42.0}, nil, base)
	require.NoError(t, err)

	require.NoError(t, eng.Close())

	archive := openTestArchive(t, cfg)
	t.Cleanup(func() { archive.Close() })

	points, err := archive.Query(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "activity_tracker", points[0].Source)
	assert.Equal(t, 42.0, points[0].Data["keys_per_minute"])
}

func TestEngine_PruneRequiresArchive(t *testing.T) {
	eng := newTestEngine(t)

	_, err := eng.Prune(context.Background(), time.Now())
	require.Error(t, err)
}
