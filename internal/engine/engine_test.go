package engine

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ergosense/datafuse/internal/errors"
)

func newTestEngine(t *testing.T) Integrator {
	t.Helper()
	eng, err := NewService(DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })
	return eng
}

func TestAddDataPoint_GetDataPoints_Roundtrip(t *testing.T) {
	eng := newTestEngine(t)

	added, err := eng.AddDataPoint("activity_tracker", "keyboard_event",
		map[string]any{"keys_per_minute": 42.0},
		map[string]any{"user_id": "user123", "application": "text_editor"})
	require.NoError(t, err)
	assert.Equal(t, "activity_tracker", added.Source)
	assert.False(t, added.Timestamp.IsZero(), "timestamp should be stamped")

	got := eng.GetDataPoints(Query{Source: "activity_tracker", Type: "keyboard_event"})
	require.Len(t, got, 1)
	assert.Equal(t, added, got[0])
}

func TestAddDataPoint_Validation(t *testing.T) {
	eng := newTestEngine(t)

	_, err := eng.AddDataPoint("", "keyboard_event", map[string]any{"v": 1}, nil)
	require.Error(t, err)
	assert.Equal(t, ErrMissingSource, errors.CodeOf(err))

	_, err = eng.AddDataPoint("activity_tracker", "", map[string]any{"v": 1}, nil)
	require.Error(t, err)
	assert.Equal(t, ErrMissingType, errors.CodeOf(err))

	// Nothing written on rejection
	assert.Empty(t, eng.GetDataPoints(Query{}))
}

func TestAddDataPoint_CopiesPayload(t *testing.T) {
	eng := newTestEngine(t)

	data := map[string]any{"value": 1.0}
	_, err := eng.AddDataPoint("webcam", "posture_metric", data, nil)
	require.NoError(t, err)

	// Producer-side mutation after append must not leak into the store
	data["value"] = 99.0

	got := eng.GetDataPoints(Query{Source: "webcam"})
	require.Len(t, got, 1)
	assert.Equal(t, 1.0, got[0].Data["value"])
}

func TestGetDataPoints_Filters(t *testing.T) {
	eng := newTestEngine(t)
	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_, err := eng.AddDataPointAt("activity_tracker", "keyboard_event",
			map[string]any{"v": float64(i)}, nil, base.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}
	_, err := eng.AddDataPointAt("webcam", "posture_metric",
		map[string]any{"score": 0.8}, nil, base.Add(2*time.Second))
	require.NoError(t, err)

	assert.Len(t, eng.GetDataPoints(Query{}), 6)
	assert.Len(t, eng.GetDataPoints(Query{Source: "activity_tracker"}), 5)
	assert.Len(t, eng.GetDataPoints(Query{Type: "posture_metric"}), 1)

	// Inclusive time bounds
	ranged := eng.GetDataPoints(Query{
		Source: "activity_tracker",
		Since:  base.Add(1 * time.Second),
		Until:  base.Add(3 * time.Second),
	})
	assert.Len(t, ranged, 3)

	// No match is an empty result, not an error
	assert.Empty(t, eng.GetDataPoints(Query{Source: "system_monitor"}))
}

func TestGetDataPoints_SortedAcrossSources(t *testing.T) {
	eng := newTestEngine(t)
	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	// Insert out of timestamp order, across sources
	offsets := []int{5, 1, 4, 0, 3, 2}
	for i, off := range offsets {
		source := "activity_tracker"
		if i%2 == 0 {
			source = "webcam"
		}
		_, err := eng.AddDataPointAt(source, "sample",
			map[string]any{"v": float64(off)}, nil, base.Add(time.Duration(off)*time.Second))
		require.NoError(t, err)
	}

	got := eng.GetDataPoints(Query{})
	require.Len(t, got, 6)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].Timestamp.Before(got[i-1].Timestamp),
			"points must be in non-decreasing timestamp order")
	}
}

func TestGetDataPoints_SameTimestampKeepsInsertionOrder(t *testing.T) {
	eng := newTestEngine(t)
	ts := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		_, err := eng.AddDataPointAt("activity_tracker", "keyboard_event",
			map[string]any{"n": float64(i)}, nil, ts)
		require.NoError(t, err)
	}

	got := eng.GetDataPoints(Query{})
	require.Len(t, got, 4)
	for i, p := range got {
		assert.Equal(t, float64(i), p.Data["n"], "same-timestamp points keep insertion order")
	}
}

func TestConcurrentProducers(t *testing.T) {
	eng := newTestEngine(t)
	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	const producers = 4
	const perProducer = 1000

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			source := fmt.Sprintf("producer_%d", p)
			for i := 0; i < perProducer; i++ {
				_, err := eng.AddDataPointAt(source, "sample",
					map[string]any{"n": float64(i)}, nil,
					base.Add(time.Duration(i)*time.Millisecond))
				assert.NoError(t, err)
			}
		}(p)
	}
	wg.Wait()

	got := eng.GetDataPoints(Query{})
	require.Len(t, got, producers*perProducer)

	for i := 1; i < len(got); i++ {
		require.False(t, got[i].Timestamp.Before(got[i-1].Timestamp),
			"global order must be non-decreasing by timestamp")
	}

	// No point lost per source
	for p := 0; p < producers; p++ {
		source := fmt.Sprintf("producer_%d", p)
		assert.Len(t, eng.GetDataPoints(Query{Source: source}), perProducer)
	}
}

func TestExportImport_Roundtrip(t *testing.T) {
	eng := newTestEngine(t)
	base := time.Date(2025, 6, 2, 9, 0, 0, 123456789, time.UTC)

	_, err := eng.AddDataPointAt("activity_tracker", "keyboard_event",
		map[string]any{"keys_per_minute": 42.5}, map[string]any{"user_id": "u1"}, base)
	require.NoError(t, err)
	_, err = eng.AddDataPointAt("webcam", "posture_metric",
		map[string]any{"score": 0.8}, nil, base.Add(time.Second))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, eng.Export(context.Background(), &buf, Query{}))

	restored := newTestEngine(t)
	count, err := restored.Import(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	original := eng.GetDataPoints(Query{})
	reimported := restored.GetDataPoints(Query{})
	require.Len(t, reimported, len(original))
	for i := range original {
		assert.Equal(t, original[i].Source, reimported[i].Source)
		assert.Equal(t, original[i].Type, reimported[i].Type)
		assert.True(t, original[i].Timestamp.Equal(reimported[i].Timestamp),
			"timestamps must survive the round-trip to nanosecond precision")
		assert.Equal(t, original[i].Metadata, reimported[i].Metadata)
	}
}

func TestExport_ScopedQuery(t *testing.T) {
	eng := newTestEngine(t)
	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	_, err := eng.AddDataPointAt("activity_tracker", "keyboard_event",
		map[string]any{"v": 1.0}, nil, base)
	require.NoError(t, err)
	_, err = eng.AddDataPointAt("webcam", "posture_metric",
		map[string]any{"v": 2.0}, nil, base)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, eng.Export(context.Background(), &buf, Query{Source: "webcam"}))

	restored := newTestEngine(t)
	count, err := restored.Import(&buf)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, "webcam", restored.GetDataPoints(Query{})[0].Source)
}

func TestExportFile_UnwritableDestination(t *testing.T) {
	eng := newTestEngine(t)

	err := eng.ExportFile(context.Background(), "/nonexistent/dir/out.json", Query{})
	require.Error(t, err)
	assert.Equal(t, ErrExportFailed, errors.CodeOf(err))
}

func TestImport_MalformedPayload(t *testing.T) {
	eng := newTestEngine(t)

	_, err := eng.Import(bytes.NewBufferString(`{"not": "an array"}`))
	require.Error(t, err)
	assert.Equal(t, ErrImportFailed, errors.CodeOf(err))

	_, err = eng.Import(bytes.NewBufferString(
		`[{"source":"a","type":"b","data":{},"timestamp":"not-a-time","metadata":null}]`))
	require.Error(t, err)
	assert.Equal(t, ErrMalformedRecord, errors.CodeOf(err))
}

func TestClearAndStats(t *testing.T) {
	eng := newTestEngine(t)
	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := eng.AddDataPointAt("activity_tracker", "keyboard_event",
			map[string]any{"v": float64(i)}, nil, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	stats := eng.Stats()
	assert.Equal(t, 3, stats.TotalPoints)
	assert.Equal(t, 3, stats.BySource["activity_tracker"])
	assert.True(t, stats.Oldest.Equal(base))
	assert.True(t, stats.Newest.Equal(base.Add(2*time.Minute)))

	eng.Clear()
	assert.Zero(t, eng.Stats().TotalPoints)
	assert.Empty(t, eng.GetDataPoints(Query{}))
}
