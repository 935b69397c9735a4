package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staysense/cancelcast/internal/boost"
	"github.com/staysense/cancelcast/internal/metrics"
)

func TestTrackerAppendsRuns(t *testing.T) {
	tracker := New(t.TempDir())

	first := NewRun("gs://bookings/reservations.csv")
	first.Params = boost.DefaultParams()
	first.CVScore = 0.91
	first.Scoring = "f1"
	first.Metrics = &metrics.Report{Accuracy: 0.9, Precision: 0.88, Recall: 0.85, F1: 0.86}
	first.ModelPath = "artifacts/models/model.json"
	require.NoError(t, tracker.Record(first))

	second := NewRun("gs://bookings/reservations.csv")
	second.CVScore = 0.93
	require.NoError(t, tracker.Record(second))

	runs, err := tracker.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, first.ID, runs[0].ID)
	assert.Equal(t, second.ID, runs[1].ID)
	assert.NotEqual(t, runs[0].ID, runs[1].ID)
	assert.Equal(t, 0.91, runs[0].CVScore)
	assert.Equal(t, "f1", runs[0].Scoring)
	require.NotNil(t, runs[0].Metrics)
	assert.Equal(t, 0.86, runs[0].Metrics.F1)
	assert.Equal(t, boost.DefaultParams().NumLeaves, runs[0].Params.NumLeaves)
}

func TestTrackerUTCTimestamps(t *testing.T) {
	run := NewRun("local")
	assert.Equal(t, "UTC", run.StartedAt.Location().String())
	assert.NotEmpty(t, run.ID)
}

func TestTrackerListEmpty(t *testing.T) {
	runs, err := New(t.TempDir()).List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestTrackerRejectsAnonymousRun(t *testing.T) {
	err := New(t.TempDir()).Record(&Run{})
	require.Error(t, err)
}

func TestTrackerPreservesHistoryAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, New(dir).Record(NewRun("first")))
	require.NoError(t, New(dir).Record(NewRun("second")))

	runs, err := New(dir).List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "first", runs[0].DatasetRef)
	assert.Equal(t, "second", runs[1].DatasetRef)
}
