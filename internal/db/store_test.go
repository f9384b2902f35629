package db

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/jetfilter/internal/events"
	"github.com/banshee-data/jetfilter/internal/filter"
	"github.com/banshee-data/jetfilter/internal/jets"
	"github.com/banshee-data/jetfilter/internal/pipeline"
	"github.com/banshee-data/jetfilter/internal/testutil"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := NewDB(filepath.Join(t.TempDir(), "jetfilter_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("Failed to close test database: %v", err)
		}
	})
	return d
}

var alphaTParams = filter.Params{
	Mode:      filter.ModeHTAlphaT,
	MinPtJet:  []float64{20, 20},
	EtaJet:    []float64{3, 3},
	MinHT:     150,
	MinAlphaT: 0.45,
	InputTag:  "hltAK4CaloJets",
	SaveTag:   true,
}

func TestStore_PublishAndRead(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	f, err := filter.New(alphaTParams)
	require.NoError(t, err)

	evs := []events.Event{
		{Run: 1, Lumi: 2, Event: 10, Jets: testutil.Dijet(100, math.Pi)},
		{Run: 1, Lumi: 2, Event: 11, Jets: testutil.Dijet(100, 0)},
		{Run: 1, Lumi: 2, Event: 12},
	}

	w, err := d.BeginRun(ctx, RunInfo{Params: alphaTParams, StartedAt: time.Unix(1700000000, 0)})
	require.NoError(t, err)
	require.NotEmpty(t, w.RunID())

	r := &pipeline.Runner{Filter: f, Sink: w, Workers: 2, DefaultTag: alphaTParams.InputTag}
	stats, err := r.Run(ctx, evs)
	require.NoError(t, err)
	require.NoError(t, w.Finish(ctx, stats))

	results, err := d.Results(ctx, w.RunID(), false)
	require.NoError(t, err)
	require.Len(t, results, 3)

	accepted := results[0]
	assert.Equal(t, uint64(10), accepted.Event)
	assert.True(t, accepted.Accept)
	assert.Equal(t, "hltAK4CaloJets", accepted.CollectionTag)
	require.NotNil(t, accepted.AlphaTApprox)
	assert.InDelta(t, 0.5, *accepted.AlphaTApprox, 1e-9)
	require.NotNil(t, accepted.AlphaTExact)
	assert.InDelta(t, 0.5, *accepted.AlphaTExact, 1e-9)
	require.Len(t, accepted.Jets, 2)
	assert.Equal(t, 1, accepted.Jets[1].Index)
	assert.InDelta(t, 100, accepted.Jets[1].Et, 1e-9)

	degenerate := results[1]
	assert.False(t, degenerate.Accept)
	assert.True(t, degenerate.Degenerate)
	assert.Nil(t, degenerate.AlphaTApprox)
	assert.Empty(t, degenerate.Jets)

	empty := results[2]
	assert.False(t, empty.Accept)
	assert.Equal(t, 0, empty.NJet)

	onlyAccepted, err := d.Results(ctx, w.RunID(), true)
	require.NoError(t, err)
	require.Len(t, onlyAccepted, 1)
	assert.Equal(t, uint64(10), onlyAccepted[0].Event)

	runs, err := d.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, w.RunID(), run.RunID)
	assert.Equal(t, filter.ModeHTAlphaT, run.Mode)
	assert.Equal(t, "hltAK4CaloJets", run.InputTag)
	assert.Equal(t, 3, run.Events)
	assert.Equal(t, 1, run.Accepted)
	assert.Equal(t, 1, run.Triggered)
	require.NotNil(t, run.FinishedAt)
	assert.Equal(t, alphaTParams, run.Params)
}

func TestStore_DuplicateEventIndexRejected(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	w, err := d.BeginRun(ctx, RunInfo{Params: alphaTParams})
	require.NoError(t, err)

	rec := pipeline.Record{
		Index: 0,
		Event: events.Event{Run: 1, Event: 5, Jets: []jets.Jet{{Pt: 50}}},
	}
	require.NoError(t, w.Publish(ctx, rec))
	assert.Error(t, w.Publish(ctx, rec))

	results, err := d.Results(ctx, w.RunID(), false)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestStore_RunsAreIsolated(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	a, err := d.BeginRun(ctx, RunInfo{Params: alphaTParams})
	require.NoError(t, err)
	b, err := d.BeginRun(ctx, RunInfo{Params: alphaTParams})
	require.NoError(t, err)
	assert.NotEqual(t, a.RunID(), b.RunID())

	require.NoError(t, a.Publish(ctx, pipeline.Record{Index: 0}))

	res, err := d.Results(ctx, b.RunID(), false)
	require.NoError(t, err)
	assert.Empty(t, res)
}
