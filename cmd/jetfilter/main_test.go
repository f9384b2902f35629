package main

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/jetfilter/internal/db"
	"github.com/banshee-data/jetfilter/internal/events"
	"github.com/banshee-data/jetfilter/internal/filter"
	"github.com/banshee-data/jetfilter/internal/monitor"
	"github.com/banshee-data/jetfilter/internal/testutil"
)

const alphaTConfig = `{
  "input_jet_tag": "hltAK4CaloJets",
  "save_tag": true,
  "mode": 5,
  "use_pt": false,
  "min_pt_jet": [20.0, 20.0],
  "eta_jet": [3.0, 3.0],
  "min_ht": 150.0,
  "min_alpha_t": 0.45
}`

func writeFixtures(t *testing.T) (dir, cfgPath, evPath string) {
	t.Helper()
	dir = t.TempDir()

	cfgPath = filepath.Join(dir, "filter.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(alphaTConfig), 0644))

	evs := []events.Event{
		{Run: 7, Lumi: 1, Event: 1, Jets: testutil.Dijet(100, math.Pi)},
		{Run: 7, Lumi: 1, Event: 2, Jets: testutil.Dijet(100, 0)},
		{Run: 7, Lumi: 1, Event: 3},
	}
	var buf bytes.Buffer
	require.NoError(t, events.Write(&buf, evs))
	evPath = filepath.Join(dir, "events.jsonl")
	require.NoError(t, os.WriteFile(evPath, buf.Bytes(), 0644))
	return dir, cfgPath, evPath
}

func TestParseRunFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    runOptions
		wantErr bool
	}{
		{
			name: "all flags",
			args: []string{"-config", "c.json", "-events", "e.jsonl", "-db", "r.db", "-plots", "out", "-workers", "4", "-v"},
			want: runOptions{configPath: "c.json", eventsPath: "e.jsonl", dbPath: "r.db", plotDir: "out", workers: 4, verbose: true},
		},
		{
			name: "events only",
			args: []string{"-events", "e.jsonl"},
			want: runOptions{eventsPath: "e.jsonl"},
		},
		{name: "missing events", args: []string{"-db", "r.db"}, wantErr: true},
		{name: "negative workers", args: []string{"-events", "e.jsonl", "-workers", "-1"}, wantErr: true},
		{name: "unknown flag", args: []string{"-events", "e.jsonl", "-nope"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRunFlags(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got, cmp.AllowUnexported(runOptions{})); diff != "" {
				t.Errorf("parseRunFlags() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRunCommand_StoresResultsAndPlots(t *testing.T) {
	dir, cfgPath, evPath := writeFixtures(t)
	dbPath := filepath.Join(dir, "results.db")
	plotDir := filepath.Join(dir, "plots")

	var out bytes.Buffer
	err := runCommand(context.Background(), []string{
		"-config", cfgPath, "-events", evPath, "-db", dbPath, "-plots", plotDir, "-workers", "2", "-v",
	}, &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "accepted")
	assert.Contains(t, out.String(), "0.3333")

	for _, name := range []string{"alphat_compare.png", "alphat_delta.png", "alphat_scatter.png", monitor.ReportFile} {
		_, err := os.Stat(filepath.Join(plotDir, name))
		assert.NoError(t, err, name)
	}

	database, err := db.NewDB(dbPath)
	require.NoError(t, err)
	defer database.Close()

	runs, err := database.Runs(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)

	want := db.RunSummary{
		Mode:      filter.ModeHTAlphaT,
		InputTag:  "hltAK4CaloJets",
		Events:    3,
		Triggered: 1,
		Accepted:  1,
	}
	if diff := cmp.Diff(want, runs[0], cmpopts.IgnoreFields(db.RunSummary{}, "RunID", "StartedAt", "FinishedAt", "Params")); diff != "" {
		t.Errorf("stored run mismatch (-want +got):\n%s", diff)
	}
	assert.NotNil(t, runs[0].FinishedAt)

	accepted, err := database.Results(context.Background(), runs[0].RunID, true)
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, uint64(1), accepted[0].Event)
	assert.Len(t, accepted[0].Jets, 2)

	var listing bytes.Buffer
	require.NoError(t, runsCommand(context.Background(), []string{"-db", dbPath}, &listing))
	assert.Contains(t, listing.String(), runs[0].RunID)
	assert.Contains(t, listing.String(), "ht_alphat")
}

func TestRunCommand_DefaultsWithoutDatabase(t *testing.T) {
	_, _, evPath := writeFixtures(t)

	var out bytes.Buffer
	require.NoError(t, runCommand(context.Background(), []string{"-events", evPath}, &out))
	assert.Contains(t, out.String(), "events")
}

func TestRunCommand_Errors(t *testing.T) {
	dir, cfgPath, evPath := writeFixtures(t)

	badCfg := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badCfg, []byte(`{"mode": 9}`), 0644))

	tests := []struct {
		name string
		args []string
	}{
		{"missing events file", []string{"-config", cfgPath, "-events", filepath.Join(dir, "none.jsonl")}},
		{"invalid config", []string{"-config", badCfg, "-events", evPath}},
		{"config not json", []string{"-config", evPath, "-events", evPath}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			assert.Error(t, runCommand(context.Background(), tt.args, &out))
		})
	}
}

func TestMigrateCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate.db")
	latest, err := db.LatestMigrationVersion()
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, migrateCommand([]string{"-db", dbPath, "status"}, &out))
	assert.Contains(t, out.String(), "Current version: 0")
	assert.Contains(t, out.String(), "pending")

	out.Reset()
	require.NoError(t, migrateCommand([]string{"-db", dbPath, "up"}, &out))
	assert.Contains(t, out.String(), "Dirty: false")

	database, err := db.OpenDB(dbPath)
	require.NoError(t, err)
	v, dirty, err := database.MigrateVersion()
	require.NoError(t, err)
	require.NoError(t, database.Close())
	assert.Equal(t, latest, v)
	assert.False(t, dirty)

	out.Reset()
	require.NoError(t, migrateCommand([]string{"-db", dbPath, "down"}, &out))
	assert.Contains(t, out.String(), "1 migration(s) pending")

	assert.Error(t, migrateCommand([]string{"-db", dbPath, "sideways"}, &out))
	assert.Error(t, migrateCommand([]string{"-db", dbPath, "force"}, &out))
	assert.Error(t, migrateCommand([]string{"-db", dbPath}, &out))
}
