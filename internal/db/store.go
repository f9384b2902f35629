package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/jetfilter/internal/filter"
	"github.com/banshee-data/jetfilter/internal/pipeline"
)

// RunInfo describes a filter run at the moment it starts.
type RunInfo struct {
	Params    filter.Params
	StartedAt time.Time
}

// RunSummary is one row of filter_runs.
type RunSummary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt *time.Time
	Mode       filter.Mode
	InputTag   string
	Params     filter.Params
	Events     int
	Triggered  int
	Accepted   int
}

// ResultRow is one stored per-event decision with its published jets.
type ResultRow struct {
	EventIndex    int
	Run           uint32
	Lumi          uint32
	Event         uint64
	CollectionTag string
	Accept        bool
	Triggered     bool
	NJet          int
	HT            float64
	MHT           float64
	AlphaTExact   *float64
	AlphaTApprox  *float64
	Degenerate    bool
	Jets          []StoredJet
}

// StoredJet is one published jet reference.
type StoredJet struct {
	Index int
	Pt    float64
	Et    float64
	Eta   float64
	Phi   float64
	Mass  float64
}

// RunWriter publishes the records of one run. It implements pipeline.Sink.
type RunWriter struct {
	db    *DB
	runID string
}

// BeginRun registers a new run and returns a writer for its results.
func (db *DB) BeginRun(ctx context.Context, info RunInfo) (*RunWriter, error) {
	paramsJSON, err := json.Marshal(info.Params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode run params: %w", err)
	}
	started := info.StartedAt
	if started.IsZero() {
		started = time.Now()
	}

	runID := uuid.New().String()
	_, err = db.ExecContext(ctx,
		`INSERT INTO filter_runs (run_id, started_at, mode, input_tag, params_json)
		 VALUES (?, ?, ?, ?, ?)`,
		runID, started.UnixNano(), int(info.Params.Mode), info.Params.InputTag, string(paramsJSON),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}
	return &RunWriter{db: db, runID: runID}, nil
}

// RunID returns the identifier of the run being written.
func (w *RunWriter) RunID() string {
	return w.runID
}

// Publish stores one filter result and its published jets.
func (w *RunWriter) Publish(ctx context.Context, rec pipeline.Record) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res := rec.Result
	d := res.Diagnostics
	out, err := tx.ExecContext(ctx,
		`INSERT INTO filter_results (
			run_id, event_index, run_number, lumi, event_number, collection_tag,
			accept, triggered, n_jet, ht, mht, alphat_exact, alphat_approx, degenerate
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.runID, rec.Index, rec.Event.Run, rec.Event.Lumi, int64(rec.Event.Event), res.CollectionTag,
		res.Accept, res.Triggered, d.NJet, d.HT, d.MHT,
		nullFloat(d.AlphaTExact, d.HasExact), nullFloat(d.AlphaTApprox, d.HasApprox), d.Degenerate,
	)
	if err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}
	resultID, err := out.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read result id: %w", err)
	}

	for _, ref := range res.Jets {
		j := ref.Jet
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO filter_result_jets (result_id, jet_index, pt, et, eta, phi, mass)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			resultID, ref.Index, j.Pt, j.TransverseEnergy(), j.Eta, j.Phi, j.Mass,
		); err != nil {
			return fmt.Errorf("failed to insert jet %d: %w", ref.Index, err)
		}
	}
	return tx.Commit()
}

// Finish records the run totals and completion time.
func (w *RunWriter) Finish(ctx context.Context, stats pipeline.Stats) error {
	_, err := w.db.ExecContext(ctx,
		`UPDATE filter_runs SET finished_at = ?, events = ?, triggered = ?, accepted = ? WHERE run_id = ?`,
		time.Now().UnixNano(), stats.Events, stats.Triggered, stats.Accepted, w.runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", w.runID, err)
	}
	return nil
}

// Runs returns every stored run, newest first.
func (db *DB) Runs(ctx context.Context) ([]RunSummary, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT run_id, started_at, finished_at, mode, input_tag, params_json, events, triggered, accepted
		 FROM filter_runs ORDER BY started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			r          RunSummary
			started    int64
			finished   sql.NullInt64
			mode       int
			paramsJSON string
		)
		if err := rows.Scan(&r.RunID, &started, &finished, &mode, &r.InputTag, &paramsJSON,
			&r.Events, &r.Triggered, &r.Accepted); err != nil {
			return nil, err
		}
		r.StartedAt = time.Unix(0, started)
		if finished.Valid {
			t := time.Unix(0, finished.Int64)
			r.FinishedAt = &t
		}
		r.Mode = filter.Mode(mode)
		if err := json.Unmarshal([]byte(paramsJSON), &r.Params); err != nil {
			return nil, fmt.Errorf("failed to decode params of run %s: %w", r.RunID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Results returns the stored results of a run in event order. When
// acceptedOnly is set, rejected events are skipped.
func (db *DB) Results(ctx context.Context, runID string, acceptedOnly bool) ([]ResultRow, error) {
	query := `SELECT result_id, event_index, run_number, lumi, event_number, collection_tag,
			accept, triggered, n_jet, ht, mht, alphat_exact, alphat_approx, degenerate
		FROM filter_results WHERE run_id = ?`
	if acceptedOnly {
		query += ` AND accept = 1`
	}
	query += ` ORDER BY event_index`

	rows, err := db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}

	var (
		results []ResultRow
		ids     []int64
	)
	for rows.Next() {
		var (
			r        ResultRow
			id       int64
			eventNum int64
			exact    sql.NullFloat64
			approx   sql.NullFloat64
		)
		if err := rows.Scan(&id, &r.EventIndex, &r.Run, &r.Lumi, &eventNum, &r.CollectionTag,
			&r.Accept, &r.Triggered, &r.NJet, &r.HT, &r.MHT, &exact, &approx, &r.Degenerate); err != nil {
			rows.Close()
			return nil, err
		}
		r.Event = uint64(eventNum)
		if exact.Valid {
			r.AlphaTExact = &exact.Float64
		}
		if approx.Valid {
			r.AlphaTApprox = &approx.Float64
		}
		results = append(results, r)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// The single connection is free again once rows is closed.
	for i, id := range ids {
		jets, err := db.resultJets(ctx, id)
		if err != nil {
			return nil, err
		}
		results[i].Jets = jets
	}
	return results, nil
}

func (db *DB) resultJets(ctx context.Context, resultID int64) ([]StoredJet, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT jet_index, pt, et, eta, phi, mass FROM filter_result_jets
		 WHERE result_id = ? ORDER BY jet_index`, resultID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredJet
	for rows.Next() {
		var j StoredJet
		if err := rows.Scan(&j.Index, &j.Pt, &j.Et, &j.Eta, &j.Phi, &j.Mass); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func nullFloat(v float64, ok bool) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: ok}
}
