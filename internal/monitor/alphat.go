// Package monitor renders diagnostic plots for filter runs.
//
// The exact AlphaT value is computed alongside the approximation that drives
// the mode-5 decision. AlphaTRecorder collects both for every event so that
// the two can be compared offline as histograms (PNG) and as an interactive
// scatter (HTML).
package monitor

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sync"

	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/jetfilter/internal/pipeline"
)

// Histogram binning for AlphaT values and their difference.
const (
	alphaTBins  = 60
	alphaTMin   = 0.0
	alphaTMax   = 1.5
	deltaBins   = 50
	deltaMin    = -0.5
	deltaMax    = 0.5
	maxScatterN = 20000
)

// ComparisonPoint is one event where both AlphaT values were available.
type ComparisonPoint struct {
	Exact  float64
	Approx float64
	Accept bool
}

// Summary holds the recorder's running statistics.
type Summary struct {
	Events        int
	ExactEntries  int64
	ApproxEntries int64
	BothEntries   int64
	MeanExact     float64
	MeanApprox    float64
	MeanDelta     float64
}

// AlphaTRecorder accumulates exact and approximate AlphaT values. It
// implements pipeline.Observer and is safe for concurrent use.
type AlphaTRecorder struct {
	mu     sync.Mutex
	events int
	exact  *hbook.H1D
	approx *hbook.H1D
	delta  *hbook.H1D
	points []ComparisonPoint
}

// NewAlphaTRecorder returns an empty recorder.
func NewAlphaTRecorder() *AlphaTRecorder {
	return &AlphaTRecorder{
		exact:  hbook.NewH1D(alphaTBins, alphaTMin, alphaTMax),
		approx: hbook.NewH1D(alphaTBins, alphaTMin, alphaTMax),
		delta:  hbook.NewH1D(deltaBins, deltaMin, deltaMax),
	}
}

// Observe implements pipeline.Observer.
func (r *AlphaTRecorder) Observe(rec pipeline.Record) {
	d := rec.Result.Diagnostics

	r.mu.Lock()
	defer r.mu.Unlock()

	r.events++
	if d.HasExact {
		r.exact.Fill(d.AlphaTExact, 1)
	}
	if d.HasApprox {
		r.approx.Fill(d.AlphaTApprox, 1)
	}
	if d.HasExact && d.HasApprox {
		r.delta.Fill(d.AlphaTApprox-d.AlphaTExact, 1)
		if len(r.points) < maxScatterN {
			r.points = append(r.points, ComparisonPoint{
				Exact:  d.AlphaTExact,
				Approx: d.AlphaTApprox,
				Accept: rec.Result.Accept,
			})
		}
	}
}

// Summary returns the current statistics.
func (r *AlphaTRecorder) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Summary{
		Events:        r.events,
		ExactEntries:  r.exact.Entries(),
		ApproxEntries: r.approx.Entries(),
		BothEntries:   r.delta.Entries(),
	}
	if s.ExactEntries > 0 {
		s.MeanExact = r.exact.XMean()
	}
	if s.ApproxEntries > 0 {
		s.MeanApprox = r.approx.XMean()
	}
	if s.BothEntries > 0 {
		s.MeanDelta = r.delta.XMean()
	}
	return s
}

// Points returns a copy of the recorded comparison points.
func (r *AlphaTRecorder) Points() []ComparisonPoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ComparisonPoint(nil), r.points...)
}

// SaveHistograms writes the exact/approx overlay to path.
func (r *AlphaTRecorder) SaveHistograms(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := plot.New()
	p.Title.Text = "AlphaT: exact vs approximation"
	p.X.Label.Text = "AlphaT"
	p.Y.Label.Text = "Events"

	exact := hplot.NewH1D(r.exact)
	exact.FillColor = nil
	exact.LineStyle.Color = color.RGBA{A: 255}
	exact.Infos.Style = hplot.HInfoNone

	approx := hplot.NewH1D(r.approx)
	approx.FillColor = nil
	approx.LineStyle.Color = color.RGBA{R: 220, A: 255}
	approx.Infos.Style = hplot.HInfoNone

	p.Add(exact, approx)
	p.Legend.Add("exact", exact)
	p.Legend.Add("approx", approx)
	p.Legend.Top = true

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// SaveDelta writes the approx - exact difference histogram to path.
func (r *AlphaTRecorder) SaveDelta(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := plot.New()
	p.Title.Text = "AlphaT approximation residual"
	p.X.Label.Text = "approx - exact"
	p.Y.Label.Text = "Events"

	h := hplot.NewH1D(r.delta)
	h.FillColor = color.RGBA{B: 200, A: 120}
	h.Infos.Style = hplot.HInfoSummary
	p.Add(h)

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// SaveScatter writes approx against exact with the identity line to path.
func (r *AlphaTRecorder) SaveScatter(path string) error {
	r.mu.Lock()
	pts := make(plotter.XYs, len(r.points))
	for i, cp := range r.points {
		pts[i].X = cp.Exact
		pts[i].Y = cp.Approx
	}
	r.mu.Unlock()

	p := plot.New()
	p.Title.Text = "AlphaT per event"
	p.X.Label.Text = "exact"
	p.Y.Label.Text = "approx"

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("failed to build scatter: %w", err)
	}
	scatter.GlyphStyle.Radius = vg.Points(1.5)

	identity := plotter.NewFunction(func(x float64) float64 { return x })
	identity.Color = color.RGBA{R: 180, G: 180, B: 180, A: 255}
	identity.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}

	p.Add(plotter.NewGrid(), identity, scatter)
	p.X.Min, p.X.Max = alphaTMin, alphaTMax
	p.Y.Min, p.Y.Max = alphaTMin, alphaTMax

	return p.Save(5*vg.Inch, 5*vg.Inch, path)
}

// WritePlots saves every PNG plot into dir and returns their paths.
func (r *AlphaTRecorder) WritePlots(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create plot directory: %w", err)
	}

	plots := []struct {
		name string
		save func(string) error
	}{
		{"alphat_compare.png", r.SaveHistograms},
		{"alphat_delta.png", r.SaveDelta},
		{"alphat_scatter.png", r.SaveScatter},
	}

	var written []string
	for _, pl := range plots {
		path := filepath.Join(dir, pl.name)
		if err := pl.save(path); err != nil {
			return written, fmt.Errorf("failed to save %s: %w", pl.name, err)
		}
		written = append(written, path)
	}
	return written, nil
}
