package monitor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/jetfilter/internal/pipeline"
)

// ReportFile is the name WriteReport uses inside its output directory.
const ReportFile = "report.html"

func (r *AlphaTRecorder) scatterChart() *charts.Scatter {
	r.mu.Lock()
	var accepted, rejected []opts.ScatterData
	for _, cp := range r.points {
		d := opts.ScatterData{Value: []interface{}{cp.Exact, cp.Approx}}
		if cp.Accept {
			accepted = append(accepted, d)
		} else {
			rejected = append(rejected, d)
		}
	}
	n := len(r.points)
	r.mu.Unlock()

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "AlphaT comparison", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "AlphaT: approx vs exact", Subtitle: fmt.Sprintf("%d events", n)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: alphaTMin, Max: alphaTMax, Name: "exact", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: alphaTMin, Max: alphaTMax, Name: "approx", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("rejected", rejected, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#9e9e9e"}))
	scatter.AddSeries("accepted", accepted, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#ff5252"}))
	return scatter
}

func statsChart(stats pipeline.Stats) *charts.Bar {
	x := []string{"Events", "Empty", "Triggered", "Accepted", "Degenerate"}
	y := []opts.BarData{
		{Value: stats.Events},
		{Value: stats.Empty},
		{Value: stats.Triggered},
		{Value: stats.Accepted},
		{Value: stats.Degenerate},
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Filter decisions", Subtitle: fmt.Sprintf("accept rate %.4f", stats.AcceptRate())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("events", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

// RenderScatterHTML writes an interactive exact-vs-approx scatter to w.
func (r *AlphaTRecorder) RenderScatterHTML(w io.Writer) error {
	if err := r.scatterChart().Render(w); err != nil {
		return fmt.Errorf("failed to render alphat scatter: %w", err)
	}
	return nil
}

// RenderReport writes an HTML page with the run's decision counts and the
// AlphaT scatter.
func (r *AlphaTRecorder) RenderReport(w io.Writer, stats pipeline.Stats) error {
	page := components.NewPage()
	page.PageTitle = "jetfilter run report"
	page.AddCharts(statsChart(stats), r.scatterChart())
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// WriteReport renders the report into dir/ReportFile and returns its path.
func (r *AlphaTRecorder) WriteReport(dir string, stats pipeline.Stats) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}
	path := filepath.Join(dir, ReportFile)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report: %w", err)
	}
	if err := r.RenderReport(f, stats); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close report: %w", err)
	}
	return path, nil
}
