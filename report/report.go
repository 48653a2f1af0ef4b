// Package report writes balance-versus-trade charts as standalone HTML
// pages.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/rustyeddy/fxdqn/agent"
)

// Plotter implements agent.Reporter. Training checkpoints produce the
// accumulated chart and a chart of the trades since the previous
// checkpoint; evaluation produces a single test chart.
type Plotter struct {
	Dir  string
	Pair string // file name prefix, e.g. eurusd
}

var _ agent.Reporter = (*Plotter)(nil)

// New returns a plotter writing into dir.
func New(dir, pair string) *Plotter {
	return &Plotter{Dir: dir, Pair: pair}
}

// AccumulatedPath is the whole-run training chart.
func (p *Plotter) AccumulatedPath() string {
	return filepath.Join(p.Dir, p.Pair+"_dqn.html")
}

// WindowPath is the chart of trades from+1 through to.
func (p *Plotter) WindowPath(from, to int) string {
	return filepath.Join(p.Dir, fmt.Sprintf("%s_dqn_btw_%d_and_%d.html", p.Pair, from, to))
}

// TestPath is the evaluation chart.
func (p *Plotter) TestPath() string {
	return filepath.Join(p.Dir, p.Pair+"_dqn_test_data.html")
}

func (p *Plotter) Report(r agent.Report) error {
	if !r.Train {
		return p.write(p.TestPath(), "Balance on test data", r.Accumulated)
	}
	if err := p.write(p.AccumulatedPath(), "Accumulated balance", r.Accumulated); err != nil {
		return err
	}
	if r.Final || len(r.Window) == 0 {
		return nil
	}
	title := fmt.Sprintf("Balance between trades %d and %d", r.From, r.To)
	return p.write(p.WindowPath(r.From, r.To), title, r.Window)
}

func (p *Plotter) write(path, title string, points []agent.Point) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: p.Pair,
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "trades"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "balance"}),
	)

	xs := make([]string, 0, len(points))
	items := make([]opts.LineData, 0, len(points))
	for _, pt := range points {
		xs = append(xs, strconv.Itoa(pt.Trade))
		items = append(items, opts.LineData{
			Name:  pt.Time.Format("2006-01-02 15:04"),
			Value: pt.Balance,
		})
	}
	line.SetXAxis(xs).AddSeries("balance", items)

	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(line)

	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	if err := page.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("render chart %s: %w", path, err)
	}
	return f.Close()
}
