// Package charts renders season data as interactive go-echarts HTML pages.
package charts

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ramonehamilton/season-engine/internal/goldenboot"
	"github.com/ramonehamilton/season-engine/internal/standings"
)

// ChartConfig holds configuration for charts.
type ChartConfig struct {
	Title      string   // Chart title
	Subtitle   string   // Chart subtitle
	Width      string   // Chart width (e.g., "900px")
	Height     string   // Chart height (e.g., "500px")
	Theme      string   // Chart theme
	ShowLegend bool     // Show legend
	Smooth     bool     // Smooth line (for line charts)
	Colors     []string // Series colors, cycled
}

// DefaultChartConfig returns default chart configuration.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:      "900px",
		Height:     "500px",
		Theme:      "light",
		ShowLegend: true,
		Smooth:     false,
		Colors:     []string{"#5470C6", "#91CC75", "#FAC858", "#EE6666", "#73C0DE", "#3BA272", "#FC8452", "#9A60B4", "#EA7CCC"},
	}
}

// SeriesData is one named line of a multi-series chart.
type SeriesData struct {
	Name   string
	Values []int
}

func (c ChartConfig) globalOptions() []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			Width:  c.Width,
			Height: c.Height,
			Theme:  c.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    c.Title,
			Subtitle: c.Subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(c.ShowLegend),
		}),
	}
}

func (c ChartConfig) color(i int) string {
	if len(c.Colors) == 0 {
		return ""
	}
	return c.Colors[i%len(c.Colors)]
}

// RenderMultiLineChart writes a line chart with one series per entry of series.
// Every series must have one value per label.
func RenderMultiLineChart(w io.Writer, labels []string, series []SeriesData, config ChartConfig) error {
	if len(series) == 0 {
		return fmt.Errorf("no data series provided")
	}

	line := charts.NewLine()
	line.SetGlobalOptions(config.globalOptions()...)
	line.SetXAxis(labels)

	for i, s := range series {
		if len(s.Values) != len(labels) {
			return fmt.Errorf("series %q has %d values for %d labels", s.Name, len(s.Values), len(labels))
		}
		data := make([]opts.LineData, len(s.Values))
		for j, v := range s.Values {
			data[j] = opts.LineData{Value: v}
		}

		line.AddSeries(s.Name, data).
			SetSeriesOptions(
				charts.WithLineChartOpts(opts.LineChart{
					Smooth: opts.Bool(config.Smooth),
				}),
				charts.WithLabelOpts(opts.Label{
					Show: opts.Bool(false),
				}),
				charts.WithItemStyleOpts(opts.ItemStyle{
					Color: config.color(i),
				}),
			)
	}

	if err := line.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// RenderPointsProgression charts the running points total of every team.
func RenderPointsProgression(w io.Writer, p *standings.Progression, config ChartConfig) error {
	if config.Title == "" {
		config.Title = fmt.Sprintf("Season %d points", p.Season)
	}

	labels := make([]string, len(p.Matchdays))
	for i, n := range p.Matchdays {
		labels[i] = fmt.Sprintf("MD %d", n)
	}

	series := make([]SeriesData, len(p.Teams))
	for i, t := range p.Teams {
		series[i] = SeriesData{Name: t.TeamName, Values: t.Points}
	}
	return RenderMultiLineChart(w, labels, series, config)
}

// RenderTopScorers writes a bar chart of a golden boot leaderboard.
func RenderTopScorers(w io.Writer, board *goldenboot.Leaderboard, config ChartConfig) error {
	if len(board.Scorers) == 0 {
		return fmt.Errorf("no scorers to chart")
	}
	if config.Title == "" {
		config.Title = "Golden boot"
		if board.Season != nil {
			config.Subtitle = fmt.Sprintf("Season %d, %s", *board.Season, board.Scope)
		} else {
			config.Subtitle = fmt.Sprintf("All seasons, %s", board.Scope)
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(config.globalOptions()...)

	labels := make([]string, len(board.Scorers))
	data := make([]opts.BarData, len(board.Scorers))
	for i, s := range board.Scorers {
		labels[i] = s.PlayerName
		data[i] = opts.BarData{Value: s.Goals}
	}

	bar.SetXAxis(labels).
		AddSeries("Goals", data).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(true),
			}),
			charts.WithItemStyleOpts(opts.ItemStyle{
				Color: config.color(0),
			}),
		)

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
