// Package charts renders wishlist statistics as interactive HTML charts.
package charts

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ramonehamilton/wishlist-companion/internal/stats"
)

// ChartConfig holds configuration for charts.
type ChartConfig struct {
	Title      string
	Subtitle   string
	Width      string // e.g. "900px"
	Height     string
	Theme      string
	ShowLegend bool
	Colors     []string
}

// DefaultChartConfig returns default chart configuration.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:      "900px",
		Height:     "500px",
		Theme:      "light",
		ShowLegend: true,
		Colors:     []string{"#5470C6", "#91CC75", "#FAC858", "#EE6666", "#73C0DE", "#3BA272", "#FC8452", "#9A60B4", "#EA7CCC"},
	}
}

// DataPoint is a labelled value.
type DataPoint struct {
	Label string
	Value float64
}

func globalOpts(config ChartConfig, trigger string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
			Theme:  config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    config.Title,
			Subtitle: config.Subtitle,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: trigger,
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(config.ShowLegend),
		}),
		charts.WithColorsOpts(opts.Colors(config.Colors)),
	}
}

// NewBarChart builds a single-series bar chart.
func NewBarChart(series string, data []DataPoint, config ChartConfig) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOpts(config, "axis")...)

	xLabels := make([]string, len(data))
	yData := make([]opts.BarData, len(data))
	for i, point := range data {
		xLabels[i] = point.Label
		yData[i] = opts.BarData{Value: point.Value}
	}

	bar.SetXAxis(xLabels).
		AddSeries(series, yData).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show: opts.Bool(true),
			}),
		)
	return bar
}

// NewPieChart builds a pie chart.
func NewPieChart(series string, data []DataPoint, config ChartConfig) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(globalOpts(config, "item")...)

	items := make([]opts.PieData, len(data))
	for i, point := range data {
		items[i] = opts.PieData{Name: point.Label, Value: point.Value}
	}
	pie.AddSeries(series, items).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show:      opts.Bool(true),
				Formatter: "{b}: {c}",
			}),
		)
	return pie
}

// RenderBarChart writes a bar chart page to w.
func RenderBarChart(w io.Writer, series string, data []DataPoint, config ChartConfig) error {
	if err := NewBarChart(series, data, config).Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// WeaponPoints converts per-weapon counts to chart points, labelled with the
// weapon name when known and the hash otherwise.
func WeaponPoints(counts []stats.WeaponCount) []DataPoint {
	points := make([]DataPoint, len(counts))
	for i, wc := range counts {
		label := wc.Name
		if label == "" {
			label = strconv.FormatUint(uint64(wc.WeaponHash), 10)
		}
		points[i] = DataPoint{Label: label, Value: float64(wc.Rolls)}
	}
	return points
}

// TagPoints converts tag counts to chart points.
func TagPoints(counts []stats.TagCount) []DataPoint {
	points := make([]DataPoint, len(counts))
	for i, tc := range counts {
		points[i] = DataPoint{Label: tc.Tag, Value: float64(tc.Count)}
	}
	return points
}

// RenderSummary writes a page with the top weapons by roll count and the tag
// distribution of s.
func RenderSummary(w io.Writer, s *stats.Summary, top int, config ChartConfig) error {
	weapons := config
	weapons.Title = "Rolls per weapon"
	weapons.Subtitle = fmt.Sprintf("%d rolls across %d weapons", s.Rolls, s.Weapons)

	tags := config
	tags.Title = "Tags"
	tags.Subtitle = ""

	pageTitle := config.Title
	if pageTitle == "" {
		pageTitle = "Wishlist statistics"
	}
	page := components.NewPage().SetPageTitle(pageTitle)
	page.AddCharts(
		NewBarChart("Rolls", WeaponPoints(s.TopWeapons(top)), weapons),
		NewPieChart("Tags", TagPoints(s.Tags), tags),
	)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// RenderSummaryFile writes RenderSummary output to path.
func RenderSummaryFile(path string, s *stats.Summary, top int, config ChartConfig) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return RenderSummary(f, s, top, config)
}

// OpenInBrowser opens the given file path in the default web browser.
func OpenInBrowser(filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", absPath)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", absPath)
	case "linux":
		cmd = exec.Command("xdg-open", absPath)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}
