package report

import (
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/teemow/inboxtally/internal/classify"
)

// DefaultTitle is the chart title used when none is given.
const DefaultTitle = "Email Classification"

// WritePieHTML renders the non-empty categories as a standalone HTML pie chart.
func WritePieHTML(w io.Writer, tally classify.Tally, title string) error {
	if title == "" {
		title = DefaultTitle
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle(tally),
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Bottom: "0"}),
	)

	pie.AddSeries("Categories", pieData(tally)).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show:      opts.Bool(true),
				Formatter: "{b}: {c} ({d}%)",
			}),
			charts.WithPieChartOpts(opts.PieChart{
				Radius: []string{"0%", "60%"},
			}),
		)

	return pie.Render(w)
}

func pieData(tally classify.Tally) []opts.PieData {
	items := make([]opts.PieData, 0, len(classify.Categories))
	for _, c := range classify.Categories {
		if n := tally.Count(c); n > 0 {
			items = append(items, opts.PieData{Name: string(c), Value: n})
		}
	}
	return items
}

func subtitle(tally classify.Tally) string {
	switch n := tally.Total(); n {
	case 0:
		return "No messages classified"
	case 1:
		return "1 message"
	default:
		return strconv.Itoa(n) + " messages"
	}
}
