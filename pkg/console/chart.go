package console

import (
	"bytes"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const (
	revenueColor = "rgba(139,92,246,0.8)"
	ordersColor  = "rgba(16,185,129,0.8)"
	chartHeight  = "360px"
)

// RevenueOrdersChart "Revenue vs Orders" 柱状图 HTML
func RevenueOrdersChart(b *BarCharts, dark bool) (string, error) {
	bar := charts.NewBar()
	bar.SetGlobalOptions(globalChartOptions("Revenue vs Orders", dark)...)

	var months []string
	var revenue []opts.BarData
	var orders []opts.BarData
	if b != nil {
		months = b.Months
		revenue = make([]opts.BarData, 0, len(b.Revenue))
		for i, v := range b.Revenue {
			revenue = append(revenue, opts.BarData{Name: label(months, i), Value: v})
		}
		orders = make([]opts.BarData, 0, len(b.Orders))
		for i, v := range b.Orders {
			orders = append(orders, opts.BarData{Name: label(months, i), Value: v})
		}
	}

	bar.SetXAxis(months).
		AddSeries("Revenue", revenue, charts.WithItemStyleOpts(opts.ItemStyle{Color: revenueColor})).
		AddSeries("Orders", orders, charts.WithItemStyleOpts(opts.ItemStyle{Color: ordersColor}))
	return renderChart(bar)
}

// InventoryChart "Inventory Breakdown" 饼图 HTML，按占比降序
func InventoryChart(p *PieCharts, dark bool) (string, error) {
	pie := charts.NewPie()
	pie.SetGlobalOptions(globalChartOptions("Inventory Breakdown", dark)...)

	var data []opts.PieData
	if p != nil {
		for _, e := range SortedBreakdown(p.CategoryCount) {
			data = append(data, opts.PieData{Name: e.Label, Value: e.Percent})
		}
	}
	pie.AddSeries("Categories", data)
	return renderChart(pie)
}

// BreakdownEntry 分类占比一项
type BreakdownEntry struct {
	Label   string
	Percent float64
}

// SortedBreakdown 占比降序，同值按名称升序
func SortedBreakdown(m map[string]float64) []BreakdownEntry {
	out := make([]BreakdownEntry, 0, len(m))
	for k, v := range m {
		out = append(out, BreakdownEntry{Label: k, Percent: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Percent != out[j].Percent {
			return out[i].Percent > out[j].Percent
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func globalChartOptions(title string, dark bool) []charts.GlobalOpts {
	theme := types.ThemeWesteros
	if dark {
		theme = types.ThemeChalk
	}
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithInitializationOpts(opts.Initialization{Theme: theme, Width: "100%", Height: chartHeight}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	}
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func label(months []string, i int) string {
	if i < len(months) {
		return months[i]
	}
	return ""
}
