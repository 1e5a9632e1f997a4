package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/faysalsarker-dev/piercing-cms/internal/apiclient"
	"github.com/faysalsarker-dev/piercing-cms/internal/calendar"
	"github.com/faysalsarker-dev/piercing-cms/internal/querycache"
)

const (
	salesSummaryPath = "/sales/summary"
	maxReportSpan    = 366 * 24 * time.Hour
)

// DailySales is one row of the API's sales summary.
type DailySales struct {
	Date  calendar.Date `json:"date"`
	Total float64       `json:"total"`
	Count int           `json:"count"`
}

// SalesReport is the chart-ready sales series for a date range.
type SalesReport struct {
	From       calendar.Date `json:"from"`
	To         calendar.Date `json:"to"`
	Labels     []string      `json:"labels"`
	Totals     []float64     `json:"totals"`
	Counts     []int         `json:"counts"`
	GrandTotal float64       `json:"grandTotal"`
	Sales      int           `json:"sales"`
}

// SalesReport fetches the summary and fills days without sales with zeros.
func (s *Service) SalesReport(ctx context.Context, from, to calendar.Date) (SalesReport, error) {
	if to < from {
		return SalesReport{}, &ValidationError{Fields: map[string]string{"to": "end date is before start date"}}
	}
	if to.Time().Sub(from.Time()) > maxReportSpan {
		return SalesReport{}, &ValidationError{Fields: map[string]string{"to": "range is limited to one year"}}
	}
	key := querycache.NewKey("sales", "summary", "from="+string(from), "to="+string(to))
	rows, err := querycache.Fetch(ctx, s.cache, key, func(ctx context.Context) ([]DailySales, error) {
		var raw json.RawMessage
		if err := s.client.Get(ctx, salesSummaryPath, url.Values{"from": {string(from)}, "to": {string(to)}}, &raw); err != nil {
			return nil, err
		}
		page, err := apiclient.DecodePage[DailySales](raw, "summary")
		return page.Items, err
	})
	if err != nil {
		return SalesReport{}, fmt.Errorf("resources: sales report: %w", err)
	}
	return buildSalesReport(from, to, rows), nil
}

func buildSalesReport(from, to calendar.Date, rows []DailySales) SalesReport {
	byDate := make(map[calendar.Date]DailySales, len(rows))
	for _, r := range rows {
		agg := byDate[r.Date]
		agg.Total += r.Total
		agg.Count += r.Count
		byDate[r.Date] = agg
	}
	report := SalesReport{From: from, To: to, Labels: []string{}, Totals: []float64{}, Counts: []int{}}
	end := to.Time()
	for t := from.Time(); !t.After(end); t = t.AddDate(0, 0, 1) {
		d := calendar.DateOf(t)
		row := byDate[d]
		report.Labels = append(report.Labels, string(d))
		report.Totals = append(report.Totals, row.Total)
		report.Counts = append(report.Counts, row.Count)
		report.GrandTotal += row.Total
		report.Sales += row.Count
	}
	return report
}
