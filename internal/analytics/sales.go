// Package analytics builds reports over historical order snapshots.
package analytics

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"kitchen-scheduler/internal/domain"
)

type Timeframe string

const (
	TimeframeDay   Timeframe = "day"
	TimeframeMonth Timeframe = "month"

	topPerformers = 5
)

var (
	ErrNoSalesData      = errors.New("no orders found for the selected period")
	ErrInvalidTimeframe = errors.New("timeframe must be day or month")
	ErrInvalidDate      = errors.New("invalid report date")
)

type ItemSales struct {
	Name            string  `json:"name"`
	Quantity        int     `json:"quantity"`
	UnitPrice       float64 `json:"unitPrice"`
	Revenue         float64 `json:"revenue"`
	OrderCount      int     `json:"orderCount"`
	AveragePerOrder float64 `json:"averagePerOrder"`
}

type SalesReport struct {
	Timeframe     Timeframe   `json:"timeframe"`
	PeriodStart   time.Time   `json:"periodStart"`
	PeriodEnd     time.Time   `json:"periodEnd"`
	TotalOrders   int         `json:"totalOrders"`
	TotalRevenue  float64     `json:"totalRevenue"`
	Items         []ItemSales `json:"items"`
	TopPerformers []ItemSales `json:"topPerformers"`
}

// ParsePeriod resolves a day ("2006-01-02") or month ("2006-01") in loc into
// a half-open [start, end) range.
func ParsePeriod(tf Timeframe, date string, loc *time.Location) (time.Time, time.Time, error) {
	switch tf {
	case TimeframeDay:
		start, err := time.ParseInLocation("2006-01-02", date, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
		}
		return start, start.AddDate(0, 0, 1), nil
	case TimeframeMonth:
		start, err := time.ParseInLocation("2006-01", date, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
		}
		return start, start.AddDate(0, 1, 0), nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimeframe, string(tf))
}

// BuildSalesReport aggregates item sales of the orders created in the period.
// Cancelled orders count toward the period but not toward sales.
func BuildSalesReport(orders []domain.Order, tf Timeframe, date string, loc *time.Location) (SalesReport, error) {
	if loc == nil {
		loc = time.Local
	}
	start, end, err := ParsePeriod(tf, date, loc)
	if err != nil {
		return SalesReport{}, err
	}

	report := SalesReport{Timeframe: tf, PeriodStart: start, PeriodEnd: end}
	var (
		inPeriod int
		byName   = map[string]int{}
	)
	for _, o := range orders {
		created := o.CreatedAt.In(loc)
		if created.Before(start) || !created.Before(end) {
			continue
		}
		inPeriod++
		if o.Status == domain.StatusCancelled {
			continue
		}
		report.TotalOrders++
		for _, it := range o.Items {
			name := it.Name
			if name == "" {
				name = it.Type
			}
			pos, ok := byName[name]
			if !ok {
				report.Items = append(report.Items, ItemSales{Name: name, UnitPrice: it.Price})
				pos = len(report.Items) - 1
				byName[name] = pos
			}
			units := it.Units()
			s := &report.Items[pos]
			s.Quantity += units
			s.Revenue += it.Price * float64(units)
			s.OrderCount++
			report.TotalRevenue += it.Price * float64(units)
		}
	}
	if inPeriod == 0 {
		return SalesReport{}, fmt.Errorf("%w: %s %s", ErrNoSalesData, tf, date)
	}

	for i := range report.Items {
		s := &report.Items[i]
		s.AveragePerOrder = float64(s.Quantity) / float64(s.OrderCount)
	}
	sort.SliceStable(report.Items, func(i, j int) bool {
		return report.Items[i].Quantity > report.Items[j].Quantity
	})
	if report.Items == nil {
		report.Items = []ItemSales{}
	}
	top := min(topPerformers, len(report.Items))
	report.TopPerformers = append([]ItemSales{}, report.Items[:top]...)
	return report, nil
}
