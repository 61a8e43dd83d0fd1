package oss

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/factura-eu/api/internal/store"
)

// ErrInvalidQuarter is returned for a quarter outside 1..4.
var ErrInvalidQuarter = errors.New("Quarter must be between 1 and 4")

// Period identifies one calendar quarter.
type Period struct {
	Year    int `json:"year"`
	Quarter int `json:"quarter"`
}

// Entry is one OSS sale as declared.
type Entry struct {
	OrderID       string          `json:"order_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Date          string          `json:"date"`
	Country       string          `json:"country"`
	BaseHT        decimal.Decimal `json:"base_ht"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	TotalTTC      decimal.Decimal `json:"total_ttc"`
}

// CountrySummary aggregates the quarter's sales to one destination.
type CountrySummary struct {
	TotalHT    decimal.Decimal `json:"totalHt"`
	TotalTVA   decimal.Decimal `json:"totalTva"`
	TotalTTC   decimal.Decimal `json:"totalTtc"`
	OrderCount int             `json:"orderCount"`
}

func (s CountrySummary) add(e Entry) CountrySummary {
	return CountrySummary{
		TotalHT:    s.TotalHT.Add(e.BaseHT),
		TotalTVA:   s.TotalTVA.Add(e.TaxAmount),
		TotalTTC:   s.TotalTTC.Add(e.TotalTTC),
		OrderCount: s.OrderCount + 1,
	}
}

func emptySummary() CountrySummary {
	return CountrySummary{TotalHT: decimal.Zero, TotalTVA: decimal.Zero, TotalTTC: decimal.Zero}
}

// Report is the quarterly OSS declaration of one shop.
type Report struct {
	Period  Period                    `json:"period"`
	Entries []Entry                   `json:"entries"`
	Summary map[string]CountrySummary `json:"summary"`
}

// Countries returns the summarised destinations in alphabetical order.
func (r Report) Countries() []string {
	out := make([]string, 0, len(r.Summary))
	for c := range r.Summary {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// GrandTotal sums every country summary.
func (r Report) GrandTotal() CountrySummary {
	total := emptySummary()
	for _, s := range r.Summary {
		total.TotalHT = total.TotalHT.Add(s.TotalHT)
		total.TotalTVA = total.TotalTVA.Add(s.TotalTVA)
		total.TotalTTC = total.TotalTTC.Add(s.TotalTTC)
		total.OrderCount += s.OrderCount
	}
	return total
}

// Reporter builds quarterly reports from the recorded OSS sales.
type Reporter struct {
	store  store.Store
	logger *slog.Logger
}

// NewReporter creates a Reporter.
func NewReporter(st store.Store, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{store: st, logger: logger}
}

// GenerateReport lists the quarter's OSS sales in date order and summarises
// them per destination.
func (r *Reporter) GenerateReport(ctx context.Context, shop string, year, quarter int) (Report, error) {
	if quarter < 1 || quarter > 4 {
		return Report{}, ErrInvalidQuarter
	}

	sales, err := r.store.ListOssSales(ctx, shop, year, quarter)
	if err != nil {
		return Report{}, fmt.Errorf("listing OSS sales for %d-Q%d: %w", year, quarter, err)
	}

	report := Report{
		Period:  Period{Year: year, Quarter: quarter},
		Entries: make([]Entry, 0, len(sales)),
		Summary: make(map[string]CountrySummary),
	}
	for _, s := range sales {
		e := Entry{
			OrderID:       s.OrderID,
			InvoiceNumber: s.InvoiceNumber,
			Date:          s.SaleDate.UTC().Format("2006-01-02"),
			Country:       s.CustomerCountry,
			BaseHT:        s.BaseHT,
			TaxRate:       s.TaxRate,
			TaxAmount:     s.TaxAmount,
			TotalTTC:      s.TotalTTC,
		}
		report.Entries = append(report.Entries, e)

		sum, ok := report.Summary[e.Country]
		if !ok {
			sum = emptySummary()
		}
		report.Summary[e.Country] = sum.add(e)
	}

	r.logger.Debug("OSS report generated",
		"shop", shop,
		"year", year,
		"quarter", quarter,
		"entries", len(report.Entries),
	)
	return report, nil
}
