package oss

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// CSVFilename is the download name of a quarter's export.
func CSVFilename(p Period) string {
	return fmt.Sprintf("oss-report-%d-Q%d.csv", p.Year, p.Quarter)
}

// ExportCSV renders the report as a spreadsheet-friendly CSV: the detail
// block, a per-country summary and a grand total row. Amounts use 2 decimals.
func ExportCSV(r Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	money := func(d decimal.Decimal) string { return d.StringFixed(2) }

	rows := [][]string{
		{"OSS Report", fmt.Sprintf("Q%d %d", r.Period.Quarter, r.Period.Year)},
		{},
		{"Order ID", "Invoice Number", "Date", "Country", "Base HT (€)", "Tax Rate (%)", "Tax Amount (€)", "Total TTC (€)"},
	}
	for _, e := range r.Entries {
		rows = append(rows, []string{
			e.OrderID,
			e.InvoiceNumber,
			e.Date,
			e.Country,
			money(e.BaseHT),
			money(e.TaxRate),
			money(e.TaxAmount),
			money(e.TotalTTC),
		})
	}

	rows = append(rows,
		[]string{},
		[]string{"Summary by Country"},
		[]string{"Country", "Order Count", "Total HT (€)", "Total VAT (€)", "Total TTC (€)"},
	)
	for _, c := range r.Countries() {
		s := r.Summary[c]
		rows = append(rows, []string{
			c,
			strconv.Itoa(s.OrderCount),
			money(s.TotalHT),
			money(s.TotalTVA),
			money(s.TotalTTC),
		})
	}

	total := r.GrandTotal()
	rows = append(rows,
		[]string{},
		[]string{"GRAND TOTAL", "", money(total.TotalHT), money(total.TotalTVA), money(total.TotalTTC)},
	)

	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("writing OSS CSV: %w", err)
	}
	return buf.Bytes(), nil
}
