package oss

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/factura-eu/api/internal/store/memory"
	"github.com/factura-eu/api/internal/vat"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestParseScope(t *testing.T) {
	tests := []struct {
		in      string
		want    Scope
		wantErr bool
	}{
		{"", ScopeCountry, false},
		{"country", ScopeCountry, false},
		{" EU ", ScopeEU, false},
		{"world", "", true},
	}
	for _, tt := range tests {
		got, err := ParseScope(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseScope(%q): err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseScope(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// The sale that crosses the threshold is still charged at the French rate;
// the destination rate applies from the next sale on.
func TestTracker_FirstCrossingDE(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	tracker := NewTracker(st, nil)
	calc := vat.NewCalculator(nil, tracker)
	regime := vat.Regime{OSSEnabled: true}

	sell := func(amount string) vat.Calculation {
		t.Helper()
		c, err := calc.Calculate(ctx, vat.CalcInput{
			Shop:            "shop",
			Regime:          regime,
			CustomerCountry: "DE",
			Year:            2025,
			Lines:           []vat.LineInput{{Quantity: 1, UnitPriceHT: d(amount)}},
		})
		if err != nil {
			t.Fatalf("Calculate: %v", err)
		}
		if err := tracker.RecordSale(ctx, "shop", "DE", c.TotalHT, c.TotalTTC, 2025); err != nil {
			t.Fatalf("RecordSale: %v", err)
		}
		return c
	}

	first := sell("7500") // 9000 TTC
	if first.OSSApplied || !first.Rate.Equal(d("20")) {
		t.Fatalf("first sale: %+v", first)
	}

	second := sell("1250") // 1500 TTC, crosses 10000
	if second.OSSApplied || !second.Rate.Equal(d("20")) {
		t.Fatalf("crossing sale should use the domestic rate: %+v", second)
	}

	row, err := st.GetOssThreshold(ctx, "shop", 2025, "DE")
	if err != nil {
		t.Fatalf("GetOssThreshold: %v", err)
	}
	if !row.ThresholdReached || row.ThresholdDate == nil {
		t.Fatalf("threshold not marked reached: %+v", row)
	}
	if !row.TotalSalesTTC.Equal(d("10500")) || row.OrderCount != 2 {
		t.Errorf("totals: %s / %d", row.TotalSalesTTC, row.OrderCount)
	}

	third := sell("100")
	if !third.OSSApplied || !third.Rate.Equal(d("19")) {
		t.Errorf("third sale should use the German rate: %+v", third)
	}
	if !third.TotalTVA.Equal(d("19")) {
		t.Errorf("third sale VAT: %s", third.TotalTVA)
	}
}

func TestTracker_ThresholdDateIsFixed(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	clock := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	tracker := NewTracker(st, nil).WithClock(func() time.Time { return clock })

	if err := tracker.RecordSale(ctx, "shop", "it", d("9000"), d("10000"), 2025); err != nil {
		t.Fatal(err)
	}
	crossedAt := clock
	clock = clock.Add(48 * time.Hour)
	if err := tracker.RecordSale(ctx, "shop", "IT", d("10"), d("12"), 2025); err != nil {
		t.Fatal(err)
	}

	row, err := st.GetOssThreshold(ctx, "shop", 2025, "IT")
	if err != nil {
		t.Fatalf("GetOssThreshold: %v", err)
	}
	if row.ThresholdDate == nil || !row.ThresholdDate.Equal(crossedAt) {
		t.Errorf("threshold date: got %v, want %s", row.ThresholdDate, crossedAt)
	}
}

func TestTracker_IgnoresDomesticAndNonEU(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	tracker := NewTracker(st, nil)

	for _, country := range []string{"FR", "US", "CH", ""} {
		if err := tracker.RecordSale(ctx, "shop", country, d("50000"), d("60000"), 2025); err != nil {
			t.Fatalf("RecordSale(%s): %v", country, err)
		}
		status, err := tracker.CheckThreshold(ctx, "shop", country, 2025)
		if err != nil {
			t.Fatalf("CheckThreshold(%s): %v", country, err)
		}
		if status.Reached || !status.Remaining.Equal(vat.OSSThreshold) {
			t.Errorf("%s: unexpected status %+v", country, status)
		}
	}

	rows, _ := st.ListOssThresholds(ctx, "shop", 2025)
	if len(rows) != 0 {
		t.Errorf("expected no threshold rows, got %d", len(rows))
	}
}

func TestTracker_CheckThresholdCreatesRow(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	tracker := NewTracker(st, nil)

	status, err := tracker.CheckThreshold(ctx, "shop", "ES", 2025)
	if err != nil {
		t.Fatalf("CheckThreshold: %v", err)
	}
	if status.Reached || !status.CurrentTotal.IsZero() || !status.Remaining.Equal(d("10000")) {
		t.Errorf("unexpected status: %+v", status)
	}
	if _, err := st.GetOssThreshold(ctx, "shop", 2025, "ES"); err != nil {
		t.Errorf("row not created: %v", err)
	}

	tracker.RecordSale(ctx, "shop", "ES", d("10000"), d("12100"), 2025)
	status, _ = tracker.CheckThreshold(ctx, "shop", "ES", 2025)
	if !status.Reached || !status.Remaining.IsZero() {
		t.Errorf("after crossing: %+v", status)
	}
}

func TestTracker_EUScope(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	tracker := NewTracker(st, nil).WithScope(ScopeEU)

	tracker.RecordSale(ctx, "shop", "DE", d("5000"), d("6000"), 2025)
	tracker.RecordSale(ctx, "shop", "BE", d("4000"), d("4840"), 2025)

	status, err := tracker.CheckThreshold(ctx, "shop", "NL", 2025)
	if err != nil {
		t.Fatalf("CheckThreshold: %v", err)
	}
	if !status.Reached {
		t.Errorf("combined total %s should reach the threshold", status.CurrentTotal)
	}

	perCountry := tracker.WithScope(ScopeCountry)
	status, _ = perCountry.CheckThreshold(ctx, "shop", "NL", 2025)
	if status.Reached {
		t.Error("per-country scope should not count other destinations")
	}
}

func TestTracker_Warnings(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	tracker := NewTracker(st, nil)

	tracker.RecordSale(ctx, "shop", "BE", d("1000"), d("1210"), 2025)
	tracker.RecordSale(ctx, "shop", "DE", d("9000"), d("10710"), 2025)
	tracker.RecordSale(ctx, "shop", "DE", d("100"), d("119"), 2024)

	warnings, err := tracker.Warnings(ctx, "shop", 2025)
	if err != nil {
		t.Fatalf("Warnings: %v", err)
	}
	if len(warnings) != 26 {
		t.Fatalf("got %d warnings, want one per EU destination", len(warnings))
	}
	if warnings[0].Country != "DE" || !warnings[0].ThresholdReached {
		t.Errorf("first warning: %+v", warnings[0])
	}
	if !warnings[0].Percentage.Equal(d("107.1")) {
		t.Errorf("DE percentage: %s", warnings[0].Percentage)
	}
	if warnings[1].Country != "BE" || !warnings[1].Percentage.Equal(d("12.1")) {
		t.Errorf("second warning: %+v", warnings[1])
	}
	if warnings[2].Country != "AT" || !warnings[2].TotalSales.IsZero() || warnings[2].ThresholdReached {
		t.Errorf("untracked destinations should follow at zero: %+v", warnings[2])
	}
	for _, w := range warnings {
		if w.Country == "FR" {
			t.Error("domestic country listed")
		}
	}

	total, err := tracker.TotalEUSales(ctx, "shop", 2025)
	if err != nil {
		t.Fatalf("TotalEUSales: %v", err)
	}
	if !total.TotalSales.Equal(d("11920")) || !total.ThresholdReached || len(total.ByCountry) != 2 {
		t.Errorf("unexpected totals: %+v", total)
	}
}

func TestTracker_WithStoreCopies(t *testing.T) {
	a, b := memory.New(), memory.New()
	base := NewTracker(a, nil)
	bound := base.WithStore(b)

	bound.RecordSale(context.Background(), "shop", "AT", d("1"), d("1.2"), 2025)

	if rows, _ := a.ListOssThresholds(context.Background(), "shop", 2025); len(rows) != 0 {
		t.Error("original tracker store was written")
	}
	if rows, _ := b.ListOssThresholds(context.Background(), "shop", 2025); len(rows) != 1 {
		t.Error("bound store was not written")
	}
}
