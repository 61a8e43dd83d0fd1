// Package oss tracks EU distance sales against the OSS threshold and builds
// the quarterly OSS declaration report.
package oss

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/factura-eu/api/internal/store"
	"github.com/factura-eu/api/internal/vat"
)

// Scope selects how the annual threshold is evaluated.
type Scope string

const (
	// ScopeCountry evaluates the threshold separately for each destination.
	ScopeCountry Scope = "country"

	// ScopeEU evaluates one combined threshold over every EU destination.
	ScopeEU Scope = "eu"
)

// ParseScope converts a configuration value into a Scope. Empty means ScopeCountry.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScopeCountry:
		return ScopeCountry, nil
	case ScopeEU:
		return ScopeEU, nil
	}
	return "", fmt.Errorf("unknown OSS threshold scope %q (use %q or %q)", s, ScopeCountry, ScopeEU)
}

// Tracker maintains the per shop, year and country running totals.
// Domestic and non-EU destinations are ignored entirely: no row is ever read
// or written for them.
type Tracker struct {
	store     store.Store
	logger    *slog.Logger
	scope     Scope
	threshold decimal.Decimal
	now       func() time.Time
}

// NewTracker creates a Tracker with the per-country scope.
func NewTracker(st store.Store, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		store:     st,
		logger:    logger,
		scope:     ScopeCountry,
		threshold: vat.OSSThreshold,
		now:       time.Now,
	}
}

// WithScope sets the threshold scope.
func (t *Tracker) WithScope(scope Scope) *Tracker {
	t.scope = scope
	return t
}

// WithClock overrides the clock used to date the threshold crossing.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// WithStore returns a copy of the tracker bound to st, typically a
// transaction-scoped store.
func (t *Tracker) WithStore(st store.Store) *Tracker {
	c := *t
	c.store = st
	return &c
}

// Scope returns the configured scope.
func (t *Tracker) Scope() Scope { return t.scope }

// CheckThreshold reports whether the OSS threshold was already reached for
// the destination. The row is created zeroed on first use.
func (t *Tracker) CheckThreshold(ctx context.Context, shop, countryCode string, year int) (vat.ThresholdStatus, error) {
	country := vat.NormalizeCountry(countryCode)
	if !vat.IsEUForeign(country) {
		return vat.ThresholdStatus{
			Reached:         false,
			CurrentTotal:    decimal.Zero,
			ThresholdAmount: t.threshold,
			Remaining:       t.threshold,
		}, nil
	}

	row, err := t.store.EnsureOssThreshold(ctx, shop, year, country)
	if err != nil {
		return vat.ThresholdStatus{}, fmt.Errorf("loading OSS threshold for %s/%d: %w", country, year, err)
	}

	if t.scope == ScopeEU {
		total, err := t.TotalEUSales(ctx, shop, year)
		if err != nil {
			return vat.ThresholdStatus{}, err
		}
		return t.status(total.TotalSales.GreaterThanOrEqual(t.threshold), total.TotalSales), nil
	}

	return t.status(row.ThresholdReached, row.TotalSalesTTC), nil
}

func (t *Tracker) status(reached bool, current decimal.Decimal) vat.ThresholdStatus {
	remaining := t.threshold.Sub(current)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return vat.ThresholdStatus{
		Reached:         reached,
		CurrentTotal:    current,
		ThresholdAmount: t.threshold,
		Remaining:       remaining,
	}
}

// RecordSale adds one invoice to the destination's running totals. It is a
// no-op for domestic and non-EU destinations.
func (t *Tracker) RecordSale(ctx context.Context, shop, countryCode string, totalHT, totalTTC decimal.Decimal, year int) error {
	country := vat.NormalizeCountry(countryCode)
	if !vat.IsEUForeign(country) {
		return nil
	}

	at := t.now().UTC()
	row, err := t.store.UpsertOssThreshold(ctx, store.ThresholdDelta{
		Shop:        shop,
		Year:        year,
		CountryCode: country,
		TotalHT:     totalHT,
		TotalTTC:    totalTTC,
		Threshold:   t.threshold,
		At:          at,
	})
	if err != nil {
		return fmt.Errorf("recording OSS sale for %s/%d: %w", country, year, err)
	}

	if row.ThresholdDate != nil && row.ThresholdDate.Equal(at) {
		t.logger.Info("OSS threshold reached",
			"shop", shop,
			"country", country,
			"year", year,
			"total_ttc", row.TotalSalesTTC.StringFixed(2),
		)
	}
	return nil
}

// Warning describes one destination's progress toward the threshold.
type Warning struct {
	Country          string          `json:"country"`
	TotalSales       decimal.Decimal `json:"totalSales"`
	Percentage       decimal.Decimal `json:"percentage"`
	ThresholdReached bool            `json:"thresholdReached"`
}

// Warnings lists every EU destination for the year, highest TTC first.
// Destinations without sales are reported at zero, in alphabetical order.
func (t *Tracker) Warnings(ctx context.Context, shop string, year int) ([]Warning, error) {
	rows, err := t.store.ListOssThresholds(ctx, shop, year)
	if err != nil {
		return nil, fmt.Errorf("listing OSS thresholds: %w", err)
	}
	tracked := make(map[string]store.OssThreshold, len(rows))
	for _, r := range rows {
		tracked[r.CountryCode] = r
	}

	hundred := decimal.NewFromInt(100)
	countries := vat.EUForeignCountries()
	out := make([]Warning, 0, len(countries))
	for _, c := range countries {
		w := Warning{Country: c, TotalSales: decimal.Zero, Percentage: decimal.Zero}
		if r, ok := tracked[c]; ok {
			w.TotalSales = r.TotalSalesTTC
			w.Percentage = r.TotalSalesTTC.Div(t.threshold).Mul(hundred).Round(2)
			w.ThresholdReached = r.ThresholdReached
		}
		out = append(out, w)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalSales.GreaterThan(out[j].TotalSales)
	})
	return out, nil
}

// EUSales is the combined EU distance-sales position of a shop for one year.
type EUSales struct {
	TotalSales       decimal.Decimal            `json:"totalSales"`
	ByCountry        map[string]decimal.Decimal `json:"byCountry"`
	ThresholdReached bool                       `json:"thresholdReached"`
}

// TotalEUSales sums the tracked destinations. ThresholdReached is true when
// any destination reached its own threshold or the combined total reaches it.
func (t *Tracker) TotalEUSales(ctx context.Context, shop string, year int) (EUSales, error) {
	rows, err := t.store.ListOssThresholds(ctx, shop, year)
	if err != nil {
		return EUSales{}, fmt.Errorf("listing OSS thresholds: %w", err)
	}

	out := EUSales{
		TotalSales: decimal.Zero,
		ByCountry:  make(map[string]decimal.Decimal, len(rows)),
	}
	for _, r := range rows {
		out.ByCountry[r.CountryCode] = r.TotalSalesTTC
		out.TotalSales = out.TotalSales.Add(r.TotalSalesTTC)
		if r.ThresholdReached {
			out.ThresholdReached = true
		}
	}
	if out.TotalSales.GreaterThanOrEqual(t.threshold) {
		out.ThresholdReached = true
	}
	return out, nil
}
