package vat

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/factura-eu/api/internal/apperr"
)

var hundred = decimal.NewFromInt(100)

// ThresholdChecker reports the OSS threshold state for a destination.
// oss.Tracker is the production implementation.
type ThresholdChecker interface {
	CheckThreshold(ctx context.Context, shop, countryCode string, year int) (ThresholdStatus, error)
}

// Calculator prices invoice lines under one of three mutually exclusive
// regimes, evaluated in this order:
//
//  1. Franchise en base: no VAT at all, whatever the destination.
//  2. OSS: EU-foreign destination, OSS enabled and the destination's threshold
//     already reached before this sale. The destination standard rate applies.
//  3. Domestic: the French standard rate.
//
// Lines are rounded to 2 decimals before aggregation.
type Calculator struct {
	rates      *RateCache
	thresholds ThresholdChecker
	now        func() time.Time
}

// NewCalculator creates a calculator backed by the given rate table and
// threshold tracker.
func NewCalculator(rates *RateCache, thresholds ThresholdChecker) *Calculator {
	if rates == nil {
		rates = NewSeededRateCache()
	}
	return &Calculator{
		rates:      rates,
		thresholds: thresholds,
		now:        time.Now,
	}
}

// Calculate prices the input lines and returns line and aggregate totals.
func (c *Calculator) Calculate(ctx context.Context, in CalcInput) (Calculation, error) {
	if err := ValidateLines(in.Lines); err != nil {
		return Calculation{}, err
	}

	if in.Regime.FranchiseEnBase {
		return franchiseCalculation(in.Lines), nil
	}

	rate := DomesticStandardRate
	ossApplied := false

	if IsEUForeign(in.CustomerCountry) && in.Regime.OSSEnabled && c.thresholds != nil {
		year := in.Year
		if year == 0 {
			year = c.now().Year()
		}
		status, err := c.thresholds.CheckThreshold(ctx, in.Shop, NormalizeCountry(in.CustomerCountry), year)
		if err != nil {
			return Calculation{}, fmt.Errorf("checking OSS threshold for %s: %w", in.CustomerCountry, err)
		}
		if status.Reached {
			rate = c.rates.StandardRate(in.CustomerCountry)
			ossApplied = true
		}
	}

	result := Calculation{
		TotalHT:    decimal.Zero,
		TotalTVA:   decimal.Zero,
		TotalTTC:   decimal.Zero,
		OSSApplied: ossApplied,
		Rate:       rate,
		Lines:      make([]LineCalculation, 0, len(in.Lines)),
	}

	for i, line := range in.Lines {
		effective := rate
		if line.TaxRate != nil {
			effective = *line.TaxRate
		}
		lc := PriceLine(i, line.Quantity, line.UnitPriceHT, effective)
		result.Lines = append(result.Lines, lc)

		result.TotalHT = result.TotalHT.Add(lc.TotalHT)
		result.TotalTVA = result.TotalTVA.Add(lc.TaxAmount)
		result.TotalTTC = result.TotalTTC.Add(lc.TotalTTC)
	}

	return result, nil
}

// PriceLine computes one line. HT is rounded first, the tax is computed on
// the rounded HT, and TTC is the sum of the two rounded values.
// decimal.Round rounds half away from zero.
func PriceLine(index, quantity int, unitPriceHT, rate decimal.Decimal) LineCalculation {
	totalHT := unitPriceHT.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
	taxAmount := totalHT.Mul(rate).Div(hundred).Round(2)

	return LineCalculation{
		Index:       index,
		Quantity:    quantity,
		UnitPriceHT: unitPriceHT,
		TaxRate:     rate,
		TaxAmount:   taxAmount,
		TotalHT:     totalHT,
		TotalTTC:    totalHT.Add(taxAmount),
	}
}

// franchiseCalculation zeroes VAT on every line. Per-line overrides are
// ignored: a seller under franchise en base cannot charge VAT.
func franchiseCalculation(lines []LineInput) Calculation {
	result := Calculation{
		TotalHT:         decimal.Zero,
		TotalTVA:        decimal.Zero,
		FranchiseEnBase: true,
		Rate:            decimal.Zero,
		Lines:           make([]LineCalculation, 0, len(lines)),
	}
	for i, line := range lines {
		lc := PriceLine(i, line.Quantity, line.UnitPriceHT, decimal.Zero)
		result.Lines = append(result.Lines, lc)
		result.TotalHT = result.TotalHT.Add(lc.TotalHT)
	}
	result.TotalTTC = result.TotalHT
	return result
}

// ValidateLines checks quantities, prices and rate overrides and reports
// every problem found as one ValidationError.
func ValidateLines(lines []LineInput) error {
	var problems []string
	if len(lines) == 0 {
		problems = append(problems, "at least one invoice line is required")
	}
	for i, line := range lines {
		if line.Quantity <= 0 {
			problems = append(problems, fmt.Sprintf("line %d: quantity must be positive", i+1))
		}
		if line.UnitPriceHT.IsNegative() {
			problems = append(problems, fmt.Sprintf("line %d: unit price must not be negative", i+1))
		}
		if line.TaxRate != nil && line.TaxRate.IsNegative() {
			problems = append(problems, fmt.Sprintf("line %d: tax rate must not be negative", i+1))
		}
	}
	return apperr.NewValidation(problems)
}
