package vat

import "github.com/shopspring/decimal"

// CountryVATRates holds all current rates for a single country.
type CountryVATRates struct {
	CountryCode string
	Rates       map[string]decimal.Decimal // rate_type -> rate percentage (e.g., "standard" -> 19.00)
}

// VATRate is a single rate entry loaded into the RateCache.
type VATRate struct {
	CountryCode string
	RateType    string
	Rate        decimal.Decimal
}

// Regime carries the seller-wide flags that drive regime selection.
type Regime struct {
	FranchiseEnBase bool
	OSSEnabled      bool
}

// LineInput is one invoice line to price. TaxRate, when set, overrides the
// regime rate for this line only.
type LineInput struct {
	Quantity    int
	UnitPriceHT decimal.Decimal
	TaxRate     *decimal.Decimal
}

// CalcInput holds the inputs for a VAT calculation.
type CalcInput struct {
	Shop            string
	Regime          Regime
	CustomerCountry string
	Year            int // OSS accounting year; zero means the current year
	Lines           []LineInput
}

// LineCalculation is the priced form of a LineInput. TotalHT, TaxAmount and
// TotalTTC are rounded to 2 decimals.
type LineCalculation struct {
	Index       int             `json:"lineIndex"`
	Quantity    int             `json:"quantity"`
	UnitPriceHT decimal.Decimal `json:"unitPriceHt"`
	TaxRate     decimal.Decimal `json:"taxRate"`
	TaxAmount   decimal.Decimal `json:"taxAmount"`
	TotalHT     decimal.Decimal `json:"totalHt"`
	TotalTTC    decimal.Decimal `json:"totalTtc"`
}

// Calculation is the result of pricing a set of lines under one regime.
// Totals are sums of the already rounded line values.
type Calculation struct {
	TotalHT         decimal.Decimal   `json:"totalHt"`
	TotalTVA        decimal.Decimal   `json:"totalTva"`
	TotalTTC        decimal.Decimal   `json:"totalTtc"`
	OSSApplied      bool              `json:"ossApplied"`
	FranchiseEnBase bool              `json:"franchiseEnBase"`
	Rate            decimal.Decimal   `json:"rate"` // regime rate before per-line overrides
	Lines           []LineCalculation `json:"lineCalculations"`
}

// ThresholdStatus is the OSS threshold state of one shop/country/year.
type ThresholdStatus struct {
	Reached         bool            `json:"thresholdReached"`
	CurrentTotal    decimal.Decimal `json:"currentTotal"`
	ThresholdAmount decimal.Decimal `json:"thresholdAmount"`
	Remaining       decimal.Decimal `json:"remainingAmount"`
}

// Known rate types.
const (
	RateTypeStandard     = "standard"
	RateTypeReduced      = "reduced"
	RateTypeSuperReduced = "super_reduced"
	RateTypeSpecial      = "special"
)
