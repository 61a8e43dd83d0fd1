package vat

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// HomeCountry is the seller's country. Sales to it are domestic and never
// take part in OSS accounting.
const HomeCountry = "FR"

var (
	// DomesticStandardRate is the French standard rate (taux normal).
	DomesticStandardRate = decimal.NewFromInt(20)

	// French reduced rates.
	DomesticReducedRate      = decimal.NewFromInt(10)
	DomesticSuperReducedRate = decimal.RequireFromString("5.5")
	DomesticSpecialRate      = decimal.RequireFromString("2.1")

	// OSSThreshold is the annual EU distance-sales threshold in EUR.
	OSSThreshold = decimal.NewFromInt(10000)
)

// euMembers lists the EU member states other than HomeCountry.
var euMembers = map[string]struct{}{
	"AT": {}, "BE": {}, "BG": {}, "CY": {}, "CZ": {}, "DE": {}, "DK": {},
	"EE": {}, "ES": {}, "FI": {}, "GR": {}, "HR": {}, "HU": {}, "IE": {},
	"IT": {}, "LT": {}, "LU": {}, "LV": {}, "MT": {}, "NL": {}, "PL": {},
	"PT": {}, "RO": {}, "SE": {}, "SI": {}, "SK": {},
}

// standardRates are the standard VAT rates per country, in percent.
var standardRates = map[string]string{
	"AT": "20.0",
	"BE": "21.0",
	"BG": "20.0",
	"CY": "19.0",
	"CZ": "21.0",
	"DE": "19.0",
	"DK": "25.0",
	"EE": "22.0",
	"ES": "21.0",
	"FI": "25.5",
	"FR": "20.0",
	"GR": "24.0",
	"HR": "25.0",
	"HU": "27.0",
	"IE": "23.0",
	"IT": "22.0",
	"LT": "21.0",
	"LU": "17.0",
	"LV": "21.0",
	"MT": "18.0",
	"NL": "21.0",
	"PL": "23.0",
	"PT": "23.0",
	"RO": "19.0",
	"SE": "25.0",
	"SI": "22.0",
	"SK": "20.0",
}

// NormalizeCountry trims and upper-cases an ISO 3166-1 alpha-2 code.
func NormalizeCountry(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsEUMember reports whether code is an EU member state, HomeCountry included.
func IsEUMember(code string) bool {
	c := NormalizeCountry(code)
	if c == HomeCountry {
		return true
	}
	_, ok := euMembers[c]
	return ok
}

// IsDomestic reports whether code is the seller's own country.
func IsDomestic(code string) bool {
	return NormalizeCountry(code) == HomeCountry
}

// IsEUForeign reports whether code is an EU member other than HomeCountry.
// Only these destinations accumulate toward the OSS threshold.
func IsEUForeign(code string) bool {
	return IsEUMember(code) && !IsDomestic(code)
}

// EUForeignCountries returns the EU destinations eligible for OSS, sorted.
func EUForeignCountries() []string {
	codes := make([]string, 0, len(euMembers))
	for c := range euMembers {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// StandardRate returns the standard VAT rate of the destination country,
// falling back to DomesticStandardRate for unknown codes.
func StandardRate(code string) decimal.Decimal {
	if r, ok := standardRates[NormalizeCountry(code)]; ok {
		return decimal.RequireFromString(r)
	}
	return DomesticStandardRate
}

// SeedRates returns the static table in the shape RateCache.Load expects.
func SeedRates() []VATRate {
	rates := make([]VATRate, 0, len(standardRates)+3)
	for code, r := range standardRates {
		rates = append(rates, VATRate{
			CountryCode: code,
			RateType:    RateTypeStandard,
			Rate:        decimal.RequireFromString(r),
		})
	}
	rates = append(rates,
		VATRate{CountryCode: HomeCountry, RateType: RateTypeReduced, Rate: DomesticReducedRate},
		VATRate{CountryCode: HomeCountry, RateType: RateTypeSuperReduced, Rate: DomesticSuperReducedRate},
		VATRate{CountryCode: HomeCountry, RateType: RateTypeSpecial, Rate: DomesticSpecialRate},
	)
	return rates
}

// QuarterOf maps a month to its calendar quarter (1..4).
func QuarterOf(m time.Month) int {
	return int(m-1)/3 + 1
}
