package vat

import (
	"sync"

	"github.com/shopspring/decimal"
)

// RateCache is a thread-safe in-memory table of VAT rates indexed by
// country code, then by rate type.
type RateCache struct {
	mu    sync.RWMutex
	rates map[string]CountryVATRates
}

// NewRateCache creates an empty RateCache.
func NewRateCache() *RateCache {
	return &RateCache{
		rates: make(map[string]CountryVATRates),
	}
}

// NewSeededRateCache creates a RateCache loaded with the static rate table.
func NewSeededRateCache() *RateCache {
	c := NewRateCache()
	c.Load(SeedRates())
	return c
}

// Get retrieves a specific rate for a country and rate type.
func (c *RateCache) Get(countryCode, rateType string) (decimal.Decimal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	country, ok := c.rates[NormalizeCountry(countryCode)]
	if !ok {
		return decimal.Zero, false
	}
	rate, ok := country.Rates[rateType]
	return rate, ok
}

// StandardRate returns the destination's standard rate, or the domestic
// standard rate when the country is not in the cache.
func (c *RateCache) StandardRate(countryCode string) decimal.Decimal {
	if rate, ok := c.Get(countryCode, RateTypeStandard); ok {
		return rate
	}
	return DomesticStandardRate
}

// Load replaces the cache content.
func (c *RateCache) Load(rates []VATRate) {
	next := make(map[string]CountryVATRates, 30)

	for _, r := range rates {
		code := NormalizeCountry(r.CountryCode)
		country, ok := next[code]
		if !ok {
			country = CountryVATRates{
				CountryCode: code,
				Rates:       make(map[string]decimal.Decimal),
			}
		}
		country.Rates[r.RateType] = r.Rate
		next[code] = country
	}

	c.mu.Lock()
	c.rates = next
	c.mu.Unlock()
}
