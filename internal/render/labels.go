package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type labels struct {
	Lang           string
	Title          string
	IssuedOn       string
	Seller         string
	Customer       string
	ShareCapital   string
	VATNumber      string
	OSSBadge       string
	FranchiseBadge string
	Reference      string
	Designation    string
	Qty            string
	UnitPriceHT    string
	TotalHT        string
	VAT            string
	TotalTTC       string
	TotalVAT       string
	LegalHeading   string
	NoMentions     string
	PaymentTerms   string
	Order          string
	GeneratedOn    string
	Months         [12]string
}

var labelSets = map[string]labels{
	"FR": {
		Lang:           "fr",
		Title:          "FACTURE",
		IssuedOn:       "Date d'émission",
		Seller:         "Vendeur",
		Customer:       "Client",
		ShareCapital:   "Capital social",
		VATNumber:      "TVA Intracommunautaire",
		OSSBadge:       "Régime OSS",
		FranchiseBadge: "Franchise en base",
		Reference:      "Référence",
		Designation:    "Désignation",
		Qty:            "Qté",
		UnitPriceHT:    "PU HT",
		TotalHT:        "Total HT",
		VAT:            "TVA",
		TotalTTC:       "Total TTC",
		TotalVAT:       "Total TVA",
		LegalHeading:   "Mentions légales",
		NoMentions:     "Aucune mention légale.",
		PaymentTerms:   "Conditions de paiement",
		Order:          "Commande",
		GeneratedOn:    "Document généré le",
		Months: [12]string{"janvier", "février", "mars", "avril", "mai", "juin",
			"juillet", "août", "septembre", "octobre", "novembre", "décembre"},
	},
	"EN": {
		Lang:           "en",
		Title:          "INVOICE",
		IssuedOn:       "Issue date",
		Seller:         "Seller",
		Customer:       "Customer",
		ShareCapital:   "Share capital",
		VATNumber:      "EU VAT number",
		OSSBadge:       "OSS scheme",
		FranchiseBadge: "VAT exempt (franchise en base)",
		Reference:      "Reference",
		Designation:    "Description",
		Qty:            "Qty",
		UnitPriceHT:    "Unit price excl. VAT",
		TotalHT:        "Total excl. VAT",
		VAT:            "VAT",
		TotalTTC:       "Total incl. VAT",
		TotalVAT:       "Total VAT",
		LegalHeading:   "Legal notices",
		NoMentions:     "No legal notice.",
		PaymentTerms:   "Payment terms",
		Order:          "Order",
		GeneratedOn:    "Document generated on",
		Months: [12]string{"January", "February", "March", "April", "May", "June",
			"July", "August", "September", "October", "November", "December"},
	},
}

func labelsFor(lang string) labels {
	if strings.EqualFold(strings.TrimSpace(lang), "FR") {
		return labelSets["FR"]
	}
	return labelSets["EN"]
}

func (l labels) date(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), l.Months[t.Month()-1], t.Year())
}

// money formats an amount the way the language writes it:
// "1 234,50 €" in French, "€1,234.50" in English.
func (l labels) money(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-2:]

	sep, dec := ",", "."
	if l.Lang == "fr" {
		sep, dec = " ", ","
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(sep)
		}
		b.WriteRune(r)
	}
	out := b.String() + dec + frac
	if neg {
		out = "-" + out
	}
	if l.Lang == "fr" {
		return out + " €"
	}
	return "€" + out
}

func (l labels) percent(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if l.Lang == "fr" {
		s = strings.Replace(s, ".", ",", 1)
	}
	return s + " %"
}
