package invoice

import "strings"

type mentions struct {
	Storage         string
	Warranty        string
	LatePayment     string
	FranchiseEnBase string
	OSS             string
}

var legalMentions = map[string]mentions{
	"FR": {
		Storage:         "Facture à conserver 10 ans conformément à l'article L123-22 du Code de commerce.",
		Warranty:        "Garantie légale de conformité de 2 ans pour les produits conformément aux articles L217-4 et suivants du Code de la consommation.",
		LatePayment:     "En cas de retard de paiement, des pénalités de retard seront appliquées ainsi qu'une indemnité forfaitaire de 40€ pour frais de recouvrement (articles L441-3 et L441-10 du Code de commerce).",
		FranchiseEnBase: "TVA non applicable, art. 293 B du CGI",
		OSS:             "TVA acquittée dans le cadre du régime de l'OSS (One Stop Shop)",
	},
	"EN": {
		Storage:         "Invoice to be kept for 10 years in accordance with Article L123-22 of the Commercial Code.",
		Warranty:        "2-year legal warranty of conformity for products in accordance with Articles L217-4 et seq. of the Consumer Code.",
		LatePayment:     "In case of late payment, late payment penalties will be applied as well as a flat-rate compensation of €40 for collection costs (Articles L441-3 and L441-10 of the Commercial Code).",
		FranchiseEnBase: "VAT not applicable, art. 293 B of the CGI",
		OSS:             "VAT paid under the OSS (One Stop Shop) regime",
	},
}

// Language returns "FR" for French and "EN" for anything else.
func Language(lang string) string {
	if strings.EqualFold(strings.TrimSpace(lang), "FR") {
		return "FR"
	}
	return "EN"
}

// LegalMentions renders the mandatory notices printed at the bottom of an
// invoice, separated by blank lines. Franchise en base takes precedence over
// OSS; at most one of the two is added.
func LegalMentions(ossApplied, franchiseEnBase bool, language string) string {
	m := legalMentions[Language(language)]

	parts := []string{m.Storage, m.Warranty, m.LatePayment}
	switch {
	case franchiseEnBase:
		parts = append(parts, m.FranchiseEnBase)
	case ossApplied:
		parts = append(parts, m.OSS)
	}
	return strings.Join(parts, "\n\n")
}
