package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	db "github.com/factura-eu/api/internal/database/gen"
	"github.com/factura-eu/api/internal/store"
)

// CompleteSettings returns shop settings that pass invoice validation:
// company identity, address, SIREN and VAT number are all filled in.
func CompleteSettings(shop string, year int) store.ShopSettings {
	return store.ShopSettings{
		Shop:              shop,
		CompanyName:       "Atelier Dupont SARL",
		Address:           "12 rue de la Paix",
		PostalCode:        "75002",
		City:              "Paris",
		Country:           "FR",
		LegalForm:         "SARL",
		ShareCapital:      "10000",
		Siren:             "123456789",
		Siret:             "12345678900012",
		RCS:               "Paris B 123 456 789",
		TVAIntracom:       "FR12123456789",
		InvoicePrefix:     "FAC",
		InvoiceFormat:     "{PREFIX}-{YYYY}-{NNNN}",
		CurrentYear:       year,
		DefaultLanguage:   "FR",
		DefaultCurrency:   "EUR",
		PDFTheme:          "Standard",
		StorageProvider:   "local",
		PaymentTerms:      "Paiement à réception",
		LatePenaltyAmount: "40",
	}
}

// FixtureShopSettings inserts complete settings for shop and returns the row.
func (tdb *TestDB) FixtureShopSettings(t *testing.T, shop string, year int, ossEnabled bool) db.ShopSetting {
	t.Helper()
	q := db.New(tdb.Pool)
	s := CompleteSettings(shop, year)

	row, err := q.CreateShopSettings(context.Background(), db.CreateShopSettingsParams{
		Shop:               s.Shop,
		CompanyName:        s.CompanyName,
		Address:            s.Address,
		PostalCode:         s.PostalCode,
		City:               s.City,
		Country:            s.Country,
		LegalForm:          s.LegalForm,
		ShareCapital:       s.ShareCapital,
		Siren:              s.Siren,
		Siret:              s.Siret,
		Rcs:                s.RCS,
		TvaIntracom:        s.TVAIntracom,
		OssEnabled:         ossEnabled,
		InvoicePrefix:      s.InvoicePrefix,
		InvoiceFormat:      s.InvoiceFormat,
		CurrentYear:        int32(year),
		DefaultLanguage:    s.DefaultLanguage,
		DefaultCurrency:    s.DefaultCurrency,
		PdfTheme:           s.PDFTheme,
		StorageProvider:    s.StorageProvider,
		PaymentTerms:       s.PaymentTerms,
		LatePenaltyAmount:  s.LatePenaltyAmount,
		LegalChecklistDate: pgtype.Timestamptz{},
		CreatedAt:          time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("creating fixture shop settings %q: %v", shop, err)
	}
	return row
}
