package postgres

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	db "github.com/factura-eu/api/internal/database/gen"
	"github.com/factura-eu/api/internal/store"
)

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{
		Int:   d.Coefficient(),
		Exp:   d.Exponent(),
		Valid: true,
	}
}

func timestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t.UTC(), Valid: true}
}

func timePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func settingsFromRow(r db.ShopSetting) store.ShopSettings {
	return store.ShopSettings{
		Shop:                    r.Shop,
		CompanyName:             r.CompanyName,
		Address:                 r.Address,
		PostalCode:              r.PostalCode,
		City:                    r.City,
		Country:                 r.Country,
		LegalForm:               r.LegalForm,
		ShareCapital:            r.ShareCapital,
		Siren:                   r.Siren,
		Siret:                   r.Siret,
		RCS:                     r.Rcs,
		TVAIntracom:             r.TvaIntracom,
		OSSEnabled:              r.OssEnabled,
		OSSNumber:               r.OssNumber,
		FranchiseEnBase:         r.FranchiseEnBase,
		InvoicePrefix:           r.InvoicePrefix,
		InvoiceFormat:           r.InvoiceFormat,
		CurrentYear:             int(r.CurrentYear),
		CurrentSequence:         int(r.CurrentSequence),
		AutoGenerateOnPaid:      r.AutoGenerateOnPaid,
		DefaultLanguage:         r.DefaultLanguage,
		DefaultCurrency:         r.DefaultCurrency,
		PDFTheme:                r.PdfTheme,
		StorageProvider:         r.StorageProvider,
		StorageBucket:           r.StorageBucket,
		StorageRegion:           r.StorageRegion,
		PaymentTerms:            r.PaymentTerms,
		LatePenaltyRate:         r.LatePenaltyRate,
		LatePenaltyAmount:       r.LatePenaltyAmount,
		LegalChecklistConfirmed: r.LegalChecklistConfirmed,
		LegalChecklistDate:      timePtr(r.LegalChecklistDate),
		CreatedAt:               r.CreatedAt,
		UpdatedAt:               r.UpdatedAt,
	}
}

func invoiceFromRow(r db.Invoice, lines []db.InvoiceLine) store.Invoice {
	inv := store.Invoice{
		ID:                 r.ID,
		Shop:               r.Shop,
		InvoiceNumber:      r.InvoiceNumber,
		OrderID:            r.OrderID,
		OrderNumber:        r.OrderNumber,
		OrderName:          r.OrderName,
		CustomerName:       r.CustomerName,
		CustomerEmail:      r.CustomerEmail,
		CustomerAddress:    r.CustomerAddress,
		CustomerPostalCode: r.CustomerPostalCode,
		CustomerCity:       r.CustomerCity,
		CustomerCountry:    r.CustomerCountry,
		SellerName:         r.SellerName,
		SellerAddress:      r.SellerAddress,
		SellerSiren:        r.SellerSiren,
		SellerSiret:        r.SellerSiret,
		SellerRCS:          r.SellerRcs,
		SellerTVAIntracom:  r.SellerTvaIntracom,
		SellerLegalForm:    r.SellerLegalForm,
		SellerCapital:      r.SellerCapital,
		TotalHT:            numericToDecimal(r.TotalHt),
		TotalTVA:           numericToDecimal(r.TotalTva),
		TotalTTC:           numericToDecimal(r.TotalTtc),
		OSSApplied:         r.OssApplied,
		FranchiseEnBase:    r.FranchiseEnBase,
		PaymentTerms:       r.PaymentTerms,
		PaymentStatus:      r.PaymentStatus,
		PaidAt:             timePtr(r.PaidAt),
		LegalMentions:      r.LegalMentions,
		PDFPath:            r.PdfPath,
		PDFURL:             r.PdfUrl,
		IssuedAt:           r.IssuedAt,
		CreatedAt:          r.CreatedAt,
		Lines:              make([]store.InvoiceLine, 0, len(lines)),
	}
	for _, l := range lines {
		inv.Lines = append(inv.Lines, lineFromRow(l))
	}
	return inv
}

func lineFromRow(l db.InvoiceLine) store.InvoiceLine {
	return store.InvoiceLine{
		ID:           l.ID,
		InvoiceID:    l.InvoiceID,
		Position:     int(l.Position),
		SKU:          l.Sku,
		ProductTitle: l.ProductTitle,
		VariantTitle: l.VariantTitle,
		Description:  l.Description,
		Quantity:     int(l.Quantity),
		UnitPriceHT:  numericToDecimal(l.UnitPriceHt),
		TaxRate:      numericToDecimal(l.TaxRate),
		TaxAmount:    numericToDecimal(l.TaxAmount),
		TotalHT:      numericToDecimal(l.TotalHt),
		TotalTTC:     numericToDecimal(l.TotalTtc),
	}
}

func thresholdFromRow(r db.OssThreshold) store.OssThreshold {
	return store.OssThreshold{
		ID:               r.ID,
		Shop:             r.Shop,
		Year:             int(r.Year),
		CountryCode:      r.CountryCode,
		TotalSalesHT:     numericToDecimal(r.TotalSalesHt),
		TotalSalesTTC:    numericToDecimal(r.TotalSalesTtc),
		OrderCount:       int(r.OrderCount),
		ThresholdReached: r.ThresholdReached,
		ThresholdDate:    timePtr(r.ThresholdDate),
		LastUpdated:      r.LastUpdated,
	}
}

func saleFromRow(r db.OssSale) store.OssSale {
	return store.OssSale{
		ID:              r.ID,
		Shop:            r.Shop,
		Year:            int(r.Year),
		Quarter:         int(r.Quarter),
		Month:           int(r.Month),
		InvoiceID:       r.InvoiceID,
		InvoiceNumber:   r.InvoiceNumber,
		OrderID:         r.OrderID,
		CustomerCountry: r.CustomerCountry,
		BaseHT:          numericToDecimal(r.BaseHt),
		TaxRate:         numericToDecimal(r.TaxRate),
		TaxAmount:       numericToDecimal(r.TaxAmount),
		TotalTTC:        numericToDecimal(r.TotalTtc),
		SaleDate:        r.SaleDate,
	}
}
