// Package postgres implements store.Store on PostgreSQL with pgx and the
// sqlc-generated queries of internal/database/gen.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	db "github.com/factura-eu/api/internal/database/gen"
	"github.com/factura-eu/api/internal/store"
)

// Store is the PostgreSQL store.Store.
type Store struct {
	pool    *pgxpool.Pool
	queries *db.Queries
	tx      pgx.Tx // set inside InTx
}

// New creates a Store on top of a connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:    pool,
		queries: db.New(pool),
	}
}

// InTx implements store.Store. Nested calls join the outer transaction.
func (s *Store) InTx(ctx context.Context, fn func(store.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return store.Wrap("beginning transaction", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(&Store{pool: s.pool, queries: s.queries.WithTx(tx), tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return store.Wrap("committing transaction", classify(err))
	}
	return nil
}

// withTx runs fn on the current transaction, or on a new one.
func (s *Store) withTx(ctx context.Context, fn func(q *db.Queries) error) error {
	return s.InTx(ctx, func(st store.Store) error {
		return fn(st.(*Store).queries)
	})
}

// GetShopSettings implements store.Store.
func (s *Store) GetShopSettings(ctx context.Context, shop string) (store.ShopSettings, error) {
	row, err := s.queries.GetShopSettings(ctx, shop)
	if err != nil {
		return store.ShopSettings{}, store.Wrap("getting shop settings", classify(err))
	}
	return settingsFromRow(row), nil
}

// CreateShopSettings implements store.Store. A concurrent creation for the
// same shop is resolved by returning the row that won.
func (s *Store) CreateShopSettings(ctx context.Context, in store.ShopSettings) (store.ShopSettings, error) {
	row, err := s.queries.CreateShopSettings(ctx, db.CreateShopSettingsParams{
		Shop:                    in.Shop,
		CompanyName:             in.CompanyName,
		Address:                 in.Address,
		PostalCode:              in.PostalCode,
		City:                    in.City,
		Country:                 in.Country,
		LegalForm:               in.LegalForm,
		ShareCapital:            in.ShareCapital,
		Siren:                   in.Siren,
		Siret:                   in.Siret,
		Rcs:                     in.RCS,
		TvaIntracom:             in.TVAIntracom,
		OssEnabled:              in.OSSEnabled,
		OssNumber:               in.OSSNumber,
		FranchiseEnBase:         in.FranchiseEnBase,
		InvoicePrefix:           in.InvoicePrefix,
		InvoiceFormat:           in.InvoiceFormat,
		CurrentYear:             int32(in.CurrentYear),
		CurrentSequence:         int32(in.CurrentSequence),
		AutoGenerateOnPaid:      in.AutoGenerateOnPaid,
		DefaultLanguage:         in.DefaultLanguage,
		DefaultCurrency:         in.DefaultCurrency,
		PdfTheme:                in.PDFTheme,
		StorageProvider:         in.StorageProvider,
		StorageBucket:           in.StorageBucket,
		StorageRegion:           in.StorageRegion,
		PaymentTerms:            in.PaymentTerms,
		LatePenaltyRate:         in.LatePenaltyRate,
		LatePenaltyAmount:       in.LatePenaltyAmount,
		LegalChecklistConfirmed: in.LegalChecklistConfirmed,
		LegalChecklistDate:      timestamptz(in.LegalChecklistDate),
		CreatedAt:               time.Now().UTC(),
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return s.GetShopSettings(ctx, in.Shop)
	}
	if err != nil {
		return store.ShopSettings{}, store.Wrap("creating shop settings", err)
	}
	return settingsFromRow(row), nil
}

// UpdateShopSettings implements store.Store.
func (s *Store) UpdateShopSettings(ctx context.Context, in store.ShopSettings) (store.ShopSettings, error) {
	row, err := s.queries.UpdateShopSettings(ctx, db.UpdateShopSettingsParams{
		Shop:                    in.Shop,
		CompanyName:             in.CompanyName,
		Address:                 in.Address,
		PostalCode:              in.PostalCode,
		City:                    in.City,
		Country:                 in.Country,
		LegalForm:               in.LegalForm,
		ShareCapital:            in.ShareCapital,
		Siren:                   in.Siren,
		Siret:                   in.Siret,
		Rcs:                     in.RCS,
		TvaIntracom:             in.TVAIntracom,
		OssEnabled:              in.OSSEnabled,
		OssNumber:               in.OSSNumber,
		FranchiseEnBase:         in.FranchiseEnBase,
		InvoicePrefix:           in.InvoicePrefix,
		InvoiceFormat:           in.InvoiceFormat,
		AutoGenerateOnPaid:      in.AutoGenerateOnPaid,
		DefaultLanguage:         in.DefaultLanguage,
		DefaultCurrency:         in.DefaultCurrency,
		PdfTheme:                in.PDFTheme,
		StorageProvider:         in.StorageProvider,
		StorageBucket:           in.StorageBucket,
		StorageRegion:           in.StorageRegion,
		PaymentTerms:            in.PaymentTerms,
		LatePenaltyRate:         in.LatePenaltyRate,
		LatePenaltyAmount:       in.LatePenaltyAmount,
		LegalChecklistConfirmed: in.LegalChecklistConfirmed,
		LegalChecklistDate:      timestamptz(in.LegalChecklistDate),
		UpdatedAt:               time.Now().UTC(),
	})
	if err != nil {
		return store.ShopSettings{}, store.Wrap("updating shop settings", classify(err))
	}
	return settingsFromRow(row), nil
}

// NextSequence implements store.Store with a single UPDATE ... RETURNING.
func (s *Store) NextSequence(ctx context.Context, shop string, year int) (store.SequenceState, error) {
	row, err := s.queries.NextInvoiceSequence(ctx, db.NextInvoiceSequenceParams{
		Year: int32(year),
		Shop: shop,
	})
	if err != nil {
		return store.SequenceState{}, store.Wrap("incrementing invoice sequence", classify(err))
	}
	return store.SequenceState{
		Year:     int(row.CurrentYear),
		Sequence: int(row.CurrentSequence),
		Prefix:   row.InvoicePrefix,
		Format:   row.InvoiceFormat,
	}, nil
}

// FindInvoiceByOrderID implements store.Store.
func (s *Store) FindInvoiceByOrderID(ctx context.Context, orderID string) (store.Invoice, error) {
	row, err := s.queries.GetInvoiceByOrderID(ctx, orderID)
	if err != nil {
		return store.Invoice{}, store.Wrap("finding invoice by order", classify(err))
	}
	return s.withLines(ctx, row)
}

// GetInvoice implements store.Store.
func (s *Store) GetInvoice(ctx context.Context, id uuid.UUID) (store.Invoice, error) {
	row, err := s.queries.GetInvoice(ctx, id)
	if err != nil {
		return store.Invoice{}, store.Wrap("getting invoice", classify(err))
	}
	return s.withLines(ctx, row)
}

func (s *Store) withLines(ctx context.Context, row db.Invoice) (store.Invoice, error) {
	lines, err := s.queries.ListInvoiceLines(ctx, row.ID)
	if err != nil {
		return store.Invoice{}, store.Wrap("listing invoice lines", err)
	}
	return invoiceFromRow(row, lines), nil
}

// ListInvoices implements store.Store. Lines are not loaded.
func (s *Store) ListInvoices(ctx context.Context, shop string, limit, offset int) ([]store.Invoice, int, error) {
	total, err := s.queries.CountInvoicesByShop(ctx, shop)
	if err != nil {
		return nil, 0, store.Wrap("counting invoices", err)
	}

	rows, err := s.queries.ListInvoicesByShop(ctx, db.ListInvoicesByShopParams{
		Shop:   shop,
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, 0, store.Wrap("listing invoices", err)
	}

	out := make([]store.Invoice, 0, len(rows))
	for _, r := range rows {
		out = append(out, invoiceFromRow(r, nil))
	}
	return out, int(total), nil
}

// CreateInvoiceWithLines implements store.Store. The invoice and its lines are
// written in one transaction; a unique violation on order_id yields
// store.ErrDuplicateOrder.
func (s *Store) CreateInvoiceWithLines(ctx context.Context, in store.Invoice) (store.Invoice, error) {
	id := in.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var out store.Invoice
	err := s.withTx(ctx, func(q *db.Queries) error {
		row, err := q.CreateInvoice(ctx, db.CreateInvoiceParams{
			ID:                 id,
			Shop:               in.Shop,
			InvoiceNumber:      in.InvoiceNumber,
			OrderID:            in.OrderID,
			OrderNumber:        in.OrderNumber,
			OrderName:          in.OrderName,
			CustomerName:       in.CustomerName,
			CustomerEmail:      in.CustomerEmail,
			CustomerAddress:    in.CustomerAddress,
			CustomerPostalCode: in.CustomerPostalCode,
			CustomerCity:       in.CustomerCity,
			CustomerCountry:    in.CustomerCountry,
			SellerName:         in.SellerName,
			SellerAddress:      in.SellerAddress,
			SellerSiren:        in.SellerSiren,
			SellerSiret:        in.SellerSiret,
			SellerRcs:          in.SellerRCS,
			SellerTvaIntracom:  in.SellerTVAIntracom,
			SellerLegalForm:    in.SellerLegalForm,
			SellerCapital:      in.SellerCapital,
			TotalHt:            decimalToNumeric(in.TotalHT),
			TotalTva:           decimalToNumeric(in.TotalTVA),
			TotalTtc:           decimalToNumeric(in.TotalTTC),
			OssApplied:         in.OSSApplied,
			FranchiseEnBase:    in.FranchiseEnBase,
			PaymentTerms:       in.PaymentTerms,
			PaymentStatus:      in.PaymentStatus,
			PaidAt:             timestamptz(in.PaidAt),
			LegalMentions:      in.LegalMentions,
			IssuedAt:           in.IssuedAt,
			CreatedAt:          createdAt,
		})
		if err != nil {
			return fmt.Errorf("creating invoice: %w", err)
		}

		lines := make([]db.InvoiceLine, 0, len(in.Lines))
		for i, l := range in.Lines {
			lineID := l.ID
			if lineID == uuid.Nil {
				lineID = uuid.New()
			}
			line, err := q.CreateInvoiceLine(ctx, db.CreateInvoiceLineParams{
				ID:           lineID,
				InvoiceID:    row.ID,
				Position:     int32(i),
				Sku:          l.SKU,
				ProductTitle: l.ProductTitle,
				VariantTitle: l.VariantTitle,
				Description:  l.Description,
				Quantity:     int32(l.Quantity),
				UnitPriceHt:  decimalToNumeric(l.UnitPriceHT),
				TaxRate:      decimalToNumeric(l.TaxRate),
				TaxAmount:    decimalToNumeric(l.TaxAmount),
				TotalHt:      decimalToNumeric(l.TotalHT),
				TotalTtc:     decimalToNumeric(l.TotalTTC),
			})
			if err != nil {
				return fmt.Errorf("creating invoice line %d: %w", i+1, err)
			}
			lines = append(lines, line)
		}

		out = invoiceFromRow(row, lines)
		return nil
	})
	if err != nil {
		return store.Invoice{}, store.Wrap("creating invoice with lines", classify(err))
	}
	return out, nil
}

// AttachInvoiceDocument implements store.Store.
func (s *Store) AttachInvoiceDocument(ctx context.Context, id uuid.UUID, path, url string) error {
	n, err := s.queries.AttachInvoiceDocument(ctx, db.AttachInvoiceDocumentParams{
		ID:      id,
		PdfPath: path,
		PdfUrl:  url,
	})
	if err != nil {
		return store.Wrap("attaching invoice document", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// GetOssThreshold implements store.Store.
func (s *Store) GetOssThreshold(ctx context.Context, shop string, year int, countryCode string) (store.OssThreshold, error) {
	row, err := s.queries.GetOssThreshold(ctx, db.GetOssThresholdParams{
		Shop:        shop,
		Year:        int32(year),
		CountryCode: countryCode,
	})
	if err != nil {
		return store.OssThreshold{}, store.Wrap("getting OSS threshold", classify(err))
	}
	return thresholdFromRow(row), nil
}

// EnsureOssThreshold implements store.Store.
func (s *Store) EnsureOssThreshold(ctx context.Context, shop string, year int, countryCode string) (store.OssThreshold, error) {
	row, err := s.queries.EnsureOssThreshold(ctx, db.EnsureOssThresholdParams{
		ID:          uuid.New(),
		Shop:        shop,
		Year:        int32(year),
		CountryCode: countryCode,
		LastUpdated: time.Now().UTC(),
	})
	if err != nil {
		return store.OssThreshold{}, store.Wrap("ensuring OSS threshold", err)
	}
	return thresholdFromRow(row), nil
}

// UpsertOssThreshold implements store.Store with a single INSERT ... ON
// CONFLICT, so concurrent sales to the same country never lose an update.
func (s *Store) UpsertOssThreshold(ctx context.Context, d store.ThresholdDelta) (store.OssThreshold, error) {
	id := d.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	row, err := s.queries.UpsertOssThreshold(ctx, db.UpsertOssThresholdParams{
		ID:          id,
		Shop:        d.Shop,
		Year:        int32(d.Year),
		CountryCode: d.CountryCode,
		TotalHt:     decimalToNumeric(d.TotalHT),
		TotalTtc:    decimalToNumeric(d.TotalTTC),
		Threshold:   decimalToNumeric(d.Threshold),
		At:          d.At.UTC(),
	})
	if err != nil {
		return store.OssThreshold{}, store.Wrap("upserting OSS threshold", err)
	}
	return thresholdFromRow(row), nil
}

// ListOssThresholds implements store.Store.
func (s *Store) ListOssThresholds(ctx context.Context, shop string, year int) ([]store.OssThreshold, error) {
	rows, err := s.queries.ListOssThresholds(ctx, db.ListOssThresholdsParams{
		Shop: shop,
		Year: int32(year),
	})
	if err != nil {
		return nil, store.Wrap("listing OSS thresholds", err)
	}
	out := make([]store.OssThreshold, 0, len(rows))
	for _, r := range rows {
		out = append(out, thresholdFromRow(r))
	}
	return out, nil
}

// CreateOssSale implements store.Store.
func (s *Store) CreateOssSale(ctx context.Context, in store.OssSale) (store.OssSale, error) {
	id := in.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	row, err := s.queries.CreateOssSale(ctx, db.CreateOssSaleParams{
		ID:              id,
		Shop:            in.Shop,
		Year:            int32(in.Year),
		Quarter:         int32(in.Quarter),
		Month:           int32(in.Month),
		InvoiceID:       in.InvoiceID,
		InvoiceNumber:   in.InvoiceNumber,
		OrderID:         in.OrderID,
		CustomerCountry: in.CustomerCountry,
		BaseHt:          decimalToNumeric(in.BaseHT),
		TaxRate:         decimalToNumeric(in.TaxRate),
		TaxAmount:       decimalToNumeric(in.TaxAmount),
		TotalTtc:        decimalToNumeric(in.TotalTTC),
		SaleDate:        in.SaleDate.UTC(),
	})
	if err != nil {
		return store.OssSale{}, store.Wrap("creating OSS sale", err)
	}
	return saleFromRow(row), nil
}

// ListOssSales implements store.Store.
func (s *Store) ListOssSales(ctx context.Context, shop string, year, quarter int) ([]store.OssSale, error) {
	rows, err := s.queries.ListOssSalesByQuarter(ctx, db.ListOssSalesByQuarterParams{
		Shop:    shop,
		Year:    int32(year),
		Quarter: int32(quarter),
	})
	if err != nil {
		return nil, store.Wrap("listing OSS sales", err)
	}
	out := make([]store.OssSale, 0, len(rows))
	for _, r := range rows {
		out = append(out, saleFromRow(r))
	}
	return out, nil
}

// classify maps driver errors to the sentinels of package store.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return store.ErrNotFound
	case isDuplicateKeyError(err) && violatedConstraint(err) == orderIDConstraint:
		return fmt.Errorf("%w: %v", store.ErrDuplicateOrder, err)
	case isDuplicateKeyError(err) && violatedConstraint(err) == invoiceNumberConstraint:
		return fmt.Errorf("%w: %v", store.ErrDuplicateNumber, err)
	}
	return err
}

// orderIDConstraint is the unique constraint guarding one invoice per order.
const orderIDConstraint = "invoices_order_id_key"

// invoiceNumberConstraint guards one invoice per number within a shop.
const invoiceNumberConstraint = "invoices_shop_invoice_number_key"

func violatedConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// isDuplicateKeyError checks if a PostgreSQL error is a unique constraint violation (23505).
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}

var _ store.Store = (*Store)(nil)
