// Package invoice assembles, persists and publishes customer invoices.
package invoice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/factura-eu/api/internal/apperr"
	"github.com/factura-eu/api/internal/services/numbering"
	"github.com/factura-eu/api/internal/services/oss"
	"github.com/factura-eu/api/internal/services/settings"
	"github.com/factura-eu/api/internal/store"
	"github.com/factura-eu/api/internal/vat"
)

// ErrNotFound is returned when an invoice does not exist.
var ErrNotFound = errors.New("invoice not found")

// LineInput is one order line as received from the order source.
type LineInput struct {
	SKU          string           `json:"sku,omitempty"`
	ProductTitle string           `json:"productTitle"`
	VariantTitle string           `json:"variantTitle,omitempty"`
	Description  string           `json:"description,omitempty"`
	Quantity     int              `json:"quantity"`
	UnitPriceHT  decimal.Decimal  `json:"unitPriceHt"`
	TaxRate      *decimal.Decimal `json:"taxRate,omitempty"`
}

// Input is a normalised order ready to be invoiced.
type Input struct {
	Shop        string `json:"shop"`
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber,omitempty"`
	OrderName   string `json:"orderName,omitempty"`

	CustomerName       string `json:"customerName"`
	CustomerEmail      string `json:"customerEmail,omitempty"`
	CustomerAddress    string `json:"customerAddress,omitempty"`
	CustomerPostalCode string `json:"customerPostalCode,omitempty"`
	CustomerCity       string `json:"customerCity,omitempty"`
	CustomerCountry    string `json:"customerCountry"`

	PaymentStatus string     `json:"paymentStatus,omitempty"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`

	Lines []LineInput `json:"lines"`
}

// Result is the outcome of CreateInvoice. Err keeps the underlying error for
// callers that map failures to transport status codes.
type Result struct {
	Success bool           `json:"success"`
	Invoice *store.Invoice `json:"invoice,omitempty"`
	Error   string         `json:"error,omitempty"`
	Err     error          `json:"-"`
}

// Service provides the invoice lifecycle: creation, lookup and document
// attachment.
type Service struct {
	store    store.Store
	settings *settings.Service
	numbers  *numbering.Generator
	calc     *vat.Calculator
	tracker  *oss.Tracker
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new invoice service. A nil rates cache uses the
// built-in rate table.
func NewService(st store.Store, tracker *oss.Tracker, rates *vat.RateCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if tracker == nil {
		tracker = oss.NewTracker(st, logger)
	}
	return &Service{
		store:    st,
		settings: settings.NewService(st, logger),
		numbers:  numbering.NewGenerator(st, logger),
		calc:     vat.NewCalculator(rates, tracker),
		tracker:  tracker,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the issuance clock. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateInvoice issues the invoice of one order. It never returns an error:
// failures are reported in the Result. Calling it again for the same order
// returns the invoice issued the first time.
func (s *Service) CreateInvoice(ctx context.Context, in Input) Result {
	inv, err := s.create(ctx, in)
	if err != nil {
		if apperr.IsExpected(err) {
			s.logger.Warn("invoice rejected", "shop", in.Shop, "order_id", in.OrderID, "error", err)
		} else {
			s.logger.Error("creating invoice", "shop", in.Shop, "order_id", in.OrderID, "error", err)
		}
		return Result{Success: false, Error: err.Error(), Err: err}
	}
	return Result{Success: true, Invoice: &inv}
}

func (s *Service) create(ctx context.Context, in Input) (store.Invoice, error) {
	if err := validateInput(in); err != nil {
		return store.Invoice{}, err
	}

	seller, err := s.settings.Load(ctx, in.Shop)
	if err != nil {
		return store.Invoice{}, err
	}

	existing, err := s.store.FindInvoiceByOrderID(ctx, in.OrderID)
	if err == nil {
		s.logger.Info("invoice already issued", "shop", in.Shop, "order_id", in.OrderID, "invoice_number", existing.InvoiceNumber)
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return store.Invoice{}, fmt.Errorf("looking up invoice for order %s: %w", in.OrderID, err)
	}

	issuedAt := s.now().UTC()
	country := vat.NormalizeCountry(in.CustomerCountry)

	number, err := s.numbers.NextAt(ctx, in.Shop, issuedAt)
	if err != nil {
		return store.Invoice{}, err
	}

	calc, err := s.calc.Calculate(ctx, vat.CalcInput{
		Shop: in.Shop,
		Regime: vat.Regime{
			FranchiseEnBase: seller.FranchiseEnBase,
			OSSEnabled:      seller.OSSEnabled,
		},
		CustomerCountry: country,
		Year:            issuedAt.Year(),
		Lines:           calcLines(in.Lines),
	})
	if err != nil {
		return store.Invoice{}, fmt.Errorf("calculating VAT: %w", err)
	}

	draft := assemble(in, seller, number, calc, issuedAt)

	var created store.Invoice
	err = s.store.InTx(ctx, func(tx store.Store) error {
		var err error
		created, err = tx.CreateInvoiceWithLines(ctx, draft)
		if err != nil {
			return err
		}

		// The regime above was decided on the pre-sale total; recording
		// this sale only affects the next one.
		if vat.IsEUForeign(country) {
			if err := s.tracker.WithStore(tx).RecordSale(ctx, in.Shop, country, calc.TotalHT, calc.TotalTTC, issuedAt.Year()); err != nil {
				return err
			}
		}

		if calc.OSSApplied {
			if _, err := tx.CreateOssSale(ctx, ossSale(created, calc)); err != nil {
				return fmt.Errorf("recording OSS sale: %w", err)
			}
		}
		return nil
	})
	if errors.Is(err, store.ErrDuplicateOrder) {
		existing, findErr := s.store.FindInvoiceByOrderID(ctx, in.OrderID)
		if findErr != nil {
			return store.Invoice{}, fmt.Errorf("loading concurrently issued invoice for order %s: %w", in.OrderID, findErr)
		}
		s.logger.Info("invoice issued concurrently", "shop", in.Shop, "order_id", in.OrderID, "invoice_number", existing.InvoiceNumber)
		return existing, nil
	}
	if err != nil {
		return store.Invoice{}, fmt.Errorf("persisting invoice %s: %w", number, err)
	}

	s.logger.Info("invoice created",
		"shop", in.Shop,
		"order_id", in.OrderID,
		"invoice_number", created.InvoiceNumber,
		"country", country,
		"oss_applied", calc.OSSApplied,
		"total_ttc", created.TotalTTC.StringFixed(2),
	)
	return created, nil
}

func validateInput(in Input) error {
	var problems []string
	if strings.TrimSpace(in.Shop) == "" {
		problems = append(problems, "shop is required")
	}
	if strings.TrimSpace(in.OrderID) == "" {
		problems = append(problems, "order ID is required")
	}
	if err := vat.ValidateLines(calcLines(in.Lines)); err != nil {
		var verr *apperr.ValidationError
		if errors.As(err, &verr) {
			problems = append(problems, verr.Fields...)
		}
	}
	return apperr.NewValidation(problems)
}

func calcLines(lines []LineInput) []vat.LineInput {
	out := make([]vat.LineInput, len(lines))
	for i, l := range lines {
		out[i] = vat.LineInput{
			Quantity:    l.Quantity,
			UnitPriceHT: l.UnitPriceHT,
			TaxRate:     l.TaxRate,
		}
	}
	return out
}

// assemble builds the invoice record with a snapshot of the seller identity,
// so later settings changes never alter an issued invoice.
func assemble(in Input, seller store.ShopSettings, number string, calc vat.Calculation, issuedAt time.Time) store.Invoice {
	inv := store.Invoice{
		ID:            uuid.New(),
		Shop:          in.Shop,
		InvoiceNumber: number,
		OrderID:       in.OrderID,
		OrderNumber:   in.OrderNumber,
		OrderName:     in.OrderName,

		CustomerName:       in.CustomerName,
		CustomerEmail:      in.CustomerEmail,
		CustomerAddress:    in.CustomerAddress,
		CustomerPostalCode: in.CustomerPostalCode,
		CustomerCity:       in.CustomerCity,
		CustomerCountry:    vat.NormalizeCountry(in.CustomerCountry),

		SellerName:        seller.CompanyName,
		SellerAddress:     sellerAddress(seller),
		SellerSiren:       seller.Siren,
		SellerSiret:       seller.Siret,
		SellerRCS:         seller.RCS,
		SellerTVAIntracom: seller.TVAIntracom,
		SellerLegalForm:   seller.LegalForm,
		SellerCapital:     seller.ShareCapital,

		TotalHT:         calc.TotalHT,
		TotalTVA:        calc.TotalTVA,
		TotalTTC:        calc.TotalTTC,
		OSSApplied:      calc.OSSApplied,
		FranchiseEnBase: calc.FranchiseEnBase,

		PaymentTerms:  seller.PaymentTerms,
		PaymentStatus: in.PaymentStatus,
		PaidAt:        in.PaidAt,
		LegalMentions: LegalMentions(calc.OSSApplied, calc.FranchiseEnBase, seller.DefaultLanguage),

		IssuedAt: issuedAt,
		Lines:    make([]store.InvoiceLine, 0, len(in.Lines)),
	}

	for i, l := range in.Lines {
		lc := calc.Lines[i]
		inv.Lines = append(inv.Lines, store.InvoiceLine{
			ID:           uuid.New(),
			InvoiceID:    inv.ID,
			Position:     i,
			SKU:          l.SKU,
			ProductTitle: l.ProductTitle,
			VariantTitle: l.VariantTitle,
			Description:  l.Description,
			Quantity:     l.Quantity,
			UnitPriceHT:  lc.UnitPriceHT,
			TaxRate:      lc.TaxRate,
			TaxAmount:    lc.TaxAmount,
			TotalHT:      lc.TotalHT,
			TotalTTC:     lc.TotalTTC,
		})
	}
	return inv
}

func sellerAddress(s store.ShopSettings) string {
	city := strings.TrimSpace(strings.Join([]string{s.PostalCode, s.City}, " "))
	var parts []string
	for _, p := range []string{s.Address, city} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func ossSale(inv store.Invoice, calc vat.Calculation) store.OssSale {
	rate := decimal.Zero
	if len(calc.Lines) > 0 {
		rate = calc.Lines[0].TaxRate
	}
	return store.OssSale{
		Shop:            inv.Shop,
		Year:            inv.IssuedAt.Year(),
		Quarter:         vat.QuarterOf(inv.IssuedAt.Month()),
		Month:           int(inv.IssuedAt.Month()),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		OrderID:         inv.OrderID,
		CustomerCountry: inv.CustomerCountry,
		BaseHT:          inv.TotalHT,
		TaxRate:         rate,
		TaxAmount:       inv.TotalTVA,
		TotalTTC:        inv.TotalTTC,
		SaleDate:        inv.IssuedAt,
	}
}

// Get returns the invoice issued for an order.
func (s *Service) Get(ctx context.Context, orderID string) (store.Invoice, error) {
	inv, err := s.store.FindInvoiceByOrderID(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Invoice{}, ErrNotFound
	}
	if err != nil {
		return store.Invoice{}, fmt.Errorf("getting invoice for order %s: %w", orderID, err)
	}
	return inv, nil
}

// List returns a page of the shop's invoices, newest first, with the total count.
func (s *Service) List(ctx context.Context, shop string, page, pageSize int) ([]store.Invoice, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 250 {
		pageSize = 250
	}
	offset := (page - 1) * pageSize

	invoices, total, err := s.store.ListInvoices(ctx, shop, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing invoices: %w", err)
	}
	return invoices, total, nil
}

// AttachDocument records where the rendered document of an invoice is stored.
// It is the only change allowed on an issued invoice.
func (s *Service) AttachDocument(ctx context.Context, id uuid.UUID, path, url string) error {
	err := s.store.AttachInvoiceDocument(ctx, id, path, url)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("attaching document to invoice %s: %w", id, err)
	}
	return nil
}
