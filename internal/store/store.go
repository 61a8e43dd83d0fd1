// Package store defines the persistence contract of the invoicing engine and
// the records it stores. Two implementations exist: store/postgres for
// production and store/memory for unit tests and local development.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateOrder is returned by CreateInvoiceWithLines when an invoice
	// already exists for the order. Callers resolve it by loading that invoice.
	ErrDuplicateOrder = errors.New("invoice already exists for order")

	// ErrDuplicateNumber is returned by CreateInvoiceWithLines when the shop
	// already issued the same invoice number.
	ErrDuplicateNumber = errors.New("invoice number already issued")

	// ErrStorage is the sentinel behind every StorageError.
	ErrStorage = errors.New("storage error")
)

// StorageError wraps an unexpected persistence failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }

// Wrap returns err as a StorageError unless it is nil or one of the expected
// sentinels of this package.
func Wrap(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicateOrder) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// Store is the storage interface consumed by the services.
type Store interface {
	GetShopSettings(ctx context.Context, shop string) (ShopSettings, error)
	CreateShopSettings(ctx context.Context, s ShopSettings) (ShopSettings, error)
	// UpdateShopSettings writes every field except the numbering counters.
	UpdateShopSettings(ctx context.Context, s ShopSettings) (ShopSettings, error)
	// NextSequence resets the counter when year differs from the stored year,
	// then increments it, in one atomic step.
	NextSequence(ctx context.Context, shop string, year int) (SequenceState, error)

	FindInvoiceByOrderID(ctx context.Context, orderID string) (Invoice, error)
	GetInvoice(ctx context.Context, id uuid.UUID) (Invoice, error)
	ListInvoices(ctx context.Context, shop string, limit, offset int) ([]Invoice, int, error)
	CreateInvoiceWithLines(ctx context.Context, inv Invoice) (Invoice, error)
	AttachInvoiceDocument(ctx context.Context, id uuid.UUID, path, url string) error

	GetOssThreshold(ctx context.Context, shop string, year int, countryCode string) (OssThreshold, error)
	// EnsureOssThreshold returns the row, creating a zeroed one if missing.
	EnsureOssThreshold(ctx context.Context, shop string, year int, countryCode string) (OssThreshold, error)
	// UpsertOssThreshold adds one sale to the running totals atomically.
	UpsertOssThreshold(ctx context.Context, d ThresholdDelta) (OssThreshold, error)
	ListOssThresholds(ctx context.Context, shop string, year int) ([]OssThreshold, error)

	CreateOssSale(ctx context.Context, s OssSale) (OssSale, error)
	ListOssSales(ctx context.Context, shop string, year, quarter int) ([]OssSale, error)

	// InTx runs fn against a Store bound to one transaction. The transaction
	// commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(Store) error) error
}

// ShopSettings is the fiscal and presentation configuration of one shop.
type ShopSettings struct {
	Shop string `json:"shop"`

	CompanyName  string `json:"companyName"`
	Address      string `json:"address"`
	PostalCode   string `json:"postalCode"`
	City         string `json:"city"`
	Country      string `json:"country"`
	LegalForm    string `json:"legalForm"`
	ShareCapital string `json:"shareCapital"`
	Siren        string `json:"siren"`
	Siret        string `json:"siret"`
	RCS          string `json:"rcs"`
	TVAIntracom  string `json:"tvaIntracom"`

	OSSEnabled      bool   `json:"ossEnabled"`
	OSSNumber       string `json:"ossNumber"`
	FranchiseEnBase bool   `json:"franchiseEnBase"`

	InvoicePrefix   string `json:"invoicePrefix"`
	InvoiceFormat   string `json:"invoiceFormat"`
	CurrentYear     int    `json:"currentYear"`
	CurrentSequence int    `json:"currentSequence"`

	AutoGenerateOnPaid bool   `json:"autoGenerateOnPaid"`
	DefaultLanguage    string `json:"defaultLanguage"`
	DefaultCurrency    string `json:"defaultCurrency"`
	PDFTheme           string `json:"pdfTheme"`
	StorageProvider    string `json:"storageProvider"`
	StorageBucket      string `json:"storageBucket"`
	StorageRegion      string `json:"storageRegion"`

	PaymentTerms      string `json:"paymentTerms"`
	LatePenaltyRate   string `json:"latePenaltyRate"`
	LatePenaltyAmount string `json:"latePenaltyAmount"`

	LegalChecklistConfirmed bool       `json:"legalChecklistConfirmed"`
	LegalChecklistDate      *time.Time `json:"legalChecklistDate,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SequenceState is the numbering state after an increment.
type SequenceState struct {
	Year     int
	Sequence int
	Prefix   string
	Format   string
}

// Invoice is an issued invoice. Fiscal fields are immutable once created;
// only the document path and URL are attached afterwards.
type Invoice struct {
	ID            uuid.UUID `json:"id"`
	Shop          string    `json:"shop"`
	InvoiceNumber string    `json:"invoiceNumber"`
	OrderID       string    `json:"orderId"`
	OrderNumber   string    `json:"orderNumber,omitempty"`
	OrderName     string    `json:"orderName,omitempty"`

	CustomerName       string `json:"customerName"`
	CustomerEmail      string `json:"customerEmail,omitempty"`
	CustomerAddress    string `json:"customerAddress,omitempty"`
	CustomerPostalCode string `json:"customerPostalCode,omitempty"`
	CustomerCity       string `json:"customerCity,omitempty"`
	CustomerCountry    string `json:"customerCountry"`

	SellerName        string `json:"sellerName"`
	SellerAddress     string `json:"sellerAddress,omitempty"`
	SellerSiren       string `json:"sellerSiren,omitempty"`
	SellerSiret       string `json:"sellerSiret,omitempty"`
	SellerRCS         string `json:"sellerRcs,omitempty"`
	SellerTVAIntracom string `json:"sellerTvaIntracom,omitempty"`
	SellerLegalForm   string `json:"sellerLegalForm,omitempty"`
	SellerCapital     string `json:"sellerCapital,omitempty"`

	TotalHT         decimal.Decimal `json:"totalHt"`
	TotalTVA        decimal.Decimal `json:"totalTva"`
	TotalTTC        decimal.Decimal `json:"totalTtc"`
	OSSApplied      bool            `json:"ossApplied"`
	FranchiseEnBase bool            `json:"franchiseEnBase"`

	PaymentTerms  string     `json:"paymentTerms,omitempty"`
	PaymentStatus string     `json:"paymentStatus,omitempty"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
	LegalMentions string     `json:"legalMentions"`

	PDFPath string `json:"pdfPath,omitempty"`
	PDFURL  string `json:"pdfUrl,omitempty"`

	IssuedAt  time.Time     `json:"issuedAt"`
	CreatedAt time.Time     `json:"createdAt"`
	Lines     []InvoiceLine `json:"lines"`
}

// InvoiceLine is one priced line, kept in input order by Position.
type InvoiceLine struct {
	ID           uuid.UUID       `json:"id"`
	InvoiceID    uuid.UUID       `json:"invoiceId"`
	Position     int             `json:"position"`
	SKU          string          `json:"sku,omitempty"`
	ProductTitle string          `json:"productTitle"`
	VariantTitle string          `json:"variantTitle,omitempty"`
	Description  string          `json:"description,omitempty"`
	Quantity     int             `json:"quantity"`
	UnitPriceHT  decimal.Decimal `json:"unitPriceHt"`
	TaxRate      decimal.Decimal `json:"taxRate"`
	TaxAmount    decimal.Decimal `json:"taxAmount"`
	TotalHT      decimal.Decimal `json:"totalHt"`
	TotalTTC     decimal.Decimal `json:"totalTtc"`
}

// OssThreshold is the running EU distance-sales total for one shop, year
// and destination country.
type OssThreshold struct {
	ID               uuid.UUID       `json:"id"`
	Shop             string          `json:"shop"`
	Year             int             `json:"year"`
	CountryCode      string          `json:"countryCode"`
	TotalSalesHT     decimal.Decimal `json:"totalSalesHt"`
	TotalSalesTTC    decimal.Decimal `json:"totalSalesTtc"`
	OrderCount       int             `json:"orderCount"`
	ThresholdReached bool            `json:"thresholdReached"`
	ThresholdDate    *time.Time      `json:"thresholdDate,omitempty"`
	LastUpdated      time.Time       `json:"lastUpdated"`
}

// ThresholdDelta is one sale added to an OssThreshold row. ThresholdDate is
// set to At only on the first crossing of Threshold.
type ThresholdDelta struct {
	ID          uuid.UUID
	Shop        string
	Year        int
	CountryCode string
	TotalHT     decimal.Decimal
	TotalTTC    decimal.Decimal
	Threshold   decimal.Decimal
	At          time.Time
}

// OssSale is the append-only ledger entry of one OSS-taxed invoice.
type OssSale struct {
	ID              uuid.UUID       `json:"id"`
	Shop            string          `json:"shop"`
	Year            int             `json:"year"`
	Quarter         int             `json:"quarter"`
	Month           int             `json:"month"`
	InvoiceID       uuid.UUID       `json:"invoiceId"`
	InvoiceNumber   string          `json:"invoiceNumber"`
	OrderID         string          `json:"orderId"`
	CustomerCountry string          `json:"customerCountry"`
	BaseHT          decimal.Decimal `json:"baseHt"`
	TaxRate         decimal.Decimal `json:"taxRate"`
	TaxAmount       decimal.Decimal `json:"taxAmount"`
	TotalTTC        decimal.Decimal `json:"totalTtc"`
	SaleDate        time.Time       `json:"saleDate"`
}
