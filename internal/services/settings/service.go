// Package settings manages the fiscal and presentation configuration of a shop.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/factura-eu/api/internal/apperr"
	"github.com/factura-eu/api/internal/services/numbering"
	"github.com/factura-eu/api/internal/store"
)

// Messages reported by Validate, one per missing mandatory field.
const (
	MsgCompanyName = "Company name (Dénomination) is required"
	MsgAddress     = "Company address is required"
	MsgSiren       = "SIREN number is required"
	MsgTVAIntracom = "TVA intracommunautaire is required (unless franchise en base)"
)

// Defaults applied to new shops and to blank values on update.
const (
	DefaultCountry           = "FR"
	DefaultLanguage          = "FR"
	DefaultCurrency          = "EUR"
	DefaultTheme             = "Standard"
	DefaultStorageProvider   = "local"
	DefaultLatePenaltyAmount = "40"
)

// Service provides business logic for shop settings.
type Service struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new settings service.
func NewService(st store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  st,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the clock. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Defaults returns the settings a new shop starts with.
func Defaults(shop string, year int) store.ShopSettings {
	return store.ShopSettings{
		Shop:              shop,
		Country:           DefaultCountry,
		InvoicePrefix:     numbering.DefaultPrefix,
		InvoiceFormat:     numbering.DefaultFormat,
		CurrentYear:       year,
		DefaultLanguage:   DefaultLanguage,
		DefaultCurrency:   DefaultCurrency,
		PDFTheme:          DefaultTheme,
		StorageProvider:   DefaultStorageProvider,
		LatePenaltyAmount: DefaultLatePenaltyAmount,
	}
}

// Get returns the settings of shop, creating the defaults on first access.
func (s *Service) Get(ctx context.Context, shop string) (store.ShopSettings, error) {
	settings, err := s.store.GetShopSettings(ctx, shop)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return store.ShopSettings{}, fmt.Errorf("getting settings for %s: %w", shop, err)
	}

	settings, err = s.store.CreateShopSettings(ctx, Defaults(shop, s.now().Year()))
	if err != nil {
		return store.ShopSettings{}, fmt.Errorf("creating default settings for %s: %w", shop, err)
	}
	s.logger.Info("default shop settings created", "shop", shop)
	return settings, nil
}

// Patch carries a settings update. Nil fields keep their stored value.
// The numbering counters are not part of a patch.
type Patch struct {
	CompanyName  *string `json:"companyName"`
	Address      *string `json:"address"`
	PostalCode   *string `json:"postalCode"`
	City         *string `json:"city"`
	Country      *string `json:"country"`
	LegalForm    *string `json:"legalForm"`
	ShareCapital *string `json:"shareCapital"`
	Siren        *string `json:"siren"`
	Siret        *string `json:"siret"`
	RCS          *string `json:"rcs"`
	TVAIntracom  *string `json:"tvaIntracom"`

	OSSEnabled      *bool   `json:"ossEnabled"`
	OSSNumber       *string `json:"ossNumber"`
	FranchiseEnBase *bool   `json:"franchiseEnBase"`

	InvoicePrefix *string `json:"invoicePrefix"`
	InvoiceFormat *string `json:"invoiceFormat"`

	AutoGenerateOnPaid *bool   `json:"autoGenerateOnPaid"`
	DefaultLanguage    *string `json:"defaultLanguage"`
	DefaultCurrency    *string `json:"defaultCurrency"`
	PDFTheme           *string `json:"pdfTheme"`
	StorageProvider    *string `json:"storageProvider"`
	StorageBucket      *string `json:"storageBucket"`
	StorageRegion      *string `json:"storageRegion"`

	PaymentTerms      *string `json:"paymentTerms"`
	LatePenaltyRate   *string `json:"latePenaltyRate"`
	LatePenaltyAmount *string `json:"latePenaltyAmount"`

	LegalChecklistConfirmed *bool `json:"legalChecklistConfirmed"`
}

// Update applies p to the settings of shop, creating them first if needed.
// A numbering format that could repeat invoice numbers is rejected with a
// ValidationError and nothing is written.
func (s *Service) Update(ctx context.Context, shop string, p Patch) (store.ShopSettings, error) {
	current, err := s.Get(ctx, shop)
	if err != nil {
		return store.ShopSettings{}, err
	}

	next := apply(current, p, s.now().UTC())
	if err := numbering.ValidateFormat(next.InvoiceFormat); err != nil {
		return store.ShopSettings{}, err
	}

	updated, err := s.store.UpdateShopSettings(ctx, next)
	if err != nil {
		return store.ShopSettings{}, fmt.Errorf("updating settings for %s: %w", shop, err)
	}
	s.logger.Info("shop settings updated", "shop", shop)
	return updated, nil
}

func apply(cur store.ShopSettings, p Patch, now time.Time) store.ShopSettings {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	setOr := func(dst *string, v *string, def string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
			if *dst == "" {
				*dst = def
			}
		}
	}
	setBool := func(dst *bool, v *bool) {
		if v != nil {
			*dst = *v
		}
	}

	set(&cur.CompanyName, p.CompanyName)
	set(&cur.Address, p.Address)
	set(&cur.PostalCode, p.PostalCode)
	set(&cur.City, p.City)
	setOr(&cur.Country, p.Country, DefaultCountry)
	set(&cur.LegalForm, p.LegalForm)
	set(&cur.ShareCapital, p.ShareCapital)
	set(&cur.Siren, p.Siren)
	set(&cur.Siret, p.Siret)
	set(&cur.RCS, p.RCS)
	set(&cur.TVAIntracom, p.TVAIntracom)

	setBool(&cur.OSSEnabled, p.OSSEnabled)
	set(&cur.OSSNumber, p.OSSNumber)
	setBool(&cur.FranchiseEnBase, p.FranchiseEnBase)

	setOr(&cur.InvoicePrefix, p.InvoicePrefix, numbering.DefaultPrefix)
	setOr(&cur.InvoiceFormat, p.InvoiceFormat, numbering.DefaultFormat)

	setBool(&cur.AutoGenerateOnPaid, p.AutoGenerateOnPaid)
	setOr(&cur.DefaultLanguage, p.DefaultLanguage, DefaultLanguage)
	setOr(&cur.DefaultCurrency, p.DefaultCurrency, DefaultCurrency)
	setOr(&cur.PDFTheme, p.PDFTheme, DefaultTheme)
	setOr(&cur.StorageProvider, p.StorageProvider, DefaultStorageProvider)
	set(&cur.StorageBucket, p.StorageBucket)
	set(&cur.StorageRegion, p.StorageRegion)

	set(&cur.PaymentTerms, p.PaymentTerms)
	set(&cur.LatePenaltyRate, p.LatePenaltyRate)
	setOr(&cur.LatePenaltyAmount, p.LatePenaltyAmount, DefaultLatePenaltyAmount)

	if p.LegalChecklistConfirmed != nil {
		confirmed := *p.LegalChecklistConfirmed
		if confirmed && !cur.LegalChecklistConfirmed {
			cur.LegalChecklistDate = &now
		}
		if !confirmed {
			cur.LegalChecklistDate = nil
		}
		cur.LegalChecklistConfirmed = confirmed
	}
	return cur
}

// MissingFields lists the mandatory invoice fields that are empty in s.
// The VAT number is not required under franchise en base.
func MissingFields(s store.ShopSettings) []string {
	var missing []string
	if strings.TrimSpace(s.CompanyName) == "" {
		missing = append(missing, MsgCompanyName)
	}
	if strings.TrimSpace(s.Address) == "" {
		missing = append(missing, MsgAddress)
	}
	if strings.TrimSpace(s.Siren) == "" {
		missing = append(missing, MsgSiren)
	}
	if !s.FranchiseEnBase && strings.TrimSpace(s.TVAIntracom) == "" {
		missing = append(missing, MsgTVAIntracom)
	}
	return missing
}

// Validate returns a ValidationError listing every missing mandatory field,
// or nil when the settings can be used to issue invoices.
func Validate(s store.ShopSettings) error {
	return apperr.NewValidation(MissingFields(s))
}

// Load returns the settings of shop ready for invoicing. A shop that was never
// configured gets a ConfigurationError.
func (s *Service) Load(ctx context.Context, shop string) (store.ShopSettings, error) {
	settings, err := s.store.GetShopSettings(ctx, shop)
	if errors.Is(err, store.ErrNotFound) {
		return store.ShopSettings{}, &apperr.ConfigurationError{
			Shop:    shop,
			Missing: []string{numbering.MissingSettingsMessage},
		}
	}
	if err != nil {
		return store.ShopSettings{}, fmt.Errorf("getting settings for %s: %w", shop, err)
	}
	if err := Validate(settings); err != nil {
		return store.ShopSettings{}, err
	}
	return settings, nil
}
