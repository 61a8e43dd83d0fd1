package invoice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/factura-eu/api/internal/render"
	"github.com/factura-eu/api/internal/storage"
	"github.com/factura-eu/api/internal/store"
)

// ErrNoDocument is returned by Open for an invoice that was never published.
var ErrNoDocument = errors.New("invoice has no document")

// Publisher renders issued invoices and stores the documents.
type Publisher struct {
	invoices *Service
	renderer *render.Renderer
	docs     storage.Storage
	baseURL  string
	logger   *slog.Logger
}

// NewPublisher creates a Publisher. baseURL is the public address of the API,
// used for the link encoded in the document's QR code.
func NewPublisher(invoices *Service, renderer *render.Renderer, docs storage.Storage, baseURL string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		invoices: invoices,
		renderer: renderer,
		docs:     docs,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
	}
}

// DocumentPath is the API path serving the document of an order's invoice.
// Global IDs such as gid://shopify/Order/9 are shortened to their last
// segment.
func DocumentPath(orderID string) string {
	return "/api/invoices/" + url.PathEscape(path.Base(orderID)) + "/document"
}

// Publish renders inv with the shop's theme and language, stores the result
// and records its location on the invoice. An invoice that already has a
// document is returned unchanged.
func (p *Publisher) Publish(ctx context.Context, inv store.Invoice) (store.Invoice, error) {
	if inv.PDFPath != "" {
		return inv, nil
	}

	settings, err := p.invoices.settings.Get(ctx, inv.Shop)
	if err != nil {
		return inv, err
	}

	var link string
	if p.baseURL != "" {
		link = p.baseURL + DocumentPath(inv.OrderID)
	}

	doc, err := p.renderer.Render(ctx, inv, render.Options{
		Theme:    render.ParseTheme(settings.PDFTheme),
		Language: settings.DefaultLanguage,
		LinkURL:  link,
	})
	if err != nil {
		return inv, err
	}

	key := storage.InvoiceKey(inv.Shop, inv.InvoiceNumber, render.Ext)
	docURL, err := p.docs.Put(ctx, key, bytes.NewReader(doc), render.ContentType)
	if err != nil {
		return inv, fmt.Errorf("storing document of invoice %s: %w", inv.InvoiceNumber, err)
	}

	if err := p.invoices.AttachDocument(ctx, inv.ID, key, docURL); err != nil {
		if delErr := p.docs.Delete(ctx, key); delErr != nil {
			p.logger.Warn("removing orphaned invoice document", "key", key, "error", delErr)
		}
		return inv, err
	}
	inv.PDFPath = key
	inv.PDFURL = docURL

	p.logger.Info("invoice document stored",
		"shop", inv.Shop,
		"invoice_number", inv.InvoiceNumber,
		"key", key,
		"bytes", len(doc),
	)
	return inv, nil
}

// Open returns the stored document of inv.
func (p *Publisher) Open(ctx context.Context, inv store.Invoice) (io.ReadCloser, error) {
	if inv.PDFPath == "" {
		return nil, ErrNoDocument
	}
	rc, err := p.docs.Get(ctx, inv.PDFPath)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, fmt.Errorf("opening document of invoice %s: %w", inv.InvoiceNumber, err)
	}
	return rc, nil
}

// DownloadURL returns a time-limited URL of the stored document of inv.
func (p *Publisher) DownloadURL(ctx context.Context, inv store.Invoice, expiry time.Duration) (string, error) {
	if inv.PDFPath == "" {
		return "", ErrNoDocument
	}
	u, err := p.docs.PresignGet(ctx, inv.PDFPath, expiry)
	if err != nil {
		return "", fmt.Errorf("signing document URL of invoice %s: %w", inv.InvoiceNumber, err)
	}
	return u, nil
}
