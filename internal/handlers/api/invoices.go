package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/factura-eu/api/internal/apperr"
	"github.com/factura-eu/api/internal/render"
	"github.com/factura-eu/api/internal/services/invoice"
	"github.com/factura-eu/api/internal/shopify"
	"github.com/factura-eu/api/internal/store"
)

// OrderSource loads orders from the shop's e-commerce platform.
type OrderSource interface {
	FetchOrder(ctx context.Context, shop, orderID string) (shopify.Order, error)
}

// InvoiceHandler serves invoice generation, lookup and documents.
type InvoiceHandler struct {
	invoices      *invoice.Service
	publisher     *invoice.Publisher
	orders        OrderSource
	presignExpiry time.Duration
	logger        *slog.Logger
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(
	invoices *invoice.Service,
	publisher *invoice.Publisher,
	orders OrderSource,
	presignExpiry time.Duration,
	logger *slog.Logger,
) *InvoiceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if presignExpiry <= 0 {
		presignExpiry = 15 * time.Minute
	}
	return &InvoiceHandler{
		invoices:      invoices,
		publisher:     publisher,
		orders:        orders,
		presignExpiry: presignExpiry,
		logger:        logger,
	}
}

// RegisterRoutes registers the invoice routes on the given mux.
func (h *InvoiceHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/invoices/generate", h.Generate)
	mux.HandleFunc("GET /api/invoices", h.List)
	mux.HandleFunc("GET /api/invoices/{orderId}", h.Get)
	mux.HandleFunc("GET /api/invoices/{orderId}/document", h.Document)
}

type generateRequest struct {
	OrderID string `json:"order_id"`
}

type generateResponse struct {
	Success bool           `json:"success"`
	Invoice *store.Invoice `json:"invoice"`
	Warning string         `json:"warning,omitempty"`
}

// Generate issues the invoice of a Shopify order and publishes its document.
func (h *InvoiceHandler) Generate(w http.ResponseWriter, r *http.Request) {
	shop, ok := shopOf(w, r)
	if !ok {
		return
	}

	var req generateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OrderID == "" {
		writeError(w, http.StatusBadRequest, "order_id is required")
		return
	}

	order, err := h.orders.FetchOrder(r.Context(), shop, req.OrderID)
	if errors.Is(err, shopify.ErrOrderNotFound) {
		writeError(w, http.StatusNotFound, shopify.ErrOrderNotFound.Error())
		return
	}
	if err != nil {
		h.logger.Error("fetching order", "shop", shop, "order_id", req.OrderID, "error", err)
		writeError(w, http.StatusBadGateway, "could not load the order from Shopify")
		return
	}

	res := h.invoices.CreateInvoice(r.Context(), shopify.ToInvoiceInput(order, shop))
	if !res.Success {
		if apperr.IsExpected(res.Err) {
			writeError(w, http.StatusBadRequest, res.Error)
			return
		}
		h.logger.Error("creating invoice", "shop", shop, "order_id", req.OrderID, "error", res.Err)
		writeError(w, http.StatusInternalServerError, "failed to create invoice")
		return
	}

	resp := generateResponse{Success: true, Invoice: res.Invoice}
	published, err := h.publisher.Publish(r.Context(), *res.Invoice)
	if err != nil {
		// The invoice is issued; the document can be produced again later.
		h.logger.Error("publishing invoice document", "shop", shop, "invoice_number", res.Invoice.InvoiceNumber, "error", err)
		resp.Warning = "invoice created but its document could not be stored"
	} else {
		resp.Invoice = &published
	}
	writeJSON(w, http.StatusOK, resp)
}

type listResponse struct {
	Success    bool            `json:"success"`
	Invoices   []store.Invoice `json:"invoices"`
	Page       int             `json:"page"`
	TotalPages int             `json:"total_pages"`
	Total      int             `json:"total"`
}

// List returns the shop's invoices, newest first.
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	shop, ok := shopOf(w, r)
	if !ok {
		return
	}
	page, limit := parsePagination(r)

	invoices, total, err := h.invoices.List(r.Context(), shop, page, limit)
	if err != nil {
		h.logger.Error("listing invoices", "shop", shop, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list invoices")
		return
	}
	if invoices == nil {
		invoices = []store.Invoice{}
	}

	writeJSON(w, http.StatusOK, listResponse{
		Success:    true,
		Invoices:   invoices,
		Page:       page,
		TotalPages: (total + limit - 1) / limit,
		Total:      total,
	})
}

// lookup loads the invoice named by the orderId path value. Invoices of other
// shops are reported as missing.
func (h *InvoiceHandler) lookup(w http.ResponseWriter, r *http.Request) (store.Invoice, bool) {
	shop, ok := shopOf(w, r)
	if !ok {
		return store.Invoice{}, false
	}

	inv, err := h.invoices.Get(r.Context(), shopify.OrderGID(r.PathValue("orderId")))
	if errors.Is(err, invoice.ErrNotFound) || (err == nil && inv.Shop != shop) {
		writeError(w, http.StatusNotFound, "invoice not found")
		return store.Invoice{}, false
	}
	if err != nil {
		h.logger.Error("getting invoice", "shop", shop, "order_id", r.PathValue("orderId"), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load invoice")
		return store.Invoice{}, false
	}
	return inv, true
}

// Get returns the invoice of one order.
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "invoice": inv})
}

// Document streams the invoice document, rendering it first if it was never
// stored. With ?link=1 it returns a time-limited download URL instead.
func (h *InvoiceHandler) Document(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.lookup(w, r)
	if !ok {
		return
	}

	inv, err := h.publisher.Publish(r.Context(), inv)
	if err != nil {
		h.logger.Error("publishing invoice document", "invoice_number", inv.InvoiceNumber, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to produce invoice document")
		return
	}

	if r.URL.Query().Get("link") != "" {
		u, err := h.publisher.DownloadURL(r.Context(), inv, h.presignExpiry)
		if err != nil {
			h.logger.Error("signing document URL", "invoice_number", inv.InvoiceNumber, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to sign document URL")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "url": u})
		return
	}

	rc, err := h.publisher.Open(r.Context(), inv)
	if err != nil {
		h.logger.Error("opening invoice document", "invoice_number", inv.InvoiceNumber, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to open invoice document")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", render.ContentType)
	w.Header().Set("Content-Disposition", `inline; filename="`+inv.InvoiceNumber+"."+render.Ext+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("streaming invoice document", "invoice_number", inv.InvoiceNumber, "error", err)
	}
}
