package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/factura-eu/api/internal/handlers/api"
	"github.com/factura-eu/api/internal/middleware"
	"github.com/factura-eu/api/internal/render"
	"github.com/factura-eu/api/internal/services/invoice"
	"github.com/factura-eu/api/internal/services/numbering"
	"github.com/factura-eu/api/internal/services/oss"
	"github.com/factura-eu/api/internal/services/settings"
	"github.com/factura-eu/api/internal/shopify"
	"github.com/factura-eu/api/internal/storage"
	"github.com/factura-eu/api/internal/store"
	"github.com/factura-eu/api/internal/store/memory"
	"github.com/factura-eu/api/internal/testutil"
)

const testShop = "shop.myshopify.com"

var now = time.Date(2025, 2, 14, 15, 30, 0, 0, time.UTC)

// fakeOrders serves orders from a map keyed by global ID.
type fakeOrders struct {
	orders map[string]shopify.Order
	err    error
}

func (f *fakeOrders) FetchOrder(_ context.Context, _ string, orderID string) (shopify.Order, error) {
	if f.err != nil {
		return shopify.Order{}, f.err
	}
	o, ok := f.orders[shopify.OrderGID(orderID)]
	if !ok {
		return shopify.Order{}, shopify.ErrOrderNotFound
	}
	return o, nil
}

func shopifyOrder(id, country, gross string) shopify.Order {
	return shopify.Order{
		ID:              "gid://shopify/Order/" + id,
		Name:            "#" + id,
		CreatedAt:       now,
		FinancialStatus: "PAID",
		ShippingAddress: &shopify.Address{FirstName: "Jean", LastName: "Martin", Address1: "1 rue Haute", City: "Lyon", Zip: "69001", CountryCode: country},
		LineItems: shopify.LineItems{Nodes: []shopify.LineItem{{
			Title:                "Mug",
			Quantity:             1,
			OriginalUnitPriceSet: shopify.MoneyBag{ShopMoney: shopify.Money{Amount: decimal.RequireFromString(gross)}},
		}}},
	}
}

type testEnv struct {
	mux    *http.ServeMux
	store  *memory.Store
	orders *fakeOrders
}

func newEnv(t *testing.T, withSettings bool) *testEnv {
	t.Helper()
	mem := memory.New()
	if withSettings {
		if _, err := mem.CreateShopSettings(context.Background(), testutil.CompleteSettings(testShop, 2025)); err != nil {
			t.Fatalf("creating settings: %v", err)
		}
	}
	return newEnvWithStore(t, mem, mem)
}

// newEnvWithStore wires the handlers on st. mem is the store st delegates to,
// kept for direct fixture writes.
func newEnvWithStore(t *testing.T, mem *memory.Store, st store.Store) *testEnv {
	t.Helper()
	logger := slog.Default()

	tracker := oss.NewTracker(st, logger)
	invoices := invoice.NewService(st, tracker, nil, logger).WithClock(func() time.Time { return now })
	docs := storage.NewLocal(t.TempDir(), "/files")
	publisher := invoice.NewPublisher(invoices, render.NewRenderer(), docs, "https://app.example.com", logger)
	orders := &fakeOrders{orders: map[string]shopify.Order{
		"gid://shopify/Order/1": shopifyOrder("1", "FR", "12.00"),
		"gid://shopify/Order/2": shopifyOrder("2", "DE", "24.00"),
	}}

	mux := http.NewServeMux()
	api.NewInvoiceHandler(invoices, publisher, orders, time.Minute, logger).RegisterRoutes(mux)
	api.NewSettingsHandler(settings.NewService(st, logger).WithClock(func() time.Time { return now }), logger).RegisterRoutes(mux)
	api.NewReportHandler(oss.NewReporter(st, logger), tracker, logger).
		WithClock(func() time.Time { return now }).
		RegisterRoutes(mux)
	mux.Handle("GET /api/health", api.Health(nil))

	return &testEnv{mux: mux, store: mem, orders: orders}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req = req.WithContext(middleware.ContextWithShop(req.Context(), testShop))
	rr := httptest.NewRecorder()
	e.mux.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

type invoiceResponse struct {
	Success bool          `json:"success"`
	Error   string        `json:"error"`
	Warning string        `json:"warning"`
	Invoice store.Invoice `json:"invoice"`
}

func TestGenerate(t *testing.T) {
	env := newEnv(t, true)

	rr := env.do(t, http.MethodPost, "/api/invoices/generate", map[string]string{"order_id": "1"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rr.Code, rr.Body.String())
	}

	var resp invoiceResponse
	decode(t, rr, &resp)
	if !resp.Success || resp.Invoice.InvoiceNumber != "FAC-2025-0001" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if !resp.Invoice.TotalTTC.Equal(decimal.NewFromInt(12)) || !resp.Invoice.TotalHT.Equal(decimal.NewFromInt(10)) {
		t.Errorf("totals: %s / %s", resp.Invoice.TotalHT, resp.Invoice.TotalTTC)
	}
	if resp.Invoice.PDFPath != "invoices/shop.myshopify.com/FAC-2025-0001.html" {
		t.Errorf("document path: %q", resp.Invoice.PDFPath)
	}

	// Generating again returns the same invoice.
	rr = env.do(t, http.MethodPost, "/api/invoices/generate", map[string]string{"order_id": "gid://shopify/Order/1"})
	var again invoiceResponse
	decode(t, rr, &again)
	if again.Invoice.ID != resp.Invoice.ID {
		t.Errorf("second generation issued a new invoice: %s", again.Invoice.InvoiceNumber)
	}
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name       string
		settings   bool
		body       any
		fetchErr   error
		wantStatus int
		wantError  string
	}{
		{"missing order id", true, map[string]string{}, nil, http.StatusBadRequest, "order_id is required"},
		{"unknown order", true, map[string]string{"order_id": "404"}, nil, http.StatusNotFound, "order not found in Shopify"},
		{"shopify down", true, map[string]string{"order_id": "1"}, errors.New("timeout"), http.StatusBadGateway, "could not load the order from Shopify"},
		{"no settings", false, map[string]string{"order_id": "1"}, nil, http.StatusBadRequest, "Shop settings not found. Please configure your shop first."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv(t, tt.settings)
			env.orders.err = tt.fetchErr

			rr := env.do(t, http.MethodPost, "/api/invoices/generate", tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d (%s)", rr.Code, tt.wantStatus, rr.Body.String())
			}
			var resp invoiceResponse
			decode(t, rr, &resp)
			if resp.Success || resp.Error != tt.wantError {
				t.Errorf("error: got %q, want %q", resp.Error, tt.wantError)
			}
		})
	}
}

// brokenStore fails every invoice insert, including those made inside a
// transaction.
type brokenStore struct {
	store.Store
	err error
}

func (b *brokenStore) CreateInvoiceWithLines(context.Context, store.Invoice) (store.Invoice, error) {
	return store.Invoice{}, store.Wrap("creating invoice with lines", b.err)
}

func (b *brokenStore) InTx(ctx context.Context, fn func(store.Store) error) error {
	return b.Store.InTx(ctx, func(tx store.Store) error {
		return fn(&brokenStore{Store: tx, err: b.err})
	})
}

func TestGenerate_StorageFailure(t *testing.T) {
	mem := memory.New()
	if _, err := mem.CreateShopSettings(context.Background(), testutil.CompleteSettings(testShop, 2025)); err != nil {
		t.Fatalf("creating settings: %v", err)
	}
	env := newEnvWithStore(t, mem, &brokenStore{Store: mem, err: errors.New("connection refused to 10.0.3.7:5432")})

	rr := env.do(t, http.MethodPost, "/api/invoices/generate", map[string]string{"order_id": "1"})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500 (body %s)", rr.Code, rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "10.0.3.7") {
		t.Errorf("storage detail leaked to the client: %s", rr.Body.String())
	}

	var resp invoiceResponse
	decode(t, rr, &resp)
	if resp.Success || resp.Error != "failed to create invoice" {
		t.Errorf("response: %+v", resp)
	}
	if _, err := mem.FindInvoiceByOrderID(context.Background(), "gid://shopify/Order/1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("invoice persisted despite failure: %v", err)
	}
}

func TestListAndGet(t *testing.T) {
	env := newEnv(t, true)
	for _, id := range []string{"1", "2"} {
		if rr := env.do(t, http.MethodPost, "/api/invoices/generate", map[string]string{"order_id": id}); rr.Code != http.StatusOK {
			t.Fatalf("generate %s: %d", id, rr.Code)
		}
	}

	rr := env.do(t, http.MethodGet, "/api/invoices?limit=1", nil)
	var list struct {
		Success    bool            `json:"success"`
		Invoices   []store.Invoice `json:"invoices"`
		Total      int             `json:"total"`
		TotalPages int             `json:"total_pages"`
	}
	decode(t, rr, &list)
	if list.Total != 2 || list.TotalPages != 2 || len(list.Invoices) != 1 {
		t.Errorf("list: total %d, pages %d, len %d", list.Total, list.TotalPages, len(list.Invoices))
	}

	rr = env.do(t, http.MethodGet, "/api/invoices/2", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get: %d", rr.Code)
	}
	var got invoiceResponse
	decode(t, rr, &got)
	if got.Invoice.OrderID != "gid://shopify/Order/2" || got.Invoice.CustomerCountry != "DE" {
		t.Errorf("invoice: %+v", got.Invoice)
	}

	if rr := env.do(t, http.MethodGet, "/api/invoices/999", nil); rr.Code != http.StatusNotFound {
		t.Errorf("unknown order: %d", rr.Code)
	}
}

func TestGet_OtherShop(t *testing.T) {
	env := newEnv(t, true)
	env.do(t, http.MethodPost, "/api/invoices/generate", map[string]string{"order_id": "1"})

	req := httptest.NewRequest(http.MethodGet, "/api/invoices/1", nil)
	req = req.WithContext(middleware.ContextWithShop(req.Context(), "other.myshopify.com"))
	rr := httptest.NewRecorder()
	env.mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("invoice of another shop visible: %d", rr.Code)
	}
}

func TestDocument(t *testing.T) {
	env := newEnv(t, true)
	env.do(t, http.MethodPost, "/api/invoices/generate", map[string]string{"order_id": "1"})

	rr := env.do(t, http.MethodGet, "/api/invoices/1/document", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != render.ContentType {
		t.Errorf("content type: %q", ct)
	}
	if !strings.Contains(rr.Body.String(), "FAC-2025-0001") {
		t.Error("document does not contain the invoice number")
	}

	rr = env.do(t, http.MethodGet, "/api/invoices/1/document?link=1", nil)
	var link struct {
		Success bool   `json:"success"`
		URL     string `json:"url"`
	}
	decode(t, rr, &link)
	if link.URL != "/files/invoices/shop.myshopify.com/FAC-2025-0001.html" {
		t.Errorf("link: %q", link.URL)
	}
}

func TestSettings(t *testing.T) {
	env := newEnv(t, false)

	rr := env.do(t, http.MethodGet, "/api/settings", nil)
	var resp struct {
		Success  bool               `json:"success"`
		Settings store.ShopSettings `json:"settings"`
		Missing  []string           `json:"missing"`
	}
	decode(t, rr, &resp)
	if !resp.Success || resp.Settings.InvoicePrefix != "FAC" || resp.Settings.CurrentYear != 2025 {
		t.Errorf("defaults: %+v", resp.Settings)
	}
	if len(resp.Missing) != 4 {
		t.Errorf("missing: %v", resp.Missing)
	}

	name, siren, vatID, addr := "Atelier", "123456789", "FR12123456789", "1 rue"
	rr = env.do(t, http.MethodPost, "/api/settings", map[string]any{"settings": settings.Patch{
		CompanyName: &name, Siren: &siren, TVAIntracom: &vatID, Address: &addr,
	}})
	if rr.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rr.Code, rr.Body.String())
	}
	resp.Missing = nil
	decode(t, rr, &resp)
	if resp.Settings.CompanyName != "Atelier" || len(resp.Missing) != 0 {
		t.Errorf("after update: %+v missing %v", resp.Settings, resp.Missing)
	}

	rr = env.do(t, http.MethodPost, "/api/settings", map[string]any{})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("empty body: %d", rr.Code)
	}
}

func TestSettings_RejectsRepeatingFormat(t *testing.T) {
	env := newEnv(t, true)

	format := "{PREFIX}-{NNNN}"
	rr := env.do(t, http.MethodPost, "/api/settings", map[string]any{"settings": settings.Patch{InvoiceFormat: &format}})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400 (body %s)", rr.Code, rr.Body.String())
	}
	var resp invoiceResponse
	decode(t, rr, &resp)
	if resp.Error != numbering.MsgFormatNoYear {
		t.Errorf("error: %q", resp.Error)
	}

	s, _ := env.store.GetShopSettings(context.Background(), testShop)
	if s.InvoiceFormat != numbering.DefaultFormat {
		t.Errorf("rejected format was stored: %q", s.InvoiceFormat)
	}
}

func TestOSSReport(t *testing.T) {
	env := newEnv(t, true)
	ctx := context.Background()
	s, _ := env.store.GetShopSettings(ctx, testShop)
	s.OSSEnabled = true
	env.store.UpdateShopSettings(ctx, s)
	env.store.UpsertOssThreshold(ctx, store.ThresholdDelta{
		Shop: testShop, Year: 2025, CountryCode: "DE",
		TotalHT: decimal.NewFromInt(10000), TotalTTC: decimal.NewFromInt(12000),
		Threshold: decimal.NewFromInt(10000), At: now,
	})
	env.do(t, http.MethodPost, "/api/invoices/generate", map[string]string{"order_id": "2"})

	rr := env.do(t, http.MethodGet, "/api/reports/oss", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: %d %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Success bool       `json:"success"`
		Report  oss.Report `json:"report"`
	}
	decode(t, rr, &resp)
	if resp.Report.Period != (oss.Period{Year: 2025, Quarter: 1}) || len(resp.Report.Entries) != 1 {
		t.Fatalf("report: %+v", resp.Report)
	}
	if resp.Report.Entries[0].Country != "DE" || !resp.Report.Entries[0].TaxRate.Equal(decimal.NewFromInt(19)) {
		t.Errorf("entry: %+v", resp.Report.Entries[0])
	}

	rr = env.do(t, http.MethodGet, "/api/reports/oss?year=2025&quarter=1&format=csv", nil)
	if rr.Header().Get("Content-Type") != "text/csv" {
		t.Errorf("content type: %q", rr.Header().Get("Content-Type"))
	}
	if cd := rr.Header().Get("Content-Disposition"); cd != `attachment; filename="oss-report-2025-Q1.csv"` {
		t.Errorf("content disposition: %q", cd)
	}
	if !strings.HasPrefix(rr.Body.String(), "OSS Report,Q1 2025\n") {
		t.Errorf("csv: %q", rr.Body.String())
	}
}

func TestOSSReport_InvalidParams(t *testing.T) {
	env := newEnv(t, true)
	tests := map[string]string{
		"quarter 5":    "/api/reports/oss?quarter=5",
		"quarter 0":    "/api/reports/oss?quarter=0",
		"quarter text": "/api/reports/oss?quarter=abc",
	}
	for name, path := range tests {
		t.Run(name, func(t *testing.T) {
			rr := env.do(t, http.MethodGet, path, nil)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status: %d", rr.Code)
			}
			var resp struct {
				Error string `json:"error"`
			}
			decode(t, rr, &resp)
			if resp.Error != "Quarter must be between 1 and 4" {
				t.Errorf("error: %q", resp.Error)
			}
		})
	}

	if rr := env.do(t, http.MethodGet, "/api/reports/oss?year=abc", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("invalid year: %d", rr.Code)
	}
}

func TestThresholds(t *testing.T) {
	env := newEnv(t, true)
	env.do(t, http.MethodPost, "/api/invoices/generate", map[string]string{"order_id": "2"})

	rr := env.do(t, http.MethodGet, "/api/reports/oss/thresholds?year=2025", nil)
	var resp struct {
		Success  bool          `json:"success"`
		Scope    string        `json:"scope"`
		Warnings []oss.Warning `json:"warnings"`
		EU       oss.EUSales   `json:"eu"`
	}
	decode(t, rr, &resp)
	if !resp.Success || resp.Scope != "country" || len(resp.Warnings) != 26 {
		t.Fatalf("response: %+v", resp)
	}
	if resp.Warnings[0].Country != "DE" || !resp.Warnings[0].TotalSales.Equal(decimal.NewFromInt(24)) {
		t.Errorf("warning: %+v", resp.Warnings[0])
	}
	if !resp.EU.TotalSales.Equal(decimal.NewFromInt(24)) || resp.EU.ThresholdReached {
		t.Errorf("eu: %+v", resp.EU)
	}
}

func TestHealth(t *testing.T) {
	env := newEnv(t, false)
	rr := env.do(t, http.MethodGet, "/api/health", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("status: %d", rr.Code)
	}
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error {
	return errors.New("dial tcp 10.0.3.7:5432: connection refused")
}

func TestHealth_DatabaseDown(t *testing.T) {
	rr := httptest.NewRecorder()
	api.Health(downPinger{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want 503", rr.Code)
	}
	var body map[string]any
	decode(t, rr, &body)
	if len(body) != 1 || body["status"] != "unavailable" {
		t.Errorf("body: %v", body)
	}
}

func TestRequiresShop(t *testing.T) {
	env := newEnv(t, true)
	rr := httptest.NewRecorder()
	env.mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/invoices", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status without shop: %d", rr.Code)
	}
}
