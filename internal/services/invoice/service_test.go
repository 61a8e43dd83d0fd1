package invoice

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/factura-eu/api/internal/apperr"
	"github.com/factura-eu/api/internal/services/settings"
	"github.com/factura-eu/api/internal/store"
	"github.com/factura-eu/api/internal/store/memory"
	"github.com/factura-eu/api/internal/testutil"
)

var issuedAt = time.Date(2025, 2, 14, 15, 30, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newService(t *testing.T, st store.Store, mutate func(*store.ShopSettings)) *Service {
	t.Helper()
	s := testutil.CompleteSettings("shop", 2025)
	if mutate != nil {
		mutate(&s)
	}
	if _, err := st.CreateShopSettings(context.Background(), s); err != nil {
		t.Fatalf("creating settings: %v", err)
	}
	return NewService(st, nil, nil, nil).WithClock(func() time.Time { return issuedAt })
}

func order(id, country string, lines ...LineInput) Input {
	if len(lines) == 0 {
		lines = []LineInput{{ProductTitle: "Mug", Quantity: 3, UnitPriceHT: d("10.005")}}
	}
	return Input{
		Shop:            "shop",
		OrderID:         id,
		OrderName:       "#" + id,
		CustomerName:    "Jean Martin",
		CustomerCountry: country,
		PaymentStatus:   "paid",
		Lines:           lines,
	}
}

func TestCreateInvoice_Domestic(t *testing.T) {
	st := memory.New()
	svc := newService(t, st, nil)

	res := svc.CreateInvoice(context.Background(), order("1", "FR"))
	if !res.Success {
		t.Fatalf("CreateInvoice failed: %s", res.Error)
	}
	inv := res.Invoice

	if inv.InvoiceNumber != "FAC-2025-0001" {
		t.Errorf("number: %q", inv.InvoiceNumber)
	}
	if !inv.TotalHT.Equal(d("30.02")) || !inv.TotalTVA.Equal(d("6")) || !inv.TotalTTC.Equal(d("36.02")) {
		t.Errorf("totals: %s / %s / %s", inv.TotalHT, inv.TotalTVA, inv.TotalTTC)
	}
	if inv.SellerName != "Atelier Dupont SARL" || inv.SellerSiren != "123456789" {
		t.Errorf("seller snapshot missing: %+v", inv)
	}
	if inv.SellerAddress != "12 rue de la Paix, 75002 Paris" {
		t.Errorf("seller address: %q", inv.SellerAddress)
	}
	if !inv.IssuedAt.Equal(issuedAt) {
		t.Errorf("issued at: %s", inv.IssuedAt)
	}
	if len(inv.Lines) != 1 || !inv.Lines[0].TaxRate.Equal(d("20")) {
		t.Errorf("lines: %+v", inv.Lines)
	}
	if !strings.Contains(inv.LegalMentions, "L123-22") || strings.Contains(inv.LegalMentions, "OSS") {
		t.Errorf("legal mentions: %q", inv.LegalMentions)
	}

	if rows, _ := st.ListOssThresholds(context.Background(), "shop", 2025); len(rows) != 0 {
		t.Errorf("domestic sale created %d threshold rows", len(rows))
	}
}

func TestCreateInvoice_Idempotent(t *testing.T) {
	st := memory.New()
	svc := newService(t, st, nil)
	ctx := context.Background()

	first := svc.CreateInvoice(ctx, order("42", "FR"))
	second := svc.CreateInvoice(ctx, order("42", "FR"))
	if !first.Success || !second.Success {
		t.Fatalf("results: %+v / %+v", first, second)
	}
	if first.Invoice.InvoiceNumber != second.Invoice.InvoiceNumber {
		t.Errorf("numbers differ: %s vs %s", first.Invoice.InvoiceNumber, second.Invoice.InvoiceNumber)
	}

	_, total, _ := st.ListInvoices(ctx, "shop", 0, 0)
	if total != 1 {
		t.Errorf("got %d invoices, want 1", total)
	}
	settings, _ := st.GetShopSettings(ctx, "shop")
	if settings.CurrentSequence != 1 {
		t.Errorf("replay consumed a number: sequence %d", settings.CurrentSequence)
	}
}

func TestCreateInvoice_ConcurrentSameOrder(t *testing.T) {
	st := memory.New()
	svc := newService(t, st, nil)

	const n = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = make(map[string]bool)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := svc.CreateInvoice(context.Background(), order("race", "DE"))
			if !res.Success {
				t.Errorf("CreateInvoice: %s", res.Error)
				return
			}
			mu.Lock()
			numbers[res.Invoice.InvoiceNumber] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(numbers) != 1 {
		t.Errorf("got %d distinct invoices for one order: %v", len(numbers), numbers)
	}
	_, total, _ := st.ListInvoices(context.Background(), "shop", 0, 0)
	if total != 1 {
		t.Errorf("got %d stored invoices, want 1", total)
	}
	row, err := st.GetOssThreshold(context.Background(), "shop", 2025, "DE")
	if err != nil {
		t.Fatalf("GetOssThreshold: %v", err)
	}
	if row.OrderCount != 1 {
		t.Errorf("losing attempts were counted: %d orders", row.OrderCount)
	}
}

func TestCreateInvoice_IncompleteSettings(t *testing.T) {
	st := memory.New()
	svc := newService(t, st, func(s *store.ShopSettings) {
		s.CompanyName = ""
		s.Siren = ""
		s.TVAIntracom = ""
	})

	res := svc.CreateInvoice(context.Background(), order("1", "FR"))
	if res.Success {
		t.Fatal("expected failure")
	}
	if !errors.Is(res.Err, apperr.ErrValidation) {
		t.Errorf("expected validation error, got %v", res.Err)
	}
	want := strings.Join([]string{settings.MsgCompanyName, settings.MsgSiren, settings.MsgTVAIntracom}, "; ")
	if res.Error != want {
		t.Errorf("error: got %q, want %q", res.Error, want)
	}

	s, _ := st.GetShopSettings(context.Background(), "shop")
	if s.CurrentSequence != 0 {
		t.Errorf("a number was consumed: %d", s.CurrentSequence)
	}
}

func TestCreateInvoice_UnknownShop(t *testing.T) {
	svc := NewService(memory.New(), nil, nil, nil)

	res := svc.CreateInvoice(context.Background(), order("1", "FR"))
	if res.Success || !errors.Is(res.Err, apperr.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %+v", res)
	}
}

func TestCreateInvoice_InvalidInput(t *testing.T) {
	st := memory.New()
	svc := newService(t, st, nil)

	in := order("", "FR", LineInput{ProductTitle: "A", Quantity: 0, UnitPriceHT: d("1")})
	res := svc.CreateInvoice(context.Background(), in)
	if res.Success || !errors.Is(res.Err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %+v", res)
	}
	if !strings.Contains(res.Error, "order ID is required") || !strings.Contains(res.Error, "line 1: quantity must be positive") {
		t.Errorf("error: %q", res.Error)
	}
}

func TestCreateInvoice_Franchise(t *testing.T) {
	st := memory.New()
	svc := newService(t, st, func(s *store.ShopSettings) {
		s.FranchiseEnBase = true
		s.TVAIntracom = ""
		s.DefaultLanguage = "EN"
	})

	res := svc.CreateInvoice(context.Background(), order("1", "DE"))
	if !res.Success {
		t.Fatalf("CreateInvoice: %s", res.Error)
	}
	inv := res.Invoice
	if !inv.FranchiseEnBase || !inv.TotalTVA.IsZero() || !inv.TotalTTC.Equal(inv.TotalHT) {
		t.Errorf("franchise totals: %+v", inv)
	}
	if !strings.HasSuffix(inv.LegalMentions, "VAT not applicable, art. 293 B of the CGI") {
		t.Errorf("legal mentions: %q", inv.LegalMentions)
	}

	// The sale still counts toward the destination threshold.
	row, err := st.GetOssThreshold(context.Background(), "shop", 2025, "DE")
	if err != nil || !row.TotalSalesTTC.Equal(inv.TotalTTC) {
		t.Errorf("threshold not updated: %+v, %v", row, err)
	}
}

func TestCreateInvoice_OSSFlow(t *testing.T) {
	st := memory.New()
	svc := newService(t, st, func(s *store.ShopSettings) { s.OSSEnabled = true })
	ctx := context.Background()

	line := func(ht string) LineInput {
		return LineInput{ProductTitle: "Lamp", Quantity: 1, UnitPriceHT: d(ht)}
	}

	for i, c := range []struct {
		id      string
		ht      string
		wantOSS bool
	}{
		{"1", "7500", false},
		{"2", "1250", false},
		{"3", "100", true},
	} {
		res := svc.CreateInvoice(ctx, order(c.id, "de", line(c.ht)))
		if !res.Success {
			t.Fatalf("sale %d: %s", i+1, res.Error)
		}
		if res.Invoice.OSSApplied != c.wantOSS {
			t.Errorf("sale %d: OSS applied = %v, want %v", i+1, res.Invoice.OSSApplied, c.wantOSS)
		}
		if res.Invoice.CustomerCountry != "DE" {
			t.Errorf("country not normalised: %q", res.Invoice.CustomerCountry)
		}
	}

	sales, err := st.ListOssSales(ctx, "shop", 2025, 1)
	if err != nil {
		t.Fatalf("ListOssSales: %v", err)
	}
	if len(sales) != 1 {
		t.Fatalf("got %d OSS sales, want 1", len(sales))
	}
	sale := sales[0]
	if sale.OrderID != "3" || sale.InvoiceNumber != "FAC-2025-0003" || sale.Month != 2 || sale.Quarter != 1 {
		t.Errorf("sale: %+v", sale)
	}
	if !sale.TaxRate.Equal(d("19")) || !sale.TaxAmount.Equal(d("19")) || !sale.TotalTTC.Equal(d("119")) {
		t.Errorf("sale amounts: %+v", sale)
	}

	inv, _ := svc.Get(ctx, "3")
	if !strings.HasSuffix(inv.LegalMentions, "TVA acquittée dans le cadre du régime de l'OSS (One Stop Shop)") {
		t.Errorf("legal mentions: %q", inv.LegalMentions)
	}
}

// failingSales fails every OSS ledger write inside a transaction.
type failingSales struct{ store.Store }

func (f failingSales) CreateOssSale(context.Context, store.OssSale) (store.OssSale, error) {
	return store.OssSale{}, errors.New("disk full")
}

func (f failingSales) InTx(ctx context.Context, fn func(store.Store) error) error {
	return f.Store.InTx(ctx, func(tx store.Store) error { return fn(failingSales{tx}) })
}

func TestCreateInvoice_NoPartialPersistence(t *testing.T) {
	mem := memory.New()
	ctx := context.Background()
	s := testutil.CompleteSettings("shop", 2025)
	s.OSSEnabled = true
	mem.CreateShopSettings(ctx, s)
	mem.UpsertOssThreshold(ctx, store.ThresholdDelta{
		Shop: "shop", Year: 2025, CountryCode: "IT",
		TotalHT: d("10000"), TotalTTC: d("12200"),
		Threshold: d("10000"), At: issuedAt,
	})

	svc := NewService(failingSales{mem}, nil, nil, nil).WithClock(func() time.Time { return issuedAt })
	res := svc.CreateInvoice(ctx, order("1", "IT"))
	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Error, "disk full") {
		t.Errorf("error: %q", res.Error)
	}

	if _, err := mem.FindInvoiceByOrderID(ctx, "1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("invoice persisted despite failure: %v", err)
	}
	row, _ := mem.GetOssThreshold(ctx, "shop", 2025, "IT")
	if row.OrderCount != 1 || !row.TotalSalesTTC.Equal(d("12200")) {
		t.Errorf("threshold updated despite failure: %+v", row)
	}
}

func TestList(t *testing.T) {
	st := memory.New()
	svc := newService(t, st, nil)
	ctx := context.Background()
	for _, id := range []string{"1", "2", "3"} {
		if res := svc.CreateInvoice(ctx, order(id, "FR")); !res.Success {
			t.Fatal(res.Error)
		}
	}

	page, total, err := svc.List(ctx, "shop", 2, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || len(page) != 1 {
		t.Errorf("got %d of %d", len(page), total)
	}
}

func TestGetAndAttach(t *testing.T) {
	st := memory.New()
	svc := newService(t, st, nil)
	ctx := context.Background()

	if _, err := svc.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	res := svc.CreateInvoice(ctx, order("1", "FR"))
	if err := svc.AttachDocument(ctx, res.Invoice.ID, "invoices/shop/FAC-2025-0001.html", "/files/x"); err != nil {
		t.Fatalf("AttachDocument: %v", err)
	}
	inv, err := svc.Get(ctx, "1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if inv.PDFURL != "/files/x" {
		t.Errorf("url: %q", inv.PDFURL)
	}
}
