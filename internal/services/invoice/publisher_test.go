package invoice

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/factura-eu/api/internal/render"
	"github.com/factura-eu/api/internal/storage"
	"github.com/factura-eu/api/internal/store"
	"github.com/factura-eu/api/internal/store/memory"
)

func TestPublisher_Publish(t *testing.T) {
	st := memory.New()
	svc := newService(t, st, func(s *store.ShopSettings) {
		s.Shop = "shop.myshopify.com"
		s.PDFTheme = "Detail"
	})
	dir := t.TempDir()
	pub := NewPublisher(svc, render.NewRenderer(), storage.NewLocal(dir, "/files"), "https://app.example.com/", nil)
	ctx := context.Background()

	in := order("gid://shopify/Order/9", "FR")
	in.Shop = "shop.myshopify.com"
	res := svc.CreateInvoice(ctx, in)
	if !res.Success {
		t.Fatalf("CreateInvoice: %s", res.Error)
	}

	inv, err := pub.Publish(ctx, *res.Invoice)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	wantKey := "invoices/shop.myshopify.com/FAC-2025-0001.html"
	if inv.PDFPath != wantKey || inv.PDFURL != "/files/"+wantKey {
		t.Errorf("document location: %q %q", inv.PDFPath, inv.PDFURL)
	}

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(wantKey)))
	if err != nil {
		t.Fatalf("document not written: %v", err)
	}
	if !strings.Contains(string(data), "FAC-2025-0001") || !strings.Contains(string(data), "padding:25mm") {
		t.Error("document does not look like the Detail invoice")
	}

	stored, _ := svc.Get(ctx, "gid://shopify/Order/9")
	if stored.PDFPath != wantKey {
		t.Errorf("location not persisted: %q", stored.PDFPath)
	}

	again, err := pub.Publish(ctx, stored)
	if err != nil || again.PDFURL != inv.PDFURL {
		t.Errorf("republishing: %+v, %v", again, err)
	}

	rc, err := pub.Open(ctx, stored)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != string(data) {
		t.Error("Open returned a different document")
	}

	link, err := pub.DownloadURL(ctx, stored, time.Minute)
	if err != nil || link != "/files/"+wantKey {
		t.Errorf("DownloadURL: %q, %v", link, err)
	}
}

func TestPublisher_OpenWithoutDocument(t *testing.T) {
	pub := NewPublisher(nil, render.NewRenderer(), storage.NewLocal(t.TempDir(), "/files"), "", nil)

	if _, err := pub.Open(context.Background(), store.Invoice{}); !errors.Is(err, ErrNoDocument) {
		t.Errorf("expected ErrNoDocument, got %v", err)
	}
	if _, err := pub.Open(context.Background(), store.Invoice{PDFPath: "invoices/x/gone.html"}); !errors.Is(err, ErrNoDocument) {
		t.Errorf("expected ErrNoDocument for a missing file, got %v", err)
	}
	if _, err := pub.DownloadURL(context.Background(), store.Invoice{}, time.Minute); !errors.Is(err, ErrNoDocument) {
		t.Errorf("DownloadURL: expected ErrNoDocument, got %v", err)
	}
}

func TestDocumentPath(t *testing.T) {
	tests := map[string]string{
		"gid://shopify/Order/9": "/api/invoices/9/document",
		"1042":                  "/api/invoices/1042/document",
		"a b":                   "/api/invoices/a%20b/document",
	}
	for in, want := range tests {
		if got := DocumentPath(in); got != want {
			t.Errorf("DocumentPath(%q) = %q, want %q", in, got, want)
		}
	}
}
