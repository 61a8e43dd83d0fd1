// Package render turns an issued invoice into a self-contained HTML document.
package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/skip2/go-qrcode"

	"github.com/factura-eu/api/internal/store"
)

// ContentType and Ext describe the rendered artifact.
const (
	ContentType = "text/html; charset=utf-8"
	Ext         = "html"
)

// Options controls one rendering.
type Options struct {
	Theme    Theme
	Language string // "FR" or anything else for English
	// LinkURL, when set, is encoded in the QR code with the invoice number
	// and amount so the document can be checked against the original.
	LinkURL string
}

// Renderer renders invoices.
type Renderer struct {
	now func() time.Time
}

// NewRenderer creates a Renderer.
func NewRenderer() *Renderer {
	return &Renderer{now: time.Now}
}

// WithClock overrides the generation date printed in the footer.
func (r *Renderer) WithClock(now func() time.Time) *Renderer {
	r.now = now
	return r
}

// Render returns the HTML document of inv.
func (r *Renderer) Render(ctx context.Context, inv store.Invoice, opts Options) ([]byte, error) {
	qr, err := qrDataURI(qrPayload(inv, opts.LinkURL))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	c := Invoice(inv, opts, qr, r.now())
	if err := c.Render(ctx, &buf); err != nil {
		return nil, fmt.Errorf("rendering invoice %s: %w", inv.InvoiceNumber, err)
	}
	return buf.Bytes(), nil
}

func qrPayload(inv store.Invoice, link string) string {
	parts := []string{inv.InvoiceNumber, inv.IssuedAt.Format("2006-01-02"), inv.TotalTTC.StringFixed(2) + " EUR"}
	if link != "" {
		parts = append(parts, link)
	}
	return strings.Join(parts, "|")
}

func qrDataURI(content string) (templ.SafeURL, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, 128)
	if err != nil {
		return "", fmt.Errorf("generating QR code: %w", err)
	}
	return templ.SafeURL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)), nil
}

// htmlWriter writes escaped text and raw markup, keeping the first error.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(format string, args ...any) {
	if h.err != nil {
		return
	}
	_, h.err = fmt.Fprintf(h.w, format, args...)
}

func (h *htmlWriter) text(s string) {
	h.raw("%s", templ.EscapeString(s))
}

// element writes <tag class="class">text</tag>; class may be empty.
func (h *htmlWriter) element(tag, class, text string) {
	if class != "" {
		h.raw(`<%s class="%s">`, tag, class)
	} else {
		h.raw("<%s>", tag)
	}
	h.text(text)
	h.raw("</%s>", tag)
}

// line writes a <div> when text is not empty.
func (h *htmlWriter) line(label, text string) {
	if text == "" {
		return
	}
	if label != "" {
		text = label + " : " + text
	}
	h.element("div", "", text)
}

// Invoice is the invoice document component.
func Invoice(inv store.Invoice, opts Options, qr templ.SafeURL, generatedAt time.Time) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		l := labelsFor(opts.Language)
		s := opts.Theme.styles()
		h := &htmlWriter{w: w}

		h.raw(`<!DOCTYPE html><html lang="%s"><head><meta charset="UTF-8">`, l.Lang)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1.0"><title>`)
		h.text(l.Title + " " + inv.InvoiceNumber)
		h.raw(`</title><style>%s</style></head><body><div class="invoice-container">`, stylesheet(s))

		h.raw(`<div class="header"><div class="header-left">`)
		h.element("h1", "", l.Title)
		h.element("div", "invoice-number", inv.InvoiceNumber)
		if inv.OrderName != "" {
			h.element("div", "order", l.Order+" "+inv.OrderName)
		}
		h.raw(`</div><div class="header-right"><strong>`)
		h.text(l.IssuedOn)
		h.raw(`</strong><br>`)
		h.text(l.date(inv.IssuedAt))
		h.raw(`<br><img class="qr" alt="QR" src="%s">`, qr)
		h.raw(`</div></div>`)

		h.raw(`<div class="parties"><div class="party">`)
		h.element("h2", "", l.Seller)
		h.raw(`<div class="party-content">`)
		h.element("strong", "", inv.SellerName)
		h.line("", inv.SellerAddress)
		h.line("", inv.SellerLegalForm)
		h.line(l.ShareCapital, inv.SellerCapital)
		h.line("SIREN", inv.SellerSiren)
		h.line("SIRET", inv.SellerSiret)
		h.line("", inv.SellerRCS)
		h.line(l.VATNumber, inv.SellerTVAIntracom)
		h.raw(`</div></div><div class="party">`)
		h.element("h2", "", l.Customer)
		h.raw(`<div class="party-content">`)
		h.element("strong", "", inv.CustomerName)
		h.line("", inv.CustomerAddress)
		if inv.CustomerPostalCode != "" && inv.CustomerCity != "" {
			h.line("", inv.CustomerPostalCode+" "+inv.CustomerCity)
		}
		h.line("", inv.CustomerCountry)
		h.raw(`</div></div></div>`)

		if inv.OSSApplied {
			h.element("div", "oss-badge", l.OSSBadge)
		}
		if inv.FranchiseEnBase {
			h.element("div", "franchise-badge", l.FranchiseBadge)
		}

		h.raw(`<table class="invoice-table"><thead><tr>`)
		h.element("th", "", l.Reference)
		h.element("th", "", l.Designation)
		for _, col := range []string{l.Qty, l.UnitPriceHT, l.TotalHT, l.VAT, l.TotalTTC} {
			h.element("th", "number", col)
		}
		h.raw(`</tr></thead><tbody>`)
		for _, line := range inv.Lines {
			sku := line.SKU
			if sku == "" {
				sku = "-"
			}
			h.raw("<tr>")
			h.element("td", "", sku)
			h.element("td", "", designation(line))
			h.element("td", "number", fmt.Sprint(line.Quantity))
			h.element("td", "number", l.money(line.UnitPriceHT))
			h.element("td", "number", l.money(line.TotalHT))
			h.element("td", "number", l.percent(line.TaxRate))
			h.element("td", "number", l.money(line.TotalTTC))
			h.raw("</tr>")
		}
		h.raw(`</tbody></table>`)

		h.raw(`<div class="totals"><table><tr>`)
		h.element("td", "", l.TotalHT)
		h.element("td", "", l.money(inv.TotalHT))
		h.raw(`</tr><tr>`)
		h.element("td", "", l.TotalVAT)
		h.element("td", "", l.money(inv.TotalTVA))
		h.raw(`</tr><tr class="total-row">`)
		h.element("td", "", l.TotalTTC)
		h.element("td", "", l.money(inv.TotalTTC))
		h.raw(`</tr></table></div><div class="clear"></div>`)

		h.raw(`<div class="legal-mentions">`)
		h.element("h3", "", l.LegalHeading)
		if inv.LegalMentions == "" {
			h.element("p", "", l.NoMentions)
		}
		for _, p := range strings.Split(inv.LegalMentions, "\n\n") {
			if p != "" {
				h.element("p", "", p)
			}
		}
		if inv.PaymentTerms != "" {
			h.raw(`<p><strong>`)
			h.text(l.PaymentTerms + " :")
			h.raw(`</strong> `)
			h.text(inv.PaymentTerms)
			h.raw(`</p>`)
		}
		h.raw(`</div>`)

		h.element("div", "footer", inv.SellerName+" - "+l.GeneratedOn+" "+l.date(generatedAt))
		h.raw(`</div></body></html>`)
		return h.err
	})
}

func designation(line store.InvoiceLine) string {
	d := line.ProductTitle
	if line.VariantTitle != "" {
		d += " - " + line.VariantTitle
	}
	if line.Description != "" && line.Description != d {
		d += " (" + line.Description + ")"
	}
	return d
}

func stylesheet(s styles) string {
	return fmt.Sprintf(`*{margin:0;padding:0;box-sizing:border-box}
body{font-family:Arial,Helvetica,sans-serif;font-size:%[1]s;line-height:1.6;color:#333;padding:%[8]s}
.invoice-container{max-width:800px;margin:0 auto;background:white}
.header{display:flex;justify-content:space-between;align-items:flex-start;margin-bottom:40px;padding-bottom:20px;border-bottom:3px solid #2c3e50}
.header-left h1{font-size:%[3]s;color:#2c3e50;margin-bottom:5px}
.header-left .invoice-number{font-size:%[4]s;color:#3498db;font-weight:bold}
.header-right{text-align:right;font-size:%[2]s}
.qr{width:96px;height:96px;margin-top:8px}
.parties{display:flex;justify-content:space-between;margin-bottom:40px}
.party{width:48%%}
.party h2{font-size:%[4]s;color:#2c3e50;margin-bottom:10px;padding-bottom:5px;border-bottom:2px solid #ecf0f1}
.party-content{font-size:%[2]s;line-height:1.8}
.party-content strong{display:block;margin-top:8px;color:#2c3e50}
.invoice-table{width:100%%;border-collapse:collapse;margin-bottom:30px;font-size:%[5]s}
.invoice-table thead{background-color:#2c3e50;color:white}
.invoice-table th{padding:%[6]s;text-align:left;font-weight:bold}
.invoice-table th.number,.invoice-table td.number{text-align:right}
.invoice-table td{padding:%[6]s;border-bottom:1px solid #ecf0f1}
.totals{float:right;width:300px;margin-bottom:30px}
.totals table{width:100%%;font-size:%[2]s}
.totals td{padding:8px;border-bottom:1px solid #ecf0f1}
.totals td:last-child{text-align:right}
.totals .total-row{font-weight:bold;font-size:%[1]s;background-color:#2c3e50;color:white}
.clear{clear:both}
.legal-mentions{margin-top:40px;padding:20px;background-color:#f8f9fa;border-left:4px solid #3498db;font-size:%[7]s;line-height:1.8}
.legal-mentions h3{font-size:%[2]s;color:#2c3e50;margin-bottom:10px}
.legal-mentions p{margin-bottom:10px}
.footer{margin-top:40px;padding-top:20px;border-top:2px solid #ecf0f1;text-align:center;font-size:%[7]s;color:#7f8c8d}
.oss-badge,.franchise-badge{display:inline-block;color:white;padding:5px 15px;border-radius:20px;font-size:%[7]s;margin:10px 0}
.oss-badge{background-color:#3498db}
.franchise-badge{background-color:#e67e22}
@media print{body{padding:0}}`,
		s.FontSize, s.SmallFontSize, s.H1Size, s.H2Size, s.TableFontSize, s.TablePadding, s.LegalFontSize, s.Padding)
}
