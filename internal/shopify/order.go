package shopify

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/factura-eu/api/internal/services/invoice"
)

// Order is the subset of a Shopify order needed to issue an invoice.
type Order struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	CreatedAt       time.Time `json:"createdAt"`
	FinancialStatus string    `json:"displayFinancialStatus"`
	Customer        *Customer `json:"customer"`
	ShippingAddress *Address  `json:"shippingAddress"`
	BillingAddress  *Address  `json:"billingAddress"`
	LineItems       LineItems `json:"lineItems"`
	TotalPriceSet   MoneyBag  `json:"totalPriceSet"`
	TotalTaxSet     MoneyBag  `json:"totalTaxSet"`
}

type Customer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type Address struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2"`
	City        string `json:"city"`
	Zip         string `json:"zip"`
	CountryCode string `json:"countryCode"`
	Province    string `json:"province"`
}

type LineItems struct {
	Nodes []LineItem `json:"nodes"`
}

type LineItem struct {
	ID                   string    `json:"id"`
	Title                string    `json:"title"`
	VariantTitle         string    `json:"variantTitle"`
	SKU                  string    `json:"sku"`
	Quantity             int       `json:"quantity"`
	OriginalUnitPriceSet MoneyBag  `json:"originalUnitPriceSet"`
	TaxLines             []TaxLine `json:"taxLines"`
}

// TaxLine rates are fractions: 0.2 means 20 %.
type TaxLine struct {
	Rate  decimal.Decimal `json:"rate"`
	Title string          `json:"title"`
}

type MoneyBag struct {
	ShopMoney Money `json:"shopMoney"`
}

type Money struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
}

var (
	defaultTaxRate = decimal.NewFromInt(20)
	hundred        = decimal.NewFromInt(100)
)

// ToInvoiceInput maps an order to invoice input. The shipping address wins
// over the billing address. Shopify prices include VAT; the HT unit price is
// derived from the rate of the line's first tax line, or 20 % when it has
// none. Only an explicit tax line overrides the regime rate of the line.
func ToInvoiceInput(o Order, shop string) invoice.Input {
	addr := o.ShippingAddress
	if addr == nil {
		addr = o.BillingAddress
	}

	in := invoice.Input{
		Shop:          shop,
		OrderID:       o.ID,
		OrderNumber:   o.Name,
		OrderName:     o.Name,
		PaymentStatus: strings.ToLower(o.FinancialStatus),
	}

	if addr != nil {
		in.CustomerName = joinNonEmpty(" ", addr.FirstName, addr.LastName)
		in.CustomerAddress = joinNonEmpty(", ", addr.Address1, addr.Address2)
		in.CustomerPostalCode = addr.Zip
		in.CustomerCity = addr.City
		in.CustomerCountry = addr.CountryCode
	} else if o.Customer != nil {
		in.CustomerName = joinNonEmpty(" ", o.Customer.FirstName, o.Customer.LastName)
	}
	if in.CustomerName == "" {
		in.CustomerName = "Client"
	}
	if in.CustomerCountry == "" {
		in.CustomerCountry = "FR"
	}
	if o.Customer != nil {
		in.CustomerEmail = o.Customer.Email
	}

	if strings.EqualFold(o.FinancialStatus, "PAID") && !o.CreatedAt.IsZero() {
		paid := o.CreatedAt.UTC()
		in.PaidAt = &paid
	}

	for _, item := range o.LineItems.Nodes {
		rate := defaultTaxRate
		var override *decimal.Decimal
		if len(item.TaxLines) > 0 && !item.TaxLines[0].Rate.IsZero() {
			rate = item.TaxLines[0].Rate.Mul(hundred)
			r := rate
			override = &r
		}

		gross := item.OriginalUnitPriceSet.ShopMoney.Amount
		unitHT := gross.Div(decimal.NewFromInt(1).Add(rate.Div(hundred))).Round(6)

		in.Lines = append(in.Lines, invoice.LineInput{
			SKU:          item.SKU,
			ProductTitle: item.Title,
			VariantTitle: item.VariantTitle,
			Description:  joinNonEmpty(" - ", item.Title, item.VariantTitle),
			Quantity:     item.Quantity,
			UnitPriceHT:  unitHT,
			TaxRate:      override,
		})
	}
	return in
}

func joinNonEmpty(sep string, parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
