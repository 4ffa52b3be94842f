package printing

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	appcurrency "github.com/storefront/backend/internal/application/currency"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

var invoiceTemplate = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Invoice {{.Number}}</title>
<style>
body { font-family: "Helvetica Neue", Arial, sans-serif; font-size: 12px; color: #222; }
h1 { font-size: 22px; margin: 0 0 4px; }
.muted { color: #777; }
.header, .parties { display: flex; justify-content: space-between; margin-bottom: 24px; }
table { width: 100%; border-collapse: collapse; }
th { text-align: left; border-bottom: 2px solid #222; padding: 6px 4px; }
td { border-bottom: 1px solid #ddd; padding: 6px 4px; }
.num { text-align: right; white-space: nowrap; }
.totals td { border: none; }
.grand td { font-weight: bold; font-size: 14px; border-top: 2px solid #222; }
.status { display: inline-block; padding: 2px 8px; border: 1px solid #222; }
</style>
</head>
<body>
<div class="header">
  <div>
    <h1>{{.StoreName}}</h1>
    {{if .StoreAddress}}<div class="muted">{{.StoreAddress}}</div>{{end}}
  </div>
  <div>
    <h1>Invoice</h1>
    <div>{{.Number}}</div>
    <div class="muted">{{.Date}}</div>
    <div class="status">{{.PaymentStatus}}</div>
  </div>
</div>
<div class="parties">
  <div>
    <strong>Ship to</strong><br>
    {{.Address.Name}}<br>
    {{.Address.Line1}}<br>
    {{if .Address.Line2}}{{.Address.Line2}}<br>{{end}}
    {{.Address.City}}{{if .Address.State}}, {{.Address.State}}{{end}} {{.Address.PostalCode}}<br>
    {{.Address.Country}}
  </div>
  <div>
    <strong>Contact</strong><br>
    {{.Email}}<br>
    {{.Address.Phone}}<br>
    <span class="muted">Payment: {{.PaymentMethod}}</span>
  </div>
</div>
<table>
  <thead>
    <tr><th>Item</th><th class="num">Unit price</th><th class="num">Qty</th><th class="num">Amount</th></tr>
  </thead>
  <tbody>
  {{range .Lines}}
    <tr><td>{{.Name}}</td><td class="num">{{.UnitPrice}}</td><td class="num">{{.Quantity}}</td><td class="num">{{.LineTotal}}</td></tr>
  {{end}}
  </tbody>
</table>
<table class="totals">
  <tr><td></td><td class="num">Subtotal</td><td class="num">{{.Subtotal}}</td></tr>
  <tr><td></td><td class="num">Shipping</td><td class="num">{{.Shipping}}</td></tr>
  <tr class="grand"><td></td><td class="num">Total ({{.Currency}})</td><td class="num">{{.Total}}</td></tr>
</table>
{{if .Notes}}<p class="muted">Notes: {{.Notes}}</p>{{end}}
</body>
</html>
`))

const invoiceFooter = `<div style="font-size:8px;width:100%;text-align:center;color:#777;">` +
	`Page <span class="pageNumber"></span> of <span class="totalPages"></span></div>`

// InvoiceConfig contains configuration for InvoiceRenderer
type InvoiceConfig struct {
	StoreName    string
	StoreAddress string
	Locale       string
	Paper        PaperSize
	Logger       *zap.Logger
}

// InvoiceRenderer renders order invoices to PDF
type InvoiceRenderer struct {
	pdf    PDFRenderer
	config InvoiceConfig
	logger *zap.Logger
}

// NewInvoiceRenderer creates an InvoiceRenderer on top of a PDF renderer
func NewInvoiceRenderer(pdf PDFRenderer, cfg InvoiceConfig) *InvoiceRenderer {
	if cfg.StoreName == "" {
		cfg.StoreName = "Storefront"
	}
	if cfg.Locale == "" {
		cfg.Locale = "en-US"
	}
	if cfg.Paper == "" {
		cfg.Paper = PaperA4
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &InvoiceRenderer{pdf: pdf, config: cfg, logger: cfg.Logger}
}

type invoiceLine struct {
	Name      string
	UnitPrice string
	Quantity  int
	LineTotal string
}

type invoiceView struct {
	StoreName     string
	StoreAddress  string
	Number        string
	Date          string
	Email         string
	Address       valueobject.Address
	PaymentMethod string
	PaymentStatus string
	Currency      string
	Lines         []invoiceLine
	Subtotal      string
	Shipping      string
	Total         string
	Notes         string
}

// BuildHTML renders the invoice document for an order
func (r *InvoiceRenderer) BuildHTML(o *order.Order) (string, error) {
	view := invoiceView{
		StoreName:     r.config.StoreName,
		StoreAddress:  r.config.StoreAddress,
		Number:        o.OrderNumber,
		Date:          o.CreatedAt.UTC().Format("January 2, 2006"),
		Email:         o.Email,
		Address:       o.ShippingAddress,
		PaymentMethod: paymentMethodLabel(o.PaymentMethod),
		PaymentStatus: string(o.PaymentStatus),
		Currency:      o.Currency.String(),
		Subtotal:      r.format(o.Subtotal, o.Currency),
		Shipping:      r.format(o.ShippingFee, o.Currency),
		Total:         r.format(o.Total, o.Currency),
		Notes:         o.Notes,
	}
	if o.CreatedAt.IsZero() {
		view.Date = time.Now().UTC().Format("January 2, 2006")
	}
	for _, item := range o.Items {
		view.Lines = append(view.Lines, invoiceLine{
			Name:      item.ProductName,
			UnitPrice: r.format(item.UnitPrice, o.Currency),
			Quantity:  item.Quantity,
			LineTotal: r.format(item.LineTotal, o.Currency),
		})
	}

	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render invoice template: %w", err)
	}
	return buf.String(), nil
}

// RenderInvoice produces the invoice PDF for an order
func (r *InvoiceRenderer) RenderInvoice(ctx context.Context, o *order.Order) ([]byte, error) {
	doc, err := r.BuildHTML(o)
	if err != nil {
		return nil, err
	}

	result, err := r.pdf.Render(ctx, &RenderRequest{
		HTML:       doc,
		Title:      "Invoice " + o.OrderNumber,
		Paper:      r.config.Paper,
		Margins:    DefaultMargins(),
		FooterHTML: invoiceFooter,
	})
	if err != nil {
		r.logger.Error("Failed to render invoice",
			zap.String("order_number", o.OrderNumber),
			zap.Error(err))
		return nil, err
	}
	return result.PDFData, nil
}

func (r *InvoiceRenderer) format(amount decimal.Decimal, c valueobject.Currency) string {
	m, err := valueobject.NewMoney(amount, c)
	if err != nil {
		return amount.StringFixed(c.MinorUnitExponent()) + " " + c.String()
	}
	return appcurrency.Format(m, r.config.Locale)
}

func paymentMethodLabel(m order.PaymentMethod) string {
	if m == order.PaymentMethodCashOnDelivery {
		return "Cash on delivery"
	}
	return "Card"
}
