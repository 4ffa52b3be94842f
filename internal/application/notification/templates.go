package notification

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

// emailView is the data every template renders from
type emailView struct {
	StoreName      string
	SupportURL     string
	LookupURL      string
	OrderNumber    string
	CustomerName   string
	Items          []emailItem
	Subtotal       string
	Shipping       string
	Total          string
	PaymentMethod  string
	TrackingNumber string
	Address        []string
}

type emailItem struct {
	Name      string
	Quantity  int
	UnitPrice string
	LineTotal string
}

const layoutHTML = `{{define "layout"}}<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"></head>
<body style="margin:0;padding:0;background-color:#f6f4f0;font-family:Georgia,'Times New Roman',serif;color:#2b2b2b;">
  <table width="100%" cellpadding="0" cellspacing="0" style="padding:32px 0;">
    <tr><td align="center">
      <table width="520" cellpadding="0" cellspacing="0" style="background-color:#ffffff;padding:36px;">
        <tr><td>
          <h1 style="font-size:22px;margin:0 0 24px 0;letter-spacing:1px;">{{.StoreName}}</h1>
          {{template "body" .}}
          <p style="font-size:13px;color:#7a7a7a;margin:32px 0 0 0;">
            Order {{.OrderNumber}}{{if .LookupURL}} &middot; <a href="{{.LookupURL}}" style="color:#7a7a7a;">view status</a>{{end}}
            {{if .SupportURL}}<br>Questions? <a href="{{.SupportURL}}" style="color:#7a7a7a;">Contact us</a>{{end}}
          </p>
        </td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>{{end}}`

const confirmationHTML = `{{define "body"}}
<p style="font-size:15px;line-height:1.6;">Thank you{{if .CustomerName}}, {{.CustomerName}}{{end}}. We have received your order <strong>{{.OrderNumber}}</strong>.</p>
<table width="100%" cellpadding="6" cellspacing="0" style="font-size:14px;border-top:1px solid #e5e1da;margin:16px 0;">
  {{range .Items}}<tr><td>{{.Name}} &times; {{.Quantity}}</td><td align="right">{{.LineTotal}}</td></tr>
  {{end}}<tr><td style="border-top:1px solid #e5e1da;">Subtotal</td><td align="right" style="border-top:1px solid #e5e1da;">{{.Subtotal}}</td></tr>
  <tr><td>Shipping</td><td align="right">{{.Shipping}}</td></tr>
  <tr><td><strong>Total</strong></td><td align="right"><strong>{{.Total}}</strong></td></tr>
</table>
<p style="font-size:14px;line-height:1.6;">Payment: {{.PaymentMethod}}</p>
<p style="font-size:14px;line-height:1.6;">Shipping to:<br>{{range .Address}}{{.}}<br>{{end}}</p>
{{end}}`

const shippedHTML = `{{define "body"}}
<p style="font-size:15px;line-height:1.6;">Good news{{if .CustomerName}}, {{.CustomerName}}{{end}}: order <strong>{{.OrderNumber}}</strong> is on its way.</p>
{{if .TrackingNumber}}<p style="font-size:15px;line-height:1.6;">Tracking number: <strong>{{.TrackingNumber}}</strong></p>{{end}}
<p style="font-size:14px;line-height:1.6;">Shipping to:<br>{{range .Address}}{{.}}<br>{{end}}</p>
{{end}}`

const confirmationText = `Thank you{{if .CustomerName}}, {{.CustomerName}}{{end}}. We have received your order {{.OrderNumber}}.

{{range .Items}}{{.Name}} x {{.Quantity}} @ {{.UnitPrice}}  {{.LineTotal}}
{{end}}
Subtotal: {{.Subtotal}}
Shipping: {{.Shipping}}
Total:    {{.Total}}

Payment: {{.PaymentMethod}}
{{if .LookupURL}}
Order status: {{.LookupURL}}
{{end}}`

const shippedText = `Order {{.OrderNumber}} is on its way.
{{if .TrackingNumber}}
Tracking number: {{.TrackingNumber}}
{{end}}{{if .LookupURL}}
Order status: {{.LookupURL}}
{{end}}`

type emailTemplate struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

func mustTemplate(name, body, text string) emailTemplate {
	html := htmltemplate.Must(htmltemplate.New(name).Parse(layoutHTML))
	htmltemplate.Must(html.Parse(body))
	return emailTemplate{
		html: html,
		text: texttemplate.Must(texttemplate.New(name).Parse(text)),
	}
}

var (
	confirmationTemplate = mustTemplate("confirmation", confirmationHTML, confirmationText)
	shippedTemplate      = mustTemplate("shipped", shippedHTML, shippedText)
)

func (t emailTemplate) render(view emailView) (string, string, error) {
	var html, text bytes.Buffer
	if err := t.html.ExecuteTemplate(&html, "layout", view); err != nil {
		return "", "", fmt.Errorf("render html: %w", err)
	}
	if err := t.text.Execute(&text, view); err != nil {
		return "", "", fmt.Errorf("render text: %w", err)
	}
	return html.String(), text.String(), nil
}
