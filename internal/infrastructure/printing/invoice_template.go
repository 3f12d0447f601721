package printing

// invoiceTemplate is the A4 invoice layout. Styles are inline so the
// document renders without any network access.
const invoiceTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Invoice {{.Number}}</title>
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; color: #111827; line-height: 1.6; padding: 40px; }
.header { display: flex; justify-content: space-between; margin-bottom: 40px; padding-bottom: 20px; border-bottom: 3px solid #2563eb; }
.logo { font-size: 28px; font-weight: bold; color: #2563eb; }
.invoice-details { text-align: right; }
.invoice-number { font-size: 20px; font-weight: bold; }
.parties { display: flex; justify-content: space-between; margin-bottom: 40px; }
.section { margin-bottom: 30px; }
.section-title { font-size: 14px; font-weight: 600; color: #6b7280; text-transform: uppercase; margin-bottom: 8px; letter-spacing: 0.5px; }
.party-name { font-weight: 600; font-size: 16px; }
.party-info { font-size: 15px; }
.spaced { margin-top: 4px; }
table { width: 100%; border-collapse: collapse; margin: 30px 0; }
th { background-color: #f3f4f6; padding: 12px; text-align: left; font-weight: 600; font-size: 14px; color: #374151; border-bottom: 2px solid #d1d5db; }
td { padding: 12px; border-bottom: 1px solid #e5e7eb; }
th:nth-child(2), td:nth-child(2) { text-align: center; }
th:nth-child(3), td:nth-child(3), th:nth-child(4), td:nth-child(4) { text-align: right; }
td.amount { font-weight: 600; }
.summary { display: flex; justify-content: space-between; margin-top: 30px; }
.bank { flex: 1; max-width: 50%; }
.bank-details { font-size: 13px; line-height: 1.8; color: #374151; white-space: pre-line; }
.totals { display: flex; justify-content: flex-end; margin-left: auto; }
.totals-table { width: 300px; }
.totals-row { display: flex; justify-content: space-between; padding: 8px 0; font-size: 15px; }
.totals-row.subtotal { color: #6b7280; }
.totals-row.total { border-top: 2px solid #d1d5db; padding-top: 12px; margin-top: 8px; font-size: 18px; font-weight: bold; }
.footer { position: fixed; bottom: 0; left: 0; right: 0; padding: 20px 40px; border-top: 1px solid #e5e7eb; text-align: center; color: #6b7280; font-size: 13px; background-color: white; white-space: pre-line; }
.status-badge { display: inline-block; padding: 4px 12px; border-radius: 12px; font-size: 12px; font-weight: 600; margin-top: 8px; }
.status-draft { background-color: #f3f4f6; color: #374151; }
.status-sent { background-color: #dbeafe; color: #1e40af; }
.status-paid { background-color: #d1fae5; color: #065f46; }
</style>
</head>
<body>
<div class="header">
  <div><div class="logo">Invoice</div></div>
  <div class="invoice-details">
    <div class="invoice-number">Invoice {{.Number}}</div>
    {{- if .Status}}
    <div class="status-badge status-{{.Status}}">{{statusLabel .Status}}</div>
    {{- end}}
  </div>
</div>

<div class="parties">
  <div class="section">
    <div class="section-title">Bill To</div>
    <div class="party-info">
      <div class="party-name">{{.Client.Name}}</div>
      {{- with .Client.Email}}
      <div>{{.}}</div>
      {{- end}}
      {{- with .Client.Phone}}
      <div>{{.}}</div>
      {{- end}}
      {{- with .Client.Address}}
      <div class="spaced">{{multiline .}}</div>
      {{- end}}
      {{- with .Client.TaxID}}
      <div class="spaced">Tax ID: {{.}}</div>
      {{- end}}
    </div>
  </div>

  <div class="section">
    <div class="section-title">From</div>
    <div class="party-info">
      {{- with .Issuer.Name}}
      <div class="party-name">{{.}}</div>
      {{- end}}
      {{- with .Issuer.Email}}
      <div>{{.}}</div>
      {{- end}}
      {{- with .Issuer.Phone}}
      <div>{{.}}</div>
      {{- end}}
      {{- with .Issuer.Address}}
      <div class="spaced">{{multiline .}}</div>
      {{- end}}
    </div>
  </div>

  <div class="section" style="text-align: right;">
    <div class="section-title">Invoice Date</div>
    <div>{{.IssueDate}}</div>
    <div class="section-title" style="margin-top: 16px;">Due Date</div>
    <div>{{.DueDate}}</div>
  </div>
</div>

<table>
  <thead>
    <tr>
      <th>Description</th>
      <th>{{.QuantityLabel}}</th>
      <th>{{.UnitPriceLabel}}</th>
      <th>Amount</th>
    </tr>
  </thead>
  <tbody>
    {{- range .Lines}}
    <tr>
      <td>{{.Description}}</td>
      <td>{{.Quantity}}</td>
      <td>{{.UnitPrice}}</td>
      <td class="amount">{{.Amount}}</td>
    </tr>
    {{- end}}
  </tbody>
</table>

<div class="summary">
  {{- with .Issuer.BankDetails}}
  <div class="bank">
    <div class="section-title">Bank Details</div>
    <div class="bank-details">{{.}}</div>
  </div>
  {{- end}}
  <div class="totals">
    <div class="totals-table">
      <div class="totals-row subtotal"><span>Subtotal:</span><span>{{.Subtotal}}</span></div>
      <div class="totals-row subtotal"><span>Tax:</span><span>{{.Tax}}</span></div>
      <div class="totals-row total"><span>Total:</span><span>{{.Total}}</span></div>
    </div>
  </div>
</div>

<div class="footer">
  {{- with .Issuer.FooterNote}}
  <p>{{.}}</p>
  {{- end}}
</div>
</body>
</html>
`
