// Package labels renders printable price tags for stock items.
package labels

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// Item is one tag on the sheet.
type Item struct {
	Name     string
	SKU      string
	Category string
	Price    float64
	Copies   int
}

// Sheet is the printable page.
type Sheet struct {
	Title    string
	Currency string
	Columns  int
	Items    []Item
}

const sheetTemplate = `<!doctype html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title>
<style>
body{font-family:sans-serif;margin:0}
.sheet{display:grid;grid-template-columns:repeat({{.Columns}},1fr);gap:4mm;padding:8mm}
.tag{border:1px dashed #999;padding:3mm;text-align:center;page-break-inside:avoid}
.name{font-weight:bold}.price{font-size:1.4em}.sku{font-family:monospace;font-size:.8em}
</style></head>
<body><div class="sheet">
{{- range .Tags}}
<div class="tag"><div class="name">{{.Name}}</div>{{if .Category}}<div class="cat">{{.Category}}</div>{{end}}<div class="price">{{.Price}}</div>{{if .SKU}}<div class="sku">{{.SKU}}</div>{{end}}</div>
{{- end}}
</div></body></html>
`

// Renderer renders label sheets with strict missing-key semantics.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	t, err := template.New("sheet").Option("missingkey=error").Parse(sheetTemplate)
	if err != nil {
		return nil, fmt.Errorf("labels: parse: %w", err)
	}
	return &Renderer{tmpl: t}, nil
}

type tag struct {
	Name     string
	Category string
	Price    string
	SKU      string
}

// Render expands copies and writes the sheet HTML.
func (r *Renderer) Render(sheet Sheet) ([]byte, error) {
	if len(sheet.Items) == 0 {
		return nil, fmt.Errorf("labels: no items selected")
	}
	if sheet.Columns <= 0 {
		sheet.Columns = 3
	}
	if sheet.Title == "" {
		sheet.Title = "Price tags"
	}
	var tags []tag
	for _, it := range sheet.Items {
		if strings.TrimSpace(it.Name) == "" {
			return nil, fmt.Errorf("labels: item without name")
		}
		copies := it.Copies
		if copies <= 0 {
			copies = 1
		}
		for i := 0; i < copies; i++ {
			tags = append(tags, tag{
				Name:     it.Name,
				Category: it.Category,
				Price:    formatPrice(sheet.Currency, it.Price),
				SKU:      it.SKU,
			})
		}
	}
	data := map[string]any{
		"Title":   sheet.Title,
		"Columns": sheet.Columns,
		"Tags":    tags,
	}
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("labels: execute: %w", err)
	}
	return buf.Bytes(), nil
}

func formatPrice(currency string, price float64) string {
	if currency == "" {
		currency = "$"
	}
	return fmt.Sprintf("%s%.2f", currency, price)
}
