package resources

import (
	"net/mail"
	"strings"

	"github.com/faysalsarker-dev/piercing-cms/internal/calendar"
	"github.com/faysalsarker-dev/piercing-cms/internal/richtext"
)

// Payload is a typed create/update body validated before it is sent.
type Payload interface {
	Validate(creating bool) error
}

// normalizer is implemented by payloads that rewrite themselves before
// validation, such as sanitising rich text.
type normalizer interface {
	Normalize() error
}

type fieldErrors map[string]string

func (f fieldErrors) require(field, value string) {
	if strings.TrimSpace(value) == "" {
		f[field] = field + " is required"
	}
}

func (f fieldErrors) nonNegative(field string, v float64) {
	if v < 0 {
		f[field] = field + " cannot be negative"
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

// Stock is an inventory item.
type Stock struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	SKU         string  `json:"sku,omitempty"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	Description string  `json:"description,omitempty"`
	Image       string  `json:"image,omitempty"`
}

func (p *Stock) Validate(bool) error {
	f := fieldErrors{}
	f.require("name", p.Name)
	f.require("category", p.Category)
	f.nonNegative("price", p.Price)
	if p.Quantity < 0 {
		f["quantity"] = "quantity cannot be negative"
	}
	return f.err()
}

// LineItem is one product line of a sale or order.
type LineItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name,omitempty"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

func validateItems(f fieldErrors, items []LineItem) float64 {
	if len(items) == 0 {
		f["items"] = "add at least one item"
	}
	total := 0.0
	for _, it := range items {
		if it.ProductID == "" || it.Quantity <= 0 || it.Price < 0 {
			f["items"] = "every item needs a product, a positive quantity and a price"
			break
		}
		total += float64(it.Quantity) * it.Price
	}
	return total
}

// Sale is an in-studio sale.
type Sale struct {
	Items         []LineItem    `json:"items"`
	Total         float64       `json:"total"`
	Customer      string        `json:"customer,omitempty"`
	PaymentMethod string        `json:"paymentMethod"`
	Date          calendar.Date `json:"date"`
}

var paymentMethods = map[string]bool{"cash": true, "card": true, "mobile": true}

func (p *Sale) Validate(bool) error {
	f := fieldErrors{}
	computed := validateItems(f, p.Items)
	if p.Total == 0 {
		p.Total = computed
	}
	f.nonNegative("total", p.Total)
	if !paymentMethods[p.PaymentMethod] {
		f["paymentMethod"] = "payment method must be cash, card or mobile"
	}
	if _, err := calendar.ParseDate(string(p.Date)); err != nil {
		f["date"] = "use yyyy-MM-dd"
	}
	return f.err()
}

// Order is an online shop order. The console updates status and details.
type Order struct {
	CustomerName string     `json:"customerName"`
	Phone        string     `json:"phone"`
	Email        string     `json:"email,omitempty"`
	Address      string     `json:"address"`
	Items        []LineItem `json:"items"`
	Total        float64    `json:"total"`
	Status       string     `json:"status"`
}

var orderStatuses = map[string]bool{"pending": true, "processing": true, "shipped": true, "delivered": true, "cancelled": true}

func (p *Order) Validate(bool) error {
	f := fieldErrors{}
	f.require("customerName", p.CustomerName)
	f.require("phone", p.Phone)
	f.require("address", p.Address)
	if p.Email != "" {
		if _, err := mail.ParseAddress(p.Email); err != nil {
			f["email"] = "invalid email address"
		}
	}
	validateItems(f, p.Items)
	f.nonNegative("total", p.Total)
	if !orderStatuses[p.Status] {
		f["status"] = "unknown order status"
	}
	return f.err()
}

// Category groups stock, gallery and price list entries.
type Category struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (p *Category) Validate(bool) error {
	f := fieldErrors{}
	f.require("name", p.Name)
	return f.err()
}

// User is a console account record kept by the business API.
type User struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

var userRoles = map[string]bool{"admin": true, "staff": true}

func (p *User) Validate(bool) error {
	f := fieldErrors{}
	f.require("name", p.Name)
	if _, err := mail.ParseAddress(p.Email); err != nil {
		f["email"] = "invalid email address"
	}
	if !userRoles[p.Role] {
		f["role"] = "role must be admin or staff"
	}
	return f.err()
}

// Blog is an article with rich-text content.
type Blog struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Excerpt   string   `json:"excerpt,omitempty"`
	Author    string   `json:"author,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Published bool     `json:"published"`
	Image     string   `json:"image,omitempty"`
}

func (p *Blog) Normalize() error {
	clean, err := richtext.Sanitize(p.Content)
	if err != nil {
		return err
	}
	p.Content = clean
	if strings.TrimSpace(p.Excerpt) == "" {
		p.Excerpt = richtext.PlainText(clean, 160)
	}
	return nil
}

func (p *Blog) Validate(bool) error {
	f := fieldErrors{}
	f.require("title", p.Title)
	if strings.TrimSpace(richtext.PlainText(p.Content, 0)) == "" {
		f["content"] = "content is required"
	}
	return f.err()
}

// GalleryItem is a portfolio photo.
type GalleryItem struct {
	Title    string `json:"title"`
	Category string `json:"category,omitempty"`
	Image    string `json:"image,omitempty"`
}

func (p *GalleryItem) Validate(bool) error {
	f := fieldErrors{}
	f.require("title", p.Title)
	return f.err()
}

// PriceListEntry is one line of the public price list.
type PriceListEntry struct {
	Service     string  `json:"service"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
}

func (p *PriceListEntry) Validate(bool) error {
	f := fieldErrors{}
	f.require("service", p.Service)
	f.require("category", p.Category)
	f.nonNegative("price", p.Price)
	return f.err()
}

// FAQ is a question shown on the public site.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Order    int    `json:"order"`
}

func (p *FAQ) Validate(bool) error {
	f := fieldErrors{}
	f.require("question", p.Question)
	f.require("answer", p.Answer)
	return f.err()
}

// OfferBanner is a promotional banner.
type OfferBanner struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Link     string `json:"link,omitempty"`
	Active   bool   `json:"active"`
	Image    string `json:"image,omitempty"`
}

func (p *OfferBanner) Validate(bool) error {
	f := fieldErrors{}
	f.require("title", p.Title)
	if p.Link != "" && !strings.HasPrefix(p.Link, "/") && !strings.HasPrefix(p.Link, "https://") && !strings.HasPrefix(p.Link, "http://") {
		f["link"] = "link must be a site path or an http(s) URL"
	}
	return f.err()
}
