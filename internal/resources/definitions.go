// Package resources serves the list/get/create/update/delete pages for the
// studio's business entities.
package resources

import (
	"errors"
	"sort"
	"strings"
)

// Definition describes one business entity.
type Definition struct {
	// Name is the console route segment and cache entity.
	Name string
	// Path is the business API collection path.
	Path string
	// ListKey is the envelope field some list responses use.
	ListKey string
	// ImageField names the file part; empty for JSON-only entities.
	ImageField string
	// ImageRequired rejects a create without a file.
	ImageRequired bool
	// AdminOnly restricts the page to the admin role.
	AdminOnly bool
	New       func() Payload
}

// Multipart reports whether saves may carry a file.
func (d Definition) Multipart() bool { return d.ImageField != "" }

var ErrUnknownEntity = errors.New("resources: unknown entity")

// Catalog indexes definitions by name.
type Catalog map[string]Definition

// DefaultCatalog is the studio's entity set.
func DefaultCatalog() Catalog {
	defs := []Definition{
		{Name: "stocks", Path: "/stocks", ListKey: "stocks", ImageField: "image", New: func() Payload { return &Stock{} }},
		{Name: "sales", Path: "/sales", ListKey: "sales", New: func() Payload { return &Sale{} }},
		{Name: "orders", Path: "/orders", ListKey: "orders", New: func() Payload { return &Order{} }},
		{Name: "categories", Path: "/categories", ListKey: "categories", New: func() Payload { return &Category{} }},
		{Name: "users", Path: "/users", ListKey: "users", AdminOnly: true, New: func() Payload { return &User{} }},
		{Name: "blogs", Path: "/blogs", ListKey: "blogs", ImageField: "image", New: func() Payload { return &Blog{} }},
		{Name: "gallery", Path: "/gallery", ListKey: "gallery", ImageField: "image", ImageRequired: true, New: func() Payload { return &GalleryItem{} }},
		{Name: "price-lists", Path: "/price-lists", ListKey: "priceLists", New: func() Payload { return &PriceListEntry{} }},
		{Name: "faqs", Path: "/faqs", ListKey: "faqs", New: func() Payload { return &FAQ{} }},
		{Name: "banners", Path: "/banners", ListKey: "banners", ImageField: "image", New: func() Payload { return &OfferBanner{} }},
	}
	c := make(Catalog, len(defs))
	for _, d := range defs {
		c[d.Name] = d
	}
	return c
}

// Lookup finds a definition by route name.
func (c Catalog) Lookup(name string) (Definition, error) {
	d, ok := c[strings.ToLower(name)]
	if !ok {
		return Definition{}, ErrUnknownEntity
	}
	return d, nil
}

// Names lists entities in a stable order.
func (c Catalog) Names() []string {
	out := make([]string, 0, len(c))
	for name := range c {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ValidationError carries per-field messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "resources: invalid payload: " + strings.Join(parts, "; ")
}
