package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// ListParams are the filters every list page passes through to the API.
type ListParams struct {
	Page     int
	Limit    int
	Search   string
	Status   string
	Category string
	Sort     string
	From     string
	To       string
	// Extra carries entity-specific filters verbatim.
	Extra url.Values
}

// Values encodes the non-empty parameters.
func (p ListParams) Values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("search", p.Search)
	set("status", p.Status)
	set("category", p.Category)
	set("sort", p.Sort)
	set("from", p.From)
	set("to", p.To)
	for k, vals := range p.Extra {
		for _, val := range vals {
			v.Add(k, val)
		}
	}
	return v
}

// ParseListParams reads list filters from an inbound query string.
func ParseListParams(q url.Values) ListParams {
	p := ListParams{
		Search:   q.Get("search"),
		Status:   q.Get("status"),
		Category: q.Get("category"),
		Sort:     q.Get("sort"),
		From:     q.Get("from"),
		To:       q.Get("to"),
	}
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		p.Limit = n
	}
	return p
}

// Page is a normalised list response.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

var (
	itemKeys  = []string{"items", "data", "results", "docs"}
	totalKeys = []string{"total", "totalItems", "totalCount", "count"}
	metaKeys  = []string{"pagination", "meta"}
)

// DecodePage accepts a bare array or an envelope whose field names vary per
// entity. entityKey (for example "stocks") is tried before the generic keys.
func DecodePage[T any](raw []byte, entityKey string) (Page[T], error) {
	var page Page[T]
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		page.Items = []T{}
		return page, nil
	}
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &page.Items); err != nil {
			return page, fmt.Errorf("decode list: %w", err)
		}
		page.Total = len(page.Items)
		return page, nil
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return page, fmt.Errorf("decode envelope: %w", err)
	}

	keys := itemKeys
	if entityKey != "" {
		keys = append([]string{entityKey}, itemKeys...)
	}
	found := false
	for _, k := range keys {
		v, ok := env[k]
		if !ok {
			continue
		}
		v = bytes.TrimSpace(v)
		if len(v) > 0 && v[0] == '{' {
			// nested envelope, e.g. {"data": {"items": [...], "total": 3}}
			inner, err := DecodePage[T](v, entityKey)
			if err != nil {
				return page, err
			}
			page = inner
			found = true
			break
		}
		if err := json.Unmarshal(v, &page.Items); err != nil {
			return page, fmt.Errorf("decode %s: %w", k, err)
		}
		found = true
		break
	}
	if !found || page.Items == nil {
		page.Items = []T{}
	}

	readInts(env, &page)
	for _, mk := range metaKeys {
		if v, ok := env[mk]; ok {
			var meta map[string]json.RawMessage
			if json.Unmarshal(v, &meta) == nil {
				readInts(meta, &page)
			}
		}
	}
	if page.Total == 0 {
		page.Total = len(page.Items)
	}
	return page, nil
}

func readInts[T any](m map[string]json.RawMessage, page *Page[T]) {
	for _, k := range totalKeys {
		if n, ok := intField(m, k); ok {
			page.Total = n
			break
		}
	}
	if n, ok := intField(m, "page"); ok {
		page.Page = n
	}
	if n, ok := intField(m, "limit"); ok {
		page.Limit = n
	}
}

func intField(m map[string]json.RawMessage, key string) (int, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err != nil {
		return 0, false
	}
	i, err := n.Int64()
	if err != nil {
		return 0, false
	}
	return int(i), true
}

// List fetches path with params and decodes the response as a Page.
func List[T any](ctx context.Context, c *Client, path, entityKey string, params ListParams) (Page[T], error) {
	var raw json.RawMessage
	if err := c.Get(ctx, path, params.Values(), &raw); err != nil {
		return Page[T]{}, err
	}
	return DecodePage[T](raw, entityKey)
}
