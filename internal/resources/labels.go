package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/faysalsarker-dev/piercing-cms/internal/labels"
)

// LabelRequest selects stock items for the tag sheet.
type LabelRequest struct {
	StockIDs []string       `json:"stockIds"`
	Copies   map[string]int `json:"copies,omitempty"`
	Columns  int            `json:"columns,omitempty"`
	Currency string         `json:"currency,omitempty"`
}

// LabelSheet loads the selected stock items and renders their tags.
func (s *Service) LabelSheet(ctx context.Context, catalog Catalog, renderer *labels.Renderer, req LabelRequest) ([]byte, error) {
	if len(req.StockIDs) == 0 {
		return nil, &ValidationError{Fields: map[string]string{"stockIds": "select at least one item"}}
	}
	def, err := catalog.Lookup("stocks")
	if err != nil {
		return nil, err
	}
	items := make([]labels.Item, 0, len(req.StockIDs))
	for _, id := range req.StockIDs {
		raw, err := s.Get(ctx, def, id)
		if err != nil {
			return nil, err
		}
		var st Stock
		if err := json.Unmarshal(raw, &st); err != nil {
			return nil, fmt.Errorf("resources: decode stock %s: %w", id, err)
		}
		items = append(items, labels.Item{
			Name:     st.Name,
			SKU:      st.SKU,
			Category: st.Category,
			Price:    st.Price,
			Copies:   req.Copies[id],
		})
	}
	return renderer.Render(labels.Sheet{Columns: req.Columns, Currency: req.Currency, Items: items})
}
