// Package catalog fetches ranked product listings from the external catalog.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"opentrends/internal/config"
	"opentrends/internal/model"
)

// OrderVotes asks the catalog for its vote-ranked listing.
const OrderVotes = "VOTES"

// Query is a single page request.
type Query struct {
	Count int
	After string // cursor; empty for the first page
	Order string
}

// PageInfo describes pagination state after a page.
type PageInfo struct {
	HasMore    bool
	NextCursor string
}

// Page is one page of listings in catalog order.
type Page struct {
	Items    []model.Item
	PageInfo PageInfo
}

// Catalog is the listing source used by the trend fetcher.
type Catalog interface {
	Posts(ctx context.Context, q Query) (Page, error)
}

// New selects the implementation named by cfg.Mode.
func New(cfg config.CatalogConfig) (Catalog, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Mode)) {
	case "", "producthunt":
		timeout, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid catalog timeout %q: %w", cfg.Timeout, err)
		}
		return NewProductHunt(ProductHuntConfig{
			Endpoint:       cfg.Endpoint,
			Token:          cfg.Token,
			Timeout:        timeout,
			RequestsPerMin: cfg.RequestsPerMin,
		}), nil
	case "mock":
		return NewMock(nil), nil
	default:
		return nil, fmt.Errorf("unknown catalog mode: %s (use 'producthunt' or 'mock')", cfg.Mode)
	}
}
