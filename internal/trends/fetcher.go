// Package trends retrieves a fresh ranked list from the catalog.
package trends

import (
	"context"
	"log/slog"

	"opentrends/internal/apperr"
	"opentrends/internal/catalog"
	"opentrends/internal/model"
)

// Fetcher walks catalog pages until Limit items are collected.
type Fetcher struct {
	Catalog  catalog.Catalog
	PageSize int
	Limit    int
}

// Fetch returns up to Limit items in catalog vote order. Growth and velocity
// are derived locally, so every mode requests the same listing.
func (f *Fetcher) Fetch(ctx context.Context, mode model.Mode) ([]model.Item, error) {
	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	limit := f.Limit
	if limit <= 0 {
		limit = pageSize
	}

	var (
		items  []model.Item
		cursor string
		seen   = map[string]struct{}{}
	)
	for len(items) < limit {
		page, err := f.Catalog.Posts(ctx, catalog.Query{
			Count: min(pageSize, limit-len(items)),
			After: cursor,
			Order: catalog.OrderVotes,
		})
		if err != nil {
			if apperr.KindOf(err) == apperr.Unknown {
				err = apperr.New(apperr.UpstreamFetchFailed, "trends.fetch", err)
			}
			return nil, err
		}
		for _, it := range page.Items {
			if _, dup := seen[it.ID]; dup {
				continue
			}
			seen[it.ID] = struct{}{}
			items = append(items, it)
		}
		if !page.PageInfo.HasMore || page.PageInfo.NextCursor == "" || len(page.Items) == 0 {
			break
		}
		cursor = page.PageInfo.NextCursor
	}
	if len(items) > limit {
		items = items[:limit]
	}
	slog.Info("trends: fetched listing", "mode", mode, "items", len(items))
	return items, nil
}
