package catalog

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"opentrends/internal/model"
)

var mockTopics = []string{"Artificial Intelligence", "Productivity", "Developer Tools", "SaaS", "Marketing", "Fintech"}

// Mock returns synthetic listings whose vote counts grow with the clock, so
// successive snapshots produce non-trivial deltas without network access.
type Mock struct {
	now   func() time.Time
	Total int
}

// NewMock creates a mock catalog. A nil clock uses time.Now.
func NewMock(now func() time.Time) *Mock {
	if now == nil {
		now = time.Now
	}
	return &Mock{now: now, Total: 60}
}

func (m *Mock) Posts(ctx context.Context, q Query) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	count := q.Count
	if count <= 0 {
		count = 20
	}
	start := 0
	if q.After != "" {
		n, err := strconv.Atoi(q.After)
		if err != nil {
			return Page{}, fmt.Errorf("mock catalog: bad cursor %q", q.After)
		}
		start = n
	}
	end := min(start+count, m.Total)
	hours := float64(m.now().Unix()) / 3600

	page := Page{}
	for i := start; i < end; i++ {
		// items further down the list grow faster
		votes := 1000 - i*15 + int(hours*float64(i%7))%500
		page.Items = append(page.Items, model.Item{
			ID:          fmt.Sprintf("mock-%03d", i),
			Name:        fmt.Sprintf("Mock Product %d", i),
			Tagline:     "Simulated listing for offline runs",
			Description: fmt.Sprintf("Synthetic catalog entry #%d generated by the mock catalog.", i),
			URL:         fmt.Sprintf("https://example.com/products/mock-%03d", i),
			VotesCount:  max(votes, 0),
			Website:     "https://example.com",
			Topics:      []string{mockTopics[i%len(mockTopics)], mockTopics[(i+1)%len(mockTopics)]},
		})
	}
	page.PageInfo.HasMore = end < m.Total
	if page.PageInfo.HasMore {
		page.PageInfo.NextCursor = strconv.Itoa(end)
	}
	return page, nil
}
