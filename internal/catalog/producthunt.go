package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"opentrends/internal/apperr"
	"opentrends/internal/model"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

const (
	DefaultEndpoint = "https://api.producthunt.com/v2/api/graphql"
	tokenHint       = "Set catalog.token or PRODUCT_HUNT_DEVELOPER_TOKEN. Create a developer token at https://www.producthunt.com/v2/oauth/applications"
)

const postsQuery = `query GetPosts($first: Int!, $after: String, $order: PostsOrder) {
  posts(first: $first, after: $after, order: $order) {
    edges {
      node {
        id
        name
        tagline
        description
        url
        votesCount
        thumbnail { url }
        website
        topics(first: 3) { edges { node { name } } }
      }
      cursor
    }
    pageInfo { hasNextPage endCursor }
  }
}`

// ProductHuntConfig configures the Product Hunt GraphQL client.
type ProductHuntConfig struct {
	Endpoint       string
	Token          string
	Timeout        time.Duration
	RequestsPerMin int
}

// ProductHunt is a minimal Product Hunt API v2 client.
// Docs: https://api.producthunt.com/v2/docs
type ProductHunt struct {
	endpoint string
	token    string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewProductHunt creates a client. An empty token is accepted here and
// reported as ConfigurationMissing on the first request.
func NewProductHunt(cfg ProductHuntConfig) *ProductHunt {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	perMin := cfg.RequestsPerMin
	if perMin <= 0 {
		perMin = 60
	}
	return &ProductHunt{
		endpoint: endpoint,
		token:    strings.TrimSpace(cfg.Token),
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), 1),
	}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type phPostNode struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Tagline     string `json:"tagline"`
	Description string `json:"description"`
	URL         string `json:"url"`
	VotesCount  int    `json:"votesCount"`
	Thumbnail   *struct {
		URL string `json:"url"`
	} `json:"thumbnail"`
	Website string `json:"website"`
	Topics  struct {
		Edges []struct {
			Node struct {
				Name string `json:"name"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"topics"`
}

type phResponse struct {
	Data struct {
		Posts struct {
			Edges []struct {
				Node   phPostNode `json:"node"`
				Cursor string     `json:"cursor"`
			} `json:"edges"`
			PageInfo struct {
				HasNextPage bool   `json:"hasNextPage"`
				EndCursor   string `json:"endCursor"`
			} `json:"pageInfo"`
		} `json:"posts"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Posts fetches one page of posts.
func (c *ProductHunt) Posts(ctx context.Context, q Query) (Page, error) {
	const op = "catalog.posts"
	if c.token == "" {
		return Page{}, apperr.Newf(apperr.ConfigurationMissing, op, "product hunt developer token not configured").WithHint(tokenHint)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return Page{}, apperr.New(apperr.UpstreamFetchFailed, op, err)
	}

	count := q.Count
	if count <= 0 {
		count = 20
	}
	order := q.Order
	if order == "" {
		order = OrderVotes
	}
	vars := map[string]any{"first": count, "order": order}
	if q.After != "" {
		vars["after"] = q.After
	}
	body, err := json.Marshal(graphQLRequest{Query: postsQuery, Variables: vars})
	if err != nil {
		return Page{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Page{}, apperr.New(apperr.UpstreamFetchFailed, op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Page{}, apperr.New(apperr.UpstreamFetchFailed, op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Page{}, apperr.Newf(apperr.UpstreamFetchFailed, op, "status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out phResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Page{}, apperr.New(apperr.UpstreamFetchFailed, op, fmt.Errorf("decode response: %w", err))
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			msgs = append(msgs, e.Message)
		}
		return Page{}, apperr.Newf(apperr.UpstreamFetchFailed, op, "graphql: %s", strings.Join(msgs, "; "))
	}

	posts := out.Data.Posts
	page := Page{
		Items: make([]model.Item, 0, len(posts.Edges)),
		PageInfo: PageInfo{
			HasMore:    posts.PageInfo.HasNextPage,
			NextCursor: posts.PageInfo.EndCursor,
		},
	}
	for _, e := range posts.Edges {
		page.Items = append(page.Items, convertPost(e.Node))
	}
	slog.Debug("catalog: fetched page", "count", len(page.Items), "has_more", page.PageInfo.HasMore)
	return page, nil
}

// convertPost maps a GraphQL node to our Item model.
func convertPost(n phPostNode) model.Item {
	it := model.Item{
		ID:          n.ID,
		Name:        strings.TrimSpace(n.Name),
		Tagline:     strings.TrimSpace(n.Tagline),
		Description: plainText(n.Description),
		URL:         n.URL,
		VotesCount:  max(n.VotesCount, 0),
		Website:     n.Website,
	}
	if n.Thumbnail != nil {
		it.ThumbnailURL = n.Thumbnail.URL
	}
	topics := make([]string, 0, len(n.Topics.Edges))
	for _, e := range n.Topics.Edges {
		if name := strings.TrimSpace(e.Node.Name); name != "" {
			topics = append(topics, name)
		}
	}
	it.Topics = model.ClampTopics(topics)
	return it
}

// plainText flattens any markup in s and collapses whitespace.
func plainText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc.Find("br").ReplaceWithHtml(" ")
	return strings.Join(strings.Fields(doc.Text()), " ")
}
