package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"opentrends/internal/apperr"
)

const samplePage = `{
  "data": {"posts": {
    "edges": [
      {"node": {"id": "101", "name": " Alpha ", "tagline": "Fast things", "description": "<p>Hello <b>world</b></p>",
        "url": "https://ph.example/alpha", "votesCount": 321, "thumbnail": {"url": "https://img.example/a.png"},
        "website": "https://alpha.example",
        "topics": {"edges": [{"node": {"name": "AI"}}, {"node": {"name": "SaaS"}}, {"node": {"name": "Tools"}}, {"node": {"name": "Extra"}}]}},
       "cursor": "c1"},
      {"node": {"id": "102", "name": "Beta", "tagline": "", "description": "plain", "url": "https://ph.example/beta",
        "votesCount": 12, "thumbnail": null, "website": "", "topics": {"edges": []}}, "cursor": "c2"}
    ],
    "pageInfo": {"hasNextPage": true, "endCursor": "c2"}
  }}
}`

func newTestClient(t *testing.T, h http.HandlerFunc) *ProductHunt {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewProductHunt(ProductHuntConfig{Endpoint: srv.URL, Token: "tok", Timeout: 2 * time.Second, RequestsPerMin: 6000})
}

func TestPostsParsesPage(t *testing.T) {
	var gotReq graphQLRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePage))
	})

	page, err := c.Posts(context.Background(), Query{Count: 2, After: "c0"})
	if err != nil {
		t.Fatalf("Posts: %v", err)
	}
	if gotReq.Variables["first"] != float64(2) || gotReq.Variables["after"] != "c0" || gotReq.Variables["order"] != OrderVotes {
		t.Errorf("unexpected variables: %v", gotReq.Variables)
	}
	if !strings.Contains(gotReq.Query, "topics(first: 3)") {
		t.Errorf("query does not limit topics")
	}
	if len(page.Items) != 2 {
		t.Fatalf("items = %d", len(page.Items))
	}
	a := page.Items[0]
	if a.ID != "101" || a.Name != "Alpha" || a.VotesCount != 321 || a.ThumbnailURL != "https://img.example/a.png" {
		t.Errorf("unexpected item: %+v", a)
	}
	if a.Description != "Hello world" {
		t.Errorf("description = %q", a.Description)
	}
	if len(a.Topics) != 3 || a.Topics[2] != "Tools" {
		t.Errorf("topics = %v", a.Topics)
	}
	if page.Items[1].ThumbnailURL != "" {
		t.Errorf("null thumbnail should map to empty string")
	}
	if !page.PageInfo.HasMore || page.PageInfo.NextCursor != "c2" {
		t.Errorf("pageInfo = %+v", page.PageInfo)
	}
}

func TestPostsMissingToken(t *testing.T) {
	c := NewProductHunt(ProductHuntConfig{Endpoint: "http://127.0.0.1:1"})
	_, err := c.Posts(context.Background(), Query{})
	if !apperr.Is(err, apperr.ConfigurationMissing) {
		t.Fatalf("err = %v, want ConfigurationMissing", err)
	}
	if !strings.Contains(apperr.HintOf(err), "producthunt.com") {
		t.Errorf("hint = %q", apperr.HintOf(err))
	}
}

func TestPostsUpstreamErrors(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		},
		"graphql": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data": null, "errors": [{"message": "invalid_oauth_token"}]}`))
		},
		"json": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, h)
			_, err := c.Posts(context.Background(), Query{Count: 5})
			if !apperr.Is(err, apperr.UpstreamFetchFailed) {
				t.Fatalf("err = %v, want UpstreamFetchFailed", err)
			}
		})
	}
}

func TestPlainText(t *testing.T) {
	cases := map[string]string{
		"":                               "",
		"no markup":                      "no markup",
		"a<br>b":                         "a b",
		"Tom &amp; Jerry":                "Tom & Jerry",
		"<ul><li>x</li> <li>y</li></ul>": "x y",
	}
	for in, want := range cases {
		if got := plainText(in); got != want {
			t.Errorf("plainText(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMockPaginates(t *testing.T) {
	clock := func() time.Time { return time.Unix(1_700_000_000, 0) }
	m := NewMock(clock)
	m.Total = 5

	first, err := m.Posts(context.Background(), Query{Count: 3})
	if err != nil {
		t.Fatalf("Posts: %v", err)
	}
	if len(first.Items) != 3 || !first.PageInfo.HasMore || first.PageInfo.NextCursor != "3" {
		t.Fatalf("first page = %+v", first.PageInfo)
	}
	second, err := m.Posts(context.Background(), Query{Count: 3, After: first.PageInfo.NextCursor})
	if err != nil {
		t.Fatalf("Posts: %v", err)
	}
	if len(second.Items) != 2 || second.PageInfo.HasMore {
		t.Fatalf("second page = %d items, more=%v", len(second.Items), second.PageInfo.HasMore)
	}
	again, _ := m.Posts(context.Background(), Query{Count: 3})
	if again.Items[0].VotesCount != first.Items[0].VotesCount {
		t.Errorf("mock is not deterministic for a fixed clock")
	}
}
