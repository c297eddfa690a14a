package digest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"opentrends/internal/model"
	"opentrends/internal/selector"
)

func sampleData() Data {
	return Data{
		Title:  "Daily {.CurrentDate}",
		Mode:   model.VoteGrowth,
		Source: model.SourceFresh,
		At:     time.UnixMilli(1700000000000),
		Items: []model.EnrichedItem{
			{Item: model.Item{ID: "1", Name: "Alpha", Tagline: "Fast things", URL: "https://ph/alpha", VotesCount: 120, Topics: []string{"AI", "Dev"}}, DeltaVotes: 20, VotesPerHour: 10, HasHistory: true},
			{Item: model.Item{ID: "2", Name: "Beta", URL: "https://ph/beta", VotesCount: 50, Description: "Beta does more."}},
		},
	}
}

func TestRenderRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 0, 0, time.UTC)
	out, err := Render(sampleData(), now)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	path := filepath.Join(t.TempDir(), "digest.md")
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	want := Meta{
		Title:     "Daily 2026-03-04",
		Slug:      "vote-growth-20260304",
		Datetime:  "2026-03-04 05:06",
		Mode:      "vote_growth",
		Source:    "fresh",
		Snapshot:  1700000000000,
		ItemCount: 2,
	}
	if doc.Meta != want {
		t.Fatalf("meta = %+v, want %+v", doc.Meta, want)
	}
	for _, sub := range []string{
		"## 1. [Alpha](https://ph/alpha)",
		"_Fast things_",
		"**120 votes** · +20 since last snapshot · 10.0 votes/h · AI, Dev",
		"## 2. [Beta](https://ph/beta)",
		"**50 votes**\n",
		"Beta does more.",
	} {
		if !strings.Contains(doc.Body, sub) {
			t.Errorf("body missing %q:\n%s", sub, doc.Body)
		}
	}
}

func TestRenderFromViewListsItems(t *testing.T) {
	v := selector.View{
		Mode:      model.MostVoted,
		Source:    model.SourceCached,
		Timestamp: time.UnixMilli(1700000000000),
		Items: []model.EnrichedItem{
			{Item: model.Item{ID: "a", Name: "Gamma", URL: "https://ph/gamma", VotesCount: 300}},
			{Item: model.Item{ID: "b", Name: "Delta", URL: "https://ph/delta", VotesCount: 200}},
			{Item: model.Item{ID: "c", Name: "Omega", URL: "https://ph/omega", VotesCount: 100}},
		},
	}
	out, err := Render(FromView("Top", v, 2), time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	doc, err := Parse(strings.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	first := strings.Index(doc.Body, "## 1. [Gamma](https://ph/gamma)")
	second := strings.Index(doc.Body, "## 2. [Delta](https://ph/delta)")
	if first < 0 || second < first {
		t.Fatalf("items missing or out of order:\n%s", doc.Body)
	}
	if !strings.Contains(doc.Body, "**300 votes**") || !strings.Contains(doc.Body, "**200 votes**") {
		t.Errorf("vote counts missing:\n%s", doc.Body)
	}
	if strings.Contains(doc.Body, "Omega") {
		t.Errorf("item beyond topN rendered:\n%s", doc.Body)
	}
	if strings.Contains(doc.Body, "since last snapshot") {
		t.Errorf("deltas shown without history:\n%s", doc.Body)
	}
	if doc.Meta.ItemCount != 2 || doc.Meta.Source != "cached" {
		t.Errorf("meta = %+v", doc.Meta)
	}
}

func TestRenderNotice(t *testing.T) {
	d := sampleData()
	d.Notice = "Showing cached results"
	out, err := Render(d, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "> Showing cached results") {
		t.Errorf("notice missing:\n%s", out)
	}
}

func TestRenderDefaultTitle(t *testing.T) {
	d := sampleData()
	d.Title = ""
	out, err := Render(d, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	doc, err := Parse(strings.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Meta.Title != "Trending products 2026-01-02" {
		t.Errorf("title = %q", doc.Meta.Title)
	}
}

func TestParseWithoutFrontmatter(t *testing.T) {
	doc, err := Parse(strings.NewReader("# Hello\n\nNo frontmatter here.\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Frontmatter) != 0 {
		t.Errorf("expected empty frontmatter, got %v", doc.Frontmatter)
	}
	if doc.Body != "# Hello\n\nNo frontmatter here.\n" {
		t.Errorf("body = %q", doc.Body)
	}
}

func TestExpandVars(t *testing.T) {
	now := time.Date(2025, 10, 24, 23, 0, 0, 0, time.UTC)
	if got := ExpandVars("HN {.CurrentDate}", now); got != "HN 2025-10-24" {
		t.Errorf("ExpandVars = %q", got)
	}
	if got := ExpandVars("  ", now); got != "  " {
		t.Errorf("blank input changed: %q", got)
	}
}
