package server

import (
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"

	"opentrends/internal/model"
	"opentrends/internal/ranking"
	"opentrends/internal/selector"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/gorilla/feeds"
)

var modeTitles = map[model.Mode]string{
	model.MostVoted:    "Most voted",
	model.VoteGrowth:   "Fastest growing",
	model.VoteVelocity: "Highest vote velocity",
}

// getFeed handles GET /feed.rss?mode=.
func (s *Server) getFeed(w http.ResponseWriter, r *http.Request) {
	view, err := s.resolveView(r.Context(), r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, err)
		return
	}
	rss, err := buildFeed(view, s.opts.FeedSize).ToRss()
	if err != nil {
		slog.Error("server: render feed", "err", err)
		ErrorResponse(w, http.StatusInternalServerError, "failed to render feed")
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	_, _ = w.Write([]byte(rss))
}

func buildFeed(view selector.View, size int) *feeds.Feed {
	feed := &feeds.Feed{
		Title:       "Trending products: " + modeTitles[view.Mode],
		Description: "Catalog items ranked by " + string(view.Mode),
		Link:        &feeds.Link{Href: "https://www.producthunt.com/", Rel: "self", Type: "text/html"},
		Id:          "tag:opentrends,2026:" + string(view.Mode),
		Created:     view.Timestamp,
		Updated:     view.Timestamp,
	}
	for _, it := range ranking.Top(view.Items, size) {
		feed.Items = append(feed.Items, &feeds.Item{
			Title:       it.Item.Name,
			Link:        &feeds.Link{Href: it.Item.URL, Rel: "alternate", Type: "text/html"},
			Id:          it.Item.URL,
			Description: itemSummary(it),
			Created:     view.Timestamp,
		})
	}
	return feed
}

func itemSummary(it model.EnrichedItem) string {
	var b strings.Builder
	if it.Item.Tagline != "" {
		fmt.Fprintf(&b, "<p><em>%s</em></p>", html.EscapeString(it.Item.Tagline))
	}
	fmt.Fprintf(&b, "<p>%d votes", it.Item.VotesCount)
	if it.HasHistory {
		fmt.Fprintf(&b, " · %+d since last snapshot · %.1f votes/h", it.DeltaVotes, it.VotesPerHour)
	}
	b.WriteString("</p>")
	if len(it.Item.Topics) > 0 {
		fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(strings.Join(it.Item.Topics, ", ")))
	}
	if it.Item.Description != "" {
		fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(it.Item.Description))
	}
	return b.String()
}

// getDashboard handles GET /dashboard?mode= with bar charts of the view.
func (s *Server) getDashboard(w http.ResponseWriter, r *http.Request) {
	view, err := s.resolveView(r.Context(), r.URL.Query().Get("mode"))
	if err != nil {
		writeError(w, err)
		return
	}
	items := ranking.Top(view.Items, s.opts.FeedSize)

	names := make([]string, 0, len(items))
	var votes, deltas, velocity []opts.BarData
	for _, it := range items {
		names = append(names, it.Item.Name)
		votes = append(votes, opts.BarData{Value: it.Item.VotesCount})
		deltas = append(deltas, opts.BarData{Value: it.DeltaVotes})
		velocity = append(velocity, opts.BarData{Value: it.VotesPerHour})
	}

	subtitle := fmt.Sprintf("%s · %s snapshot %s", modeTitles[view.Mode], view.Source, view.Timestamp.UTC().Format("2006-01-02 15:04 MST"))
	if view.Notice != "" {
		subtitle += " · " + view.Notice
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Votes", Subtitle: subtitle}),
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
	)
	bar.SetXAxis(names).
		AddSeries("Votes", votes).
		AddSeries("Growth", deltas)

	vph := charts.NewBar()
	vph.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Votes per hour"}))
	vph.SetXAxis(names).AddSeries("Votes/h", velocity)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := bar.Render(w); err != nil {
		slog.Error("server: render dashboard", "err", err)
		return
	}
	if err := vph.Render(w); err != nil {
		slog.Error("server: render dashboard", "err", err)
	}
}
