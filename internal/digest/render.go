// Package digest renders a ranked view as a Markdown document with YAML
// frontmatter and reads such documents back.
package digest

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"opentrends/internal/model"
	"opentrends/internal/ranking"
	"opentrends/internal/selector"

	"gopkg.in/yaml.v3"
)

// Meta is the YAML frontmatter of a digest.
type Meta struct {
	Title     string `yaml:"title"`
	Slug      string `yaml:"slug"`
	Datetime  string `yaml:"datetime"`
	Mode      string `yaml:"mode"`
	Source    string `yaml:"source"`
	Snapshot  int64  `yaml:"snapshot"`
	ItemCount int    `yaml:"items"`
}

type Data struct {
	Title  string
	Mode   model.Mode
	Source model.Source
	Notice string
	// At is the snapshot timestamp the items were ranked against.
	At    time.Time
	Items []model.EnrichedItem
}

//go:embed digest.tmpl
var digestTpl string

var compiled = template.Must(template.New("digest").Funcs(template.FuncMap{
	"inc":  func(i int) int { return i + 1 },
	"join": strings.Join,
	"signed": func(n int) string {
		if n > 0 {
			return fmt.Sprintf("+%d", n)
		}
		return fmt.Sprintf("%d", n)
	},
}).Parse(digestTpl))

// Render produces the Markdown document for d. now stamps the datetime field.
func Render(d Data, now time.Time) (string, error) {
	title := ExpandVars(d.Title, now)
	if strings.TrimSpace(title) == "" {
		title = fmt.Sprintf("Trending products %s", now.UTC().Format("2006-01-02"))
	}
	meta := Meta{
		Title:     title,
		Slug:      strings.TrimSuffix(Filename(d.Mode, now), ".md"),
		Datetime:  now.UTC().Format("2006-01-02 15:04"),
		Mode:      string(d.Mode),
		Source:    string(d.Source),
		Snapshot:  d.At.UnixMilli(),
		ItemCount: len(d.Items),
	}
	fm, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}
	var buf bytes.Buffer
	err = compiled.Execute(&buf, struct {
		Frontmatter string
		Notice      string
		Items       []model.EnrichedItem
	}{string(fm), d.Notice, d.Items})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ExpandVars substitutes {.CurrentDate} (YYYY-MM-DD, UTC) in configured titles.
func ExpandVars(s string, now time.Time) string {
	if strings.TrimSpace(s) == "" {
		return s
	}
	return strings.ReplaceAll(s, "{.CurrentDate}", now.UTC().Format("2006-01-02"))
}

// FromView builds digest data from the first topN items of a view.
func FromView(title string, v selector.View, topN int) Data {
	return Data{
		Title:  title,
		Mode:   v.Mode,
		Source: v.Source,
		Notice: v.Notice,
		At:     v.Timestamp,
		Items:  ranking.Top(v.Items, topN),
	}
}

// Filename is the conventional digest file name for mode on the day of now.
func Filename(mode model.Mode, now time.Time) string {
	return fmt.Sprintf("%s-%s.md", strings.ReplaceAll(string(mode), "_", "-"), now.UTC().Format("20060102"))
}
