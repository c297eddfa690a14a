package config

import (
	"strings"
	"testing"
	"time"
)

func TestFillDefaults(t *testing.T) {
	var c Config
	c.FillDefaults()

	if c.Snapshots.StaleAfter != "24h" || c.StaleAfter() != 24*time.Hour {
		t.Errorf("stale_after default = %q", c.Snapshots.StaleAfter)
	}
	if c.Catalog.Limit != c.Catalog.PageSize || c.Catalog.PageSize != 20 {
		t.Errorf("catalog limits = %d/%d", c.Catalog.PageSize, c.Catalog.Limit)
	}
	if c.OpenAI.Model != "gpt-4o-mini" || c.OpenAI.MaxTokens != 500 {
		t.Errorf("openai defaults = %+v", c.OpenAI)
	}
	if c.Bookmarks.Driver != "sqlite" || c.Bookmarks.DatabaseURL == "" {
		t.Errorf("bookmarks defaults = %+v", c.Bookmarks)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestFillDefaultsKeepsOverrides(t *testing.T) {
	c := Config{Snapshots: SnapshotsConfig{StaleAfter: "6h", Backend: "sqlite"}, Catalog: CatalogConfig{PageSize: 10, Limit: 40}}
	c.FillDefaults()
	if c.StaleAfter() != 6*time.Hour || c.Catalog.Limit != 40 || c.Snapshots.Backend != "sqlite" {
		t.Fatalf("overrides lost: %+v", c)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad duration", func(c *Config) { c.Snapshots.StaleAfter = "a day" }, "snapshots.stale_after"},
		{"bad backend", func(c *Config) { c.Snapshots.Backend = "etcd" }, "snapshots.backend"},
		{"bad driver", func(c *Config) { c.Bookmarks.Driver = "mysql" }, "bookmarks.driver"},
		{"page size", func(c *Config) { c.Catalog.PageSize = 100 }, "page_size"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var c Config
			c.FillDefaults()
			tc.mutate(&c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Validate() = %v, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestDigestDefaultsAndModes(t *testing.T) {
	var c Config
	c.FillDefaults()
	if c.Digest.TopN != 10 || len(c.Digest.Modes) != 1 || Duration(c.Digest.Interval) != 0 {
		t.Fatalf("digest defaults = %+v", c.Digest)
	}
	c.Digest.Modes = []string{"growth", "hot"}
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "digest.modes") {
		t.Fatalf("Validate = %v, want digest.modes error", err)
	}
}
