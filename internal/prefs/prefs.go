// Package prefs stores local user preferences in ~/.config/opentrends/prefs.toml.
package prefs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultPath     = "~/.config/opentrends/prefs.toml"
	DefaultLanguage = "Portuguese"
)

// Prefs identifies the local user and their translation target.
type Prefs struct {
	UserID   string `toml:"user_id"`
	Language string `toml:"language"`
}

func defaults() Prefs { return Prefs{Language: DefaultLanguage} }

// Load reads preferences from path. A missing or unreadable file yields
// defaults; errors are reserved for an unusable path.
func Load(path string) (Prefs, error) {
	p := defaults()
	resolved, err := Resolve(path)
	if err != nil {
		return p, err
	}
	raw, err := os.ReadFile(resolved)
	if err != nil {
		return p, nil
	}
	if err := toml.Unmarshal(raw, &p); err != nil {
		return defaults(), nil
	}
	p.UserID = strings.TrimSpace(p.UserID)
	if strings.TrimSpace(p.Language) == "" {
		p.Language = DefaultLanguage
	}
	return p, nil
}

// Save writes preferences, creating parent directories.
func Save(path string, p Prefs) error {
	resolved, err := Resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	raw, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := os.WriteFile(resolved, raw, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

// EnsureUserID loads preferences and assigns a persistent user id when none exists.
func EnsureUserID(path string) (Prefs, error) {
	p, err := Load(path)
	if err != nil {
		return p, err
	}
	if p.UserID != "" {
		return p, nil
	}
	p.UserID = uuid.NewString()
	if err := Save(path, p); err != nil {
		return p, err
	}
	return p, nil
}

// Resolve expands a leading ~ and makes path absolute. Empty means DefaultPath.
func Resolve(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = DefaultPath
	}
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}
