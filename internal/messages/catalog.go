// Package messages holds the user-visible text catalog. Texts are keyed by
// locale and id; unknown locales fall back to English so users always get a
// fixed notice rather than a raw error.
package messages

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed messages.yaml
var catalogYAML []byte

const (
	KeyDegradedFailure = "degraded_failure"
	KeyStart           = "start"
	KeyHelp            = "help"
	KeyReasoningOn     = "reasoning_on"
	KeyReasoningOff    = "reasoning_off"
	KeyFileReceived    = "file_received"
	KeyEmptyMessage    = "empty_message"
)

const fallbackLocale = "en"

type Catalog struct {
	texts map[string]map[string]string
}

// Load parses the embedded catalog. It fails when the fallback locale is
// missing: every key must resolve for every locale through it.
func Load() (*Catalog, error) {
	var texts map[string]map[string]string
	if err := yaml.Unmarshal(catalogYAML, &texts); err != nil {
		return nil, fmt.Errorf("parse message catalog: %w", err)
	}
	if _, ok := texts[fallbackLocale]; !ok {
		return nil, fmt.Errorf("message catalog is missing the %q locale", fallbackLocale)
	}
	return &Catalog{texts: texts}, nil
}

// Get resolves a text by locale and key, falling back to English, then to
// the key itself so a missing entry stays visible instead of blank.
func (c *Catalog) Get(locale, key string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if m, ok := c.texts[locale]; ok {
		if s := strings.TrimSpace(m[key]); s != "" {
			return s
		}
	}
	if s := strings.TrimSpace(c.texts[fallbackLocale][key]); s != "" {
		return s
	}
	return key
}

// Locales lists the locales the catalog carries.
func (c *Catalog) Locales() []string {
	out := make([]string, 0, len(c.texts))
	for locale := range c.texts {
		out = append(out, locale)
	}
	return out
}
