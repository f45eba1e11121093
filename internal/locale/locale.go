// Package locale provides the localized strings shown by the settings screen.
package locale

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/youhavemail/yhm/internal/interval"
)

//go:embed locales/*.yaml
var files embed.FS

// Fallback is used for unknown languages and missing keys.
const Fallback = "en"

// String keys
const (
	KeySettings           = "settings"
	KeyPollInterval       = "poll_interval"
	KeyPollIntervalDesc   = "poll_interval_desc"
	KeyUpdatePollInterval = "update_poll_interval"
	KeySeconds            = "seconds"
	KeyMinutes            = "minutes"
	KeyBack               = "back"
	KeyDone               = "done"
	KeyFailed             = "failed"
	KeyCanceled           = "canceled"
)

type catalogFile struct {
	Lang    string            `yaml:"lang"`
	Strings map[string]string `yaml:"strings"`
}

// Catalog resolves string keys for one language.
type Catalog struct {
	Lang     string
	strings  map[string]string
	fallback map[string]string
}

// Load returns the catalog for lang ("fr", "nl-BE", ...). Unknown languages
// resolve to English.
func Load(lang string) (*Catalog, error) {
	base, err := readFile(Fallback)
	if err != nil {
		return nil, err
	}

	code := normalize(lang)
	if code == "" || code == Fallback {
		return &Catalog{Lang: Fallback, strings: base.Strings, fallback: base.Strings}, nil
	}

	f, err := readFile(code)
	if err != nil {
		return &Catalog{Lang: Fallback, strings: base.Strings, fallback: base.Strings}, nil
	}
	return &Catalog{Lang: code, strings: f.Strings, fallback: base.Strings}, nil
}

// Languages lists the embedded language codes.
func Languages() []string {
	entries, err := files.ReadDir("locales")
	if err != nil {
		return []string{Fallback}
	}
	var langs []string
	for _, e := range entries {
		langs = append(langs, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(langs)
	return langs
}

// String returns the text for key. Missing keys fall back to English, then
// to the key itself.
func (c *Catalog) String(key string) string {
	if s, ok := c.strings[key]; ok && s != "" {
		return s
	}
	if s, ok := c.fallback[key]; ok && s != "" {
		return s
	}
	return key
}

// Labels returns the unit words for interval formatting.
func (c *Catalog) Labels() interval.Labels {
	return interval.Labels{
		SecondsLabel: c.String(KeySeconds),
		MinutesLabel: c.String(KeyMinutes),
	}
}

func readFile(code string) (*catalogFile, error) {
	data, err := files.ReadFile("locales/" + code + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("no strings for language %q: %w", code, err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s strings: %w", code, err)
	}
	return &f, nil
}

// normalize turns "nl_BE.UTF-8" or "nl-BE" into "nl".
func normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_."); i != -1 {
		lang = lang[:i]
	}
	return lang
}
