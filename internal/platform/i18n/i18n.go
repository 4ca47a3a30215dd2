// Package i18n is the catalog of user-facing console copy.
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"emsconsole/internal/requestctx"
)

//go:embed locales/*.json
var localeFS embed.FS

type Catalog struct {
	bundle        *i18n.Bundle
	defaultLocale string
	locales       []string
	matcher       language.Matcher
}

// New loads every embedded locale file. defaultLocale must be one of them.
func New(defaultLocale string) (*Catalog, error) {
	defTag, err := language.Parse(defaultLocale)
	if err != nil {
		return nil, fmt.Errorf("i18n: default locale %q: %w", defaultLocale, err)
	}
	bundle := i18n.NewBundle(defTag)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("i18n: read locales dir: %w", err)
	}
	tags := []language.Tag{defTag}
	locales := []string{defTag.String()}
	found := false
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := localeFS.ReadFile("locales/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("i18n: read %s: %w", e.Name(), err)
		}
		file, err := bundle.ParseMessageFileBytes(data, e.Name())
		if err != nil {
			return nil, fmt.Errorf("i18n: parse %s: %w", e.Name(), err)
		}
		if file.Tag == defTag {
			found = true
			continue
		}
		tags = append(tags, file.Tag)
		locales = append(locales, file.Tag.String())
	}
	if !found {
		return nil, fmt.Errorf("i18n: no messages for default locale %q", defaultLocale)
	}
	return &Catalog{
		bundle:        bundle,
		defaultLocale: defTag.String(),
		locales:       locales,
		matcher:       language.NewMatcher(tags),
	}, nil
}

func (c *Catalog) Default() string { return c.defaultLocale }

func (c *Catalog) Locales() []string {
	return append([]string(nil), c.locales...)
}

func (c *Catalog) Supports(locale string) bool {
	for _, l := range c.locales {
		if strings.EqualFold(l, locale) {
			return true
		}
	}
	return false
}

// Match picks the supported locale for an Accept-Language header value.
func (c *Catalog) Match(acceptLanguage string) string {
	desired, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(desired) == 0 {
		return c.defaultLocale
	}
	_, index, confidence := c.matcher.Match(desired...)
	if confidence == language.No {
		return c.defaultLocale
	}
	return c.locales[index]
}

// T translates messageID for the locale on ctx. Unknown ids come back as is.
func (c *Catalog) T(ctx context.Context, messageID string, templateData ...map[string]any) string {
	return c.Localize(requestctx.GetLocale(ctx), messageID, templateData...)
}

func (c *Catalog) Localize(locale, messageID string, templateData ...map[string]any) string {
	if locale == "" {
		locale = c.defaultLocale
	}
	l := i18n.NewLocalizer(c.bundle, locale, c.defaultLocale)
	cfg := &i18n.LocalizeConfig{MessageID: messageID}
	if len(templateData) > 0 && templateData[0] != nil {
		cfg.TemplateData = templateData[0]
	}
	msg, err := l.Localize(cfg)
	if err != nil {
		return messageID
	}
	return msg
}
