// Package i18n renders session summaries and status updates in the user's
// language.
package i18n

import (
	"fmt"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/yourusername/vidfetch-go/internal/domain"
)

// Catalog renders display text for outcome and status codes
type Catalog struct {
	localizer *goi18n.Localizer
	tag       language.Tag
}

var supported = []language.Tag{language.English, language.German, language.Spanish, language.French}

var matcher = language.NewMatcher(supported)

var bundle = newBundle()

func newBundle() *goi18n.Bundle {
	b := goi18n.NewBundle(language.English)
	for tag, msgs := range translations {
		if err := b.AddMessages(tag, msgs...); err != nil {
			panic(fmt.Sprintf("i18n: invalid messages for %s: %v", tag, err))
		}
	}
	return b
}

// NewCatalog returns a catalog for locale (e.g. "de", "fr-CA"). Unsupported
// languages fall back to English; malformed tags are an error.
func NewCatalog(locale string) (*Catalog, error) {
	requested, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	_, idx, _ := matcher.Match(requested)
	tag := supported[idx]
	return &Catalog{
		localizer: goi18n.NewLocalizer(bundle, tag.String()),
		tag:       tag,
	}, nil
}

// Default returns the English catalog
func Default() *Catalog {
	return &Catalog{
		localizer: goi18n.NewLocalizer(bundle, language.English.String()),
		tag:       language.English,
	}
}

// SupportedLocales lists the languages with translations
func SupportedLocales() []string {
	out := make([]string, len(supported))
	for i, tag := range supported {
		out[i] = tag.String()
	}
	return out
}

// Locale returns the language the catalog renders in
func (c *Catalog) Locale() string {
	return c.tag.String()
}

// Summary renders the human-readable message for an outcome
func (c *Catalog) Summary(outcome domain.SessionOutcome) string {
	data := map[string]interface{}{
		"Succeeded": outcome.Succeeded,
		"Skipped":   outcome.Skipped,
		"Failed":    outcome.Failed,
		"Error":     outcome.Error,
	}
	return c.render("summary."+string(outcome.Code), data)
}

// Status renders a short status line
func (c *Catalog) Status(code domain.StatusCode) string {
	return c.render("status."+string(code), nil)
}

func (c *Catalog) render(id string, data map[string]interface{}) string {
	msg, err := c.localizer.Localize(&goi18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	})
	if err != nil {
		// unknown ids render as the id itself so nothing is silently dropped
		return id
	}
	return msg
}
