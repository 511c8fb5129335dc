package domain

import (
	"fmt"

	"golang.org/x/text/language"
)

// Translation is a localized variant of a mail template.
type Translation struct {
	Subject  string
	Body     string
	HTMLBody string
}

// MailTemplate holds the default text in DefaultLanguage and optional
// translations keyed by BCP 47 language tag.
type MailTemplate struct {
	Name            string
	DefaultLanguage string
	Translation
	Translations map[string]Translation
}

func (t MailTemplate) validate() error {
	if t.Subject == "" || (t.Body == "" && t.HTMLBody == "") {
		return ErrTemplateRequired
	}
	for lang, tr := range t.Translations {
		if _, err := language.Parse(lang); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidTranslation, lang)
		}
		if tr.Subject == "" || (tr.Body == "" && tr.HTMLBody == "") {
			return fmt.Errorf("translation %s: %w", lang, ErrTemplateRequired)
		}
	}
	return nil
}

// Localize returns the variant that best serves the requested language,
// falling back to the default text.
func (t MailTemplate) Localize(requested string) (Translation, language.Tag) {
	def := language.Make(t.DefaultLanguage)
	if len(t.Translations) == 0 || requested == "" {
		return t.Translation, def
	}

	tags := []language.Tag{def}
	keys := []string{""}
	for lang := range t.Translations {
		tags = append(tags, language.Make(lang))
		keys = append(keys, lang)
	}

	want, _, err := language.ParseAcceptLanguage(requested)
	if err != nil || len(want) == 0 {
		return t.Translation, def
	}
	_, idx, conf := language.NewMatcher(tags).Match(want...)
	if conf == language.No || idx == 0 {
		return t.Translation, def
	}
	return t.Translations[keys[idx]], tags[idx]
}
