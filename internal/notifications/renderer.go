package notifications

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"golang.org/x/text/language"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// SubscriptionSubject is the subject line of subscription notices.
const SubscriptionSubject = "New Subscription"

var supportedLocales = []language.Tag{
	language.English,
	language.Portuguese,
}

var localeMatcher = language.NewMatcher(supportedLocales)

// Renderer renders notifications from templates in a single locale.
type Renderer struct {
	templates map[MessageType]*template.Template
	locale    language.Tag
	loc       *time.Location
}

// NewRenderer loads the templates for the supported locale closest to
// locale. Dates are rendered in loc.
func NewRenderer(locale string, loc *time.Location) (*Renderer, error) {
	tag := MatchLocale(locale)
	if loc == nil {
		loc = time.UTC
	}

	r := &Renderer{
		templates: make(map[MessageType]*template.Template),
		locale:    tag,
		loc:       loc,
	}

	funcMap := template.FuncMap{
		"formatDate": r.FormatDate,
	}

	base, _ := tag.Base()
	for _, msg := range []MessageType{MessageTypeSubscriptionCreated} {
		filename := fmt.Sprintf("templates/%s_%s.tmpl", msg, base)

		content, err := templatesFS.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", filename, err)
		}

		tmpl, err := template.New(string(msg)).Funcs(funcMap).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", filename, err)
		}

		r.templates[msg] = tmpl
	}

	return r, nil
}

// MatchLocale maps a BCP 47 locale to the closest supported one.
// Unknown or empty locales fall back to English.
func MatchLocale(locale string) language.Tag {
	if locale == "" {
		return language.English
	}
	requested, _, err := language.ParseAcceptLanguage(locale)
	if err != nil || len(requested) == 0 {
		return language.English
	}
	_, idx, _ := localeMatcher.Match(requested...)
	return supportedLocales[idx]
}

// Locale returns the locale templates are rendered in.
func (r *Renderer) Locale() language.Tag {
	return r.locale
}

// Render renders a queue item. Returns subject and body.
func (r *Renderer) Render(messageType MessageType, payload SubscriptionPayload) (subject, body string, err error) {
	tmpl, ok := r.templates[messageType]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrTemplateNotFound, messageType)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, payload); err != nil {
		return "", "", fmt.Errorf("execute template %s: %w", messageType, err)
	}

	return SubscriptionSubject, strings.TrimSpace(buf.String()), nil
}

var ptMonths = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// FormatDate formats t for the renderer locale, e.g.
// "dia 05 de março, às 9:30h" or "March 5 at 9:30".
func (r *Renderer) FormatDate(t time.Time) string {
	t = t.In(r.loc)
	if base, _ := r.locale.Base(); base.String() == "pt" {
		return fmt.Sprintf("dia %02d de %s, às %d:%02dh", t.Day(), ptMonths[t.Month()-1], t.Hour(), t.Minute())
	}
	return t.Format("January 2 at 15:04")
}
