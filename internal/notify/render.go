package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/username/hurma-bot/internal/digest"
	"github.com/username/hurma-bot/pkg/dateutil"
)

//go:embed locales/*.yaml
var localeFS embed.FS

//go:embed templates/*.tmpl
var templateFS embed.FS

// DefaultLanguage is used when no language is configured
const DefaultLanguage = "ru"

// Renderer turns a digest result into a Telegram HTML message
type Renderer struct {
	lang      string
	localizer *i18n.Localizer
	tmpl      *template.Template
}

type digestView struct {
	NextDay bool
	Day     string
	Result  *digest.Result
}

// NewRenderer creates a renderer for the given language ("ru" or "en")
func NewRenderer(lang string) (*Renderer, error) {
	if lang == "" {
		lang = DefaultLanguage
	}

	bundle := i18n.NewBundle(language.Russian)
	bundle.RegisterUnmarshalFunc("yaml", yaml.Unmarshal)

	files, err := fs.Glob(localeFS, "locales/active.*.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to list locales: %w", err)
	}
	for _, file := range files {
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			return nil, fmt.Errorf("failed to load locale %s: %w", file, err)
		}
	}

	r := &Renderer{
		lang:      lang,
		localizer: i18n.NewLocalizer(bundle, lang),
	}

	tmpl, err := template.New("message").Funcs(template.FuncMap{
		"t":      r.translate,
		"plural": r.plural,
		"day":    r.dayLabel,
	}).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	r.tmpl = tmpl

	return r, nil
}

// Render renders the message for a result of the given target date
func (r *Renderer) Render(result *digest.Result, target dateutil.Target) (string, error) {
	if result == nil {
		result = &digest.Result{}
	}

	view := digestView{
		NextDay: target.NextDay,
		Day:     r.formatDay(target),
		Result:  result,
	}

	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "digest", view); err != nil {
		return "", fmt.Errorf("failed to render message: %w", err)
	}

	return strings.TrimSpace(buf.String()), nil
}

func (r *Renderer) translate(id string) (string, error) {
	return r.localizer.Localize(&i18n.LocalizeConfig{MessageID: id})
}

func (r *Renderer) plural(id string, count int) (string, error) {
	return r.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    id,
		PluralCount:  count,
		TemplateData: map[string]interface{}{"Count": count},
	})
}

func (r *Renderer) formatDay(target dateutil.Target) string {
	if r.lang == "ru" {
		return target.DayLabel()
	}
	return target.Date.Format("2 January")
}

// dayLabel formats a server date for display; unparsable values are shown as-is
func (r *Renderer) dayLabel(value string) string {
	date, err := dateutil.ParseDate(value)
	if err != nil {
		return value
	}
	if r.lang == "ru" {
		return dateutil.FormatDayLabel(date)
	}
	return date.Format("2 January")
}
