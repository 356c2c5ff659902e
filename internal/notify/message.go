package notify

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Nomadcxx/jellyscout/internal/naming"
)

// Preset is a built-in set of message templates
type Preset struct {
	SeasonWord string
	Templates  map[EventType]string
}

var presets = map[string]Preset{
	"en": {
		SeasonWord: "Season",
		Templates: map[EventType]string{
			EventMovieAdded: `{{.Title}} ({{.URL}}) has been added to the movie list.` +
				`{{if .RequestLink}}` + "\n\n" + `Want another movie? Reply here in Telegram or use {{.RequestLink}}.{{end}}`,
			EventSeasonAdded: `{{.SeasonLabel}} of "{{.Title}}" ({{.URL}}) has been fully added to the TV list.` +
				`{{if .RequestLink}}` + "\n\n" + `Want another series? Reply here in Telegram or use {{.RequestLink}}.{{end}}`,
			EventSeriesAdded: `"{{.Title}}" ({{.URL}}) has been added to the TV list.` +
				`{{if .RequestLink}}` + "\n\n" + `Want another series? Reply here in Telegram or use {{.RequestLink}}.{{end}}`,
			EventNoMatch: `No results found for '{{.Query}}' after searching.`,
		},
	},
	"nl": {
		SeasonWord: "Seizoen",
		Templates: map[EventType]string{
			EventMovieAdded: `De film {{.Title}} ({{.URL}}) is toegevoegd aan de filmlijst.` +
				`{{if .RequestLink}}` + "\n\n" + `Voor verdere wensen naar films kun je hier in Telegram of hier ({{.RequestLink}}) een bericht achterlaten.{{end}}`,
			EventSeasonAdded: `{{.SeasonLabel}} van "{{.Title}}" ({{.URL}}) is volledig toegevoegd aan de tv-lijst.` +
				`{{if .RequestLink}}` + "\n\n" + `Voor verdere wensen naar tv series kun je hier in Telegram of hier ({{.RequestLink}}) een bericht achterlaten.{{end}}`,
			EventSeriesAdded: `"{{.Title}}" ({{.URL}}) is toegevoegd aan de tv-lijst.` +
				`{{if .RequestLink}}` + "\n\n" + `Voor verdere wensen naar tv series kun je hier in Telegram of hier ({{.RequestLink}}) een bericht achterlaten.{{end}}`,
			EventNoMatch: `Geen resultaten gevonden voor '{{.Query}}' na zoeken.`,
		},
	},
}

// Presets returns the names of the built-in message languages
func Presets() []string {
	return []string{"en", "nl"}
}

// FormatterConfig selects a preset and optional per-event overrides
type FormatterConfig struct {
	Language    string
	RequestLink string
	Overrides   map[EventType]string
}

// Formatter renders events into chat messages
type Formatter struct {
	templates   map[EventType]*template.Template
	seasonWord  string
	requestLink string
}

type messageData struct {
	Event
	SeasonLabel string
	RequestLink string
}

// NewFormatter parses the preset for cfg.Language ("en" when empty) with any
// overrides applied on top
func NewFormatter(cfg FormatterConfig) (*Formatter, error) {
	lang := strings.ToLower(strings.TrimSpace(cfg.Language))
	if lang == "" {
		lang = "en"
	}
	preset, ok := presets[lang]
	if !ok {
		return nil, fmt.Errorf("unknown message language %q", cfg.Language)
	}

	f := &Formatter{
		templates:   make(map[EventType]*template.Template, len(preset.Templates)),
		seasonWord:  preset.SeasonWord,
		requestLink: strings.TrimSpace(cfg.RequestLink),
	}

	for eventType, text := range preset.Templates {
		if override := cfg.Overrides[eventType]; strings.TrimSpace(override) != "" {
			text = override
		}
		tmpl, err := template.New(eventType.String()).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", eventType, err)
		}
		f.templates[eventType] = tmpl
	}

	return f, nil
}

// Format renders the message for event
func (f *Formatter) Format(event Event) (string, error) {
	tmpl, ok := f.templates[event.Type]
	if !ok {
		return "", fmt.Errorf("no template for event %s", event.Type)
	}

	data := messageData{
		Event:       event,
		SeasonLabel: naming.SeasonLabel(f.seasonWord, event.Season, event.HasSeason),
		RequestLink: f.requestLink,
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("rendering %s message: %w", event.Type, err)
	}
	return b.String(), nil
}
