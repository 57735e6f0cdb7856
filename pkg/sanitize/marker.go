package sanitize

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Marker is one catalogue entry: a literal glyph that may open a pasted
// bullet line, its base confidence, and the locales where it is a common
// list marker. An empty locale list means the glyph is used everywhere.
// Ambiguous marks glyphs that also live inside ordinary tokens ("-",
// "*"); those are never stripped when glued to a following letter.
type Marker struct {
	Glyph      string   `mapstructure:"glyph"`
	Name       string   `mapstructure:"name"`
	Confidence float64  `mapstructure:"confidence"`
	Locales    []string `mapstructure:"locales"`
	Ambiguous  bool     `mapstructure:"ambiguous"`
}

func (m Marker) commonIn(locale string) bool {
	for _, l := range m.Locales {
		if l == locale {
			return true
		}
	}
	return false
}

// DefaultCatalogue returns the built-in marker set. Confidences started
// from observed strip/keep decisions on real resume text and are meant to
// be tuned through configuration, not treated as exact.
func DefaultCatalogue() []Marker {
	markers := []Marker{
		{Glyph: "•", Name: "bullet", Confidence: 0.9},
		{Glyph: "◦", Name: "white-bullet", Confidence: 0.9},
		{Glyph: "‣", Name: "triangular-bullet", Confidence: 0.9},
		{Glyph: "⁃", Name: "hyphen-bullet", Confidence: 0.85},
		{Glyph: "▪", Name: "black-small-square", Confidence: 0.85},
		{Glyph: "▫", Name: "white-small-square", Confidence: 0.85},
		{Glyph: "●", Name: "black-circle", Confidence: 0.85},
		{Glyph: "○", Name: "white-circle", Confidence: 0.8},
		{Glyph: "■", Name: "black-square", Confidence: 0.8},
		{Glyph: "◆", Name: "black-diamond", Confidence: 0.8},
		{Glyph: "・", Name: "katakana-middle-dot", Confidence: 0.55, Locales: []string{"ja", "zh"}},
		{Glyph: "·", Name: "middle-dot", Confidence: 0.6, Ambiguous: true},
		{Glyph: "*", Name: "asterisk", Confidence: 0.65, Ambiguous: true},
		{Glyph: "★", Name: "black-star", Confidence: 0.7},
		{Glyph: "☆", Name: "white-star", Confidence: 0.7},
		{Glyph: "-", Name: "hyphen", Confidence: 0.6, Ambiguous: true},
		{Glyph: "–", Name: "en-dash", Confidence: 0.6, Ambiguous: true},
		{Glyph: "—", Name: "em-dash", Confidence: 0.6, Ambiguous: true},
		{Glyph: "→", Name: "rightwards-arrow", Confidence: 0.8},
		{Glyph: "➔", Name: "heavy-arrow", Confidence: 0.8},
		{Glyph: "➤", Name: "arrowhead", Confidence: 0.85},
		{Glyph: "►", Name: "black-pointer", Confidence: 0.8},
		{Glyph: "»", Name: "guillemet", Confidence: 0.65, Ambiguous: true},
		{Glyph: "›", Name: "single-guillemet", Confidence: 0.6, Ambiguous: true},
		{Glyph: "✓", Name: "check-mark", Confidence: 0.75},
		{Glyph: "✔", Name: "heavy-check-mark", Confidence: 0.75},
	}
	// Circled numerals: common in CJK resumes as pasted list markers.
	for i := 0; i < 10; i++ {
		markers = append(markers, Marker{
			Glyph:      string(rune(0x2460 + i)),
			Name:       fmt.Sprintf("circled-%d", i+1),
			Confidence: 0.85,
			Locales:    []string{"ja", "zh", "ko"},
		})
	}
	return markers
}

type catalogueDoc struct {
	Markers []map[string]interface{} `yaml:"markers"`
}

// LoadCatalogue reads a marker catalogue from a YAML file. Entries are
// decoded leniently so operator-edited files can say confidence: "0.8" or
// locales: en without breaking.
func LoadCatalogue(afs afero.Fs, path string) ([]Marker, error) {
	raw, err := afero.ReadFile(afs, path)
	if err != nil {
		return nil, fmt.Errorf("reading marker catalogue: %w", err)
	}

	var doc catalogueDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing marker catalogue: %w", err)
	}
	if len(doc.Markers) == 0 {
		return nil, fmt.Errorf("marker catalogue %s defines no markers", path)
	}

	markers := make([]Marker, 0, len(doc.Markers))
	for i, entry := range doc.Markers {
		var m Marker
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &m,
			WeaklyTypedInput: true,
		})
		if err != nil {
			return nil, fmt.Errorf("building catalogue decoder: %w", err)
		}
		if err := dec.Decode(entry); err != nil {
			return nil, fmt.Errorf("marker %d: %w", i, err)
		}
		if m.Glyph == "" {
			return nil, fmt.Errorf("marker %d: glyph is required", i)
		}
		if m.Confidence <= 0 || m.Confidence > 1 {
			return nil, fmt.Errorf("marker %d (%s): confidence %v outside (0, 1]",
				i, m.Glyph, m.Confidence)
		}
		if m.Name == "" {
			m.Name = m.Glyph
		}
		markers = append(markers, m)
	}
	return markers, nil
}
