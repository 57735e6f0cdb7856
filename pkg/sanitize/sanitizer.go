package sanitize

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/forPelevin/gomoji"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

// DefaultThreshold is the confidence a detection must reach before its
// marker is stripped.
const DefaultThreshold = 0.7

// Confidence adjustments. Tuned against real resume text; override the
// catalogue and threshold through Config rather than editing these.
const (
	contentBoost       = 0.1
	localeBoost        = 0.1
	exclusionPenalty   = 0.3
	midSentencePenalty = 0.25
	emojiConfidence    = 0.75

	minContentRunes  = 5
	midSentenceWords = 3
	maxStripPasses   = 3
)

const (
	variationSelector = '️'
	zeroWidthJoiner   = '‍'
)

// Config configures a Sanitizer.
type Config struct {
	// Locale is the caller's content locale ("en", "ja"). Markers common
	// in that locale get a confidence boost. Empty applies no boost.
	Locale string

	// Threshold overrides DefaultThreshold when non-zero.
	Threshold float64

	// Catalogue overrides the built-in marker set when non-empty.
	Catalogue []Marker

	// Logger receives strip decisions at debug level.
	Logger hclog.Logger
}

// Sanitizer strips leading bullet markers and splits embedded line breaks.
type Sanitizer struct {
	catalogue []Marker
	threshold float64
	locale    string
	log       hclog.Logger
}

// New builds a Sanitizer. A nil config uses the defaults.
func New(cfg *Config) (*Sanitizer, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	threshold := cfg.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold %v outside [0, 1]", threshold)
	}

	catalogue := cfg.Catalogue
	if len(catalogue) == 0 {
		catalogue = DefaultCatalogue()
	}
	sorted := append([]Marker(nil), catalogue...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Glyph) > len(sorted[j].Glyph)
	})

	log := cfg.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}

	return &Sanitizer{
		catalogue: sorted,
		threshold: threshold,
		locale:    cfg.Locale,
		log:       log,
	}, nil
}

// Detection is one catalogue (or emoji) glyph found in a line, with the
// confidence the pipeline assigned it.
type Detection struct {
	Glyph      string
	Name       string
	Index      int
	Length     int
	Confidence float64
	Exclusions []string
	Strippable bool
}

// MarkerError reports, in strict mode, a marker that lenient mode would
// have stripped.
type MarkerError struct {
	Line       int
	Glyph      string
	Name       string
	Confidence float64
}

func (e *MarkerError) Error() string {
	return fmt.Sprintf("line %d starts with %s marker %q (confidence %.2f)",
		e.Line, e.Name, e.Glyph, e.Confidence)
}

// Sanitize cleans one achievement text into independent bullet lines.
// Embedded line breaks split the text; each line then loses its leading
// marker when the detection clears the threshold. With strict set, nothing
// is fixed: any break or strippable marker comes back as an error instead.
func (s *Sanitizer) Sanitize(text string, strict bool) ([]string, error) {
	lines := splitLines(text)

	var errs *multierror.Error
	if strict && len(lines) > 1 {
		errs = multierror.Append(errs, fmt.Errorf(
			"text contains %d embedded line break(s); one bullet must stay one line",
			len(lines)-1))
	}

	out := make([]string, 0, len(lines))
	for i, line := range lines {
		cleaned, stripped := s.sanitizeLine(line)
		for _, det := range stripped {
			if strict {
				errs = multierror.Append(errs, &MarkerError{
					Line:       i + 1,
					Glyph:      det.Glyph,
					Name:       det.Name,
					Confidence: det.Confidence,
				})
				continue
			}
			s.log.Debug("stripped leading marker",
				"line", i+1,
				"marker", det.Name,
				"glyph", det.Glyph,
				"confidence", fmt.Sprintf("%.2f", det.Confidence),
			)
		}
		if strings.TrimSpace(cleaned) == "" {
			continue
		}
		out = append(out, cleaned)
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return out, nil
}

// Detect evaluates every catalogue glyph occurrence in a line. Only the
// leading occurrence can ever be strippable; the rest are reported for
// diagnostics with the same confidence pipeline applied.
func (s *Sanitizer) Detect(line string) []Detection {
	lead := leadingOffset(line)
	var out []Detection
	for i := 0; i < len(line); {
		det, ok := s.detectAt(line, i, i == lead)
		if !ok {
			_, size := utf8.DecodeRuneInString(line[i:])
			if size == 0 {
				break
			}
			i += size
			continue
		}
		out = append(out, det)
		i += det.Length
	}
	return out
}

// sanitizeLine strips strippable leading markers, at most maxStripPasses
// deep for stacked glyphs, refusing a strip that would empty the line.
func (s *Sanitizer) sanitizeLine(line string) (string, []Detection) {
	var stripped []Detection
	cur := line
	for pass := 0; pass < maxStripPasses; pass++ {
		lead := leadingOffset(cur)
		if lead < 0 {
			break
		}
		det, ok := s.detectAt(cur, lead, true)
		if !ok || !det.Strippable {
			break
		}
		remainder := strings.TrimLeft(cur[lead+det.Length:], " \t")
		if strings.TrimSpace(remainder) == "" {
			// A marker with nothing after it is the line's whole content;
			// leave it for the caller to decide.
			break
		}
		stripped = append(stripped, det)
		cur = remainder
	}
	return cur, stripped
}

func (s *Sanitizer) detectAt(line string, idx int, leading bool) (Detection, bool) {
	var marker Marker
	length := 0
	found := false
	for _, m := range s.catalogue {
		if strings.HasPrefix(line[idx:], m.Glyph) {
			marker = m
			length = len(m.Glyph)
			found = true
			break
		}
	}
	if !found && leading {
		marker, length, found = emojiMarker(line, idx)
	}
	if !found {
		return Detection{}, false
	}

	// A variation selector rides along with its glyph.
	if r, size := utf8.DecodeRuneInString(line[idx+length:]); r == variationSelector {
		length += size
	}
	after := line[idx+length:]

	blocked := false
	if marker.Ambiguous {
		// "-force", "*args": glued to a word, part of a token.
		if r, _ := utf8.DecodeRuneInString(after); unicode.IsLetter(r) {
			blocked = true
		}
	}
	if idx > 0 {
		if r, _ := utf8.DecodeLastRuneInString(line[:idx]); unicode.IsPunct(r) {
			blocked = true
		}
	}

	confidence := marker.Confidence
	if utf8.RuneCountInString(strings.TrimSpace(after)) >= minContentRunes {
		confidence += contentBoost
	}
	if len(strings.Fields(line[:idx])) >= midSentenceWords {
		confidence -= midSentencePenalty
	}
	if s.locale != "" && marker.commonIn(s.locale) {
		confidence += localeBoost
	}
	excluded := matchExclusions(line, idx, idx+length)
	confidence -= float64(len(excluded)) * exclusionPenalty
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return Detection{
		Glyph:      marker.Glyph,
		Name:       marker.Name,
		Index:      idx,
		Length:     length,
		Confidence: confidence,
		Exclusions: excluded,
		Strippable: leading && !blocked && confidence >= s.threshold,
	}, true
}

// emojiMarker classifies a leading rune outside the catalogue as a
// decorative bullet when it is an emoji. Joined sequences are left alone;
// stripping half of one would leave garbage.
func emojiMarker(line string, idx int) (Marker, int, bool) {
	r, size := utf8.DecodeRuneInString(line[idx:])
	if r == utf8.RuneError || size == 0 {
		return Marker{}, 0, false
	}
	glyph := line[idx : idx+size]
	if _, err := gomoji.GetInfo(glyph); err != nil {
		return Marker{}, 0, false
	}
	length := size
	if vr, vs := utf8.DecodeRuneInString(line[idx+length:]); vr == variationSelector {
		length += vs
	}
	if jr, _ := utf8.DecodeRuneInString(line[idx+length:]); jr == zeroWidthJoiner {
		return Marker{}, 0, false
	}
	return Marker{Glyph: glyph, Name: "emoji", Confidence: emojiConfidence}, size, true
}

// leadingOffset returns the byte index of the first non-space rune, or -1
// for a blank line.
func leadingOffset(line string) int {
	for i, r := range line {
		if !unicode.IsSpace(r) {
			return i
		}
	}
	return -1
}

var lineBreakReplacer = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	"\v", "\n",
	" ", "\n",
	" ", "\n",
)

// splitLines normalizes every line-break flavor to \n and splits, trimming
// outer blank space so a trailing newline does not count as a break.
func splitLines(text string) []string {
	normalized := lineBreakReplacer.Replace(text)
	normalized = strings.Trim(normalized, "\n \t")
	if normalized == "" {
		return nil
	}
	return strings.Split(normalized, "\n")
}
