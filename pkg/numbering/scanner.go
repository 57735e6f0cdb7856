package numbering

import (
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/wordml"
)

// ScanEntry is one bullet-styled paragraph found during a sweep.
type ScanEntry struct {
	Paragraph *wordml.Paragraph
	Location  wordml.Location
	Ref       wordml.NumberingRef
	State     wordml.RefState

	// OriginalLevel is the list level a repair must keep the paragraph
	// at. For malformed references it is salvaged from whatever ilvl is
	// still readable.
	OriginalLevel int
}

// Scanner finds bullet-styled paragraphs everywhere in a document: body,
// table cells, text boxes, headers and footers.
type Scanner struct {
	styleID string
	logger  hclog.Logger
}

// NewScanner creates a scanner for paragraphs carrying styleID. An empty
// styleID means DefaultBulletStyleID.
func NewScanner(styleID string, logger hclog.Logger) *Scanner {
	if styleID == "" {
		styleID = DefaultBulletStyleID
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Scanner{styleID: styleID, logger: logger.Named("scanner")}
}

// Scan returns every bullet-styled paragraph with its reference state, in
// document order.
func (s *Scanner) Scan(doc *wordml.Document) []ScanEntry {
	var entries []ScanEntry
	for _, p := range doc.AllParagraphs() {
		if p.StyleID() != s.styleID {
			continue
		}
		ref, state := p.NumberingRef()
		entry := ScanEntry{
			Paragraph: p,
			Location:  p.Location(),
			Ref:       ref,
			State:     state,
		}
		switch state {
		case wordml.RefValid:
			entry.OriginalLevel = ref.Level
		case wordml.RefMalformed:
			entry.OriginalLevel = salvageLevel(p)
		}
		entries = append(entries, entry)
	}
	s.logger.Debug("scanned for bullet paragraphs", "style_id", s.styleID, "found", len(entries))
	return entries
}

// salvageLevel digs the ilvl out of a broken numbering reference so a
// repair can put the paragraph back at its original depth.
func salvageLevel(p *wordml.Paragraph) int {
	ilvl := p.Node().Child("pPr").Child("numPr").Child("ilvl")
	raw, ok := ilvl.LookupAttr("val")
	if !ok {
		return 0
	}
	level, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || level < 0 || level > wordml.MaxListLevel {
		return 0
	}
	return level
}
