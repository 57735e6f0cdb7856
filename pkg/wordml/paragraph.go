package wordml

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docxml"
)

// ContainerKind classifies the structural container a paragraph sits in.
type ContainerKind string

const (
	ContainerBody    ContainerKind = "body"
	ContainerTable   ContainerKind = "table"
	ContainerTextBox ContainerKind = "textbox"
	ContainerHeader  ContainerKind = "header"
	ContainerFooter  ContainerKind = "footer"
)

// Location pins a paragraph to a part, container and ordinal for reports.
type Location struct {
	Part      string
	Container ContainerKind
	Index     int
}

func (l Location) String() string {
	if l.Container == "" {
		return fmt.Sprintf("%s#p%d", l.Part, l.Index)
	}
	return fmt.Sprintf("%s#p%d (%s)", l.Part, l.Index, l.Container)
}

// RefState classifies a paragraph's list reference.
type RefState int

const (
	// RefAbsent means the paragraph carries no numbering properties, or an
	// explicit numId of zero, which WordprocessingML uses to switch a list
	// off.
	RefAbsent RefState = iota
	// RefValid means numbering properties are present and well-formed.
	RefValid
	// RefMalformed means numbering properties exist but cannot be read: a
	// missing numId element, a missing or non-numeric value, or a level
	// outside the range the format allows.
	RefMalformed
)

func (s RefState) String() string {
	switch s {
	case RefValid:
		return "valid"
	case RefMalformed:
		return "malformed"
	default:
		return "absent"
	}
}

// NumberingRef is a paragraph's list binding: the list instance it points
// at and its indentation level.
type NumberingRef struct {
	NumID int
	Level int
}

// MaxListLevel is the highest level WordprocessingML allows (levels 0-8).
const MaxListLevel = 8

// Paragraph is a handle on one w:p element.
type Paragraph struct {
	node *docxml.Node
	loc  Location
}

// NewParagraph wraps an existing w:p node. Callers that scan a document get
// located paragraphs from Document instead.
func NewParagraph(node *docxml.Node) *Paragraph {
	return &Paragraph{node: node}
}

// Node returns the underlying w:p element.
func (p *Paragraph) Node() *docxml.Node {
	return p.node
}

// Location reports where the paragraph lives.
func (p *Paragraph) Location() Location {
	return p.loc
}

// Text returns the paragraph's visible text: every w:t descendant in
// document order. Paragraphs nested inside text boxes are excluded; a scan
// visits those as entries of their own.
func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, t := range p.TextNodes() {
		b.WriteString(t.TextContent())
	}
	return b.String()
}

// TextNodes returns the paragraph's w:t elements, excluding any nested
// paragraph's.
func (p *Paragraph) TextNodes() []*docxml.Node {
	return collectOwn(p.node, "t")
}

// Runs returns the paragraph's w:r elements, excluding any nested
// paragraph's.
func (p *Paragraph) Runs() []*docxml.Node {
	return collectOwn(p.node, "r")
}

// collectOwn gathers descendants with the given local name that belong to
// this paragraph, stopping at nested w:p boundaries.
func collectOwn(root *docxml.Node, local string) []*docxml.Node {
	var out []*docxml.Node
	var walk func(n *docxml.Node)
	walk = func(n *docxml.Node) {
		for _, c := range n.Children {
			if c.Is("p") {
				continue
			}
			if c.Is(local) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

// AddRun appends a run carrying text and returns the new w:r element. Text
// with leading or trailing whitespace gets xml:space="preserve" so the
// consumer does not collapse it.
func (p *Paragraph) AddRun(text string) *docxml.Node {
	run := buildRun(text, nil)
	p.node.AppendChild(run)
	return run
}

// SetText replaces the paragraph's text runs with a single run carrying
// text. Formatting of the first text run is kept; runs without text (for
// example drawing anchors) are left in place.
func (p *Paragraph) SetText(text string) {
	var rPr *docxml.Node
	for _, r := range p.Runs() {
		if r.Child("t") == nil {
			continue
		}
		if props := r.Child("rPr"); props != nil {
			rPr = props.Clone()
		}
		break
	}

	kept := make([]*docxml.Node, 0, len(p.node.Children))
	for _, c := range p.node.Children {
		if c.Is("r") && c.Child("t") != nil {
			continue
		}
		kept = append(kept, c)
	}
	p.node.Children = kept
	p.node.AppendChild(buildRun(text, rPr))
}

func buildRun(text string, rPr *docxml.Node) *docxml.Node {
	run := docxml.NewElement("r")
	if rPr != nil {
		run.AppendChild(rPr)
	}
	t := docxml.NewElement("t")
	if text != strings.TrimSpace(text) {
		t.Attr = append(t.Attr, xml.Attr{
			Name:  xml.Name{Local: "xml:space"},
			Value: "preserve",
		})
	}
	t.SetTextContent(text)
	run.AppendChild(t)
	return run
}

// properties returns the paragraph's w:pPr element or nil.
func (p *Paragraph) properties() *docxml.Node {
	return p.node.Child("pPr")
}

// ensureProperties returns the w:pPr element, creating it as the first
// child where the schema requires it.
func (p *Paragraph) ensureProperties() *docxml.Node {
	if props := p.properties(); props != nil {
		return props
	}
	props := docxml.NewElement("pPr")
	p.node.InsertChildAt(0, props)
	return props
}

// StyleID returns the paragraph style id, or "" when the paragraph uses
// the document default.
func (p *Paragraph) StyleID() string {
	props := p.properties()
	if props == nil {
		return ""
	}
	style := props.Child("pStyle")
	if style == nil {
		return ""
	}
	return style.AttrValue("val")
}

// SetStyleID sets the paragraph style. The pStyle element leads the pPr
// child sequence.
func (p *Paragraph) SetStyleID(styleID string) {
	props := p.ensureProperties()
	style := props.Child("pStyle")
	if style == nil {
		style = docxml.NewElement("pStyle")
		props.InsertChildAt(0, style)
	}
	style.SetAttr("val", styleID)
}

// NumberingRef reads the paragraph's list reference and classifies it.
// When the state is not RefValid the returned ref is zero.
func (p *Paragraph) NumberingRef() (NumberingRef, RefState) {
	props := p.properties()
	if props == nil {
		return NumberingRef{}, RefAbsent
	}
	numPr := props.Child("numPr")
	if numPr == nil {
		return NumberingRef{}, RefAbsent
	}

	idNode := numPr.Child("numId")
	if idNode == nil {
		return NumberingRef{}, RefMalformed
	}
	idRaw, ok := idNode.LookupAttr("val")
	if !ok {
		return NumberingRef{}, RefMalformed
	}
	numID, err := strconv.Atoi(strings.TrimSpace(idRaw))
	if err != nil || numID < 0 {
		return NumberingRef{}, RefMalformed
	}
	if numID == 0 {
		// numId 0 switches numbering off; not a live reference.
		return NumberingRef{}, RefAbsent
	}

	level := 0
	if lvlNode := numPr.Child("ilvl"); lvlNode != nil {
		lvlRaw, ok := lvlNode.LookupAttr("val")
		if !ok {
			return NumberingRef{}, RefMalformed
		}
		level, err = strconv.Atoi(strings.TrimSpace(lvlRaw))
		if err != nil || level < 0 || level > MaxListLevel {
			return NumberingRef{}, RefMalformed
		}
	}

	return NumberingRef{NumID: numID, Level: level}, RefValid
}

// SetNumbering writes the paragraph's list reference. An existing w:numPr
// is replaced in place; otherwise one is inserted directly after pStyle,
// matching the w:pPr child sequence.
func (p *Paragraph) SetNumbering(ref NumberingRef) {
	props := p.ensureProperties()

	numPr := docxml.NewElement("numPr")
	ilvl := docxml.NewElement("ilvl")
	ilvl.SetAttr("val", strconv.Itoa(ref.Level))
	numPr.AppendChild(ilvl)
	numID := docxml.NewElement("numId")
	numID.SetAttr("val", strconv.Itoa(ref.NumID))
	numPr.AppendChild(numID)

	if i := props.ChildIndex("numPr"); i >= 0 {
		props.Children[i] = numPr
		return
	}
	at := 0
	if i := props.ChildIndex("pStyle"); i >= 0 {
		at = i + 1
	}
	props.InsertChildAt(at, numPr)
}

// RemoveNumbering deletes the paragraph's numbering properties, reporting
// whether any existed.
func (p *Paragraph) RemoveNumbering() bool {
	props := p.properties()
	if props == nil {
		return false
	}
	numPr := props.Child("numPr")
	if numPr == nil {
		return false
	}
	return props.RemoveChild(numPr)
}

// HasDirectIndent reports whether the paragraph carries direct w:ind
// formatting that would override its level's indentation.
func (p *Paragraph) HasDirectIndent() bool {
	props := p.properties()
	return props != nil && props.Child("ind") != nil
}

// ClearDirectIndent removes direct w:ind formatting, reporting whether any
// was present. List paragraphs take their indentation from the level
// definition, so direct values only mask drift.
func (p *Paragraph) ClearDirectIndent() bool {
	props := p.properties()
	if props == nil {
		return false
	}
	ind := props.Child("ind")
	if ind == nil {
		return false
	}
	return props.RemoveChild(ind)
}
