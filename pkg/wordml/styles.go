package wordml

import (
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docxml"
)

// Style is one w:style definition.
type Style struct {
	node *docxml.Node
}

// Node returns the underlying w:style element.
func (s *Style) Node() *docxml.Node {
	return s.node
}

// ID returns the w:styleId attribute.
func (s *Style) ID() string {
	return s.node.AttrValue("styleId")
}

// Type returns the style type (paragraph, character, table, numbering).
func (s *Style) Type() string {
	return s.node.AttrValue("type")
}

// Name returns the style's display name.
func (s *Style) Name() string {
	name := s.node.Child("name")
	if name == nil {
		return ""
	}
	return name.AttrValue("val")
}

// BasedOn returns the parent style id, or "" for a root style.
func (s *Style) BasedOn() string {
	based := s.node.Child("basedOn")
	if based == nil {
		return ""
	}
	return based.AttrValue("val")
}

// SetBasedOn sets the parent style, or removes the link when id is empty.
// The basedOn element follows name in the w:style child sequence.
func (s *Style) SetBasedOn(id string) {
	based := s.node.Child("basedOn")
	if id == "" {
		if based != nil {
			s.node.RemoveChild(based)
		}
		return
	}
	if based == nil {
		based = docxml.NewElement("basedOn")
		at := 0
		if i := s.node.ChildIndex("name"); i >= 0 {
			at = i + 1
		}
		s.node.InsertChildAt(at, based)
	}
	based.SetAttr("val", id)
}

// Styles is a typed view over word/styles.xml.
type Styles struct {
	part *docxml.Part
}

// Root returns the w:styles root element.
func (st *Styles) Root() *docxml.Node {
	return st.part.Root
}

// All returns every style definition in part order.
func (st *Styles) All() []*Style {
	var out []*Style
	for _, c := range st.part.Root.Children {
		if c.Is("style") {
			out = append(out, &Style{node: c})
		}
	}
	return out
}

// Lookup returns the style with the given id.
func (st *Styles) Lookup(styleID string) (*Style, bool) {
	for _, s := range st.All() {
		if s.ID() == styleID {
			return s, true
		}
	}
	return nil, false
}

// Add appends a style definition to the part and returns its view.
func (st *Styles) Add(node *docxml.Node) *Style {
	st.part.Root.AppendChild(node)
	return &Style{node: node}
}
