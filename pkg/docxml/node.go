package docxml

import (
	"encoding/xml"
	"strings"
)

// Node is one element or text node in a parsed document part. Element nodes
// carry a name, attributes and children; text nodes carry only Text with
// IsText set. The zero value is an empty element.
type Node struct {
	Name     xml.Name
	Attr     []xml.Attr
	Children []*Node
	Text     string
	IsText   bool
}

// NewElement returns an element node in the WordprocessingML namespace.
// The encoder maps the namespace back to the root's declared prefix.
func NewElement(local string) *Node {
	return &Node{Name: xml.Name{Space: NamespaceWordML, Local: local}}
}

// NewElementNS returns an element node in an explicit namespace.
func NewElementNS(space, local string) *Node {
	return &Node{Name: xml.Name{Space: space, Local: local}}
}

// NewText returns a text node.
func NewText(text string) *Node {
	return &Node{IsText: true, Text: text}
}

// Is reports whether n is an element with the given local name in the
// WordprocessingML namespace. Unprefixed names are accepted too so the test
// still works on fragments parsed without namespace context, as is the
// literal "w" space the decoder produces when a damaged part uses the
// prefix without declaring it.
func (n *Node) Is(local string) bool {
	if n == nil || n.IsText {
		return false
	}
	if n.Name.Local != local && !strings.HasSuffix(n.Name.Local, ":"+local) {
		return false
	}
	switch n.Name.Space {
	case "", "w", NamespaceWordML:
		return true
	}
	return false
}

// IsNS reports whether n is an element with the given namespace and local
// name.
func (n *Node) IsNS(space, local string) bool {
	if n == nil || n.IsText {
		return false
	}
	return n.Name.Space == space && n.Name.Local == local
}

// LocalName returns the element's local name with any serialized prefix
// stripped, or "" for text nodes.
func (n *Node) LocalName() string {
	if n == nil || n.IsText {
		return ""
	}
	if i := strings.IndexByte(n.Name.Local, ':'); i >= 0 {
		return n.Name.Local[i+1:]
	}
	return n.Name.Local
}

// LookupAttr returns the value of the attribute with the given local name,
// ignoring its namespace prefix, and whether it was present.
func (n *Node) LookupAttr(local string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if attrLocal(a.Name) == local {
			return a.Value, true
		}
	}
	return "", false
}

// AttrValue returns the attribute value or "" when absent.
func (n *Node) AttrValue(local string) string {
	v, _ := n.LookupAttr(local)
	return v
}

// SetAttr sets (or replaces) the attribute with the given local name. New
// attributes are created in the WordprocessingML namespace, matching how
// w:val style attributes are declared in document parts.
func (n *Node) SetAttr(local, value string) {
	for i, a := range n.Attr {
		if attrLocal(a.Name) == local {
			n.Attr[i].Value = value
			return
		}
	}
	n.Attr = append(n.Attr, xml.Attr{
		Name:  xml.Name{Space: NamespaceWordML, Local: local},
		Value: value,
	})
}

// RemoveAttr deletes the attribute with the given local name, reporting
// whether it existed.
func (n *Node) RemoveAttr(local string) bool {
	for i, a := range n.Attr {
		if attrLocal(a.Name) == local {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return true
		}
	}
	return false
}

func attrLocal(name xml.Name) string {
	if i := strings.IndexByte(name.Local, ':'); i >= 0 {
		return name.Local[i+1:]
	}
	return name.Local
}

// AppendChild appends child to n.
func (n *Node) AppendChild(child *Node) {
	n.Children = append(n.Children, child)
}

// InsertChildAt inserts child at index i, clamping i into range.
func (n *Node) InsertChildAt(i int, child *Node) {
	if i < 0 {
		i = 0
	}
	if i > len(n.Children) {
		i = len(n.Children)
	}
	n.Children = append(n.Children, nil)
	copy(n.Children[i+1:], n.Children[i:])
	n.Children[i] = child
}

// RemoveChild removes the first occurrence of child, reporting whether it
// was found.
func (n *Node) RemoveChild(child *Node) bool {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			return true
		}
	}
	return false
}

// Child returns the first direct child element with the given local name.
func (n *Node) Child(local string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Is(local) {
			return c
		}
	}
	return nil
}

// ChildIndex returns the index of the first direct child element with the
// given local name, or -1.
func (n *Node) ChildIndex(local string) int {
	if n == nil {
		return -1
	}
	for i, c := range n.Children {
		if c.Is(local) {
			return i
		}
	}
	return -1
}

// FindFirst returns the first descendant element (depth-first, including n
// itself) with the given local name.
func (n *Node) FindFirst(local string) *Node {
	var match *Node
	Walk(n, func(d *Node) bool {
		if d.Is(local) {
			match = d
			return false
		}
		return true
	})
	return match
}

// FindAll returns every descendant element (depth-first, including n itself)
// with the given local name.
func (n *Node) FindAll(local string) []*Node {
	var out []*Node
	Walk(n, func(d *Node) bool {
		if d.Is(local) {
			out = append(out, d)
		}
		return true
	})
	return out
}

// TextContent concatenates the text of all descendant text nodes.
func (n *Node) TextContent() string {
	if n == nil {
		return ""
	}
	if n.IsText {
		return n.Text
	}
	var b strings.Builder
	for _, c := range n.Children {
		b.WriteString(c.TextContent())
	}
	return b.String()
}

// SetTextContent replaces n's children with a single text node, or clears
// them when text is empty.
func (n *Node) SetTextContent(text string) {
	n.Children = n.Children[:0]
	if text != "" {
		n.Children = append(n.Children, NewText(text))
	}
}

// Clone deep-copies the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	cloned := &Node{
		Name:   n.Name,
		Attr:   append([]xml.Attr(nil), n.Attr...),
		Text:   n.Text,
		IsText: n.IsText,
	}
	if len(n.Children) > 0 {
		cloned.Children = make([]*Node, 0, len(n.Children))
		for _, c := range n.Children {
			cloned.Children = append(cloned.Children, c.Clone())
		}
	}
	return cloned
}

// Walk visits n and its descendants in document order. Returning false from
// visit stops the walk.
func Walk(n *Node, visit func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !visit(n) {
		return false
	}
	for _, c := range n.Children {
		if !Walk(c, visit) {
			return false
		}
	}
	return true
}
