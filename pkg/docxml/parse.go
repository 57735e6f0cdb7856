package docxml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
)

// Part is one parsed document part: the XML prolog, the literal root start
// and end tags as they appeared on disk, and the mutable element tree under
// the root. Keeping the literal root tag means every namespace declaration
// and attribute order survives a round trip untouched.
type Part struct {
	Prolog    string
	RootStart string
	RootEnd   string
	Root      *Node
}

var xmlPrologPattern = regexp.MustCompile(`(?s)^\s*(<\?xml[^>]+\?>)`)

// ParsePart parses raw part bytes into a Part. The returned tree includes
// the root element node; its Children are the part's content.
func ParsePart(data []byte) (*Part, error) {
	text := string(data)

	prolog := ""
	if m := xmlPrologPattern.FindStringSubmatch(text); len(m) > 0 {
		prolog = m[1]
		text = strings.TrimSpace(text[len(m[0]):])
	}

	rootStart, rootEnd, err := extractRootTags(text)
	if err != nil {
		return nil, err
	}

	root, err := parseTree(text)
	if err != nil {
		return nil, err
	}

	return &Part{
		Prolog:    prolog,
		RootStart: rootStart,
		RootEnd:   rootEnd,
		Root:      root,
	}, nil
}

func parseTree(text string) (*Node, error) {
	dec := xml.NewDecoder(strings.NewReader(text))
	var stack []*Node
	var root *Node

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed part XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			node := &Node{Name: t.Name, Attr: append([]xml.Attr(nil), t.Attr...)}
			if len(stack) == 0 {
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			text := string([]byte(t))
			if text == "" {
				continue
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, NewText(text))
		}
	}

	if root == nil {
		return nil, errors.New("part has no root element")
	}
	return root, nil
}

// Encode serializes the part back to bytes. The tree is cloned, element and
// attribute namespaces are folded back into the prefixes the root declares,
// and any namespace a synthesized node needs that the root does not declare
// is added to the root start tag.
func (p *Part) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if p.Prolog != "" {
		buf.WriteString(p.Prolog)
		if !strings.HasSuffix(p.Prolog, "\n") {
			buf.WriteByte('\n')
		}
	}

	clone := p.Root.Clone()
	normalizeXMLNSAttrs(clone)
	foldLiteralPrefixes(clone)
	applyPrefixMap(clone, prefixMapFromRoot(p.Root))

	required := requiredNamespaces(prefixesUsed(clone), p.Root)
	rootStart := ensureRootStartNamespaces(p.RootStart, required)
	buf.WriteString(rootStart)

	enc := xml.NewEncoder(&buf)
	for _, child := range clone.Children {
		if err := encodeNode(enc, child); err != nil {
			return nil, err
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}

	buf.WriteString(p.RootEnd)
	return buf.Bytes(), nil
}

func encodeNode(enc *xml.Encoder, n *Node) error {
	if n.IsText {
		return enc.EncodeToken(xml.CharData([]byte(n.Text)))
	}
	start := xml.StartElement{Name: n.Name, Attr: n.Attr}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := encodeNode(enc, c); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// prefixMapFromRoot collects namespace URI -> declared prefix from the
// parsed root element attributes.
func prefixMapFromRoot(root *Node) map[string]string {
	if root == nil {
		return nil
	}
	out := make(map[string]string)
	for _, a := range root.Attr {
		switch {
		case a.Name.Space == "xmlns":
			out[a.Value] = a.Name.Local
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			out[a.Value] = ""
		case a.Name.Space == "" && strings.HasPrefix(a.Name.Local, "xmlns:"):
			out[a.Value] = strings.TrimPrefix(a.Name.Local, "xmlns:")
		}
	}
	return out
}

// namespaceDeclsFromRoot collects prefix -> namespace URI declarations.
func namespaceDeclsFromRoot(root *Node) map[string]string {
	if root == nil {
		return nil
	}
	out := make(map[string]string)
	for _, a := range root.Attr {
		switch {
		case a.Name.Space == "xmlns":
			out[a.Name.Local] = a.Value
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			out[""] = a.Value
		case a.Name.Space == "" && strings.HasPrefix(a.Name.Local, "xmlns:"):
			out[strings.TrimPrefix(a.Name.Local, "xmlns:")] = a.Value
		}
	}
	return out
}

// DeclaresNamespace reports whether the root element declares the given
// namespace URI, under any prefix or as the default namespace.
func DeclaresNamespace(root *Node, uri string) bool {
	for _, declared := range namespaceDeclsFromRoot(root) {
		if declared == uri {
			return true
		}
	}
	return false
}

// applyPrefixMap rewrites namespaced element and attribute names into the
// prefixed form the document serializes with (w:p rather than an inline
// xmlns declaration per element).
func applyPrefixMap(n *Node, prefixes map[string]string) {
	if n == nil || len(prefixes) == 0 {
		return
	}
	if !n.IsText {
		if prefix, ok := prefixes[n.Name.Space]; ok && prefix != "" {
			n.Name.Local = prefix + ":" + n.Name.Local
			n.Name.Space = ""
		}
		for i, a := range n.Attr {
			if isXMLNSAttr(a) {
				continue
			}
			if prefix, ok := prefixes[a.Name.Space]; ok && prefix != "" {
				a.Name.Local = prefix + ":" + a.Name.Local
				a.Name.Space = ""
				n.Attr[i] = a
			}
		}
	}
	for _, c := range n.Children {
		applyPrefixMap(c, prefixes)
	}
}

// foldLiteralPrefixes handles parts that use a prefix the root never
// declares. The decoder leaves the bare prefix in Name.Space; fold it back
// into the local name so the encoder does not emit it as an inline URI and
// so the missing declaration can be added to the root start tag.
func foldLiteralPrefixes(n *Node) {
	if n == nil {
		return
	}
	if !n.IsText {
		if isLiteralPrefix(n.Name.Space) {
			n.Name.Local = n.Name.Space + ":" + n.Name.Local
			n.Name.Space = ""
		}
		for i, a := range n.Attr {
			if isXMLNSAttr(a) {
				continue
			}
			if isLiteralPrefix(a.Name.Space) {
				a.Name.Local = a.Name.Space + ":" + a.Name.Local
				a.Name.Space = ""
				n.Attr[i] = a
			}
		}
	}
	for _, c := range n.Children {
		foldLiteralPrefixes(c)
	}
}

// isLiteralPrefix distinguishes an unresolved prefix from a real namespace
// URI, which always carries a scheme separator.
func isLiteralPrefix(space string) bool {
	return space != "" && space != "xmlns" && space != "xml" &&
		!strings.ContainsAny(space, ":/")
}

func isXMLNSAttr(a xml.Attr) bool {
	return a.Name.Space == "xmlns" ||
		(a.Name.Space == "" && a.Name.Local == "xmlns") ||
		(a.Name.Space == "" && strings.HasPrefix(a.Name.Local, "xmlns:"))
}

// normalizeXMLNSAttrs flattens parsed xmlns attributes back into literal
// xmlns:prefix names so the encoder does not invent its own declarations.
// Attributes in the predefined xml: namespace (xml:space) are folded the
// same way since that prefix needs no declaration.
func normalizeXMLNSAttrs(n *Node) {
	if n == nil {
		return
	}
	if !n.IsText {
		for i, a := range n.Attr {
			switch a.Name.Space {
			case "xmlns":
				a.Name.Space = ""
				if a.Name.Local == "" {
					a.Name.Local = "xmlns"
				} else {
					a.Name.Local = "xmlns:" + a.Name.Local
				}
				n.Attr[i] = a
			case "xml", NamespaceXML:
				a.Name.Space = ""
				a.Name.Local = "xml:" + a.Name.Local
				n.Attr[i] = a
			}
		}
	}
	for _, c := range n.Children {
		normalizeXMLNSAttrs(c)
	}
}

// prefixesUsed scans a prefixed tree for every namespace prefix referenced
// by an element or attribute name.
func prefixesUsed(n *Node) map[string]struct{} {
	out := make(map[string]struct{})
	Walk(n, func(d *Node) bool {
		if d.IsText {
			return true
		}
		if p := prefixOf(d.Name.Local); p != "" {
			out[p] = struct{}{}
		}
		for _, a := range d.Attr {
			if p := prefixOf(a.Name.Local); p != "" {
				out[p] = struct{}{}
			}
		}
		return true
	})
	return out
}

func prefixOf(name string) string {
	if name == "" || name == "xmlns" || strings.HasPrefix(name, "xmlns:") {
		return ""
	}
	if i := strings.IndexByte(name, ':'); i > 0 {
		return name[:i]
	}
	return ""
}

// requiredNamespaces resolves each used prefix to a URI, preferring the
// root's own declarations and falling back to the known WordprocessingML
// set. The main and relationship namespaces are always required.
func requiredNamespaces(prefixes map[string]struct{}, root *Node) map[string]string {
	declared := namespaceDeclsFromRoot(root)
	required := make(map[string]string)
	for prefix := range prefixes {
		if uri, ok := declared[prefix]; ok {
			required[prefix] = uri
			continue
		}
		if uri, ok := knownNamespaceURIs[prefix]; ok {
			required[prefix] = uri
		}
	}
	if _, ok := required["w"]; !ok {
		required["w"] = NamespaceWordML
	}
	if _, ok := required["r"]; !ok {
		required["r"] = NamespaceRelationships
	}
	return required
}

var xmlnsAttrPattern = regexp.MustCompile(`\s+xmlns(?::([A-Za-z0-9._-]+))?="([^"]+)"`)

// ensureRootStartNamespaces injects any missing required xmlns declarations
// into the literal root start tag.
func ensureRootStartNamespaces(rootStart string, required map[string]string) string {
	if len(required) == 0 || rootStart == "" {
		return rootStart
	}
	existing := make(map[string]string)
	for _, m := range xmlnsAttrPattern.FindAllStringSubmatch(rootStart, -1) {
		existing[m[1]] = m[2]
	}

	missing := make([]string, 0, len(required))
	for prefix, uri := range required {
		if cur, ok := existing[prefix]; ok && cur == uri {
			continue
		}
		if _, ok := existing[prefix]; ok {
			// Prefix declared with a different URI; leave the document's
			// declaration alone.
			continue
		}
		if uri != "" {
			missing = append(missing, prefix)
		}
	}
	if len(missing) == 0 {
		return rootStart
	}
	sort.Strings(missing)

	var b strings.Builder
	for _, prefix := range missing {
		uri := required[prefix]
		if prefix == "" {
			fmt.Fprintf(&b, " xmlns=%q", uri)
			continue
		}
		fmt.Fprintf(&b, " xmlns:%s=%q", prefix, uri)
	}
	insert := b.String()

	if i := strings.LastIndex(rootStart, "/>"); i != -1 && i == len(rootStart)-2 {
		return rootStart[:i] + insert + rootStart[i:]
	}
	if i := strings.LastIndex(rootStart, ">"); i != -1 {
		return rootStart[:i] + insert + rootStart[i:]
	}
	return rootStart
}

// extractRootTags pulls the literal root start and end tags out of the raw
// part text, skipping the prolog, comments and doctype.
func extractRootTags(text string) (string, string, error) {
	start, end, name, err := findRootStartTag(text)
	if err != nil {
		return "", "", err
	}
	rootStart := text[start : end+1]

	endTag := "</" + name + ">"
	endPos := strings.LastIndex(text, endTag)
	if endPos == -1 {
		return "", "", errors.New("root end tag not found")
	}
	return rootStart, text[endPos : endPos+len(endTag)], nil
}

func findRootStartTag(text string) (int, int, string, error) {
	i := 0
	for i < len(text) {
		idx := strings.IndexByte(text[i:], '<')
		if idx == -1 {
			return 0, 0, "", errors.New("root start tag not found")
		}
		i += idx
		switch {
		case strings.HasPrefix(text[i:], "<?"):
			end := strings.Index(text[i:], "?>")
			if end == -1 {
				return 0, 0, "", errors.New("processing instruction not terminated")
			}
			i += end + 2
			continue
		case strings.HasPrefix(text[i:], "<!--"):
			end := strings.Index(text[i:], "-->")
			if end == -1 {
				return 0, 0, "", errors.New("comment not terminated")
			}
			i += end + 3
			continue
		case strings.HasPrefix(text[i:], "<!"):
			end := strings.IndexByte(text[i:], '>')
			if end == -1 {
				return 0, 0, "", errors.New("doctype not terminated")
			}
			i += end + 1
			continue
		}
		break
	}

	start := i
	inQuote := byte(0)
	for i = start + 1; i < len(text); i++ {
		c := text[i]
		if inQuote != 0 {
			if c == inQuote {
				inQuote = 0
			}
			continue
		}
		if c == '"' || c == '\'' {
			inQuote = c
			continue
		}
		if c == '>' {
			name := rootTagName(text[start+1 : i])
			if name == "" {
				return 0, 0, "", errors.New("root tag name missing")
			}
			return start, i, name, nil
		}
	}
	return 0, 0, "", errors.New("root start tag not terminated")
}

func rootTagName(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw[0] == '/' {
		return ""
	}
	end := len(raw)
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case ' ', '\t', '\n', '\r', '/':
			end = i
			return raw[:end]
		}
	}
	return raw[:end]
}
