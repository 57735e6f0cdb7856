package wordml

import (
	"fmt"
	"strings"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docpkg"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docxml"
)

// Document is a parsed, mutable view over one package: the main body, any
// headers and footers, and the numbering and style parts when present.
// Mutations happen on the parsed trees; Save encodes them back into the
// package.
type Document struct {
	pkg       *docpkg.Package
	parts     map[string]*docxml.Part
	order     []string
	numbering *Numbering
	styles    *Styles
}

// Load parses pkg's structural parts plus the numbering and style parts.
func Load(pkg *docpkg.Package) (*Document, error) {
	d := &Document{
		pkg:   pkg,
		parts: make(map[string]*docxml.Part),
	}
	for _, name := range pkg.StructuralParts() {
		raw, ok := pkg.Part(name)
		if !ok {
			continue
		}
		part, err := docxml.ParsePart(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		d.parts[name] = part
		d.order = append(d.order, name)
	}
	if _, ok := d.parts[docpkg.PartDocument]; !ok {
		return nil, fmt.Errorf("package is missing %s", docpkg.PartDocument)
	}

	if raw, ok := pkg.Part(docpkg.PartNumbering); ok {
		part, err := docxml.ParsePart(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", docpkg.PartNumbering, err)
		}
		d.numbering = &Numbering{part: part}
	}
	if raw, ok := pkg.Part(docpkg.PartStyles); ok {
		part, err := docxml.ParsePart(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", docpkg.PartStyles, err)
		}
		d.styles = &Styles{part: part}
	}
	return d, nil
}

// Package returns the underlying package.
func (d *Document) Package() *docpkg.Package {
	return d.pkg
}

// Part returns the parsed tree for a structural part.
func (d *Document) Part(name string) (*docxml.Part, bool) {
	part, ok := d.parts[name]
	return part, ok
}

// Body returns the w:body element of the main document part.
func (d *Document) Body() *docxml.Node {
	return d.parts[docpkg.PartDocument].Root.Child("body")
}

// AllParagraphs returns every paragraph in every structural part, in scan
// order: body first (descending into tables and text boxes), then headers
// and footers.
func (d *Document) AllParagraphs() []*Paragraph {
	var out []*Paragraph
	for _, name := range d.order {
		out = append(out, collectParagraphs(d.parts[name].Root, name, baseContainer(name))...)
	}
	return out
}

// BodyParagraphs returns the main document part's paragraphs only.
func (d *Document) BodyParagraphs() []*Paragraph {
	return collectParagraphs(d.parts[docpkg.PartDocument].Root, docpkg.PartDocument, ContainerBody)
}

func baseContainer(partName string) ContainerKind {
	switch {
	case strings.HasPrefix(partName, "word/header"):
		return ContainerHeader
	case strings.HasPrefix(partName, "word/footer"):
		return ContainerFooter
	default:
		return ContainerBody
	}
}

// collectParagraphs walks a part tree tracking the innermost structural
// container, so a paragraph inside a table cell inside a header reports as
// a table paragraph of that header part.
func collectParagraphs(root *docxml.Node, partName string, base ContainerKind) []*Paragraph {
	var out []*Paragraph
	var walk func(n *docxml.Node, container ContainerKind)
	walk = func(n *docxml.Node, container ContainerKind) {
		for _, c := range n.Children {
			switch {
			case c.Is("p"):
				out = append(out, &Paragraph{
					node: c,
					loc:  Location{Part: partName, Container: container, Index: len(out)},
				})
				walk(c, container)
			case c.Is("tc"):
				walk(c, ContainerTable)
			case c.Is("txbxContent"):
				walk(c, ContainerTextBox)
			default:
				walk(c, container)
			}
		}
	}
	walk(root, base)
	return out
}

// AddParagraph appends a paragraph with the given text to the body,
// keeping any trailing w:sectPr last as the schema requires.
func (d *Document) AddParagraph(text string) *Paragraph {
	body := d.Body()
	node := docxml.NewElement("p")
	if text != "" {
		node.AppendChild(buildRun(text, nil))
	}

	index := len(body.FindAll("p"))
	at := len(body.Children)
	if at > 0 && body.Children[at-1].Is("sectPr") {
		at--
	}
	body.InsertChildAt(at, node)

	return &Paragraph{
		node: node,
		loc:  Location{Part: docpkg.PartDocument, Container: ContainerBody, Index: index},
	}
}

// Numbering returns the numbering part view, when the part exists.
func (d *Document) Numbering() (*Numbering, bool) {
	return d.numbering, d.numbering != nil
}

// EnsureNumbering returns the numbering part view, creating an empty
// numbering part (with its content type and relationship) on first use.
func (d *Document) EnsureNumbering() (*Numbering, error) {
	if d.numbering != nil {
		return d.numbering, nil
	}
	if err := d.pkg.EnsureNumberingPart(); err != nil {
		return nil, err
	}
	raw, ok := d.pkg.Part(docpkg.PartNumbering)
	if !ok {
		return nil, fmt.Errorf("numbering part missing after creation")
	}
	part, err := docxml.ParsePart(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", docpkg.PartNumbering, err)
	}
	d.numbering = &Numbering{part: part}
	return d.numbering, nil
}

// Styles returns the style part view, when the part exists.
func (d *Document) Styles() (*Styles, bool) {
	return d.styles, d.styles != nil
}

// Save encodes every parsed part back into the package.
func (d *Document) Save() error {
	for _, name := range d.order {
		data, err := d.parts[name].Encode()
		if err != nil {
			return fmt.Errorf("encoding %s: %w", name, err)
		}
		d.pkg.SetPart(name, data)
	}
	if d.numbering != nil {
		data, err := d.numbering.part.Encode()
		if err != nil {
			return fmt.Errorf("encoding %s: %w", docpkg.PartNumbering, err)
		}
		d.pkg.SetPart(docpkg.PartNumbering, data)
	}
	if d.styles != nil {
		data, err := d.styles.part.Encode()
		if err != nil {
			return fmt.Errorf("encoding %s: %w", docpkg.PartStyles, err)
		}
		d.pkg.SetPart(docpkg.PartStyles, data)
	}
	return nil
}
