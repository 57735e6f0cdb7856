// Package docpkg reads and writes word-processing document packages: the
// ZIP container holding a document's structural parts (main content,
// numbering, styles, settings, headers and footers).
//
// A Package is a byte-level view. Parts the engine never touches round-trip
// byte for byte, in their original archive order, so repackaging a document
// cannot disturb content outside the numbering subsystem. Filesystem access
// goes through afero so callers and tests can run fully in memory.
package docpkg

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// Well-known part names.
const (
	PartContentTypes = "[Content_Types].xml"
	PartRootRels     = "_rels/.rels"
	PartDocument     = "word/document.xml"
	PartDocumentRels = "word/_rels/document.xml.rels"
	PartNumbering    = "word/numbering.xml"
	PartStyles       = "word/styles.xml"
	PartSettings     = "word/settings.xml"
)

// Relationship and content types for parts the engine can create.
const (
	RelTypeNumbering = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering"

	contentTypeNumbering = "application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml"
)

// Package is an opened document package: an ordered set of named parts.
type Package struct {
	names []string
	parts map[string][]byte
}

// Open reads a package from a file on the given filesystem.
func Open(fs afero.Fs, path string) (*Package, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read package %s: %w", path, err)
	}
	pkg, err := FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open package %s: %w", path, err)
	}
	return pkg, nil
}

// FromBytes parses a package from raw ZIP bytes.
func FromBytes(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("not a document package: %w", err)
	}

	pkg := &Package{parts: make(map[string][]byte, len(zr.File))}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open part %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read part %s: %w", f.Name, err)
		}
		if _, dup := pkg.parts[f.Name]; !dup {
			pkg.names = append(pkg.names, f.Name)
		}
		pkg.parts[f.Name] = content
	}

	if !pkg.HasPart(PartDocument) {
		return nil, fmt.Errorf("package has no %s part", PartDocument)
	}
	return pkg, nil
}

// Part returns a part's bytes and whether the part exists.
func (p *Package) Part(name string) ([]byte, bool) {
	data, ok := p.parts[name]
	return data, ok
}

// HasPart reports whether the named part exists.
func (p *Package) HasPart(name string) bool {
	_, ok := p.parts[name]
	return ok
}

// SetPart stores a part, appending it to the archive order when new.
func (p *Package) SetPart(name string, data []byte) {
	if _, ok := p.parts[name]; !ok {
		p.names = append(p.names, name)
	}
	p.parts[name] = data
}

// RemovePart deletes a part, reporting whether it existed.
func (p *Package) RemovePart(name string) bool {
	if _, ok := p.parts[name]; !ok {
		return false
	}
	delete(p.parts, name)
	for i, n := range p.names {
		if n == name {
			p.names = append(p.names[:i], p.names[i+1:]...)
			break
		}
	}
	return true
}

// PartNames returns part names in archive order.
func (p *Package) PartNames() []string {
	return append([]string(nil), p.names...)
}

var headerFooterPattern = regexp.MustCompile(`^word/(header|footer)\d+\.xml$`)

// HeaderFooterParts returns the names of all header and footer parts,
// sorted for deterministic scans.
func (p *Package) HeaderFooterParts() []string {
	var out []string
	for name := range p.parts {
		if headerFooterPattern.MatchString(name) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// StructuralParts returns the parts a structural sweep covers: the main
// document plus every header and footer part present.
func (p *Package) StructuralParts() []string {
	out := []string{PartDocument}
	return append(out, p.HeaderFooterParts()...)
}

// EnsureNumberingPart creates an empty numbering part on first touch:
// the part itself, its content-type override and the document relationship.
// The created part holds a bare w:numbering root with no definitions, so
// initialization alone never introduces placeholder content. Calling it
// again is a no-op.
func (p *Package) EnsureNumberingPart() error {
	if p.HasPart(PartNumbering) {
		return nil
	}

	p.SetPart(PartNumbering, []byte(emptyNumberingPart))
	if err := p.ensureContentTypeOverride("/word/numbering.xml", contentTypeNumbering); err != nil {
		return err
	}
	if _, err := p.ensureDocumentRelationship(RelTypeNumbering, "numbering.xml"); err != nil {
		return err
	}
	return nil
}

const emptyNumberingPart = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:numbering xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"></w:numbering>`

// ensureContentTypeOverride patches [Content_Types].xml with an Override
// entry for the part when one is not already present.
func (p *Package) ensureContentTypeOverride(partName, contentType string) error {
	data, ok := p.Part(PartContentTypes)
	if !ok {
		return fmt.Errorf("package has no %s part", PartContentTypes)
	}
	text := string(data)
	if strings.Contains(text, `PartName="`+partName+`"`) {
		return nil
	}
	closing := strings.LastIndex(text, "</Types>")
	if closing == -1 {
		return fmt.Errorf("malformed %s: no closing Types element", PartContentTypes)
	}
	entry := fmt.Sprintf(`<Override PartName=%q ContentType=%q/>`, partName, contentType)
	p.SetPart(PartContentTypes, []byte(text[:closing]+entry+text[closing:]))
	return nil
}

var relationshipIDPattern = regexp.MustCompile(`Id="rId(\d+)"`)

// ensureDocumentRelationship adds a relationship from the main document part
// to target, returning the relationship id. An existing relationship with
// the same target is reused.
func (p *Package) ensureDocumentRelationship(relType, target string) (string, error) {
	data, ok := p.Part(PartDocumentRels)
	if !ok {
		return "", fmt.Errorf("package has no %s part", PartDocumentRels)
	}
	text := string(data)
	if i := strings.Index(text, `Target="`+target+`"`); i != -1 {
		// Walk back to this relationship's Id attribute.
		head := text[:i]
		if m := relationshipIDPattern.FindAllStringSubmatch(head, -1); len(m) > 0 {
			return "rId" + m[len(m)-1][1], nil
		}
		return "", nil
	}

	next := 1
	for _, m := range relationshipIDPattern.FindAllStringSubmatch(text, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= next {
			next = n + 1
		}
	}
	id := fmt.Sprintf("rId%d", next)

	closing := strings.LastIndex(text, "</Relationships>")
	if closing == -1 {
		return "", fmt.Errorf("malformed %s: no closing Relationships element", PartDocumentRels)
	}
	entry := fmt.Sprintf(`<Relationship Id=%q Type=%q Target=%q/>`, id, relType, target)
	p.SetPart(PartDocumentRels, []byte(text[:closing]+entry+text[closing:]))
	return id, nil
}

// Bytes serializes the package back to ZIP bytes, parts in archive order.
func (p *Package) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range p.names {
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("failed to create part %s: %w", name, err)
		}
		if _, err := w.Write(p.parts[name]); err != nil {
			return nil, fmt.Errorf("failed to write part %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize package: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the package to a file on the given filesystem.
func (p *Package) Save(fs afero.Fs, path string) error {
	data, err := p.Bytes()
	if err != nil {
		return err
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save package %s: %w", path, err)
	}
	return nil
}
