package audit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docpkg"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docxml"
)

const (
	// defaultBulletStyleID matches the engine's reserved style. The
	// auditor keeps its own copy so it stays usable against packages
	// with no engine involvement.
	defaultBulletStyleID = "SculptorBullet"

	// maxLevel is the highest list level WordprocessingML allows.
	maxLevel = 8
)

// Config holds configuration for an Auditor.
type Config struct {
	// BulletStyleID is the paragraph style whose numbering references
	// the audit verifies. Defaults to SculptorBullet.
	BulletStyleID string

	// Logger
	Logger hclog.Logger
}

// Auditor inspects a document package part by part.
type Auditor struct {
	styleID string
	logger  hclog.Logger
}

// New creates an auditor from cfg. A nil cfg uses all defaults.
func New(cfg *Config) *Auditor {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.BulletStyleID == "" {
		cfg.BulletStyleID = defaultBulletStyleID
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}
	return &Auditor{
		styleID: cfg.BulletStyleID,
		logger:  cfg.Logger.Named("audit"),
	}
}

// Analyze inspects the package and returns every structural issue found,
// in part order. Findings are data; nothing is modified.
func (a *Auditor) Analyze(pkg *docpkg.Package) ([]Issue, error) {
	if pkg == nil {
		return nil, fmt.Errorf("package is required")
	}

	var issues []Issue

	for _, name := range pkg.StructuralParts() {
		root, issue := a.parseRoot(pkg, name, true)
		if issue != nil {
			issues = append(issues, *issue)
			continue
		}
		issues = append(issues, a.checkNamespace(name, root)...)
		issues = append(issues, a.checkParagraphs(name, root)...)
	}

	if root, issue := a.parseRoot(pkg, docpkg.PartNumbering, false); issue != nil {
		issues = append(issues, *issue)
	} else if root != nil {
		issues = append(issues, a.checkNamespace(docpkg.PartNumbering, root)...)
		issues = append(issues, a.checkNumbering(docpkg.PartNumbering, root)...)
	}

	if root, issue := a.parseRoot(pkg, docpkg.PartStyles, false); issue != nil {
		issues = append(issues, *issue)
	} else if root != nil {
		issues = append(issues, a.checkNamespace(docpkg.PartStyles, root)...)
		issues = append(issues, a.checkStyles(docpkg.PartStyles, root)...)
	} else {
		issues = append(issues, Issue{
			Kind:        IssueMissingBulletStyle,
			Part:        docpkg.PartStyles,
			Path:        docpkg.PartStyles,
			Description: "package has no styles part",
			Severity:    SeverityHigh,
			Remedy:      "rebuild the document from a valid template",
		})
	}

	if root, issue := a.parseRoot(pkg, docpkg.PartSettings, false); issue != nil {
		issues = append(issues, *issue)
	} else if root != nil {
		issues = append(issues, a.checkNamespace(docpkg.PartSettings, root)...)
	}

	a.logger.Debug("analysis complete", "style_id", a.styleID, "issues", len(issues))
	return issues, nil
}

// parseRoot loads one part. required distinguishes a missing main part
// (an issue) from an optional part that simply is not there.
func (a *Auditor) parseRoot(pkg *docpkg.Package, name string, required bool) (*docxml.Node, *Issue) {
	data, ok := pkg.Part(name)
	if !ok {
		if !required {
			return nil, nil
		}
		return nil, &Issue{
			Kind:        IssueUnparsablePart,
			Part:        name,
			Path:        name,
			Description: "part is missing from the package",
			Severity:    SeverityHigh,
			Remedy:      "rebuild the document from a valid template",
		}
	}
	part, err := docxml.ParsePart(data)
	if err != nil {
		return nil, &Issue{
			Kind:        IssueUnparsablePart,
			Part:        name,
			Path:        name,
			Description: fmt.Sprintf("part cannot be parsed: %v", err),
			Severity:    SeverityHigh,
			Remedy:      "restore the part from a backup or rebuild the document",
		}
	}
	return part.Root, nil
}

func (a *Auditor) checkNamespace(part string, root *docxml.Node) []Issue {
	if docxml.DeclaresNamespace(root, docxml.NamespaceWordML) {
		return nil
	}
	return []Issue{{
		Kind:        IssueMissingNamespace,
		Part:        part,
		Path:        part,
		Description: "root element does not declare the main WordprocessingML namespace",
		Severity:    SeverityHigh,
		AutoFixable: true,
		Remedy:      "re-encode the part with the declaration in place",
	}}
}

// checkParagraphs verifies that every bullet-styled paragraph carries a
// complete numbering reference: a positive numeric numId and an explicit
// in-range level.
func (a *Auditor) checkParagraphs(part string, root *docxml.Node) []Issue {
	var issues []Issue
	for i, p := range root.FindAll("p") {
		pPr := p.Child("pPr")
		if pPr.Child("pStyle").AttrValue("val") != a.styleID {
			continue
		}
		path := fmt.Sprintf("%s#p[%d]", part, i)

		numPr := pPr.Child("numPr")
		if numPr == nil {
			issues = append(issues, Issue{
				Kind:        IssueMalformedReference,
				Part:        part,
				Path:        path,
				Description: "bullet-styled paragraph has no numbering reference",
				Severity:    SeverityHigh,
				Remedy:      "rebind the paragraph to a list instance",
			})
			continue
		}

		numID := numPr.Child("numId")
		switch {
		case numID == nil:
			issues = append(issues, Issue{
				Kind:        IssueMalformedReference,
				Part:        part,
				Path:        path,
				Description: "numbering reference has no numId",
				Severity:    SeverityHigh,
				Remedy:      "rebind the paragraph to a list instance",
			})
		default:
			raw := strings.TrimSpace(numID.AttrValue("val"))
			if v, err := strconv.Atoi(raw); err != nil || v < 1 {
				issues = append(issues, Issue{
					Kind:        IssueMalformedReference,
					Part:        part,
					Path:        path,
					Description: fmt.Sprintf("numId %q is not a positive number", raw),
					Severity:    SeverityHigh,
					Remedy:      "rebind the paragraph to a list instance",
				})
			}
		}

		ilvl := numPr.Child("ilvl")
		switch {
		case ilvl == nil:
			issues = append(issues, Issue{
				Kind:        IssueMalformedReference,
				Part:        part,
				Path:        path,
				Description: "numbering reference has no explicit level",
				Severity:    SeverityLow,
				AutoFixable: true,
				Remedy:      "write the default level 0 explicitly",
			})
		default:
			raw := strings.TrimSpace(ilvl.AttrValue("val"))
			if v, err := strconv.Atoi(raw); err != nil || v < 0 || v > maxLevel {
				issues = append(issues, Issue{
					Kind:        IssueMalformedReference,
					Part:        part,
					Path:        path,
					Description: fmt.Sprintf("level %q is outside 0-%d", raw, maxLevel),
					Severity:    SeverityMedium,
					Remedy:      fmt.Sprintf("set a level between 0 and %d", maxLevel),
				})
			}
		}
	}
	return issues
}

// checkNumbering verifies instance/abstract integrity inside the
// numbering part.
func (a *Auditor) checkNumbering(part string, root *docxml.Node) []Issue {
	var issues []Issue
	abstracts := root.FindAll("abstractNum")
	instances := root.FindAll("num")

	declared := make(map[string]bool)
	for _, abstract := range abstracts {
		id := abstract.AttrValue("abstractNumId")
		path := fmt.Sprintf("%s#abstractNum[%s]", part, id)
		if id == "" {
			issues = append(issues, Issue{
				Kind:        IssueOrphanedAbstract,
				Part:        part,
				Path:        path,
				Description: "abstract definition has no abstractNumId and can never be referenced",
				Severity:    SeverityMedium,
				Remedy:      "assign it an id or remove it",
			})
			continue
		}
		if declared[id] {
			issues = append(issues, Issue{
				Kind:        IssueDuplicateID,
				Part:        part,
				Path:        path,
				Description: fmt.Sprintf("abstractNumId %s is declared twice", id),
				Severity:    SeverityHigh,
				Remedy:      "renumber one definition and update its references",
			})
		}
		declared[id] = true
		if abstract.Child("lvl") == nil {
			issues = append(issues, Issue{
				Kind:        IssueEmptyAbstract,
				Part:        part,
				Path:        path,
				Description: "abstract definition has no level entries",
				Severity:    SeverityMedium,
				AutoFixable: true,
				Remedy:      "add a default bullet level",
			})
		}
	}

	referenced := make(map[string]bool)
	seenInstance := make(map[string]bool)
	for _, instance := range instances {
		id := instance.AttrValue("numId")
		path := fmt.Sprintf("%s#num[%s]", part, id)
		if id != "" {
			if seenInstance[id] {
				issues = append(issues, Issue{
					Kind:        IssueDuplicateID,
					Part:        part,
					Path:        path,
					Description: fmt.Sprintf("numId %s is declared twice", id),
					Severity:    SeverityHigh,
					Remedy:      "renumber one instance and update its references",
				})
			}
			seenInstance[id] = true
		}

		ref := instance.Child("abstractNumId")
		switch {
		case ref == nil:
			issues = append(issues, Issue{
				Kind:        IssueDanglingInstance,
				Part:        part,
				Path:        path,
				Description: "list instance has no abstractNumId",
				Severity:    SeverityHigh,
				Remedy:      "point the instance at an abstract definition",
			})
		default:
			target := ref.AttrValue("val")
			referenced[target] = true
			if !declared[target] {
				issues = append(issues, Issue{
					Kind:        IssueDanglingInstance,
					Part:        part,
					Path:        path,
					Description: fmt.Sprintf("abstract definition %s does not exist", target),
					Severity:    SeverityHigh,
					AutoFixable: true,
					Remedy:      "create the missing definition with a default bullet level",
				})
			}
		}
	}

	for _, abstract := range abstracts {
		id := abstract.AttrValue("abstractNumId")
		if id == "" || referenced[id] {
			continue
		}
		issues = append(issues, Issue{
			Kind:        IssueOrphanedAbstract,
			Part:        part,
			Path:        fmt.Sprintf("%s#abstractNum[%s]", part, id),
			Description: fmt.Sprintf("abstract definition %s is used by no instance", id),
			Severity:    SeverityLow,
			Remedy:      "remove it or add an instance that uses it",
		})
	}

	return issues
}

// checkStyles verifies styleId uniqueness and the presence of the bullet
// style definition.
func (a *Auditor) checkStyles(part string, root *docxml.Node) []Issue {
	var issues []Issue
	seen := make(map[string]bool)
	found := false
	for _, style := range root.FindAll("style") {
		id := style.AttrValue("styleId")
		if id == "" {
			continue
		}
		if seen[id] {
			issues = append(issues, Issue{
				Kind:        IssueDuplicateID,
				Part:        part,
				Path:        fmt.Sprintf("%s#style[%s]", part, id),
				Description: fmt.Sprintf("styleId %s is declared twice", id),
				Severity:    SeverityHigh,
				Remedy:      "rename one definition and update its references",
			})
		}
		seen[id] = true
		if id == a.styleID && style.AttrValue("type") == "paragraph" {
			found = true
		}
	}
	if !found {
		issues = append(issues, Issue{
			Kind:        IssueMissingBulletStyle,
			Part:        part,
			Path:        part,
			Description: fmt.Sprintf("paragraph style %q is not defined", a.styleID),
			Severity:    SeverityMedium,
			AutoFixable: true,
			Remedy:      "create the bullet style definition",
		})
	}
	return issues
}
