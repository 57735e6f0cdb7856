package audit

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/hashicorp/go-multierror"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docpkg"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docxml"
)

// RepairAction records what Repair decided about one issue: whether a fix
// was applied and what it did, or why the issue was left alone.
type RepairAction struct {
	Issue   Issue  `json:"issue"`
	Applied bool   `json:"applied"`
	Action  string `json:"action"`
}

func (ra RepairAction) String() string {
	marker := "skipped"
	if ra.Applied {
		marker = "fixed"
	}
	return fmt.Sprintf("[%s] %s %s: %s", marker, ra.Issue.Kind, ra.Issue.Path, ra.Action)
}

var (
	paragraphPathPattern = regexp.MustCompile(`#p\[(\d+)\]$`)
	idPathPattern        = regexp.MustCompile(`#(?:abstractNum|num)\[([^\]]*)\]$`)
)

// Repair applies every auto-fixable issue to the package in place and
// reports, per issue, what was done. Issues not marked auto-fixable are
// surfaced untouched; guessing at them risks making the document worse.
// Parts are parsed once, patched for all their issues, and written back.
func (a *Auditor) Repair(pkg *docpkg.Package, issues []Issue) ([]RepairAction, error) {
	if pkg == nil {
		return nil, fmt.Errorf("package is required")
	}

	parts := make(map[string]*docxml.Part)
	dirty := make(map[string]bool)
	var errs *multierror.Error

	loadPart := func(name string) (*docxml.Part, error) {
		if part, ok := parts[name]; ok {
			return part, nil
		}
		data, ok := pkg.Part(name)
		if !ok {
			return nil, fmt.Errorf("part %s is missing", name)
		}
		part, err := docxml.ParsePart(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		parts[name] = part
		return part, nil
	}

	actions := make([]RepairAction, 0, len(issues))
	for _, issue := range issues {
		if !issue.AutoFixable {
			actions = append(actions, RepairAction{
				Issue:  issue,
				Action: "not auto-fixable; left for manual review",
			})
			continue
		}

		part, err := loadPart(issue.Part)
		if err != nil {
			errs = multierror.Append(errs, err)
			actions = append(actions, RepairAction{
				Issue:  issue,
				Action: fmt.Sprintf("could not load part: %v", err),
			})
			continue
		}

		action, applied := a.applyFix(part, issue)
		if applied {
			dirty[issue.Part] = true
		}
		actions = append(actions, RepairAction{
			Issue:   issue,
			Applied: applied,
			Action:  action,
		})
	}

	for name := range dirty {
		data, err := parts[name].Encode()
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("encoding %s: %w", name, err))
			continue
		}
		pkg.SetPart(name, data)
	}

	applied := 0
	for _, act := range actions {
		if act.Applied {
			applied++
		}
	}
	a.logger.Info("repair complete",
		"issues", len(issues),
		"applied", applied,
		"parts_rewritten", len(dirty),
	)
	return actions, errs.ErrorOrNil()
}

// applyFix patches one issue inside an already-parsed part. It returns a
// human-readable action and whether the tree changed.
func (a *Auditor) applyFix(part *docxml.Part, issue Issue) (string, bool) {
	switch issue.Kind {
	case IssueMissingNamespace:
		// Encode re-declares every required namespace on the root start
		// tag, so marking the part dirty is the whole fix.
		return "re-encoded the part with required namespace declarations", true

	case IssueMalformedReference:
		return fixMissingLevel(part, issue)

	case IssueEmptyAbstract:
		return fixEmptyAbstract(part, issue)

	case IssueDanglingInstance:
		return fixDanglingInstance(part, issue)

	case IssueMissingBulletStyle:
		return fixMissingStyle(part, a.styleID)

	default:
		return fmt.Sprintf("no fix implemented for %s", issue.Kind), false
	}
}

// fixMissingLevel writes an explicit level 0 into a numbering reference
// that has none. This is the only malformed-reference variant flagged
// auto-fixable; anything touching the numId itself needs the engine's
// reconciliation pass, which knows which list to rebind to.
func fixMissingLevel(part *docxml.Part, issue Issue) (string, bool) {
	m := paragraphPathPattern.FindStringSubmatch(issue.Path)
	if m == nil {
		return "paragraph path is unreadable", false
	}
	index, err := strconv.Atoi(m[1])
	if err != nil {
		return "paragraph path is unreadable", false
	}

	paragraphs := part.Root.FindAll("p")
	if index < 0 || index >= len(paragraphs) {
		return fmt.Sprintf("paragraph %d no longer exists", index), false
	}
	numPr := paragraphs[index].Child("pPr").Child("numPr")
	if numPr == nil {
		return "numbering reference no longer exists", false
	}
	if numPr.Child("ilvl") != nil {
		return "level already present", false
	}

	ilvl := docxml.NewElement("ilvl")
	ilvl.SetAttr("val", "0")
	numPr.InsertChildAt(0, ilvl)
	return "wrote explicit level 0", true
}

// fixEmptyAbstract gives a level-less abstract definition a default bullet
// level so instances referencing it render.
func fixEmptyAbstract(part *docxml.Part, issue Issue) (string, bool) {
	id := pathID(issue.Path)
	abstract := findByIntAttr(part.Root, "abstractNum", "abstractNumId", id)
	if abstract == nil {
		return fmt.Sprintf("abstract definition %s no longer exists", id), false
	}
	if abstract.Child("lvl") != nil {
		return "definition already has a level", false
	}
	abstract.AppendChild(defaultBulletLevel())
	return "added a default bullet level", true
}

// fixDanglingInstance creates the abstract definition a list instance
// references but the part never declares.
func fixDanglingInstance(part *docxml.Part, issue Issue) (string, bool) {
	id := pathID(issue.Path)
	instance := findByIntAttr(part.Root, "num", "numId", id)
	if instance == nil {
		return fmt.Sprintf("list instance %s no longer exists", id), false
	}
	ref := instance.Child("abstractNumId")
	if ref == nil {
		return "instance has no abstractNumId to satisfy", false
	}
	target := ref.AttrValue("val")
	if target == "" {
		return "instance references an empty abstract id", false
	}
	if findByIntAttr(part.Root, "abstractNum", "abstractNumId", target) != nil {
		return "abstract definition already exists", false
	}

	abstract := docxml.NewElement("abstractNum")
	abstract.SetAttr("abstractNumId", target)
	abstract.AppendChild(defaultBulletLevel())

	// Schema order: every abstractNum precedes the first num.
	root := part.Root
	if i := root.ChildIndex("num"); i >= 0 {
		root.InsertChildAt(i, abstract)
	} else {
		root.AppendChild(abstract)
	}
	return fmt.Sprintf("created abstract definition %s with a default bullet level", target), true
}

// fixMissingStyle appends the expected bullet style definition to an
// existing styles part.
func fixMissingStyle(part *docxml.Part, styleID string) (string, bool) {
	for _, style := range part.Root.FindAll("style") {
		if style.AttrValue("styleId") == styleID && style.AttrValue("type") == "paragraph" {
			return "bullet style already present", false
		}
	}

	style := docxml.NewElement("style")
	style.SetAttr("type", "paragraph")
	style.SetAttr("styleId", styleID)
	style.SetAttr("customStyle", "1")
	name := docxml.NewElement("name")
	name.SetAttr("val", styleID)
	style.AppendChild(name)
	style.AppendChild(docxml.NewElement("qFormat"))
	part.Root.AppendChild(style)
	return fmt.Sprintf("created paragraph style %s", styleID), true
}

// defaultBulletLevel builds the level-0 bullet entry repairs insert. The
// auditor stays independent of the engine's definition registry, so it
// carries its own copy of the shape.
func defaultBulletLevel() *docxml.Node {
	lvl := docxml.NewElement("lvl")
	lvl.SetAttr("ilvl", "0")

	start := docxml.NewElement("start")
	start.SetAttr("val", "1")
	lvl.AppendChild(start)

	numFmt := docxml.NewElement("numFmt")
	numFmt.SetAttr("val", "bullet")
	lvl.AppendChild(numFmt)

	lvlText := docxml.NewElement("lvlText")
	lvlText.SetAttr("val", "•")
	lvl.AppendChild(lvlText)

	lvlJc := docxml.NewElement("lvlJc")
	lvlJc.SetAttr("val", "left")
	lvl.AppendChild(lvlJc)

	pPr := docxml.NewElement("pPr")
	ind := docxml.NewElement("ind")
	ind.SetAttr("left", "360")
	ind.SetAttr("hanging", "360")
	pPr.AppendChild(ind)
	lvl.AppendChild(pPr)

	return lvl
}

func pathID(path string) string {
	if m := idPathPattern.FindStringSubmatch(path); m != nil {
		return m[1]
	}
	return ""
}

// findByIntAttr matches an element by an id attribute, comparing
// numerically when both sides parse so "07" and "7" meet.
func findByIntAttr(root *docxml.Node, local, attr, want string) *docxml.Node {
	wantN, wantNumeric := atoi(want)
	for _, candidate := range root.FindAll(local) {
		got := candidate.AttrValue(attr)
		if got == want {
			return candidate
		}
		if gotN, ok := atoi(got); ok && wantNumeric && gotN == wantN {
			return candidate
		}
	}
	return nil
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil
}
