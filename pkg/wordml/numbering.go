package wordml

import (
	"strconv"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docxml"
)

// Numbering is a typed view over word/numbering.xml: abstract definitions
// (w:abstractNum) and the list instances (w:num) that point at them.
type Numbering struct {
	part *docxml.Part
}

// Root returns the w:numbering root element.
func (n *Numbering) Root() *docxml.Node {
	return n.part.Root
}

// InstanceIDs returns every readable w:num id in part order. Instances
// whose id attribute is missing or non-numeric are skipped; the auditor
// reports those separately.
func (n *Numbering) InstanceIDs() []int {
	var out []int
	for _, c := range n.part.Root.Children {
		if !c.Is("num") {
			continue
		}
		if id, ok := nodeIntAttr(c, "numId"); ok {
			out = append(out, id)
		}
	}
	return out
}

// AbstractIDs returns every readable w:abstractNum id in part order.
func (n *Numbering) AbstractIDs() []int {
	var out []int
	for _, c := range n.part.Root.Children {
		if !c.Is("abstractNum") {
			continue
		}
		if id, ok := nodeIntAttr(c, "abstractNumId"); ok {
			out = append(out, id)
		}
	}
	return out
}

// HasInstance reports whether a w:num with the given id exists.
func (n *Numbering) HasInstance(numID int) bool {
	return n.Instance(numID) != nil
}

// Instance returns the w:num element with the given id, or nil.
func (n *Numbering) Instance(numID int) *docxml.Node {
	for _, c := range n.part.Root.Children {
		if !c.Is("num") {
			continue
		}
		if id, ok := nodeIntAttr(c, "numId"); ok && id == numID {
			return c
		}
	}
	return nil
}

// Abstract returns the w:abstractNum element with the given id, or nil.
func (n *Numbering) Abstract(abstractID int) *docxml.Node {
	for _, c := range n.part.Root.Children {
		if !c.Is("abstractNum") {
			continue
		}
		if id, ok := nodeIntAttr(c, "abstractNumId"); ok && id == abstractID {
			return c
		}
	}
	return nil
}

// AbstractFor resolves a list instance to its abstract definition id via
// the instance's w:abstractNumId child.
func (n *Numbering) AbstractFor(numID int) (int, bool) {
	inst := n.Instance(numID)
	if inst == nil {
		return 0, false
	}
	ref := inst.Child("abstractNumId")
	if ref == nil {
		return 0, false
	}
	raw, ok := ref.LookupAttr("val")
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return id, true
}

// AddAbstract inserts an abstract definition. The schema orders all
// abstractNum elements before the first num, so the node goes immediately
// before the first existing instance.
func (n *Numbering) AddAbstract(abstract *docxml.Node) {
	root := n.part.Root
	if i := root.ChildIndex("num"); i >= 0 {
		root.InsertChildAt(i, abstract)
		return
	}
	root.AppendChild(abstract)
}

// AddInstance appends a w:num binding numID to abstractID and returns it.
func (n *Numbering) AddInstance(numID, abstractID int) *docxml.Node {
	inst := docxml.NewElement("num")
	inst.SetAttr("numId", strconv.Itoa(numID))
	ref := docxml.NewElement("abstractNumId")
	ref.SetAttr("val", strconv.Itoa(abstractID))
	inst.AppendChild(ref)
	n.part.Root.AppendChild(inst)
	return inst
}

// RemoveInstance deletes the w:num with the given id, reporting whether it
// existed. The abstract definition stays; other instances may share it.
func (n *Numbering) RemoveInstance(numID int) bool {
	inst := n.Instance(numID)
	if inst == nil {
		return false
	}
	return n.part.Root.RemoveChild(inst)
}

// Levels returns an abstract definition's w:lvl elements in order.
func (n *Numbering) Levels(abstractID int) []*docxml.Node {
	abstract := n.Abstract(abstractID)
	if abstract == nil {
		return nil
	}
	var out []*docxml.Node
	for _, c := range abstract.Children {
		if c.Is("lvl") {
			out = append(out, c)
		}
	}
	return out
}

func nodeIntAttr(n *docxml.Node, local string) (int, bool) {
	raw, ok := n.LookupAttr(local)
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return id, true
}
