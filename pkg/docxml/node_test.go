package docxml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeHelpers(t *testing.T) {
	t.Run("Is accepts prefixed and namespaced forms", func(t *testing.T) {
		namespaced := NewElement("p")
		assert.True(t, namespaced.Is("p"))

		prefixed := &Node{}
		prefixed.Name.Local = "w:p"
		assert.True(t, prefixed.Is("p"))

		text := NewText("x")
		assert.False(t, text.Is("p"))
	})

	t.Run("attribute set, get, remove", func(t *testing.T) {
		n := NewElement("numId")
		n.SetAttr("val", "5")
		assert.Equal(t, "5", n.AttrValue("val"))

		n.SetAttr("val", "7")
		v, ok := n.LookupAttr("val")
		require.True(t, ok)
		assert.Equal(t, "7", v)
		assert.Len(t, n.Attr, 1)

		assert.True(t, n.RemoveAttr("val"))
		_, ok = n.LookupAttr("val")
		assert.False(t, ok)
		assert.False(t, n.RemoveAttr("val"))
	})

	t.Run("child insertion and removal", func(t *testing.T) {
		parent := NewElement("pPr")
		a := NewElement("pStyle")
		b := NewElement("numPr")
		parent.AppendChild(b)
		parent.InsertChildAt(0, a)

		assert.Equal(t, a, parent.Children[0])
		assert.Equal(t, b, parent.Children[1])
		assert.Equal(t, 1, parent.ChildIndex("numPr"))

		assert.True(t, parent.RemoveChild(a))
		assert.Equal(t, -1, parent.ChildIndex("pStyle"))
	})

	t.Run("FindFirst and FindAll walk nested trees", func(t *testing.T) {
		root := NewElement("body")
		tbl := NewElement("tbl")
		tr := NewElement("tr")
		tc := NewElement("tc")
		p1 := NewElement("p")
		p2 := NewElement("p")
		tc.AppendChild(p1)
		tr.AppendChild(tc)
		tbl.AppendChild(tr)
		root.AppendChild(tbl)
		root.AppendChild(p2)

		assert.Equal(t, p1, root.FindFirst("p"))
		assert.Len(t, root.FindAll("p"), 2)
	})

	t.Run("text content aggregates runs", func(t *testing.T) {
		p := NewElement("p")
		r1 := NewElement("r")
		t1 := NewElement("t")
		t1.SetTextContent("Did X, ")
		r1.AppendChild(t1)
		r2 := NewElement("r")
		t2 := NewElement("t")
		t2.SetTextContent("improved Y")
		r2.AppendChild(t2)
		p.AppendChild(r1)
		p.AppendChild(r2)

		assert.Equal(t, "Did X, improved Y", p.TextContent())
	})

	t.Run("clone is deep", func(t *testing.T) {
		p := NewElement("p")
		r := NewElement("r")
		p.AppendChild(r)
		p.SetAttr("rsidR", "00AA11BB")

		c := p.Clone()
		c.Children[0].SetAttr("marker", "x")
		c.SetAttr("rsidR", "changed")

		assert.Equal(t, "00AA11BB", p.AttrValue("rsidR"))
		_, ok := r.LookupAttr("marker")
		assert.False(t, ok)
	})
}
