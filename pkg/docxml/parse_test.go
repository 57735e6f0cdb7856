package docxml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const miniDocument = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><w:body><w:p><w:pPr><w:pStyle w:val="SculptorBullet"/></w:pPr><w:r><w:t>Shipped the thing</w:t></w:r></w:p></w:body></w:document>`

func TestParsePart(t *testing.T) {
	t.Run("parses prolog, root tags and tree", func(t *testing.T) {
		part, err := ParsePart([]byte(miniDocument))
		require.NoError(t, err)

		assert.Equal(t, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`, part.Prolog)
		assert.True(t, strings.HasPrefix(part.RootStart, "<w:document"))
		assert.Equal(t, "</w:document>", part.RootEnd)
		require.NotNil(t, part.Root)
		assert.True(t, part.Root.Is("document"))

		body := part.Root.Child("body")
		require.NotNil(t, body)
		p := body.Child("p")
		require.NotNil(t, p)
		assert.Equal(t, "Shipped the thing", p.TextContent())
	})

	t.Run("reads namespaced attribute by local name", func(t *testing.T) {
		part, err := ParsePart([]byte(miniDocument))
		require.NoError(t, err)

		style := part.Root.FindFirst("pStyle")
		require.NotNil(t, style)
		assert.Equal(t, "SculptorBullet", style.AttrValue("val"))
	})

	t.Run("rejects empty input", func(t *testing.T) {
		_, err := ParsePart([]byte("   "))
		assert.Error(t, err)
	})

	t.Run("rejects unterminated XML", func(t *testing.T) {
		_, err := ParsePart([]byte(`<w:document xmlns:w="x"><w:body>`))
		assert.Error(t, err)
	})
}

func TestPartEncode(t *testing.T) {
	t.Run("round trip preserves prolog and root declarations", func(t *testing.T) {
		part, err := ParsePart([]byte(miniDocument))
		require.NoError(t, err)

		out, err := part.Encode()
		require.NoError(t, err)

		text := string(out)
		assert.Contains(t, text, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
		assert.Contains(t, text, `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`)
		assert.Contains(t, text, `<w:t>Shipped the thing</w:t>`)
		assert.Contains(t, text, `w:val="SculptorBullet"`)
		assert.True(t, strings.HasSuffix(strings.TrimSpace(text), "</w:document>"))
	})

	t.Run("synthesized nodes serialize with the declared prefix", func(t *testing.T) {
		part, err := ParsePart([]byte(miniDocument))
		require.NoError(t, err)

		p := part.Root.FindFirst("p")
		require.NotNil(t, p)
		pPr := p.Child("pPr")
		require.NotNil(t, pPr)

		numPr := NewElement("numPr")
		ilvl := NewElement("ilvl")
		ilvl.SetAttr("val", "0")
		numID := NewElement("numId")
		numID.SetAttr("val", "101")
		numPr.AppendChild(ilvl)
		numPr.AppendChild(numID)
		pPr.AppendChild(numPr)

		out, err := part.Encode()
		require.NoError(t, err)

		text := string(out)
		assert.Contains(t, text, `<w:numPr>`)
		assert.Contains(t, text, `<w:ilvl w:val="0">`)
		assert.Contains(t, text, `<w:numId w:val="101">`)
	})

	t.Run("re-declares a required namespace the root lost", func(t *testing.T) {
		raw := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body></w:body></w:document>`
		part, err := ParsePart([]byte(raw))
		require.NoError(t, err)

		out, err := part.Encode()
		require.NoError(t, err)
		assert.Contains(t, string(out),
			`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`)
	})

	t.Run("parse-encode-parse is stable", func(t *testing.T) {
		part, err := ParsePart([]byte(miniDocument))
		require.NoError(t, err)
		once, err := part.Encode()
		require.NoError(t, err)

		again, err := ParsePart(once)
		require.NoError(t, err)
		twice, err := again.Encode()
		require.NoError(t, err)

		assert.Equal(t, string(once), string(twice))
	})

	t.Run("declares the namespace for an undeclared prefix", func(t *testing.T) {
		raw := `<w:settings><w:zoom w:percent="100"></w:zoom></w:settings>`
		part, err := ParsePart([]byte(raw))
		require.NoError(t, err)
		assert.False(t, DeclaresNamespace(part.Root, NamespaceWordML))

		out, err := part.Encode()
		require.NoError(t, err)

		text := string(out)
		assert.Contains(t, text,
			`xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`)
		assert.Contains(t, text, `<w:zoom w:percent="100">`)
		assert.NotContains(t, text, `xmlns="w"`)

		again, err := ParsePart(out)
		require.NoError(t, err)
		assert.True(t, DeclaresNamespace(again.Root, NamespaceWordML))
	})
}
