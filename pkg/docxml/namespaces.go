package docxml

// WordprocessingML and related namespace URIs used across document parts.
const (
	NamespaceWordML        = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	NamespaceRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	NamespaceDrawingML     = "http://schemas.openxmlformats.org/drawingml/2006/main"
	NamespaceWPDrawing     = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	NamespacePicture       = "http://schemas.openxmlformats.org/drawingml/2006/picture"
	NamespaceCompat        = "http://schemas.openxmlformats.org/markup-compatibility/2006"
	NamespaceVML           = "urn:schemas-microsoft-com:vml"
	NamespaceWord2010      = "http://schemas.microsoft.com/office/word/2010/wordml"
	NamespaceWord2012      = "http://schemas.microsoft.com/office/word/2012/wordml"

	// NamespaceXML is the predefined xml: namespace. It is never declared on
	// a root element but appears on attributes like xml:space.
	NamespaceXML = "http://www.w3.org/XML/1998/namespace"
)

// knownNamespaceURIs maps conventional prefixes to namespace URIs so Encode
// can re-declare a namespace that a (possibly hand-edited) root element lost.
var knownNamespaceURIs = map[string]string{
	"w":   NamespaceWordML,
	"r":   NamespaceRelationships,
	"a":   NamespaceDrawingML,
	"wp":  NamespaceWPDrawing,
	"pic": NamespacePicture,
	"mc":  NamespaceCompat,
	"v":   NamespaceVML,
	"w14": NamespaceWord2010,
	"w15": NamespaceWord2012,
}
