package numbering

import (
	"fmt"
	"strconv"

	"github.com/hashicorp/go-hclog"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docxml"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/wordml"
)

// Registry materializes numbering definitions inside a document's
// numbering part. EnsureDefinition is idempotent: asking twice for the
// same id writes the abstract definition and the instance exactly once.
type Registry struct {
	logger hclog.Logger
}

// NewRegistry creates a definition registry. A nil logger is replaced
// with a null logger.
func NewRegistry(logger hclog.Logger) *Registry {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Registry{logger: logger.Named("definitions")}
}

// EnsureDefinition guarantees the document's numbering part contains a
// w:num instance for id backed by an abstract definition formatted per
// format. Existing instances are left untouched.
func (r *Registry) EnsureDefinition(doc *wordml.Document, id NumberingID, format LevelFormat) error {
	if doc == nil {
		return fmt.Errorf("document is required")
	}
	if id.NumID < 1 || id.AbstractID < 1 {
		return fmt.Errorf("invalid numbering id %+v", id)
	}
	if format.Glyph == "" {
		format = DefaultLevelFormat()
	}

	num, err := doc.EnsureNumbering()
	if err != nil {
		return fmt.Errorf("ensuring numbering part: %w", err)
	}

	if num.HasInstance(id.NumID) {
		r.logger.Debug("numbering instance already defined", "num_id", id.NumID)
		return nil
	}

	if num.Abstract(id.AbstractID) == nil {
		num.AddAbstract(buildAbstract(id.AbstractID, format))
	}
	num.AddInstance(id.NumID, id.AbstractID)

	r.logger.Debug("defined numbering instance",
		"num_id", id.NumID,
		"abstract_num_id", id.AbstractID,
		"glyph", format.Glyph,
	)
	return nil
}

// buildAbstract assembles a single-level bullet abstractNum. Child order
// follows the schema: start, numFmt, lvlText, lvlJc, then paragraph and
// run properties.
func buildAbstract(abstractID int, format LevelFormat) *docxml.Node {
	abstract := docxml.NewElement("abstractNum")
	abstract.SetAttr("abstractNumId", strconv.Itoa(abstractID))

	multiLevel := docxml.NewElement("multiLevelType")
	multiLevel.SetAttr("val", "hybridMultilevel")
	abstract.AppendChild(multiLevel)

	lvl := docxml.NewElement("lvl")
	lvl.SetAttr("ilvl", "0")

	start := docxml.NewElement("start")
	start.SetAttr("val", "1")
	lvl.AppendChild(start)

	numFmt := docxml.NewElement("numFmt")
	numFmt.SetAttr("val", "bullet")
	lvl.AppendChild(numFmt)

	lvlText := docxml.NewElement("lvlText")
	lvlText.SetAttr("val", format.Glyph)
	lvl.AppendChild(lvlText)

	lvlJc := docxml.NewElement("lvlJc")
	lvlJc.SetAttr("val", "left")
	lvl.AppendChild(lvlJc)

	pPr := docxml.NewElement("pPr")
	ind := docxml.NewElement("ind")
	ind.SetAttr("left", strconv.Itoa(format.IndentLeft))
	ind.SetAttr("hanging", strconv.Itoa(format.IndentHanging))
	pPr.AppendChild(ind)
	lvl.AppendChild(pPr)

	if format.Font != "" {
		rPr := docxml.NewElement("rPr")
		rFonts := docxml.NewElement("rFonts")
		rFonts.SetAttr("ascii", format.Font)
		rFonts.SetAttr("hAnsi", format.Font)
		rPr.AppendChild(rFonts)
		lvl.AppendChild(rPr)
	}

	abstract.AppendChild(lvl)
	return abstract
}
