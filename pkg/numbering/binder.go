package numbering

import (
	"github.com/hashicorp/go-hclog"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docxml"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/wordml"
)

// Binder attaches numbering references to paragraphs under the
// content-first rule: a paragraph gets numbering only after it has text.
// Rebinding the same paragraph to the same reference is a no-op, tracked
// by node identity for the binder's lifetime.
//
// A Binder belongs to one document build and is not safe for concurrent
// use.
type Binder struct {
	bound  map[*docxml.Node]wordml.NumberingRef
	logger hclog.Logger
}

// NewBinder creates a binder. A nil logger is replaced with a null
// logger.
func NewBinder(logger hclog.Logger) *Binder {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Binder{
		bound:  make(map[*docxml.Node]wordml.NumberingRef),
		logger: logger.Named("binder"),
	}
}

// Bind writes ref into the paragraph's properties and clears any direct
// indent that would fight the numbering definition's own indentation.
// The write is verified by re-reading the paragraph; a mismatch is a
// *SilentBindingError. A paragraph without text fails with
// *ContentFirstError and is left untouched.
func (b *Binder) Bind(p *wordml.Paragraph, ref wordml.NumberingRef) error {
	if len(p.TextNodes()) == 0 {
		return &ContentFirstError{Location: p.Location()}
	}

	if prev, ok := b.bound[p.Node()]; ok && prev == ref {
		b.logger.Trace("paragraph already bound", "location", p.Location().String(), "num_id", ref.NumID)
		return nil
	}

	p.SetNumbering(ref)
	p.ClearDirectIndent()

	got, state := p.NumberingRef()
	if state != wordml.RefValid || got != ref {
		return &SilentBindingError{
			Location: p.Location(),
			Want:     ref,
			Got:      got,
			State:    state,
		}
	}

	b.bound[p.Node()] = ref
	b.logger.Debug("bound paragraph",
		"location", p.Location().String(),
		"num_id", ref.NumID,
		"level", ref.Level,
	)
	return nil
}

// Bound reports whether the binder has already bound this paragraph.
func (b *Binder) Bound(p *wordml.Paragraph) bool {
	_, ok := b.bound[p.Node()]
	return ok
}
