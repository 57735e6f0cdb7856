package numbering

import (
	"fmt"
	"strings"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/docid"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/wordml"
)

// AllocationExhaustedError reports that the forward scan ran past the id
// ceiling without finding a free slot. There is no safe id left to grant.
type AllocationExhaustedError struct {
	Document docid.DocumentID
	Ceiling  int
}

func (e *AllocationExhaustedError) Error() string {
	return fmt.Sprintf("no free numbering id below ceiling %d for document %s", e.Ceiling, e.Document)
}

// ContentFirstError reports an attempt to bind numbering to a paragraph
// that has no text yet. The caller must add content before binding.
type ContentFirstError struct {
	Location wordml.Location
}

func (e *ContentFirstError) Error() string {
	return fmt.Sprintf("paragraph %s has no text content to number; add text before binding", e.Location)
}

// SilentBindingError reports a numbering write that did not survive a
// re-read of the paragraph. It means the tree mutation was dropped or
// rewritten underneath the binder.
type SilentBindingError struct {
	Location wordml.Location
	Want     wordml.NumberingRef
	Got      wordml.NumberingRef
	State    wordml.RefState
}

func (e *SilentBindingError) Error() string {
	return fmt.Sprintf("numbering write to %s did not persist: wrote numId=%d level=%d, read back state=%s numId=%d level=%d",
		e.Location, e.Want.NumID, e.Want.Level, e.State, e.Got.NumID, e.Got.Level)
}

// InheritanceCycleError reports a cycle in the style basedOn chain. The
// cycle cannot be auto-resolved without discarding a user style, so it is
// surfaced instead.
type InheritanceCycleError struct {
	// Path is the basedOn chain walked, ending with the style that
	// closed the loop.
	Path []string
}

func (e *InheritanceCycleError) Error() string {
	return fmt.Sprintf("style inheritance cycle: %s", strings.Join(e.Path, " -> "))
}
