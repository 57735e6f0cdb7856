package audit

import "fmt"

// Severity ranks how much an issue threatens the document.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// IssueKind identifies one class of structural problem.
type IssueKind string

const (
	// IssueUnparsablePart: a structural part could not be parsed at all.
	IssueUnparsablePart IssueKind = "unparsable-part"

	// IssueMissingNamespace: a part root lacks a required namespace
	// declaration.
	IssueMissingNamespace IssueKind = "missing-namespace"

	// IssueMalformedReference: a bullet-styled paragraph's numbering
	// reference is missing, unreadable, or incomplete.
	IssueMalformedReference IssueKind = "malformed-reference"

	// IssueDanglingInstance: a list instance points at an abstract
	// definition that does not exist.
	IssueDanglingInstance IssueKind = "dangling-instance"

	// IssueEmptyAbstract: an abstract definition has no level entries.
	IssueEmptyAbstract IssueKind = "empty-abstract"

	// IssueOrphanedAbstract: an abstract definition no instance uses.
	IssueOrphanedAbstract IssueKind = "orphaned-abstract"

	// IssueDuplicateID: two siblings carry the same identifier.
	IssueDuplicateID IssueKind = "duplicate-id"

	// IssueMissingBulletStyle: the expected bullet style definition is
	// absent from the styles part.
	IssueMissingBulletStyle IssueKind = "missing-bullet-style"
)

// Issue is one finding from Analyze.
type Issue struct {
	Kind        IssueKind `json:"kind"`
	Part        string    `json:"part"`
	Path        string    `json:"path"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
	AutoFixable bool      `json:"auto_fixable"`
	Remedy      string    `json:"remedy"`
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s %s: %s", i.Severity, i.Kind, i.Path, i.Description)
}
