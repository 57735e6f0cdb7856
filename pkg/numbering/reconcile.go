package numbering

import (
	"fmt"
	"runtime"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/wordml"
)

const (
	// DefaultWarnDuration is the sweep wall-time above which the
	// reconciler logs a performance warning.
	DefaultWarnDuration = 200 * time.Millisecond

	// DefaultWarnParagraphs is the bullet-paragraph count above which
	// the reconciler logs a volume warning.
	DefaultWarnParagraphs = 5000

	// DefaultWarnMemoryBytes is the allocation delta above which the
	// reconciler logs a memory warning.
	DefaultWarnMemoryBytes = 30 << 20
)

// Report is the outcome of one reconciliation sweep.
type Report struct {
	// Total is how many bullet-styled paragraphs the sweep visited.
	Total int

	// Repaired is how many references were rewritten.
	Repaired int

	// Errors holds the per-paragraph repair failures. The sweep
	// continues past them; the caller decides whether they fail the
	// request.
	Errors []error

	// Duration is the sweep wall time.
	Duration time.Duration

	// MemoryDelta is how many bytes the sweep allocated.
	MemoryDelta int64
}

// Err folds the per-paragraph failures into one error, or nil when the
// sweep was clean.
func (r *Report) Err() error {
	var result *multierror.Error
	for _, err := range r.Errors {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// ReconcilerConfig holds configuration for a Reconciler.
type ReconcilerConfig struct {
	// Scanner finds the bullet paragraphs. A nil scanner is created with
	// the default bullet style.
	Scanner *Scanner

	// Binder performs the repairs. A nil binder is created.
	Binder *Binder

	// Warn thresholds. Zero values use the package defaults.
	WarnDuration    time.Duration
	WarnParagraphs  int
	WarnMemoryBytes int64

	// Logger
	Logger hclog.Logger
}

// Reconciler runs the post-build sweep: every bullet-styled paragraph is
// verified to carry a well-formed numbering reference that resolves to an
// existing definition, and everything else is repaired in place.
type Reconciler struct {
	scanner         *Scanner
	binder          *Binder
	warnDuration    time.Duration
	warnParagraphs  int
	warnMemoryBytes int64
	logger          hclog.Logger
}

// NewReconciler creates a reconciler from cfg. A nil cfg uses defaults.
func NewReconciler(cfg *ReconcilerConfig) *Reconciler {
	if cfg == nil {
		cfg = &ReconcilerConfig{}
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}
	if cfg.Scanner == nil {
		cfg.Scanner = NewScanner("", cfg.Logger)
	}
	if cfg.Binder == nil {
		cfg.Binder = NewBinder(cfg.Logger)
	}
	if cfg.WarnDuration == 0 {
		cfg.WarnDuration = DefaultWarnDuration
	}
	if cfg.WarnParagraphs == 0 {
		cfg.WarnParagraphs = DefaultWarnParagraphs
	}
	if cfg.WarnMemoryBytes == 0 {
		cfg.WarnMemoryBytes = DefaultWarnMemoryBytes
	}
	return &Reconciler{
		scanner:         cfg.Scanner,
		binder:          cfg.Binder,
		warnDuration:    cfg.WarnDuration,
		warnParagraphs:  cfg.WarnParagraphs,
		warnMemoryBytes: cfg.WarnMemoryBytes,
		logger:          cfg.Logger.Named("reconciler"),
	}
}

// Reconcile sweeps the document once. Paragraphs whose reference is
// absent, malformed, or points at a definition the numbering part does
// not contain are rebound to target at their original level. Repair
// failures accumulate in the report; only structural misuse (nil
// document, undefined target) returns an error.
func (rc *Reconciler) Reconcile(doc *wordml.Document, target NumberingID) (*Report, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is required")
	}
	if target.NumID < 1 {
		return nil, fmt.Errorf("target numbering id is required")
	}
	num, hasNumbering := doc.Numbering()
	if !hasNumbering || !num.HasInstance(target.NumID) {
		return nil, fmt.Errorf("target numId %d is not defined in the numbering part", target.NumID)
	}

	var before runtime.MemStats
	runtime.ReadMemStats(&before)
	start := time.Now()

	entries := rc.scanner.Scan(doc)
	report := &Report{Total: len(entries)}

	for _, e := range entries {
		repair := false
		switch e.State {
		case wordml.RefValid:
			repair = !num.HasInstance(e.Ref.NumID)
		case wordml.RefAbsent, wordml.RefMalformed:
			repair = true
		}
		if !repair {
			continue
		}

		ref := wordml.NumberingRef{NumID: target.NumID, Level: e.OriginalLevel}
		if err := rc.binder.Bind(e.Paragraph, ref); err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("repairing %s: %w", e.Location, err))
			continue
		}
		report.Repaired++
	}

	report.Duration = time.Since(start)
	var after runtime.MemStats
	runtime.ReadMemStats(&after)
	report.MemoryDelta = int64(after.TotalAlloc - before.TotalAlloc)

	if report.Duration > rc.warnDuration {
		rc.logger.Warn("reconciliation ran long",
			"duration_ms", report.Duration.Milliseconds(),
			"threshold_ms", rc.warnDuration.Milliseconds(),
		)
	}
	if report.Total > rc.warnParagraphs {
		rc.logger.Warn("reconciliation volume above threshold",
			"paragraphs", report.Total,
			"threshold", rc.warnParagraphs,
		)
	}
	if report.MemoryDelta > rc.warnMemoryBytes {
		rc.logger.Warn("reconciliation allocated heavily",
			"bytes", report.MemoryDelta,
			"threshold", rc.warnMemoryBytes,
		)
	}

	rc.logger.Info("reconciliation complete",
		"total", report.Total,
		"repaired", report.Repaired,
		"errors", len(report.Errors),
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report, nil
}
