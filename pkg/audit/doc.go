// Package audit diagnoses and repairs structural numbering problems in a
// document package. It works on the raw parts (main content, numbering,
// styles, settings) with no object model in between, so it can examine
// documents produced by other tools or by earlier versions of this
// engine.
//
// Analyze returns findings as data; Repair applies only the fixes that
// have a safe default and reports what it did to each issue.
package audit
