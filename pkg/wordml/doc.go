// Package wordml gives typed, mutable access to the WordprocessingML
// content of a document package: paragraphs wherever they occur (body,
// table cells, text boxes, headers, footers), their style and list
// references, and the numbering and style definition parts.
//
// The package deliberately models only what list consistency needs. A
// paragraph is a handle on its w:p element plus a Location for reporting;
// reading a list reference distinguishes absent, valid and malformed
// states instead of collapsing them, because downstream repair decisions
// differ for each.
package wordml
