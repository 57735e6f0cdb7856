// Package numbering keeps bullet and list numbering consistent across a
// document build. It allocates collision-free numbering ids, materializes
// the matching definitions in word/numbering.xml, resolves bullet style
// ownership, binds paragraphs to their lists, and runs the final
// reconciliation sweep that repairs anything the build left dangling.
//
// The package is organized around a Session: one Session per document
// build, whose lifecycle is allocate -> define -> bind while content is
// added, then a single Finalize that sweeps the whole tree.
package numbering
