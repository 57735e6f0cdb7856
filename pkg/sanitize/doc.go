// Package sanitize cleans achievement text before it becomes a bullet
// paragraph. Generated and pasted text routinely arrives with literal
// bullet glyphs ("• Led the team") or embedded line breaks; the native
// list renders its own glyph, so leftovers double up, and an embedded
// break corrupts per-bullet numbering.
//
// Detection is heuristic: each catalogue marker carries a base confidence
// that is adjusted by context (content length, surrounding exclusion
// patterns like emails and dates, position in the line, caller locale).
// Only a leading marker that clears the confidence threshold is stripped,
// and stripping never empties a line. Strict mode reports what it would
// have fixed instead of fixing it.
package sanitize
