package numbering

// NumberingID is one granted (numId, abstractNumId) pair. The engine keeps
// the two ids equal so a numbering instance can always be traced back to
// its abstract definition without a lookup table.
type NumberingID struct {
	// NumID is the w:num instance id paragraphs reference.
	NumID int

	// AbstractID is the w:abstractNum id the instance points at.
	AbstractID int
}

// IsZero reports whether the id is the unallocated zero value.
func (id NumberingID) IsZero() bool {
	return id.NumID == 0 && id.AbstractID == 0
}

// LevelFormat describes how level 0 of a bullet definition renders.
type LevelFormat struct {
	// Glyph is the bullet character, e.g. "•".
	Glyph string

	// Font overrides the run font for the glyph. Empty leaves the
	// document default in place.
	Font string

	// IndentLeft is the left indent of the level in twips.
	IndentLeft int

	// IndentHanging is the hanging indent of the level in twips.
	IndentHanging int
}

// DefaultLevelFormat returns the standard resume bullet: a round bullet
// indented a quarter inch with a matching hanging indent.
func DefaultLevelFormat() LevelFormat {
	return LevelFormat{
		Glyph:         "•",
		IndentLeft:    360,
		IndentHanging: 360,
	}
}
