// Package linebreak breaks a paragraph into lines with a single greedy pass
// and justifies every line but the last.
//
// The package works on integer device units and knows nothing about fonts:
// callers supply one advance per character, the width of a space glyph and
// the line metrics. Lines are implicit; all spans of a line share the same Y.
package linebreak
