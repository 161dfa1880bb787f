// Package markdown implements the editor's selection-based formatting.
//
// Transform takes a buffer, a selection given as rune offsets and an
// Operation, and returns a new buffer with the selection wrapped or prefixed
// by the matching markdown syntax. It is a pure function: no state is kept
// between calls and nothing outside the arguments is read or written.
//
//	markdown.Transform("hello world", 0, 5, markdown.Bold) // "**hello** world"
//
// Unrecognized operations leave the buffer unchanged, and offsets outside the
// buffer are clamped rather than rejected.
package markdown
