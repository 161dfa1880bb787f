package markdown

import (
	"strings"
	"unicode/utf8"
)

const (
	linkPlaceholder  = "link text"
	linkDestination  = "url"
	imagePlaceholder = "alt text"
	imageDestination = "image-url"
)

// Result is a transformed buffer plus the suggested caret offset (in runes).
type Result struct {
	Text  string `json:"text"`
	Caret int    `json:"caret"`
}

// Transform replaces buffer[start:end] with the markdown for op and returns
// the new buffer. Offsets count characters (runes), not bytes.
func Transform(buffer string, start, end int, op Operation) string {
	return Apply(buffer, start, end, op).Text
}

// Apply is Transform plus the caret position the editor should restore.
//
// Offsets outside [0, len] are clamped and a reversed pair is treated as a
// backwards selection, so Apply never fails.
func Apply(buffer string, start, end int, op Operation) Result {
	rs := []rune(buffer)
	start, end = ClampSelection(len(rs), start, end)
	selected := string(rs[start:end])

	replacement, offset := replace(op, selected)

	var b strings.Builder
	b.Grow(len(buffer) + len(replacement) - len(selected))
	b.WriteString(string(rs[:start]))
	b.WriteString(replacement)
	b.WriteString(string(rs[end:]))
	return Result{Text: b.String(), Caret: start + offset}
}

// ClampSelection bounds start and end to [0, n] and orders them.
func ClampSelection(n, start, end int) (int, int) {
	start = clamp(start, 0, n)
	end = clamp(end, 0, n)
	if start > end {
		start, end = end, start
	}
	return start, end
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// replace returns the replacement text and the caret offset inside it.
func replace(op Operation, selected string) (string, int) {
	switch op {
	case Bold:
		return "**" + selected + "**", 2
	case Italic:
		return "*" + selected + "*", 1
	case Strikethrough:
		return "~~" + selected + "~~", 2
	case Heading1:
		return "# " + selected, 2
	case Heading2:
		return "## " + selected, 3
	case Heading3:
		return "### " + selected, 4
	case UnorderedList:
		return "- " + selected, 2
	case OrderedList:
		return "1. " + selected, 3
	case Quote:
		return "> " + selected, 2
	case Code:
		return "`" + selected + "`", 1
	case CodeBlock:
		return "```\n" + selected + "\n```", 3
	case Link:
		return linkLike("[", selected, linkPlaceholder, linkDestination)
	case Image:
		return linkLike("![", selected, imagePlaceholder, imageDestination)
	case HorizontalRule:
		// The rule goes before the selection; a mid-line selection is not
		// moved onto its own line.
		return "\n---\n" + selected, 5
	default:
		return selected, 0
	}
}

func linkLike(open, selected, placeholder, dest string) (string, int) {
	if selected == "" {
		return open + placeholder + "](" + dest + ")", 10
	}
	out := open + selected + "](" + dest + ")"
	return out, utf8.RuneCountInString(out) - 1
}

// InsertTab replaces the selection with two spaces, as the editor's Tab key does.
func InsertTab(buffer string, start, end int) Result {
	rs := []rune(buffer)
	start, end = ClampSelection(len(rs), start, end)
	return Result{
		Text:  string(rs[:start]) + "  " + string(rs[end:]),
		Caret: start + 2,
	}
}
