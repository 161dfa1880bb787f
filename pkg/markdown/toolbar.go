package markdown

import "strings"

// ActionExport is the toolbar action that downloads the document. It is not a
// text operation; callers handle it before reaching Transform.
const ActionExport = "export"

// Tool describes one toolbar button.
type Tool struct {
	Action   string `json:"action"`
	Label    string `json:"label"`
	Shortcut string `json:"shortcut,omitempty"`
}

// Toolbar returns the editor toolbar in display order.
func Toolbar() []Tool {
	return []Tool{
		{Action: Bold.String(), Label: "Bold", Shortcut: "ctrl+b"},
		{Action: Italic.String(), Label: "Italic", Shortcut: "ctrl+i"},
		{Action: Strikethrough.String(), Label: "Strikethrough"},
		{Action: Heading1.String(), Label: "Heading 1"},
		{Action: Heading2.String(), Label: "Heading 2"},
		{Action: Heading3.String(), Label: "Heading 3"},
		{Action: UnorderedList.String(), Label: "Bullet List"},
		{Action: OrderedList.String(), Label: "Numbered List"},
		{Action: Quote.String(), Label: "Quote"},
		{Action: Code.String(), Label: "Inline Code"},
		{Action: CodeBlock.String(), Label: "Code Block"},
		{Action: Link.String(), Label: "Link"},
		{Action: Image.String(), Label: "Image"},
		{Action: HorizontalRule.String(), Label: "Horizontal Line"},
		{Action: ActionExport, Label: "Export .md File"},
	}
}

// ShortcutOperation maps a key chord such as "ctrl+b" to its operation.
// cmd+ and meta+ are accepted as aliases for ctrl+.
func ShortcutOperation(key string) Operation {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, p := range []string{"cmd+", "meta+"} {
		if strings.HasPrefix(key, p) {
			key = "ctrl+" + strings.TrimPrefix(key, p)
			break
		}
	}
	switch key {
	case "ctrl+b":
		return Bold
	case "ctrl+i":
		return Italic
	default:
		return Unknown
	}
}
