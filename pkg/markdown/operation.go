package markdown

import "strings"

// Operation names a formatting command applied to a selection.
type Operation int

const (
	// Unknown is the identity operation; unrecognized names parse to it.
	Unknown Operation = iota
	Bold
	Italic
	Strikethrough
	Heading1
	Heading2
	Heading3
	UnorderedList
	OrderedList
	Quote
	Code
	CodeBlock
	Link
	Image
	HorizontalRule
)

var operationNames = [...]string{
	Unknown:        "unknown",
	Bold:           "bold",
	Italic:         "italic",
	Strikethrough:  "strikethrough",
	Heading1:       "heading1",
	Heading2:       "heading2",
	Heading3:       "heading3",
	UnorderedList:  "unorderedList",
	OrderedList:    "orderedList",
	Quote:          "quote",
	Code:           "code",
	CodeBlock:      "codeblock",
	Link:           "link",
	Image:          "image",
	HorizontalRule: "horizontalRule",
}

func (op Operation) String() string {
	if op < 0 || int(op) >= len(operationNames) {
		return operationNames[Unknown]
	}
	return operationNames[op]
}

// Known reports whether op is one of the named formatting operations.
func (op Operation) Known() bool {
	return op > Unknown && int(op) < len(operationNames)
}

// MarshalText encodes the operation by name so JSON payloads carry "bold", not 1.
func (op Operation) MarshalText() ([]byte, error) {
	return []byte(op.String()), nil
}

// UnmarshalText never fails: unrecognized names decode to Unknown.
func (op *Operation) UnmarshalText(b []byte) error {
	*op = ParseOperation(string(b))
	return nil
}

// ParseOperation maps a toolbar action name to an Operation. Matching ignores
// case and surrounding space so "Bold" and "bold" agree; anything else is Unknown.
func ParseOperation(name string) Operation {
	name = strings.TrimSpace(name)
	for i, n := range operationNames {
		if Operation(i) == Unknown {
			continue
		}
		if strings.EqualFold(n, name) {
			return Operation(i)
		}
	}
	return Unknown
}

// Operations lists every known operation in toolbar order.
func Operations() []Operation {
	return []Operation{
		Bold, Italic, Strikethrough,
		Heading1, Heading2, Heading3,
		UnorderedList, OrderedList,
		Quote, Code, CodeBlock,
		Link, Image, HorizontalRule,
	}
}
