package markdown

import (
	"strings"
	"unicode"
)

const defaultContent = "# Welcome to Markdown Muse\n" +
	"\n" +
	"## A simple markdown editor\n" +
	"\n" +
	"Write your content here using **markdown** syntax.\n" +
	"\n" +
	"### Features:\n" +
	"- Real-time preview\n" +
	"- Basic formatting\n" +
	"- Autosave\n" +
	"- Export to .md file\n" +
	"\n" +
	"> Inspiration comes from simplicity\n" +
	"\n" +
	"```\n" +
	"// Code blocks are supported too\n" +
	"function hello() {\n" +
	"  console.log(\"Hello Markdown!\");\n" +
	"}\n" +
	"```\n" +
	"\n" +
	"[Learn more about Markdown](https://www.markdownguide.org/)\n" +
	"\n" +
	"Happy writing!\n"

// WelcomeTitle is the title of the document seeded from DefaultContent.
const WelcomeTitle = "Welcome to Markdown Muse"

// DefaultContent is the welcome document shown to new users.
func DefaultContent() string { return defaultContent }

// NewDocumentContent is the initial body of a freshly created document.
func NewDocumentContent(title string) string {
	return "# " + title + "\n\nStart writing here..."
}

// ExportFilename derives a download name from a document title.
func ExportFilename(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "document.md"
	}
	name := strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':':
			return '-'
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, title)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		name = "document"
	}
	return name + ".md"
}
