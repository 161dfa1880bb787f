// Package render turns document markdown into HTML and terminal output.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

var (
	engineOnce sync.Once
	engine     goldmark.Markdown
	policy     *bluemonday.Policy
)

// newGoldmarkEngine builds the GFM engine used for previews. Raw HTML in
// the source is not rendered.
func newGoldmarkEngine() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Linkify,
			extension.TaskList,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
}

func setup() {
	engine = newGoldmarkEngine()
	policy = bluemonday.UGCPolicy()
	policy.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code")
	policy.AllowAttrs("type", "checked", "disabled").OnElements("input")
}

// HTML converts markdown to sanitized HTML.
func HTML(markdown string) ([]byte, error) {
	engineOnce.Do(setup)
	var buf bytes.Buffer
	if err := engine.Convert([]byte(markdown), &buf); err != nil {
		return nil, fmt.Errorf("markdown parse: %w", err)
	}
	return policy.SanitizeBytes(buf.Bytes()), nil
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body{max-width:46rem;margin:2rem auto;padding:0 1rem;font:16px/1.6 system-ui,sans-serif;color:#1f2328}
pre,code{font-family:ui-monospace,monospace;background:#f6f8fa;border-radius:4px}
pre{padding:1rem;overflow:auto}
blockquote{margin:0;padding:0 1rem;border-left:.25rem solid #d0d7de;color:#59636e}
table{border-collapse:collapse}td,th{border:1px solid #d0d7de;padding:.3rem .6rem}
img{max-width:100%}
</style>
</head>
<body>
<article>
{{.Body}}
</article>
</body>
</html>
`))

// Page wraps rendered HTML in a standalone document.
func Page(title string, body []byte) ([]byte, error) {
	if title == "" {
		title = "Untitled"
	}
	var buf bytes.Buffer
	err := pageTmpl.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{Title: title, Body: template.HTML(body)})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
