package main

import (
	"flag"
	"fmt"
	mrand "math/rand"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/mithrel/muse/pkg/markdown"
)

var words = []string{
	"draft", "release", "meeting", "budget", "roadmap", "review", "design",
	"sprint", "launch", "notes", "feedback", "summary", "owner", "deadline",
	"metrics", "backlog", "retro", "demo", "scope", "risk",
}

// Writes sample .md files suitable for `muse doc import`.
func main() {
	dir := flag.String("dir", "samples", "output directory")
	total := flag.Int("n", 50, "number of documents")
	flag.Parse()

	// Deterministic seed for reproducible output
	mr := mrand.New(mrand.NewSource(42))
	ops := markdown.Operations()

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		panic(err)
	}
	for i := 0; i < *total; i++ {
		title := fmt.Sprintf("Sample Document %03d", i+1)
		body := markdown.NewDocumentContent(title)
		body = strings.TrimSuffix(body, "Start writing here...")

		// 3-8 paragraphs, each with one formatted phrase
		for p := 0; p < 3+mr.Intn(6); p++ {
			para := sentence(mr, 6+mr.Intn(10))
			start := utf8.RuneCountInString(body)
			body += para + "\n\n"
			n := utf8.RuneCountInString(para)
			from := mr.Intn(n / 2)
			to := from + 1 + mr.Intn(n-from)
			body = markdown.Transform(body, start+from, start+to, ops[mr.Intn(len(ops))])
		}

		name := filepath.Join(*dir, markdown.ExportFilename(title))
		if err := os.WriteFile(name, []byte(body), 0o644); err != nil {
			panic(err)
		}
	}
	fmt.Printf("wrote %d documents to %s\n", *total, *dir)
}

func sentence(r *mrand.Rand, n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = words[r.Intn(len(words))]
	}
	s := strings.Join(out, " ")
	return strings.ToUpper(s[:1]) + s[1:] + "."
}
