//go:build ignore
// +build ignore

package main

import (
	"log"

	muse "github.com/mithrel/muse/internal/cli"
	"github.com/spf13/cobra/doc"
)

func main() {
	root := muse.NewRootCmd()

	if err := doc.GenMarkdownTree(root, "./docs/markdown"); err != nil {
		log.Fatal(err)
	}

	header := &doc.GenManHeader{
		Title:   "MUSE",
		Section: "1",
	}
	if err := doc.GenManTree(root, header, "./docs/man"); err != nil {
		log.Fatal(err)
	}
}
