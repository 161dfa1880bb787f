// Package util resolves loose user input such as document references.
package util

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/mithrel/muse/pkg/api"
)

var (
	ErrNoMatch   = errors.New("no document matches")
	ErrAmbiguous = errors.New("reference is ambiguous")
)

// minIDPrefix keeps short words from being read as id prefixes.
const minIDPrefix = 6

type titles []api.DocumentSummary

func (t titles) String(i int) string { return t[i].Title }
func (t titles) Len() int            { return len(t) }

// ResolveDocument picks the document a reference names. It tries, in order,
// an exact id, a unique id prefix, a case-insensitive exact title and finally
// the best fuzzy title match. Ties at any step are ambiguous.
func ResolveDocument(ref string, docs []api.DocumentSummary) (api.DocumentSummary, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return api.DocumentSummary{}, ErrNoMatch
	}
	for _, d := range docs {
		if d.ID == ref {
			return d, nil
		}
	}
	if len(ref) >= minIDPrefix {
		if d, err := unique(ref, docs, func(d api.DocumentSummary) bool { return strings.HasPrefix(d.ID, ref) }); err == nil || errors.Is(err, ErrAmbiguous) {
			return d, err
		}
	}
	if d, err := unique(ref, docs, func(d api.DocumentSummary) bool { return strings.EqualFold(d.Title, ref) }); err == nil || errors.Is(err, ErrAmbiguous) {
		return d, err
	}

	matches := fuzzy.FindFrom(ref, titles(docs))
	switch {
	case len(matches) == 0:
		return api.DocumentSummary{}, fmt.Errorf("%w %q", ErrNoMatch, ref)
	case len(matches) > 1 && matches[0].Score == matches[1].Score:
		return api.DocumentSummary{}, fmt.Errorf("%w: %q matches %q and %q", ErrAmbiguous, ref, docs[matches[0].Index].Title, docs[matches[1].Index].Title)
	}
	return docs[matches[0].Index], nil
}

func unique(ref string, docs []api.DocumentSummary, keep func(api.DocumentSummary) bool) (api.DocumentSummary, error) {
	var found []api.DocumentSummary
	for _, d := range docs {
		if keep(d) {
			found = append(found, d)
		}
	}
	switch len(found) {
	case 0:
		return api.DocumentSummary{}, ErrNoMatch
	case 1:
		return found[0], nil
	}
	return api.DocumentSummary{}, fmt.Errorf("%w: %q matches %d documents", ErrAmbiguous, ref, len(found))
}

// DocumentTitles lists titles for shell completion.
func DocumentTitles(docs []api.DocumentSummary) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Title
	}
	return out
}
