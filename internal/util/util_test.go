package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/muse/pkg/api"
)

var sample = []api.DocumentSummary{
	{ID: "0b9c2e6a-1111", Title: "Weekly planning"},
	{ID: "0b9c2e6a-2222", Title: "Reading list"},
	{ID: "7f00aa01-3333", Title: "Release notes"},
	{ID: "9e1d0c44-4444", Title: "release notes"},
}

func TestResolveDocument(t *testing.T) {
	d, err := ResolveDocument("7f00aa01-3333", sample)
	require.NoError(t, err)
	assert.Equal(t, "Release notes", d.Title)

	d, err = ResolveDocument("0b9c2e6a-2", sample)
	require.NoError(t, err)
	assert.Equal(t, "Reading list", d.Title)

	_, err = ResolveDocument("0b9c2e6a", sample)
	assert.ErrorIs(t, err, ErrAmbiguous)

	d, err = ResolveDocument("weekly PLANNING", sample)
	require.NoError(t, err)
	assert.Equal(t, "0b9c2e6a-1111", d.ID)

	_, err = ResolveDocument("release notes", sample)
	assert.ErrorIs(t, err, ErrAmbiguous)

	d, err = ResolveDocument("wkpln", sample)
	require.NoError(t, err)
	assert.Equal(t, "Weekly planning", d.Title)

	_, err = ResolveDocument("zzzz", sample)
	assert.ErrorIs(t, err, ErrNoMatch)
	_, err = ResolveDocument("  ", sample)
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestScoreCompletions(t *testing.T) {
	cands := DocumentTitles(sample)
	assert.Equal(t, cands[:2], ScoreCompletions("", cands, 2))
	got := ScoreCompletions("read", cands, 5)
	require.NotEmpty(t, got)
	assert.Equal(t, "Reading list", got[0])
	assert.Nil(t, ScoreCompletions("qqq", cands, 5))
}
