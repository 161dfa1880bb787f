package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/muse/pkg/api"
)

func makeDocs(n int) []api.DocumentSummary {
	now := time.Now().UTC().Truncate(time.Second)
	out := make([]api.DocumentSummary, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, api.DocumentSummary{
			ID:         string(rune('a' + i)),
			Title:      "doc " + string(rune('a'+i)),
			Permission: api.PermissionOwner,
			Version:    1,
			UpdatedAt:  now.Add(-time.Duration(i) * time.Minute),
		})
	}
	return out
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBrowserOpensAndClosesPager(t *testing.T) {
	act := Actions{Render: func(ctx context.Context, id string) (string, string, error) {
		return "Title " + id, "rendered " + id, nil
	}}
	var m tea.Model = newModel(context.Background(), makeDocs(3), true, act)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	m, cmd := m.Update(key("enter"))
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	assert.Contains(t, m.View(), "rendered a")
	assert.Contains(t, m.View(), "Title a")

	m, _ = m.Update(key("q"))
	assert.Nil(t, m.(model).pager)
	assert.Contains(t, m.View(), "3 documents")
}

func TestBrowserDelete(t *testing.T) {
	var deleted string
	act := Actions{Delete: func(ctx context.Context, id string) error {
		deleted = id
		return nil
	}}
	docs := makeDocs(2)
	var m tea.Model = newModel(context.Background(), docs, true, act)

	m, cmd := m.Update(key("d"))
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	assert.Equal(t, "a", deleted)
	assert.Len(t, m.(model).docs, 1)
	assert.Contains(t, m.(model).status, "Deleted a")
}

func TestBrowserDeleteNeedsOwner(t *testing.T) {
	docs := makeDocs(1)
	docs[0].Permission = api.PermissionEditor
	act := Actions{Delete: func(ctx context.Context, id string) error { return errors.New("unexpected") }}
	var m tea.Model = newModel(context.Background(), docs, true, act)

	m, cmd := m.Update(key("d"))
	assert.Nil(t, cmd)
	assert.Contains(t, m.(model).status, "Only the owner")
}

func TestBrowserRenderError(t *testing.T) {
	act := Actions{Render: func(ctx context.Context, id string) (string, string, error) {
		return "", "", errors.New("gone")
	}}
	var m tea.Model = newModel(context.Background(), makeDocs(1), false, act)
	m, cmd := m.Update(key("enter"))
	m, _ = m.Update(cmd())
	assert.Nil(t, m.(model).pager)
	assert.Contains(t, m.(model).status, "Open failed: gone")
}

func TestPagerResize(t *testing.T) {
	p := newPager("T", "line", 0, 0)
	assert.Equal(t, 64, p.width)
	p.resizeForTerm(60, 20)
	assert.Equal(t, 58, p.width)
	assert.Equal(t, 18, p.height)

	_, cmd := p.Update(key("esc"))
	assert.Nil(t, cmd)
	assert.True(t, p.closed)
}
