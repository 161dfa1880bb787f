package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDocument_Hash(t *testing.T) {
	now := time.Now().UTC()

	base := Document{
		ID:        "doc-id",
		OwnerID:   "owner",
		Title:     "My Doc",
		Content:   "# Hello\n\nworld",
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	t.Run("identical documents produce identical hashes", func(t *testing.T) {
		d1 := base
		d2 := base
		assert.Equal(t, d1.Hash(), d2.Hash())
	})

	t.Run("version and timestamps are ignored", func(t *testing.T) {
		d := base
		d.Version = 7
		d.UpdatedAt = now.Add(time.Hour)
		assert.Equal(t, base.Hash(), d.Hash())
	})

	t.Run("different text produces different hashes", func(t *testing.T) {
		d1 := base
		d1.Title = "Other"

		d2 := base
		d2.Content = "# Hello"

		assert.NotEqual(t, base.Hash(), d1.Hash())
		assert.NotEqual(t, base.Hash(), d2.Hash())
	})

	t.Run("field boundaries are delimited", func(t *testing.T) {
		d1 := base
		d1.Title, d1.Content = "ab", "c"

		d2 := base
		d2.Title, d2.Content = "a", "bc"

		assert.NotEqual(t, d1.Hash(), d2.Hash())
	})
}

func TestPermission(t *testing.T) {
	p, ok := ParsePermission(" Editor ")
	assert.True(t, ok)
	assert.Equal(t, PermissionEditor, p)

	_, ok = ParsePermission("owner")
	assert.False(t, ok, "owner is not grantable")

	assert.True(t, PermissionViewer.CanRead())
	assert.False(t, PermissionViewer.CanWrite())
	assert.True(t, PermissionEditor.CanWrite())
	assert.False(t, PermissionEditor.CanManage())
	assert.True(t, PermissionOwner.CanManage())
	assert.False(t, PermissionNone.CanRead())
}
