package autosave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mithrel/muse/pkg/api"
)

type recorder struct {
	mu    sync.Mutex
	saves []Draft
	bases []int64
	fail  error
}

func (r *recorder) save(ctx context.Context, docID string, d Draft, base int64) (api.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return api.Document{}, r.fail
	}
	r.saves = append(r.saves, d)
	r.bases = append(r.bases, base)
	return api.Document{ID: docID, Title: d.Title, Content: d.Content, Version: base + 1}, nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saves)
}

func TestDebounceSavesLatestDraft(t *testing.T) {
	rec := &recorder{}
	s := New(rec.save, 20*time.Millisecond, nil)
	defer s.Close()
	s.Track(api.Document{ID: "d1", Title: "T", Content: "v0", Version: 3})

	s.Update("d1", Draft{Title: "T", Content: "v1"})
	s.Update("d1", Draft{Title: "T", Content: "v2"})
	s.Update("d1", Draft{Title: "T", Content: "v3"})

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 1, rec.count())
	assert.Equal(t, "v3", rec.saves[0].Content)
	assert.Equal(t, int64(3), rec.bases[0])
	assert.Equal(t, int64(4), s.Version("d1"))
	assert.False(t, s.Pending("d1"))
}

func TestUnchangedDraftIsSkipped(t *testing.T) {
	rec := &recorder{}
	s := New(rec.save, time.Hour, nil)
	defer s.Close()
	s.Track(api.Document{ID: "d1", Title: "T", Content: "same", Version: 1})

	s.Update("d1", Draft{Title: "T", Content: "same"})
	assert.False(t, s.Pending("d1"))
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, 0, rec.count())
}

func TestFlushSavesAllPending(t *testing.T) {
	rec := &recorder{}
	s := New(rec.save, time.Hour, nil)
	defer s.Close()

	s.Update("a", Draft{Content: "one"})
	s.Update("b", Draft{Content: "two"})
	require.True(t, s.Pending("a"))

	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, 2, rec.count())
	assert.False(t, s.Pending("a"))
	assert.False(t, s.Pending("b"))

	// saving the same text again is a no-op
	s.Update("a", Draft{Content: "one"})
	assert.False(t, s.Pending("a"))
}

func TestFailedSaveKeepsDraft(t *testing.T) {
	rec := &recorder{fail: errors.New("boom")}
	s := New(rec.save, time.Hour, nil)
	defer s.Close()

	s.Update("a", Draft{Content: "keep me"})
	require.Error(t, s.Flush(context.Background()))
	assert.True(t, s.Pending("a"))

	rec.mu.Lock()
	rec.fail = nil
	rec.mu.Unlock()
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, "keep me", rec.saves[0].Content)
}

func TestClose(t *testing.T) {
	rec := &recorder{}
	s := New(rec.save, 10*time.Millisecond, nil)
	s.Update("a", Draft{Content: "x"})
	s.Close()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
	assert.ErrorIs(t, s.Flush(context.Background()), ErrClosed)
	s.Update("a", Draft{Content: "y"})
}
