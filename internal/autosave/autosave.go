// Package autosave debounces document drafts and saves them in the background.
package autosave

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mithrel/muse/internal/logging"
	"github.com/mithrel/muse/pkg/api"
)

// ErrClosed is returned by Flush after Close.
var ErrClosed = errors.New("autosave closed")

// Draft is the editable part of a document.
type Draft struct {
	Title   string
	Content string
}

// SaveFunc persists a draft on top of baseVersion and returns the stored document.
type SaveFunc func(ctx context.Context, docID string, d Draft, baseVersion int64) (api.Document, error)

type docState struct {
	version  int64
	lastHash string
	pending  *Draft
	timer    *time.Timer
	saving   sync.Mutex
}

// Saver holds one debounce timer per document.
type Saver struct {
	save     SaveFunc
	interval time.Duration
	log      *zap.Logger

	mu     sync.Mutex
	docs   map[string]*docState
	closed bool
	wg     sync.WaitGroup
}

// New returns a Saver; interval <= 0 means two seconds.
func New(save SaveFunc, interval time.Duration, log *zap.Logger) *Saver {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Saver{
		save:     save,
		interval: interval,
		log:      logging.OrNop(log).Named("autosave"),
		docs:     make(map[string]*docState),
	}
}

func hashOf(docID string, d Draft) string {
	return api.Document{ID: docID, Title: d.Title, Content: d.Content}.Hash()
}

// Track registers the stored state of a document so identical drafts are skipped.
func (s *Saver) Track(doc api.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stateLocked(doc.ID)
	st.version = doc.Version
	st.lastHash = doc.Hash()
}

func (s *Saver) stateLocked(docID string) *docState {
	st, ok := s.docs[docID]
	if !ok {
		st = &docState{}
		s.docs[docID] = st
	}
	return st
}

// Update records the latest draft and restarts the document's timer.
func (s *Saver) Update(docID string, d Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	st := s.stateLocked(docID)
	if hashOf(docID, d) == st.lastHash {
		st.pending = nil
		if st.timer != nil {
			st.timer.Stop()
		}
		return
	}
	st.pending = &d
	if st.timer != nil {
		st.timer.Stop()
	}
	st.timer = time.AfterFunc(s.interval, func() {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		s.wg.Add(1)
		s.mu.Unlock()
		defer s.wg.Done()
		if err := s.saveDoc(context.Background(), docID); err != nil {
			s.log.Warn("autosave failed", zap.String("doc", docID), zap.Error(err))
		}
	})
}

// Pending reports whether docID has an unsaved draft.
func (s *Saver) Pending(docID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.docs[docID]
	return ok && st.pending != nil
}

// Version returns the last version known for docID.
func (s *Saver) Version(docID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.docs[docID]; ok {
		return st.version
	}
	return 0
}

// saveDoc writes the pending draft of one document. Saves of the same
// document never overlap.
func (s *Saver) saveDoc(ctx context.Context, docID string) error {
	s.mu.Lock()
	st, ok := s.docs[docID]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	st.saving.Lock()
	defer st.saving.Unlock()

	s.mu.Lock()
	d := st.pending
	base := st.version
	st.pending = nil
	s.mu.Unlock()
	if d == nil {
		return nil
	}

	saved, err := s.save(ctx, docID, *d, base)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		// keep the draft unless a newer one arrived meanwhile
		if st.pending == nil {
			st.pending = d
		}
		return err
	}
	st.version = saved.Version
	st.lastHash = saved.Hash()
	s.log.Debug("autosaved", zap.String("doc", docID), zap.Int64("version", saved.Version))
	return nil
}

// Flush saves every pending draft now.
func (s *Saver) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	var ids []string
	for id, st := range s.docs {
		if st.pending == nil {
			continue
		}
		if st.timer != nil {
			st.timer.Stop()
		}
		ids = append(ids, id)
	}
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		g.Go(func() error { return s.saveDoc(gctx, id) })
	}
	return g.Wait()
}

// Close stops all timers and waits for saves already running. Drafts that
// were not flushed are dropped.
func (s *Saver) Close() {
	s.mu.Lock()
	s.closed = true
	for _, st := range s.docs {
		if st.timer != nil {
			st.timer.Stop()
		}
	}
	s.mu.Unlock()
	s.wg.Wait()
}
