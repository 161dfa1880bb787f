package db

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mithrel/muse/pkg/api"
)

type memUser struct {
	user api.User
	hash string
}

// memStore keeps everything in maps; used for tests and mem:// urls.
type memStore struct {
	mu     sync.RWMutex
	users  map[string]memUser
	docs   map[string]api.Document
	collab map[string]api.Collaborator
	events []api.Event
}

func newMemStore() *memStore {
	return &memStore{
		users:  make(map[string]memUser),
		docs:   make(map[string]api.Document),
		collab: make(map[string]api.Collaborator),
	}
}

func (m *memStore) CreateUser(ctx context.Context, u api.User, passwordHash string) (api.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		return api.User{}, ErrConflict
	}
	if _, ok := m.users[u.ID]; ok {
		return api.User{}, ErrConflict
	}
	for _, x := range m.users {
		if strings.EqualFold(x.user.Email, u.Email) {
			return api.User{}, ErrConflict
		}
	}
	m.users[u.ID] = memUser{user: u, hash: passwordHash}
	return u, nil
}

func (m *memStore) GetUser(ctx context.Context, id string) (api.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return api.User{}, ErrNotFound
	}
	return u.user, nil
}

func (m *memStore) GetUserByEmail(ctx context.Context, email string) (api.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email = strings.TrimSpace(email)
	for _, u := range m.users {
		if strings.EqualFold(u.user.Email, email) {
			return u.user, nil
		}
	}
	return api.User{}, ErrNotFound
}

func (m *memStore) PasswordHash(ctx context.Context, id string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return "", ErrNotFound
	}
	return u.hash, nil
}

func (m *memStore) CreateDocument(ctx context.Context, d api.Document) (api.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		return api.Document{}, ErrConflict
	}
	if _, ok := m.docs[d.ID]; ok {
		return api.Document{}, ErrConflict
	}
	if _, ok := m.users[d.OwnerID]; !ok {
		return api.Document{}, ErrNotFound
	}
	if d.Version == 0 {
		d.Version = 1
	}
	m.docs[d.ID] = d
	m.appendLocked(api.Event{Time: d.CreatedAt, Type: api.EventCreate, DocumentID: d.ID, UserID: actorOr(ctx, d.OwnerID), Version: d.Version, Hash: d.Hash()})
	return d, nil
}

func (m *memStore) GetDocument(ctx context.Context, id string) (api.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[id]
	if !ok {
		return api.Document{}, ErrNotFound
	}
	return d, nil
}

func (m *memStore) UpdateDocumentCAS(ctx context.Context, d api.Document, ifVersion int64) (api.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.docs[d.ID]
	if !ok {
		return api.Document{}, ErrNotFound
	}
	if cur.Version != ifVersion {
		return api.Document{}, ErrConflict
	}
	cur.Version = d.Version
	cur.Title = d.Title
	cur.Content = d.Content
	cur.UpdatedAt = d.UpdatedAt
	m.docs[d.ID] = cur
	m.appendLocked(api.Event{Time: cur.UpdatedAt, Type: api.EventSave, DocumentID: cur.ID, UserID: actorOr(ctx, cur.OwnerID), Version: cur.Version, Hash: cur.Hash()})
	return cur, nil
}

func (m *memStore) DeleteDocument(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.docs, id)
	for cid, c := range m.collab {
		if c.DocumentID == id {
			delete(m.collab, cid)
		}
	}
	m.appendLocked(api.Event{Time: time.Now().UTC(), Type: api.EventDelete, DocumentID: id, UserID: actorOr(ctx, d.OwnerID), Version: d.Version})
	return nil
}

func (m *memStore) ListDocuments(ctx context.Context, q api.ListQuery) ([]api.DocumentSummary, api.Page, error) {
	cur, hasCursor, err := cursorFrom(q.Cursor)
	if err != nil {
		return nil, api.Page{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	limit := q.Limit
	if limit <= 0 {
		limit = 1000
	}
	words := strings.Fields(strings.ToLower(q.Query))

	var out []api.DocumentSummary
	for _, d := range m.docs {
		perm := m.permissionLocked(d, q.UserID)
		if !perm.CanRead() {
			continue
		}
		if !matchesAll(d, words) {
			continue
		}
		s := d.Summary()
		s.Permission = perm
		if hasCursor && !cur.before(s) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit+1 {
		out = out[:limit+1]
	}
	return pageOf(out, limit)
}

func matchesAll(d api.Document, words []string) bool {
	if len(words) == 0 {
		return true
	}
	hay := strings.ToLower(d.Title + "\n" + d.Content)
	for _, w := range words {
		if !strings.Contains(hay, w) {
			return false
		}
	}
	return true
}

func (m *memStore) AddCollaborator(ctx context.Context, c api.Collaborator) (api.Collaborator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[c.DocumentID]
	if !ok {
		return api.Collaborator{}, ErrNotFound
	}
	u, ok := m.users[c.UserID]
	if !ok {
		return api.Collaborator{}, ErrNotFound
	}
	if c.ID == "" {
		return api.Collaborator{}, ErrConflict
	}
	for _, x := range m.collab {
		if x.ID == c.ID || (x.DocumentID == c.DocumentID && x.UserID == c.UserID) {
			return api.Collaborator{}, ErrConflict
		}
	}
	c.Email = u.user.Email
	m.collab[c.ID] = c
	m.appendLocked(api.Event{Time: c.CreatedAt, Type: api.EventShare, DocumentID: d.ID, UserID: actorOr(ctx, d.OwnerID), Version: d.Version, Detail: c.Email + " as " + string(c.Permission)})
	return c, nil
}

func (m *memStore) ListCollaborators(ctx context.Context, documentID string) ([]api.Collaborator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []api.Collaborator
	for _, c := range m.collab {
		if c.DocumentID == documentID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memStore) RemoveCollaborator(ctx context.Context, documentID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collab[id]
	if !ok || c.DocumentID != documentID {
		return ErrNotFound
	}
	d := m.docs[documentID]
	delete(m.collab, id)
	m.appendLocked(api.Event{Time: time.Now().UTC(), Type: api.EventUnshare, DocumentID: documentID, UserID: actorOr(ctx, d.OwnerID), Version: d.Version, Detail: c.Email})
	return nil
}

func (m *memStore) PermissionFor(ctx context.Context, documentID, userID string) (api.Permission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[documentID]
	if !ok {
		return api.PermissionNone, ErrNotFound
	}
	return m.permissionLocked(d, userID), nil
}

func (m *memStore) permissionLocked(d api.Document, userID string) api.Permission {
	if d.OwnerID == userID {
		return api.PermissionOwner
	}
	for _, c := range m.collab {
		if c.DocumentID == d.ID && c.UserID == userID {
			return c.Permission
		}
	}
	return api.PermissionNone
}

func (m *memStore) ListEvents(ctx context.Context, documentID string, limit int) ([]api.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	var out []api.Event
	for i := len(m.events) - 1; i >= 0 && len(out) < limit; i-- {
		if m.events[i].DocumentID == documentID {
			out = append(out, m.events[i])
		}
	}
	return out, nil
}

func (m *memStore) appendLocked(ev api.Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	m.events = append(m.events, ev)
}
