package api

import (
	"strings"
	"time"
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Document is a markdown document owned by one user.
type Document struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary drops the content for list views.
func (d Document) Summary() DocumentSummary {
	return DocumentSummary{
		ID:        d.ID,
		OwnerID:   d.OwnerID,
		Title:     d.Title,
		Version:   d.Version,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type DocumentSummary struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"owner_id"`
	Title      string     `json:"title"`
	Version    int64      `json:"version"`
	Permission Permission `json:"permission,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Permission is a user's access level on a document.
type Permission string

const (
	PermissionNone   Permission = ""
	PermissionViewer Permission = "viewer"
	PermissionEditor Permission = "editor"
	PermissionOwner  Permission = "owner"
)

// ParsePermission accepts the two grantable permissions, viewer and editor.
func ParsePermission(s string) (Permission, bool) {
	switch Permission(strings.ToLower(strings.TrimSpace(s))) {
	case PermissionViewer:
		return PermissionViewer, true
	case PermissionEditor:
		return PermissionEditor, true
	}
	return PermissionNone, false
}

func (p Permission) CanRead() bool {
	return p == PermissionViewer || p == PermissionEditor || p == PermissionOwner
}

func (p Permission) CanWrite() bool {
	return p == PermissionEditor || p == PermissionOwner
}

// CanManage covers sharing and deletion.
func (p Permission) CanManage() bool { return p == PermissionOwner }

type Collaborator struct {
	ID         string     `json:"id"`
	DocumentID string     `json:"document_id"`
	UserID     string     `json:"user_id"`
	Email      string     `json:"email"`
	Permission Permission `json:"permission"`
	CreatedAt  time.Time  `json:"created_at"`
}

type EventType string

const (
	EventCreate  EventType = "create"
	EventSave    EventType = "save"
	EventDelete  EventType = "delete"
	EventShare   EventType = "share"
	EventUnshare EventType = "unshare"
)

// Event is one entry of a document's history.
type Event struct {
	Time       time.Time `json:"time"`
	Type       EventType `json:"type"`
	DocumentID string    `json:"document_id"`
	UserID     string    `json:"user_id"`
	Version    int64     `json:"version"`
	Hash       string    `json:"hash,omitempty"`
	Detail     string    `json:"detail,omitempty"`
}

// ListQuery selects the documents visible to UserID.
type ListQuery struct {
	UserID string
	Query  string // full-text filter; empty lists everything
	Limit  int
	Cursor string
}

// Page carries the cursor for the next page, empty on the last one.
type Page struct {
	Next string `json:"next,omitempty"`
}
