package api

import "github.com/google/uuid"

// NewID returns a random UUID string for users, documents and collaborators.
func NewID() string {
	return uuid.NewString()
}
