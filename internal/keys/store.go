// Package keys keeps server key material such as the token signing secret.
package keys

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

// KeyStore provides access to named secrets.
type KeyStore interface {
	Get(id string) ([]byte, error)
	Put(id string, key []byte) error
	Delete(id string) error
}

var ErrKeyNotFound = errors.New("key not found")

// SigningKeyID names the JWT signing secret.
const SigningKeyID = "auth/signing-secret"

const signingKeyBytes = 32

// MemoryStore keeps base64 secrets in a map.
type MemoryStore struct {
	Keys map[string]string
}

func (s *MemoryStore) Get(id string) ([]byte, error) {
	if s == nil || s.Keys == nil {
		return nil, ErrKeyNotFound
	}
	val, ok := s.Keys[id]
	if !ok || val == "" {
		return nil, ErrKeyNotFound
	}
	return base64.StdEncoding.DecodeString(val)
}

func (s *MemoryStore) Put(id string, key []byte) error {
	if s.Keys == nil {
		s.Keys = map[string]string{}
	}
	s.Keys[id] = base64.StdEncoding.EncodeToString(key)
	return nil
}

func (s *MemoryStore) Delete(id string) error {
	if s == nil || s.Keys == nil {
		return nil
	}
	delete(s.Keys, id)
	return nil
}

// SigningSecret returns the stored signing secret, creating a random one on
// first use.
func SigningSecret(store KeyStore) (string, error) {
	b, err := store.Get(SigningKeyID)
	if err == nil && len(b) > 0 {
		return base64.RawURLEncoding.EncodeToString(b), nil
	}
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		return "", fmt.Errorf("read signing secret: %w", err)
	}
	b = make([]byte, signingKeyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	if err := store.Put(SigningKeyID, b); err != nil {
		return "", fmt.Errorf("store signing secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
