package api

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Hash returns a deterministic BLAKE3 hash of the document's identity and text.
// Version and timestamps are left out so an unchanged save hashes the same.
func (d Document) Hash() string {
	h := blake3.New()

	h.Write([]byte(d.ID))
	h.Write([]byte{0})

	h.Write([]byte(d.Title))
	h.Write([]byte{0})

	h.Write([]byte(d.Content))

	return hex.EncodeToString(h.Sum(nil))
}
