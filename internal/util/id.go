package util

import (
	"crypto/rand"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a lexically sortable id, optionally prefixed as "<prefix>_<ulid>".
func NewID(prefix string) string {
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Now(), entropy)
	entropyMu.Unlock()

	value := strings.ToLower(id.String())
	if prefix == "" {
		return value
	}
	return prefix + "_" + value
}
