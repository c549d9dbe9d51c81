package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// Hasher produces a content hash for a resume file. found is false when the file
// does not exist, which disables the exact-match check without being an error.
type Hasher interface {
	Hash(path string) (sum string, found bool, err error)
}

// FileHasher hashes file contents with SHA-256.
type FileHasher struct{}

func (FileHasher) Hash(path string) (string, bool, error) {
	if path == "" {
		return "", false, nil
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("open %q: %w", path, err)
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", false, fmt.Errorf("hash %q: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), true, nil
}

type hashResult struct {
	sum   string
	found bool
	err   error
}

// memoHasher caches hashes for the duration of one detection pass.
type memoHasher struct {
	hasher Hasher
	cache  map[string]hashResult
}

func newMemoHasher(h Hasher) *memoHasher {
	return &memoHasher{hasher: h, cache: make(map[string]hashResult)}
}

func (m *memoHasher) Hash(path string) (string, bool, error) {
	if r, ok := m.cache[path]; ok {
		return r.sum, r.found, r.err
	}
	sum, found, err := m.hasher.Hash(path)
	m.cache[path] = hashResult{sum: sum, found: found, err: err}
	return sum, found, err
}
