package connectors

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
)

// InboxStore writes raw messages into the inbox directory, named by content
// hash so a message fetched twice is stored once.
type InboxStore struct {
	dir string
}

func NewInboxStore(dir string) *InboxStore {
	return &InboxStore{dir: dir}
}

// Store reports the path of the stored message and whether it was new.
func (s *InboxStore) Store(raw []byte) (string, bool, error) {
	hashBytes := sha256.Sum256(raw)
	hash := hex.EncodeToString(hashBytes[:])

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", false, err
	}

	path := filepath.Join(s.dir, hash+".eml")
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	} else if !os.IsNotExist(err) {
		return "", false, err
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", false, err
	}
	return path, true, nil
}
