package builtin

import (
	"crypto/sha1" //nolint:gosec // G505: content fingerprint, not a security boundary
	"encoding/hex"
	"fmt"

	"github.com/zjrosen/rulebook/internal/provider"
)

// FileHash uses a prefix of the SHA-1 of the asset path as its version.
type FileHash struct {
	Length int `json:"length" validate:"min=4,max=40"`
}

// NewFileHash returns a provider producing 8 character hashes.
func NewFileHash() *FileHash {
	return &FileHash{Length: 8}
}

func (f *FileHash) TypeID() provider.TypeID { return FileHashTypeID }

func (f *FileHash) Description() string {
	return fmt.Sprintf("File hash (%d chars)", f.Length)
}

func (f *FileHash) Provide(assetPath string) (string, bool) {
	sum := sha1.Sum([]byte(assetPath)) //nolint:gosec // G401
	digest := hex.EncodeToString(sum[:])
	n := f.Length
	if n <= 0 || n > len(digest) {
		n = len(digest)
	}
	return digest[:n], true
}
