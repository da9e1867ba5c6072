// Package fingerprint identifies a build of the target binary by content hash.
// The digest is a lookup key for the offset catalog, not an integrity check.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

var ErrBinaryReadFailed = errors.New("binary read failed")

// Fingerprint is the uppercase hex SHA-256 digest of a file
type Fingerprint string

func (f Fingerprint) String() string { return string(f) }

// SiblingPath returns the path of moduleFile next to the executable at exePath.
// Windows separators are honoured so a Wine process reports a usable path.
func SiblingPath(exePath, moduleFile string) string {
	if i := strings.LastIndexAny(exePath, `/\`); i >= 0 {
		return exePath[:i+1] + moduleFile
	}
	return filepath.Join(".", moduleFile)
}

// Hasher reads module files through an afero filesystem
type Hasher struct {
	fs afero.Fs
}

func NewHasher(fs afero.Fs) *Hasher {
	return &Hasher{fs: fs}
}

// HashFile streams the whole file at path through SHA-256
func (h *Hasher) HashFile(path string) (Fingerprint, error) {
	f, err := h.fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBinaryReadFailed, err)
	}
	defer f.Close()

	return Sum(f)
}

// Sum hashes everything read from r
func Sum(r io.Reader) (Fingerprint, error) {
	sum := sha256.New()
	if _, err := io.Copy(sum, r); err != nil {
		return "", fmt.Errorf("%w: %w", ErrBinaryReadFailed, err)
	}
	return Fingerprint(strings.ToUpper(hex.EncodeToString(sum.Sum(nil)))), nil
}
