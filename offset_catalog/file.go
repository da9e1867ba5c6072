package offset_catalog

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
)

// FileSource reads the catalog from a local copy, for offline use
type FileSource struct {
	fs   afero.Fs
	path string
}

func NewFileSource(fs afero.Fs, path string) *FileSource {
	return &FileSource{fs: fs, path: path}
}

// Fetch reads and parses the file; a read failure wraps ErrFetchFailed
func (s *FileSource) Fetch(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return Parse(data)
}
