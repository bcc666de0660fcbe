package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/albertocavalcante/go-nodetransform/specifier"
)

// File loads file:// specifiers from the local file system.
type File struct{}

// NewFile creates a file system loader.
func NewFile() *File {
	return &File{}
}

// Load reads the file named by spec.
func (*File) Load(ctx context.Context, spec specifier.Specifier) (*Response, error) {
	if !spec.IsLocal() {
		return nil, fmt.Errorf("%w %q: file loader", ErrUnsupportedScheme, spec.Scheme())
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	path, err := spec.FilePath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return &Response{
		Specifier: spec,
		MediaType: specifier.MediaTypeFromPath(path),
		Content:   data,
	}, nil
}
