package upload

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

type File struct {
	Name        string
	ContentType string
	Body        io.Reader
	Size        int64
}

type Result struct {
	Key string
	URL string
}

// Uploader stores one image and returns where it can be read from.
type Uploader interface {
	Upload(ctx context.Context, file File) (Result, error)
}

// Open reads a local image for upload. The caller closes the returned closer.
func Open(path string) (File, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, nil, fmt.Errorf("open image %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return File{}, nil, fmt.Errorf("stat image %s: %w", path, err)
	}
	return File{
		Name:        filepath.Base(path),
		ContentType: contentType(path),
		Body:        f,
		Size:        info.Size(),
	}, f, nil
}

// IsRemote reports whether an image reference is already a durable URL.
func IsRemote(ref string) bool {
	ref = strings.ToLower(strings.TrimSpace(ref))
	return strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://")
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
