package imagestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileFetcher reads images from the local filesystem. References may be
// plain paths or file:// URLs.
type FileFetcher struct {
	maxSize int64
}

// NewFileFetcher creates a FileFetcher with the default size limit.
func NewFileFetcher() *FileFetcher {
	return &FileFetcher{maxSize: DefaultMaxImageSize}
}

// WithMaxSize sets a custom maximum file size.
func (f *FileFetcher) WithMaxSize(maxSize int64) *FileFetcher {
	f.maxSize = maxSize
	return f
}

func (f *FileFetcher) Fetch(ctx context.Context, ref string) (Image, error) {
	if err := ctx.Err(); err != nil {
		return Image{}, err
	}

	path := strings.TrimPrefix(ref, "file://")
	file, err := os.Open(path)
	if err != nil {
		return Image{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	data, err := readLimited(file, f.maxSize)
	if err != nil {
		return Image{}, err
	}

	return Image{URL: ref, Data: data, MIMEType: mimeTypeFromPath(path, data)}, nil
}

// mimeTypeFromPath picks the type by file extension, sniffing unknown ones.
func mimeTypeFromPath(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return mimeType("", data)
	}
}

// Router sends http(s) references to Remote and everything else to Local.
type Router struct {
	Remote Fetcher
	Local  Fetcher
}

func (r Router) Fetch(ctx context.Context, ref string) (Image, error) {
	lower := strings.ToLower(ref)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return r.Remote.Fetch(ctx, ref)
	}
	if r.Local == nil {
		return Image{}, fmt.Errorf("unsupported image reference: %s", ref)
	}
	return r.Local.Fetch(ctx, ref)
}
