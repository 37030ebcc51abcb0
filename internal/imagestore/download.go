// Package imagestore resolves image references to raw bytes for the
// inference providers.
package imagestore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultDownloadTimeout is the default timeout for a single image download
	DefaultDownloadTimeout = 30 * time.Second
	// DefaultMaxImageSize is the default maximum image size (10MB)
	DefaultMaxImageSize = 10 * 1024 * 1024
)

// Image is a fetched image ready to be attached to a provider request.
type Image struct {
	URL      string
	Data     []byte
	MIMEType string
}

// Fetcher resolves an image reference to its bytes and MIME type.
type Fetcher interface {
	Fetch(ctx context.Context, imageURL string) (Image, error)
}

// Downloader fetches images over HTTP.
type Downloader struct {
	client  *resty.Client
	timeout time.Duration
	maxSize int64
}

// NewDownloader creates a new Downloader with default settings.
func NewDownloader() *Downloader {
	return &Downloader{
		client:  resty.New().SetDebug(false).SetTimeout(DefaultDownloadTimeout),
		timeout: DefaultDownloadTimeout,
		maxSize: DefaultMaxImageSize,
	}
}

// WithTimeout sets a custom timeout for downloads.
func (d *Downloader) WithTimeout(timeout time.Duration) *Downloader {
	d.timeout = timeout
	d.client.SetTimeout(timeout)
	return d
}

// WithMaxSize sets a custom maximum file size.
func (d *Downloader) WithMaxSize(maxSize int64) *Downloader {
	d.maxSize = maxSize
	return d
}

// Fetch downloads image data from a URL.
// It respects context cancellation and enforces size limits.
func (d *Downloader) Fetch(ctx context.Context, imageURL string) (Image, error) {
	reqCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	res, err := d.client.R().
		SetContext(reqCtx).
		SetDoNotParseResponse(true).
		Get(imageURL)
	if err != nil {
		return Image{}, fmt.Errorf("failed to download image: %w", err)
	}
	body := res.RawBody()
	defer body.Close()

	if res.StatusCode() != http.StatusOK {
		return Image{}, fmt.Errorf("download failed: status %d", res.StatusCode())
	}

	// Validate Content-Type is an image
	contentType := res.Header().Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return Image{}, fmt.Errorf("invalid content type: expected image/*, got %s", contentType)
	}

	if res.RawResponse.ContentLength > d.maxSize {
		return Image{}, fmt.Errorf("image too large: %d bytes exceeds limit of %d bytes", res.RawResponse.ContentLength, d.maxSize)
	}

	data, err := readLimited(body, d.maxSize)
	if err != nil {
		return Image{}, err
	}

	return Image{URL: imageURL, Data: data, MIMEType: mimeType(contentType, data)}, nil
}

// readLimited reads at most maxSize bytes, failing if there is more. It
// catches bodies whose Content-Length is missing or wrong.
func readLimited(r io.Reader, maxSize int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("image too large: exceeds limit of %d bytes", maxSize)
	}
	return data, nil
}

// mimeType returns the media type from the Content-Type header without
// parameters, sniffing the data when the header is missing.
func mimeType(contentType string, data []byte) string {
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if i := strings.Index(contentType, ";"); i != -1 {
		contentType = contentType[:i]
	}
	return strings.TrimSpace(contentType)
}

// FetchAll downloads all images concurrently. The result has the same order
// as urls; the first failure cancels the remaining downloads.
func FetchAll(ctx context.Context, fetcher Fetcher, urls []string) ([]Image, error) {
	images := make([]Image, len(urls))
	g, ctx := errgroup.WithContext(ctx)
	for i := range urls {
		g.Go(func() error {
			img, err := fetcher.Fetch(ctx, urls[i])
			if err != nil {
				log.Error().Err(err).Str("url", urls[i]).Int("index", i).Msg("failed to fetch image")
				return fmt.Errorf("failed to fetch image %d: %w", i, err)
			}
			images[i] = img
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}
