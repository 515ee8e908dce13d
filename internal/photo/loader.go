package photo

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Loader resolves a Handle to raw image bytes for services that need the
// pixels rather than a reference.
type Loader struct {
	downloader *Downloader
}

// NewLoader creates a Loader. A nil downloader uses NewDownloader().
func NewLoader(downloader *Downloader) *Loader {
	if downloader == nil {
		downloader = NewDownloader()
	}
	return &Loader{downloader: downloader}
}

// Bytes returns the image data and MIME type referenced by h.
func (l *Loader) Bytes(ctx context.Context, h Handle) ([]byte, string, error) {
	if h.HasData() {
		return h.Data, mimeOrDefault(h.MIMEType, h.URI), nil
	}
	if h.URI == "" {
		return nil, "", fmt.Errorf("empty image handle")
	}

	if isRemote(h.URI) {
		data, mimeType, err := l.downloader.Download(ctx, h.URI)
		if err != nil {
			return nil, "", err
		}
		return data, mimeType, nil
	}

	path := strings.TrimPrefix(h.URI, "file://")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}
	return data, mimeOrDefault(h.MIMEType, path), nil
}

func isRemote(uri string) bool {
	return strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://")
}

func mimeOrDefault(mimeType, path string) string {
	if mimeType != "" {
		return mimeType
	}
	return MIMETypeFromPath(path)
}
