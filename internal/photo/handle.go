package photo

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Handle is an opaque reference to an image: a URI (file path, file:// or
// http(s) URL), inline bytes, or both. Handles are passed by value and must be
// treated as immutable once created.
type Handle struct {
	URI      string
	MIMEType string
	Data     []byte
}

// FromURI creates a handle for an image that lives at uri.
func FromURI(uri string) Handle {
	return Handle{URI: uri, MIMEType: MIMETypeFromPath(uri)}
}

// FromBytes creates a handle for inline image data.
func FromBytes(data []byte, mimeType string) Handle {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return Handle{Data: data, MIMEType: mimeType}
}

// IsZero reports whether the handle references nothing.
func (h Handle) IsZero() bool {
	return h.URI == "" && len(h.Data) == 0
}

// HasData reports whether the image bytes are held inline.
func (h Handle) HasData() bool {
	return len(h.Data) > 0
}

func (h Handle) String() string {
	if h.URI != "" {
		return h.URI
	}
	return fmt.Sprintf("<%d bytes %s>", len(h.Data), h.MIMEType)
}

// MIMETypeFromPath guesses an image MIME type from a path or URL.
// Unknown extensions default to image/jpeg.
func MIMETypeFromPath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	case ".heic":
		return "image/heic"
	default:
		return "image/jpeg"
	}
}
