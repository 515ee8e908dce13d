package photo

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
)

// SampleSitePhotoURI is the photo the mock camera "captures".
const SampleSitePhotoURI = "https://via.placeholder.com/400/CCCCCC/000000?text=Original+Site+Photo"

// Device produces an image of the job site.
type Device interface {
	Capture(ctx context.Context) (Handle, error)
}

// StaticDevice is a stand-in camera that always yields the same handle.
type StaticDevice struct {
	Photo Handle
}

// NewStaticDevice returns a device yielding the sample site photo.
func NewStaticDevice() *StaticDevice {
	return &StaticDevice{Photo: FromURI(SampleSitePhotoURI)}
}

func (d *StaticDevice) Capture(ctx context.Context) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return Handle{}, captureFailed("cancelled", err)
	}
	if d.Photo.IsZero() {
		return Handle{}, captureFailed("no photo configured", nil)
	}
	return d.Photo, nil
}

// FileDevice "captures" by reading an image file from disk.
type FileDevice struct {
	Path string
}

func (d *FileDevice) Capture(ctx context.Context) (Handle, error) {
	data, err := os.ReadFile(d.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Handle{}, captureFailed(fmt.Sprintf("file not found: %s", d.Path), err)
		}
		return Handle{}, captureFailed(err.Error(), err)
	}
	if len(data) == 0 {
		return Handle{}, captureFailed(fmt.Sprintf("file is empty: %s", d.Path), nil)
	}

	log.Info().Str("path", d.Path).Int("bytes", len(data)).Msg("captured photo from file")
	return Handle{URI: d.Path, MIMEType: MIMETypeFromPath(d.Path), Data: data}, nil
}

// URLDevice "captures" by downloading an image.
type URLDevice struct {
	URL        string
	Downloader *Downloader
}

func (d *URLDevice) Capture(ctx context.Context) (Handle, error) {
	downloader := d.Downloader
	if downloader == nil {
		downloader = NewDownloader()
	}
	data, mimeType, err := downloader.Download(ctx, d.URL)
	if err != nil {
		return Handle{}, captureFailed(err.Error(), err)
	}

	log.Info().Str("url", d.URL).Int("bytes", len(data)).Msg("captured photo from url")
	return Handle{URI: d.URL, MIMEType: mimeType, Data: data}, nil
}

// DeviceFor picks a device for a configured capture source: empty means the
// sample photo, http(s) URLs are downloaded and anything else is a file path.
func DeviceFor(source string, downloader *Downloader) Device {
	switch {
	case source == "":
		return NewStaticDevice()
	case isRemote(source):
		return &URLDevice{URL: source, Downloader: downloader}
	default:
		return &FileDevice{Path: source}
	}
}
