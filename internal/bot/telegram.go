package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// maxPhotoSize caps Telegram file downloads. Telegram bots cannot fetch
// files over 20MB anyway.
const maxPhotoSize = 20 * 1024 * 1024

// httpClient is reused for file downloads to avoid creating new clients per request
var httpClient = resty.New().SetDebug(false).SetTimeout(30 * time.Second)

func downloadFileID(
	ctx context.Context,
	getFileDirectURL func(fileId string) (string, error),
	fileID string,
) ([]byte, error) {
	log.Info().Str("fileID", fileID).Msg("downloading file id")
	url, err := getFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}
	res, err := httpClient.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("request failed: %v", res.Status())
	}
	if len(res.Body()) > maxPhotoSize {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", len(res.Body()), maxPhotoSize)
	}

	return res.Body(), nil
}
