// Package image validates uploaded recipe images before they are handed to a
// multimodal model.
package image

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/webp"

	"go.uber.org/zap"

	"recipe-extractor/internal/infrastructure/config"
	"recipe-extractor/internal/pkg/common"
)

var mimeByFormat = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// Service checks uploaded images against the format allow-list and the size
// bound, and normalizes them to a data URI for the model message.
type Service struct {
	maxSize int64
}

func NewService(cfg *config.Config) *Service {
	return &Service{maxSize: cfg.Image.MaxSizeBytes}
}

// Prepare accepts raw base64 or a full data URI, validates the payload and
// returns a data URI with the detected MIME type.
func (s *Service) Prepare(input string) (string, error) {
	payload := stripDataURI(input)
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return "", common.ErrInvalidImageFormat
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", common.ErrInvalidImageFormat.WithCause(err)
	}
	if int64(len(data)) > s.maxSize {
		common.LogWarn("image rejected for size",
			zap.Int("size", len(data)),
			zap.Int64("max", s.maxSize))
		return "", common.ErrInvalidImageSize
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", common.ErrInvalidImageType.WithCause(err)
	}
	mime, ok := mimeByFormat[format]
	if !ok {
		return "", common.ErrInvalidImageType
	}

	return "data:" + mime + ";base64," + payload, nil
}

func stripDataURI(input string) string {
	if !strings.HasPrefix(input, "data:") {
		return input
	}
	if i := strings.Index(input, ","); i >= 0 {
		return input[i+1:]
	}
	return ""
}
