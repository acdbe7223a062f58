package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"path"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"

	"github.com/yungbote/spiritanimal-backend/internal/observability"
	"github.com/yungbote/spiritanimal-backend/internal/platform/apierr"
	"github.com/yungbote/spiritanimal-backend/internal/platform/logger"
)

// ObjectUploader is implemented by gcp.ImageBucket and s3.ImageStore.
type ObjectUploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// ImageHostService turns inline image bytes into a fetchable URL.
type ImageHostService interface {
	// Configured reports whether Rehost has somewhere to upload.
	Configured() bool
	Rehost(ctx context.Context, data []byte, mimeType string) (string, error)
}

type imageHostService struct {
	log       *logger.Logger
	uploader  ObjectUploader
	keyPrefix string
	now       func() time.Time
}

func NewImageHostService(log *logger.Logger, uploader ObjectUploader, keyPrefix string) ImageHostService {
	if log == nil {
		log = logger.Nop()
	}
	keyPrefix = strings.Trim(strings.TrimSpace(keyPrefix), "/")
	if keyPrefix == "" {
		keyPrefix = "spirit-animals"
	}
	return &imageHostService{
		log:       log.With("service", "ImageHostService"),
		uploader:  uploader,
		keyPrefix: keyPrefix,
		now:       time.Now,
	}
}

func (s *imageHostService) Configured() bool { return s.uploader != nil }

var formatTypes = map[string]struct{ ext, mime string }{
	"png":  {".png", "image/png"},
	"jpeg": {".jpg", "image/jpeg"},
	"gif":  {".gif", "image/gif"},
	"webp": {".webp", "image/webp"},
}

// Rehost validates that data decodes as an image and uploads it under a fresh key.
// The declared mime type is only a fallback; the decoded format wins.
func (s *imageHostService) Rehost(ctx context.Context, data []byte, mimeType string) (string, error) {
	if s.uploader == nil {
		return "", apierr.Configuration("image_host_not_configured", errors.New("inline image returned but no image host is configured"))
	}
	if len(data) == 0 {
		return "", apierr.UpstreamResponse("image_host_empty_image", 0, errors.New("inline image is empty"))
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", apierr.UpstreamResponse("image_host_invalid_image", 0, fmt.Errorf("decode inline image (declared %q): %w", mimeType, err))
	}
	ft, ok := formatTypes[format]
	if !ok {
		ft = struct{ ext, mime string }{".bin", mimeType}
	}

	ctx, span := observability.StartSpan(ctx, "imagehost.upload", "image.format", format)
	defer span.End()

	now := s.now().UTC()
	key := path.Join(s.keyPrefix, now.Format("2006/01/02"), uuid.NewString()+ft.ext)
	start := time.Now()
	u, err := s.uploader.Upload(ctx, key, data, ft.mime)
	if err != nil {
		span.RecordError(err)
		s.log.Error("Image upload failed", "key", key, "error", err)
		return "", err
	}
	s.log.Info("Image re-hosted",
		"key", key,
		"format", format,
		"width", cfg.Width,
		"height", cfg.Height,
		"bytes", len(data),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return u, nil
}
