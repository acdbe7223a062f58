package gcp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/spiritanimal-backend/internal/platform/apierr"
	"github.com/yungbote/spiritanimal-backend/internal/platform/logger"
)

type BucketConfig struct {
	Bucket    string
	CDNDomain string
	// PublicBaseURL overrides the host used in returned links, e.g. http://localhost:4443.
	PublicBaseURL string
	Credentials   string
	Storage       ObjectStorageConfig
	UploadTimeout time.Duration
}

// ImageBucket stores generated images in one GCS bucket and hands out fetchable URLs.
type ImageBucket struct {
	log           *logger.Logger
	storageClient *storage.Client
	storageMode   ObjectStorageMode
	emulatorHost  string
	bucketName    string
	cdnDomain     string
	publicBaseURL string
	uploadTimeout time.Duration
}

func NewImageBucket(ctx context.Context, log *logger.Logger, cfg BucketConfig) (*ImageBucket, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, apierr.Configuration("image_host_missing_bucket", &ObjectStorageConfigError{Code: ObjectStorageConfigErrorMissingBucket})
	}
	if err := ValidateObjectStorageConfig(cfg.Storage); err != nil {
		return nil, apierr.Configuration("image_host_invalid_mode", fmt.Errorf("validate object storage config: %w", err))
	}
	if log == nil {
		log = logger.Nop()
	}
	serviceLog := log.With("service", "ImageBucket")

	publicBaseURL, publicBaseSource, err := resolvePublicBaseURL(cfg.PublicBaseURL, cfg.Storage)
	if err != nil {
		return nil, apierr.Configuration("image_host_invalid_public_base_url", err)
	}
	stClient, err := newStorageClientForMode(ctx, cfg.Storage, cfg.Credentials)
	if err != nil {
		return nil, apierr.Configuration("image_host_client_init", fmt.Errorf("failed to create storage client: %w", err))
	}
	timeout := cfg.UploadTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	serviceLog.Info(
		"Object storage initialized",
		"mode", cfg.Storage.Mode,
		"mode_source", cfg.Storage.ModeSource(),
		"emulator_host", cfg.Storage.EmulatorHost,
		"public_base_source", publicBaseSource,
		"public_base_url", publicBaseURL,
		"bucket", cfg.Bucket,
	)
	b := newImageBucket(cfg, publicBaseURL)
	b.log = serviceLog
	b.storageClient = stClient
	b.uploadTimeout = timeout
	return b, nil
}

func newImageBucket(cfg BucketConfig, publicBaseURL string) *ImageBucket {
	return &ImageBucket{
		log:           logger.Nop(),
		storageMode:   cfg.Storage.Mode,
		emulatorHost:  strings.TrimRight(strings.TrimSpace(cfg.Storage.EmulatorHost), "/"),
		bucketName:    strings.TrimSpace(cfg.Bucket),
		cdnDomain:     strings.TrimSpace(cfg.CDNDomain),
		publicBaseURL: publicBaseURL,
		uploadTimeout: 2 * time.Minute,
	}
}

func newStorageClientForMode(ctx context.Context, storageCfg ObjectStorageConfig, credentials string) (*storage.Client, error) {
	switch storageCfg.Mode {
	case ObjectStorageModeGCS:
		opts := ClientOptions(credentials)
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case ObjectStorageModeGCSEmulator:
		endpoint := strings.TrimRight(strings.TrimSpace(storageCfg.EmulatorHost), "/")
		// The storage client only honors the emulator through this variable.
		_ = os.Setenv("STORAGE_EMULATOR_HOST", endpoint)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &ObjectStorageConfigError{Code: ObjectStorageConfigErrorInvalidMode, Mode: string(storageCfg.Mode)}
	}
}

func resolvePublicBaseURL(raw string, storageCfg ObjectStorageConfig) (baseURL string, source string, err error) {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		parsed, parseErr := url.Parse(raw)
		if parseErr != nil || strings.TrimSpace(parsed.Scheme) == "" || strings.TrimSpace(parsed.Host) == "" {
			return "", "", fmt.Errorf("invalid IMAGE_HOST_PUBLIC_BASE_URL=%q; expected absolute URL like http://localhost:4443", raw)
		}
		return strings.TrimRight(raw, "/"), "image_host_public_base_url", nil
	}
	if storageCfg.IsEmulatorMode() {
		return strings.TrimRight(strings.TrimSpace(storageCfg.EmulatorHost), "/"), "storage_emulator_host", nil
	}
	return "", "gcs_default", nil
}

// Upload writes data under key and returns its public URL.
func (b *ImageBucket) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.uploadTimeout)
	defer cancel()

	w := b.storageClient.Bucket(b.bucketName).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if w.ContentType == "" {
		w.ContentType = contentTypeForKey(key)
	}
	w.CacheControl = "public, max-age=31536000, immutable"
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", apierr.Classify("image_host_gcs", fmt.Errorf("failed to write data to GCS: %w", err))
	}
	if err := w.Close(); err != nil {
		return "", apierr.Classify("image_host_gcs", fmt.Errorf("failed to close GCS writer: %w", err))
	}
	return b.GetPublicURL(key), nil
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch {
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".jpg"), strings.HasSuffix(s, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(s, ".webp"):
		return "image/webp"
	case strings.HasSuffix(s, ".gif"):
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}

func (b *ImageBucket) GetPublicURL(key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if b.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", b.cdnDomain, key)
	}
	if b.storageMode == ObjectStorageModeGCSEmulator {
		if u := b.publicEmulatorObjectMediaURL(key); u != "" {
			return u
		}
	}
	if b.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", b.publicBaseURL, b.bucketName, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", b.bucketName, key)
}

func (b *ImageBucket) publicEmulatorObjectMediaURL(key string) string {
	base := strings.TrimRight(strings.TrimSpace(b.publicBaseURL), "/")
	if base == "" {
		base = b.emulatorHost
	}
	if base == "" {
		return ""
	}
	return fmt.Sprintf(
		"%s/storage/v1/b/%s/o/%s?alt=media",
		base,
		url.PathEscape(b.bucketName),
		url.PathEscape(key),
	)
}

func (b *ImageBucket) Close() error {
	if b == nil || b.storageClient == nil {
		return nil
	}
	return b.storageClient.Close()
}
