package s3

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yungbote/spiritanimal-backend/internal/platform/apierr"
	"github.com/yungbote/spiritanimal-backend/internal/platform/logger"
)

type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicBaseURL, when set, is used for links instead of presigned URLs.
	PublicBaseURL string
	PresignExpiry time.Duration
	UploadTimeout time.Duration
}

// ImageStore is an S3-compatible image host backed by minio-go.
type ImageStore struct {
	log           *logger.Logger
	client        *minio.Client
	bucketName    string
	region        string
	publicBaseURL string
	presignExpiry time.Duration
	uploadTimeout time.Duration
	initOnce      sync.Once
	initErr       error
}

func New(log *logger.Logger, cfg Config) (*ImageStore, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, apierr.Configuration("image_host_s3_missing_endpoint", fmt.Errorf("s3 endpoint is required"))
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, apierr.Configuration("image_host_s3_missing_credentials", fmt.Errorf("s3 access key and secret key are required"))
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, apierr.Configuration("image_host_missing_bucket", fmt.Errorf("s3 bucket is required"))
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, apierr.Configuration("image_host_client_init", fmt.Errorf("init s3 client: %w", err))
	}
	if log == nil {
		log = logger.Nop()
	}
	s := newStore(cfg)
	s.log = log.With("service", "S3ImageStore")
	s.client = client
	s.bucketName = bucket
	s.region = region
	return s, nil
}

func newStore(cfg Config) *ImageStore {
	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = 7 * 24 * time.Hour
	}
	timeout := cfg.UploadTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &ImageStore{
		log:           logger.Nop(),
		bucketName:    strings.TrimSpace(cfg.Bucket),
		publicBaseURL: strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/"),
		presignExpiry: expiry,
		uploadTimeout: timeout,
	}
}

func (s *ImageStore) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucketName)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.log.Info("Creating image bucket", "bucket", s.bucketName, "region", s.region)
		s.initErr = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

// Upload writes data under key and returns a URL the caller can fetch.
func (s *ImageStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if s == nil || s.client == nil {
		return "", apierr.Internal("image_host_s3_nil", fmt.Errorf("store is nil"))
	}
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", apierr.Internal("image_host_s3_empty_key", fmt.Errorf("key is required"))
	}
	ctx, cancel := context.WithTimeout(ctx, s.uploadTimeout)
	defer cancel()

	if err := s.ensureBucket(ctx); err != nil {
		return "", apierr.Classify("image_host_s3", fmt.Errorf("ensure bucket: %w", err))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.StatusCode != 0 {
			return "", apierr.FromHTTPStatus("image_host_s3", resp.StatusCode, resp.Message)
		}
		return "", apierr.Classify("image_host_s3", fmt.Errorf("put object: %w", err))
	}
	if u := s.PublicURL(key); u != "" {
		return u, nil
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucketName, key, s.presignExpiry, nil)
	if err != nil {
		return "", apierr.Classify("image_host_s3", fmt.Errorf("presign: %w", err))
	}
	return u.String(), nil
}

// PublicURL is empty unless a public base URL is configured.
func (s *ImageStore) PublicURL(key string) string {
	if s.publicBaseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s", s.publicBaseURL, s.bucketName, strings.TrimLeft(key, "/"))
}
