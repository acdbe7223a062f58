package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/yungbote/spiritanimal-backend/internal/platform/apierr"
	"github.com/yungbote/spiritanimal-backend/internal/platform/gcp"
	"github.com/yungbote/spiritanimal-backend/internal/platform/gemini"
	"github.com/yungbote/spiritanimal-backend/internal/platform/httpx"
	"github.com/yungbote/spiritanimal-backend/internal/platform/ideogram"
	"github.com/yungbote/spiritanimal-backend/internal/platform/logger"
	"github.com/yungbote/spiritanimal-backend/internal/platform/openai"
	"github.com/yungbote/spiritanimal-backend/internal/platform/redis"
	"github.com/yungbote/spiritanimal-backend/internal/platform/s3"
	"github.com/yungbote/spiritanimal-backend/internal/platform/social"
	"github.com/yungbote/spiritanimal-backend/internal/services"
)

// Clients holds one handle per external system. A nil client means its credentials
// are missing; requests that need it fail with a configuration error.
type Clients struct {
	OpenAI   *openai.Client
	Gemini   *gemini.Client
	Ideogram *ideogram.Client
	Social   *social.Aggregator

	// Uploader is either a GCS bucket or an S3-compatible store.
	Uploader services.ObjectUploader
	closers  []func() error
}

func (c Clients) Close() error {
	var errs []error
	for _, fn := range c.closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (cfg Config) retryPolicy() httpx.RetryPolicy {
	p := httpx.DefaultRetryPolicy()
	p.MaxRetries = cfg.Retry.MaxRetries
	p.BaseBackoff = cfg.Retry.BaseBackoff
	p.MaxBackoff = cfg.Retry.MaxBackoff
	return p
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients
	httpClient := &http.Client{Transport: http.DefaultTransport}
	retry := cfg.retryPolicy()
	temp := cfg.LLM.Temperature

	// OpenAI
	if oc, err := openai.New(log, openai.Config{
		APIKey:              cfg.OpenAI.APIKey,
		BaseURL:             cfg.OpenAI.BaseURL,
		Model:               modelFor(cfg, "openai"),
		Temperature:         &temp,
		NoTemperatureModels: cfg.OpenAI.NoTemperatureModels,
		ImageModel:          cfg.OpenAI.ImageModel,
		ImageSize:           cfg.OpenAI.ImageSize,
		TextTimeout:         cfg.LLM.Timeout,
		ImageTimeout:        cfg.OpenAI.ImageTimeout,
		Retry:               retry,
	}, httpClient); err == nil {
		out.OpenAI = oc
	} else if apierr.KindOf(err) != apierr.KindConfiguration {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	} else {
		log.Warn("OpenAI client disabled", "code", apierr.CodeOf(err))
	}

	// Gemini
	if gc, err := gemini.New(ctx, log, gemini.Config{
		APIKey:       cfg.Gemini.APIKey,
		BaseURL:      cfg.Gemini.BaseURL,
		Model:        modelFor(cfg, "gemini"),
		ImageModel:   cfg.Gemini.ImageModel,
		Temperature:  &temp,
		TextTimeout:  cfg.LLM.Timeout,
		ImageTimeout: cfg.Gemini.ImageTimeout,
		Retry:        retry,
	}, httpClient); err == nil {
		out.Gemini = gc
	} else {
		log.Warn("Gemini client disabled", "code", apierr.CodeOf(err), "error", err)
	}

	// Ideogram
	if ic, err := ideogram.New(log, ideogram.Config{
		APIKey:  cfg.Ideogram.APIKey,
		BaseURL: cfg.Ideogram.BaseURL,
		Timeout: cfg.Ideogram.Timeout,
		Retry:   retry,
	}, httpClient); err == nil {
		out.Ideogram = ic
	} else {
		log.Warn("Ideogram client disabled", "code", apierr.CodeOf(err))
	}

	// Social
	out.Social = social.NewAggregator(log, social.Config{
		TwitterBearerToken: cfg.Social.TwitterBearerToken,
		CacheSize:          cfg.Social.CacheSize,
		CacheTTL:           cfg.Social.CacheTTL,
	}, httpClient)
	if cfg.Social.RedisAddr != "" {
		pc, err := redis.NewProfileCache(ctx, log, redis.Config{
			Addr:     cfg.Social.RedisAddr,
			Password: cfg.Social.RedisPassword,
			DB:       cfg.Social.RedisDB,
		})
		if err != nil {
			log.Warn("Shared social cache disabled", "code", apierr.CodeOf(err), "error", err)
		} else {
			out.Social.WithSharedCache(pc)
			out.closers = append(out.closers, pc.Close)
		}
	}

	// Image host
	if err := wireImageHost(ctx, log, cfg, &out); err != nil {
		log.Warn("Image host disabled; inline images cannot be re-hosted", "code", apierr.CodeOf(err), "error", err)
	}
	return out, nil
}

func wireImageHost(ctx context.Context, log *logger.Logger, cfg Config, out *Clients) error {
	h := cfg.ImageHost
	switch h.Mode {
	case "s3":
		store, err := s3.New(log, s3.Config{
			Endpoint:      h.S3Endpoint,
			Region:        h.S3Region,
			AccessKey:     h.S3AccessKey,
			SecretKey:     h.S3SecretKey,
			Bucket:        h.Bucket,
			UseSSL:        h.S3UseSSL,
			PublicBaseURL: h.PublicBaseURL,
			UploadTimeout: 30 * time.Second,
		})
		if err != nil {
			return err
		}
		out.Uploader = store
	default:
		storageCfg, err := gcp.ResolveObjectStorageConfig(h.Mode, h.EmulatorHost)
		if err != nil {
			return apierr.Configuration("image_host_invalid_mode", err)
		}
		bucket, err := gcp.NewImageBucket(ctx, log, gcp.BucketConfig{
			Bucket:        h.Bucket,
			CDNDomain:     h.CDNDomain,
			PublicBaseURL: h.PublicBaseURL,
			Credentials:   h.Credentials,
			Storage:       storageCfg,
			UploadTimeout: 30 * time.Second,
		})
		if err != nil {
			return err
		}
		out.Uploader = bucket
		out.closers = append(out.closers, bucket.Close)
	}
	return nil
}

func modelFor(cfg Config, provider string) string {
	if cfg.LLM.Provider == provider {
		return cfg.LLM.Model
	}
	return ""
}
