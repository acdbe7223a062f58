package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/spiritanimal-backend/internal/domain/spirit"
	"github.com/yungbote/spiritanimal-backend/internal/platform/envutil"
	"github.com/yungbote/spiritanimal-backend/internal/services"
)

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxRequestBytes int64         `yaml:"max_request_bytes"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

type OpenAIConfig struct {
	APIKey              string        `yaml:"api_key"`
	BaseURL             string        `yaml:"base_url"`
	ImageModel          string        `yaml:"image_model"`
	ImageSize           string        `yaml:"image_size"`
	ImageTimeout        time.Duration `yaml:"image_timeout"`
	NoTemperatureModels []string      `yaml:"no_temperature_models"`
}

type GeminiConfig struct {
	APIKey       string        `yaml:"api_key"`
	BaseURL      string        `yaml:"base_url"`
	ImageModel   string        `yaml:"image_model"`
	ImageTimeout time.Duration `yaml:"image_timeout"`
}

type IdeogramConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type ImageHostConfig struct {
	Mode          string `yaml:"mode"`
	Bucket        string `yaml:"bucket"`
	KeyPrefix     string `yaml:"key_prefix"`
	CDNDomain     string `yaml:"cdn_domain"`
	PublicBaseURL string `yaml:"public_base_url"`
	// GCS
	Credentials  string `yaml:"credentials"`
	EmulatorHost string `yaml:"emulator_host"`
	// S3-compatible
	S3Endpoint  string `yaml:"s3_endpoint"`
	S3Region    string `yaml:"s3_region"`
	S3AccessKey string `yaml:"s3_access_key"`
	S3SecretKey string `yaml:"s3_secret_key"`
	S3UseSSL    bool   `yaml:"s3_use_ssl"`
}

type RetryConfig struct {
	MaxRetries  int           `yaml:"max_retries"`
	BaseBackoff time.Duration `yaml:"base_backoff"`
	MaxBackoff  time.Duration `yaml:"max_backoff"`
}

type SocialConfig struct {
	TwitterBearerToken string        `yaml:"twitter_bearer_token"`
	CacheSize          int           `yaml:"cache_size"`
	CacheTTL           time.Duration `yaml:"cache_ttl"`
	// RedisAddr enables a cache tier shared between instances.
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

type PipelineConfig struct {
	DefaultProvider    string `yaml:"default_provider"`
	ImageFailurePolicy string `yaml:"image_failure_policy"`
}

type ObservabilityConfig struct {
	OtelEnabled     bool    `yaml:"otel_enabled"`
	OtelEndpoint    string  `yaml:"otel_endpoint"`
	OtelHeaders     string  `yaml:"otel_headers"`
	OtelInsecure    bool    `yaml:"otel_insecure"`
	OtelSampleRatio float64 `yaml:"otel_sample_ratio"`
	MetricsEnabled  bool    `yaml:"metrics_enabled"`
}

type Config struct {
	ServiceName string `yaml:"service_name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
	LogMode     string `yaml:"log_mode"`
	LogLevel    string `yaml:"log_level"`

	HTTP          HTTPConfig          `yaml:"http"`
	LLM           LLMConfig           `yaml:"llm"`
	OpenAI        OpenAIConfig        `yaml:"openai"`
	Gemini        GeminiConfig        `yaml:"gemini"`
	Ideogram      IdeogramConfig      `yaml:"ideogram"`
	ImageHost     ImageHostConfig     `yaml:"image_host"`
	Retry         RetryConfig         `yaml:"retry"`
	Social        SocialConfig        `yaml:"social"`
	Pipeline      PipelineConfig      `yaml:"pipeline"`
	Observability ObservabilityConfig `yaml:"observability"`
}

func defaultConfig() Config {
	return Config{
		ServiceName: "spiritanimal",
		Environment: "development",
		LogMode:     "development",
		LogLevel:    "info",
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownTimeout: 90 * time.Second,
			MaxRequestBytes: 1 << 20,
			CORSOrigins:     []string{"*"},
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Temperature: 0.7,
			Timeout:     60 * time.Second,
		},
		OpenAI: OpenAIConfig{
			ImageModel:   "dall-e-3",
			ImageSize:    "1024x1024",
			ImageTimeout: 120 * time.Second,
		},
		Gemini:   GeminiConfig{ImageTimeout: 120 * time.Second},
		Ideogram: IdeogramConfig{Timeout: 60 * time.Second},
		ImageHost: ImageHostConfig{
			Mode:      "gcs",
			KeyPrefix: "spirit-animals",
			S3UseSSL:  true,
		},
		Retry: RetryConfig{
			MaxRetries:  1,
			BaseBackoff: 500 * time.Millisecond,
			MaxBackoff:  5 * time.Second,
		},
		Social: SocialConfig{
			CacheSize: 256,
			CacheTTL:  15 * time.Minute,
		},
		Pipeline: PipelineConfig{
			DefaultProvider:    string(spirit.ImageProviderOpenAI),
			ImageFailurePolicy: string(services.ImageFailureFailRequest),
		},
		Observability: ObservabilityConfig{OtelSampleRatio: 1},
	}
}

// LoadConfig reads .env (if present), the YAML file named by SPIRIT_CONFIG_PATH (if
// set), then lets environment variables override both.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()
	if path := strings.TrimSpace(os.Getenv("SPIRIT_CONFIG_PATH")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.ServiceName = envutil.String("OTEL_SERVICE_NAME", c.ServiceName)
	c.Environment = envutil.String("APP_ENV", c.Environment)
	c.Version = envutil.String("APP_VERSION", c.Version)
	c.LogMode = envutil.String("LOG_MODE", c.LogMode)
	c.LogLevel = envutil.String("LOG_LEVEL", c.LogLevel)

	if port := envutil.String("PORT", ""); port != "" {
		c.HTTP.Addr = ":" + port
	}
	c.HTTP.Addr = envutil.String("HTTP_ADDR", c.HTTP.Addr)
	c.HTTP.ShutdownTimeout = envutil.Duration("HTTP_SHUTDOWN_TIMEOUT", c.HTTP.ShutdownTimeout)
	c.HTTP.MaxRequestBytes = int64(envutil.Int("HTTP_MAX_REQUEST_BYTES", int(c.HTTP.MaxRequestBytes)))
	c.HTTP.CORSOrigins = envutil.List("CORS_ALLOWED_ORIGINS", c.HTTP.CORSOrigins)

	c.LLM.Provider = strings.ToLower(envutil.String("LLM_PROVIDER", c.LLM.Provider))
	c.LLM.Model = envutil.String("LLM_MODEL", c.LLM.Model)
	c.LLM.Temperature = envutil.Float("LLM_TEMPERATURE", c.LLM.Temperature)
	c.LLM.Timeout = envutil.Duration("LLM_TIMEOUT", c.LLM.Timeout)

	c.OpenAI.APIKey = envutil.String("OPENAI_API_KEY", c.OpenAI.APIKey)
	c.OpenAI.BaseURL = envutil.String("OPENAI_BASE_URL", c.OpenAI.BaseURL)
	c.OpenAI.ImageModel = envutil.String("OPENAI_IMAGE_MODEL", c.OpenAI.ImageModel)
	c.OpenAI.ImageSize = envutil.String("OPENAI_IMAGE_SIZE", c.OpenAI.ImageSize)
	c.OpenAI.ImageTimeout = envutil.Duration("OPENAI_IMAGE_TIMEOUT", c.OpenAI.ImageTimeout)
	c.OpenAI.NoTemperatureModels = envutil.List("OPENAI_NO_TEMPERATURE_MODELS", c.OpenAI.NoTemperatureModels)

	c.Gemini.APIKey = envutil.String("GEMINI_API_KEY", c.Gemini.APIKey)
	c.Gemini.BaseURL = envutil.String("GEMINI_BASE_URL", c.Gemini.BaseURL)
	c.Gemini.ImageModel = envutil.String("GEMINI_IMAGE_MODEL", c.Gemini.ImageModel)
	c.Gemini.ImageTimeout = envutil.Duration("GEMINI_IMAGE_TIMEOUT", c.Gemini.ImageTimeout)

	c.Ideogram.APIKey = envutil.String("IDEOGRAM_API_KEY", c.Ideogram.APIKey)
	c.Ideogram.BaseURL = envutil.String("IDEOGRAM_BASE_URL", c.Ideogram.BaseURL)
	c.Ideogram.Timeout = envutil.Duration("IDEOGRAM_TIMEOUT", c.Ideogram.Timeout)

	c.ImageHost.Mode = strings.ToLower(envutil.String("IMAGE_HOST_MODE", c.ImageHost.Mode))
	c.ImageHost.Bucket = envutil.String("IMAGE_HOST_BUCKET", c.ImageHost.Bucket)
	c.ImageHost.KeyPrefix = envutil.String("IMAGE_HOST_KEY_PREFIX", c.ImageHost.KeyPrefix)
	c.ImageHost.CDNDomain = envutil.String("IMAGE_HOST_CDN_DOMAIN", c.ImageHost.CDNDomain)
	c.ImageHost.PublicBaseURL = envutil.String("IMAGE_HOST_PUBLIC_BASE_URL", c.ImageHost.PublicBaseURL)
	c.ImageHost.Credentials = envutil.String("GOOGLE_APPLICATION_CREDENTIALS_JSON", c.ImageHost.Credentials)
	c.ImageHost.EmulatorHost = envutil.String("STORAGE_EMULATOR_HOST", c.ImageHost.EmulatorHost)
	c.ImageHost.S3Endpoint = envutil.String("IMAGE_HOST_S3_ENDPOINT", c.ImageHost.S3Endpoint)
	c.ImageHost.S3Region = envutil.String("IMAGE_HOST_S3_REGION", c.ImageHost.S3Region)
	c.ImageHost.S3AccessKey = envutil.String("IMAGE_HOST_S3_ACCESS_KEY", c.ImageHost.S3AccessKey)
	c.ImageHost.S3SecretKey = envutil.String("IMAGE_HOST_S3_SECRET_KEY", c.ImageHost.S3SecretKey)
	c.ImageHost.S3UseSSL = envutil.Bool("IMAGE_HOST_S3_USE_SSL", c.ImageHost.S3UseSSL)

	c.Retry.MaxRetries = envutil.Int("PROVIDER_MAX_RETRIES", c.Retry.MaxRetries)
	c.Retry.BaseBackoff = envutil.Duration("PROVIDER_RETRY_BASE_BACKOFF", c.Retry.BaseBackoff)
	c.Retry.MaxBackoff = envutil.Duration("PROVIDER_RETRY_MAX_BACKOFF", c.Retry.MaxBackoff)

	c.Social.TwitterBearerToken = envutil.String("TWITTER_BEARER_TOKEN", c.Social.TwitterBearerToken)
	c.Social.CacheSize = envutil.Int("SOCIAL_CACHE_SIZE", c.Social.CacheSize)
	c.Social.CacheTTL = envutil.Duration("SOCIAL_CACHE_TTL", c.Social.CacheTTL)
	c.Social.RedisAddr = envutil.String("REDIS_ADDR", c.Social.RedisAddr)
	c.Social.RedisPassword = envutil.String("REDIS_PASSWORD", c.Social.RedisPassword)
	c.Social.RedisDB = envutil.Int("REDIS_DB", c.Social.RedisDB)

	c.Pipeline.DefaultProvider = strings.ToLower(envutil.String("DEFAULT_IMAGE_PROVIDER", c.Pipeline.DefaultProvider))
	c.Pipeline.ImageFailurePolicy = strings.ToLower(envutil.String("IMAGE_FAILURE_POLICY", c.Pipeline.ImageFailurePolicy))

	c.Observability.OtelEnabled = envutil.Bool("OTEL_ENABLED", c.Observability.OtelEnabled)
	c.Observability.OtelEndpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", c.Observability.OtelEndpoint)
	c.Observability.OtelHeaders = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", c.Observability.OtelHeaders)
	c.Observability.OtelInsecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", c.Observability.OtelInsecure)
	c.Observability.OtelSampleRatio = envutil.Float("OTEL_SAMPLE_RATIO", c.Observability.OtelSampleRatio)
	c.Observability.MetricsEnabled = envutil.Bool("METRICS_ENABLED", c.Observability.MetricsEnabled)
}

// Validate rejects settings that can never work. Missing credentials are not an error:
// the affected provider reports a configuration error per request instead.
func (c Config) Validate() error {
	var errs []error
	switch c.LLM.Provider {
	case "openai", "gemini":
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER must be openai or gemini, got %q", c.LLM.Provider))
	}
	if _, ok := spirit.ParseImageProvider(c.Pipeline.DefaultProvider); !ok {
		errs = append(errs, fmt.Errorf("DEFAULT_IMAGE_PROVIDER %q is not a known provider", c.Pipeline.DefaultProvider))
	}
	if _, ok := services.ParseImageFailurePolicy(c.Pipeline.ImageFailurePolicy); !ok {
		errs = append(errs, fmt.Errorf("IMAGE_FAILURE_POLICY must be fail_request or degrade, got %q", c.Pipeline.ImageFailurePolicy))
	}
	switch c.ImageHost.Mode {
	case "gcs", "gcs_emulator", "s3":
	default:
		errs = append(errs, fmt.Errorf("IMAGE_HOST_MODE must be gcs, gcs_emulator or s3, got %q", c.ImageHost.Mode))
	}
	if c.Retry.MaxRetries < 0 {
		errs = append(errs, errors.New("PROVIDER_MAX_RETRIES must be >= 0"))
	}
	if c.HTTP.MaxRequestBytes < 0 {
		errs = append(errs, errors.New("HTTP_MAX_REQUEST_BYTES must be >= 0"))
	}
	return errors.Join(errs...)
}

// CredentialStatus reports which integrations have credentials, without exposing them.
type CredentialStatus struct {
	OpenAI    bool
	Gemini    bool
	Ideogram  bool
	Twitter   bool
	ImageHost bool
}

func (c Config) CredentialStatus() CredentialStatus {
	host := strings.TrimSpace(c.ImageHost.Bucket) != ""
	if c.ImageHost.Mode == "s3" {
		host = host && strings.TrimSpace(c.ImageHost.S3Endpoint) != "" &&
			strings.TrimSpace(c.ImageHost.S3AccessKey) != "" &&
			strings.TrimSpace(c.ImageHost.S3SecretKey) != ""
	}
	return CredentialStatus{
		OpenAI:    strings.TrimSpace(c.OpenAI.APIKey) != "",
		Gemini:    strings.TrimSpace(c.Gemini.APIKey) != "",
		Ideogram:  strings.TrimSpace(c.Ideogram.APIKey) != "",
		Twitter:   strings.TrimSpace(c.Social.TwitterBearerToken) != "",
		ImageHost: host,
	}
}
