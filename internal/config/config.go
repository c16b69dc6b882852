package config

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/rohits-web03/transferly/internal/log"
)

// Blob storage backends understood by repositories.NewBlobStore.
const (
	BlobBackendS3    = "s3"
	BlobBackendR2    = "r2"
	BlobBackendMinio = "minio"
	BlobBackendLocal = "local"
)

type S3Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	// Endpoint overrides the R2 endpoint derived from AccountID.
	Endpoint string
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

type LocalConfig struct {
	Dir           string
	SigningSecret string
}

type BlobConfig struct {
	Backend string
	Bucket  string
	S3      S3Config
	Minio   MinioConfig
	Local   LocalConfig
}

// TransferConfig bounds the lifecycle manager.
type TransferConfig struct {
	DefaultTier       string
	TiersFile         string
	SignedURLTTL      time.Duration
	BlobTimeout       time.Duration
	UploadConcurrency int
	// MaxMultipartMemory is the in-memory part of a multipart upload, the rest spills to disk.
	MaxMultipartMemory int64
}

type Config struct {
	DBURL         string
	Port          string
	Environment   string
	PublicBaseURL string
	CorsConfig    cors.Options
	Blob          BlobConfig
	Transfer      TransferConfig
	Tiers         Tiers
}

// Load reads configuration from the environment, after loading envFile
// (falls back to ENV_FILE, then .env) when it exists.
func Load(envFile string) (Config, error) {
	logger := log.Logger.Named("config")
	if envFile == "" {
		envFile = getEnv("ENV_FILE", ".env")
	}
	if err := godotenv.Load(envFile); err != nil {
		logger.Info("no env file found", zap.String("file", envFile))
	} else {
		logger.Info("loaded env file", zap.String("file", envFile))
	}

	cfg := Config{
		DBURL:         getEnv("DB_URL", ""),
		Port:          getEnv("PORT", "8080"),
		Environment:   getEnv("ENV", "development"),
		PublicBaseURL: strings.TrimSuffix(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		CorsConfig:    CorsConfig(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
		Blob: BlobConfig{
			Backend: strings.ToLower(getEnv("BLOB_BACKEND", BlobBackendLocal)),
			Bucket:  getEnv("BLOB_BUCKET", "transfers"),
			S3: S3Config{
				AccountID:       getEnv("R2_ACCOUNT_ID", ""),
				AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", getEnv("R2_ACCESS_KEY_ID", "")),
				SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", getEnv("R2_SECRET_ACCESS_KEY", "")),
				Region:          getEnv("S3_REGION", getEnv("R2_REGION", "auto")),
				Endpoint:        getEnv("S3_ENDPOINT", ""),
			},
			Minio: MinioConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Region:    getEnv("MINIO_REGION", "us-east-1"),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
			Local: LocalConfig{
				Dir:           getEnv("LOCAL_BLOB_DIR", "uploads"),
				SigningSecret: getEnv("LOCAL_SIGNING_SECRET", ""),
			},
		},
		Transfer: TransferConfig{
			DefaultTier:        getEnv("DEFAULT_TIER", TierFree),
			TiersFile:          getEnv("TIERS_FILE", ""),
			SignedURLTTL:       getEnvDuration("SIGNED_URL_TTL", time.Hour),
			BlobTimeout:        getEnvDuration("BLOB_TIMEOUT", 2*time.Minute),
			UploadConcurrency:  getEnvInt("UPLOAD_CONCURRENCY", 4),
			MaxMultipartMemory: int64(getEnvInt("MAX_MULTIPART_MEMORY", 32<<20)),
		},
	}

	tiers := DefaultTiers()
	if cfg.Transfer.TiersFile != "" {
		var err error
		if tiers, err = LoadTiersFile(cfg.Transfer.TiersFile); err != nil {
			return cfg, errors.Wrapf(err, "load tiers from %q", cfg.Transfer.TiersFile)
		}
	}
	cfg.Tiers = tiers

	if err := cfg.Validate(); err != nil {
		return cfg, errors.WithStack(err)
	}

	return cfg, nil
}

// Validate checks the settings that cannot be defaulted.
func (c Config) Validate() error {
	switch c.Blob.Backend {
	case BlobBackendS3, BlobBackendR2, BlobBackendMinio, BlobBackendLocal:
	default:
		return errors.Errorf("unknown blob backend %q", c.Blob.Backend)
	}
	if c.Blob.Bucket == "" && c.Blob.Backend != BlobBackendLocal {
		return errors.New("BLOB_BUCKET is required")
	}
	if _, ok := c.Tiers[c.Transfer.DefaultTier]; !ok {
		return errors.Errorf("default tier %q is not configured", c.Transfer.DefaultTier)
	}
	if c.Transfer.SignedURLTTL <= 0 {
		return errors.New("SIGNED_URL_TTL must be positive")
	}
	if c.Transfer.UploadConcurrency <= 0 {
		return errors.New("UPLOAD_CONCURRENCY must be positive")
	}
	return nil
}

// Gets the env by key or fallbacks
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Logger.Warn("invalid integer env, using default",
			zap.String("key", key), zap.String("value", raw), zap.Error(err))
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Logger.Warn("invalid boolean env, using default",
			zap.String("key", key), zap.String("value", raw), zap.Error(err))
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		log.Logger.Warn("invalid duration env, using default",
			zap.String("key", key), zap.String("value", raw), zap.Error(err))
		return fallback
	}
	return v
}

// CorsConfig allows the comma separated origins.
func CorsConfig(origins string) cors.Options {
	allowed := make([]string, 0)
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed = append(allowed, o)
		}
	}

	return cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}
}
