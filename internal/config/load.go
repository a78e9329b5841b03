package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAPITimeout       = 15 * time.Second
	defaultUploadTimeout    = 60 * time.Second
	defaultUploadDriver     = "rest"
	defaultUploadConcurrent = 3
	defaultVariantFields    = "plain"
	defaultPollAttempts     = 5
	defaultPollBaseDelay    = 500 * time.Millisecond
	defaultPollMaxDelay     = 5 * time.Second
	defaultUnresolvedPolicy = "fail"
	defaultMysqlPort        = 3306
)

// LoadForVariantSync reads .env files (when present) and the process environment.
func LoadForVariantSync(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	graphQLURL, err := requiredString("EMPRENDYUP_GRAPHQL_URL")
	if err != nil {
		return nil, err
	}
	apiTimeout, err := durationWithDefault("EMPRENDYUP_TIMEOUT", defaultAPITimeout)
	if err != nil {
		return nil, err
	}
	variantFields := strings.ToLower(stringWithDefault("EMPRENDYUP_VARIANT_FIELDS", defaultVariantFields))
	if variantFields != "plain" && variantFields != "suffixed" {
		return nil, fmt.Errorf("invalid EMPRENDYUP_VARIANT_FIELDS %q: want plain or suffixed", variantFields)
	}

	upload, err := loadUpload()
	if err != nil {
		return nil, err
	}

	mysqlPort, err := intWithDefault("MYSQL_PORT", defaultMysqlPort)
	if err != nil {
		return nil, err
	}

	sync, err := loadSync()
	if err != nil {
		return nil, err
	}

	return &Config{
		API: APIConfig{
			GraphQLURL:    graphQLURL,
			Token:         stringWithDefault("EMPRENDYUP_TOKEN", ""),
			Timeout:       apiTimeout,
			VariantFields: variantFields,
		},
		Upload: upload,
		Mysql: MysqlConfig{
			Host:     stringWithDefault("MYSQL_HOST", ""),
			Port:     mysqlPort,
			Username: stringWithDefault("MYSQL_USER", ""),
			Password: stringWithDefault("MYSQL_PASSWORD", ""),
			Database: stringWithDefault("MYSQL_DATABASE", ""),
		},
		TelegramBot: TelegramBotConfig{
			ChatId: stringWithDefault("TELEGRAM_CHAT_ID", ""),
			Token:  stringWithDefault("TELEGRAM_BOT_TOKEN", ""),
		},
		Sync: sync,
	}, nil
}

func loadUpload() (UploadConfig, error) {
	driver := strings.ToLower(stringWithDefault("UPLOAD_DRIVER", defaultUploadDriver))
	timeout, err := durationWithDefault("UPLOAD_TIMEOUT", defaultUploadTimeout)
	if err != nil {
		return UploadConfig{}, err
	}
	concurrency, err := intWithDefault("UPLOAD_CONCURRENCY", defaultUploadConcurrent)
	if err != nil {
		return UploadConfig{}, err
	}
	if concurrency < 1 {
		concurrency = 1
	}

	cfg := UploadConfig{
		Driver:      driver,
		BaseUrl:     stringWithDefault("UPLOAD_URL", ""),
		Token:       stringWithDefault("UPLOAD_TOKEN", stringWithDefault("EMPRENDYUP_TOKEN", "")),
		Timeout:     timeout,
		Concurrency: concurrency,
		S3: S3Config{
			Region:        stringWithDefault("S3_REGION", ""),
			Bucket:        stringWithDefault("S3_BUCKET", ""),
			Prefix:        stringWithDefault("S3_PREFIX", "products"),
			PublicBaseURL: stringWithDefault("S3_PUBLIC_BASE_URL", ""),
		},
	}

	switch driver {
	case "rest":
		if cfg.BaseUrl == "" {
			return UploadConfig{}, errors.New("missing required env var: UPLOAD_URL")
		}
	case "s3":
		if cfg.S3.Region == "" || cfg.S3.Bucket == "" || cfg.S3.PublicBaseURL == "" {
			return UploadConfig{}, errors.New("S3 config missing: S3_REGION, S3_BUCKET, S3_PUBLIC_BASE_URL required")
		}
	default:
		return UploadConfig{}, fmt.Errorf("unknown UPLOAD_DRIVER: %s", driver)
	}
	return cfg, nil
}

func loadSync() (SyncConfig, error) {
	attempts, err := intWithDefault("VARIANT_POLL_ATTEMPTS", defaultPollAttempts)
	if err != nil {
		return SyncConfig{}, err
	}
	if attempts < 1 {
		return SyncConfig{}, fmt.Errorf("VARIANT_POLL_ATTEMPTS must be positive, got %d", attempts)
	}
	baseDelay, err := durationWithDefault("VARIANT_POLL_DELAY", defaultPollBaseDelay)
	if err != nil {
		return SyncConfig{}, err
	}
	maxDelay, err := durationWithDefault("VARIANT_POLL_MAX_DELAY", defaultPollMaxDelay)
	if err != nil {
		return SyncConfig{}, err
	}
	policy := strings.ToLower(stringWithDefault("UNRESOLVED_POLICY", defaultUnresolvedPolicy))
	if policy != "fail" && policy != "skip" {
		return SyncConfig{}, fmt.Errorf("invalid UNRESOLVED_POLICY %q: want fail or skip", policy)
	}
	return SyncConfig{
		PollAttempts:     attempts,
		PollBaseDelay:    baseDelay,
		PollMaxDelay:     maxDelay,
		UnresolvedPolicy: policy,
	}, nil
}
