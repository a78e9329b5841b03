package config

import "time"

type Config struct {
	API         APIConfig
	Upload      UploadConfig
	Mysql       MysqlConfig
	TelegramBot TelegramBotConfig
	Sync        SyncConfig
}

type APIConfig struct {
	GraphQLURL string
	Token      string
	Timeout    time.Duration
	// VariantFields selects the backend naming for variant records:
	// "plain" (name/type) or "suffixed" (nameVariant/typeVariant).
	VariantFields string
}

type UploadConfig struct {
	Driver      string
	BaseUrl     string
	Token       string
	Timeout     time.Duration
	Concurrency int
	S3          S3Config
}

type S3Config struct {
	Region        string
	Bucket        string
	Prefix        string
	PublicBaseURL string
}

type MysqlConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
}

// Enabled reports whether a draft store was configured.
func (c MysqlConfig) Enabled() bool {
	return c.Host != ""
}

type TelegramBotConfig struct {
	ChatId string
	Token  string
}

type SyncConfig struct {
	PollAttempts     int
	PollBaseDelay    time.Duration
	PollMaxDelay     time.Duration
	UnresolvedPolicy string
}
