package config

import "time"

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Reset    ResetConfig    `yaml:"reset"`
	Captcha  CaptchaConfig  `yaml:"captcha"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Webhook  WebhookConfig  `yaml:"webhook"`
}

type ServerConfig struct {
	Address  string `yaml:"address"`
	BasePath string `yaml:"base_path"`
}

type DatabaseConfig struct {
	Driver           string `yaml:"driver"`
	ConnectionString string `yaml:"connection_string"`
}

type JWTConfig struct {
	SecretKey             string `yaml:"secret_key"`
	AccessTokenTTLMinutes int    `yaml:"access_token_ttl_minutes"`
	RefreshTokenTTLDays   int    `yaml:"refresh_token_ttl_days"`
}

func (cfg *JWTConfig) AccessTokenTTL() time.Duration {
	return time.Duration(cfg.AccessTokenTTLMinutes) * time.Minute
}

func (cfg *JWTConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(cfg.RefreshTokenTTLDays) * 24 * time.Hour
}

type ResetConfig struct {
	LinkTTLMinutes  int    `yaml:"link_ttl_minutes"`
	CooldownMinutes int    `yaml:"cooldown_minutes"`
	LinkBaseURL     string `yaml:"link_base_url"`
}

func (cfg *ResetConfig) LinkTTL() time.Duration {
	return time.Duration(cfg.LinkTTLMinutes) * time.Minute
}

func (cfg *ResetConfig) Cooldown() time.Duration {
	return time.Duration(cfg.CooldownMinutes) * time.Minute
}

type CaptchaConfig struct {
	Enabled   bool   `yaml:"enabled"`
	SecretKey string `yaml:"secret_key"`
	VerifyURL string `yaml:"verify_url"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	From     string `yaml:"from"`
	Password string `yaml:"password"`
}

type WebhookConfig struct {
	URL string `yaml:"url"`
}
