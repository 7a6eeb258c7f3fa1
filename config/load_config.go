package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга .yaml файла: %w", err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if cfg.JWT.SecretKey == "" {
		return nil, fmt.Errorf("не задан секретный ключ подписи токенов")
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.JWT.AccessTokenTTLMinutes == 0 {
		cfg.JWT.AccessTokenTTLMinutes = 30
	}
	if cfg.JWT.RefreshTokenTTLDays == 0 {
		cfg.JWT.RefreshTokenTTLDays = 30
	}
	if cfg.Reset.LinkTTLMinutes == 0 {
		cfg.Reset.LinkTTLMinutes = 10
	}
	if cfg.Reset.CooldownMinutes == 0 {
		cfg.Reset.CooldownMinutes = 2
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Server.BasePath == "" {
		cfg.Server.BasePath = "/api-auth"
	}
}

// applyEnvOverrides позволяет задавать секреты через переменные окружения,
// не записывая их в файл конфигурации.
func applyEnvOverrides(cfg *Config) {
	if secretKey := os.Getenv("JWT_SECRET_KEY"); secretKey != "" {
		cfg.JWT.SecretKey = secretKey
	}
	if connectionString := os.Getenv("DATABASE_CONNECTION_URL"); connectionString != "" {
		cfg.Database.ConnectionString = connectionString
	}
	if address := os.Getenv("SERVER_ADDRESS"); address != "" {
		cfg.Server.Address = address
	}
	if captchaSecret := os.Getenv("RECAPTCHA_SECRET_KEY"); captchaSecret != "" {
		cfg.Captcha.SecretKey = captchaSecret
	}
	if smtpPassword := os.Getenv("SMTP_PASSWORD"); smtpPassword != "" {
		cfg.SMTP.Password = smtpPassword
	}
}
