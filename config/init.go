package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/inboxpilot/warmstack/internal/logger"
	"github.com/inboxpilot/warmstack/internal/tracing"
)

type Config struct {
	AppConfig        *AppConfig
	Logger           *logger.Config
	Tracing          *tracing.JaegerConfig
	DatabaseConfig   *DatabaseConfig
	R2StorageConfig  *R2StorageConfig
	EmailGuardConfig *EmailGuardConfig
	SmartleadConfig  *SmartleadConfig
	RateLimitConfig  *RateLimitConfig
	RetryConfig      *RetryConfig
	LifecycleConfig  *LifecycleConfig
}

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:        &AppConfig{},
		Logger:           &logger.Config{},
		Tracing:          &tracing.JaegerConfig{},
		DatabaseConfig:   &DatabaseConfig{},
		R2StorageConfig:  &R2StorageConfig{},
		EmailGuardConfig: &EmailGuardConfig{},
		SmartleadConfig:  &SmartleadConfig{},
		RateLimitConfig:  &RateLimitConfig{},
		RetryConfig:      &RetryConfig{},
		LifecycleConfig:  &LifecycleConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		log.Fatalf("Error loading warmstack config: %v", err)
	}

	return config, nil
}
