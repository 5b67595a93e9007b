package config

import (
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env             string        `yaml:"env" env-default:"local"`
	StoragePath     string        `yaml:"storage_path" env:"STORAGE_PATH" env-required:"true"`
	Redis           RedisConfig   `yaml:"redis"`
	HTTP            HTTPConfig    `yaml:"http"`
	TokenSecret     string        `yaml:"token_secret" env:"TOKEN_SECRET" env-required:"true"`
	AccessTokenTTL  time.Duration `yaml:"access_ttl" env-default:"15m"`
	RefreshTokenTTL time.Duration `yaml:"refresh_ttl" env-default:"720h"`
	ListingCacheTTL time.Duration `yaml:"listing_cache_ttl" env-default:"30s"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
}

type HTTPConfig struct {
	Port int `yaml:"port" env-default:"8080"`
}

func Load(path string) *Config {
	var config Config
	err := cleanenv.ReadConfig(path, &config)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &config
}
