package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppConf struct {
	Env            string `mapstructure:"env"`
	Port           int    `mapstructure:"port"`
	MetricsPort    int    `mapstructure:"metrics_port"`
	ShutdownSecond int    `mapstructure:"shutdown_seconds"`
}

type MongoConf struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type AWSConf struct {
	Region   string `mapstructure:"region"`
	Bucket   string `mapstructure:"bucket"`
	Endpoint string `mapstructure:"endpoint"`
}

type S3Conf struct {
	PublicRead bool `mapstructure:"public_read"`
	PresignTTL int  `mapstructure:"presign_ttl_seconds"`
}

type RedisConf struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	SignedTTL int    `mapstructure:"signed_url_cache_ttl_seconds"`
}

type KafkaConf struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type JWTConf struct {
	PublicKeyPath string `mapstructure:"public_key_path"`
}

type UploadConf struct {
	MaxMB          int `mapstructure:"max_mb"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type RateLimitConf struct {
	PerMinute      int `mapstructure:"per_minute"`
	WriteLimit     int `mapstructure:"write_limit"`
	WriteWindowSec int `mapstructure:"write_window_seconds"`
}

type Config struct {
	App       AppConf       `mapstructure:"app"`
	Mongo     MongoConf     `mapstructure:"mongodb"`
	AWS       AWSConf       `mapstructure:"aws"`
	S3        S3Conf        `mapstructure:"s3"`
	Redis     RedisConf     `mapstructure:"redis"`
	Kafka     KafkaConf     `mapstructure:"kafka"`
	JWT       JWTConf       `mapstructure:"jwt"`
	Upload    UploadConf    `mapstructure:"upload"`
	RateLimit RateLimitConf `mapstructure:"ratelimit"`
	Log       struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	// derived
	ShutdownTimeout time.Duration
	UploadTimeout   time.Duration
	WriteWindow     time.Duration
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.App.ShutdownSecond == 0 {
		cfg.App.ShutdownSecond = 15
	}
	if cfg.App.MetricsPort == 0 {
		cfg.App.MetricsPort = 9100
	}
	if cfg.S3.PresignTTL == 0 {
		cfg.S3.PresignTTL = 600
	}
	if cfg.Redis.SignedTTL == 0 {
		cfg.Redis.SignedTTL = cfg.S3.PresignTTL
	}
	if cfg.Upload.MaxMB == 0 {
		cfg.Upload.MaxMB = 50
	}
	if cfg.Upload.TimeoutSeconds == 0 {
		cfg.Upload.TimeoutSeconds = 30
	}
	if cfg.RateLimit.PerMinute == 0 {
		cfg.RateLimit.PerMinute = 300
	}
	if cfg.RateLimit.WriteLimit == 0 {
		cfg.RateLimit.WriteLimit = 60
	}
	if cfg.RateLimit.WriteWindowSec == 0 {
		cfg.RateLimit.WriteWindowSec = 60
	}
	cfg.ShutdownTimeout = time.Duration(cfg.App.ShutdownSecond) * time.Second
	cfg.UploadTimeout = time.Duration(cfg.Upload.TimeoutSeconds) * time.Second
	cfg.WriteWindow = time.Duration(cfg.RateLimit.WriteWindowSec) * time.Second
	return &cfg, nil
}
