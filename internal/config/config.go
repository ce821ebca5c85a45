// Package config loads service configuration from the environment and an
// optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Record policies for captures that fail to encode.
const (
	RecordPolicySkip  = "skip"
	RecordPolicyAbort = "abort"
)

// Config holds every setting of the shadowing pipeline.
type Config struct {
	// Capture and reference data locations
	CaptureBucket  string
	CapturePrefix  string
	TrainingBucket string
	TrainingPrefix string

	// Registry
	HydrosphereEndpoint string
	PollTimeout         time.Duration
	PollInterval        time.Duration
	RetryLimit          int
	RetryInterval       time.Duration
	RateLimit           float64

	// Object storage
	S3EndpointURL   string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// Processing
	RecordPolicy  string
	Concurrency   int
	RejectsBucket string
	RejectsPrefix string
	LedgerURL     string

	// Logging
	LogLevel  string
	LogFormat string

	// Temporal settings
	TemporalAddress   string
	TemporalNamespace string
	TaskQueue         string
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("S3_DATA_CAPTURE_PREFIX", "")
	v.SetDefault("S3_DATA_TRAINING_PREFIX", "")
	v.SetDefault("S3_ENDPOINT_URL", "https://s3.amazonaws.com")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("HYDROSPHERE_POLL_TIMEOUT", "120s")
	v.SetDefault("HYDROSPHERE_POLL_INTERVAL", "10s")
	v.SetDefault("HYDROSPHERE_RETRY_LIMIT", 3)
	v.SetDefault("HYDROSPHERE_RETRY_INTERVAL", "5s")
	v.SetDefault("HYDROSPHERE_RATE_LIMIT", 10.0)
	v.SetDefault("SHADOW_RECORD_POLICY", RecordPolicySkip)
	v.SetDefault("SHADOW_CONCURRENCY", 1)
	v.SetDefault("REJECTS_PREFIX", "rejects")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("TEMPORAL_ADDRESS", "127.0.0.1:7233")
	v.SetDefault("TEMPORAL_NAMESPACE", "default")
	v.SetDefault("SHADOW_TASK_QUEUE", "traffic-shadowing")
	return v
}

// Load reads configuration. A non-empty path names a YAML, JSON or TOML
// file whose keys use the environment variable names; the environment
// wins over the file.
func Load(path string) (*Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return FromViper(v), nil
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		CaptureBucket:       v.GetString("S3_DATA_CAPTURE_BUCKET"),
		CapturePrefix:       strings.Trim(v.GetString("S3_DATA_CAPTURE_PREFIX"), "/"),
		TrainingBucket:      v.GetString("S3_DATA_TRAINING_BUCKET"),
		TrainingPrefix:      strings.Trim(v.GetString("S3_DATA_TRAINING_PREFIX"), "/"),
		HydrosphereEndpoint: v.GetString("HYDROSPHERE_ENDPOINT"),
		PollTimeout:         v.GetDuration("HYDROSPHERE_POLL_TIMEOUT"),
		PollInterval:        v.GetDuration("HYDROSPHERE_POLL_INTERVAL"),
		RetryLimit:          v.GetInt("HYDROSPHERE_RETRY_LIMIT"),
		RetryInterval:       v.GetDuration("HYDROSPHERE_RETRY_INTERVAL"),
		RateLimit:           v.GetFloat64("HYDROSPHERE_RATE_LIMIT"),
		S3EndpointURL:       v.GetString("S3_ENDPOINT_URL"),
		Region:              v.GetString("AWS_REGION"),
		AccessKeyID:         v.GetString("AWS_ACCESS_KEY_ID"),
		SecretAccessKey:     v.GetString("AWS_SECRET_ACCESS_KEY"),
		SessionToken:        v.GetString("AWS_SESSION_TOKEN"),
		RecordPolicy:        strings.ToLower(v.GetString("SHADOW_RECORD_POLICY")),
		Concurrency:         v.GetInt("SHADOW_CONCURRENCY"),
		RejectsBucket:       v.GetString("REJECTS_BUCKET"),
		RejectsPrefix:       strings.Trim(v.GetString("REJECTS_PREFIX"), "/"),
		LedgerURL:           v.GetString("LEDGER_DATABASE_URL"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		LogFormat:           v.GetString("LOG_FORMAT"),
		TemporalAddress:     v.GetString("TEMPORAL_ADDRESS"),
		TemporalNamespace:   v.GetString("TEMPORAL_NAMESPACE"),
		TaskQueue:           v.GetString("SHADOW_TASK_QUEUE"),
	}
}

// Validate reports missing required settings and invalid values.
func (c *Config) Validate() error {
	var errs []error
	required := map[string]string{
		"S3_DATA_CAPTURE_BUCKET":  c.CaptureBucket,
		"S3_DATA_TRAINING_BUCKET": c.TrainingBucket,
		"HYDROSPHERE_ENDPOINT":    c.HydrosphereEndpoint,
	}
	for _, key := range []string{"S3_DATA_CAPTURE_BUCKET", "S3_DATA_TRAINING_BUCKET", "HYDROSPHERE_ENDPOINT"} {
		if required[key] == "" {
			errs = append(errs, fmt.Errorf("%s is required", key))
		}
	}
	if c.RecordPolicy != RecordPolicySkip && c.RecordPolicy != RecordPolicyAbort {
		errs = append(errs, fmt.Errorf("SHADOW_RECORD_POLICY must be %q or %q, got %q",
			RecordPolicySkip, RecordPolicyAbort, c.RecordPolicy))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("SHADOW_CONCURRENCY must be at least 1, got %d", c.Concurrency))
	}
	if c.RetryLimit < 0 {
		errs = append(errs, fmt.Errorf("HYDROSPHERE_RETRY_LIMIT must not be negative"))
	}
	return errors.Join(errs...)
}
