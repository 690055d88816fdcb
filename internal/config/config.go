package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/olusolaa/site-provisioner/internal/core/domain"
	"github.com/olusolaa/site-provisioner/internal/errors"
	"github.com/olusolaa/site-provisioner/internal/log"
	"github.com/olusolaa/site-provisioner/internal/reporting/text"
)

type Config struct {
	Settings     SettingsConfig     `mapstructure:"settings" yaml:"settings"`
	AWS          AWSConfig          `mapstructure:"aws" yaml:"aws"`
	Site         SiteConfig         `mapstructure:"site" yaml:"site"`
	Certificate  CertificateConfig  `mapstructure:"certificate" yaml:"certificate"`
	Distribution DistributionConfig `mapstructure:"distribution" yaml:"distribution"`
	Report       text.Config        `mapstructure:"report" yaml:"report"`
}

type SettingsConfig struct {
	LogLevel  log.Level  `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat log.Format `mapstructure:"log_format" yaml:"log_format" validate:"oneof=text json"`
	// APIRPS caps AWS control-plane calls per second. Zero means the default.
	APIRPS int `mapstructure:"api_rps" yaml:"api_rps" validate:"gte=0,lte=100"`
}

type AWSConfig struct {
	Profile string `mapstructure:"profile" yaml:"profile" validate:"required"`
	Region  string `mapstructure:"region" yaml:"region" validate:"required"`
	// CloudFront only accepts ACM certificates from us-east-1.
	CertificateRegion string `mapstructure:"certificate_region" yaml:"certificate_region" validate:"required"`
}

type SiteConfig struct {
	Domain        string `mapstructure:"domain" yaml:"domain" validate:"required,fqdn"`
	WebBucket     string `mapstructure:"web_bucket" yaml:"web_bucket"`
	LogBucket     string `mapstructure:"log_bucket" yaml:"log_bucket"`
	IAMPolicyName string `mapstructure:"iam_policy_name" yaml:"iam_policy_name"`
}

type CertificateConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval" validate:"gt=0"`
	MaxAttempts  int           `mapstructure:"max_attempts" yaml:"max_attempts" validate:"gte=1"`
}

type DistributionConfig struct {
	ReuseExisting bool  `mapstructure:"reuse_existing" yaml:"reuse_existing"`
	PageSize      int32 `mapstructure:"page_size" yaml:"page_size" validate:"gte=0,lte=1000"`
}

func DefaultConfig() *Config {
	return &Config{
		Settings: SettingsConfig{
			LogLevel:  log.LevelInfo,
			LogFormat: log.FormatText,
		},
		AWS: AWSConfig{
			CertificateRegion: domain.DefaultRegion,
		},
		Certificate: CertificateConfig{
			PollInterval: 30 * time.Second,
			MaxAttempts:  120,
		},
	}
}

// RegisterDefaults makes the defaults visible to viper so that env vars bind
// to every key, not only keys present in a config file.
func RegisterDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("settings.log_level", string(d.Settings.LogLevel))
	v.SetDefault("settings.log_format", string(d.Settings.LogFormat))
	v.SetDefault("settings.api_rps", d.Settings.APIRPS)
	v.SetDefault("aws.profile", d.AWS.Profile)
	v.SetDefault("aws.region", d.AWS.Region)
	v.SetDefault("aws.certificate_region", d.AWS.CertificateRegion)
	v.SetDefault("site.domain", d.Site.Domain)
	v.SetDefault("site.web_bucket", d.Site.WebBucket)
	v.SetDefault("site.log_bucket", d.Site.LogBucket)
	v.SetDefault("site.iam_policy_name", d.Site.IAMPolicyName)
	v.SetDefault("certificate.poll_interval", d.Certificate.PollInterval.String())
	v.SetDefault("certificate.max_attempts", d.Certificate.MaxAttempts)
	v.SetDefault("distribution.reuse_existing", d.Distribution.ReuseExisting)
	v.SetDefault("distribution.page_size", d.Distribution.PageSize)
	v.SetDefault("report.no_color", d.Report.NoColor)
}

// Load decodes v over the defaults, fills derived names and validates.
func Load(ctx context.Context, v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, errors.WrapUserFacing(err, errors.CodeConfigParseError, "failed to parse configuration",
			"Check value types in the config file, e.g. durations like 30s.")
	}
	cfg.ApplyDerivedDefaults()
	if err := cfg.Validate(ctx); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDerivedDefaults fills names that depend on the site domain.
func (c *Config) ApplyDerivedDefaults() {
	c.Site.Domain = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(c.Site.Domain)), ".")
	if c.Site.Domain == "" {
		return
	}
	if c.Site.WebBucket == "" {
		c.Site.WebBucket = c.Site.Domain
	}
	if c.Site.LogBucket == "" {
		c.Site.LogBucket = "logs." + c.Site.Domain
	}
	if c.Site.IAMPolicyName == "" {
		c.Site.IAMPolicyName = domain.PolicyName(c.Site.Domain)
	}
	if c.AWS.CertificateRegion == "" {
		c.AWS.CertificateRegion = domain.DefaultRegion
	}
}

func (c *Config) Validate(ctx context.Context) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	err := validate.StructCtx(ctx, c)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(err, errors.CodeConfigValidation, "configuration validation failed")
	}
	var details strings.Builder
	details.WriteString("Configuration validation failed:")
	for _, fe := range validationErrors {
		details.WriteString(fmt.Sprintf("\n - Field '%s': Failed on '%s' validation (value: '%v')", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.NewUserFacing(errors.CodeConfigValidation, details.String(),
		"Set aws.profile, aws.region and site.domain in the config file, SITE_* environment variables or flags.")
}
