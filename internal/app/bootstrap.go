package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/viper"

	"github.com/olusolaa/site-provisioner/internal/adapters/platform/aws"
	"github.com/olusolaa/site-provisioner/internal/adapters/platform/aws/limiter"
	"github.com/olusolaa/site-provisioner/internal/config"
	"github.com/olusolaa/site-provisioner/internal/core/service"
	"github.com/olusolaa/site-provisioner/internal/errors"
	"github.com/olusolaa/site-provisioner/internal/log"
)

// Options carries the pieces tests and the CLI may replace.
type Options struct {
	LogOutput      io.Writer
	ProviderOpts   []aws.ProviderOption
	ServiceOpts    []service.Option
	ReportWriter   io.Writer
	SkipRateLimits bool
}

func BuildApplicationFromViper(ctx context.Context, v *viper.Viper, opts Options) (*Application, error) {
	cfg, err := config.Load(ctx, v)
	if err != nil {
		return nil, err
	}

	logCfg := log.Config{Level: cfg.Settings.LogLevel, Format: cfg.Settings.LogFormat, Output: opts.LogOutput}
	logger, err := log.NewLogger(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", err)
		return nil, errors.Wrap(err, errors.CodeInternal, "logger initialization failed")
	}
	logger.Debugf(ctx, "Logger initialized (Level: %s, Format: %s)", cfg.Settings.LogLevel, cfg.Settings.LogFormat)
	if v.ConfigFileUsed() != "" {
		logger.Debugf(ctx, "Using configuration file: %s", v.ConfigFileUsed())
	} else {
		logger.Debugf(ctx, "No configuration file found, using defaults/env/flags.")
	}

	if !opts.SkipRateLimits {
		limiter.Initialize(cfg.Settings.APIRPS, logger)
	}

	provLog := logger.WithFields(map[string]any{"provider": aws.ProviderTypeAWS, "region": cfg.AWS.Region})
	provider, err := aws.NewProvider(aws.Settings{
		Profile:  cfg.AWS.Profile,
		Region:   cfg.AWS.Region,
		PageSize: cfg.Distribution.PageSize,
	}, provLog, opts.ProviderOpts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigValidation, "failed to initialize AWS provider")
	}
	provLog.Debugf(ctx, "Using AWS platform provider (profile: %s, certificate region: %s)", cfg.AWS.Profile, cfg.AWS.CertificateRegion)

	serviceOpts := append([]service.Option{
		service.WithPollInterval(cfg.Certificate.PollInterval),
		service.WithMaxAttempts(cfg.Certificate.MaxAttempts),
		service.WithReuseDistribution(cfg.Distribution.ReuseExisting),
	}, opts.ServiceOpts...)

	provisioner, err := service.NewProvisioner(service.Site{
		Domain:            cfg.Site.Domain,
		Region:            cfg.AWS.Region,
		CertificateRegion: cfg.AWS.CertificateRegion,
		WebBucket:         cfg.Site.WebBucket,
		LogBucket:         cfg.Site.LogBucket,
		PolicyName:        cfg.Site.IAMPolicyName,
	}, service.Dependencies{
		Buckets:      provider.Buckets(),
		Policies:     provider.Policies(),
		Identity:     provider.Identity(),
		Certificates: provider.Certificates(),
		CDN:          provider.CDN(),
		Logger:       logger,
	}, serviceOpts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to initialize provisioner")
	}

	reports, err := service.NewReportService(provider.CDN(), logger)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to initialize report service")
	}

	logger.Debugf(ctx, "Application bootstrap complete")
	return NewApplication(cfg, logger, provisioner, reports, opts.ReportWriter), nil
}
