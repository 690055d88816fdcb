package aws

import (
	"context"

	"github.com/olusolaa/site-provisioner/internal/adapters/platform/aws/acm"
	"github.com/olusolaa/site-provisioner/internal/adapters/platform/aws/clients"
	"github.com/olusolaa/site-provisioner/internal/adapters/platform/aws/cloudfront"
	aws_errors "github.com/olusolaa/site-provisioner/internal/adapters/platform/aws/errors"
	"github.com/olusolaa/site-provisioner/internal/adapters/platform/aws/iam"
	aws_limiter "github.com/olusolaa/site-provisioner/internal/adapters/platform/aws/limiter"
	"github.com/olusolaa/site-provisioner/internal/adapters/platform/aws/s3"
	"github.com/olusolaa/site-provisioner/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/site-provisioner/internal/adapters/platform/aws/sts"
	"github.com/olusolaa/site-provisioner/internal/core/domain"
	"github.com/olusolaa/site-provisioner/internal/core/ports"
	"github.com/olusolaa/site-provisioner/internal/errors"
)

const ProviderTypeAWS = "aws"

// Settings selects the credentials and home region for every handler.
type Settings struct {
	Profile  string
	Region   string
	PageSize int32
}

type Provider struct {
	cache    *clients.Cache
	logger   ports.Logger
	buckets  *s3.S3Handler
	policies *iam.IAMHandler
	identity *sts.IdentityHandler
	certs    *acm.ACMHandler
	cdn      *cloudfront.CloudFrontHandler
}

type ProviderOption func(*providerOptions)

type providerOptions struct {
	cacheOpts    []clients.Option
	limiter      shared.RateLimiter
	errorHandler shared.ErrorHandler
}

// WithConfigLoader replaces the shared-config loader, mainly for tests.
func WithConfigLoader(loader clients.ConfigLoader) ProviderOption {
	return func(o *providerOptions) {
		o.cacheOpts = append(o.cacheOpts, clients.WithConfigLoader(loader))
	}
}

func WithRateLimiter(limiter shared.RateLimiter) ProviderOption {
	return func(o *providerOptions) {
		if limiter != nil {
			o.limiter = limiter
		}
	}
}

func WithErrorHandler(handler shared.ErrorHandler) ProviderOption {
	return func(o *providerOptions) {
		if handler != nil {
			o.errorHandler = handler
		}
	}
}

// NewProvider wires every handler to one client cache. No AWS call is made
// until a handler is first used.
func NewProvider(settings Settings, logger ports.Logger, opts ...ProviderOption) (*Provider, error) {
	if logger == nil {
		return nil, errors.New(errors.CodeConfigValidation, "logger cannot be nil for AWS Provider")
	}
	if settings.Region == "" {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation, "AWS region is not set", "Set aws.region in the config file or pass --region.")
	}

	o := &providerOptions{
		limiter:      &aws_limiter.DefaultRateLimiter{},
		errorHandler: &aws_errors.DefaultErrorHandler{},
	}
	for _, opt := range opts {
		opt(o)
	}

	cache := clients.NewCache(settings.Profile, settings.Region, o.cacheOpts...)
	p := &Provider{
		cache:  cache,
		logger: logger,
	}

	p.buckets = s3.NewHandler(settings.Region,
		func(ctx context.Context, region string) (s3.S3ClientInterface, error) { return cache.S3(ctx, region) },
		logger.WithFields(map[string]any{"resource_kind": domain.KindStorageBucket}),
		s3.WithRateLimiter(o.limiter), s3.WithErrorHandler(o.errorHandler))
	p.policies = iam.NewHandler(settings.Region,
		func(ctx context.Context, region string) (iam.IAMClientInterface, error) {
			return cache.IAM(ctx, region)
		},
		logger.WithFields(map[string]any{"resource_kind": domain.KindAccessPolicy}),
		iam.WithRateLimiter(o.limiter), iam.WithErrorHandler(o.errorHandler))
	p.identity = sts.NewHandler(settings.Region,
		func(ctx context.Context, region string) (shared.STSClientInterface, error) {
			return cache.STS(ctx, region)
		},
		logger,
		sts.WithRateLimiter(o.limiter), sts.WithErrorHandler(o.errorHandler))
	p.certs = acm.NewHandler(
		func(ctx context.Context, region string) (acm.ACMClientInterface, error) {
			return cache.ACM(ctx, region)
		},
		logger.WithFields(map[string]any{"resource_kind": domain.KindCertificate}),
		acm.WithRateLimiter(o.limiter), acm.WithErrorHandler(o.errorHandler))
	p.cdn = cloudfront.NewHandler(settings.Region,
		func(ctx context.Context, region string) (cloudfront.CloudFrontClientInterface, error) {
			return cache.CloudFront(ctx, region)
		},
		logger.WithFields(map[string]any{"resource_kind": domain.KindCDNDistribution}),
		cloudfront.WithPageSize(settings.PageSize),
		cloudfront.WithRateLimiter(o.limiter), cloudfront.WithErrorHandler(o.errorHandler))

	return p, nil
}

func (p *Provider) Buckets() ports.BucketStore               { return p.buckets }
func (p *Provider) Policies() ports.PolicyStore              { return p.policies }
func (p *Provider) Identity() ports.Identity                 { return p.identity }
func (p *Provider) Certificates() ports.CertificateAuthority { return p.certs }
func (p *Provider) CDN() ports.ContentDelivery               { return p.cdn }
