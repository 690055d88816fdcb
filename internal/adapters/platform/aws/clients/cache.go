package clients

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/acm"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	apperrors "github.com/olusolaa/site-provisioner/internal/errors"
)

type Service string

const (
	ServiceS3         Service = "s3"
	ServiceIAM        Service = "iam"
	ServiceSTS        Service = "sts"
	ServiceACM        Service = "acm"
	ServiceCloudFront Service = "cloudfront"
)

type key struct {
	service Service
	region  string
}

// ConfigLoader builds an AWS session for a profile and region.
type ConfigLoader func(ctx context.Context, profile, region string) (aws.Config, error)

func LoadSharedConfig(ctx context.Context, profile, region string) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx,
		config.WithSharedConfigProfile(profile),
		config.WithRegion(region),
	)
}

// Cache memoizes one session per region and one client per service and region
// for the life of the process.
type Cache struct {
	mu            sync.Mutex
	profile       string
	defaultRegion string
	loader        ConfigLoader
	sessions      map[string]aws.Config
	clients       map[key]any
}

type Option func(*Cache)

func WithConfigLoader(loader ConfigLoader) Option {
	return func(c *Cache) {
		if loader != nil {
			c.loader = loader
		}
	}
}

func NewCache(profile, defaultRegion string, opts ...Option) *Cache {
	c := &Cache{
		profile:       profile,
		defaultRegion: defaultRegion,
		loader:        LoadSharedConfig,
		sessions:      make(map[string]aws.Config),
		clients:       make(map[key]any),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) DefaultRegion() string { return c.defaultRegion }

func (c *Cache) Session(ctx context.Context, region string) (aws.Config, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionLocked(ctx, region)
}

func (c *Cache) sessionLocked(ctx context.Context, region string) (aws.Config, error) {
	if region == "" {
		region = c.defaultRegion
	}
	if cfg, ok := c.sessions[region]; ok {
		return cfg, nil
	}
	cfg, err := c.loader(ctx, c.profile, region)
	if err != nil {
		return aws.Config{}, apperrors.WrapUserFacing(err, apperrors.CodePlatformAuthError,
			fmt.Sprintf("cannot load AWS profile %q for region %s", c.profile, region),
			"Check the profile in ~/.aws/config or ~/.aws/credentials.")
	}
	c.sessions[region] = cfg
	return cfg, nil
}

func cached[T any](ctx context.Context, c *Cache, svc Service, region string, build func(aws.Config) T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if region == "" {
		region = c.defaultRegion
	}
	k := key{service: svc, region: region}
	if client, ok := c.clients[k]; ok {
		return client.(T), nil
	}

	var zero T
	cfg, err := c.sessionLocked(ctx, region)
	if err != nil {
		return zero, err
	}
	client := build(cfg)
	c.clients[k] = client
	return client, nil
}

func (c *Cache) S3(ctx context.Context, region string) (*s3.Client, error) {
	return cached(ctx, c, ServiceS3, region, func(cfg aws.Config) *s3.Client { return s3.NewFromConfig(cfg) })
}

func (c *Cache) IAM(ctx context.Context, region string) (*iam.Client, error) {
	return cached(ctx, c, ServiceIAM, region, func(cfg aws.Config) *iam.Client { return iam.NewFromConfig(cfg) })
}

func (c *Cache) STS(ctx context.Context, region string) (*sts.Client, error) {
	return cached(ctx, c, ServiceSTS, region, func(cfg aws.Config) *sts.Client { return sts.NewFromConfig(cfg) })
}

func (c *Cache) ACM(ctx context.Context, region string) (*acm.Client, error) {
	return cached(ctx, c, ServiceACM, region, func(cfg aws.Config) *acm.Client { return acm.NewFromConfig(cfg) })
}

func (c *Cache) CloudFront(ctx context.Context, region string) (*cloudfront.Client, error) {
	return cached(ctx, c, ServiceCloudFront, region, func(cfg aws.Config) *cloudfront.Client { return cloudfront.NewFromConfig(cfg) })
}
