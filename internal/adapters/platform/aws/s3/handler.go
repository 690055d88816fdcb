// s3/handler.go

package s3

import (
	"context"
	"errors"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	aws_errors "github.com/olusolaa/site-provisioner/internal/adapters/platform/aws/errors"
	aws_limiter "github.com/olusolaa/site-provisioner/internal/adapters/platform/aws/limiter"
	"github.com/olusolaa/site-provisioner/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/site-provisioner/internal/core/domain"
	"github.com/olusolaa/site-provisioner/internal/core/ports"
	apperrors "github.com/olusolaa/site-provisioner/internal/errors"
)

type S3ClientInterface interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutPublicAccessBlock(ctx context.Context, params *s3.PutPublicAccessBlockInput, optFns ...func(*s3.Options)) (*s3.PutPublicAccessBlockOutput, error)
	PutBucketPolicy(ctx context.Context, params *s3.PutBucketPolicyInput, optFns ...func(*s3.Options)) (*s3.PutBucketPolicyOutput, error)
	PutBucketWebsite(ctx context.Context, params *s3.PutBucketWebsiteInput, optFns ...func(*s3.Options)) (*s3.PutBucketWebsiteOutput, error)
}

var _ S3ClientInterface = (*s3.Client)(nil)

// ClientFactory returns an S3 client for region.
type ClientFactory func(ctx context.Context, region string) (S3ClientInterface, error)

type S3Handler struct {
	region       string
	factory      ClientFactory
	clientMu     sync.Mutex
	s3Client     S3ClientInterface
	logger       ports.Logger
	limiter      shared.RateLimiter
	errorHandler shared.ErrorHandler
}

var _ ports.BucketStore = (*S3Handler)(nil)

// HandlerOption defines a function signature for configuring the S3Handler.
type HandlerOption func(*S3Handler)

// WithS3Client provides an option to set a custom S3 client.
func WithS3Client(client S3ClientInterface) HandlerOption {
	return func(h *S3Handler) {
		if client != nil {
			h.s3Client = client
		}
	}
}

// WithRateLimiter provides an option to set a custom rate limiter.
func WithRateLimiter(limiter shared.RateLimiter) HandlerOption {
	return func(h *S3Handler) {
		if limiter != nil {
			h.limiter = limiter
		}
	}
}

// WithErrorHandler provides an option to set a custom error handler.
func WithErrorHandler(handler shared.ErrorHandler) HandlerOption {
	return func(h *S3Handler) {
		if handler != nil {
			h.errorHandler = handler
		}
	}
}

// NewHandler creates an S3Handler bound to the site region. The client is
// built from factory on first use unless WithS3Client supplies one.
func NewHandler(region string, factory ClientFactory, logger ports.Logger, opts ...HandlerOption) *S3Handler {
	h := &S3Handler{
		region:       region,
		factory:      factory,
		logger:       logger,
		limiter:      &aws_limiter.DefaultRateLimiter{},
		errorHandler: &aws_errors.DefaultErrorHandler{},
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

func (h *S3Handler) client(ctx context.Context) (S3ClientInterface, error) {
	h.clientMu.Lock()
	defer h.clientMu.Unlock()
	if h.s3Client != nil {
		return h.s3Client, nil
	}
	if h.factory == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "S3: no client factory configured")
	}
	c, err := h.factory(ctx, h.region)
	if err != nil {
		return nil, err
	}
	h.s3Client = c
	return c, nil
}

// prepare waits on the rate limiter and returns the client.
func (h *S3Handler) prepare(ctx context.Context) (S3ClientInterface, error) {
	client, err := h.client(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.limiter.Wait(ctx, h.logger); err != nil {
		return nil, err
	}
	return client, nil
}

func (h *S3Handler) ListBuckets(ctx context.Context) ([]domain.Bucket, error) {
	client, err := h.prepare(ctx)
	if err != nil {
		return nil, err
	}

	out, err := client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, h.errorHandler.Handle("S3", "ListBuckets", err, ctx)
	}

	buckets := make([]domain.Bucket, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		name := aws.ToString(b.Name)
		if name == "" {
			continue
		}
		buckets = append(buckets, domain.Bucket{Name: name})
	}
	return buckets, nil
}

func (h *S3Handler) CreateBucket(ctx context.Context, name string, opts domain.BucketOptions) (string, error) {
	client, err := h.prepare(ctx)
	if err != nil {
		return "", err
	}

	_, err = client.CreateBucket(ctx, createBucketInput(name, opts))
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			h.logger.Infof(ctx, "S3 bucket %s already owned by this account", name)
			return name, nil
		}
		return "", h.errorHandler.Handle("S3 bucket", name, err, ctx)
	}

	h.logger.Debugf(ctx, "Created S3 bucket %s (acl=%s, location=%q)", name, opts.ACL, opts.LocationConstraint)
	return name, nil
}

func createBucketInput(name string, opts domain.BucketOptions) *s3.CreateBucketInput {
	input := &s3.CreateBucketInput{
		Bucket: aws.String(name),
	}
	if opts.ACL != "" {
		input.ACL = types.BucketCannedACL(opts.ACL)
	}
	if opts.ObjectOwnership != "" {
		input.ObjectOwnership = types.ObjectOwnership(opts.ObjectOwnership)
	}
	if opts.LocationConstraint != "" && opts.LocationConstraint != domain.DefaultRegion {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(opts.LocationConstraint),
		}
	}
	if opts.ObjectLockEnabled != nil {
		input.ObjectLockEnabledForBucket = aws.Bool(*opts.ObjectLockEnabled)
	}
	return input
}

// OpenPublicAccess clears every public access block flag so the public-read
// ACL and bucket policy take effect.
func (h *S3Handler) OpenPublicAccess(ctx context.Context, name string) error {
	client, err := h.prepare(ctx)
	if err != nil {
		return err
	}

	_, err = client.PutPublicAccessBlock(ctx, &s3.PutPublicAccessBlockInput{
		Bucket: aws.String(name),
		PublicAccessBlockConfiguration: &types.PublicAccessBlockConfiguration{
			BlockPublicAcls:       aws.Bool(false),
			BlockPublicPolicy:     aws.Bool(false),
			IgnorePublicAcls:      aws.Bool(false),
			RestrictPublicBuckets: aws.Bool(false),
		},
	})
	if err != nil {
		return h.errorHandler.Handle("S3 public access block", name, err, ctx)
	}
	return nil
}

func (h *S3Handler) PutBucketPolicy(ctx context.Context, name string, doc domain.PolicyDocument) error {
	policy, err := doc.JSON()
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "S3: failed to encode bucket policy")
	}

	client, err := h.prepare(ctx)
	if err != nil {
		return err
	}

	_, err = client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(name),
		Policy: aws.String(policy),
	})
	if err != nil {
		return h.errorHandler.Handle("S3 bucket policy", name, err, ctx)
	}
	return nil
}

func (h *S3Handler) PutWebsite(ctx context.Context, name string, cfg domain.WebsiteConfig) error {
	client, err := h.prepare(ctx)
	if err != nil {
		return err
	}

	website := &types.WebsiteConfiguration{
		IndexDocument: &types.IndexDocument{Suffix: aws.String(cfg.IndexDocument)},
	}
	if cfg.ErrorDocument != "" {
		website.ErrorDocument = &types.ErrorDocument{Key: aws.String(cfg.ErrorDocument)}
	}

	_, err = client.PutBucketWebsite(ctx, &s3.PutBucketWebsiteInput{
		Bucket:               aws.String(name),
		WebsiteConfiguration: website,
	})
	if err != nil {
		return h.errorHandler.Handle("S3 website configuration", name, err, ctx)
	}
	return nil
}
