package cloudfront

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"

	aws_errors "github.com/olusolaa/site-provisioner/internal/adapters/platform/aws/errors"
	aws_limiter "github.com/olusolaa/site-provisioner/internal/adapters/platform/aws/limiter"
	"github.com/olusolaa/site-provisioner/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/site-provisioner/internal/core/domain"
	"github.com/olusolaa/site-provisioner/internal/core/ports"
	apperrors "github.com/olusolaa/site-provisioner/internal/errors"
)

type CloudFrontClientInterface interface {
	CreateDistribution(ctx context.Context, params *cloudfront.CreateDistributionInput, optFns ...func(*cloudfront.Options)) (*cloudfront.CreateDistributionOutput, error)
	GetDistribution(ctx context.Context, params *cloudfront.GetDistributionInput, optFns ...func(*cloudfront.Options)) (*cloudfront.GetDistributionOutput, error)
	ListDistributions(ctx context.Context, params *cloudfront.ListDistributionsInput, optFns ...func(*cloudfront.Options)) (*cloudfront.ListDistributionsOutput, error)
}

var _ CloudFrontClientInterface = (*cloudfront.Client)(nil)

type ClientFactory func(ctx context.Context, region string) (CloudFrontClientInterface, error)

type DistributionsPaginator interface {
	HasMorePages() bool
	NextPage(ctx context.Context, optFns ...func(*cloudfront.Options)) (*cloudfront.ListDistributionsOutput, error)
}

// PaginatorFactory builds the pager used by ListDistributions. pageSize zero
// leaves MaxItems to the API default.
type PaginatorFactory func(client CloudFrontClientInterface, input *cloudfront.ListDistributionsInput, pageSize int32) DistributionsPaginator

func newDistributionsPaginator(client CloudFrontClientInterface, input *cloudfront.ListDistributionsInput, pageSize int32) DistributionsPaginator {
	return cloudfront.NewListDistributionsPaginator(client, input, func(o *cloudfront.ListDistributionsPaginatorOptions) {
		o.Limit = pageSize
		o.StopOnDuplicateToken = true
	})
}

type CloudFrontHandler struct {
	region       string
	factory      ClientFactory
	clientMu     sync.Mutex
	cfClient     CloudFrontClientInterface
	paginator    PaginatorFactory
	pageSize     int32
	logger       ports.Logger
	limiter      shared.RateLimiter
	errorHandler shared.ErrorHandler
}

var _ ports.ContentDelivery = (*CloudFrontHandler)(nil)

type HandlerOption func(*CloudFrontHandler)

func WithCloudFrontClient(client CloudFrontClientInterface) HandlerOption {
	return func(h *CloudFrontHandler) {
		if client != nil {
			h.cfClient = client
		}
	}
}

// WithPaginatorFactory replaces the SDK ListDistributions paginator.
func WithPaginatorFactory(factory PaginatorFactory) HandlerOption {
	return func(h *CloudFrontHandler) {
		if factory != nil {
			h.paginator = factory
		}
	}
}

// WithPageSize sets MaxItems on list calls. Zero leaves the API default.
func WithPageSize(n int32) HandlerOption {
	return func(h *CloudFrontHandler) {
		if n > 0 {
			h.pageSize = n
		}
	}
}

func WithRateLimiter(limiter shared.RateLimiter) HandlerOption {
	return func(h *CloudFrontHandler) {
		if limiter != nil {
			h.limiter = limiter
		}
	}
}

func WithErrorHandler(handler shared.ErrorHandler) HandlerOption {
	return func(h *CloudFrontHandler) {
		if handler != nil {
			h.errorHandler = handler
		}
	}
}

func NewHandler(region string, factory ClientFactory, logger ports.Logger, opts ...HandlerOption) *CloudFrontHandler {
	h := &CloudFrontHandler{
		region:       region,
		factory:      factory,
		paginator:    newDistributionsPaginator,
		logger:       logger,
		limiter:      &aws_limiter.DefaultRateLimiter{},
		errorHandler: &aws_errors.DefaultErrorHandler{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *CloudFrontHandler) client(ctx context.Context) (CloudFrontClientInterface, error) {
	h.clientMu.Lock()
	defer h.clientMu.Unlock()
	if h.cfClient != nil {
		return h.cfClient, nil
	}
	if h.factory == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "CloudFront: no client factory configured")
	}
	c, err := h.factory(ctx, h.region)
	if err != nil {
		return nil, err
	}
	h.cfClient = c
	return c, nil
}

func (h *CloudFrontHandler) CreateDistribution(ctx context.Context, spec domain.DistributionSpec) (domain.Distribution, error) {
	client, err := h.client(ctx)
	if err != nil {
		return domain.Distribution{}, err
	}
	if err := h.limiter.Wait(ctx, h.logger); err != nil {
		return domain.Distribution{}, err
	}

	out, err := client.CreateDistribution(ctx, &cloudfront.CreateDistributionInput{
		DistributionConfig: distributionConfig(spec),
	})
	if err != nil {
		return domain.Distribution{}, h.errorHandler.Handle("CloudFront distribution", spec.CallerReference, err, ctx)
	}

	d := fromDistribution(out.Distribution)
	h.logger.Debugf(ctx, "Created CloudFront distribution %s (%s) for %s", d.ID, d.DomainName, spec.Domain)
	return d, nil
}

func (h *CloudFrontHandler) GetDistribution(ctx context.Context, id string) (domain.Distribution, error) {
	client, err := h.client(ctx)
	if err != nil {
		return domain.Distribution{}, err
	}
	if err := h.limiter.Wait(ctx, h.logger); err != nil {
		return domain.Distribution{}, err
	}

	out, err := client.GetDistribution(ctx, &cloudfront.GetDistributionInput{Id: aws.String(id)})
	if err != nil {
		return domain.Distribution{}, h.errorHandler.Handle("CloudFront distribution", id, err, ctx)
	}
	if out.Distribution == nil {
		return domain.Distribution{}, apperrors.New(apperrors.CodePlatformAPIError, "CloudFront: GetDistribution response did not contain a distribution")
	}
	return fromDistribution(out.Distribution), nil
}

func (h *CloudFrontHandler) ListDistributions(ctx context.Context, out chan<- domain.Distribution) error {
	client, err := h.client(ctx)
	if err != nil {
		return err
	}

	paginator := h.paginator(client, &cloudfront.ListDistributionsInput{}, h.pageSize)
	pages := 0
	for paginator.HasMorePages() {
		if err := h.limiter.Wait(ctx, h.logger); err != nil {
			return err
		}
		pages++
		h.logger.Debugf(ctx, "Fetching CloudFront distributions page %d", pages)
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return h.errorHandler.Handle("CloudFront", "ListDistributions", err, ctx)
		}
		if page.DistributionList == nil {
			continue
		}

		for _, summary := range page.DistributionList.Items {
			select {
			case out <- fromSummary(summary):
			case <-ctx.Done():
				h.logger.Warnf(ctx, "Context cancelled while listing CloudFront distributions")
				return ctx.Err()
			}
		}
	}

	h.logger.Debugf(ctx, "Listed CloudFront distributions across %d page(s)", pages)
	return nil
}

// FindDistributionsByAlias returns every distribution that serves alias.
func (h *CloudFrontHandler) FindDistributionsByAlias(ctx context.Context, alias string) ([]domain.Distribution, error) {
	ch := make(chan domain.Distribution)
	errCh := make(chan error, 1)
	go func() {
		defer close(ch)
		errCh <- h.ListDistributions(ctx, ch)
	}()

	var matches []domain.Distribution
	for d := range ch {
		if d.HasAlias(alias) {
			matches = append(matches, d)
		}
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return matches, nil
}
