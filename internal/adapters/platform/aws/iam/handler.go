package iam

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"

	aws_errors "github.com/olusolaa/site-provisioner/internal/adapters/platform/aws/errors"
	aws_limiter "github.com/olusolaa/site-provisioner/internal/adapters/platform/aws/limiter"
	"github.com/olusolaa/site-provisioner/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/site-provisioner/internal/core/domain"
	"github.com/olusolaa/site-provisioner/internal/core/ports"
	apperrors "github.com/olusolaa/site-provisioner/internal/errors"
)

type IAMClientInterface interface {
	CreatePolicy(ctx context.Context, params *iam.CreatePolicyInput, optFns ...func(*iam.Options)) (*iam.CreatePolicyOutput, error)
}

var _ IAMClientInterface = (*iam.Client)(nil)

// ClientFactory returns an IAM client. IAM is global, so region only selects
// the endpoint used to reach it.
type ClientFactory func(ctx context.Context, region string) (IAMClientInterface, error)

type IAMHandler struct {
	region       string
	factory      ClientFactory
	clientMu     sync.Mutex
	iamClient    IAMClientInterface
	logger       ports.Logger
	limiter      shared.RateLimiter
	errorHandler shared.ErrorHandler
}

var _ ports.PolicyStore = (*IAMHandler)(nil)

type HandlerOption func(*IAMHandler)

func WithIAMClient(client IAMClientInterface) HandlerOption {
	return func(h *IAMHandler) {
		if client != nil {
			h.iamClient = client
		}
	}
}

func WithRateLimiter(limiter shared.RateLimiter) HandlerOption {
	return func(h *IAMHandler) {
		if limiter != nil {
			h.limiter = limiter
		}
	}
}

func WithErrorHandler(handler shared.ErrorHandler) HandlerOption {
	return func(h *IAMHandler) {
		if handler != nil {
			h.errorHandler = handler
		}
	}
}

func NewHandler(region string, factory ClientFactory, logger ports.Logger, opts ...HandlerOption) *IAMHandler {
	h := &IAMHandler{
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

func (h *IAMHandler) client(ctx context.Context) (IAMClientInterface, error) {
	h.clientMu.Lock()
	defer h.clientMu.Unlock()
	if h.iamClient != nil {
		return h.iamClient, nil
	}
	if h.factory == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "IAM: no client factory configured")
	}
	c, err := h.factory(ctx, h.region)
	if err != nil {
		return nil, err
	}
	h.iamClient = c
	return c, nil
}

// CreatePolicy creates a managed policy and returns its ARN. A name that is
// already taken surfaces as CodeAlreadyExists.
func (h *IAMHandler) CreatePolicy(ctx context.Context, name string, doc domain.PolicyDocument) (string, error) {
	document, err := doc.JSON()
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeInternal, "IAM: failed to encode policy document")
	}

	client, err := h.client(ctx)
	if err != nil {
		return "", err
	}
	if err := h.limiter.Wait(ctx, h.logger); err != nil {
		return "", err
	}

	out, err := client.CreatePolicy(ctx, &iam.CreatePolicyInput{
		PolicyName:     aws.String(name),
		PolicyDocument: aws.String(document),
	})
	if err != nil {
		return "", h.errorHandler.Handle("IAM policy", name, err, ctx)
	}
	if out.Policy == nil {
		return "", apperrors.New(apperrors.CodePlatformAPIError, "IAM: CreatePolicy response did not contain a policy")
	}

	arn := aws.ToString(out.Policy.Arn)
	h.logger.Debugf(ctx, "Created IAM policy %s (%s)", name, arn)
	return arn, nil
}
