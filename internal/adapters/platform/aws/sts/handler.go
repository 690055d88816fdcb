package sts

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	aws_errors "github.com/olusolaa/site-provisioner/internal/adapters/platform/aws/errors"
	aws_limiter "github.com/olusolaa/site-provisioner/internal/adapters/platform/aws/limiter"
	"github.com/olusolaa/site-provisioner/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/site-provisioner/internal/core/ports"
	apperrors "github.com/olusolaa/site-provisioner/internal/errors"
)

type ClientFactory func(ctx context.Context, region string) (shared.STSClientInterface, error)

// IdentityHandler resolves the caller's account ID once per process.
type IdentityHandler struct {
	region       string
	factory      ClientFactory
	stsClient    shared.STSClientInterface
	accountID    string
	accMu        sync.RWMutex
	logger       ports.Logger
	limiter      shared.RateLimiter
	errorHandler shared.ErrorHandler
}

var _ ports.Identity = (*IdentityHandler)(nil)

type HandlerOption func(*IdentityHandler)

// WithSTSClient provides an option to set a custom STS client.
func WithSTSClient(client shared.STSClientInterface) HandlerOption {
	return func(h *IdentityHandler) {
		if client != nil {
			h.stsClient = client
		}
	}
}

func WithRateLimiter(limiter shared.RateLimiter) HandlerOption {
	return func(h *IdentityHandler) {
		if limiter != nil {
			h.limiter = limiter
		}
	}
}

func WithErrorHandler(handler shared.ErrorHandler) HandlerOption {
	return func(h *IdentityHandler) {
		if handler != nil {
			h.errorHandler = handler
		}
	}
}

func NewHandler(region string, factory ClientFactory, logger ports.Logger, opts ...HandlerOption) *IdentityHandler {
	h := &IdentityHandler{
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

func (h *IdentityHandler) AccountID(ctx context.Context) (string, error) {
	h.accMu.RLock()
	acc := h.accountID
	h.accMu.RUnlock()
	if acc != "" {
		return acc, nil
	}

	h.accMu.Lock()
	defer h.accMu.Unlock()
	if h.accountID != "" {
		return h.accountID, nil
	}

	if h.stsClient == nil {
		if h.factory == nil {
			return "", apperrors.New(apperrors.CodeInternal, "STS: no client factory configured")
		}
		c, err := h.factory(ctx, h.region)
		if err != nil {
			return "", err
		}
		h.stsClient = c
	}

	if err := h.limiter.Wait(ctx, h.logger); err != nil {
		return "", err
	}
	out, err := h.stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", h.errorHandler.Handle("STS", "GetCallerIdentity", err, ctx)
	}
	if out.Account == nil {
		return "", apperrors.New(apperrors.CodePlatformAPIError, "STS: AWS caller identity response did not contain Account ID")
	}
	h.accountID = aws.ToString(out.Account)
	return h.accountID, nil
}
