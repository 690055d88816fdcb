package shared

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/olusolaa/site-provisioner/internal/core/ports"
)

// RateLimiter throttles calls to the AWS control plane.
type RateLimiter interface {
	// Wait blocks until the rate limit allows proceeding, or ctx ends.
	Wait(ctx context.Context, logger ports.Logger) error
}

// ErrorHandler converts SDK errors into coded application errors.
type ErrorHandler interface {
	Handle(resourceType, resourceID string, err error, ctx context.Context) error
}

type STSClientInterface interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

var _ STSClientInterface = (*sts.Client)(nil)
