package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"slices"
	"strings"

	"github.com/aws/smithy-go"

	"github.com/olusolaa/site-provisioner/internal/errors"
)

var (
	notFoundCodes = []string{
		"NoSuchBucket",
		"NoSuchBucketPolicy",
		"NoSuchEntity",
		"NoSuchDistribution",
		"ResourceNotFoundException",
		"NotFound",
	}
	alreadyExistsCodes = []string{
		"EntityAlreadyExists",
		"BucketAlreadyOwnedByYou",
		"DistributionAlreadyExists",
		"CNAMEAlreadyExists",
	}
	authCodes = []string{
		"AccessDenied",
		"AccessDeniedException",
		"UnauthorizedOperation",
		"InvalidClientTokenId",
		"ExpiredToken",
		"SignatureDoesNotMatch",
	}
)

// HandleAWSError maps an AWS SDK error onto an application error code.
// resourceType names the AWS service or resource ("S3 bucket", "ACM certificate"),
// resourceID the bucket name, ARN or operation involved.
func HandleAWSError(resourceType string, resourceID string, err error, ctx context.Context) error {
	if err == nil {
		return errors.New(errors.CodeInternal, fmt.Sprintf("unexpected nil error in AWS error handler for %s", resourceType))
	}

	if ctx.Err() != nil {
		return errors.Wrap(ctx.Err(), errors.CodePlatformAPIError,
			fmt.Sprintf("context canceled during AWS %s API call", resourceType))
	}
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(err, errors.CodePlatformAPIError,
			fmt.Sprintf("context canceled during AWS %s API call", resourceType))
	}

	code := errorCode(err)

	switch {
	case slices.Contains(alreadyExistsCodes, code):
		return errors.Wrap(err, errors.CodeAlreadyExists,
			fmt.Sprintf("%s '%s' already exists", resourceType, resourceID))
	case slices.Contains(authCodes, code) || strings.Contains(err.Error(), "AccessDenied"):
		return errors.Wrap(err, errors.CodePlatformAuthError,
			fmt.Sprintf("AWS authentication error accessing %s %s", resourceType, resourceID))
	case slices.Contains(notFoundCodes, code):
		return errors.Wrap(err, errors.CodeResourceNotFound,
			fmt.Sprintf("%s '%s' not found", resourceType, resourceID))
	}

	return errors.Wrap(err, errors.CodePlatformAPIError,
		fmt.Sprintf("failed to access %s '%s'", resourceType, resourceID))
}

func errorCode(err error) string {
	var apiErr smithy.APIError
	if stderrs.As(err, &apiErr) && apiErr != nil {
		return apiErr.ErrorCode()
	}
	if coded, ok := err.(interface{ ErrorCode() string }); ok {
		return coded.ErrorCode()
	}
	return ""
}

// DefaultErrorHandler implements shared.ErrorHandler on top of HandleAWSError.
type DefaultErrorHandler struct{}

func (d *DefaultErrorHandler) Handle(service, operation string, err error, ctx context.Context) error {
	return HandleAWSError(service, operation, err, ctx)
}
