package acm

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/acm"
	"github.com/aws/aws-sdk-go-v2/service/acm/types"

	aws_errors "github.com/olusolaa/site-provisioner/internal/adapters/platform/aws/errors"
	aws_limiter "github.com/olusolaa/site-provisioner/internal/adapters/platform/aws/limiter"
	"github.com/olusolaa/site-provisioner/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/site-provisioner/internal/core/domain"
	"github.com/olusolaa/site-provisioner/internal/core/ports"
	apperrors "github.com/olusolaa/site-provisioner/internal/errors"
)

type ACMClientInterface interface {
	ListCertificates(ctx context.Context, params *acm.ListCertificatesInput, optFns ...func(*acm.Options)) (*acm.ListCertificatesOutput, error)
	RequestCertificate(ctx context.Context, params *acm.RequestCertificateInput, optFns ...func(*acm.Options)) (*acm.RequestCertificateOutput, error)
	DescribeCertificate(ctx context.Context, params *acm.DescribeCertificateInput, optFns ...func(*acm.Options)) (*acm.DescribeCertificateOutput, error)
}

var _ ACMClientInterface = (*acm.Client)(nil)

// ClientFactory returns an ACM client for region. CloudFront only accepts
// certificates from us-east-1, so callers pass the region on every call.
type ClientFactory func(ctx context.Context, region string) (ACMClientInterface, error)

type ACMHandler struct {
	factory      ClientFactory
	clientMu     sync.Mutex
	acmClient    ACMClientInterface
	logger       ports.Logger
	limiter      shared.RateLimiter
	errorHandler shared.ErrorHandler
}

var _ ports.CertificateAuthority = (*ACMHandler)(nil)

type HandlerOption func(*ACMHandler)

// WithACMClient pins one client for every region.
func WithACMClient(client ACMClientInterface) HandlerOption {
	return func(h *ACMHandler) {
		if client != nil {
			h.acmClient = client
		}
	}
}

func WithRateLimiter(limiter shared.RateLimiter) HandlerOption {
	return func(h *ACMHandler) {
		if limiter != nil {
			h.limiter = limiter
		}
	}
}

func WithErrorHandler(handler shared.ErrorHandler) HandlerOption {
	return func(h *ACMHandler) {
		if handler != nil {
			h.errorHandler = handler
		}
	}
}

func NewHandler(factory ClientFactory, logger ports.Logger, opts ...HandlerOption) *ACMHandler {
	h := &ACMHandler{
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

func (h *ACMHandler) client(ctx context.Context, region string) (ACMClientInterface, error) {
	h.clientMu.Lock()
	pinned := h.acmClient
	h.clientMu.Unlock()
	if pinned != nil {
		return pinned, nil
	}
	if h.factory == nil {
		return nil, apperrors.New(apperrors.CodeInternal, "ACM: no client factory configured")
	}
	return h.factory(ctx, region)
}

// FindCertificate walks every page of certificates in a lookup status and
// returns the first whose primary domain matches exactly.
func (h *ACMHandler) FindCertificate(ctx context.Context, region, domainName string) (*domain.Certificate, error) {
	client, err := h.client(ctx, region)
	if err != nil {
		return nil, err
	}

	statuses := make([]types.CertificateStatus, 0, len(domain.LookupStatuses))
	for _, s := range domain.LookupStatuses {
		statuses = append(statuses, types.CertificateStatus(s))
	}

	paginator := acm.NewListCertificatesPaginator(client, &acm.ListCertificatesInput{
		CertificateStatuses: statuses,
	})

	pages := 0
	for paginator.HasMorePages() {
		if err := h.limiter.Wait(ctx, h.logger); err != nil {
			return nil, err
		}
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, h.errorHandler.Handle("ACM certificate", domainName, err, ctx)
		}
		pages++

		for _, summary := range page.CertificateSummaryList {
			if aws.ToString(summary.DomainName) != domainName {
				continue
			}
			h.logger.Debugf(ctx, "Found ACM certificate for %s on page %d", domainName, pages)
			return &domain.Certificate{
				ARN:        aws.ToString(summary.CertificateArn),
				DomainName: domainName,
				Status:     domain.CertificateStatus(summary.Status),
			}, nil
		}
	}

	h.logger.Debugf(ctx, "No ACM certificate for %s in %s after %d page(s)", domainName, region, pages)
	return nil, nil
}

// RequestCertificate asks for a DNS-validated certificate covering the apex
// and its www alias. Repeats within ACM's idempotency window return the same ARN.
func (h *ACMHandler) RequestCertificate(ctx context.Context, region, domainName string) (string, error) {
	client, err := h.client(ctx, region)
	if err != nil {
		return "", err
	}
	if err := h.limiter.Wait(ctx, h.logger); err != nil {
		return "", err
	}

	out, err := client.RequestCertificate(ctx, requestCertificateInput(domainName))
	if err != nil {
		return "", h.errorHandler.Handle("ACM certificate", domainName, err, ctx)
	}
	arn := aws.ToString(out.CertificateArn)
	if arn == "" {
		return "", apperrors.New(apperrors.CodeCertificateRequest, "ACM: RequestCertificate response did not contain an ARN")
	}
	return arn, nil
}

func requestCertificateInput(domainName string) *acm.RequestCertificateInput {
	return &acm.RequestCertificateInput{
		DomainName:              aws.String(domainName),
		ValidationMethod:        types.ValidationMethodDns,
		SubjectAlternativeNames: domain.AlternativeNames(domainName),
		IdempotencyToken:        aws.String(domain.IdempotencyToken(domainName)),
		DomainValidationOptions: []types.DomainValidationOption{{
			DomainName:       aws.String(domainName),
			ValidationDomain: aws.String(domainName),
		}},
		Options: &types.CertificateOptions{
			CertificateTransparencyLoggingPreference: types.CertificateTransparencyLoggingPreferenceEnabled,
		},
	}
}

func (h *ACMHandler) DescribeCertificate(ctx context.Context, region, arn string) (domain.Certificate, error) {
	client, err := h.client(ctx, region)
	if err != nil {
		return domain.Certificate{}, err
	}
	if err := h.limiter.Wait(ctx, h.logger); err != nil {
		return domain.Certificate{}, err
	}

	out, err := client.DescribeCertificate(ctx, &acm.DescribeCertificateInput{CertificateArn: aws.String(arn)})
	if err != nil {
		return domain.Certificate{}, h.errorHandler.Handle("ACM certificate", arn, err, ctx)
	}
	if out.Certificate == nil {
		return domain.Certificate{}, apperrors.New(apperrors.CodePlatformAPIError, "ACM: DescribeCertificate response did not contain a certificate")
	}
	return toDomainCertificate(out.Certificate), nil
}

func toDomainCertificate(detail *types.CertificateDetail) domain.Certificate {
	cert := domain.Certificate{
		ARN:                     aws.ToString(detail.CertificateArn),
		DomainName:              aws.ToString(detail.DomainName),
		Status:                  domain.CertificateStatus(detail.Status),
		SubjectAlternativeNames: detail.SubjectAlternativeNames,
		FailureReason:           string(detail.FailureReason),
	}
	for _, dv := range detail.DomainValidationOptions {
		if dv.ResourceRecord == nil {
			continue
		}
		cert.ValidationRecords = append(cert.ValidationRecords, domain.ValidationRecord{
			DomainName: aws.ToString(dv.DomainName),
			Name:       aws.ToString(dv.ResourceRecord.Name),
			Type:       string(dv.ResourceRecord.Type),
			Value:      aws.ToString(dv.ResourceRecord.Value),
		})
	}
	return cert
}
