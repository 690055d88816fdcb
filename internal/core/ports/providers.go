package ports

import (
	"context"

	"github.com/olusolaa/site-provisioner/internal/core/domain"
)

type BucketStore interface {
	ListBuckets(ctx context.Context) ([]domain.Bucket, error)
	// CreateBucket returns the created bucket's name.
	CreateBucket(ctx context.Context, name string, opts domain.BucketOptions) (string, error)
	OpenPublicAccess(ctx context.Context, name string) error
	PutBucketPolicy(ctx context.Context, name string, doc domain.PolicyDocument) error
	PutWebsite(ctx context.Context, name string, cfg domain.WebsiteConfig) error
}

type PolicyStore interface {
	// CreatePolicy fails with CodeAlreadyExists when the name is taken.
	CreatePolicy(ctx context.Context, name string, doc domain.PolicyDocument) (string, error)
}

type Identity interface {
	AccountID(ctx context.Context) (string, error)
}

type CertificateAuthority interface {
	// FindCertificate returns nil when no pending or issued certificate matches.
	FindCertificate(ctx context.Context, region, domainName string) (*domain.Certificate, error)
	RequestCertificate(ctx context.Context, region, domainName string) (string, error)
	DescribeCertificate(ctx context.Context, region, arn string) (domain.Certificate, error)
}

type ContentDelivery interface {
	CreateDistribution(ctx context.Context, spec domain.DistributionSpec) (domain.Distribution, error)
	GetDistribution(ctx context.Context, id string) (domain.Distribution, error)
	// ListDistributions sends every distribution, across all pages, to out.
	// It does not close out.
	ListDistributions(ctx context.Context, out chan<- domain.Distribution) error
	FindDistributionsByAlias(ctx context.Context, alias string) ([]domain.Distribution, error)
}
