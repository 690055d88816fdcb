package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/olusolaa/site-provisioner/internal/core/domain"
)

// MockBucketStore is a mock implementation of ports.BucketStore
type MockBucketStore struct {
	mock.Mock
}

func (m *MockBucketStore) ListBuckets(ctx context.Context) ([]domain.Bucket, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Bucket), args.Error(1)
}

func (m *MockBucketStore) CreateBucket(ctx context.Context, name string, opts domain.BucketOptions) (string, error) {
	args := m.Called(ctx, name, opts)
	return args.String(0), args.Error(1)
}

func (m *MockBucketStore) OpenPublicAccess(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *MockBucketStore) PutBucketPolicy(ctx context.Context, name string, doc domain.PolicyDocument) error {
	return m.Called(ctx, name, doc).Error(0)
}

func (m *MockBucketStore) PutWebsite(ctx context.Context, name string, cfg domain.WebsiteConfig) error {
	return m.Called(ctx, name, cfg).Error(0)
}

// MockPolicyStore is a mock implementation of ports.PolicyStore
type MockPolicyStore struct {
	mock.Mock
}

func (m *MockPolicyStore) CreatePolicy(ctx context.Context, name string, doc domain.PolicyDocument) (string, error) {
	args := m.Called(ctx, name, doc)
	return args.String(0), args.Error(1)
}

// MockIdentity is a mock implementation of ports.Identity
type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) AccountID(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockCertificateAuthority is a mock implementation of ports.CertificateAuthority
type MockCertificateAuthority struct {
	mock.Mock
}

func (m *MockCertificateAuthority) FindCertificate(ctx context.Context, region, domainName string) (*domain.Certificate, error) {
	args := m.Called(ctx, region, domainName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Certificate), args.Error(1)
}

func (m *MockCertificateAuthority) RequestCertificate(ctx context.Context, region, domainName string) (string, error) {
	args := m.Called(ctx, region, domainName)
	return args.String(0), args.Error(1)
}

func (m *MockCertificateAuthority) DescribeCertificate(ctx context.Context, region, arn string) (domain.Certificate, error) {
	args := m.Called(ctx, region, arn)
	return args.Get(0).(domain.Certificate), args.Error(1)
}

// MockContentDelivery is a mock implementation of ports.ContentDelivery
type MockContentDelivery struct {
	mock.Mock
	// Pages, when set, are sent by ListDistributions before returning the
	// configured error.
	Pages [][]domain.Distribution
}

func (m *MockContentDelivery) CreateDistribution(ctx context.Context, spec domain.DistributionSpec) (domain.Distribution, error) {
	args := m.Called(ctx, spec)
	return args.Get(0).(domain.Distribution), args.Error(1)
}

func (m *MockContentDelivery) GetDistribution(ctx context.Context, id string) (domain.Distribution, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Distribution), args.Error(1)
}

func (m *MockContentDelivery) ListDistributions(ctx context.Context, out chan<- domain.Distribution) error {
	args := m.Called(ctx, out)
	for _, page := range m.Pages {
		for _, d := range page {
			select {
			case out <- d:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return args.Error(0)
}

func (m *MockContentDelivery) FindDistributionsByAlias(ctx context.Context, alias string) ([]domain.Distribution, error) {
	args := m.Called(ctx, alias)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Distribution), args.Error(1)
}

// MockReporter is a mock implementation of ports.Reporter that drains records.
type MockReporter struct {
	mock.Mock
	Received []domain.Distribution
}

func (m *MockReporter) Report(ctx context.Context, records <-chan domain.Distribution) error {
	for d := range records {
		m.Received = append(m.Received, d)
	}
	return m.Called(ctx).Error(0)
}
