package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/site-provisioner/internal/core/domain"
	apperrors "github.com/olusolaa/site-provisioner/internal/errors"
	"github.com/olusolaa/site-provisioner/mocks"
)

type fixture struct {
	buckets  *mocks.MockBucketStore
	policies *mocks.MockPolicyStore
	identity *mocks.MockIdentity
	certs    *mocks.MockCertificateAuthority
	cdn      *mocks.MockContentDelivery
	sleeps   []time.Duration
}

func newFixture() *fixture {
	return &fixture{
		buckets:  new(mocks.MockBucketStore),
		policies: new(mocks.MockPolicyStore),
		identity: new(mocks.MockIdentity),
		certs:    new(mocks.MockCertificateAuthority),
		cdn:      new(mocks.MockContentDelivery),
	}
}

func (f *fixture) deps() Dependencies {
	return Dependencies{
		Buckets:      f.buckets,
		Policies:     f.policies,
		Identity:     f.identity,
		Certificates: f.certs,
		CDN:          f.cdn,
		Logger:       mocks.NewLogger(),
	}
}

func (f *fixture) provisioner(t *testing.T, region string, opts ...Option) *Provisioner {
	t.Helper()
	opts = append([]Option{
		WithPollInterval(30 * time.Second),
		WithSleeper(func(_ context.Context, d time.Duration) error {
			f.sleeps = append(f.sleeps, d)
			return nil
		}),
	}, opts...)
	p, err := NewProvisioner(Site{Domain: "example.com", Region: region}, f.deps(), opts...)
	require.NoError(t, err)
	return p
}

func TestNewProvisioner_DerivesSiteDefaults(t *testing.T) {
	f := newFixture()
	p := f.provisioner(t, "eu-west-1")

	assert.Equal(t, Site{
		Domain:            "example.com",
		Region:            "eu-west-1",
		CertificateRegion: "us-east-1",
		WebBucket:         "example.com",
		LogBucket:         "logs.example.com",
		PolicyName:        "example-com-admin",
	}, p.Site())
}

func TestNewProvisioner_Validation(t *testing.T) {
	f := newFixture()

	deps := f.deps()
	deps.CDN = nil
	_, err := NewProvisioner(Site{Domain: "example.com", Region: "us-east-1"}, deps)
	assert.True(t, apperrors.Is(err, apperrors.CodeConfigValidation))

	_, err = NewProvisioner(Site{Region: "us-east-1"}, f.deps())
	_, _, userFacing := apperrors.GetUserFacingMessage(err)
	assert.True(t, userFacing)
}

func TestCreateBucket_ExampleScenario(t *testing.T) {
	f := newFixture()
	p := f.provisioner(t, "us-east-1")
	ctx := context.Background()

	f.buckets.On("ListBuckets", mock.Anything).Return([]domain.Bucket{}, nil).Once()
	f.buckets.On("ListBuckets", mock.Anything).Return([]domain.Bucket{{Name: "example.com"}}, nil).Once()
	f.buckets.On("CreateBucket", mock.Anything, "example.com", domain.BucketOptions{
		ACL:             domain.ACLPublicRead,
		ObjectOwnership: domain.OwnershipObjectWriter,
	}).Return("example.com", nil).Once()

	name, err := p.CreateBucket(ctx, "example.com", domain.BucketOptions{})
	require.NoError(t, err)
	assert.Equal(t, "example.com", name)

	name, err = p.CreateBucket(ctx, "example.com", domain.BucketOptions{})
	require.NoError(t, err)
	assert.Equal(t, "example.com", name)

	f.buckets.AssertNumberOfCalls(t, "CreateBucket", 1)
}

func TestCreateBucket_OverridesWin(t *testing.T) {
	f := newFixture()
	p := f.provisioner(t, "eu-west-1")

	f.buckets.On("ListBuckets", mock.Anything).Return([]domain.Bucket{{Name: "example.com"}}, nil).Once()
	f.buckets.On("CreateBucket", mock.Anything, "logs.example.com", domain.BucketOptions{
		ACL:                domain.ACLLogDeliveryWrite,
		LocationConstraint: "eu-west-1",
		ObjectOwnership:    domain.OwnershipBucketOwnerPreferred,
	}).Return("logs.example.com", nil).Once()

	name, err := p.CreateBucket(context.Background(), "logs.example.com", domain.LogBucketOptions())

	require.NoError(t, err)
	assert.Equal(t, "logs.example.com", name)
	f.buckets.AssertExpectations(t)
}

func TestCreateBucket_ListError(t *testing.T) {
	f := newFixture()
	p := f.provisioner(t, "us-east-1")
	listErr := apperrors.New(apperrors.CodePlatformAuthError, "denied")
	f.buckets.On("ListBuckets", mock.Anything).Return(nil, listErr).Once()

	_, err := p.CreateBucket(context.Background(), "example.com", domain.BucketOptions{})

	assert.ErrorIs(t, err, listErr)
	f.buckets.AssertNotCalled(t, "CreateBucket", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateIAMPolicy(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "created", err: nil},
		{name: "already exists is skipped", err: apperrors.New(apperrors.CodeAlreadyExists, "IAM policy 'x' already exists")},
		{name: "other errors propagate", err: apperrors.New(apperrors.CodePlatformAPIError, "boom"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			p := f.provisioner(t, "us-east-1")
			doc := domain.DefaultSiteAdminPolicy("123456789012", "example.com", "logs.example.com")
			f.policies.On("CreatePolicy", mock.Anything, "example-com-admin", doc).Return("arn:policy", tt.err).Once()

			err := p.CreateIAMPolicy(context.Background(), "example-com-admin", doc)

			if tt.wantErr {
				assert.ErrorIs(t, err, tt.err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestACMSSLCert_ExistingCertificateSkipsRequest(t *testing.T) {
	f := newFixture()
	p := f.provisioner(t, "eu-west-1")
	ctx := context.Background()

	f.certs.On("FindCertificate", mock.Anything, "us-east-1", "example.com").
		Return(&domain.Certificate{ARN: "arn:existing", Status: domain.CertStatusIssued}, nil).Once()
	f.certs.On("DescribeCertificate", mock.Anything, "us-east-1", "arn:existing").
		Return(domain.Certificate{ARN: "arn:existing", Status: domain.CertStatusIssued}, nil).Once()

	arn, err := p.ACMSSLCert(ctx, "example.com", "us-east-1")

	require.NoError(t, err)
	assert.Equal(t, "arn:existing", arn)
	f.certs.AssertNotCalled(t, "RequestCertificate", mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.sleeps)
}

func TestACMSSLCert_PollsUntilIssued(t *testing.T) {
	f := newFixture()
	p := f.provisioner(t, "eu-west-1")

	f.certs.On("FindCertificate", mock.Anything, "us-east-1", "example.com").Return(nil, nil).Once()
	f.certs.On("RequestCertificate", mock.Anything, "us-east-1", "example.com").Return("arn:new", nil).Once()
	pending := domain.Certificate{
		ARN:    "arn:new",
		Status: domain.CertStatusPendingValidation,
		ValidationRecords: []domain.ValidationRecord{{
			DomainName: "example.com", Name: "_x.example.com.", Type: "CNAME", Value: "_y.acm-validations.aws.",
		}},
	}
	f.certs.On("DescribeCertificate", mock.Anything, "us-east-1", "arn:new").Return(pending, nil).Twice()
	f.certs.On("DescribeCertificate", mock.Anything, "us-east-1", "arn:new").
		Return(domain.Certificate{ARN: "arn:other-field-ignored", Status: domain.CertStatusIssued}, nil).Once()

	arn, err := p.ACMSSLCert(context.Background(), "example.com", "us-east-1")

	require.NoError(t, err)
	assert.Equal(t, "arn:new", arn, "the requested ARN is returned unchanged")
	f.certs.AssertNumberOfCalls(t, "DescribeCertificate", 3)
	assert.Equal(t, []time.Duration{30 * time.Second, 30 * time.Second}, f.sleeps, "one describe per interval")
}

func TestACMSSLCert_TerminalFailure(t *testing.T) {
	f := newFixture()
	p := f.provisioner(t, "eu-west-1")

	f.certs.On("FindCertificate", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.Certificate{ARN: "arn:bad", Status: domain.CertStatusPendingValidation}, nil).Once()
	f.certs.On("DescribeCertificate", mock.Anything, mock.Anything, "arn:bad").
		Return(domain.Certificate{Status: domain.CertStatusFailed, FailureReason: "CAA_ERROR"}, nil).Once()

	_, err := p.ACMSSLCert(context.Background(), "example.com", "us-east-1")

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeCertificateFailed))
	assert.Contains(t, err.Error(), "CAA_ERROR")
	assert.Empty(t, f.sleeps)
}

func TestACMSSLCert_BoundedWait(t *testing.T) {
	f := newFixture()
	p := f.provisioner(t, "eu-west-1", WithMaxAttempts(3))

	f.certs.On("FindCertificate", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.Certificate{ARN: "arn:slow"}, nil).Once()
	f.certs.On("DescribeCertificate", mock.Anything, mock.Anything, "arn:slow").
		Return(domain.Certificate{Status: domain.CertStatusPendingValidation}, nil)

	_, err := p.ACMSSLCert(context.Background(), "example.com", "us-east-1")

	assert.True(t, apperrors.Is(err, apperrors.CodeTimeout))
	f.certs.AssertNumberOfCalls(t, "DescribeCertificate", 3)
	assert.Len(t, f.sleeps, 2)
}

func TestACMSSLCert_CancelledWhileWaiting(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	p, err := NewProvisioner(Site{Domain: "example.com", Region: "us-east-1"}, f.deps(),
		WithSleeper(func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		}))
	require.NoError(t, err)

	f.certs.On("FindCertificate", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.Certificate{ARN: "arn:slow"}, nil).Once()
	f.certs.On("DescribeCertificate", mock.Anything, mock.Anything, "arn:slow").
		Return(domain.Certificate{Status: domain.CertStatusPendingValidation}, nil).Once()

	_, err = p.ACMSSLCert(ctx, "example.com", "us-east-1")

	assert.ErrorIs(t, err, context.Canceled)
	f.certs.AssertNumberOfCalls(t, "DescribeCertificate", 1)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}

func TestS3BucketWebsite(t *testing.T) {
	f := newFixture()
	p := f.provisioner(t, "eu-west-1")
	f.buckets.On("PutWebsite", mock.Anything, "example.com", domain.WebsiteConfig{
		IndexDocument: "index.html",
		ErrorDocument: "error.html",
	}).Return(nil).Once()

	require.NoError(t, p.S3BucketWebsite(context.Background(), "example.com"))
	f.buckets.AssertExpectations(t)
}

func TestCreateCDN_FixedPolicy(t *testing.T) {
	f := newFixture()
	p := f.provisioner(t, "eu-west-1")

	f.cdn.On("FindDistributionsByAlias", mock.Anything, "example.com").Return(nil, nil).Once()
	f.cdn.On("CreateDistribution", mock.Anything, mock.MatchedBy(func(spec domain.DistributionSpec) bool {
		return spec.ForwardCookies == "all" && !spec.ForwardQueryString && spec.MinTTL == 1000 &&
			spec.OriginDomain == "example.com.s3.amazonaws.com" &&
			spec.LogBucketDomain == "logs.example.com.s3.amazonaws.com" &&
			spec.CertificateARN == "arn:cert"
	})).Return(domain.Distribution{ID: "E1"}, nil).Once()

	d, err := p.CreateCDN(context.Background(), "example.com", "logs.example.com", "arn:cert")

	require.NoError(t, err)
	assert.Equal(t, "E1", d.ID)
	f.cdn.AssertExpectations(t)
}

func TestCreateCDN_ExistingDistribution(t *testing.T) {
	existing := []domain.Distribution{{ID: "EOLD", Aliases: []string{"example.com"}}}

	t.Run("warns and creates by default", func(t *testing.T) {
		f := newFixture()
		p := f.provisioner(t, "eu-west-1")
		f.cdn.On("FindDistributionsByAlias", mock.Anything, "example.com").Return(existing, nil).Once()
		f.cdn.On("CreateDistribution", mock.Anything, mock.Anything).Return(domain.Distribution{ID: "ENEW"}, nil).Once()

		d, err := p.CreateCDN(context.Background(), "example.com", "logs.example.com", "arn:cert")

		require.NoError(t, err)
		assert.Equal(t, "ENEW", d.ID)
	})

	t.Run("reuses when configured", func(t *testing.T) {
		f := newFixture()
		p := f.provisioner(t, "eu-west-1", WithReuseDistribution(true))
		f.cdn.On("FindDistributionsByAlias", mock.Anything, "example.com").Return(existing, nil).Once()

		d, err := p.CreateCDN(context.Background(), "example.com", "logs.example.com", "arn:cert")

		require.NoError(t, err)
		assert.Equal(t, "EOLD", d.ID)
		f.cdn.AssertNotCalled(t, "CreateDistribution", mock.Anything, mock.Anything)
	})

	t.Run("lookup failure only blocks reuse", func(t *testing.T) {
		lookupErr := errors.New("throttled")

		f := newFixture()
		p := f.provisioner(t, "eu-west-1")
		f.cdn.On("FindDistributionsByAlias", mock.Anything, mock.Anything).Return(nil, lookupErr).Once()
		f.cdn.On("CreateDistribution", mock.Anything, mock.Anything).Return(domain.Distribution{ID: "ENEW"}, nil).Once()
		_, err := p.CreateCDN(context.Background(), "example.com", "logs.example.com", "arn:cert")
		assert.NoError(t, err)

		f = newFixture()
		p = f.provisioner(t, "eu-west-1", WithReuseDistribution(true))
		f.cdn.On("FindDistributionsByAlias", mock.Anything, mock.Anything).Return(nil, lookupErr).Once()
		_, err = p.CreateCDN(context.Background(), "example.com", "logs.example.com", "arn:cert")
		assert.ErrorIs(t, err, lookupErr)
	})
}

func TestProvision_FullSequence(t *testing.T) {
	f := newFixture()
	p := f.provisioner(t, "eu-west-1")
	ctx := context.Background()

	f.buckets.On("ListBuckets", mock.Anything).Return([]domain.Bucket{}, nil)
	f.buckets.On("CreateBucket", mock.Anything, "example.com", mock.Anything).Return("example.com", nil).Once()
	f.buckets.On("CreateBucket", mock.Anything, "logs.example.com", mock.MatchedBy(func(o domain.BucketOptions) bool {
		return o.ACL == domain.ACLLogDeliveryWrite && o.ObjectOwnership == domain.OwnershipBucketOwnerPreferred
	})).Return("logs.example.com", nil).Once()
	f.buckets.On("OpenPublicAccess", mock.Anything, "example.com").Return(nil).Once()
	f.identity.On("AccountID", mock.Anything).Return("123456789012", nil).Once()
	f.policies.On("CreatePolicy", mock.Anything, "example-com-admin",
		domain.DefaultSiteAdminPolicy("123456789012", "example.com", "logs.example.com")).Return("arn:policy", nil).Once()
	f.buckets.On("PutBucketPolicy", mock.Anything, "example.com", domain.DefaultBucketReadPolicy("example.com")).Return(nil).Once()
	f.certs.On("FindCertificate", mock.Anything, "us-east-1", "example.com").Return(nil, nil).Once()
	f.certs.On("RequestCertificate", mock.Anything, "us-east-1", "example.com").Return("arn:cert", nil).Once()
	f.certs.On("DescribeCertificate", mock.Anything, "us-east-1", "arn:cert").
		Return(domain.Certificate{Status: domain.CertStatusIssued}, nil).Once()
	f.buckets.On("PutWebsite", mock.Anything, "example.com", domain.DefaultWebsiteConfig()).Return(nil).Once()
	f.cdn.On("FindDistributionsByAlias", mock.Anything, "example.com").Return(nil, nil).Once()
	f.cdn.On("CreateDistribution", mock.Anything, mock.Anything).
		Return(domain.Distribution{ID: "E1", DomainName: "d1.cloudfront.net"}, nil).Once()

	res, err := p.Provision(ctx)

	require.NoError(t, err)
	assert.Equal(t, ProvisionResult{
		WebBucket:      "example.com",
		LogBucket:      "logs.example.com",
		CertificateARN: "arn:cert",
		Distribution:   domain.Distribution{ID: "E1", DomainName: "d1.cloudfront.net"},
	}, res)
	for _, m := range []interface{ AssertExpectations(mock.TestingT) bool }{f.buckets, f.identity, f.policies, f.certs, f.cdn} {
		m.AssertExpectations(t)
	}
}

func TestProvision_StopsAtFirstError(t *testing.T) {
	f := newFixture()
	p := f.provisioner(t, "eu-west-1")
	stsErr := apperrors.New(apperrors.CodePlatformAuthError, "expired token")

	f.buckets.On("ListBuckets", mock.Anything).Return([]domain.Bucket{{Name: "example.com"}, {Name: "logs.example.com"}}, nil)
	f.buckets.On("OpenPublicAccess", mock.Anything, "example.com").Return(nil).Once()
	f.identity.On("AccountID", mock.Anything).Return("", stsErr).Once()

	res, err := p.Provision(context.Background())

	assert.ErrorIs(t, err, stsErr)
	assert.Equal(t, "example.com", res.WebBucket)
	assert.Equal(t, "logs.example.com", res.LogBucket)
	f.buckets.AssertNotCalled(t, "CreateBucket", mock.Anything, mock.Anything, mock.Anything)
	f.policies.AssertNotCalled(t, "CreatePolicy", mock.Anything, mock.Anything, mock.Anything)
	f.certs.AssertNotCalled(t, "FindCertificate", mock.Anything, mock.Anything, mock.Anything)
}
