package s3

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/olusolaa/site-provisioner/internal/core/domain"
	apperrors "github.com/olusolaa/site-provisioner/internal/errors"
	"github.com/olusolaa/site-provisioner/mocks"
)

type S3HandlerTestSuite struct {
	suite.Suite
	mockS3      *mocks.MockS3Client
	mockLimiter *mocks.MockRateLimiter
	mockLogger  *mocks.MockLogger
	handler     *S3Handler
	ctx         context.Context
	cancel      context.CancelFunc
}

func (s *S3HandlerTestSuite) SetupTest() {
	s.mockS3 = new(mocks.MockS3Client)
	s.mockLimiter = new(mocks.MockRateLimiter)
	s.mockLogger = mocks.NewLogger()
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 5*time.Second)

	s.mockLimiter.On("Wait", mock.Anything, s.mockLogger).Maybe().Return(nil)

	s.handler = NewHandler("eu-west-1", nil, s.mockLogger,
		WithS3Client(s.mockS3),
		WithRateLimiter(s.mockLimiter),
	)
}

func (s *S3HandlerTestSuite) TearDownTest() {
	s.cancel()
}

func TestS3HandlerTestSuite(t *testing.T) {
	suite.Run(t, new(S3HandlerTestSuite))
}

func (s *S3HandlerTestSuite) TestListBuckets_SkipsUnnamed() {
	s.mockS3.On("ListBuckets", mock.Anything, &s3.ListBucketsInput{}, mock.Anything).
		Return(&s3.ListBucketsOutput{Buckets: []types.Bucket{
			{Name: aws.String("example.com")},
			{Name: nil},
			{Name: aws.String("logs.example.com")},
		}}, nil).Once()

	buckets, err := s.handler.ListBuckets(s.ctx)

	s.Require().NoError(err)
	s.Equal([]domain.Bucket{{Name: "example.com"}, {Name: "logs.example.com"}}, buckets)
	s.mockS3.AssertExpectations(s.T())
}

func (s *S3HandlerTestSuite) TestListBuckets_APIError() {
	s.mockS3.On("ListBuckets", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}).Once()

	buckets, err := s.handler.ListBuckets(s.ctx)

	s.Nil(buckets)
	s.True(apperrors.Is(err, apperrors.CodePlatformAuthError))
}

func (s *S3HandlerTestSuite) TestCreateBucket_DefaultOptions() {
	s.mockS3.On("CreateBucket", mock.Anything, mock.MatchedBy(func(in *s3.CreateBucketInput) bool {
		return aws.ToString(in.Bucket) == "example.com" &&
			in.ACL == types.BucketCannedACLPublicRead &&
			in.ObjectOwnership == types.ObjectOwnershipObjectWriter &&
			in.CreateBucketConfiguration != nil &&
			in.CreateBucketConfiguration.LocationConstraint == types.BucketLocationConstraint("eu-west-1") &&
			in.ObjectLockEnabledForBucket == nil
	}), mock.Anything).Return(&s3.CreateBucketOutput{Location: aws.String("/example.com")}, nil).Once()

	name, err := s.handler.CreateBucket(s.ctx, "example.com", domain.DefaultBucketOptions("eu-west-1"))

	s.Require().NoError(err)
	s.Equal("example.com", name)
	s.mockS3.AssertExpectations(s.T())
}

func (s *S3HandlerTestSuite) TestCreateBucket_USEast1OmitsLocationConstraint() {
	opts := domain.DefaultBucketOptions("eu-west-1").Merge(domain.BucketOptions{LocationConstraint: "us-east-1"})

	input := createBucketInput("example.com", opts)

	s.Nil(input.CreateBucketConfiguration)
}

func (s *S3HandlerTestSuite) TestCreateBucket_LogBucketOverrides() {
	lock := true
	opts := domain.DefaultBucketOptions("eu-west-1").
		Merge(domain.LogBucketOptions()).
		Merge(domain.BucketOptions{ObjectLockEnabled: &lock})

	input := createBucketInput("logs.example.com", opts)

	s.Equal(types.BucketCannedACL(domain.ACLLogDeliveryWrite), input.ACL)
	s.Equal(types.ObjectOwnershipBucketOwnerPreferred, input.ObjectOwnership)
	s.Require().NotNil(input.ObjectLockEnabledForBucket)
	s.True(*input.ObjectLockEnabledForBucket)
}

func (s *S3HandlerTestSuite) TestCreateBucket_AlreadyOwnedIsSuccess() {
	s.mockS3.On("CreateBucket", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &types.BucketAlreadyOwnedByYou{Message: aws.String("owned")}).Once()

	name, err := s.handler.CreateBucket(s.ctx, "example.com", domain.DefaultBucketOptions("eu-west-1"))

	s.NoError(err)
	s.Equal("example.com", name)
}

func (s *S3HandlerTestSuite) TestCreateBucket_TakenByAnotherAccount() {
	s.mockS3.On("CreateBucket", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &types.BucketAlreadyExists{Message: aws.String("taken")}).Once()

	name, err := s.handler.CreateBucket(s.ctx, "example.com", domain.DefaultBucketOptions("eu-west-1"))

	s.Empty(name)
	s.True(apperrors.Is(err, apperrors.CodePlatformAPIError))
}

func (s *S3HandlerTestSuite) TestCreateBucket_LimiterError() {
	limiterErr := errors.New("rate limit exceeded")
	limiter := new(mocks.MockRateLimiter)
	limiter.On("Wait", mock.Anything, mock.Anything).Return(limiterErr).Once()
	h := NewHandler("eu-west-1", nil, s.mockLogger, WithS3Client(s.mockS3), WithRateLimiter(limiter))

	_, err := h.CreateBucket(s.ctx, "example.com", domain.BucketOptions{})

	s.ErrorIs(err, limiterErr)
	s.mockS3.AssertNotCalled(s.T(), "CreateBucket", mock.Anything, mock.Anything, mock.Anything)
}

func (s *S3HandlerTestSuite) TestOpenPublicAccess_ClearsAllFlags() {
	s.mockS3.On("PutPublicAccessBlock", mock.Anything, mock.MatchedBy(func(in *s3.PutPublicAccessBlockInput) bool {
		c := in.PublicAccessBlockConfiguration
		return aws.ToString(in.Bucket) == "example.com" && c != nil &&
			!aws.ToBool(c.BlockPublicAcls) && c.BlockPublicAcls != nil &&
			!aws.ToBool(c.BlockPublicPolicy) && c.BlockPublicPolicy != nil &&
			!aws.ToBool(c.IgnorePublicAcls) && c.IgnorePublicAcls != nil &&
			!aws.ToBool(c.RestrictPublicBuckets) && c.RestrictPublicBuckets != nil
	}), mock.Anything).Return(&s3.PutPublicAccessBlockOutput{}, nil).Once()

	s.NoError(s.handler.OpenPublicAccess(s.ctx, "example.com"))
	s.mockS3.AssertExpectations(s.T())
}

func (s *S3HandlerTestSuite) TestPutBucketPolicy_SendsJSON() {
	var sent string
	s.mockS3.On("PutBucketPolicy", mock.Anything, mock.AnythingOfType("*s3.PutBucketPolicyInput"), mock.Anything).
		Run(func(args mock.Arguments) {
			sent = aws.ToString(args.Get(1).(*s3.PutBucketPolicyInput).Policy)
		}).
		Return(&s3.PutBucketPolicyOutput{}, nil).Once()

	err := s.handler.PutBucketPolicy(s.ctx, "example.com", domain.DefaultBucketReadPolicy("example.com"))

	s.Require().NoError(err)
	doc, err := domain.ParsePolicyDocument(sent)
	s.Require().NoError(err)
	s.Equal(domain.PolicyVersion, doc.Version)
	s.Require().Len(doc.Statement, 1)
	s.Equal([]string{"s3:GetObject"}, doc.Statement[0].Action)
	s.Equal([]string{"arn:aws:s3:::example.com/*"}, doc.Statement[0].Resource)
}

func (s *S3HandlerTestSuite) TestPutBucketPolicy_NoSuchBucket() {
	s.mockS3.On("PutBucketPolicy", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &smithy.GenericAPIError{Code: "NoSuchBucket", Message: "gone"}).Once()

	err := s.handler.PutBucketPolicy(s.ctx, "example.com", domain.DefaultBucketReadPolicy("example.com"))

	s.True(apperrors.Is(err, apperrors.CodeResourceNotFound))
}

func (s *S3HandlerTestSuite) TestPutWebsite() {
	s.mockS3.On("PutBucketWebsite", mock.Anything, mock.MatchedBy(func(in *s3.PutBucketWebsiteInput) bool {
		w := in.WebsiteConfiguration
		return aws.ToString(in.Bucket) == "example.com" && w != nil &&
			aws.ToString(w.IndexDocument.Suffix) == "index.html" &&
			w.ErrorDocument != nil && aws.ToString(w.ErrorDocument.Key) == "error.html"
	}), mock.Anything).Return(&s3.PutBucketWebsiteOutput{}, nil).Once()

	s.NoError(s.handler.PutWebsite(s.ctx, "example.com", domain.DefaultWebsiteConfig()))
	s.mockS3.AssertExpectations(s.T())
}

func (s *S3HandlerTestSuite) TestClientFromFactory() {
	calls := 0
	h := NewHandler("eu-west-1", func(_ context.Context, region string) (S3ClientInterface, error) {
		calls++
		s.Equal("eu-west-1", region)
		return s.mockS3, nil
	}, s.mockLogger, WithRateLimiter(s.mockLimiter))

	s.mockS3.On("ListBuckets", mock.Anything, mock.Anything, mock.Anything).
		Return(&s3.ListBucketsOutput{}, nil).Twice()

	_, err := h.ListBuckets(s.ctx)
	s.Require().NoError(err)
	_, err = h.ListBuckets(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, calls)
}

func (s *S3HandlerTestSuite) TestClientFactoryError() {
	factoryErr := apperrors.New(apperrors.CodePlatformAuthError, "no profile")
	h := NewHandler("eu-west-1", func(context.Context, string) (S3ClientInterface, error) {
		return nil, factoryErr
	}, s.mockLogger, WithRateLimiter(s.mockLimiter))

	_, err := h.ListBuckets(s.ctx)

	s.ErrorIs(err, factoryErr)
}
