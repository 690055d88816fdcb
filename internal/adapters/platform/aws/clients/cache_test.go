package clients

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/olusolaa/site-provisioner/internal/errors"
)

type countingLoader struct {
	mu    sync.Mutex
	calls map[string]int
}

func (l *countingLoader) load(_ context.Context, profile, region string) (aws.Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.calls == nil {
		l.calls = make(map[string]int)
	}
	l.calls[profile+"/"+region]++
	return aws.Config{Region: region}, nil
}

func TestCache_MemoizesPerServiceAndRegion(t *testing.T) {
	loader := &countingLoader{}
	cache := NewCache("site", "eu-west-1", WithConfigLoader(loader.load))
	ctx := context.Background()

	s3a, err := cache.S3(ctx, "")
	require.NoError(t, err)
	s3b, err := cache.S3(ctx, "eu-west-1")
	require.NoError(t, err)
	assert.Same(t, s3a, s3b, "empty region resolves to the default region")

	acmEU, err := cache.ACM(ctx, "eu-west-1")
	require.NoError(t, err)
	acmUS, err := cache.ACM(ctx, "us-east-1")
	require.NoError(t, err)
	assert.NotSame(t, acmEU, acmUS, "clients are keyed by region")

	acmUS2, err := cache.ACM(ctx, "us-east-1")
	require.NoError(t, err)
	assert.Same(t, acmUS, acmUS2)

	_, err = cache.IAM(ctx, "")
	require.NoError(t, err)
	_, err = cache.STS(ctx, "")
	require.NoError(t, err)
	_, err = cache.CloudFront(ctx, "")
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"site/eu-west-1": 1, "site/us-east-1": 1}, loader.calls, "one session per region")
}

func TestCache_Session(t *testing.T) {
	loader := &countingLoader{}
	cache := NewCache("site", "us-east-1", WithConfigLoader(loader.load))

	cfg, err := cache.Session(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, "us-east-1", cache.DefaultRegion())
}

func TestCache_LoaderError(t *testing.T) {
	loadErr := errors.New("failed to get shared config profile, missing")
	calls := 0
	cache := NewCache("missing", "us-east-1", WithConfigLoader(func(context.Context, string, string) (aws.Config, error) {
		calls++
		return aws.Config{}, loadErr
	}))

	client, err := cache.S3(context.Background(), "")
	assert.Nil(t, client)
	require.Error(t, err)
	assert.ErrorIs(t, err, loadErr)
	assert.True(t, apperrors.Is(err, apperrors.CodePlatformAuthError))

	_, err = cache.S3(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, 2, calls, "failed sessions are not cached")
}
