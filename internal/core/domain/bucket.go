package domain

import "fmt"

const (
	ACLPublicRead       = "public-read"
	ACLPrivate          = "private"
	ACLLogDeliveryWrite = "log-delivery-write"

	OwnershipObjectWriter         = "ObjectWriter"
	OwnershipBucketOwnerPreferred = "BucketOwnerPreferred"

	// DefaultRegion is the one region where S3 rejects an explicit location constraint.
	DefaultRegion = "us-east-1"

	IndexDocument = "index.html"
	ErrorDocument = "error.html"
)

type Bucket struct {
	Name   string
	Region string
}

// BucketOptions is the layered create configuration for a bucket. Empty
// fields mean "not set" so that Merge can tell defaults from overrides.
type BucketOptions struct {
	ACL                string
	LocationConstraint string
	ObjectOwnership    string
	ObjectLockEnabled  *bool
}

// DefaultBucketOptions returns a publicly readable, region-constrained bucket
// whose ownership setting still accepts ACLs.
func DefaultBucketOptions(region string) BucketOptions {
	opts := BucketOptions{
		ACL:             ACLPublicRead,
		ObjectOwnership: OwnershipObjectWriter,
	}
	if region != DefaultRegion {
		opts.LocationConstraint = region
	}
	return opts
}

// Merge overlays overrides on o. Every field set in overrides wins.
func (o BucketOptions) Merge(overrides BucketOptions) BucketOptions {
	merged := o
	if overrides.ACL != "" {
		merged.ACL = overrides.ACL
	}
	if overrides.LocationConstraint != "" {
		merged.LocationConstraint = overrides.LocationConstraint
	}
	if overrides.ObjectOwnership != "" {
		merged.ObjectOwnership = overrides.ObjectOwnership
	}
	if overrides.ObjectLockEnabled != nil {
		v := *overrides.ObjectLockEnabled
		merged.ObjectLockEnabled = &v
	}
	return merged
}

// LogBucketOptions are the overrides for the CDN access log sink.
func LogBucketOptions() BucketOptions {
	return BucketOptions{
		ACL:             ACLLogDeliveryWrite,
		ObjectOwnership: OwnershipBucketOwnerPreferred,
	}
}

type WebsiteConfig struct {
	IndexDocument string
	ErrorDocument string
}

func DefaultWebsiteConfig() WebsiteConfig {
	return WebsiteConfig{IndexDocument: IndexDocument, ErrorDocument: ErrorDocument}
}

func WebsiteEndpoint(bucket, region string) string {
	return fmt.Sprintf("http://%s.s3-website-%s.amazonaws.com/", bucket, region)
}

// OriginDomain is the REST endpoint CloudFront uses for S3 origins and log targets.
func OriginDomain(bucket string) string {
	return bucket + ".s3.amazonaws.com"
}
