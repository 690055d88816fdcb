package domain

import (
	"slices"
	"time"
)

// Fixed CDN policy. These values hold for every distribution this tool creates.
const (
	OriginID               = "1"
	CookieForwardAll       = "all"
	ForwardQueryString     = false
	MinTTL                 = 1000
	ViewerProtocolPolicy   = "redirect-to-https"
	SSLSupportMethod       = "sni-only"
	MinimumProtocolVersion = "TLSv1.2_2018"
	PriceClass             = "PriceClass_100"
	LogPrefix              = "cdn"
	NotFoundErrorCode      = 404
	NotFoundResponseCode   = "404"
	NotFoundResponsePath   = "/" + ErrorDocument
	ErrorCachingMinTTL     = 300
)

type CustomErrorResponse struct {
	ErrorCode          int32
	ResponseCode       string
	ResponsePagePath   string
	ErrorCachingMinTTL int64
}

// DistributionSpec is everything needed to render a distribution config.
type DistributionSpec struct {
	Domain          string
	CallerReference string
	Comment         string
	Aliases         []string
	DefaultRoot     string

	OriginID     string
	OriginDomain string

	ViewerProtocolPolicy string
	ForwardCookies       string
	ForwardQueryString   bool
	MinTTL               int64

	LogBucketDomain string
	LogPrefix       string
	LogCookies      bool

	CertificateARN         string
	SSLSupportMethod       string
	MinimumProtocolVersion string
	PriceClass             string

	ErrorResponses []CustomErrorResponse
}

// NewDistributionSpec applies the fixed CDN policy to a site. Only the bucket
// names, domain and certificate vary between runs.
func NewDistributionSpec(domainName, webBucket, logBucket, certARN string) DistributionSpec {
	return DistributionSpec{
		Domain:          domainName,
		CallerReference: webBucket + ".sameone",
		Comment:         domainName + " cdn",
		Aliases:         []string{domainName},
		DefaultRoot:     IndexDocument,

		OriginID:     OriginID,
		OriginDomain: OriginDomain(webBucket),

		ViewerProtocolPolicy: ViewerProtocolPolicy,
		ForwardCookies:       CookieForwardAll,
		ForwardQueryString:   ForwardQueryString,
		MinTTL:               MinTTL,

		LogBucketDomain: OriginDomain(logBucket),
		LogPrefix:       LogPrefix,
		LogCookies:      false,

		CertificateARN:         certARN,
		SSLSupportMethod:       SSLSupportMethod,
		MinimumProtocolVersion: MinimumProtocolVersion,
		PriceClass:             PriceClass,

		ErrorResponses: []CustomErrorResponse{{
			ErrorCode:          NotFoundErrorCode,
			ResponseCode:       NotFoundResponseCode,
			ResponsePagePath:   NotFoundResponsePath,
			ErrorCachingMinTTL: ErrorCachingMinTTL,
		}},
	}
}

// Distribution is a report record for an existing CDN distribution.
type Distribution struct {
	ID                     string
	ARN                    string
	DomainName             string
	Comment                string
	Status                 string
	Enabled                bool
	Aliases                []string
	Origins                []string
	PriceClass             string
	HTTPVersion            string
	IPv6Enabled            bool
	WebACLID               string
	CertificateARN         string
	MinimumProtocolVersion string
	// LastModifiedTime is normalized with FormatTimestamp.
	LastModifiedTime string
	// Detail is the full record as the platform returned it. Raw reports
	// print it in place of the fields above.
	Detail any
}

func (d Distribution) HasAlias(alias string) bool {
	return slices.Contains(d.Aliases, alias)
}

// TimestampLayout is RFC 3339 at second precision in UTC, which parses and
// formats back to the identical string.
const TimestampLayout = "2006-01-02T15:04:05Z"

func FormatTimestamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}

func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(TimestampLayout, s)
}

// SiteStatus is a read-only snapshot of what already exists for a site.
type SiteStatus struct {
	Domain        string
	Buckets       []Bucket
	WebBucket     string
	LogBucket     string
	Certificate   *Certificate
	Distributions []Distribution
}

func (s SiteStatus) HasBucket(name string) bool {
	return slices.ContainsFunc(s.Buckets, func(b Bucket) bool { return b.Name == name })
}
