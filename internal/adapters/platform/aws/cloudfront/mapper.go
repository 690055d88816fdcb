package cloudfront

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront/types"

	"github.com/olusolaa/site-provisioner/internal/core/domain"
)

// distributionConfig renders a DistributionSpec into the CloudFront API shape. Every list
// carries an explicit Quantity, which the API requires even when zero.
func distributionConfig(spec domain.DistributionSpec) *types.DistributionConfig {
	cfg := &types.DistributionConfig{
		CallerReference:   aws.String(spec.CallerReference),
		Comment:           aws.String(spec.Comment),
		Enabled:           aws.Bool(true),
		DefaultRootObject: aws.String(spec.DefaultRoot),
		Aliases: &types.Aliases{
			Quantity: aws.Int32(int32(len(spec.Aliases))),
			Items:    spec.Aliases,
		},
		Origins: &types.Origins{
			Quantity: aws.Int32(1),
			Items: []types.Origin{{
				Id:             aws.String(spec.OriginID),
				DomainName:     aws.String(spec.OriginDomain),
				S3OriginConfig: &types.S3OriginConfig{OriginAccessIdentity: aws.String("")},
			}},
		},
		DefaultCacheBehavior: &types.DefaultCacheBehavior{
			TargetOriginId:       aws.String(spec.OriginID),
			ViewerProtocolPolicy: types.ViewerProtocolPolicy(spec.ViewerProtocolPolicy),
			TrustedSigners: &types.TrustedSigners{
				Enabled:  aws.Bool(false),
				Quantity: aws.Int32(0),
			},
			ForwardedValues: &types.ForwardedValues{
				Cookies:              &types.CookiePreference{Forward: types.ItemSelection(spec.ForwardCookies)},
				QueryString:          aws.Bool(spec.ForwardQueryString),
				Headers:              &types.Headers{Quantity: aws.Int32(0)},
				QueryStringCacheKeys: &types.QueryStringCacheKeys{Quantity: aws.Int32(0)},
			},
			MinTTL: aws.Int64(spec.MinTTL),
		},
		Logging: &types.LoggingConfig{
			Enabled:        aws.Bool(true),
			Bucket:         aws.String(spec.LogBucketDomain),
			IncludeCookies: aws.Bool(spec.LogCookies),
			Prefix:         aws.String(spec.LogPrefix),
		},
		ViewerCertificate: &types.ViewerCertificate{
			CloudFrontDefaultCertificate: aws.Bool(false),
			ACMCertificateArn:            aws.String(spec.CertificateARN),
			CertificateSource:            types.CertificateSourceAcm,
			SSLSupportMethod:             types.SSLSupportMethod(spec.SSLSupportMethod),
			MinimumProtocolVersion:       types.MinimumProtocolVersion(spec.MinimumProtocolVersion),
		},
		PriceClass: types.PriceClass(spec.PriceClass),
	}

	errorResponses := make([]types.CustomErrorResponse, 0, len(spec.ErrorResponses))
	for _, r := range spec.ErrorResponses {
		errorResponses = append(errorResponses, types.CustomErrorResponse{
			ErrorCode:          aws.Int32(r.ErrorCode),
			ResponseCode:       aws.String(r.ResponseCode),
			ResponsePagePath:   aws.String(r.ResponsePagePath),
			ErrorCachingMinTTL: aws.Int64(r.ErrorCachingMinTTL),
		})
	}
	cfg.CustomErrorResponses = &types.CustomErrorResponses{
		Quantity: aws.Int32(int32(len(errorResponses))),
		Items:    errorResponses,
	}

	return cfg
}

func fromSummary(s types.DistributionSummary) domain.Distribution {
	d := domain.Distribution{
		ID:               aws.ToString(s.Id),
		ARN:              aws.ToString(s.ARN),
		DomainName:       aws.ToString(s.DomainName),
		Comment:          aws.ToString(s.Comment),
		Status:           aws.ToString(s.Status),
		Enabled:          aws.ToBool(s.Enabled),
		PriceClass:       string(s.PriceClass),
		HTTPVersion:      string(s.HttpVersion),
		IPv6Enabled:      aws.ToBool(s.IsIPV6Enabled),
		WebACLID:         aws.ToString(s.WebACLId),
		LastModifiedTime: domain.FormatTimestamp(s.LastModifiedTime),
		Aliases:          aliasItems(s.Aliases),
		Origins:          originDomains(s.Origins),
		Detail:           s,
	}
	applyViewerCertificate(&d, s.ViewerCertificate)
	return d
}

func fromDistribution(dist *types.Distribution) domain.Distribution {
	if dist == nil {
		return domain.Distribution{}
	}
	d := domain.Distribution{
		ID:               aws.ToString(dist.Id),
		ARN:              aws.ToString(dist.ARN),
		DomainName:       aws.ToString(dist.DomainName),
		Status:           aws.ToString(dist.Status),
		LastModifiedTime: domain.FormatTimestamp(dist.LastModifiedTime),
		Detail:           dist,
	}
	if cfg := dist.DistributionConfig; cfg != nil {
		d.Comment = aws.ToString(cfg.Comment)
		d.Enabled = aws.ToBool(cfg.Enabled)
		d.PriceClass = string(cfg.PriceClass)
		d.HTTPVersion = string(cfg.HttpVersion)
		d.IPv6Enabled = aws.ToBool(cfg.IsIPV6Enabled)
		d.WebACLID = aws.ToString(cfg.WebACLId)
		d.Aliases = aliasItems(cfg.Aliases)
		d.Origins = originDomains(cfg.Origins)
		applyViewerCertificate(&d, cfg.ViewerCertificate)
	}
	return d
}

func aliasItems(a *types.Aliases) []string {
	if a == nil || len(a.Items) == 0 {
		return nil
	}
	return append([]string(nil), a.Items...)
}

func originDomains(o *types.Origins) []string {
	if o == nil || len(o.Items) == 0 {
		return nil
	}
	domains := make([]string, 0, len(o.Items))
	for _, origin := range o.Items {
		domains = append(domains, aws.ToString(origin.DomainName))
	}
	return domains
}

func applyViewerCertificate(d *domain.Distribution, vc *types.ViewerCertificate) {
	if vc == nil {
		return
	}
	d.CertificateARN = aws.ToString(vc.ACMCertificateArn)
	d.MinimumProtocolVersion = string(vc.MinimumProtocolVersion)
}
