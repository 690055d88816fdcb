package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/olusolaa/site-provisioner/internal/core/domain"
)

// Status looks up the site's buckets, certificate and distributions
// concurrently. It changes nothing.
func (p *Provisioner) Status(ctx context.Context) (domain.SiteStatus, error) {
	status := domain.SiteStatus{
		Domain:    p.site.Domain,
		WebBucket: p.site.WebBucket,
		LogBucket: p.site.LogBucket,
	}

	g, childCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		buckets, err := p.deps.Buckets.ListBuckets(childCtx)
		if err != nil {
			return err
		}
		status.Buckets = buckets
		return nil
	})

	g.Go(func() error {
		cert, err := p.deps.Certificates.FindCertificate(childCtx, p.site.CertificateRegion, p.site.Domain)
		if err != nil {
			return err
		}
		status.Certificate = cert
		return nil
	})

	g.Go(func() error {
		dists, err := p.deps.CDN.FindDistributionsByAlias(childCtx, p.site.Domain)
		if err != nil {
			return err
		}
		status.Distributions = dists
		return nil
	})

	if err := g.Wait(); err != nil {
		return domain.SiteStatus{}, err
	}
	return status, nil
}
