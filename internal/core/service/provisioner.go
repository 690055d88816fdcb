package service

import (
	"context"
	"fmt"
	"time"

	"github.com/olusolaa/site-provisioner/internal/core/domain"
	"github.com/olusolaa/site-provisioner/internal/core/ports"
	"github.com/olusolaa/site-provisioner/internal/errors"
)

const (
	DefaultPollInterval = 30 * time.Second
	DefaultMaxAttempts  = 120
)

// Site names the resources one provisioning run manages.
type Site struct {
	Domain            string
	Region            string
	CertificateRegion string
	WebBucket         string
	LogBucket         string
	PolicyName        string
}

type Dependencies struct {
	Buckets      ports.BucketStore
	Policies     ports.PolicyStore
	Identity     ports.Identity
	Certificates ports.CertificateAuthority
	CDN          ports.ContentDelivery
	Logger       ports.Logger
}

// Sleeper blocks for d or until ctx ends.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type Provisioner struct {
	site          Site
	deps          Dependencies
	logger        ports.Logger
	pollInterval  time.Duration
	maxAttempts   int
	sleep         Sleeper
	reuseExisting bool
}

type Option func(*Provisioner)

func WithPollInterval(d time.Duration) Option {
	return func(p *Provisioner) {
		if d > 0 {
			p.pollInterval = d
		}
	}
}

func WithMaxAttempts(n int) Option {
	return func(p *Provisioner) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

func WithSleeper(s Sleeper) Option {
	return func(p *Provisioner) {
		if s != nil {
			p.sleep = s
		}
	}
}

// WithReuseDistribution makes CreateCDN return a distribution already aliased
// to the domain instead of creating another one.
func WithReuseDistribution(reuse bool) Option {
	return func(p *Provisioner) {
		p.reuseExisting = reuse
	}
}

func NewProvisioner(site Site, deps Dependencies, opts ...Option) (*Provisioner, error) {
	if deps.Logger == nil {
		return nil, errors.New(errors.CodeConfigValidation, "logger cannot be nil")
	}
	if deps.Buckets == nil || deps.Policies == nil || deps.Identity == nil ||
		deps.Certificates == nil || deps.CDN == nil {
		return nil, errors.New(errors.CodeConfigValidation, "provisioner dependencies are incomplete")
	}
	if site.Domain == "" || site.Region == "" {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation, "site domain and region are required",
			"Set site.domain and aws.region in the config file or pass --domain and --region.")
	}
	if site.CertificateRegion == "" {
		site.CertificateRegion = domain.DefaultRegion
	}
	if site.WebBucket == "" {
		site.WebBucket = site.Domain
	}
	if site.LogBucket == "" {
		site.LogBucket = "logs." + site.Domain
	}
	if site.PolicyName == "" {
		site.PolicyName = domain.PolicyName(site.Domain)
	}

	p := &Provisioner{
		site:         site,
		deps:         deps,
		logger:       deps.Logger.WithFields(map[string]any{"component": "provisioner", "domain": site.Domain}),
		pollInterval: DefaultPollInterval,
		maxAttempts:  DefaultMaxAttempts,
		sleep:        sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Provisioner) Site() Site { return p.site }

// CreateBucket creates name unless a bucket by that name already exists. The
// site defaults are overlaid by overrides.
func (p *Provisioner) CreateBucket(ctx context.Context, name string, overrides domain.BucketOptions) (string, error) {
	buckets, err := p.deps.Buckets.ListBuckets(ctx)
	if err != nil {
		return "", err
	}
	for _, b := range buckets {
		if b.Name == name {
			p.logger.Debugf(ctx, "<skip> bucket %s already exists", name)
			return name, nil
		}
	}

	p.logger.Infof(ctx, "bucket %s", name)
	opts := domain.DefaultBucketOptions(p.site.Region).Merge(overrides)
	return p.deps.Buckets.CreateBucket(ctx, name, opts)
}

func (p *Provisioner) OpenBucketPublicAccess(ctx context.Context, name string) error {
	p.logger.Infof(ctx, "public access for %s", name)
	return p.deps.Buckets.OpenPublicAccess(ctx, name)
}

// CreateIAMPolicy creates the policy; a policy that already exists is left as is.
func (p *Provisioner) CreateIAMPolicy(ctx context.Context, name string, doc domain.PolicyDocument) error {
	arn, err := p.deps.Policies.CreatePolicy(ctx, name, doc)
	if err != nil {
		if errors.Is(err, errors.CodeAlreadyExists) {
			p.logger.Infof(ctx, "<skip> iam admin policy already exists")
			return nil
		}
		return err
	}
	p.logger.Infof(ctx, "iam admin policy %s", arn)
	return nil
}

func (p *Provisioner) CreateS3Policy(ctx context.Context, bucket string, doc domain.PolicyDocument) error {
	p.logger.Infof(ctx, "s3 bucket policy")
	return p.deps.Buckets.PutBucketPolicy(ctx, bucket, doc)
}

// ACMSSLCert returns the ARN of an issued certificate for domainName in
// region, reusing a pending or issued one when present.
func (p *Provisioner) ACMSSLCert(ctx context.Context, domainName, region string) (string, error) {
	existing, err := p.deps.Certificates.FindCertificate(ctx, region, domainName)
	if err != nil {
		return "", err
	}
	if existing != nil {
		p.logger.Debugf(ctx, "Reusing certificate %s (%s) for %s", existing.ARN, existing.Status, domainName)
		return p.waitForCertificate(ctx, existing.ARN, region)
	}

	p.logger.Infof(ctx, "%s requesting certificate...", domainName)
	arn, err := p.deps.Certificates.RequestCertificate(ctx, region, domainName)
	if err != nil {
		return "", err
	}
	return p.waitForCertificate(ctx, arn, region)
}

// waitForCertificate describes arn once per poll interval until it is issued,
// fails terminally, or the attempt budget runs out.
func (p *Provisioner) waitForCertificate(ctx context.Context, arn, region string) (string, error) {
	recordsLogged := false
	var last domain.CertificateStatus
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		cert, err := p.deps.Certificates.DescribeCertificate(ctx, region, arn)
		if err != nil {
			return "", err
		}
		last = cert.Status

		if cert.Status == domain.CertStatusIssued {
			return arn, nil
		}
		if cert.Status.IsTerminalFailure() {
			msg := fmt.Sprintf("certificate %s is %s", arn, cert.Status)
			if cert.FailureReason != "" {
				msg += ": " + cert.FailureReason
			}
			return "", errors.NewUserFacing(errors.CodeCertificateFailed, msg,
				"Request a new certificate after fixing the validation problem reported by ACM.")
		}

		p.logger.Infof(ctx, "certificate status=%s...", cert.Status)
		if !recordsLogged && len(cert.ValidationRecords) > 0 {
			for _, r := range cert.ValidationRecords {
				p.logger.Infof(ctx, "validate %s with %s %s %s", r.DomainName, r.Type, r.Name, r.Value)
			}
			recordsLogged = true
		}

		if attempt == p.maxAttempts {
			break
		}
		if err := p.sleep(ctx, p.pollInterval); err != nil {
			return "", errors.Wrap(err, errors.CodeTimeout, "certificate wait interrupted")
		}
	}

	return "", errors.NewUserFacing(errors.CodeTimeout,
		fmt.Sprintf("certificate %s still %s after %d checks", arn, last, p.maxAttempts),
		"Publish the DNS validation records and run provision again.")
}

func (p *Provisioner) S3BucketWebsite(ctx context.Context, name string) error {
	p.logger.Infof(ctx, "configuring %s as website", name)
	if err := p.deps.Buckets.PutWebsite(ctx, name, domain.DefaultWebsiteConfig()); err != nil {
		return err
	}
	p.logger.Infof(ctx, "%s", domain.WebsiteEndpoint(name, p.site.Region))
	return nil
}

// CreateCDN creates the site distribution with the fixed policy. Existing
// distributions serving the domain are reused only when configured to.
func (p *Provisioner) CreateCDN(ctx context.Context, webBucket, logBucket, certARN string) (domain.Distribution, error) {
	existing, err := p.deps.CDN.FindDistributionsByAlias(ctx, p.site.Domain)
	switch {
	case err != nil && p.reuseExisting:
		return domain.Distribution{}, err
	case err != nil:
		p.logger.Warnf(ctx, "Could not check for existing distributions for %s: %v", p.site.Domain, err)
	case len(existing) > 0 && p.reuseExisting:
		p.logger.Infof(ctx, "<skip> distribution %s already serves %s", existing[0].ID, p.site.Domain)
		return existing[0], nil
	case len(existing) > 0:
		p.logger.Warnf(ctx, "%d distribution(s) already serve %s (first: %s); creating another", len(existing), p.site.Domain, existing[0].ID)
	}

	spec := domain.NewDistributionSpec(p.site.Domain, webBucket, logBucket, certARN)
	p.logger.Infof(ctx, "using origin = %s", spec.OriginDomain)
	return p.deps.CDN.CreateDistribution(ctx, spec)
}

// ProvisionResult lists what a Provision run created or found.
type ProvisionResult struct {
	WebBucket      string
	LogBucket      string
	CertificateARN string
	Distribution   domain.Distribution
}

// Provision runs the full sequence for the configured site and stops at the
// first error. Nothing is rolled back.
func (p *Provisioner) Provision(ctx context.Context) (ProvisionResult, error) {
	var res ProvisionResult
	site := p.site

	web, err := p.CreateBucket(ctx, site.WebBucket, domain.BucketOptions{})
	if err != nil {
		return res, err
	}
	res.WebBucket = web

	logs, err := p.CreateBucket(ctx, site.LogBucket, domain.LogBucketOptions())
	if err != nil {
		return res, err
	}
	res.LogBucket = logs

	if err := p.OpenBucketPublicAccess(ctx, web); err != nil {
		return res, err
	}

	account, err := p.deps.Identity.AccountID(ctx)
	if err != nil {
		return res, err
	}
	if err := p.CreateIAMPolicy(ctx, site.PolicyName, domain.DefaultSiteAdminPolicy(account, web, logs)); err != nil {
		return res, err
	}
	if err := p.CreateS3Policy(ctx, web, domain.DefaultBucketReadPolicy(web)); err != nil {
		return res, err
	}

	certARN, err := p.ACMSSLCert(ctx, site.Domain, site.CertificateRegion)
	if err != nil {
		return res, err
	}
	res.CertificateARN = certARN

	if err := p.S3BucketWebsite(ctx, web); err != nil {
		return res, err
	}

	dist, err := p.CreateCDN(ctx, web, logs, certARN)
	if err != nil {
		return res, err
	}
	res.Distribution = dist
	p.logger.Infof(ctx, "distribution %s at %s", dist.ID, dist.DomainName)
	return res, nil
}
