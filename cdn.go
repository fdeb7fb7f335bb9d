// Package cdntheory composes a CloudFront distribution with its custom domain:
// an ACM certificate, Route53 alias records and HTTPS redirects.
package cdntheory

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2/awscertificatemanager"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfront"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53patterns"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/cdntheory/pkg/domain"
	"github.com/theory-cloud/cdntheory/pkg/logger"
	"github.com/theory-cloud/cdntheory/pkg/observability"
	"github.com/theory-cloud/cdntheory/pkg/sanitization"
	"github.com/theory-cloud/cdntheory/pkg/zone"
)

// CdnProps configures a Cdn. The zero value serves a bare distribution on its
// cloudfront.net hostname.
type CdnProps struct {
	// Domain is either a domain.Name or a *domain.Config. Nil serves the
	// distribution on its cloudfront.net hostname only.
	Domain domain.Input
	// ZoneProvider looks up hosted zones by name.
	// Default: zone.ContextProvider{}
	ZoneProvider zone.Provider
	// Certificates issues the us-east-1 certificates.
	// Default: DnsValidatedCertificates{}
	Certificates CertificateProvider
	// Comment for the distribution. Default: the construct path.
	Comment *string
	// PriceClass, e.g. "PriceClass_100". Default: CloudFront's PriceClass_All.
	PriceClass *string
	// DisableOutputs skips the Url and DomainUrl stack outputs.
	DisableOutputs bool
	Transform      *CdnTransform
	Logger         observability.StructuredLogger
}

// CdnTransform holds hooks that rewrite generated resource arguments.
type CdnTransform struct {
	// Distribution runs on the fully built distribution config right before the
	// distribution is created, so its changes win over every default.
	Distribution DistributionTransform
}

// Cdn is a CloudFront distribution with an optional custom domain.
type Cdn struct {
	constructs.Construct

	domain       *domain.Config
	zone         *zone.Zone
	certificate  awscertificatemanager.ICertificate
	distribution awscloudfront.CfnDistribution
	records      []awsroute53.CfnRecordSet
	redirect     awsroute53patterns.HttpsRedirect

	url       *string
	domainURL *string
}

// NewCdn validates props and composes the distribution and its domain resources.
//
// Domain validation happens before anything is added to scope. A failed zone
// lookup removes the partially built component from the tree.
func NewCdn(scope constructs.Construct, id string, props *CdnProps) (*Cdn, error) {
	if props == nil {
		props = &CdnProps{}
	}

	cfg, err := domain.Normalize(props.Domain)
	if err != nil {
		return nil, fmt.Errorf("cdn %s: %w", id, err)
	}

	c := &Cdn{
		Construct: constructs.NewConstruct(scope, jsii.String(id)),
		domain:    cfg,
	}
	log := logger.For(props.Logger, *c.Node().Path())

	if cfg != nil {
		log.Debug("cdn.domain.normalized", map[string]any{
			"domain":    sanitization.SanitizeLogString(cfg.DomainName),
			"aliases":   cfg.Aliases,
			"redirects": cfg.Redirects,
		})
	}

	if err := c.resolveZone(props, log); err != nil {
		scope.Node().TryRemoveChild(jsii.String(id))
		return nil, fmt.Errorf("cdn %s: %w", id, err)
	}

	certs := props.Certificates
	if certs == nil {
		certs = DnsValidatedCertificates{}
	}

	c.createCertificate(certs, log)
	c.createDistribution(props, log)
	c.createRecords(log)
	c.createRedirect(certs, log)
	c.createOutputs(props)

	return c, nil
}

// MustNewCdn is NewCdn for app code that treats invalid configuration as fatal.
func MustNewCdn(scope constructs.Construct, id string, props *CdnProps) *Cdn {
	c, err := NewCdn(scope, id, props)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Cdn) resolveZone(props *CdnProps, log observability.StructuredLogger) error {
	req, ok := zone.Plan(c.domain)
	if !ok {
		return nil
	}

	provider := props.ZoneProvider
	if provider == nil {
		provider = zone.ContextProvider{}
	}

	z, err := zone.NewResolver(provider).Resolve(c.Construct, req)
	if err != nil {
		return err
	}
	c.zone = &z

	log.Info("cdn.zone.resolved", map[string]any{
		"pinned": req.ZoneID != "",
		"lookup": req.LookupName,
	})
	return nil
}

// hostedZone wraps the resolved zone for L2 constructs that need an IHostedZone.
func (c *Cdn) hostedZone(id string) awsroute53.IHostedZone {
	return awsroute53.HostedZone_FromHostedZoneAttributes(c.Construct, jsii.String(id), &awsroute53.HostedZoneAttributes{
		HostedZoneId: c.zone.ID,
		ZoneName:     c.zone.Name,
	})
}

// Domain returns the normalized domain configuration, or nil.
func (c *Cdn) Domain() *domain.Config {
	return c.domain
}

// Zone returns the resolved hosted zone, or nil without a domain.
func (c *Cdn) Zone() *zone.Zone {
	return c.zone
}

// Certificate returns the distribution's certificate, or nil when the default
// cloudfront.net certificate is used.
func (c *Cdn) Certificate() awscertificatemanager.ICertificate {
	return c.certificate
}

// Distribution returns the underlying distribution for further composition.
func (c *Cdn) Distribution() awscloudfront.CfnDistribution {
	return c.distribution
}

// Records returns the alias records in creation order.
func (c *Cdn) Records() []awsroute53.CfnRecordSet {
	return append([]awsroute53.CfnRecordSet(nil), c.records...)
}

// Redirect returns the redirect construct, or nil without redirect domains.
func (c *Cdn) Redirect() awsroute53patterns.HttpsRedirect {
	return c.redirect
}
