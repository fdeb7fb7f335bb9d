package cdntheory

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53patterns"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/cdntheory/pkg/observability"
)

// createRedirect serves every redirect domain from a bucket-backed distribution
// that answers with a permanent redirect to the primary domain.
func (c *Cdn) createRedirect(certs CertificateProvider, log observability.StructuredLogger) {
	if c.domain == nil || c.zone == nil || len(c.domain.Redirects) == 0 {
		return
	}

	redirects := c.domain.Redirects
	cert := certs.Certificate(c.Construct, "RedirectCertificate", CertificateRequest{
		DomainName:       redirects[0],
		AlternativeNames: redirects[1:],
		Zone:             *c.zone,
		Region:           CertificateRegion,
	})

	c.redirect = awsroute53patterns.NewHttpsRedirect(c.Construct, jsii.String("Redirect"), &awsroute53patterns.HttpsRedirectProps{
		Zone:         c.hostedZone("RedirectZone"),
		TargetDomain: jsii.String(c.domain.DomainName),
		RecordNames:  jsii.Strings(redirects...),
		Certificate:  cert,
	})

	log.Info("cdn.redirect.created", map[string]any{
		"from": redirects,
		"to":   c.domain.DomainName,
	})
}
