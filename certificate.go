package cdntheory

import (
	"sort"
	"sync"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscertificatemanager"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/cdntheory/pkg/observability"
	"github.com/theory-cloud/cdntheory/pkg/zone"
)

// CertificateRegion is the only region CloudFront accepts ACM certificates from.
const CertificateRegion = "us-east-1"

// CertificateRequest describes a DNS validated certificate.
type CertificateRequest struct {
	DomainName       string
	AlternativeNames []string
	Zone             zone.Zone
	Region           string
}

// CertificateProvider issues certificates for the distribution and the redirects.
type CertificateProvider interface {
	Certificate(scope constructs.Construct, id string, req CertificateRequest) awscertificatemanager.ICertificate
}

// DnsValidatedCertificates requests certificates through a custom resource that
// creates the certificate in req.Region and validates it in the hosted zone.
//
// It works from a stack in any region and needs no extra stacks.
type DnsValidatedCertificates struct{}

func (DnsValidatedCertificates) Certificate(scope constructs.Construct, id string, req CertificateRequest) awscertificatemanager.ICertificate {
	hz := awsroute53.HostedZone_FromHostedZoneAttributes(scope, jsii.String(id+"Zone"), &awsroute53.HostedZoneAttributes{
		HostedZoneId: req.Zone.ID,
		ZoneName:     req.Zone.Name,
	})
	return awscertificatemanager.NewDnsValidatedCertificate(scope, jsii.String(id), &awscertificatemanager.DnsValidatedCertificateProps{
		DomainName:              jsii.String(req.DomainName),
		SubjectAlternativeNames: stringSlice(req.AlternativeNames),
		HostedZone:              hz,
		Region:                  jsii.String(req.Region),
		CleanupRoute53Records:   jsii.Bool(true),
	})
}

// CrossRegionCertificates issues regular ACM certificates in a companion stack
// deployed to req.Region. The consuming stack must have a concrete account and
// region and enable CrossRegionReferences.
type CrossRegionCertificates struct {
	// Scope owns the companion stacks, normally the App.
	Scope constructs.Construct

	mu     sync.Mutex
	stacks map[string]awscdk.Stack
}

// NewCrossRegionCertificates returns a provider whose companion stacks are
// created under scope.
func NewCrossRegionCertificates(scope constructs.Construct) *CrossRegionCertificates {
	return &CrossRegionCertificates{Scope: scope, stacks: map[string]awscdk.Stack{}}
}

func (p *CrossRegionCertificates) Certificate(scope constructs.Construct, id string, req CertificateRequest) awscertificatemanager.ICertificate {
	certStack := p.stackFor(scope, req.Region)
	path := sanitizedPath(scope)

	hz := awsroute53.HostedZone_FromHostedZoneAttributes(certStack, jsii.String(path+id+"Zone"), &awsroute53.HostedZoneAttributes{
		HostedZoneId: req.Zone.ID,
		ZoneName:     req.Zone.Name,
	})
	return awscertificatemanager.NewCertificate(certStack, jsii.String(path+id), &awscertificatemanager.CertificateProps{
		DomainName:              jsii.String(req.DomainName),
		SubjectAlternativeNames: stringSlice(req.AlternativeNames),
		Validation:              awscertificatemanager.CertificateValidation_FromDns(hz),
	})
}

func (p *CrossRegionCertificates) stackFor(scope constructs.Construct, region string) awscdk.Stack {
	stack := awscdk.Stack_Of(scope)
	key := *stack.Node().Path() + "/" + region

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stacks == nil {
		p.stacks = map[string]awscdk.Stack{}
	}
	if s, ok := p.stacks[key]; ok {
		return s
	}

	s := awscdk.NewStack(p.Scope, jsii.String(*stack.Node().Id()+"-certificates-"+region), &awscdk.StackProps{
		Env: &awscdk.Environment{
			Account: stack.Account(),
			Region:  jsii.String(region),
		},
		CrossRegionReferences: jsii.Bool(true),
	})
	p.stacks[key] = s
	return s
}

// Stacks returns the companion stacks created so far, ordered by key.
func (p *CrossRegionCertificates) Stacks() []awscdk.Stack {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.stacks))
	for k := range p.stacks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]awscdk.Stack, 0, len(keys))
	for _, k := range keys {
		out = append(out, p.stacks[k])
	}
	return out
}

// sanitizedPath flattens a construct path into an id prefix unique per
// component. The hash suffix keeps "A/BC" and "AB/C" apart.
func sanitizedPath(scope constructs.Construct) string {
	return *awscdk.Names_UniqueId(scope)
}

func (c *Cdn) createCertificate(certs CertificateProvider, log observability.StructuredLogger) {
	if c.domain == nil || c.zone == nil {
		return
	}

	c.certificate = certs.Certificate(c.Construct, "Certificate", CertificateRequest{
		DomainName:       c.domain.DomainName,
		AlternativeNames: c.domain.Aliases,
		Zone:             *c.zone,
		Region:           CertificateRegion,
	})

	log.Info("cdn.certificate.requested", map[string]any{
		"domain":  c.domain.DomainName,
		"aliases": len(c.domain.Aliases),
		"region":  CertificateRegion,
	})
}

// stringSlice converts to jsii form; empty input stays nil so the property is omitted.
func stringSlice(values []string) *[]*string {
	if len(values) == 0 {
		return nil
	}
	return jsii.Strings(values...)
}
