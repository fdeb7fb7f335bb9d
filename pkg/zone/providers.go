package zone

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
)

// ContextProvider resolves zones through the CDK context lookup.
//
// The lookup runs during synthesis with the stack's account and region, and its
// result is cached in cdk.context.json. It matches the zone name exactly.
type ContextProvider struct {
	PrivateZone bool
}

func (p ContextProvider) LookupZone(scope constructs.Construct, id string, name string) (Zone, error) {
	hz := awsroute53.HostedZone_FromLookup(scope, jsii.String(id), &awsroute53.HostedZoneProviderProps{
		DomainName:  jsii.String(name),
		PrivateZone: jsii.Bool(p.PrivateZone),
	})
	return Zone{ID: hz.HostedZoneId(), Name: hz.ZoneName()}, nil
}

// Route53API is the subset of the Route53 client used for lookups.
type Route53API interface {
	ListHostedZonesByName(ctx context.Context, params *route53.ListHostedZonesByNameInput, optFns ...func(*route53.Options)) (*route53.ListHostedZonesByNameOutput, error)
}

// Route53Provider resolves zones against the Route53 API while synthesizing.
//
// Starting with the requested name it walks up parent domains until a public
// hosted zone matches, so "app.example.com" resolves to the "example.com" zone.
type Route53Provider struct {
	Client  Route53API
	Timeout time.Duration
}

// LoadRoute53Provider builds a Route53Provider from the default AWS config chain.
func LoadRoute53Provider(ctx context.Context, optFns ...func(*config.LoadOptions) error) (*Route53Provider, error) {
	cfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("zone: load aws config: %w", err)
	}
	return &Route53Provider{Client: route53.NewFromConfig(cfg), Timeout: 30 * time.Second}, nil
}

func (p *Route53Provider) LookupZone(_ constructs.Construct, _ string, name string) (Zone, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for _, candidate := range candidates(name) {
		out, err := p.Client.ListHostedZonesByName(ctx, &route53.ListHostedZonesByNameInput{
			DNSName:  aws.String(candidate),
			MaxItems: aws.Int32(10),
		})
		if err != nil {
			return Zone{}, fmt.Errorf("list hosted zones by name %q: %w", candidate, err)
		}
		for _, hz := range out.HostedZones {
			if strings.TrimSuffix(aws.ToString(hz.Name), ".") != candidate {
				continue
			}
			if hz.Config != nil && hz.Config.PrivateZone {
				continue
			}
			id := strings.TrimPrefix(aws.ToString(hz.Id), "/hostedzone/")
			return Zone{ID: jsii.String(id), Name: jsii.String(candidate)}, nil
		}
	}
	return Zone{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// StaticProvider resolves zones from a fixed name -> id table.
//
// Like Route53Provider it walks up parent domains. Every lookup is recorded.
type StaticProvider struct {
	Zones map[string]string

	mu      sync.Mutex
	lookups []string
}

// NewStaticProvider returns a provider over zones, keyed by lowercase zone name.
func NewStaticProvider(zones map[string]string) *StaticProvider {
	return &StaticProvider{Zones: zones}
}

func (p *StaticProvider) LookupZone(_ constructs.Construct, _ string, name string) (Zone, error) {
	p.mu.Lock()
	p.lookups = append(p.lookups, name)
	p.mu.Unlock()

	for _, candidate := range candidates(name) {
		if id, ok := p.Zones[candidate]; ok {
			return Zone{ID: jsii.String(id), Name: jsii.String(candidate)}, nil
		}
	}
	return Zone{}, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Lookups returns every name passed to LookupZone, in call order.
func (p *StaticProvider) Lookups() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.lookups...)
}
