package cdntheory

import (
	"fmt"
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/assertions"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfront"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/stretchr/testify/require"

	"github.com/theory-cloud/cdntheory/pkg/domain"
	"github.com/theory-cloud/cdntheory/pkg/observability"
	"github.com/theory-cloud/cdntheory/pkg/zone"
)

const (
	typeDistribution   = "AWS::CloudFront::Distribution"
	typeRecordSet      = "AWS::Route53::RecordSet"
	typeCertRequest    = "AWS::CloudFormation::CustomResource"
	typeAcmCertificate = "AWS::CertificateManager::Certificate"
	typeBucket         = "AWS::S3::Bucket"
)

func newTestStack(t *testing.T) (awscdk.App, awscdk.Stack) {
	t.Helper()
	app := awscdk.NewApp(nil)
	stack := awscdk.NewStack(app, jsii.String("TestStack"), &awscdk.StackProps{
		Env: &awscdk.Environment{
			Account: jsii.String("123456789012"),
			Region:  jsii.String("us-west-2"),
		},
	})
	return app, stack
}

func testZones() *zone.StaticProvider {
	return zone.NewStaticProvider(map[string]string{"example.com": "Z123"})
}

func countResources(template assertions.Template, typ string) int {
	found := template.FindResources(jsii.String(typ), nil)
	if found == nil {
		return 0
	}
	return len(*found)
}

// Scenario A: a bare domain.
func TestNewCdn_BareDomain(t *testing.T) {
	_, stack := newTestStack(t)
	zones := testZones()

	c, err := NewCdn(stack, "Site", &CdnProps{Domain: domain.Name("example.com"), ZoneProvider: zones})
	require.NoError(t, err)

	template := assertions.Template_FromStack(stack, nil)
	template.ResourceCountIs(jsii.String(typeDistribution), jsii.Number(1))
	template.ResourceCountIs(jsii.String(typeRecordSet), jsii.Number(2))
	template.ResourceCountIs(jsii.String(typeCertRequest), jsii.Number(1))

	template.HasResourceProperties(jsii.String(typeDistribution), map[string]any{
		"DistributionConfig": map[string]any{
			"Aliases": []any{"example.com"},
			"Enabled": true,
			"DefaultCacheBehavior": map[string]any{
				"TargetOriginId":       PlaceholderOriginID,
				"ViewerProtocolPolicy": "redirect-to-https",
			},
			"Restrictions": map[string]any{
				"GeoRestriction": map[string]any{"RestrictionType": "none"},
			},
			"ViewerCertificate": map[string]any{
				"SslSupportMethod":       "sni-only",
				"MinimumProtocolVersion": "TLSv1.2_2021",
			},
		},
	})

	template.HasResourceProperties(jsii.String(typeCertRequest), map[string]any{
		"DomainName":   "example.com",
		"Region":       CertificateRegion,
		"HostedZoneId": "Z123",
	})
	certs := template.FindResources(jsii.String(typeCertRequest), map[string]any{
		"Properties": map[string]any{
			"SubjectAlternativeNames": assertions.Match_AnyValue(),
		},
	})
	require.Empty(t, *certs)

	for _, kind := range RecordKinds {
		template.HasResourceProperties(jsii.String(typeRecordSet), map[string]any{
			"Name":         "example.com",
			"Type":         kind,
			"HostedZoneId": "Z123",
			"AliasTarget": map[string]any{
				"HostedZoneId":         "Z2FDTNDATAQYW2",
				"EvaluateTargetHealth": true,
			},
		})
	}

	require.Equal(t, []string{"example.com"}, zones.Lookups())
	require.NotNil(t, c.Certificate())
	require.NotNil(t, c.Distribution())
	require.Nil(t, c.Redirect())
	require.NotNil(t, c.URL())
	require.Equal(t, "https://example.com", *c.DomainURL())
	require.Equal(t, "Z123", *c.Zone().ID)
}

// Scenario B: zone override plus a redirect domain.
func TestNewCdn_HostedZoneOverrideWithRedirect(t *testing.T) {
	_, stack := newTestStack(t)
	zones := testZones()

	c, err := NewCdn(stack, "Site", &CdnProps{
		Domain: &domain.Config{
			DomainName: "app.example.com",
			HostedZone: "example.com",
			Redirects:  []string{"www.example.com"},
		},
		ZoneProvider: zones,
	})
	require.NoError(t, err)
	require.NotNil(t, c.Redirect())
	require.Len(t, c.Records(), 2)
	require.Equal(t, []string{"example.com"}, zones.Lookups())

	template := assertions.Template_FromStack(stack, nil)
	template.HasResourceProperties(jsii.String(typeBucket), map[string]any{
		"WebsiteConfiguration": map[string]any{
			"RedirectAllRequestsTo": map[string]any{
				"HostName": "app.example.com",
				"Protocol": "https",
			},
		},
	})
	template.HasResourceProperties(jsii.String(typeCertRequest), map[string]any{
		"DomainName": "www.example.com",
		"Region":     CertificateRegion,
	})
	template.HasResourceProperties(jsii.String(typeCertRequest), map[string]any{
		"DomainName": "app.example.com",
	})
	template.ResourceCountIs(jsii.String(typeCertRequest), jsii.Number(2))
}

// Scenario C: no domain at all.
func TestNewCdn_NoDomain(t *testing.T) {
	_, stack := newTestStack(t)
	zones := testZones()
	log := observability.NewTestLogger()

	c, err := NewCdn(stack, "Site", &CdnProps{ZoneProvider: zones, Logger: log})
	require.NoError(t, err)

	template := assertions.Template_FromStack(stack, nil)
	template.ResourceCountIs(jsii.String(typeDistribution), jsii.Number(1))
	template.ResourceCountIs(jsii.String(typeRecordSet), jsii.Number(0))
	template.ResourceCountIs(jsii.String(typeCertRequest), jsii.Number(0))
	template.ResourceCountIs(jsii.String(typeAcmCertificate), jsii.Number(0))
	template.HasResourceProperties(jsii.String(typeDistribution), map[string]any{
		"DistributionConfig": map[string]any{
			"Aliases": assertions.Match_Absent(),
			"ViewerCertificate": map[string]any{
				"CloudFrontDefaultCertificate": true,
			},
		},
	})

	outputs := template.FindOutputs(jsii.String("*"), nil)
	require.Len(t, *outputs, 1)

	require.NotNil(t, c.URL())
	require.Nil(t, c.DomainURL())
	require.Nil(t, c.Domain())
	require.Nil(t, c.Zone())
	require.Nil(t, c.Certificate())
	require.Empty(t, c.Records())
	require.Empty(t, zones.Lookups())
	require.Equal(t, []string{"cdn.distribution.created"}, log.Messages())
}

func TestNewCdn_RecordsPerName(t *testing.T) {
	for aliases := 0; aliases <= 3; aliases++ {
		t.Run(fmt.Sprintf("%d aliases", aliases), func(t *testing.T) {
			_, stack := newTestStack(t)

			cfg := &domain.Config{DomainName: "example.com"}
			for i := 0; i < aliases; i++ {
				cfg.Aliases = append(cfg.Aliases, fmt.Sprintf("a%d.example.com", i))
			}

			c, err := NewCdn(stack, "Site", &CdnProps{Domain: cfg, ZoneProvider: testZones()})
			require.NoError(t, err)

			want := 2 * (aliases + 1)
			require.Len(t, c.Records(), want)

			template := assertions.Template_FromStack(stack, nil)
			require.Equal(t, want, countResources(template, typeRecordSet))
			if aliases > 0 {
				template.HasResourceProperties(jsii.String(typeCertRequest), map[string]any{
					"DomainName":              "example.com",
					"SubjectAlternativeNames": jsii.Strings(cfg.Aliases...),
				})
			}
		})
	}
}

func TestNewCdn_PinnedZoneSkipsLookup(t *testing.T) {
	_, stack := newTestStack(t)
	zones := testZones()

	c, err := NewCdn(stack, "Site", &CdnProps{
		Domain:       &domain.Config{DomainName: "app.example.com", HostedZoneID: "ZPINNED"},
		ZoneProvider: zones,
	})
	require.NoError(t, err)
	require.Empty(t, zones.Lookups())
	require.Equal(t, "ZPINNED", *c.Zone().ID)

	template := assertions.Template_FromStack(stack, nil)
	template.HasResourceProperties(jsii.String(typeRecordSet), map[string]any{
		"Name":         "app.example.com",
		"HostedZoneId": "ZPINNED",
	})
}

func TestNewCdn_PinnedZoneWithName(t *testing.T) {
	_, stack := newTestStack(t)
	zones := testZones()

	c, err := NewCdn(stack, "Site", &CdnProps{
		Domain: &domain.Config{
			DomainName:     "app.example.co.uk",
			Redirects:      []string{"www.example.co.uk"},
			HostedZoneID:   "ZUK",
			HostedZoneName: "example.co.uk",
		},
		ZoneProvider: zones,
	})
	require.NoError(t, err)
	require.Empty(t, zones.Lookups())
	require.Equal(t, "example.co.uk", *c.Zone().Name)

	template := assertions.Template_FromStack(stack, nil)
	template.HasResourceProperties(jsii.String(typeCertRequest), map[string]any{
		"DomainName":   "www.example.co.uk",
		"HostedZoneId": "ZUK",
	})
}

func TestNewCdn_ValidationFailsBeforeAnyResource(t *testing.T) {
	tests := []struct {
		name     string
		input    domain.Input
		sentinel error
	}{
		{"missing domain name", &domain.Config{Aliases: []string{"www.example.com"}}, domain.ErrNameRequired},
		{"conflicting zone fields", &domain.Config{DomainName: "example.com", HostedZone: "example.com", HostedZoneID: "Z123"}, domain.ErrZoneConflict},
		{"alias repeats the domain", &domain.Config{DomainName: "example.com", Aliases: []string{"Example.com"}}, domain.ErrDuplicateName},
		{"alias listed twice", &domain.Config{DomainName: "example.com", Aliases: []string{"www.example.com", "www.example.com"}}, domain.ErrDuplicateName},
		{"redirect also served", &domain.Config{DomainName: "example.com", Redirects: []string{"example.com."}}, domain.ErrRedirectServed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stack := newTestStack(t)
			zones := testZones()

			c, err := NewCdn(stack, "Site", &CdnProps{Domain: tt.input, ZoneProvider: zones})
			require.Nil(t, c)
			require.ErrorIs(t, err, tt.sentinel)
			require.Nil(t, stack.Node().TryFindChild(jsii.String("Site")))
			require.Empty(t, zones.Lookups())

			require.Panics(t, func() {
				MustNewCdn(stack, "Site", &CdnProps{Domain: tt.input, ZoneProvider: zones})
			})
		})
	}
}

func TestNewCdn_ZoneLookupFailureRemovesComponent(t *testing.T) {
	_, stack := newTestStack(t)

	c, err := NewCdn(stack, "Site", &CdnProps{
		Domain:       domain.Name("example.org"),
		ZoneProvider: testZones(),
	})
	require.Nil(t, c)
	require.ErrorIs(t, err, zone.ErrNotFound)
	require.Nil(t, stack.Node().TryFindChild(jsii.String("Site")))
}

func TestNewCdn_TransformRunsLast(t *testing.T) {
	_, stack := newTestStack(t)

	var seen *awscloudfront.CfnDistribution_DistributionConfigProperty
	_, err := NewCdn(stack, "Site", &CdnProps{
		Domain:       domain.Name("example.com"),
		ZoneProvider: testZones(),
		Transform: &CdnTransform{
			Distribution: ChainTransforms(
				func(config *awscloudfront.CfnDistribution_DistributionConfigProperty) {
					seen = config
					config.Comment = jsii.String("overridden")
					ViewerCertificate(config).MinimumProtocolVersion = jsii.String("TLSv1.2_2019")
				},
				nil,
				HTTPOrigin("app", "app.internal.example.net"),
			),
		},
	})
	require.NoError(t, err)

	require.NotNil(t, seen)
	require.Equal(t, []*string{jsii.String("example.com")}, *seen.Aliases)
	require.NotNil(t, ViewerCertificate(seen).AcmCertificateArn)

	template := assertions.Template_FromStack(stack, nil)
	template.HasResourceProperties(jsii.String(typeDistribution), map[string]any{
		"DistributionConfig": map[string]any{
			"Comment": "overridden",
			"Origins": []any{
				map[string]any{
					"Id":         "app",
					"DomainName": "app.internal.example.net",
				},
			},
			"DefaultCacheBehavior": map[string]any{"TargetOriginId": "app"},
			"ViewerCertificate":    map[string]any{"MinimumProtocolVersion": "TLSv1.2_2019"},
		},
	})
}

func TestNewCdn_LogsEachStep(t *testing.T) {
	_, stack := newTestStack(t)
	log := observability.NewTestLogger()

	_, err := NewCdn(stack, "Site", &CdnProps{
		Domain:       &domain.Config{DomainName: "example.com", Redirects: []string{"www.example.com"}},
		ZoneProvider: testZones(),
		Logger:       log,
	})
	require.NoError(t, err)

	require.Equal(t, []string{
		"cdn.domain.normalized",
		"cdn.zone.resolved",
		"cdn.certificate.requested",
		"cdn.distribution.created",
		"cdn.records.created",
		"cdn.redirect.created",
	}, log.Messages())

	entry, ok := log.Find("cdn.records.created")
	require.True(t, ok)
	require.Equal(t, "TestStack/Site", entry.Component)
	require.Equal(t, 2, entry.Fields["records"])
}

func TestCdn_Link(t *testing.T) {
	_, stack := newTestStack(t)

	c, err := NewCdn(stack, "Site", &CdnProps{Domain: domain.Name("example.com"), ZoneProvider: testZones(), DisableOutputs: true})
	require.NoError(t, err)

	key, value := c.Link("Site")
	require.Equal(t, "CDNTHEORY_RESOURCE_Site", key)
	require.NotNil(t, value)

	outputs := assertions.Template_FromStack(stack, nil).FindOutputs(jsii.String("*"), nil)
	require.Empty(t, *outputs)
}

func TestCrossRegionCertificates(t *testing.T) {
	app := awscdk.NewApp(nil)
	stack := awscdk.NewStack(app, jsii.String("TestStack"), &awscdk.StackProps{
		Env: &awscdk.Environment{
			Account: jsii.String("123456789012"),
			Region:  jsii.String("us-west-2"),
		},
		CrossRegionReferences: jsii.Bool(true),
	})
	certs := NewCrossRegionCertificates(app)

	_, err := NewCdn(stack, "Site", &CdnProps{
		Domain:       &domain.Config{DomainName: "example.com", Aliases: []string{"www.example.com"}},
		ZoneProvider: testZones(),
		Certificates: certs,
	})
	require.NoError(t, err)

	stacks := certs.Stacks()
	require.Len(t, stacks, 1)
	require.Equal(t, "TestStack-certificates-us-east-1", *stacks[0].Node().Id())
	require.Equal(t, CertificateRegion, *stacks[0].Region())

	certTemplate := assertions.Template_FromStack(stacks[0], nil)
	certTemplate.HasResourceProperties(jsii.String(typeAcmCertificate), map[string]any{
		"DomainName":              "example.com",
		"SubjectAlternativeNames": []any{"www.example.com"},
		"ValidationMethod":        "DNS",
	})

	template := assertions.Template_FromStack(stack, nil)
	template.ResourceCountIs(jsii.String(typeCertRequest), jsii.Number(0))
}

func TestCrossRegionCertificates_DistinctIDsForSimilarPaths(t *testing.T) {
	app := awscdk.NewApp(nil)
	stack := awscdk.NewStack(app, jsii.String("TestStack"), &awscdk.StackProps{
		Env: &awscdk.Environment{
			Account: jsii.String("123456789012"),
			Region:  jsii.String("us-west-2"),
		},
		CrossRegionReferences: jsii.Bool(true),
	})
	certs := NewCrossRegionCertificates(app)

	for _, path := range [][2]string{{"A", "BC"}, {"AB", "C"}} {
		parent := constructs.NewConstruct(stack, jsii.String(path[0]))
		_, err := NewCdn(parent, path[1], &CdnProps{
			Domain:       domain.Name(path[0] + path[1] + ".example.com"),
			ZoneProvider: testZones(),
			Certificates: certs,
		})
		require.NoError(t, err)
	}

	stacks := certs.Stacks()
	require.Len(t, stacks, 1)
	assertions.Template_FromStack(stacks[0], nil).ResourceCountIs(jsii.String(typeAcmCertificate), jsii.Number(2))
}
