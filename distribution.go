package cdntheory

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfront"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/cdntheory/pkg/observability"
)

const (
	// PlaceholderOriginID is the origin the default cache behavior targets until
	// a caller attaches a real origin.
	PlaceholderOriginID = "placeholder"

	// cachingOptimizedPolicyID is the managed CachingOptimized cache policy.
	cachingOptimizedPolicyID = "658327ea-f89d-4fab-a63d-7e88639e58f6"

	minimumProtocolVersion = "TLSv1.2_2021"
)

// DistributionTransform rewrites the distribution config before creation.
type DistributionTransform func(config *awscloudfront.CfnDistribution_DistributionConfigProperty)

// ChainTransforms runs transforms in order, skipping nils.
func ChainTransforms(transforms ...DistributionTransform) DistributionTransform {
	return func(config *awscloudfront.CfnDistribution_DistributionConfigProperty) {
		for _, t := range transforms {
			if t != nil {
				t(config)
			}
		}
	}
}

// HTTPOrigin attaches an HTTPS custom origin and points the default cache
// behavior at it.
func HTTPOrigin(id, domainName string) DistributionTransform {
	return func(config *awscloudfront.CfnDistribution_DistributionConfigProperty) {
		origins, _ := config.Origins.(*[]*awscloudfront.CfnDistribution_OriginProperty)
		if origins == nil {
			origins = &[]*awscloudfront.CfnDistribution_OriginProperty{}
		}
		next := append(*origins, &awscloudfront.CfnDistribution_OriginProperty{
			Id:         jsii.String(id),
			DomainName: jsii.String(domainName),
			CustomOriginConfig: &awscloudfront.CfnDistribution_CustomOriginConfigProperty{
				OriginProtocolPolicy: jsii.String("https-only"),
				HttpsPort:            jsii.Number(443),
				OriginSslProtocols:   jsii.Strings("TLSv1.2"),
			},
		})
		config.Origins = &next

		if behavior := DefaultCacheBehavior(config); behavior != nil {
			behavior.TargetOriginId = jsii.String(id)
		}
	}
}

// DefaultCacheBehavior returns the typed default cache behavior of config, or
// nil when a transform replaced it with something else.
func DefaultCacheBehavior(config *awscloudfront.CfnDistribution_DistributionConfigProperty) *awscloudfront.CfnDistribution_DefaultCacheBehaviorProperty {
	behavior, _ := config.DefaultCacheBehavior.(*awscloudfront.CfnDistribution_DefaultCacheBehaviorProperty)
	return behavior
}

// ViewerCertificate returns the typed viewer certificate of config, or nil.
func ViewerCertificate(config *awscloudfront.CfnDistribution_DistributionConfigProperty) *awscloudfront.CfnDistribution_ViewerCertificateProperty {
	cert, _ := config.ViewerCertificate.(*awscloudfront.CfnDistribution_ViewerCertificateProperty)
	return cert
}

func (c *Cdn) distributionConfig(props *CdnProps) *awscloudfront.CfnDistribution_DistributionConfigProperty {
	comment := props.Comment
	if comment == nil {
		comment = c.Node().Path()
	}

	config := &awscloudfront.CfnDistribution_DistributionConfigProperty{
		Enabled:     jsii.Bool(true),
		Comment:     comment,
		HttpVersion: jsii.String("http2and3"),
		Ipv6Enabled: jsii.Bool(true),
		PriceClass:  props.PriceClass,
		Origins:     &[]*awscloudfront.CfnDistribution_OriginProperty{},
		DefaultCacheBehavior: &awscloudfront.CfnDistribution_DefaultCacheBehaviorProperty{
			TargetOriginId:       jsii.String(PlaceholderOriginID),
			ViewerProtocolPolicy: jsii.String("redirect-to-https"),
			CachePolicyId:        jsii.String(cachingOptimizedPolicyID),
			Compress:             jsii.Bool(true),
		},
		Restrictions: &awscloudfront.CfnDistribution_RestrictionsProperty{
			GeoRestriction: &awscloudfront.CfnDistribution_GeoRestrictionProperty{
				RestrictionType: jsii.String("none"),
			},
		},
	}

	if c.domain != nil {
		config.Aliases = jsii.Strings(c.domain.Names()...)
	}

	if c.certificate != nil {
		config.ViewerCertificate = &awscloudfront.CfnDistribution_ViewerCertificateProperty{
			AcmCertificateArn:      c.certificate.CertificateArn(),
			SslSupportMethod:       jsii.String("sni-only"),
			MinimumProtocolVersion: jsii.String(minimumProtocolVersion),
		}
	} else {
		config.ViewerCertificate = &awscloudfront.CfnDistribution_ViewerCertificateProperty{
			CloudFrontDefaultCertificate: jsii.Bool(true),
		}
	}

	return config
}

func (c *Cdn) createDistribution(props *CdnProps, log observability.StructuredLogger) {
	config := c.distributionConfig(props)
	if props.Transform != nil && props.Transform.Distribution != nil {
		props.Transform.Distribution(config)
	}

	c.distribution = awscloudfront.NewCfnDistribution(c.Construct, jsii.String("Distribution"), &awscloudfront.CfnDistributionProps{
		DistributionConfig: config,
	})

	log.Info("cdn.distribution.created", map[string]any{
		"custom_domain": c.domain != nil,
		"certificate":   c.certificate != nil,
	})
}
