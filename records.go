package cdntheory

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53targets"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/cdntheory/pkg/naming"
	"github.com/theory-cloud/cdntheory/pkg/observability"
)

// RecordKinds are the alias record types created for every served name.
var RecordKinds = []string{"A", "AAAA"}

func (c *Cdn) createRecords(log observability.StructuredLogger) {
	if c.domain == nil || c.zone == nil {
		return
	}

	for _, name := range c.domain.Names() {
		for _, kind := range RecordKinds {
			record := awsroute53.NewCfnRecordSet(c.Construct, jsii.String(naming.RecordID(kind, name)), &awsroute53.CfnRecordSetProps{
				HostedZoneId: c.zone.ID,
				Name:         jsii.String(name),
				Type:         jsii.String(kind),
				AliasTarget: &awsroute53.CfnRecordSet_AliasTargetProperty{
					DnsName:              c.distribution.AttrDomainName(),
					HostedZoneId:         awsroute53targets.CloudFrontTarget_CLOUDFRONT_ZONE_ID(),
					EvaluateTargetHealth: jsii.Bool(true),
				},
			})
			c.records = append(c.records, record)
		}
	}

	log.Info("cdn.records.created", map[string]any{
		"names":   len(c.domain.Names()),
		"records": len(c.records),
	})
}
