package cdntheory

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/cdntheory/pkg/resource"
)

// URL is the distribution's own https://<id>.cloudfront.net endpoint.
func (c *Cdn) URL() *string {
	return c.url
}

// DomainURL is https://<domain>, or nil without a custom domain.
func (c *Cdn) DomainURL() *string {
	return c.domainURL
}

// Link returns the environment variable that hands this component's URLs to a
// function at runtime, where resource.Decode reads them back.
func (c *Cdn) Link(name string) (string, *string) {
	props := map[string]any{"url": c.url}
	if c.domainURL != nil {
		props["domainUrl"] = c.domainURL
	}
	return resource.EnvPrefix + name, awscdk.Stack_Of(c.Construct).ToJsonString(props, nil)
}

func (c *Cdn) createOutputs(props *CdnProps) {
	c.url = jsii.String("https://" + *c.distribution.AttrDomainName())
	if c.domain != nil {
		c.domainURL = jsii.String("https://" + c.domain.DomainName)
	}

	if props.DisableOutputs {
		return
	}
	awscdk.NewCfnOutput(c.Construct, jsii.String("Url"), &awscdk.CfnOutputProps{
		Value:       c.url,
		Description: jsii.String("CloudFront endpoint"),
	})
	if c.domainURL != nil {
		awscdk.NewCfnOutput(c.Construct, jsii.String("DomainUrl"), &awscdk.CfnOutputProps{
			Value:       c.domainURL,
			Description: jsii.String("Custom domain endpoint"),
		})
	}
}
