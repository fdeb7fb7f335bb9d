// Package siteconfig loads the YAML site file consumed by cdn-synth.
package siteconfig

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/hashicorp/go-multierror"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	cdntheory "github.com/theory-cloud/cdntheory"
	"github.com/theory-cloud/cdntheory/pkg/domain"
	"github.com/theory-cloud/cdntheory/pkg/naming"
	"github.com/theory-cloud/cdntheory/pkg/observability"
	"github.com/theory-cloud/cdntheory/pkg/zone"
)

const (
	ZoneLookupContext = "context"
	ZoneLookupRoute53 = "route53"
	ZoneLookupStatic  = "static"

	CertificatesDNSValidated = "dns-validated"
	CertificatesCrossRegion  = "cross-region"

	// OriginID is the distribution origin id used for Site.Origin.
	OriginID = "origin"
)

//go:embed site.schema.json
var siteSchemaJSON string

var siteSchema = jsonschema.MustCompileString("site.schema.json", siteSchemaJSON)

// Site is one CDN deployment described in YAML.
type Site struct {
	App     string `yaml:"app"`
	Stage   string `yaml:"stage,omitempty"`
	Tenant  string `yaml:"tenant,omitempty"`
	Account string `yaml:"account,omitempty"`
	Region  string `yaml:"region,omitempty"`

	Domain     Domain `yaml:"domain,omitempty"`
	Origin     string `yaml:"origin,omitempty"`
	Comment    string `yaml:"comment,omitempty"`
	PriceClass string `yaml:"priceClass,omitempty"`

	ZoneLookup   string            `yaml:"zoneLookup,omitempty"`
	Zones        map[string]string `yaml:"zones,omitempty"`
	Certificates string            `yaml:"certificates,omitempty"`
	Outputs      *bool             `yaml:"outputs,omitempty"`

	Log observability.LoggerConfig `yaml:"log,omitempty"`
}

// Domain holds the site domain, written either as a bare name or as a mapping.
// An explicit null leaves Value nil.
type Domain struct {
	Value domain.Input
}

func (d *Domain) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var name string
		if err := node.Decode(&name); err != nil {
			return err
		}
		d.Value = domain.Name(name)
	case yaml.MappingNode:
		var cfg domain.Config
		if err := node.Decode(&cfg); err != nil {
			return err
		}
		d.Value = &cfg
	default:
		return fmt.Errorf("line %d: domain must be a string or a mapping", node.Line)
	}
	return nil
}

// Load reads and validates a site file.
func Load(path string) (*Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read site file: %w", err)
	}
	site, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return site, nil
}

// Parse checks data against the site schema, decodes it and applies defaults.
func Parse(data []byte) (*Site, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse site file: %w", err)
	}
	if raw == nil {
		return nil, errors.New("site file is empty")
	}
	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	site := &Site{}
	if err := yaml.Unmarshal(data, site); err != nil {
		return nil, fmt.Errorf("failed to decode site file: %w", err)
	}
	site.applyDefaults()

	if err := site.Validate(); err != nil {
		return nil, err
	}
	return site, nil
}

// validateSchema converts the YAML document to its JSON form and validates it.
func validateSchema(raw any) error {
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to convert site file: %w", err)
	}
	var doc any
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return fmt.Errorf("failed to convert site file: %w", err)
	}

	err = siteSchema.Validate(doc)
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return err
	}

	var result *multierror.Error
	for _, leaf := range schemaLeaves(verr) {
		loc := leaf.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		result = multierror.Append(result, fmt.Errorf("%s: %s", loc, leaf.Message))
	}
	return result.ErrorOrNil()
}

func schemaLeaves(err *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(err.Causes) == 0 {
		return []*jsonschema.ValidationError{err}
	}
	var out []*jsonschema.ValidationError
	for _, cause := range err.Causes {
		out = append(out, schemaLeaves(cause)...)
	}
	return out
}

func (s *Site) applyDefaults() {
	if s.ZoneLookup == "" {
		s.ZoneLookup = ZoneLookupContext
	}
	if s.Certificates == "" {
		s.Certificates = CertificatesDNSValidated
	}
	if s.Log.Level == "" {
		s.Log.Level = "info"
	}
	if s.Log.Format == "" {
		s.Log.Format = "console"
	}
}

// Validate reports every semantic problem the schema cannot express.
func (s *Site) Validate() error {
	var result *multierror.Error

	if strings.TrimSpace(s.App) == "" {
		result = multierror.Append(result, errors.New("app is required"))
	}

	cfg, err := domain.Normalize(s.Domain.Value)
	if err != nil {
		result = multierror.Append(result, err)
	}

	if (cfg != nil || err != nil) && !pinnedZone(s.Domain.Value) {
		switch s.ZoneLookup {
		case ZoneLookupContext:
			if s.Account == "" || s.Region == "" {
				result = multierror.Append(result, errors.New("zoneLookup context needs account and region"))
			}
		case ZoneLookupStatic:
			if len(s.Zones) == 0 {
				result = multierror.Append(result, errors.New("zoneLookup static needs at least one entry in zones"))
			}
		}
	}

	if s.Certificates == CertificatesCrossRegion && (s.Account == "" || s.Region == "") {
		result = multierror.Append(result, errors.New("certificates cross-region needs account and region"))
	}

	return result.ErrorOrNil()
}

func pinnedZone(in domain.Input) bool {
	cfg, ok := in.(*domain.Config)
	return ok && cfg != nil && strings.TrimSpace(cfg.HostedZoneID) != ""
}

// StackName is the deterministic stack name for the site.
func (s *Site) StackName() string {
	return naming.BaseName(s.App, s.Stage, s.Tenant)
}

// Env returns the stack environment, or nil for an environment agnostic stack.
func (s *Site) Env() *awscdk.Environment {
	if s.Account == "" && s.Region == "" {
		return nil
	}
	env := &awscdk.Environment{}
	if s.Account != "" {
		env.Account = jsii.String(s.Account)
	}
	if s.Region != "" {
		env.Region = jsii.String(s.Region)
	}
	return env
}

// LoggerConfig returns the logging settings with defaults applied.
func (s *Site) LoggerConfig() observability.LoggerConfig {
	return s.Log
}

// ZoneProvider builds the provider selected by zoneLookup.
func (s *Site) ZoneProvider(ctx context.Context) (zone.Provider, error) {
	switch s.ZoneLookup {
	case ZoneLookupRoute53:
		var opts []func(*config.LoadOptions) error
		if s.Region != "" {
			opts = append(opts, config.WithRegion(s.Region))
		}
		p, err := zone.LoadRoute53Provider(ctx, opts...)
		if err != nil {
			return nil, err
		}
		return p, nil
	case ZoneLookupStatic:
		return zone.NewStaticProvider(s.Zones), nil
	case ZoneLookupContext, "":
		return zone.ContextProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown zoneLookup %q", s.ZoneLookup)
	}
}

// CertificateProvider builds the provider selected by certificates. Companion
// stacks of the cross-region mode are created under app.
func (s *Site) CertificateProvider(app constructs.Construct) cdntheory.CertificateProvider {
	if s.Certificates == CertificatesCrossRegion {
		return cdntheory.NewCrossRegionCertificates(app)
	}
	return cdntheory.DnsValidatedCertificates{}
}

// Props assembles the component props for the site.
func (s *Site) Props(ctx context.Context, app constructs.Construct, log observability.StructuredLogger) (*cdntheory.CdnProps, error) {
	zones, err := s.ZoneProvider(ctx)
	if err != nil {
		return nil, err
	}

	props := &cdntheory.CdnProps{
		Domain:       s.Domain.Value,
		ZoneProvider: zones,
		Certificates: s.CertificateProvider(app),
		Logger:       log,
	}
	if s.Comment != "" {
		props.Comment = jsii.String(s.Comment)
	}
	if s.PriceClass != "" {
		props.PriceClass = jsii.String(s.PriceClass)
	}
	if s.Outputs != nil && !*s.Outputs {
		props.DisableOutputs = true
	}
	if s.Origin != "" {
		props.Transform = &cdntheory.CdnTransform{
			Distribution: cdntheory.HTTPOrigin(OriginID, s.Origin),
		}
	}
	return props, nil
}
