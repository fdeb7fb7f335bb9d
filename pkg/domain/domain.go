package domain

import (
	"fmt"
	"strings"
)

// Input is the user-facing domain option: either a bare Name or a structured *Config.
//
// A nil Input disables every domain dependent step (certificate, records, redirects).
type Input interface {
	domainInput()
}

// Name is a bare domain such as "example.com".
type Name string

func (Name) domainInput() {}

// Config is the structured domain descriptor.
//
// HostedZone and HostedZoneID are mutually exclusive.
type Config struct {
	// DomainName is the primary domain served by the distribution.
	DomainName string `json:"domainName" yaml:"domainName"`
	// Aliases are additional names served by the distribution and covered by the certificate.
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	// Redirects are domains that permanently redirect to DomainName.
	Redirects []string `json:"redirects,omitempty" yaml:"redirects,omitempty"`
	// HostedZone overrides the zone name used for the lookup.
	HostedZone string `json:"hostedZone,omitempty" yaml:"hostedZone,omitempty"`
	// HostedZoneID skips the lookup entirely.
	HostedZoneID string `json:"hostedZoneId,omitempty" yaml:"hostedZoneId,omitempty"`
	// HostedZoneName is the name of the zone pinned by HostedZoneID. It defaults
	// to the last two labels of DomainName, which is wrong below multi-label
	// public suffixes such as co.uk; set it there.
	HostedZoneName string `json:"hostedZoneName,omitempty" yaml:"hostedZoneName,omitempty"`
}

func (*Config) domainInput() {}

// Names returns the primary domain followed by its aliases.
func (c *Config) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, 1+len(c.Aliases))
	names = append(names, c.DomainName)
	return append(names, c.Aliases...)
}

// Normalize canonicalizes an Input.
//
// It returns (nil, nil) when no domain is configured. Names are trimmed but
// otherwise kept as given; names that differ only in case or a root dot count
// as the same name and may appear once across DomainName, Aliases and Redirects.
// The returned Config never shares slices with the input and always carries
// non-nil Aliases and Redirects.
func Normalize(in Input) (*Config, error) {
	switch v := in.(type) {
	case nil:
		return nil, nil
	case Name:
		name := canonical(string(v))
		if name == "" {
			return nil, nil
		}
		return &Config{
			DomainName: name,
			Aliases:    []string{},
			Redirects:  []string{},
		}, nil
	case *Config:
		if v == nil {
			return nil, nil
		}
		return normalizeConfig(v)
	default:
		return nil, &ValidationError{Code: CodeUnsupportedInput, Field: "domain", Message: "unsupported domain input"}
	}
}

func normalizeConfig(in *Config) (*Config, error) {
	out := &Config{
		DomainName:     canonical(in.DomainName),
		Aliases:        canonicalList(in.Aliases),
		Redirects:      canonicalList(in.Redirects),
		HostedZone:     canonical(in.HostedZone),
		HostedZoneID:   strings.TrimSpace(in.HostedZoneID),
		HostedZoneName: canonical(in.HostedZoneName),
	}

	if out.DomainName == "" {
		return nil, &ValidationError{
			Code:    CodeNameRequired,
			Field:   "domainName",
			Message: "domain name is required when domain is configured as an object",
		}
	}
	if out.HostedZone != "" && out.HostedZoneID != "" {
		return nil, &ValidationError{
			Code:    CodeZoneConflict,
			Field:   "hostedZone",
			Message: "cannot configure both hostedZone and hostedZoneId",
		}
	}
	if out.HostedZoneName != "" && out.HostedZoneID == "" {
		return nil, &ValidationError{
			Code:    CodeZoneConflict,
			Field:   "hostedZoneName",
			Message: "hostedZoneName only applies together with hostedZoneId",
		}
	}
	if err := checkDistinct(out); err != nil {
		return nil, err
	}
	return out, nil
}

// checkDistinct rejects names that would map to the same DNS record: a served
// name listed twice, a redirect listed twice, or a redirect that is also served.
func checkDistinct(cfg *Config) error {
	served := make(map[string]bool, 1+len(cfg.Aliases))
	for _, name := range cfg.Names() {
		key := SameName(name)
		if served[key] {
			return &ValidationError{
				Code:    CodeDuplicateName,
				Field:   "aliases",
				Message: fmt.Sprintf("%q is served more than once", name),
			}
		}
		served[key] = true
	}

	redirects := make(map[string]bool, len(cfg.Redirects))
	for _, name := range cfg.Redirects {
		key := SameName(name)
		if served[key] {
			return &ValidationError{
				Code:    CodeRedirectServed,
				Field:   "redirects",
				Message: fmt.Sprintf("redirect %q is also served by the distribution", name),
			}
		}
		if redirects[key] {
			return &ValidationError{
				Code:    CodeDuplicateName,
				Field:   "redirects",
				Message: fmt.Sprintf("redirect %q is listed more than once", name),
			}
		}
		redirects[key] = true
	}
	return nil
}

// SameName returns the comparison key of a DNS name. Names are case-insensitive
// and the root dot is optional.
func SameName(name string) string {
	return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(name), "."))
}

// canonical strips surrounding whitespace. Case and the root dot are kept as given.
func canonical(name string) string {
	return strings.TrimSpace(name)
}

func canonicalList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = canonical(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
