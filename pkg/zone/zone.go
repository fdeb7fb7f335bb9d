package zone

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/cdntheory/pkg/domain"
)

// ErrNotFound is returned by providers when no hosted zone matches a name.
var ErrNotFound = errors.New("hosted zone not found")

// Zone identifies a Route53 hosted zone. Fields may hold CDK tokens.
type Zone struct {
	ID   *string
	Name *string
}

// Provider looks up a hosted zone by DNS name.
//
// Providers own any suffix matching: given "app.example.com" they may return the
// "example.com" zone.
type Provider interface {
	LookupZone(scope constructs.Construct, id string, name string) (Zone, error)
}

// Request is the resolution decision for a domain.
type Request struct {
	// ZoneID is set when the caller pinned the zone; no lookup happens.
	ZoneID string
	// LookupName is the zone or domain name handed to the Provider.
	LookupName string
	// DomainName is the primary domain the zone serves.
	DomainName string
	// ZoneName names a pinned zone. Empty means ApexName(DomainName).
	ZoneName string
}

// Key identifies the request for memoization.
func (r Request) Key() string {
	if r.ZoneID != "" {
		return "id:" + r.ZoneID
	}
	return "name:" + r.LookupName
}

// Plan decides how the zone for cfg is resolved. It reports false without a domain.
func Plan(cfg *domain.Config) (Request, bool) {
	if cfg == nil || cfg.DomainName == "" {
		return Request{}, false
	}
	req := Request{DomainName: cfg.DomainName}
	switch {
	case cfg.HostedZoneID != "":
		req.ZoneID = cfg.HostedZoneID
		req.ZoneName = cfg.HostedZoneName
	case cfg.HostedZone != "":
		req.LookupName = cfg.HostedZone
	default:
		req.LookupName = cfg.DomainName
	}
	return req, true
}

// ApexName guesses the zone name of a domain from its last two labels.
//
// It is only used when a zone is pinned by id without a name. Domains under
// multi-label public suffixes ("app.example.co.uk" gives "co.uk") need an
// explicit zone name.
func ApexName(name string) string {
	labels := strings.Split(strings.TrimSuffix(strings.ToLower(name), "."), ".")
	if len(labels) <= 2 {
		return strings.Join(labels, ".")
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// Resolver resolves zones through a Provider and memoizes the results.
//
// A Resolver belongs to one component; the same request never reaches the
// Provider twice.
type Resolver struct {
	provider Provider

	mu    sync.Mutex
	cache map[string]Zone
}

// NewResolver returns a Resolver backed by provider. A nil provider still
// resolves pinned zones.
func NewResolver(provider Provider) *Resolver {
	return &Resolver{provider: provider, cache: map[string]Zone{}}
}

// Resolve returns the zone for req. Pinned ids pass through without a lookup.
func (r *Resolver) Resolve(scope constructs.Construct, req Request) (Zone, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := req.Key()
	if z, ok := r.cache[key]; ok {
		return z, nil
	}

	var z Zone
	if req.ZoneID != "" {
		name := req.ZoneName
		if name == "" {
			name = ApexName(req.DomainName)
		}
		z = Zone{ID: jsii.String(req.ZoneID), Name: jsii.String(name)}
	} else {
		if r.provider == nil {
			return Zone{}, fmt.Errorf("zone: no provider configured to look up %q", req.LookupName)
		}
		found, err := r.provider.LookupZone(scope, "HostedZone", req.LookupName)
		if err != nil {
			return Zone{}, fmt.Errorf("zone: lookup %q: %w", req.LookupName, err)
		}
		z = found
	}

	r.cache[key] = z
	return z, nil
}

// candidates lists name followed by each parent with at least two labels.
func candidates(name string) []string {
	labels := strings.Split(strings.TrimSuffix(strings.ToLower(name), "."), ".")
	var out []string
	for i := 0; i+2 <= len(labels); i++ {
		out = append(out, strings.Join(labels[i:], "."))
	}
	if len(out) == 0 && name != "" {
		out = append(out, strings.Join(labels, "."))
	}
	return out
}
