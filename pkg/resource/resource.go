// Package resource resolves linked resources at runtime.
//
// A deployed function learns about the infrastructure it is linked to (CDN URLs,
// bucket names, table ARNs) through environment variables named
// CDNTHEORY_RESOURCE_<name>, each holding a JSON document. A link table injected
// by the runtime, or loaded from the file named by CDNTHEORY_LINKS_FILE, is the
// fallback for names without an environment variable.
package resource

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix prefixes every per-resource environment variable.
	EnvPrefix = "CDNTHEORY_RESOURCE_"
	// LinksFileEnv names a YAML or JSON file holding the fallback link table.
	LinksFileEnv = "CDNTHEORY_LINKS_FILE"
)

// ErrNotLinked is matched by every lookup of an unregistered name.
var ErrNotLinked = errors.New("resource not linked")

// NotLinkedError reports a lookup of a name that has no linked value.
type NotLinkedError struct {
	Name string
}

func (e *NotLinkedError) Error() string {
	return fmt.Sprintf("%q is not linked in your app", e.Name)
}

func (e *NotLinkedError) Is(target error) bool {
	return target == ErrNotLinked
}

// Registry is a read-only name -> value table.
type Registry struct {
	values map[string]json.RawMessage
}

// New builds a registry from "KEY=value" environment entries and a fallback link table.
//
// Environment entries win over links with the same name. Environment values that
// are not valid JSON are an error: a half-linked process must not start.
func New(environ []string, links map[string]any) (*Registry, error) {
	values := make(map[string]json.RawMessage, len(links))
	for name, v := range links {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("resource: encode link %q: %w", name, err)
		}
		values[name] = raw
	}

	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		name := strings.TrimPrefix(key, EnvPrefix)
		if name == "" {
			continue
		}
		if !json.Valid([]byte(value)) {
			return nil, fmt.Errorf("resource: %s%s is not valid JSON", EnvPrefix, name)
		}
		values[name] = json.RawMessage(value)
	}

	return &Registry{values: values}, nil
}

// Get returns the raw JSON value linked under name.
func (r *Registry) Get(name string) (json.RawMessage, error) {
	if r != nil {
		if v, ok := r.values[name]; ok {
			out := make(json.RawMessage, len(v))
			copy(out, v)
			return out, nil
		}
	}
	return nil, &NotLinkedError{Name: name}
}

// Decode unmarshals the value linked under name into out.
func (r *Registry) Decode(name string, out any) error {
	raw, err := r.Get(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("resource: decode %q: %w", name, err)
	}
	return nil
}

// Names lists every linked name in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.values))
	for name := range r.values {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// LoadLinks reads a link table from a YAML or JSON file.
func LoadLinks(path string) (map[string]any, error) {
	//nolint:gosec // Path comes from the process environment set by the deployer.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("resource: read links file: %w", err)
	}
	var links map[string]any
	if err := yaml.Unmarshal(data, &links); err != nil {
		return nil, fmt.Errorf("resource: parse links file: %w", err)
	}
	return links, nil
}

var (
	defaultMu       sync.Mutex
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
	injected        map[string]any
)

// Inject installs the runtime link table used by Default.
//
// It only has an effect before the first call to Default.
func Inject(links map[string]any) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	injected = links
}

// Default returns the process-wide registry, built once from os.Environ, the
// injected link table, and CDNTHEORY_LINKS_FILE.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		defaultMu.Lock()
		links := make(map[string]any, len(injected))
		for k, v := range injected {
			links[k] = v
		}
		defaultMu.Unlock()

		if path := os.Getenv(LinksFileEnv); path != "" {
			fromFile, err := LoadLinks(path)
			if err != nil {
				defaultErr = err
				return
			}
			for k, v := range fromFile {
				if _, ok := links[k]; !ok {
					links[k] = v
				}
			}
		}
		defaultRegistry, defaultErr = New(os.Environ(), links)
	})
	return defaultRegistry, defaultErr
}

// Get looks up name in the process-wide registry.
func Get(name string) (json.RawMessage, error) {
	r, err := Default()
	if err != nil {
		return nil, err
	}
	return r.Get(name)
}

// Decode decodes name from the process-wide registry into out.
func Decode(name string, out any) error {
	r, err := Default()
	if err != nil {
		return err
	}
	return r.Decode(name, out)
}

// Env returns the environment variable that links value under name.
func Env(name string, value any) (string, string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", "", fmt.Errorf("resource: encode %q: %w", name, err)
	}
	return EnvPrefix + name, string(raw), nil
}
