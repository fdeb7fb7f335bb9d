package naming

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	nonAlnum  = regexp.MustCompile(`[^a-z0-9-]+`)
	multiDash = regexp.MustCompile(`-+`)
)

func sanitizePart(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, "_", "-")
	value = strings.ReplaceAll(value, " ", "-")
	value = strings.ReplaceAll(value, ".", "-")
	value = nonAlnum.ReplaceAllString(value, "-")
	value = multiDash.ReplaceAllString(value, "-")
	value = strings.Trim(value, "-")
	return value
}

// NormalizeStage maps stage aliases to canonical values.
func NormalizeStage(stage string) string {
	stage = strings.ToLower(strings.TrimSpace(stage))
	switch stage {
	case "prod", "production", "live":
		return "live"
	case "dev", "development":
		return "dev"
	case "stg", "stage", "staging":
		return "stage"
	case "test", "testing":
		return "test"
	case "local":
		return "local"
	default:
		return sanitizePart(stage)
	}
}

// BaseName returns a deterministic stack name:
// - <app>-<stage>
// - <app>-<tenant>-<stage> (when tenant is provided)
func BaseName(appName, stage, tenant string) string {
	parts := []string{sanitizePart(appName)}
	if tenant = sanitizePart(tenant); tenant != "" {
		parts = append(parts, tenant)
	}
	if stage = NormalizeStage(stage); stage != "" {
		parts = append(parts, stage)
	}
	return strings.Join(parts, "-")
}

// PascalCase turns a DNS name into a construct-id safe token.
//
// Each label is capitalized and the dots dropped: "www.example.com" -> "WwwExampleCom".
// Hyphens are kept, and labels not starting with a letter (including the "*"
// wildcard) are prefixed with "_", so distinct names never collide.
func PascalCase(name string) string {
	name = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(name), "."))

	var b strings.Builder
	for _, label := range strings.Split(name, ".") {
		if label == "" {
			continue
		}
		if label == "*" {
			b.WriteString("_")
			continue
		}
		runes := []rune(label)
		if !unicode.IsLetter(runes[0]) {
			b.WriteString("_")
			b.WriteString(label)
			continue
		}
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	return b.String()
}

// RecordID returns the construct id of the DNS record of the given kind for name.
func RecordID(kind, name string) string {
	return kind + "Record" + PascalCase(name)
}
