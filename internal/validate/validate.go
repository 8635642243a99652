// Package validate checks user-supplied values before any command writes to
// disk.
package validate

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/rapids-dev/rapids/internal/rerr"
)

const (
	MaxProjectNameLength = 100
	MinAPIKeyLength      = 10
)

var (
	projectNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	versionPattern     = regexp.MustCompile(`^v?(\d+)\.(\d+)(?:\.(\d+))?$`)
)

func ProjectName(name string) error {
	if strings.TrimSpace(name) == "" {
		return field("name", "project name cannot be empty")
	}
	if len(name) > MaxProjectNameLength {
		return field("name", "project name must be 100 characters or fewer")
	}
	if !projectNamePattern.MatchString(name) {
		return field("name", "project name can only contain letters, numbers, hyphens, and underscores")
	}
	return nil
}

// URL accepts absolute http(s) URLs.
func URL(raw string) error {
	u, err := url.ParseRequestURI(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return field("url", "invalid URL format: "+raw)
	}
	return nil
}

func APIKey(key string) error {
	if len(strings.TrimSpace(key)) < MinAPIKeyLength {
		return field("apiKey", "API key must be at least 10 characters")
	}
	return nil
}

func Version(v string) error {
	if !versionPattern.MatchString(strings.TrimSpace(v)) {
		return field("version", "invalid version format: "+v)
	}
	return nil
}

func field(name, msg string) error {
	return rerr.WithDetails(rerr.ValidationFailed, msg, map[string]string{"field": name})
}
