package storage

import (
	"fmt"
	"net/url"
	"strings"
)

// Location addresses one object.
type Location struct {
	Bucket string
	Key    string
}

// URI formats the location as s3://bucket/key.
func (l Location) URI() string {
	return fmt.Sprintf("s3://%s/%s", l.Bucket, l.Key)
}

func (l Location) String() string { return l.URI() }

// ParseURI splits an s3://bucket/key URI.
func ParseURI(uri string) (Location, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return Location{}, wrapError(CodeInvalidURI, false, err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return Location{}, wrapError(CodeInvalidURI, false, fmt.Errorf("expected s3://bucket/key, got %q", uri))
	}
	return Location{Bucket: u.Host, Key: strings.Trim(u.Path, "/")}, nil
}

// JoinKey joins key segments with "/" and drops empty segments.
func JoinKey(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}

// ParseModelName extracts the endpoint name from a capture key. Capture logs
// are written as {prefix}/{endpoint}/{variant}/{yyyy}/{mm}/{dd}/{hh}/{file}.
func ParseModelName(capturePrefix, key string) (string, error) {
	depth := len(strings.Split(capturePrefix, "/"))
	parts := strings.Split(key, "/")
	if depth >= len(parts) || parts[depth] == "" {
		return "", wrapError(CodeInvalidURI, false,
			fmt.Errorf("key %q has no model segment after prefix %q", key, capturePrefix))
	}
	return parts[depth], nil
}
