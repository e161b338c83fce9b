// Package storage defines the blob storage provider used to rehost
// vehicle photos. The abstraction keeps the pipeline independent of a
// specific backend; the no-op provider is the supported no-credential
// mode in which photos keep their source URLs.
package storage

import "context"

// Provider uploads a named object and returns its publicly reachable URL.
type Provider interface {
	Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
}

// NoOpProvider is the no-credential mode: it accepts nothing and
// returns an empty URL, signaling callers to keep source URLs.
type NoOpProvider struct{}

// Upload does nothing and returns an empty URL.
func (NoOpProvider) Upload(_ context.Context, _ string, _ []byte, _ string) (string, error) {
	return "", nil
}
