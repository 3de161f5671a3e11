package http

import "context"

// Client is the metadata transport used by the catalog and release packages.
type Client interface {
	// GetJSON fetches a URL and decodes its JSON body into v.
	GetJSON(ctx context.Context, rawURL string, v any) error

	// GetText fetches a URL and returns its trimmed body.
	GetText(ctx context.Context, rawURL string) (string, error)
}
