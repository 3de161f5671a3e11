// Package release checks whether a newer hdrget release has been published.
// The release feed is a plain text file holding a single version string.
package release

import (
	"context"
	"fmt"
	"strings"

	"github.com/glorpus-work/hdrget/pkg/errors"
	"github.com/hashicorp/go-version"
)

// DefaultVersionURL is where the latest version number is published.
const DefaultVersionURL = "https://raw.githubusercontent.com/glorpus-work/hdrget/main/version.txt"

// ErrInvalidVersion is returned when a version string cannot be parsed.
var ErrInvalidVersion = fmt.Errorf("invalid version")

// TextFetcher retrieves a small text document.
type TextFetcher interface {
	GetText(ctx context.Context, url string) (string, error)
}

// Status is the outcome of a version check.
type Status struct {
	Current   string
	Latest    string
	Available bool
}

// Checker compares the running version with the published one.
type Checker struct {
	fetcher TextFetcher
	url     string
}

// NewChecker creates a checker reading the feed at url.
func NewChecker(fetcher TextFetcher, url string) *Checker {
	if url == "" {
		url = DefaultVersionURL
	}
	return &Checker{fetcher: fetcher, url: url}
}

// Check fetches the published version and reports whether it is newer than
// current.
func (c *Checker) Check(ctx context.Context, current string) (*Status, error) {
	cur, err := parse(current)
	if err != nil {
		return nil, err
	}

	text, err := c.fetcher.GetText(ctx, c.url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch latest version")
	}
	latest, err := parse(firstLine(text))
	if err != nil {
		return nil, err
	}

	return &Status{
		Current:   cur.String(),
		Latest:    latest.String(),
		Available: latest.GreaterThan(cur),
	}, nil
}

// Compare returns -1, 0 or 1 when a is older, equal or newer than b.
func Compare(a, b string) (int, error) {
	va, err := parse(a)
	if err != nil {
		return 0, err
	}
	vb, err := parse(b)
	if err != nil {
		return 0, err
	}
	return va.Compare(vb), nil
}

func parse(s string) (*version.Version, error) {
	v, err := version.NewVersion(strings.TrimPrefix(strings.TrimSpace(s), "v"))
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidVersion, s, err)
	}
	return v, nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
