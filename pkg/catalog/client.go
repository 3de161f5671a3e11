// Package catalog queries the Poly Haven metadata API for an asset's category
// and the download URLs of its HDRI encodings.
package catalog

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/glorpus-work/hdrget/internal/logger"
	phttp "github.com/glorpus-work/hdrget/pkg/http"
	"github.com/glorpus-work/hdrget/pkg/model"
)

// Default endpoints.
const (
	DefaultCatalogURL  = "https://api.polyhaven.com"
	DefaultDownloadURL = "https://dl.polyhaven.org"
)

// Client is the HTTP implementation of Catalog.
type Client struct {
	http        phttp.Client
	catalogURL  string
	downloadURL string
}

var _ Catalog = (*Client)(nil)

// NewClient creates a catalog client. Empty endpoints fall back to the
// public Poly Haven hosts.
func NewClient(hc phttp.Client, catalogURL, downloadURL string) *Client {
	if catalogURL == "" {
		catalogURL = DefaultCatalogURL
	}
	if downloadURL == "" {
		downloadURL = DefaultDownloadURL
	}
	return &Client{
		http:        hc,
		catalogURL:  strings.TrimRight(catalogURL, "/"),
		downloadURL: strings.TrimRight(downloadURL, "/"),
	}
}

// Category implements Catalog.
func (c *Client) Category(ctx context.Context, assetID string) (string, bool) {
	var info assetInfo
	if err := c.http.GetJSON(ctx, c.catalogURL+"/id/"+url.PathEscape(assetID), &info); err != nil {
		logger.Debug("catalog category lookup failed", logger.Fields{"asset": assetID, "error": err})
		return "", false
	}

	switch {
	case info.Category != nil && *info.Category != "":
		return strings.ToLower(*info.Category), true
	case len(info.Categories) > 0 && info.Categories[0] != "":
		return strings.ToLower(info.Categories[0]), true
	default:
		return "", false
	}
}

// listingPaths are tried in order until one answers with a JSON object.
// The second is the public Poly Haven endpoint.
var listingPaths = []string{"/files/hdris/", "/files/"}

// Files implements Catalog.
func (c *Client) Files(ctx context.Context, assetID string) FileSet {
	for _, p := range listingPaths {
		var payload map[string]json.RawMessage
		endpoint := c.catalogURL + p + url.PathEscape(assetID)
		if err := c.http.GetJSON(ctx, endpoint, &payload); err != nil {
			logger.Debug("catalog file listing failed", logger.Fields{"url": endpoint, "error": err})
			continue
		}
		return c.decodeListing(assetID, payload)
	}
	return FileSet{}
}

func (c *Client) decodeListing(assetID string, payload map[string]json.RawMessage) FileSet {
	fs := FileSet{}
	if nested, ok := payload["hdri"]; ok {
		c.decodeByResolution(nested, fs)
	} else {
		c.decodeByFormat(payload, fs)
	}
	logger.Debug("catalog file listing", logger.Fields{"asset": assetID, "files": fs.Count()})
	return fs
}

// DirectURL implements Catalog.
func (c *Client) DirectURL(ref model.FileRef) string {
	return c.downloadURL + "/file/ph-assets/HDRIs/" + string(ref.Format) + "/" +
		string(ref.Resolution) + "/" + url.PathEscape(ref.FileName())
}

// decodeByFormat reads {"<format>": {"<resolution>": link}}.
func (c *Client) decodeByFormat(payload map[string]json.RawMessage, fs FileSet) {
	for key, raw := range payload {
		f, err := model.ParseFormat(key)
		if err != nil {
			continue
		}
		var byRes map[string]json.RawMessage
		if err := json.Unmarshal(raw, &byRes); err != nil {
			continue
		}
		for resKey, link := range byRes {
			r, err := model.ParseResolution(resKey)
			if err != nil {
				continue
			}
			if u := c.linkURL(link); u != "" {
				fs.add(f, r, u)
			}
		}
	}
}

// decodeByResolution reads the public API shape
// {"hdri": {"<resolution>": {"<format>": link}}}.
func (c *Client) decodeByResolution(raw json.RawMessage, fs FileSet) {
	var byRes map[string]map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byRes); err != nil {
		return
	}
	for resKey, byFormat := range byRes {
		r, err := model.ParseResolution(resKey)
		if err != nil {
			continue
		}
		for formatKey, link := range byFormat {
			f, err := model.ParseFormat(formatKey)
			if err != nil {
				continue
			}
			if u := c.linkURL(link); u != "" {
				fs.add(f, r, u)
			}
		}
	}
}

func (c *Client) linkURL(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var link fileLink
		if err := json.Unmarshal(raw, &link); err != nil {
			return ""
		}
		s = link.URL
	}
	return c.absolute(strings.TrimSpace(s))
}

// absolute resolves catalog paths against the download host.
func (c *Client) absolute(s string) string {
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return s
	}
	return c.downloadURL + "/" + strings.TrimLeft(s, "/")
}
