package catalog

import (
	"context"

	"github.com/glorpus-work/hdrget/pkg/model"
)

// Catalog describes which files exist for an asset.
type Catalog interface {
	// Category returns the lower-cased category tag, or false when unknown.
	Category(ctx context.Context, assetID string) (string, bool)

	// Files returns the known download URLs. It never fails; an empty set
	// means the catalog was unavailable or returned something unusable.
	Files(ctx context.Context, assetID string) FileSet

	// DirectURL builds the conventional CDN URL for one file.
	DirectURL(ref model.FileRef) string
}
