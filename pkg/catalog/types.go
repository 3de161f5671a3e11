package catalog

import (
	"sort"

	"github.com/glorpus-work/hdrget/pkg/model"
)

// FileSet maps each available encoding and tier to an absolute download URL.
// An empty FileSet means the catalog could not be asked or had nothing to say.
type FileSet map[model.Format]map[model.Resolution]string

// Lookup returns the URL for one encoding and tier.
func (fs FileSet) Lookup(f model.Format, r model.Resolution) (string, bool) {
	byRes, ok := fs[f]
	if !ok {
		return "", false
	}
	u, ok := byRes[r]
	return u, ok && u != ""
}

// Empty reports whether the set holds no URL at all.
func (fs FileSet) Empty() bool {
	return fs.Count() == 0
}

// Count returns the number of (format, resolution) pairs with a URL.
func (fs FileSet) Count() int {
	n := 0
	for _, byRes := range fs {
		n += len(byRes)
	}
	return n
}

// Pairs lists the available files ordered by format, then ascending tier.
func (fs FileSet) Pairs() []model.FileRef {
	var out []model.FileRef
	for f, byRes := range fs {
		for r := range byRes {
			out = append(out, model.FileRef{Resolution: r, Format: f})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Format != out[j].Format {
			return out[i].Format < out[j].Format
		}
		return out[i].Resolution.Rank() < out[j].Resolution.Rank()
	})
	return out
}

func (fs FileSet) add(f model.Format, r model.Resolution, u string) {
	if fs[f] == nil {
		fs[f] = make(map[model.Resolution]string)
	}
	fs[f][r] = u
}

// assetInfo is the subset of GET /id/<asset> the client reads.
type assetInfo struct {
	Name       string   `json:"name"`
	Category   *string  `json:"category,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// fileLink is one resolution entry. The catalog sends either a bare string
// or an object with a url field.
type fileLink struct {
	URL string `json:"url"`
}
