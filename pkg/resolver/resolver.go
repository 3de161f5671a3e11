// Package resolver turns free-form user input into a Poly Haven asset id.
//
// Accepted inputs, in the order they are tried:
//
//	https://dl.polyhaven.org/file/ph-assets/HDRIs/exr/4k/rocks_4k.exr  direct CDN URL
//	https://polyhaven.com/a/rocks                                      asset page
//	rocks, rocks_4k                                                    bare slug
//	/some/path/rocks_4k.hdr                                            last path segment
package resolver

import (
	"regexp"
	"strings"

	"github.com/glorpus-work/hdrget/pkg/model"
)

var (
	directPattern = regexp.MustCompile(`(?i)/(hdr|exr)/(\d+k)/([A-Za-z0-9_-]+)\.(?:hdr|exr)(?:[?#].*)?$`)
	pagePattern   = regexp.MustCompile(`/a/([A-Za-z0-9_-]+)`)
	barePattern   = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	suffixPattern = regexp.MustCompile(`(?i)_(\d+k)$`)
)

// Resolve extracts the asset id and any resolution/format hints from text.
// It returns ErrNoAssetID when nothing slug-like can be found; that is an
// input problem and callers report it before touching the network.
func Resolve(text string) (model.AssetRef, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.AssetRef{}, ErrNoAssetID
	}

	if m := directPattern.FindStringSubmatch(text); m != nil {
		id, _ := StripResolutionSuffix(m[3])
		if id == "" {
			return model.AssetRef{}, ErrNoAssetID
		}
		ref := model.AssetRef{ID: id}
		if f, err := model.ParseFormat(m[1]); err == nil {
			ref.Format = f
		}
		if r, err := model.ParseResolution(m[2]); err == nil {
			ref.Resolution = r
		}
		return ref, nil
	}

	if m := pagePattern.FindStringSubmatch(text); m != nil {
		id, _ := StripResolutionSuffix(m[1])
		if id != "" {
			return model.AssetRef{ID: id}, nil
		}
	}

	if barePattern.MatchString(text) {
		return fromSlug(text)
	}

	if seg := lastSegment(text); seg != "" && barePattern.MatchString(seg) {
		return fromSlug(seg)
	}

	return model.AssetRef{}, ErrNoAssetID
}

// StripResolutionSuffix removes a trailing "_<N>k" token from slug and
// returns the remaining slug and the removed token, lower-cased. The token is
// empty when slug carries no suffix.
func StripResolutionSuffix(slug string) (string, string) {
	loc := suffixPattern.FindStringSubmatchIndex(slug)
	if loc == nil {
		return slug, ""
	}
	return slug[:loc[0]], strings.ToLower(slug[loc[2]:loc[3]])
}

func fromSlug(slug string) (model.AssetRef, error) {
	id, token := StripResolutionSuffix(slug)
	if id == "" {
		return model.AssetRef{}, ErrNoAssetID
	}
	ref := model.AssetRef{ID: id}
	if r, err := model.ParseResolution(token); err == nil {
		ref.Resolution = r
	}
	return ref, nil
}

// lastSegment returns the final path element of text without query,
// fragment or file extension.
func lastSegment(text string) string {
	if i := strings.IndexAny(text, "?#"); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimRight(text, `/\`)
	if i := strings.LastIndexAny(text, `/\`); i >= 0 {
		text = text[i+1:]
	}
	if i := strings.Index(text, "."); i >= 0 {
		text = text[:i]
	}
	return text
}
