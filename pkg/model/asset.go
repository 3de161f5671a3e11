// Package model defines the value types shared by the resolver, catalog,
// cache and orchestrator: resolution tiers, file encodings and the identity
// of a cached HDRI file.
package model

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/glorpus-work/hdrget/pkg/errors"
)

// Resolution is an HDRI size tier such as "4k".
type Resolution string

// Supported resolution tiers.
const (
	Resolution1K  Resolution = "1k"
	Resolution2K  Resolution = "2k"
	Resolution4K  Resolution = "4k"
	Resolution8K  Resolution = "8k"
	Resolution16K Resolution = "16k"
)

// Format is an HDRI file encoding.
type Format string

// Supported encodings.
const (
	FormatHDR Format = "hdr"
	FormatEXR Format = "exr"
)

// ordered ascending by size
var resolutions = []Resolution{Resolution1K, Resolution2K, Resolution4K, Resolution8K, Resolution16K}

var formats = []Format{FormatHDR, FormatEXR}

// AllResolutions returns the supported tiers ordered from smallest to largest.
func AllResolutions() []Resolution {
	out := make([]Resolution, len(resolutions))
	copy(out, resolutions)
	return out
}

// AllFormats returns the supported encodings.
func AllFormats() []Format {
	out := make([]Format, len(formats))
	copy(out, formats)
	return out
}

// Rank returns the position of r in ascending size order, or -1 when r is
// not a supported tier.
func (r Resolution) Rank() int {
	for i, v := range resolutions {
		if v == r {
			return i
		}
	}
	return -1
}

// Valid reports whether r is a supported tier.
func (r Resolution) Valid() bool { return r.Rank() >= 0 }

func (r Resolution) String() string { return string(r) }

// Valid reports whether f is a supported encoding.
func (f Format) Valid() bool {
	for _, v := range formats {
		if v == f {
			return true
		}
	}
	return false
}

func (f Format) String() string { return string(f) }

// ParseResolution parses a tier name case-insensitively.
func ParseResolution(s string) (Resolution, error) {
	r := Resolution(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", errors.ErrInvalidResolutionValue(s, resolutionNames())
	}
	return r, nil
}

// ParseFormat parses an encoding name case-insensitively. A leading dot is
// accepted so file extensions parse too.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "."))
	if !f.Valid() {
		return "", errors.ErrInvalidFormatValue(s, formatNames())
	}
	return f, nil
}

func resolutionNames() []string {
	names := make([]string, len(resolutions))
	for i, r := range resolutions {
		names[i] = string(r)
	}
	return names
}

func formatNames() []string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return names
}

// AssetRef is what the resolver extracts from user input. Resolution and
// Format are hints and are empty when the input did not carry them.
type AssetRef struct {
	ID         string
	Resolution Resolution
	Format     Format
}

// FileRef identifies one cached file.
type FileRef struct {
	AssetID    string
	Resolution Resolution
	Format     Format
}

// FileName returns the flat cache file name "<asset>_<resolution>.<format>".
func (f FileRef) FileName() string {
	return f.AssetID + "_" + string(f.Resolution) + "." + string(f.Format)
}

func (f FileRef) String() string { return f.FileName() }

var assetIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidAssetID reports whether id is a plain slug that is safe to embed in
// a file name and URL path.
func ValidAssetID(id string) bool {
	return assetIDPattern.MatchString(id)
}

// Validate checks that every component of f is usable as a cache key.
func (f FileRef) Validate() error {
	if !ValidAssetID(f.AssetID) {
		return fmt.Errorf("%w: %q", errors.ErrInvalidInput, f.AssetID)
	}
	if !f.Resolution.Valid() {
		return errors.ErrInvalidResolutionValue(string(f.Resolution), resolutionNames())
	}
	if !f.Format.Valid() {
		return errors.ErrInvalidFormatValue(string(f.Format), formatNames())
	}
	return nil
}

var fileNamePattern = regexp.MustCompile(`^([A-Za-z0-9_-]+)_(\d+k)\.([a-z]+)$`)

// ParseFileName is the inverse of FileRef.FileName. It returns false for
// names that do not follow the cache naming scheme.
func ParseFileName(name string) (FileRef, bool) {
	m := fileNamePattern.FindStringSubmatch(name)
	if m == nil {
		return FileRef{}, false
	}
	ref := FileRef{AssetID: m[1], Resolution: Resolution(m[2]), Format: Format(m[3])}
	if !ref.Resolution.Valid() || !ref.Format.Valid() {
		return FileRef{}, false
	}
	return ref, true
}
