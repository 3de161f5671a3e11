// Package cache owns the on-disk HDRI cache: a single flat directory holding
// files named "<asset>_<resolution>.<format>".
package cache

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/glorpus-work/hdrget/pkg/errors"
	"github.com/glorpus-work/hdrget/pkg/fsutil"
	"github.com/glorpus-work/hdrget/pkg/model"
	"github.com/samber/lo"
)

// PartialSuffix marks a download still in flight.
const PartialSuffix = ".part"

// DefaultManager implements Manager on the local filesystem. The root
// directory is the only mutable state and may be swapped at runtime with
// SetDirectory; files fetched under an earlier root are left where they are.
type DefaultManager struct {
	mu        sync.RWMutex
	directory string
}

// NewManager creates a cache manager rooted at directory. The directory is
// created lazily by PathFor.
func NewManager(directory string) *DefaultManager {
	return &DefaultManager{directory: directory}
}

// NewDefaultManager creates a cache manager rooted at the user cache directory.
func NewDefaultManager() (*DefaultManager, error) {
	cacheDir, err := fsutil.GetCacheDir()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get user cache directory")
	}
	return NewManager(cacheDir), nil
}

// GetDirectory returns the cache root.
func (cm *DefaultManager) GetDirectory() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.directory
}

// SetDirectory redirects future lookups to dir.
func (cm *DefaultManager) SetDirectory(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return ErrCacheDirectory
	}
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.directory = dir
	return nil
}

// PathFor returns the deterministic path of ref under the current root and
// makes sure the root exists.
func (cm *DefaultManager) PathFor(ref model.FileRef) (string, error) {
	if err := ref.Validate(); err != nil {
		return "", err
	}
	dir := cm.GetDirectory()
	if dir == "" {
		return "", ErrCacheDirectory
	}
	if err := fsutil.EnsureDir(dir); err != nil {
		return "", errors.Wrapf(err, "failed to create cache directory %s", dir)
	}
	return filepath.Join(dir, ref.FileName()), nil
}

// Lookup returns the path of ref and whether a non-empty file is already
// there. It never creates directories.
func (cm *DefaultManager) Lookup(ref model.FileRef) (string, bool) {
	if ref.Validate() != nil {
		return "", false
	}
	path := filepath.Join(cm.GetDirectory(), ref.FileName())
	return path, fsutil.IsNonEmptyFile(path)
}

// List returns the cached files ordered by asset, format and tier. Partial
// downloads and foreign files are skipped.
func (cm *DefaultManager) List() ([]Entry, error) {
	dir := cm.GetDirectory()
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to read cache directory %s", dir)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !de.Type().IsRegular() {
			continue
		}
		ref, ok := model.ParseFileName(de.Name())
		if !ok {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Ref:     ref,
			Path:    filepath.Join(dir, de.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].Ref, entries[j].Ref
		if a.AssetID != b.AssetID {
			return a.AssetID < b.AssetID
		}
		if a.Format != b.Format {
			return a.Format < b.Format
		}
		return a.Resolution.Rank() < b.Resolution.Rank()
	})
	return entries, nil
}

// GetInfo returns a summary of the cache directory.
func (cm *DefaultManager) GetInfo() (*Info, error) {
	info := &Info{Directory: cm.GetDirectory()}

	entries, err := cm.List()
	if err != nil {
		return nil, errors.Wrap(ErrCacheInfo, err.Error())
	}
	for _, e := range entries {
		info.TotalSize += e.Size
		info.Files++
	}
	info.Assets = len(lo.UniqBy(entries, func(e Entry) string { return e.Ref.AssetID }))

	partials, err := cm.partialFiles()
	if err != nil {
		return nil, errors.Wrap(ErrCacheInfo, err.Error())
	}
	for _, p := range partials {
		info.PartialSize += p.size
		info.PartialFiles++
	}
	info.TotalSize += info.PartialSize

	return info, nil
}

// Clean removes partial downloads and, with All, every cached HDRI. With no
// option set only partial downloads are removed. A missing root is not an
// error.
func (cm *DefaultManager) Clean(options CleanOptions) (*CleanResult, error) {
	if !options.All && !options.Partial {
		options.Partial = true
	}
	result := &CleanResult{}

	partials, err := cm.partialFiles()
	if err != nil {
		return nil, errors.Wrap(ErrCacheClean, err.Error())
	}
	for _, p := range partials {
		if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrCacheClean, "remove %s: %v", p.path, err)
		}
		result.PartialFreed += p.size
		result.Removed++
	}

	if options.All {
		entries, err := cm.List()
		if err != nil {
			return nil, errors.Wrap(ErrCacheClean, err.Error())
		}
		for _, e := range entries {
			if err := os.Remove(e.Path); err != nil && !os.IsNotExist(err) {
				return nil, errors.Wrapf(ErrCacheClean, "remove %s: %v", e.Path, err)
			}
			result.FilesFreed += e.Size
			result.Removed++
		}
	}

	result.TotalFreed = result.PartialFreed + result.FilesFreed
	return result, nil
}

type partialFile struct {
	path string
	size int64
}

func (cm *DefaultManager) partialFiles() ([]partialFile, error) {
	dir := cm.GetDirectory()
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []partialFile
	for _, de := range dirEntries {
		if !de.Type().IsRegular() || !strings.HasSuffix(de.Name(), PartialSuffix) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		out = append(out, partialFile{path: filepath.Join(dir, de.Name()), size: info.Size()})
	}
	return out, nil
}
