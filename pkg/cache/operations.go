package cache

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/glorpus-work/hdrget/internal/logger"
)

// Operation wraps a Manager and renders results for the command line.
type Operation struct {
	manager Manager
}

// NewOperation creates a new cache operation instance.
func NewOperation(manager Manager) *Operation {
	return &Operation{manager: manager}
}

// Clean cleans the cache and returns a human-readable summary.
func (op *Operation) Clean(all, partial bool) (string, error) {
	options := CleanOptions{All: all, Partial: partial}
	logger.Debug("Cleaning cache", logger.Fields{"all": all, "partial": partial})

	result, err := op.manager.Clean(options)
	if err != nil {
		return "", err
	}

	if result.Removed == 0 {
		return "No files were removed from the cache.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Successfully cleaned cache. Removed %d files, freed %s.",
		result.Removed, formatBytes(result.TotalFreed))
	if result.PartialFreed > 0 {
		fmt.Fprintf(&b, "\n- Partial downloads: %s", formatBytes(result.PartialFreed))
	}
	if result.FilesFreed > 0 {
		fmt.Fprintf(&b, "\n- HDRIs: %s", formatBytes(result.FilesFreed))
	}
	return b.String(), nil
}

// GetInfo returns a human-readable cache summary.
func (op *Operation) GetInfo() (string, error) {
	info, err := op.manager.GetInfo()
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`Cache Information:
  Directory:         %s
  Total Size:        %s
  HDRIs:             %d files from %d assets
  Partial downloads: %s (%d files)`,
		info.Directory,
		formatBytes(info.TotalSize),
		info.Files,
		info.Assets,
		formatBytes(info.PartialSize),
		info.PartialFiles,
	), nil
}

// GetDirectory returns the cache directory path.
func (op *Operation) GetDirectory() string {
	return op.manager.GetDirectory()
}

func formatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
