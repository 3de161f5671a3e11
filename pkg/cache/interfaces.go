package cache

import (
	"time"

	"github.com/glorpus-work/hdrget/pkg/model"
)

// Manager defines the cache operations used by the orchestrator and the CLI.
type Manager interface {
	PathFor(ref model.FileRef) (string, error)
	Lookup(ref model.FileRef) (string, bool)
	List() ([]Entry, error)
	Clean(options CleanOptions) (*CleanResult, error)
	GetInfo() (*Info, error)
	GetDirectory() string
	SetDirectory(dir string) error
}

// Entry is one cached HDRI file.
type Entry struct {
	Ref     model.FileRef
	Path    string
	Size    int64
	ModTime time.Time
}

// CleanOptions specifies what to remove. Partial removes leftover ".part"
// files of interrupted downloads; All removes every cached HDRI as well.
type CleanOptions struct {
	All     bool
	Partial bool
}

// CleanResult contains information about what was removed.
type CleanResult struct {
	TotalFreed   int64
	PartialFreed int64
	FilesFreed   int64
	Removed      int
}

// Info summarizes the cache directory.
type Info struct {
	Directory    string
	TotalSize    int64
	Files        int
	PartialSize  int64
	PartialFiles int
	Assets       int
}
