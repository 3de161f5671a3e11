// Package archive packs the HDRI cache into a tar.gz file and unpacks such
// files back into a cache directory.
package archive

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/glorpus-work/hdrget/pkg/fsutil"
	"github.com/glorpus-work/hdrget/pkg/model"
	"github.com/mholt/archives"
)

var (
	// ErrEmptyCache is returned by Export when there is nothing to pack.
	ErrEmptyCache = fmt.Errorf("cache holds no HDRI files")

	// ErrNotArchive is returned by Import for files it cannot unpack.
	ErrNotArchive = fmt.Errorf("not a supported archive")
)

// Manager handles archive extraction and creation operations.
type Manager struct{}

// NewManager creates a new Manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// ImportResult lists what an import did with each archive entry.
type ImportResult struct {
	Imported []string
	Existing []string
	Skipped  []string
}

// Export writes every cached HDRI in cacheDir into a tar.gz archive at
// archivePath. Partial downloads and foreign files are left out. It returns
// the number of files packed.
func (am *Manager) Export(ctx context.Context, cacheDir, archivePath string) (int, error) {
	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read cache directory %s: %w", cacheDir, err)
	}

	names := make(map[string]string)
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if _, ok := model.ParseFileName(e.Name()); !ok {
			continue
		}
		names[filepath.Join(cacheDir, e.Name())] = e.Name()
	}
	if len(names) == 0 {
		return 0, ErrEmptyCache
	}

	archiveFiles, err := archives.FilesFromDisk(ctx, nil, names)
	if err != nil {
		return 0, fmt.Errorf("failed to read files from disk: %w", err)
	}

	if err := fsutil.EnsureFileDir(archivePath); err != nil {
		return 0, fmt.Errorf("failed to create archive directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(archivePath), filepath.Base(archivePath)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("failed to create output file %s: %w", archivePath, err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	format := archives.CompressedArchive{
		Compression: archives.Gz{},
		Archival:    archives.Tar{},
	}
	if err := format.Archive(ctx, tmp, archiveFiles); err != nil {
		_ = tmp.Close()
		return 0, fmt.Errorf("failed to create archive: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return 0, fmt.Errorf("failed to sync archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close archive: %w", err)
	}
	if err := fsutil.Move(tmpPath, archivePath); err != nil {
		return 0, fmt.Errorf("failed to finalize archive: %w", err)
	}

	return len(names), nil
}

// Import extracts the cache files found in archivePath into cacheDir.
// Entries whose base name does not follow the cache naming scheme are
// skipped, and files already present in the cache are kept as they are.
func (am *Manager) Import(ctx context.Context, archivePath, cacheDir string) (*ImportResult, error) {
	if err := identify(ctx, archivePath); err != nil {
		return nil, err
	}
	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive file: %w", err)
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	if err := fsutil.EnsureDir(cacheDir); err != nil {
		return nil, fmt.Errorf("failed to create destination directory: %w", err)
	}

	result := &ImportResult{}
	walkFn := func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		return am.importEntry(fsys, p, d, cacheDir, result)
	}

	if err := fs.WalkDir(fsys, ".", walkFn); err != nil {
		return result, err
	}
	return result, nil
}

// identify makes sure archivePath is an archive format we can extract.
func identify(ctx context.Context, archivePath string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive file: %w", err)
	}
	defer func() { _ = f.Close() }()

	format, _, err := archives.Identify(ctx, "", f)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNotArchive, archivePath, err)
	}
	if _, ok := format.(archives.Extractor); !ok {
		return fmt.Errorf("%w: %s", ErrNotArchive, archivePath)
	}
	return nil
}

func (am *Manager) importEntry(fsys fs.FS, p string, d fs.DirEntry, cacheDir string, result *ImportResult) error {
	name := path.Base(p)
	ref, ok := model.ParseFileName(name)
	if !ok || !d.Type().IsRegular() {
		result.Skipped = append(result.Skipped, p)
		return nil
	}

	targetPath := filepath.Join(cacheDir, ref.FileName())
	if fsutil.IsNonEmptyFile(targetPath) {
		result.Existing = append(result.Existing, ref.FileName())
		return nil
	}

	info, err := d.Info()
	if err != nil {
		return fmt.Errorf("failed to get file info for %s: %w", p, err)
	}
	if err := am.writeRegularFile(fsys, p, targetPath, info); err != nil {
		return err
	}
	result.Imported = append(result.Imported, ref.FileName())
	return nil
}

// writeRegularFile copies an archive entry next to targetPath and renames
// it into place so the cache never sees a half-written file.
func (am *Manager) writeRegularFile(fsys fs.FS, p, targetPath string, info fs.FileInfo) error {
	srcFile, err := fsys.Open(p)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", p, err)
	}
	defer func() { _ = srcFile.Close() }()

	dstFile, err := os.CreateTemp(filepath.Dir(targetPath), filepath.Base(targetPath)+".*.part")
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", targetPath, err)
	}
	tmpPath := dstFile.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return fmt.Errorf("failed to copy file %s: %w", p, err)
	}
	if err := dstFile.Close(); err != nil {
		return fmt.Errorf("failed to close file %s: %w", targetPath, err)
	}
	if err := os.Chmod(tmpPath, fsutil.FileModeDefault); err != nil {
		return fmt.Errorf("failed to set permissions for %s: %w", targetPath, err)
	}
	if err := os.Chtimes(tmpPath, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("failed to set modification time for %s: %w", targetPath, err)
	}
	return fsutil.Move(tmpPath, targetPath)
}
