package fsutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// Move renames the file src to dst, replacing dst if it exists.
// os.Rename is tried first so the replacement is atomic on one filesystem.
// When src and dst live on different filesystems the file is copied next to
// dst and renamed from there, so dst is still never observed half-written.
func Move(src, dst string) error {
	if src == "" || dst == "" {
		return fmt.Errorf("source and destination paths cannot be empty")
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat source %s: %w", src, err)
	}
	if srcInfo.IsDir() {
		return fmt.Errorf("cannot move directory %s: only regular files are supported", src)
	}
	if err := EnsureFileDir(dst); err != nil {
		return fmt.Errorf("failed to create destination directory for %s: %w", dst, err)
	}

	err = os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !isCrossFilesystemError(err) {
		return fmt.Errorf("failed to rename %s to %s: %w", src, dst, err)
	}
	return moveAcrossFilesystems(src, dst, srcInfo)
}

// isCrossFilesystemError reports whether a rename failed with EXDEV.
func isCrossFilesystemError(err error) bool {
	if err == nil {
		return false
	}

	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		var errno syscall.Errno
		if errors.As(linkErr.Err, &errno) {
			return errno == syscall.EXDEV
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "cross-device") || strings.Contains(msg, "cross device")
}

// moveAcrossFilesystems stages the copy under a ".part" name beside dst, so
// an interrupted move leaves a file that cache cleaning recognizes.
func moveAcrossFilesystems(src, dst string, srcInfo os.FileInfo) error {
	staging, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*.part")
	if err != nil {
		return fmt.Errorf("failed to create staging file for %s: %w", dst, err)
	}
	stagingName := staging.Name()

	err = copyInto(staging, src)
	if closeErr := staging.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close %s: %w", stagingName, closeErr)
	}
	if err != nil {
		_ = os.Remove(stagingName)
		return err
	}
	if err := os.Chmod(stagingName, srcInfo.Mode().Perm()); err != nil {
		_ = os.Remove(stagingName)
		return fmt.Errorf("failed to set permissions on %s: %w", stagingName, err)
	}
	_ = os.Chtimes(stagingName, srcInfo.ModTime(), srcInfo.ModTime())

	if err := os.Rename(stagingName, dst); err != nil {
		_ = os.Remove(stagingName)
		return fmt.Errorf("failed to rename %s to %s: %w", stagingName, dst, err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("failed to remove source file %s after copy: %w", src, err)
	}
	return nil
}

// Copy copies the contents of srcFile to dstFile, truncating dstFile.
func Copy(srcFile, dstFile string) error {
	if _, err := os.Stat(srcFile); err != nil {
		return fmt.Errorf("failed to open source file %s: %w", srcFile, err)
	}

	dst, err := os.OpenFile(dstFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, FileModeDefault)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", dstFile, err)
	}

	if err := copyInto(dst, srcFile); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

// copyInto writes the contents of srcFile to dst and syncs it. dst is left open.
func copyInto(dst *os.File, srcFile string) error {
	src, err := os.Open(srcFile)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", srcFile, err)
	}
	defer func() { _ = src.Close() }()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy from %s to %s: %w", srcFile, dst.Name(), err)
	}
	if err := dst.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", dst.Name(), err)
	}
	return nil
}
