// Package download probes and fetches remote HDRI files into the cache.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	pkgerrors "github.com/glorpus-work/hdrget/pkg/errors"
	"github.com/glorpus-work/hdrget/pkg/fsutil"
	phttp "github.com/glorpus-work/hdrget/pkg/http"
)

const (
	// ChunkSize is the read size of a transfer and the progress granularity.
	ChunkSize = 256 * 1024

	// DefaultTransferTimeout bounds a whole file transfer.
	DefaultTransferTimeout = 10 * time.Minute

	// DefaultProbeTimeout bounds a reachability probe.
	DefaultProbeTimeout = 8 * time.Second

	probeRange = "bytes=0-1023"
)

// ManagerImpl is an HTTP download manager. Transfers write to a ".part"
// sibling of the destination and are renamed into place on success.
type ManagerImpl struct {
	client    *http.Client
	probe     *http.Client
	userAgent string
}

// NewManager creates a new download manager. Non-positive timeouts use the
// defaults.
func NewManager(transferTimeout, probeTimeout time.Duration, userAgent string) *ManagerImpl {
	if transferTimeout <= 0 {
		transferTimeout = DefaultTransferTimeout
	}
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}
	if userAgent == "" {
		userAgent = phttp.DefaultUserAgent
	}
	return &ManagerImpl{
		client:    &http.Client{Timeout: transferTimeout},
		probe:     &http.Client{Timeout: probeTimeout},
		userAgent: userAgent,
	}
}

// Reachable sends a HEAD request and falls back to a small ranged GET when
// the host does not support HEAD.
func (m *ManagerImpl) Reachable(ctx context.Context, url string) bool {
	status, err := m.probeStatus(ctx, http.MethodHead, url)
	if err == nil && isReachableStatus(status) {
		return true
	}
	if err == nil && !headUnsupported(status) {
		return false
	}

	status, err = m.probeStatus(ctx, http.MethodGet, url)
	return err == nil && isReachableStatus(status)
}

func (m *ManagerImpl) probeStatus(ctx context.Context, method, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, http.NoBody)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", m.userAgent)
	if method == http.MethodGet {
		req.Header.Set("Range", probeRange)
	}
	resp, err := m.probe.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

func isReachableStatus(code int) bool {
	return code >= 200 && code < 400
}

func headUnsupported(code int) bool {
	switch code {
	case http.StatusForbidden, http.StatusMethodNotAllowed, http.StatusNotImplemented:
		return true
	}
	return false
}

// Fetch downloads url into dest. The body is streamed in ChunkSize reads and
// onProgress, when set, is called after each one.
func (m *ManagerImpl) Fetch(ctx context.Context, url, dest string, onProgress ProgressFunc) (string, error) {
	if dest == "" {
		return "", fmt.Errorf("empty destination: %w", pkgerrors.ErrDownloadFailed)
	}
	resp, err := m.doRequest(ctx, url)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}

	tmpPath, err := writeBodyToTemp(ctx, resp.Body, dest, total, onProgress)
	if err != nil {
		return "", err
	}
	if err := checkContent(tmpPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}
	if err := finalizeFile(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}
	return dest, nil
}

func (m *ManagerImpl) doRequest(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.ErrInvalidURL, err.Error())
	}
	req.Header.Set("User-Agent", m.userAgent)
	resp, err := m.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, pkgerrors.Wrapf(pkgerrors.ErrDownloadFailed, "%s: %v", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code %d from %s: %w", resp.StatusCode, url, pkgerrors.ErrDownloadFailed)
	}
	return resp, nil
}

func writeBodyToTemp(ctx context.Context, body io.Reader, dest string, total int64, onProgress ProgressFunc) (tmpPath string, err error) {
	if err := fsutil.EnsureFileDir(dest); err != nil {
		return "", pkgerrors.Wrap(err, "could not create download dir")
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.part")
	if err != nil {
		return "", pkgerrors.Wrap(err, "could not create temp file")
	}
	tmpPath = tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	buf := make([]byte, ChunkSize)
	var read int64
	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		n, rerr := io.ReadFull(body, buf)
		if n > 0 {
			if _, werr := tmp.Write(buf[:n]); werr != nil {
				return "", pkgerrors.Wrap(werr, "could not write file")
			}
			read += int64(n)
			if onProgress != nil {
				if perr := onProgress(read, total); perr != nil {
					return "", fmt.Errorf("%w: %v", ErrAborted, perr)
				}
			}
		}
		if rerr == io.EOF || rerr == io.ErrUnexpectedEOF {
			break
		}
		if rerr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			return "", pkgerrors.Wrapf(pkgerrors.ErrDownloadFailed, "read body: %v", rerr)
		}
	}

	if total > 0 && read != total {
		return "", fmt.Errorf("short body: got %d of %d bytes: %w", read, total, pkgerrors.ErrDownloadFailed)
	}
	if read == 0 {
		return "", fmt.Errorf("empty body: %w", pkgerrors.ErrDownloadFailed)
	}
	if err := tmp.Sync(); err != nil {
		return "", pkgerrors.Wrap(err, "could not sync file")
	}
	if err := tmp.Close(); err != nil {
		return "", pkgerrors.Wrap(err, "could not close file")
	}
	return tmpPath, nil
}

var rejectedContent = []string{"text/html", "application/xml", "application/json"}

// checkContent rejects text bodies such as HTML error pages.
func checkContent(path string) error {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return pkgerrors.Wrap(err, "could not inspect download")
	}
	if mimetype.EqualsAny(mt.String(), rejectedContent...) {
		return fmt.Errorf("%w (%s)", ErrUnexpectedContent, mt.String())
	}
	return nil
}

func finalizeFile(tmpPath, dest string) error {
	if err := os.Chmod(tmpPath, fsutil.FileModeDefault); err != nil {
		return pkgerrors.Wrap(err, "could not set permissions")
	}
	if err := fsutil.Move(tmpPath, dest); err != nil {
		return pkgerrors.Wrap(err, "could not finalize file")
	}
	return nil
}
