// Package testutil provides a fake Poly Haven service for tests: a catalog
// API and a CDN on one httptest server.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glorpus-work/hdrget/internal/logger"
	"github.com/glorpus-work/hdrget/pkg/config"
	"github.com/glorpus-work/hdrget/pkg/model"
)

const cdnPrefix = "/file/ph-assets/HDRIs/"

var fixedModTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

// PolyHaven is an in-process stand-in for the catalog API and the CDN.
type PolyHaven struct {
	Server *httptest.Server

	mu              sync.Mutex
	categories      map[string]string
	listed          map[string][]model.FileRef
	files           map[string][]byte
	catalogDown     bool
	headUnsupported bool
	version         string
	requests        []string
}

// NewPolyHaven starts a fake service that is shut down with the test.
func NewPolyHaven(t *testing.T) *PolyHaven {
	t.Helper()
	ph := &PolyHaven{
		categories: make(map[string]string),
		listed:     make(map[string][]model.FileRef),
		files:      make(map[string][]byte),
	}
	ph.Server = httptest.NewServer(http.HandlerFunc(ph.serve))
	t.Cleanup(ph.Server.Close)
	return ph
}

// URL is the base URL of both the catalog and the CDN.
func (ph *PolyHaven) URL() string {
	return ph.Server.URL
}

// AddAsset registers an asset whose files are listed by the catalog and
// served by the CDN.
func (ph *PolyHaven) AddAsset(id, category string, refs ...model.FileRef) {
	ph.mu.Lock()
	defer ph.mu.Unlock()
	ph.categories[id] = category
	for _, ref := range refs {
		ref.AssetID = id
		ph.listed[id] = append(ph.listed[id], ref)
		ph.files[cdnPath(ref)] = Payload(ref)
	}
}

// AddUnlisted serves ref from the CDN without the catalog knowing about it.
func (ph *PolyHaven) AddUnlisted(ref model.FileRef) {
	ph.mu.Lock()
	defer ph.mu.Unlock()
	ph.files[cdnPath(ref)] = Payload(ref)
}

// RemoveFile makes the CDN answer 404 for ref while the catalog keeps
// listing it.
func (ph *PolyHaven) RemoveFile(ref model.FileRef) {
	ph.mu.Lock()
	defer ph.mu.Unlock()
	delete(ph.files, cdnPath(ref))
}

// SetCatalogDown makes every catalog request fail with 500.
func (ph *PolyHaven) SetCatalogDown(down bool) {
	ph.mu.Lock()
	defer ph.mu.Unlock()
	ph.catalogDown = down
}

// SetHEADUnsupported makes the CDN answer HEAD with 405.
func (ph *PolyHaven) SetHEADUnsupported(v bool) {
	ph.mu.Lock()
	defer ph.mu.Unlock()
	ph.headUnsupported = v
}

// SetVersion publishes text at /version.txt.
func (ph *PolyHaven) SetVersion(text string) {
	ph.mu.Lock()
	defer ph.mu.Unlock()
	ph.version = text
}

// Requests returns "METHOD /path" for every request served so far.
func (ph *PolyHaven) Requests() []string {
	ph.mu.Lock()
	defer ph.mu.Unlock()
	out := make([]string, len(ph.requests))
	copy(out, ph.requests)
	return out
}

// Count returns how many requests used method and a path starting with prefix.
func (ph *PolyHaven) Count(method, prefix string) int {
	n := 0
	for _, r := range ph.Requests() {
		m, p, _ := strings.Cut(r, " ")
		if m == method && strings.HasPrefix(p, prefix) {
			n++
		}
	}
	return n
}

// Payload is the deterministic body served for ref.
func Payload(ref model.FileRef) []byte {
	head := fmt.Sprintf("#?RADIANCE\n# %s\nFORMAT=32-bit_rle_rgbe\n\n-Y 4 +X 4\n", ref.FileName())
	return append([]byte(head), bytes.Repeat([]byte{0x02, 0x02, 0x00, 0x04}, 64)...)
}

func cdnPath(ref model.FileRef) string {
	return cdnPrefix + string(ref.Format) + "/" + string(ref.Resolution) + "/" + ref.FileName()
}

func (ph *PolyHaven) serve(w http.ResponseWriter, r *http.Request) {
	ph.mu.Lock()
	ph.requests = append(ph.requests, r.Method+" "+r.URL.Path)
	ph.mu.Unlock()

	switch {
	case strings.HasPrefix(r.URL.Path, "/id/"):
		ph.serveInfo(w, strings.TrimPrefix(r.URL.Path, "/id/"))
	case strings.HasPrefix(r.URL.Path, "/files/hdris/"):
		ph.serveFiles(w, strings.TrimPrefix(r.URL.Path, "/files/hdris/"))
	case strings.HasPrefix(r.URL.Path, cdnPrefix):
		ph.serveFile(w, r)
	case r.URL.Path == "/version.txt":
		ph.mu.Lock()
		version := ph.version
		ph.mu.Unlock()
		if version == "" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(version + "\n"))
	default:
		http.NotFound(w, r)
	}
}

func (ph *PolyHaven) serveInfo(w http.ResponseWriter, id string) {
	ph.mu.Lock()
	category, ok := ph.categories[id]
	down := ph.catalogDown
	ph.mu.Unlock()

	if down {
		http.Error(w, "unavailable", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"name": id, "categories": []string{category}})
}

func (ph *PolyHaven) serveFiles(w http.ResponseWriter, id string) {
	ph.mu.Lock()
	refs, ok := ph.listed[id]
	down := ph.catalogDown
	ph.mu.Unlock()

	if down {
		http.Error(w, "unavailable", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	payload := map[string]map[string]string{}
	for _, ref := range refs {
		f := string(ref.Format)
		if payload[f] == nil {
			payload[f] = map[string]string{}
		}
		payload[f][string(ref.Resolution)] = ph.Server.URL + cdnPath(ref)
	}
	writeJSON(w, payload)
}

func (ph *PolyHaven) serveFile(w http.ResponseWriter, r *http.Request) {
	ph.mu.Lock()
	body, ok := ph.files[r.URL.Path]
	headUnsupported := ph.headUnsupported
	ph.mu.Unlock()

	if r.Method == http.MethodHead && headUnsupported {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	http.ServeContent(w, r, filepath.Base(r.URL.Path), fixedModTime, bytes.NewReader(body))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("fake catalog encode failed", logger.Fields{"error": err.Error()})
	}
}

// SetupTestConfig writes a config file pointing at ph and cacheDir and
// returns its path.
func SetupTestConfig(t *testing.T, ph *PolyHaven, cacheDir string) string {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Settings.CacheDir = cacheDir
	cfg.Settings.CatalogURL = ph.URL()
	cfg.Settings.DownloadURL = ph.URL()
	cfg.Settings.VersionURL = ph.URL() + "/version.txt"

	configPath := filepath.Join(t.TempDir(), config.FileName)
	if err := cfg.SaveConfig(configPath); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	logger.Debugf("Wrote test config to %s", configPath)
	return configPath
}
