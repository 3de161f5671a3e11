package fsutil

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used under the user cache and config roots.
const AppName = "hdrget"

// GetCacheDir returns the default HDRI cache directory.
// On Linux: ~/.cache/hdrget/hdris
// On macOS: ~/Library/Caches/hdrget/hdris
// On Windows: %LocalAppData%\hdrget\hdris
func GetCacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, AppName, "hdris"), nil
}

// GetConfigDir returns the directory holding config.yaml and hook scripts.
func GetConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, AppName), nil
}
