package hook

import (
	"os"
	"path/filepath"

	"github.com/glorpus-work/hdrget/pkg/errors"
)

// ScriptExtension is the file extension of hook scripts.
const ScriptExtension = ".tengo"

// LoadHookFile reads a Tengo script from path and registers it as hookType.
// An empty path is a no-op.
func LoadHookFile(manager HookManager, hookType HookType, path string) error {
	if path == "" {
		return nil
	}
	if filepath.Ext(path) != ScriptExtension {
		return errors.Wrap(errors.ErrHookLoad, ErrUnsupportedHookFile(path).Error())
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(errors.ErrHookLoad, "%s: %v", path, err)
	}

	return manager.AddHook(Hook{Type: hookType, Content: string(content)})
}

// HookTemplate generates a template for a hook script.
func HookTemplate(hookType HookType) string {
	switch hookType {
	case PostAcquire:
		return `// Post-acquire hook
// This script runs after an HDRI was downloaded or found in the cache.
// Available variables:
// - assetID: string - Poly Haven asset identifier
// - resolution: string - tier of the file, e.g. "4k"
// - format: string - "hdr" or "exr"
// - path: string - absolute path of the cached file
// - category: string - asset category, empty when unknown
// Set err to a non-empty string to fail the command.

// Example: only accept outdoor skies
/*
fmt := import("fmt")
if category != "" && category != "outdoor" {
    err = "not an outdoor HDRI: " + assetID
}
fmt.println("using ", path)
*/`

	default:
		return "// Unknown hook type: " + string(hookType)
	}
}
