package hook_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glorpus-work/hdrget/pkg/errors"
	"github.com/glorpus-work/hdrget/pkg/hook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleContext() hook.HookContext {
	return hook.HookContext{
		AssetID:    "rocks",
		Resolution: "4k",
		Format:     "hdr",
		Path:       "/cache/rocks_4k.hdr",
		Category:   "outdoor",
	}
}

func TestNewHookManager(t *testing.T) {
	manager := hook.NewHookManager()
	assert.NotNil(t, manager)
	assert.False(t, manager.HasHook(hook.PostAcquire))
}

func TestExecute_NoHookIsNoop(t *testing.T) {
	manager := hook.NewHookManager()
	assert.NoError(t, manager.Execute(hook.PostAcquire, sampleContext()))
}

func TestExecute(t *testing.T) {
	tests := []struct {
		name     string
		script   string
		vars     map[string]interface{}
		sentinel error
	}{
		{
			name:   "empty script",
			script: `// nothing`,
		},
		{
			name: "reads variables",
			script: `
if assetID != "rocks" || resolution != "4k" || format != "hdr" || category != "outdoor" {
	err = "unexpected context"
}
if path != "/cache/rocks_4k.hdr" {
	err = "unexpected path"
}`,
		},
		{
			name:   "custom variables",
			script: `if project != "lookdev" { err = "missing project" }`,
			vars:   map[string]interface{}{"project": "lookdev"},
		},
		{
			name: "stdlib import",
			script: `
text := import("text")
if !text.has_suffix(path, "." + format) { err = "bad suffix" }`,
		},
		{
			name:     "script sets err",
			script:   `err = "refusing " + assetID`,
			sentinel: errors.ErrHookScript,
		},
		{
			name:     "compile error",
			script:   `this is not tengo`,
			sentinel: errors.ErrHookExecution,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := hook.NewHookManager()
			require.NoError(t, manager.AddHook(hook.Hook{Type: hook.PostAcquire, Content: tt.script}))

			ctx := sampleContext()
			ctx.Vars = tt.vars
			err := manager.Execute(hook.PostAcquire, ctx)

			if tt.sentinel == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestExecute_ScriptErrorMessage(t *testing.T) {
	manager := hook.NewHookManager()
	require.NoError(t, manager.AddHook(hook.Hook{Type: hook.PostAcquire, Content: `err = "refusing " + assetID`}))

	err := manager.Execute(hook.PostAcquire, sampleContext())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing rocks")
}

func TestExecute_Timeout(t *testing.T) {
	manager := hook.NewHookManager()
	manager.SetTimeout(50 * time.Millisecond)
	require.NoError(t, manager.AddHook(hook.Hook{Type: hook.PostAcquire, Content: `for {}`}))

	err := manager.Execute(hook.PostAcquire, sampleContext())
	assert.ErrorIs(t, err, errors.ErrHookExecution)
}

func TestAddHook(t *testing.T) {
	manager := hook.NewHookManager()

	assert.ErrorIs(t, manager.AddHook(hook.Hook{Content: "x := 1"}), hook.ErrHookTypeEmpty)
	assert.False(t, manager.HasHook(hook.PostAcquire))

	require.NoError(t, manager.AddHook(hook.Hook{Type: hook.PostAcquire, Content: "x := 1"}))
	assert.True(t, manager.HasHook(hook.PostAcquire))
}

func TestLoadHookFile(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "apply.tengo")
	require.NoError(t, os.WriteFile(script, []byte(`err = "loaded " + format`), 0o644))
	other := filepath.Join(dir, "apply.sh")
	require.NoError(t, os.WriteFile(other, []byte("echo"), 0o644))

	t.Run("empty path", func(t *testing.T) {
		manager := hook.NewHookManager()
		require.NoError(t, hook.LoadHookFile(manager, hook.PostAcquire, ""))
		assert.False(t, manager.HasHook(hook.PostAcquire))
	})

	t.Run("tengo file", func(t *testing.T) {
		manager := hook.NewHookManager()
		require.NoError(t, hook.LoadHookFile(manager, hook.PostAcquire, script))
		require.True(t, manager.HasHook(hook.PostAcquire))

		err := manager.Execute(hook.PostAcquire, sampleContext())
		assert.ErrorIs(t, err, errors.ErrHookScript)
		assert.Contains(t, err.Error(), "loaded hdr")
	})

	t.Run("wrong extension", func(t *testing.T) {
		err := hook.LoadHookFile(hook.NewHookManager(), hook.PostAcquire, other)
		assert.ErrorIs(t, err, errors.ErrHookLoad)
	})

	t.Run("missing file", func(t *testing.T) {
		err := hook.LoadHookFile(hook.NewHookManager(), hook.PostAcquire, filepath.Join(dir, "missing.tengo"))
		assert.ErrorIs(t, err, errors.ErrHookLoad)
	})
}

func TestHookTemplate(t *testing.T) {
	assert.Contains(t, hook.HookTemplate(hook.PostAcquire), "assetID")
	assert.Contains(t, hook.HookTemplate("bogus"), "Unknown hook type")
}

func TestHookTemplate_RunsAsIs(t *testing.T) {
	manager := hook.NewHookManager()
	require.NoError(t, manager.AddHook(hook.Hook{Type: hook.PostAcquire, Content: hook.HookTemplate(hook.PostAcquire)}))

	assert.NoError(t, manager.Execute(hook.PostAcquire, sampleContext()))
}
