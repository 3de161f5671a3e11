package hook

import (
	"context"
	"sync"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/glorpus-work/hdrget/pkg/errors"
)

// DefaultTimeout bounds a single script run.
const DefaultTimeout = 30 * time.Second

// TengoExecutor handles the execution of Tengo scripts.
type TengoExecutor struct {
	scripts map[HookType]string
	timeout time.Duration
	mutex   sync.RWMutex
}

// NewTengoExecutor creates a new Tengo script executor.
func NewTengoExecutor() *TengoExecutor {
	return &TengoExecutor{
		scripts: make(map[HookType]string),
		timeout: DefaultTimeout,
	}
}

// Execute runs the specified hook type with the given context.
func (e *TengoExecutor) Execute(hookType HookType, ctx HookContext) error {
	e.mutex.RLock()
	script, exists := e.scripts[hookType]
	timeout := e.timeout
	e.mutex.RUnlock()

	if !exists {
		return nil
	}

	scriptInstance := tengo.NewScript([]byte(script))
	scriptInstance.SetImports(stdlib.GetModuleMap("fmt", "os", "text", "times"))

	_ = scriptInstance.Add("assetID", ctx.AssetID)
	_ = scriptInstance.Add("resolution", ctx.Resolution)
	_ = scriptInstance.Add("format", ctx.Format)
	_ = scriptInstance.Add("path", ctx.Path)
	_ = scriptInstance.Add("category", ctx.Category)
	_ = scriptInstance.Add("err", "")

	for k, v := range ctx.Vars {
		if err := scriptInstance.Add(k, v); err != nil {
			return errors.Wrapf(errors.ErrHookExecution, "%s: variable %s: %v", hookType, k, err)
		}
	}

	runCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	compiled, err := scriptInstance.RunContext(runCtx)
	if err != nil {
		return errors.Wrapf(errors.ErrHookExecution, "%s: %v", hookType, err)
	}

	errVar := compiled.Get("err")
	if errVar != nil {
		switch v := errVar.Value().(type) {
		case error:
			return errors.Wrap(errors.ErrHookScript, v.Error())
		case string:
			if v != "" {
				return errors.Wrap(errors.ErrHookScript, v)
			}
		}
	}

	return nil
}

// SetTimeout changes the per-run limit. Non-positive values are ignored.
func (e *TengoExecutor) SetTimeout(timeout time.Duration) {
	if timeout <= 0 {
		return
	}
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.timeout = timeout
}

// AddScript adds or updates a script for the specified hook type.
func (e *TengoExecutor) AddScript(hookType HookType, script string) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.scripts[hookType] = script
}

// HasScript checks if a script exists for the specified hook type.
func (e *TengoExecutor) HasScript(hookType HookType) bool {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	_, exists := e.scripts[hookType]
	return exists
}
