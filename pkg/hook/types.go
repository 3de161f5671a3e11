package hook

// HookType represents the type of hook.
type HookType string

// Supported hook types.
const (
	PostAcquire HookType = "post-acquire"
)

// Hook represents a hook script with its type and content.
type Hook struct {
	Type    HookType
	Content string
}

// HookContext carries the acquired file to the script.
type HookContext struct {
	AssetID    string
	Resolution string
	Format     string
	Path       string
	Category   string
	Vars       map[string]interface{}
}

// HookManager defines the interface for managing hooks.
type HookManager interface {
	// Execute runs the specified hook type with the given context
	Execute(hookType HookType, ctx HookContext) error

	// AddHook adds a new hook
	AddHook(hook Hook) error

	// HasHook checks if a hook of the specified type exists
	HasHook(hookType HookType) bool
}
