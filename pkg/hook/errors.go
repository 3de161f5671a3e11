package hook

import "fmt"

// ErrHookTypeEmpty is returned when a hook type is empty.
var ErrHookTypeEmpty = fmt.Errorf("hook type cannot be empty")

// ErrUnsupportedHookFile is returned for scripts that are not Tengo files.
func ErrUnsupportedHookFile(path string) error {
	return fmt.Errorf("unsupported hook file (want %s): %s", ScriptExtension, path)
}
