package orchestrator

import "fmt"

// ErrNotConfigured is returned when a collaborator is missing.
var ErrNotConfigured = fmt.Errorf("orchestrator is not fully configured")
