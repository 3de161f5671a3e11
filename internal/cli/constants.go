package cli

import "time"

// Default values for CLI output.
const (
	// TabWidth is the width of tabs in formatted output.
	TabWidth = 2
	// ProgressInterval is the minimum delay between two progress lines.
	ProgressInterval = 500 * time.Millisecond
	// Number of arguments expected by the config set command.
	setCommandArgs = 2
)
