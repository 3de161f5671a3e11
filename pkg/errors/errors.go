// Package errors holds the sentinel errors shared across hdrget packages and
// small helpers for wrapping them with context.
package errors

import "fmt"

// Common error types.
var (
	// Input errors.
	ErrInvalidInput      = fmt.Errorf("invalid asset input")
	ErrInvalidResolution = fmt.Errorf("unsupported resolution")
	ErrInvalidFormat     = fmt.Errorf("unsupported format")

	// Config errors.
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")
	ErrConfigDirectory   = fmt.Errorf("failed to create config directory")
	ErrConfigFileCreate  = fmt.Errorf("failed to create config file")
	ErrConfigFileRename  = fmt.Errorf("failed to rename temporary config file")
	ErrConfigFileExists  = fmt.Errorf("configuration file already exists")
	ErrConfigEnv         = fmt.Errorf("failed to apply environment overrides")
	ErrUnknownConfigKey  = fmt.Errorf("unknown configuration key")

	// Network errors.
	ErrInvalidURL      = fmt.Errorf("invalid URL")
	ErrDownloadFailed  = fmt.Errorf("download failed")
	ErrUnexpectedReply = fmt.Errorf("unexpected response")

	// Acquisition errors.
	ErrNotAcquired = fmt.Errorf("no HDRI file could be acquired")

	// Hook errors.
	ErrHookExecution = fmt.Errorf("error executing hook")
	ErrHookScript    = fmt.Errorf("hook script error")
	ErrHookLoad      = fmt.Errorf("failed to load hook")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ErrInvalidResolutionValue reports a resolution outside the supported tiers.
func ErrInvalidResolutionValue(value string, valid []string) error {
	return fmt.Errorf("%w %q (valid: %v)", ErrInvalidResolution, value, valid)
}

// ErrInvalidFormatValue reports a format outside the supported encodings.
func ErrInvalidFormatValue(value string, valid []string) error {
	return fmt.Errorf("%w %q (valid: %v)", ErrInvalidFormat, value, valid)
}

// ErrUnknownConfigKeyWithName names the key that was not recognized.
func ErrUnknownConfigKeyWithName(key string) error {
	return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
}
