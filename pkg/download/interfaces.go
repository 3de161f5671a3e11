package download

import "context"

// ProgressFunc receives the number of bytes read so far and the declared
// total (0 when the server did not send one). Returning an error aborts the
// transfer.
type ProgressFunc func(read, total int64) error

// Manager defines the interface for probing and downloading HDRI files.
type Manager interface {
	// Reachable reports whether url answers with a success or redirect status.
	Reachable(ctx context.Context, url string) bool

	// Fetch streams url into dest and returns dest. On failure dest keeps
	// whatever it held before the call.
	Fetch(ctx context.Context, url, dest string, onProgress ProgressFunc) (string, error)
}
