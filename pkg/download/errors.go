package download

import (
	"fmt"

	"github.com/glorpus-work/hdrget/pkg/errors"
)

var (
	// ErrAborted is returned when the progress callback asks to stop.
	ErrAborted = fmt.Errorf("download aborted")

	// ErrUnexpectedContent is returned when the body is not binary image data,
	// typically an HTML error page served with status 200.
	ErrUnexpectedContent = fmt.Errorf("%w: unexpected content", errors.ErrDownloadFailed)
)
