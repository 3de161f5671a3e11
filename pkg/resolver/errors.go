package resolver

import (
	"fmt"

	"github.com/glorpus-work/hdrget/pkg/errors"
)

// ErrNoAssetID is returned when the input holds no recognizable asset slug.
var ErrNoAssetID = fmt.Errorf("%w: no asset identifier found", errors.ErrInvalidInput)
