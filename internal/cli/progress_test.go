package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressPrinter_Throttles(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressPrinter(&buf)

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return clock }

	require.NoError(t, p.Update(1024, 4096))
	require.NoError(t, p.Update(2048, 4096)) // same instant, dropped
	clock = clock.Add(ProgressInterval)
	require.NoError(t, p.Update(3072, 4096))
	require.NoError(t, p.Update(4096, 4096)) // completion is always printed

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "  1.0 KiB / 4.0 KiB (25%)", lines[0])
	assert.Equal(t, "  3.0 KiB / 4.0 KiB (75%)", lines[1])
	assert.Equal(t, "  4.0 KiB / 4.0 KiB (100%)", lines[2])
}

func TestProgressLine_UnknownTotal(t *testing.T) {
	assert.Equal(t, "  2.0 KiB downloaded", progressLine(2048, -1))
}
