package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/glorpus-work/hdrget/internal/logger"
	"github.com/glorpus-work/hdrget/pkg/orchestrator"
)

// progressPrinter renders transfer progress as plain lines, at most one per
// ProgressInterval plus a final line when the transfer completes.
type progressPrinter struct {
	mu   sync.Mutex
	out  io.Writer
	last time.Time
	now  func() time.Time
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out, now: time.Now}
}

// Update implements download.ProgressFunc. It never aborts the transfer.
func (p *progressPrinter) Update(read, total int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	complete := total > 0 && read >= total
	if !complete && now.Sub(p.last) < ProgressInterval {
		return nil
	}
	p.last = now

	_, _ = fmt.Fprintln(p.out, progressLine(read, total))
	return nil
}

func progressLine(read, total int64) string {
	if total <= 0 {
		return fmt.Sprintf("  %s downloaded", humanize.IBytes(uint64(read)))
	}
	pct := float64(read) * 100 / float64(total)
	return fmt.Sprintf("  %s / %s (%.0f%%)", humanize.IBytes(uint64(read)), humanize.IBytes(uint64(total)), pct)
}

// logEvent forwards orchestrator events to the logger.
func logEvent(e orchestrator.Event) {
	fields := logger.Fields{"phase": e.Phase, "asset": e.ID}
	if e.Msg != "" {
		fields["detail"] = e.Msg
	}

	switch e.Phase {
	case orchestrator.PhaseCached, orchestrator.PhaseDownloading:
		logger.Info("Acquiring HDRI", fields)
	case orchestrator.PhaseExhausted:
		logger.Warn("No candidate could be acquired", fields)
	default:
		logger.Debug("Acquisition progress", fields)
	}
}
