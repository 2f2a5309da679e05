package engine

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// progressReporter manages one progress bar per table, falling back to
// plain structured log lines when stdout is not a terminal — the same
// isatty-gated choice the vjache-cie example makes before handing a
// *progressbar.ProgressBar to an indexing pipeline.
type progressReporter struct {
	enabled bool
	logger  *slog.Logger

	mu   sync.Mutex
	bars map[string]*tableBar
}

func newProgressReporter(disabled bool, logger *slog.Logger) *progressReporter {
	interactive := !disabled && isatty.IsTerminal(os.Stdout.Fd())
	return &progressReporter{
		enabled: interactive,
		logger:  logger,
		bars:    make(map[string]*tableBar),
	}
}

// tableBar wraps one table's progress display, whichever form it takes.
type tableBar struct {
	name    string
	bar     *progressbar.ProgressBar
	logger  *slog.Logger
	enabled bool
}

func (r *progressReporter) start(table string) *tableBar {
	tb := &tableBar{name: table, logger: r.logger, enabled: r.enabled}
	if r.enabled {
		tb.bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription(fmt.Sprintf("obfuscating %s", table)),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("rows/s"),
			progressbar.OptionThrottle(200*time.Millisecond),
		)
	} else {
		r.logger.Info("table.started", "table", table)
	}

	r.mu.Lock()
	r.bars[table] = tb
	r.mu.Unlock()
	return tb
}

func (b *tableBar) update(processed, total int64) {
	if b.bar != nil {
		_ = b.bar.Set64(processed)
	}
}

func (b *tableBar) finish() {
	if b.bar != nil {
		_ = b.bar.Finish()
		fmt.Println()
		return
	}
	b.logger.Info("table.finished", "table", b.name)
}

func (r *progressReporter) finish() {}
