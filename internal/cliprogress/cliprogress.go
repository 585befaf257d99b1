// Package cliprogress renders a terminal progress bar for long-running CLI
// commands, drawing only when stderr is an interactive terminal.
package cliprogress

import (
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// Enabled reports whether stderr is attached to a terminal.
func Enabled() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// Bar wraps a progressbar.ProgressBar sized to a known total and moved by
// absolute count, matching how indexer.Progress reports cumulative totals
// rather than deltas. The zero value is a no-op bar.
type Bar struct {
	bar *progressbar.ProgressBar
}

// NewBar builds a Bar for total items described by description. If enabled
// is false or total isn't known yet, the returned Bar draws nothing.
func NewBar(enabled bool, total int, description string) *Bar {
	if !enabled || total <= 0 {
		return &Bar{}
	}
	return &Bar{bar: progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(32),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)}
}

// Set moves the bar to an absolute count.
func (b *Bar) Set(n int) {
	if b.bar == nil {
		return
	}
	_ = b.bar.Set(n)
}

// Finish completes and clears the bar.
func (b *Bar) Finish() {
	if b.bar == nil {
		return
	}
	_ = b.bar.Finish()
}
