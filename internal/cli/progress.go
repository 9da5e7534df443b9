package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// BulkProgress draws a progress bar for a bulk analysis run.
type BulkProgress struct {
	bar    *progressbar.ProgressBar
	writer io.Writer
}

// NewBulkProgress creates a progress bar for total calculations.
func NewBulkProgress(writer io.Writer, total int) *BulkProgress {
	if writer == nil {
		writer = os.Stderr
	}

	p := &BulkProgress{writer: writer}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Calculating tariff impact...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(writer)
		}),
	)
	return p
}

// Update moves the bar to done. Its signature matches engine.ProgressFunc.
func (p *BulkProgress) Update(done, _ int) {
	_ = p.bar.Set(done)
}

// Finish completes the bar, even if the run stopped early.
func (p *BulkProgress) Finish() {
	_ = p.bar.Finish()
}
