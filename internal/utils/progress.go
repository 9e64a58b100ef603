package utils

import (
	"context"
	"io"
	"time"

	"github.com/quantmind-br/downgit-go/internal/domain"
	"github.com/schollz/progressbar/v3"
)

// Standard progress bar descriptions
const (
	DescListing     = "Listing"
	DescDownloading = "Downloading"
	DescArchiving   = "Archiving"
)

// NewProgressBar creates a consistently styled progress bar.
//
// Parameters:
//   - total: Total number of items. Use -1 for unknown totals (spinner mode).
//   - description: Text shown before the bar (e.g., DescDownloading).
//   - out: Destination; nil means the progressbar default (stdout).
func NewProgressBar(total int, description string, out io.Writer) *progressbar.ProgressBar {
	opts := []progressbar.Option{
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
	}
	if out != nil {
		opts = append(opts, progressbar.OptionSetWriter(out))
	}

	if total < 0 {
		opts = append(opts,
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetRenderBlankState(true),
		)
	} else {
		opts = append(opts,
			progressbar.OptionShowIts(),
		)
	}

	return progressbar.NewOptions(total, opts...)
}

// TrackProgress polls snapshot every interval and mirrors it onto bar until
// ctx is done. The bar max follows TotalFiles since files are discovered
// while the download runs.
func TrackProgress(ctx context.Context, bar *progressbar.ProgressBar, interval time.Duration, snapshot func() domain.ProgressSnapshot) {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	update := func() {
		s := snapshot()
		if s.TotalFiles > 0 && int64(s.TotalFiles) != bar.GetMax64() {
			bar.ChangeMax(s.TotalFiles)
		}
		_ = bar.Set(s.DownloadedFiles)
		if s.TotalFiles > 0 {
			bar.Describe(DescDownloading)
		}
	}

	for {
		select {
		case <-ctx.Done():
			update()
			return
		case <-ticker.C:
			update()
		}
	}
}
