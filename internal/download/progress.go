package download

import (
	"sync/atomic"

	"github.com/quantmind-br/downgit-go/internal/domain"
)

// Progress is the live status of one download. The walker and coordinator
// write it; callers read it through Snapshot at any cadence.
type Progress struct {
	processing atomic.Bool
	downloaded atomic.Int64
	total      atomic.Int64
}

// NewProgress creates an idle progress tracker
func NewProgress() *Progress {
	return &Progress{}
}

func (p *Progress) start() {
	p.downloaded.Store(0)
	p.total.Store(0)
	p.processing.Store(true)
}

func (p *Progress) finish() {
	p.processing.Store(false)
}

func (p *Progress) addTotal(n int) {
	p.total.Add(int64(n))
}

func (p *Progress) settle() {
	p.downloaded.Add(1)
}

// Snapshot returns the current state. Downloaded is read before total so a
// snapshot never reports more downloaded than discovered files.
func (p *Progress) Snapshot() domain.ProgressSnapshot {
	downloaded := p.downloaded.Load()
	total := p.total.Load()
	return domain.ProgressSnapshot{
		IsProcessing:    p.processing.Load(),
		DownloadedFiles: int(downloaded),
		TotalFiles:      int(total),
	}
}
