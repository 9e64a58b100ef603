package download

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/quantmind-br/downgit-go/internal/domain"
	"github.com/quantmind-br/downgit-go/internal/utils"
)

// DefaultWorkers is the default number of concurrent content fetches
const DefaultWorkers = 10

// CoordinatorOptions contains options for the coordinator
type CoordinatorOptions struct {
	Workers int
	Logger  *utils.Logger
}

// Coordinator fetches the content of every submitted file exactly once on a
// bounded pool and collects the results until Wait.
type Coordinator struct {
	fetcher  domain.Fetcher
	progress *Progress
	logger   *utils.Logger
	pool     *utils.Pool[domain.TreeEntry]

	mu       sync.Mutex
	files    []domain.FetchedFile
	failures []domain.Failure
}

// NewCoordinator creates a new fetch coordinator reporting into progress
func NewCoordinator(fetcher domain.Fetcher, progress *Progress, opts CoordinatorOptions) *Coordinator {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if progress == nil {
		progress = NewProgress()
	}

	c := &Coordinator{
		fetcher:  fetcher,
		progress: progress,
	}
	if opts.Logger != nil {
		c.logger = opts.Logger.WithComponent("coordinator")
	}
	c.pool = utils.NewPool[domain.TreeEntry](opts.Workers, c.fetch)
	return c
}

// Start launches the fetch workers
func (c *Coordinator) Start(ctx context.Context) {
	c.pool.Start(ctx)
}

// Submit counts entry as discovered and queues its fetch
func (c *Coordinator) Submit(entry domain.TreeEntry) {
	c.progress.addTotal(1)
	c.pool.Submit(entry)
}

// Wait blocks until every submitted fetch has settled and returns the
// fetched files sorted by path along with the per-file failures.
func (c *Coordinator) Wait() ([]domain.FetchedFile, []domain.Failure) {
	c.pool.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	files := make([]domain.FetchedFile, len(c.files))
	copy(files, c.files)
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	failures := make([]domain.Failure, len(c.failures))
	copy(failures, c.failures)
	sort.Slice(failures, func(i, j int) bool { return failures[i].Path < failures[j].Path })

	return files, failures
}

// Stop shuts the workers down
func (c *Coordinator) Stop() {
	c.pool.Stop()
}

// fetch settles one entry. Failures are recorded but never abort the run.
func (c *Coordinator) fetch(ctx context.Context, entry domain.TreeEntry) {
	defer c.progress.settle()

	resp, err := c.fetcher.Get(ctx, entry.DownloadURL)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn().Err(err).Str("path", entry.Path).Msg("File fetch failed, omitting from output")
		}
		c.mu.Lock()
		c.failures = append(c.failures, domain.Failure{
			Kind: domain.FailureFetch,
			Path: entry.Path,
			Err:  fmt.Errorf("%w: %w", domain.ErrFetchFailed, err),
		})
		c.mu.Unlock()
		return
	}

	if c.logger != nil {
		c.logger.Debug().Str("path", entry.Path).Int("bytes", len(resp.Body)).Bool("cached", resp.FromCache).Msg("Fetched file")
	}

	c.mu.Lock()
	c.files = append(c.files, domain.FetchedFile{Path: entry.Path, Content: resp.Body})
	c.mu.Unlock()
}

// FetchOne retrieves the only file of a single-file download. There is no
// partial result, so any failure is fatal.
func (c *Coordinator) FetchOne(ctx context.Context, entry domain.TreeEntry) (*domain.FetchedFile, error) {
	c.progress.addTotal(1)
	defer c.progress.settle()

	if entry.DownloadURL == "" {
		return nil, fmt.Errorf("%w: %s has no download URL", domain.ErrSingleFileFetch, entry.Path)
	}

	resp, err := c.fetcher.Get(ctx, entry.DownloadURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSingleFileFetch, err)
	}
	return &domain.FetchedFile{Path: entry.Path, Content: resp.Body}, nil
}
