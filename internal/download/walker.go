package download

import (
	"context"

	"github.com/quantmind-br/downgit-go/internal/domain"
	"github.com/quantmind-br/downgit-go/internal/utils"
)

// DefaultListers is the default number of concurrent directory listings
const DefaultListers = 4

// WalkerOptions contains options for the walker
type WalkerOptions struct {
	Listers int
	Logger  *utils.Logger
}

// Walker discovers every file below a directory of the remote tree
type Walker struct {
	lister  domain.Lister
	listers int
	logger  *utils.Logger
}

// NewWalker creates a new tree walker
func NewWalker(lister domain.Lister, opts WalkerOptions) *Walker {
	if opts.Listers <= 0 {
		opts.Listers = DefaultListers
	}
	var logger *utils.Logger
	if opts.Logger != nil {
		logger = opts.Logger.WithComponent("walker")
	}
	return &Walker{
		lister:  lister,
		listers: opts.Listers,
		logger:  logger,
	}
}

type listing struct {
	dir     string
	entries []domain.TreeEntry
	err     error
}

// Walk lists root and every directory below it, calling onFile once for each
// file that has a content URL. A directory whose listing fails is reported
// in the returned failures and its subtree is skipped. The error is non-nil
// only when ctx ends the walk early.
func (w *Walker) Walk(ctx context.Context, spec *domain.RepoSpec, root string, onFile func(domain.TreeEntry)) ([]domain.Failure, error) {
	return w.run(ctx, spec, []string{root}, nil, onFile)
}

// WalkEntries is Walk for a root whose listing the caller already holds
func (w *Walker) WalkEntries(ctx context.Context, spec *domain.RepoSpec, root string, entries []domain.TreeEntry, onFile func(domain.TreeEntry)) ([]domain.Failure, error) {
	seen := map[string]struct{}{root: {}}
	pending := w.visit(entries, nil, seen, onFile)
	return w.run(ctx, spec, pending, seen, onFile)
}

// run drains the pending stack with up to w.listers listings in flight.
// Listing results come back to this goroutine, which alone owns pending,
// seen and failures. The walk is complete when pending is empty and
// nothing is in flight.
func (w *Walker) run(ctx context.Context, spec *domain.RepoSpec, pending []string, seen map[string]struct{}, onFile func(domain.TreeEntry)) ([]domain.Failure, error) {
	if seen == nil {
		seen = make(map[string]struct{}, len(pending))
		for _, p := range pending {
			seen[p] = struct{}{}
		}
	}

	results := make(chan listing, w.listers)
	inFlight := 0
	var failures []domain.Failure

	for len(pending) > 0 || inFlight > 0 {
		for len(pending) > 0 && inFlight < w.listers {
			dir := pending[len(pending)-1]
			pending = pending[:len(pending)-1]
			inFlight++
			go w.list(ctx, spec, dir, results)
		}

		select {
		case <-ctx.Done():
			return failures, ctx.Err()
		case res := <-results:
			inFlight--
			if res.err != nil {
				if ctx.Err() != nil {
					return failures, ctx.Err()
				}
				if w.logger != nil {
					w.logger.Warn().Err(res.err).Str("path", res.dir).Msg("Directory listing failed, skipping subtree")
				}
				failures = append(failures, domain.Failure{Kind: domain.FailureListing, Path: res.dir, Err: res.err})
				continue
			}
			pending = w.visit(res.entries, pending, seen, onFile)
		}
	}

	return failures, nil
}

func (w *Walker) list(ctx context.Context, spec *domain.RepoSpec, dir string, results chan<- listing) {
	entries, file, err := w.lister.List(ctx, spec, dir)
	if err == nil && file != nil {
		entries = []domain.TreeEntry{*file}
	}
	results <- listing{dir: dir, entries: entries, err: err}
}

func (w *Walker) visit(entries []domain.TreeEntry, pending []string, seen map[string]struct{}, onFile func(domain.TreeEntry)) []string {
	for _, e := range entries {
		if e.IsDir() {
			if _, ok := seen[e.Path]; ok {
				continue
			}
			seen[e.Path] = struct{}{}
			pending = append(pending, e.Path)
			continue
		}

		if e.DownloadURL == "" {
			if w.logger != nil {
				w.logger.Warn().Str("path", e.Path).Msg("Entry has no download URL, skipping")
			}
			continue
		}
		onFile(e)
	}
	return pending
}
