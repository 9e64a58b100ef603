// Package download implements the traversal-and-assembly pipeline: resolve a
// subject URL, walk the remote tree, fetch file contents concurrently and
// assemble them into a directory tree or a zip archive.
package download

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/quantmind-br/downgit-go/internal/domain"
	"github.com/quantmind-br/downgit-go/internal/output"
	"github.com/quantmind-br/downgit-go/internal/utils"
)

// FallbackBranch is used when the default branch of a repository cannot be looked up
const FallbackBranch = "master"

// Options describe one download
type Options struct {
	OutputName string
	RootFolder string
	OutputDir  string
	Zip        bool
	// Progress receives live status; a fresh tracker is used when nil
	Progress *Progress
}

// DownloaderOptions configure a Downloader
type DownloaderOptions struct {
	APIURL  string
	Host    string
	Workers int
	Listers int
	Logger  *utils.Logger
}

// Downloader runs the whole pipeline for one subject URL at a time per call.
// Concurrent calls are safe as long as each passes its own Progress.
type Downloader struct {
	resolver *Resolver
	lister   domain.Lister
	fetcher  domain.Fetcher
	workers  int
	listers  int
	logger   *utils.Logger
}

// NewDownloader creates a new downloader
func NewDownloader(lister domain.Lister, fetcher domain.Fetcher, opts DownloaderOptions) *Downloader {
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Downloader{
		resolver: NewResolver(opts.APIURL, opts.Host),
		lister:   lister,
		fetcher:  fetcher,
		workers:  opts.Workers,
		listers:  opts.Listers,
		logger:   logger,
	}
}

// Resolve exposes the resolver used by Download
func (d *Downloader) Resolve(rawURL string, opts Options) (*domain.RepoSpec, error) {
	return d.resolver.Resolve(rawURL, ResolveOptions{OutputName: opts.OutputName, RootFolder: opts.RootFolder})
}

// Download materializes rawURL according to opts. Per-file listing and fetch
// failures are returned in Result.Failures. Anything that leaves no usable
// output is returned as an error.
func (d *Downloader) Download(ctx context.Context, rawURL string, opts Options) (*domain.Result, error) {
	spec, err := d.Resolve(rawURL, opts)
	if err != nil {
		return nil, err
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}

	progress := opts.Progress
	if progress == nil {
		progress = NewProgress()
	}
	progress.start()
	defer progress.finish()

	logger := d.logger.WithComponent("downloader").WithRepo(spec.FullName())

	if spec.IsRoot() {
		return d.downloadRepository(ctx, spec, opts, progress, logger)
	}

	logger.Debug().Str("ref", spec.Ref).Str("subpath", spec.Subpath).Msg("Listing subject")
	entries, file, err := d.lister.List(ctx, spec, spec.Subpath)
	if err != nil {
		return nil, err
	}

	if file != nil {
		return d.downloadFile(ctx, spec, *file, opts, progress, logger)
	}
	return d.downloadTree(ctx, spec, entries, opts, progress, logger)
}

func (d *Downloader) downloadTree(ctx context.Context, spec *domain.RepoSpec, entries []domain.TreeEntry, opts Options, progress *Progress, logger *utils.Logger) (*domain.Result, error) {
	coord := NewCoordinator(d.fetcher, progress, CoordinatorOptions{Workers: d.workers, Logger: d.logger})
	coord.Start(ctx)
	defer coord.Stop()

	walker := NewWalker(d.lister, WalkerOptions{Listers: d.listers, Logger: d.logger})
	listFailures, walkErr := walker.WalkEntries(ctx, spec, spec.Subpath, entries, coord.Submit)

	files, fetchFailures := coord.Wait()
	if walkErr != nil {
		return nil, walkErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	failures := append(listFailures, fetchFailures...)
	logger.Info().
		Int("files", len(files)).
		Int("failures", len(failures)).
		Msg("All fetches settled")

	result := &domain.Result{Mode: modeOf(opts), Failures: failures}
	written, location, err := NewAssembler(d.logger).Assemble(ctx, spec, files, d.newSink(spec, opts))
	if err != nil {
		return nil, err
	}

	result.Files = written
	result.Output = location
	return result, nil
}

func (d *Downloader) downloadFile(ctx context.Context, spec *domain.RepoSpec, file domain.TreeEntry, opts Options, progress *Progress, logger *utils.Logger) (*domain.Result, error) {
	logger.Debug().Str("path", file.Path).Msg("Subject is a single file")

	coord := NewCoordinator(d.fetcher, progress, CoordinatorOptions{Workers: 1, Logger: d.logger})
	fetched, err := coord.FetchOne(ctx, file)
	if err != nil {
		return nil, err
	}

	var (
		sink  domain.Sink
		entry string
	)
	if opts.Zip {
		sink = d.newSink(spec, opts)
		entry = spec.SubjectName
	} else {
		sink = output.NewWriter(output.WriterOptions{BaseDir: opts.OutputDir})
		entry = spec.OutputName
	}

	if err := sink.Put(ctx, entry, fetched.Content); err != nil {
		return nil, err
	}
	location, err := sink.Close()
	if err != nil {
		return nil, err
	}
	if !opts.Zip {
		location = filepath.Join(location, entry)
	}

	return &domain.Result{Mode: modeOf(opts), Output: location, Files: []string{entry}}, nil
}

// downloadRepository fetches the provider archive instead of walking the tree.
// Zip mode keeps the archive bytes; otherwise its entries are rezipped under
// the root-folder prefix.
func (d *Downloader) downloadRepository(ctx context.Context, spec *domain.RepoSpec, opts Options, progress *Progress, logger *utils.Logger) (*domain.Result, error) {
	if spec.Ref == "" {
		spec = spec.WithRef(d.defaultBranch(ctx, spec, logger))
	}

	archiveURL := spec.ArchiveURL()
	logger.Debug().Str("url", archiveURL).Msg("Downloading repository archive")

	progress.addTotal(1)
	resp, err := d.fetcher.Get(ctx, archiveURL)
	progress.settle()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrFetchFailed, err)
	}

	// the repository always comes out as <outputName>.zip
	result := &domain.Result{Mode: domain.ModeArchive}
	if opts.Zip {
		location, err := output.SaveArchive(opts.OutputDir, spec.OutputName, resp.Body)
		if err != nil {
			return nil, err
		}
		result.Output = location
		return result, nil
	}

	prefix := spec.RootFolder.Prefix(spec.SubjectName)
	rename := func(name string) string {
		// drop the provider's <repo>-<ref>/ wrapper
		_, rest, ok := strings.Cut(name, "/")
		if !ok || rest == "" {
			return ""
		}
		return RewritePath(rest, "", prefix)
	}

	sink := output.NewZipWriter(output.ZipWriterOptions{Dir: opts.OutputDir, Name: spec.OutputName})
	written, err := output.Rewrap(ctx, resp.Body, sink, rename)
	if err != nil {
		return nil, err
	}
	location, err := sink.Close()
	if err != nil {
		return nil, err
	}

	result.Files = written
	result.Output = location
	return result, nil
}

// defaultBranch asks the provider for the default branch and falls back to
// FallbackBranch when the lookup fails.
func (d *Downloader) defaultBranch(ctx context.Context, spec *domain.RepoSpec, logger *utils.Logger) string {
	branch, err := d.lister.DefaultBranch(ctx, spec.Owner, spec.Repository)
	if err != nil || branch == "" {
		logger.Warn().Err(err).Str("fallback", FallbackBranch).Msg("Could not resolve default branch")
		return FallbackBranch
	}
	return branch
}

func (d *Downloader) newSink(spec *domain.RepoSpec, opts Options) domain.Sink {
	if opts.Zip {
		return output.NewZipWriter(output.ZipWriterOptions{Dir: opts.OutputDir, Name: spec.OutputName})
	}
	return output.NewWriter(output.WriterOptions{BaseDir: opts.OutputDir})
}

func modeOf(opts Options) domain.Mode {
	if opts.Zip {
		return domain.ModeArchive
	}
	return domain.ModeTree
}
