package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	gogithub "github.com/google/go-github/v75/github"
	"github.com/quantmind-br/downgit-go/internal/domain"
)

// Lister lists repository directories through the contents API
type Lister struct {
	gh *gogithub.Client
}

var _ domain.Lister = (*Lister)(nil)

// NewLister wraps an API client
func NewLister(gh *gogithub.Client) *Lister {
	return &Lister{gh: gh}
}

// List returns the children of path at spec.Ref. When path names a single
// file, entries is nil and file describes it.
func (l *Lister) List(ctx context.Context, spec *domain.RepoSpec, path string) ([]domain.TreeEntry, *domain.TreeEntry, error) {
	var opts *gogithub.RepositoryContentGetOptions
	if spec.Ref != "" {
		opts = &gogithub.RepositoryContentGetOptions{Ref: spec.Ref}
	}

	fc, dc, _, err := l.gh.Repositories.GetContents(ctx, spec.Owner, spec.Repository, path, opts)
	if err != nil {
		return nil, nil, &domain.ListingError{
			Path: path,
			URL:  listingURL(spec, path),
			Err:  mapError(err),
		}
	}

	if fc != nil {
		entry := toEntry(fc)
		return nil, &entry, nil
	}

	entries := make([]domain.TreeEntry, 0, len(dc))
	for _, c := range dc {
		if c == nil {
			continue
		}
		entries = append(entries, toEntry(c))
	}
	return entries, nil, nil
}

// DefaultBranch looks up the repository's default branch
func (l *Lister) DefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	r, _, err := l.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", fmt.Errorf("get repository %s/%s: %w", owner, repo, mapError(err))
	}
	branch := r.GetDefaultBranch()
	if branch == "" {
		return "", fmt.Errorf("repository %s/%s has no default branch: %w", owner, repo, domain.ErrNotFound)
	}
	return branch, nil
}

func toEntry(c *gogithub.RepositoryContent) domain.TreeEntry {
	kind := domain.EntryFile
	if c.GetType() == "dir" {
		kind = domain.EntryDir
	}
	return domain.TreeEntry{
		Path:        c.GetPath(),
		Kind:        kind,
		DownloadURL: c.GetDownloadURL(),
	}
}

func listingURL(spec *domain.RepoSpec, path string) string {
	u := spec.ListingPrefix + path
	if spec.Ref != "" {
		u += "?ref=" + url.QueryEscape(spec.Ref)
	}
	return u
}

// mapError translates go-github errors to domain sentinels
func mapError(err error) error {
	var rateErr *gogithub.RateLimitError
	var abuseErr *gogithub.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
	}

	var respErr *gogithub.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", domain.ErrNotFound, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
		}
	}
	return err
}
