package download

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/quantmind-br/downgit-go/internal/domain"
	"github.com/stretchr/testify/require"
)

const rawBase = "https://raw.example.com/acme/widgets/main/"

// fakeRepo is an in-memory repository serving both listings and raw content
type fakeRepo struct {
	mu        sync.Mutex
	dirs      map[string][]domain.TreeEntry
	files     map[string]string
	failList  map[string]bool
	failFetch map[string]bool
	listCalls map[string]int
	fetches   int
}

var (
	_ domain.Lister  = (*fakeRepo)(nil)
	_ domain.Fetcher = (*fakeRepo)(nil)
)

func newFakeRepo(files map[string]string) *fakeRepo {
	r := &fakeRepo{
		dirs:      map[string][]domain.TreeEntry{"": nil},
		files:     files,
		failList:  map[string]bool{},
		failFetch: map[string]bool{},
		listCalls: map[string]int{},
	}

	seen := map[string]bool{}
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		parts := strings.Split(p, "/")
		for i := 1; i <= len(parts); i++ {
			parent := strings.Join(parts[:i-1], "/")
			child := strings.Join(parts[:i], "/")
			if seen[child] {
				continue
			}
			seen[child] = true

			entry := domain.TreeEntry{Path: child, Kind: domain.EntryDir}
			if i == len(parts) {
				entry = domain.TreeEntry{Path: child, Kind: domain.EntryFile, DownloadURL: rawBase + child}
			} else if _, ok := r.dirs[child]; !ok {
				r.dirs[child] = nil
			}
			r.dirs[parent] = append(r.dirs[parent], entry)
		}
	}
	return r
}

// addEntry appends a raw entry to a directory listing
func (r *fakeRepo) addEntry(dir string, e domain.TreeEntry) {
	r.dirs[dir] = append(r.dirs[dir], e)
}

func (r *fakeRepo) List(ctx context.Context, spec *domain.RepoSpec, path string) ([]domain.TreeEntry, *domain.TreeEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls[path]++

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if r.failList[path] {
		return nil, nil, &domain.ListingError{Path: path, URL: spec.ListingPrefix + path, Err: errors.New("HTTP 500")}
	}
	if _, ok := r.files[path]; ok {
		return nil, &domain.TreeEntry{Path: path, Kind: domain.EntryFile, DownloadURL: rawBase + path}, nil
	}
	entries, ok := r.dirs[path]
	if !ok {
		return nil, nil, &domain.ListingError{Path: path, URL: spec.ListingPrefix + path, Err: domain.ErrNotFound}
	}
	out := make([]domain.TreeEntry, len(entries))
	copy(out, entries)
	return out, nil, nil
}

func (r *fakeRepo) DefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	return "main", nil
}

func (r *fakeRepo) Get(ctx context.Context, url string) (*domain.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches++

	path := strings.TrimPrefix(url, rawBase)
	if r.failFetch[path] {
		return nil, domain.NewFetchError(url, 500, errors.New("HTTP 500"))
	}
	content, ok := r.files[path]
	if !ok {
		return nil, domain.NewFetchError(url, 404, domain.ErrNotFound)
	}
	return &domain.Response{StatusCode: 200, Body: []byte(content), URL: url}, nil
}

func (r *fakeRepo) Close() error { return nil }

func (r *fakeRepo) fileEntries() int {
	n := 0
	for _, entries := range r.dirs {
		for _, e := range entries {
			if !e.IsDir() && e.DownloadURL != "" {
				n++
			}
		}
	}
	return n
}

// readTree returns every file under dir keyed by slash path
func readTree(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}
