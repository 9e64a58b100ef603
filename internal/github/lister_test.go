package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quantmind-br/downgit-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLister(t *testing.T, mux *http.ServeMux) (*Lister, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	gh, err := NewClient(server.Client(), server.URL)
	require.NoError(t, err)
	return NewLister(gh), server
}

func testSpec(server *httptest.Server) *domain.RepoSpec {
	return &domain.RepoSpec{
		Owner:         "acme",
		Repository:    "widgets",
		Ref:           "main",
		ListingPrefix: ListingPrefix(server.URL, "acme", "widgets"),
	}
}

func TestNewClient(t *testing.T) {
	t.Run("public api keeps default base", func(t *testing.T) {
		gh, err := NewClient(nil, "")
		require.NoError(t, err)
		assert.Equal(t, DefaultAPIURL, gh.BaseURL.String())
	})

	t.Run("custom base gets trailing slash", func(t *testing.T) {
		gh, err := NewClient(nil, "http://localhost:9090/api/v3")
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9090/api/v3/", gh.BaseURL.String())
	})
}

func TestListingPrefix(t *testing.T) {
	assert.Equal(t, "https://api.github.com/repos/acme/widgets/contents/", ListingPrefix("", "acme", "widgets"))
	assert.Equal(t, "http://x/repos/a/b/contents/", ListingPrefix("http://x", "a", "b"))
}

func TestLister_List_Directory(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/contents/src", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "main", r.URL.Query().Get("ref"))
		fmt.Fprint(w, `[
			{"type":"file","path":"src/a.txt","download_url":"https://raw.example.com/a.txt"},
			{"type":"dir","path":"src/lib","download_url":null},
			{"type":"submodule","path":"src/vendor","download_url":null}
		]`)
	})
	lister, server := newTestLister(t, mux)

	entries, file, err := lister.List(context.Background(), testSpec(server), "src")
	require.NoError(t, err)
	assert.Nil(t, file)
	require.Len(t, entries, 3)

	assert.Equal(t, domain.TreeEntry{Path: "src/a.txt", Kind: domain.EntryFile, DownloadURL: "https://raw.example.com/a.txt"}, entries[0])
	assert.True(t, entries[1].IsDir())
	assert.Equal(t, "src/lib", entries[1].Path)
	assert.Equal(t, domain.EntryFile, entries[2].Kind)
	assert.Empty(t, entries[2].DownloadURL)
}

func TestLister_List_SingleFile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/contents/README.md", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"type":"file","path":"README.md","download_url":"https://raw.example.com/README.md"}`)
	})
	lister, server := newTestLister(t, mux)

	entries, file, err := lister.List(context.Background(), testSpec(server), "README.md")
	require.NoError(t, err)
	assert.Nil(t, entries)
	require.NotNil(t, file)
	assert.Equal(t, "README.md", file.Path)
	assert.Equal(t, "https://raw.example.com/README.md", file.DownloadURL)
}

func TestLister_List_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"not found", http.StatusNotFound, domain.ErrNotFound},
		{"server error", http.StatusInternalServerError, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/repos/acme/widgets/contents/missing", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, `{"message":"nope"}`)
			})
			lister, server := newTestLister(t, mux)
			spec := testSpec(server)

			_, _, err := lister.List(context.Background(), spec, "missing")
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrListingFailed)

			var listErr *domain.ListingError
			require.ErrorAs(t, err, &listErr)
			assert.Equal(t, "missing", listErr.Path)
			assert.Equal(t, spec.ListingPrefix+"missing?ref=main", listErr.URL)
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
		})
	}
}

func TestLister_DefaultBranch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"widgets","default_branch":"trunk"}`)
	})
	mux.HandleFunc("/repos/acme/empty", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"empty"}`)
	})
	lister, _ := newTestLister(t, mux)

	branch, err := lister.DefaultBranch(context.Background(), "acme", "widgets")
	require.NoError(t, err)
	assert.Equal(t, "trunk", branch)

	_, err = lister.DefaultBranch(context.Background(), "acme", "empty")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = lister.DefaultBranch(context.Background(), "acme", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
