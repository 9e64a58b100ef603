package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootFolderPolicy_Prefix(t *testing.T) {
	tests := []struct {
		name     string
		policy   RootFolderPolicy
		expected string
	}{
		{"none", RootFolderPolicy{Kind: RootFolderNone}, ""},
		{"subject", RootFolderPolicy{Kind: RootFolderSubject}, "src/"},
		{"zero value is subject", RootFolderPolicy{}, "src/"},
		{"custom", RootFolderPolicy{Kind: RootFolderCustom, Name: "x"}, "x/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.policy.Prefix("src"))
		})
	}
}

func TestRepoSpec(t *testing.T) {
	spec := &RepoSpec{Owner: "acme", Repository: "widgets", Ref: ""}

	assert.Equal(t, "acme/widgets", spec.FullName())
	assert.True(t, spec.IsRoot())

	pinned := spec.WithRef("main")
	assert.Equal(t, "main", pinned.Ref)
	assert.Empty(t, spec.Ref, "original spec must not change")
}

func TestRepoSpec_ArchiveURL(t *testing.T) {
	spec := &RepoSpec{Host: "github.com", Owner: "acme", Repository: "widgets", Ref: "main"}
	assert.Equal(t, "https://github.com/acme/widgets/archive/main.zip", spec.ArchiveURL())

	spec.Scheme = "http"
	spec.Host = "127.0.0.1:8080"
	assert.Equal(t, "http://127.0.0.1:8080/acme/widgets/archive/main.zip", spec.ArchiveURL())
}

func TestProgressSnapshot_JSON(t *testing.T) {
	snap := ProgressSnapshot{IsProcessing: true, DownloadedFiles: 2, TotalFiles: 3}

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.JSONEq(t, `{"isProcessing":true,"downloadedFiles":2,"totalFiles":3}`, string(data))
	assert.False(t, snap.Done())

	assert.True(t, ProgressSnapshot{DownloadedFiles: 3, TotalFiles: 3}.Done())
}

func TestFailure_MarshalJSON(t *testing.T) {
	f := Failure{Kind: FailureFetch, Path: "src/a.txt", Err: errors.New("HTTP 500")}

	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"fetch","path":"src/a.txt","error":"HTTP 500"}`, string(data))
}
